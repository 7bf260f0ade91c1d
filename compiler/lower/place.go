package lower

import (
	"context"

	"tlog.app/go/errors"

	"github.com/slowlang/cflat/compiler/ast"
	"github.com/slowlang/cflat/compiler/lir"
	"github.com/slowlang/cflat/compiler/tp"
)

// lowerPlace yields a pointer to the place.
func (c *funContext) lowerPlace(ctx context.Context, p ast.Place) (lir.Var, error) {
	switch p := p.(type) {
	case ast.Id:
		// Names are read and assigned directly and have no address.
		return "", structural("place", "address of variable %v taken", p.Name)
	case ast.Deref:
		return c.lowerExpr(ctx, p.X)
	case ast.ArrayAccess:
		return c.lowerArrayAccess(ctx, p)
	case ast.FieldAccess:
		return c.lowerFieldAccess(ctx, p)
	case nil:
		return "", structural("place", "missing place")
	default:
		return "", structural("place", "unsupported place node: %T", p)
	}
}

func (c *funContext) lowerArrayAccess(ctx context.Context, p ast.ArrayAccess) (lir.Var, error) {
	src, err := c.lowerExpr(ctx, p.Array)
	if err != nil {
		return "", errors.Wrap(err, "index: array")
	}

	idx, err := c.lowerExpr(ctx, p.Index)
	if err != nil {
		return "", errors.Wrap(err, "index: index")
	}

	at, err := c.typeOf(src)
	if err != nil {
		return "", err
	}

	arr, ok := at.(tp.Array)
	if !ok {
		return "", structural("array access", "%v is not an array: %v", src, at)
	}

	v := c.freshInnerVar(c.types.Ptr(arr.Elem))
	c.emit(lir.Gep{Dst: v, Src: src, Index: idx, Checked: true})
	c.release(src, idx)

	return v, nil
}

func (c *funContext) lowerFieldAccess(ctx context.Context, p ast.FieldAccess) (lir.Var, error) {
	src, err := c.lowerExpr(ctx, p.Ptr)
	if err != nil {
		return "", errors.Wrap(err, "field %v", p.Field)
	}

	pt, err := c.typeOf(src)
	if err != nil {
		return "", err
	}

	et, _ := pointee(pt)

	st, ok := et.(tp.Struct)
	if !ok {
		return "", structural("field access", "%v is not a pointer to struct: %v", src, pt)
	}

	s, ok := c.prog.Structs[lir.StructID(st.Name)]
	if !ok {
		return "", structural("field access", "undefined struct: %v", st.Name)
	}

	ft, ok := s.Field(lir.FieldID(p.Field))
	if !ok {
		return "", structural("field access", "struct %v has no field %v", st.Name, p.Field)
	}

	v := c.freshInnerVar(c.types.Ptr(ft))
	c.emit(lir.Gfp{Dst: v, Src: src, Struct: s.Name, Field: lir.FieldID(p.Field)})
	c.release(src)

	return v, nil
}
