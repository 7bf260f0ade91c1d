package lower

import (
	"context"
	"math"

	"tlog.app/go/errors"

	"github.com/slowlang/cflat/compiler/ast"
	"github.com/slowlang/cflat/compiler/lir"
	"github.com/slowlang/cflat/compiler/tp"
)

func (c *funContext) lowerExpr(ctx context.Context, e ast.Expr) (v lir.Var, err error) {
	switch e := e.(type) {
	case ast.Val:
		return c.lowerVal(ctx, e)
	case ast.Num:
		return c.constVar(e.Value)
	case ast.NilLit:
		return lir.NilVar, nil
	case ast.Select:
		return c.selection(ctx, e.Guard, e.True, e.False, "if")
	case ast.UnOp:
		return c.lowerUnOp(ctx, e)
	case ast.BinOp:
		return c.lowerBinOp(ctx, e)
	case ast.NewSingle:
		t, err := c.convertType(e.Type)
		if err != nil {
			return "", errors.Wrap(err, "new")
		}

		v = c.freshVar(c.types.Ptr(t))
		c.emit(lir.AllocSingle{Dst: v, Type: t})

		return v, nil
	case ast.NewArray:
		t, err := c.convertType(e.Type)
		if err != nil {
			return "", errors.Wrap(err, "new array")
		}

		v = c.freshVar(c.types.Array(t))

		n, err := c.lowerExpr(ctx, e.Len)
		if err != nil {
			return "", errors.Wrap(err, "new array: len")
		}

		c.emit(lir.AllocArray{Dst: v, Len: n, Type: t})
		c.release(n)

		return v, nil
	case ast.CallExpr:
		return c.lowerCall(ctx, e.Call, true)
	case nil:
		return "", structural("expression", "missing expression")
	default:
		return "", structural("expression", "unsupported expression node: %T", e)
	}
}

// lowerVal reads a place. A bare name is its own value.
func (c *funContext) lowerVal(ctx context.Context, e ast.Val) (lir.Var, error) {
	if id, ok := e.Place.(ast.Id); ok {
		return lir.Var(id.Name), nil
	}

	p, err := c.lowerPlace(ctx, e.Place)
	if err != nil {
		return "", errors.Wrap(err, "load")
	}

	pt, err := c.typeOf(p)
	if err != nil {
		return "", err
	}

	t, ok := pointee(pt)
	if !ok {
		return "", structural("load", "%v is not a pointer: %v", p, pt)
	}

	v := c.freshVar(t)
	c.emit(lir.Load{Dst: v, Src: p})
	c.release(p)

	return v, nil
}

func (c *funContext) lowerUnOp(ctx context.Context, e ast.UnOp) (lir.Var, error) {
	switch e.Op {
	case ast.Neg:
		if n, ok := e.X.(ast.Num); ok {
			if n.Value == math.MinInt64 {
				return "", structural("literal", "-(%d) overflows int64", n.Value)
			}

			return c.constVar(-n.Value)
		}

		v := c.freshVar(c.types.Intern(tp.Int{}))

		zero, err := c.constVar(0)
		if err != nil {
			return "", err
		}

		x, err := c.lowerExpr(ctx, e.X)
		if err != nil {
			return "", errors.Wrap(err, "neg")
		}

		c.emit(lir.Arith{Dst: v, Op: lir.Sub, Left: zero, Right: x})
		c.release(x)

		return v, nil
	case ast.Not:
		return c.lowerBinOp(ctx, ast.BinOp{Op: ast.Eq, Left: e.X, Right: ast.Num{}})
	default:
		return "", structural("unary operator", "unsupported operator: %v", e.Op)
	}
}

func (c *funContext) lowerBinOp(ctx context.Context, e ast.BinOp) (lir.Var, error) {
	switch {
	case e.Op == ast.And:
		return c.selection(ctx, e.Left, e.Right, ast.Num{}, "and")
	case e.Op == ast.Or:
		return c.lowerOr(ctx, e)
	case e.Op.IsArith(), e.Op.IsCmp():
	default:
		return "", structural("binary operator", "unsupported operator: %v", e.Op)
	}

	l, err := c.lowerExpr(ctx, e.Left)
	if err != nil {
		return "", errors.Wrap(err, "%v: left", e.Op)
	}

	r, err := c.lowerExpr(ctx, e.Right)
	if err != nil {
		return "", errors.Wrap(err, "%v: right", e.Op)
	}

	v := c.freshVar(c.types.Intern(tp.Int{}))

	if e.Op.IsArith() {
		c.emit(lir.Arith{Dst: v, Op: arithOp(e.Op), Left: l, Right: r})
	} else {
		c.emit(lir.Cmp{Dst: v, Op: relOp(e.Op), Left: l, Right: r})
	}

	c.release(l, r)

	return v, nil
}

// selection lowers guard ? tt : ff into a result both arms copy to.
// The result is allocated by the first arm that yields a real value,
// so a nil arm adds no instructions. Both arms being nil yields NilVar.
func (c *funContext) selection(ctx context.Context, guard, tt, ff ast.Expr, prefix string) (lir.Var, error) {
	tl := c.newLabel(prefix + "_true")
	fl := c.newLabel(prefix + "_false")
	end := c.newLabel(prefix + "_end")

	x := lir.NilVar

	g, err := c.lowerExpr(ctx, guard)
	if err != nil {
		return "", errors.Wrap(err, "select: guard")
	}

	c.terminate(lir.Branch{Guard: g, True: tl, False: fl})
	c.label(tl)
	c.release(g)

	z, err := c.lowerExpr(ctx, tt)
	if err != nil {
		return "", errors.Wrap(err, "select: true")
	}

	if z != lir.NilVar {
		t, err := c.typeOf(z)
		if err != nil {
			return "", err
		}

		x = c.freshVar(t)
		c.emit(lir.Copy{Dst: x, Src: z})
	}

	c.release(z)
	c.terminate(lir.Jump{Target: end})
	c.label(fl)

	w, err := c.lowerExpr(ctx, ff)
	if err != nil {
		return "", errors.Wrap(err, "select: false")
	}

	if w != lir.NilVar {
		if x == lir.NilVar {
			t, err := c.typeOf(w)
			if err != nil {
				return "", err
			}

			x = c.freshVar(t)
		}

		c.emit(lir.Copy{Dst: x, Src: w})
	}

	c.release(w)
	c.terminate(lir.Jump{Target: end})
	c.label(end)

	return x, nil
}

// lowerOr short-circuits: a true left side jumps straight to the end
// with the carrier already set.
func (c *funContext) lowerOr(ctx context.Context, e ast.BinOp) (lir.Var, error) {
	ff := c.newLabel("or_false")
	end := c.newLabel("or_end")

	x, err := c.lowerExpr(ctx, e.Left)
	if err != nil {
		return "", errors.Wrap(err, "or: left")
	}

	y := c.freshVar(c.types.Intern(tp.Int{}))

	c.emit(lir.Copy{Dst: y, Src: x})
	c.terminate(lir.Branch{Guard: y, True: end, False: ff})
	c.label(ff)
	c.release(x)

	z, err := c.lowerExpr(ctx, e.Right)
	if err != nil {
		return "", errors.Wrap(err, "or: right")
	}

	c.emit(lir.Copy{Dst: y, Src: z})
	c.release(z)
	c.terminate(lir.Jump{Target: end})
	c.label(end)

	return y, nil
}

// lowerCall evaluates arguments right to left, then the callee.
// Call arguments keep source order.
func (c *funContext) lowerCall(ctx context.Context, call ast.FunCall, value bool) (v lir.Var, err error) {
	args := make([]lir.Var, len(call.Args))

	for i := len(call.Args) - 1; i >= 0; i-- {
		args[i], err = c.lowerExpr(ctx, call.Args[i])
		if err != nil {
			return "", errors.Wrap(err, "call: arg %d", i)
		}
	}

	fn, err := c.lowerExpr(ctx, call.Callee)
	if err != nil {
		return "", errors.Wrap(err, "call: callee")
	}

	if value {
		ft, err := c.typeOf(fn)
		if err != nil {
			return "", err
		}

		rt, ok := tp.Ret(ft)
		if !ok {
			return "", structural("call", "%v is not callable: %v", fn, ft)
		}

		v = c.freshVar(rt)
	}

	c.emit(lir.Call{Dst: v, Callee: fn, Args: args})
	c.release(args...)
	c.release(fn)

	return v, nil
}

func pointee(t tp.Type) (tp.Type, bool) {
	p, ok := t.(tp.Ptr)
	if !ok {
		return nil, false
	}

	return p.Elem, true
}

func arithOp(op ast.BinaryOp) lir.ArithOp {
	switch op {
	case ast.Sub:
		return lir.Sub
	case ast.Mul:
		return lir.Mul
	case ast.Div:
		return lir.Div
	}

	return lir.Add
}

func relOp(op ast.BinaryOp) lir.RelOp {
	switch op {
	case ast.NotEq:
		return lir.NotEq
	case ast.Lt:
		return lir.Lt
	case ast.Lte:
		return lir.Lte
	case ast.Gt:
		return lir.Gt
	case ast.Gte:
		return lir.Gte
	}

	return lir.Eq
}
