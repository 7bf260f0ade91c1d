package lower

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/cflat/compiler/ast"
	"github.com/slowlang/cflat/compiler/lir"
	"github.com/slowlang/cflat/compiler/tp"
)

type (
	Options struct {
		// Entry is the function the program starts at.
		// It gets no funptr entry. Defaults to DefaultEntry.
		Entry string

		// Passes run over every function right after its blocks are assembled,
		// in order. Unreachable-block pruning belongs here.
		Passes []Pass
	}

	Pass func(ctx context.Context, p *lir.Program, f *lir.Function) error

	lowerer struct {
		Options

		prog  *lir.Program
		types *tp.Cache
	}
)

const DefaultEntry = "main"

// Lower translates a type-checked AST into a LIR program.
// The AST is not modified.
func Lower(ctx context.Context, x *ast.Program, opts Options) (_ *lir.Program, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "lower program",
		"structs", len(x.Structs), "externs", len(x.Externs), "functions", len(x.Functions))
	defer tr.Finish("err", &err)

	if opts.Entry == "" {
		opts.Entry = DefaultEntry
	}

	l := &lowerer{
		Options: opts,
		prog:    lir.NewProgram(),
		types:   tp.NewCache(),
	}

	for _, d := range x.Structs {
		err = l.addStruct(d)
		if err != nil {
			return nil, errors.Wrap(err, "struct %v", d.Name)
		}
	}

	for _, d := range x.Externs {
		err = l.addExtern(d)
		if err != nil {
			return nil, errors.Wrap(err, "extern %v", d.Name)
		}
	}

	// All shells and funptrs must exist before any body is lowered:
	// bodies call each other, forward and recursively.
	for _, d := range x.Functions {
		err = l.addFunc(d)
		if err != nil {
			return nil, errors.Wrap(err, "func %v", d.Name)
		}
	}

	for _, d := range x.Functions {
		err = l.lowerFunc(ctx, d)
		if err != nil {
			return nil, errors.Wrap(err, "func %v", d.Name)
		}
	}

	return l.prog, nil
}

func (l *lowerer) addStruct(d *ast.StructDef) error {
	id := lir.StructID(d.Name)

	if _, ok := l.prog.Structs[id]; ok {
		return structural("struct", "name redefined: %v", d.Name)
	}

	s := &lir.Struct{Name: id}

	for _, f := range d.Fields {
		t, err := l.convertType(f.Type)
		if err != nil {
			return errors.Wrap(err, "field %v", f.Name)
		}

		s.Fields = append(s.Fields, lir.Field{Name: lir.FieldID(f.Name), Type: t})
	}

	l.prog.Structs[id] = s

	return nil
}

func (l *lowerer) addExtern(d *ast.Extern) error {
	id := lir.FuncID(d.Name)

	if _, ok := l.prog.Externs[id]; ok {
		return structural("extern", "name redefined: %v", d.Name)
	}

	t, err := l.convertType(ast.Func{Params: d.Params, Ret: d.Ret})
	if err != nil {
		return err
	}

	l.prog.Externs[id] = t

	return nil
}

func (l *lowerer) addFunc(d *ast.FuncDef) error {
	id := lir.FuncID(d.Name)

	if _, ok := l.prog.Functions[id]; ok {
		return structural("function", "name redefined: %v", d.Name)
	}

	f := lir.NewFunction(id)

	ret, err := l.convertType(d.Ret)
	if err != nil {
		return errors.Wrap(err, "return type")
	}

	f.Ret = ret

	params := make([]tp.Type, len(d.Params))

	for i, p := range d.Params {
		t, err := l.convertType(p.Type)
		if err != nil {
			return errors.Wrap(err, "param %v", p.Name)
		}

		f.Params = append(f.Params, lir.Param{Name: lir.Var(p.Name), Type: t})
		f.Locals[lir.Var(p.Name)] = t
		params[i] = t
	}

	for _, v := range d.Locals {
		t, err := l.convertType(v.Type)
		if err != nil {
			return errors.Wrap(err, "local %v", v.Name)
		}

		f.Locals[lir.Var(v.Name)] = t
	}

	if d.Name != l.Entry {
		l.prog.Funptrs[id] = l.types.Ptr(l.types.Func(params, ret))
	}

	l.prog.Functions[id] = f

	return nil
}

func (l *lowerer) convertType(x ast.Type) (tp.Type, error) {
	switch x := x.(type) {
	case ast.Int:
		return l.types.Intern(tp.Int{}), nil
	case ast.Nil:
		return l.types.Intern(tp.Nil{}), nil
	case ast.StructType:
		return l.types.Intern(tp.Struct{Name: x.Name}), nil
	case ast.Ptr:
		e, err := l.convertType(x.Elem)
		if err != nil {
			return nil, err
		}

		return l.types.Ptr(e), nil
	case ast.Array:
		e, err := l.convertType(x.Elem)
		if err != nil {
			return nil, err
		}

		return l.types.Array(e), nil
	case ast.Func:
		ps := make([]tp.Type, len(x.Params))

		for i, p := range x.Params {
			t, err := l.convertType(p)
			if err != nil {
				return nil, errors.Wrap(err, "param %d", i)
			}

			ps[i] = t
		}

		r, err := l.convertType(x.Ret)
		if err != nil {
			return nil, errors.Wrap(err, "return type")
		}

		return l.types.Func(ps, r), nil
	default:
		return nil, structural("type", "unsupported type node: %T", x)
	}
}
