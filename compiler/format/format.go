package format

import (
	"context"
	"sort"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"

	"github.com/slowlang/cflat/compiler/lir"
	"github.com/slowlang/cflat/compiler/tp"
)

// Format appends the canonical text of a program, function, block,
// instruction, terminal or type to b.
func Format(ctx context.Context, b []byte, x any) ([]byte, error) {
	switch x := x.(type) {
	case *lir.Program:
		return formatProgram(ctx, b, x)
	case *lir.Function:
		return formatFunc(ctx, b, x)
	case *lir.Block:
		return formatBlock(ctx, b, x)
	case lir.Terminal:
		return formatTerminal(b, x), nil
	case lir.Inst:
		return formatInst(b, x)
	case tp.Type:
		return append(b, typ(x)...), nil
	default:
		return nil, errors.New("unsupported type: %T", x)
	}
}

// Program renders the whole program. Use it when the program
// came out of the lowering pass and is known to be well formed.
func Program(ctx context.Context, p *lir.Program) ([]byte, error) {
	return formatProgram(ctx, nil, p)
}

func formatProgram(ctx context.Context, b []byte, p *lir.Program) (_ []byte, err error) {
	for _, name := range p.SortedStructs() {
		s := p.Structs[name]

		b = app(b, 0, "struct %v {\n", name)

		for _, f := range sortedFields(s.Fields) {
			b = app(b, 1, "%v: %v;\n", f.Name, typ(f.Type))
		}

		b = app(b, 0, "}\n\n")
	}

	for _, name := range p.SortedExterns() {
		b = app(b, 0, "extern %v : %v\n", name, typ(p.Externs[name]))
	}

	if len(p.Externs) != 0 {
		b = append(b, '\n')
	}

	for _, name := range p.SortedFunptrs() {
		b = app(b, 0, "funptr %v : %v\n", name, typ(p.Funptrs[name]))
	}

	if len(p.Funptrs) != 0 {
		b = append(b, '\n')
	}

	for _, name := range p.SortedFunctions() {
		b, err = formatFunc(ctx, b, p.Functions[name])
		if err != nil {
			return nil, errors.Wrap(err, "func %v", name)
		}
	}

	return b, nil
}

func formatFunc(ctx context.Context, b []byte, f *lir.Function) (_ []byte, err error) {
	b = app(b, 0, "fn %v(", f.Name)

	for i, p := range f.Params {
		if i != 0 {
			b = append(b, ", "...)
		}

		b = app(b, 0, "%v: %v", p.Name, typ(p.Type))
	}

	b = app(b, 0, ") -> %v {\n", typ(f.Ret))

	if len(f.Locals) != 0 {
		b = append(b, "let "...)

		for i, name := range f.SortedLocals() {
			if i != 0 {
				b = append(b, ", "...)
			}

			b = app(b, 0, "%v:%v", name, typ(f.Locals[name]))
		}

		b = append(b, '\n')
	}

	for _, l := range f.BlockOrder() {
		b, err = formatBlock(ctx, b, f.Blocks[l])
		if err != nil {
			return nil, errors.Wrap(err, "block %v", l)
		}
	}

	b = app(b, 0, "}\n\n")

	return b, nil
}

func formatBlock(ctx context.Context, b []byte, bb *lir.Block) (_ []byte, err error) {
	b = app(b, 0, "\n%v:\n", bb.Label)

	for i, x := range bb.Insts {
		b, err = formatInst(b, x)
		if err != nil {
			return nil, errors.Wrap(err, "inst %d", i)
		}
	}

	b = formatTerminal(b, bb.Term)

	return b, nil
}

func formatInst(b []byte, x lir.Inst) ([]byte, error) {
	switch x := x.(type) {
	case lir.Const:
		b = app(b, 1, "%v = $const %d\n", x.Dst, x.Value)
	case lir.Copy:
		b = app(b, 1, "%v = $copy %v\n", x.Dst, x.Src)
	case lir.Arith:
		b = app(b, 1, "%v = $arith %v %v %v\n", x.Dst, x.Op, x.Left, x.Right)
	case lir.Cmp:
		b = app(b, 1, "%v = $cmp %v %v %v\n", x.Dst, x.Op, x.Left, x.Right)
	case lir.Load:
		b = app(b, 1, "%v = $load %v\n", x.Dst, x.Src)
	case lir.Store:
		b = app(b, 1, "$store %v %v\n", x.Dst, x.Src)
	case lir.Gfp:
		b = app(b, 1, "%v = $gfp %v, %v, %v\n", x.Dst, x.Src, x.Struct, x.Field)
	case lir.Gep:
		b = app(b, 1, "%v = $gep %v %v [%v]\n", x.Dst, x.Src, x.Index, x.Checked)
	case lir.AllocSingle:
		b = app(b, 1, "%v = $alloc_single %v\n", x.Dst, typ(x.Type))
	case lir.AllocArray:
		b = app(b, 1, "%v = $alloc_array %v %v\n", x.Dst, x.Len, typ(x.Type))
	case lir.Call:
		b = app(b, 1, "")

		if x.Dst != "" {
			b = app(b, 0, "%v = ", x.Dst)
		}

		b = app(b, 0, "$call %v", x.Callee)

		for _, a := range x.Args {
			b = app(b, 0, ", %v", a)
		}

		b = append(b, '\n')
	default:
		return nil, errors.New("unsupported instruction: %T", x)
	}

	return b, nil
}

func formatTerminal(b []byte, t lir.Terminal) []byte {
	switch t := t.(type) {
	case lir.Jump:
		return app(b, 1, "$jump %v\n", t.Target)
	case lir.Branch:
		return app(b, 1, "$branch %v %v %v\n", t.Guard, t.True, t.False)
	case lir.Ret:
		if t.Value == "" {
			return app(b, 1, "$ret\n")
		}

		return app(b, 1, "$ret %v\n", t.Value)
	default:
		return app(b, 1, "$unreachable\n")
	}
}

func sortedFields(fs []lir.Field) []lir.Field {
	r := append([]lir.Field{}, fs...)

	sort.SliceStable(r, func(i, j int) bool { return r[i].Name < r[j].Name })

	return r
}

func typ(t tp.Type) string {
	if t == nil {
		return "<null_type>"
	}

	return t.String()
}

func app(b []byte, d int, f string, args ...any) []byte {
	const indent = "                "
	b = append(b, indent[:2*d]...)
	b = hfmt.Appendf(b, f, args...)
	return b
}
