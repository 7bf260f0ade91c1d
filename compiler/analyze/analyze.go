package analyze

import (
	"context"
	"fmt"

	"nikand.dev/go/heap"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/cflat/compiler/lir"
	"github.com/slowlang/cflat/compiler/set"
	"github.com/slowlang/cflat/compiler/tp"
)

type (
	// UnterminatedBlockError is a block left without a terminator.
	// It renders as $unreachable and means the lowering is broken.
	UnterminatedBlockError struct {
		Func  lir.FuncID
		Block lir.Label
	}

	MissingTargetError struct {
		Func   lir.FuncID
		Block  lir.Label
		Target lir.Label
	}

	MissingEntryError struct {
		Func lir.FuncID
	}

	UndefinedVarError struct {
		Func  lir.FuncID
		Block lir.Label
		Var   lir.Var
	}

	// TypeMismatchError is an instruction writing a value
	// of type Got where Want is expected.
	TypeMismatchError struct {
		Func  lir.FuncID
		Block lir.Label
		Var   lir.Var
		Want  tp.Type
		Got   tp.Type
	}
)

// Verify checks every function of the program.
func Verify(ctx context.Context, p *lir.Program) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "verify", "functions", len(p.Functions))
	defer tr.Finish("err", &err)

	for _, name := range p.SortedFunctions() {
		err = VerifyFunc(ctx, p, p.Functions[name])
		if err != nil {
			return err
		}
	}

	return nil
}

// VerifyFunc checks that f is a well formed control flow graph:
// the entry block exists, every block is terminated,
// branch targets exist and every variable is declared.
func VerifyFunc(ctx context.Context, p *lir.Program, f *lir.Function) error {
	entry := f.EntryLabel()

	if _, ok := f.Blocks[entry]; !ok {
		return MissingEntryError{Func: f.Name}
	}

	for _, l := range f.BlockOrder() {
		b := f.Blocks[l]

		if b.Label != l {
			return errors.New("%v: block %v is stored under %v", f.Name, b.Label, l)
		}

		for _, x := range b.Insts {
			if v, ok := lir.Def(x); ok && !defined(p, f, v) {
				return UndefinedVarError{Func: f.Name, Block: l, Var: v}
			}

			for _, v := range lir.Uses(x) {
				if !defined(p, f, v) {
					return UndefinedVarError{Func: f.Name, Block: l, Var: v}
				}
			}

			err := checkTypes(p, f, l, x)
			if err != nil {
				return err
			}
		}

		switch t := b.Term.(type) {
		case nil:
			return UnterminatedBlockError{Func: f.Name, Block: l}
		case lir.Branch:
			if !defined(p, f, t.Guard) {
				return UndefinedVarError{Func: f.Name, Block: l, Var: t.Guard}
			}
		case lir.Ret:
			if t.Value != "" && !defined(p, f, t.Value) {
				return UndefinedVarError{Func: f.Name, Block: l, Var: t.Value}
			}
		}

		for _, s := range lir.Successors(b.Term) {
			if _, ok := f.Blocks[s]; !ok {
				return MissingTargetError{Func: f.Name, Block: l, Target: s}
			}
		}
	}

	tlog.SpanFromContext(ctx).V("verify").Printw("function verified", "func", f.Name, "blocks", len(f.Blocks))

	return nil
}

// Reachable returns the positions in f.BlockOrder()
// of the blocks reachable from the entry block.
func Reachable(f *lir.Function) set.Bitmap {
	order := f.BlockOrder()
	pos := make(map[lir.Label]int, len(order))

	for i, l := range order {
		pos[l] = i
	}

	seen := set.MakeBitmap(len(order))

	entry, ok := pos[f.EntryLabel()]
	if !ok {
		return seen
	}

	q := heap.Heap[int]{Less: func(d []int, i, j int) bool { return d[i] < d[j] }}

	seen.Set(entry)
	q.Push(entry)

	for q.Len() != 0 {
		i := q.Pop()

		for _, s := range lir.Successors(f.Blocks[order[i]].Term) {
			j, ok := pos[s]
			if !ok || seen.IsSet(j) {
				continue
			}

			seen.Set(j)
			q.Push(j)
		}
	}

	return seen
}

// Unreachable lists the blocks no path from the entry block leads to,
// in block order. They are left in place.
func Unreachable(f *lir.Function) (r []lir.Label) {
	seen := Reachable(f)

	for i, l := range f.BlockOrder() {
		if !seen.IsSet(i) {
			r = append(r, l)
		}
	}

	return r
}

// ReportUnreachable logs unreachable blocks of f.
// It has the shape of a lowering pass and never fails.
func ReportUnreachable(ctx context.Context, p *lir.Program, f *lir.Function) error {
	ls := Unreachable(f)
	if len(ls) == 0 {
		return nil
	}

	tlog.SpanFromContext(ctx).Printw("unreachable blocks", "func", f.Name, "blocks", ls)

	return nil
}

// checkTypes checks the instructions that move values between places:
// copies, stores and element pointers.
func checkTypes(p *lir.Program, f *lir.Function, l lir.Label, x lir.Inst) error {
	mismatch := func(v lir.Var, want, got tp.Type) error {
		return TypeMismatchError{Func: f.Name, Block: l, Var: v, Want: want, Got: got}
	}

	switch x := x.(type) {
	case lir.Copy:
		dt, _ := varType(p, f, x.Dst)
		st, _ := varType(p, f, x.Src)

		if !tp.Assignable(dt, st) {
			return mismatch(x.Dst, dt, st)
		}
	case lir.Store:
		pt, _ := varType(p, f, x.Dst)
		st, _ := varType(p, f, x.Src)

		if _, ok := pt.(tp.Ptr); !ok {
			return mismatch(x.Dst, tp.Ptr{Elem: st}, pt)
		}

		et, _ := tp.Elem(pt)

		if !tp.Assignable(et, st) {
			return mismatch(x.Dst, et, st)
		}
	case lir.Gep:
		at, _ := varType(p, f, x.Src)
		dt, _ := varType(p, f, x.Dst)

		if _, ok := at.(tp.Array); !ok {
			return errors.New("%v: block %v: element pointer into %v of type %v", f.Name, l, x.Src, at)
		}

		et, _ := tp.Elem(at)
		want := tp.Ptr{Elem: et}

		if !tp.Equal(want, dt) {
			return mismatch(x.Dst, want, dt)
		}
	}

	return nil
}

func defined(p *lir.Program, f *lir.Function, v lir.Var) bool {
	_, ok := varType(p, f, v)
	return ok
}

func varType(p *lir.Program, f *lir.Function, v lir.Var) (tp.Type, bool) {
	if v == lir.NilVar {
		return tp.Nil{}, true
	}

	if t, ok := f.Locals[v]; ok {
		return t, true
	}

	if t, ok := p.Funptrs[lir.FuncID(v)]; ok {
		return t, true
	}

	t, ok := p.Externs[lir.FuncID(v)]

	return t, ok
}

func (e UnterminatedBlockError) Error() string {
	return fmt.Sprintf("%v: block %v has no terminator", e.Func, e.Block)
}

func (e MissingTargetError) Error() string {
	return fmt.Sprintf("%v: block %v jumps to undefined block %v", e.Func, e.Block, e.Target)
}

func (e MissingEntryError) Error() string {
	return fmt.Sprintf("%v: no entry block", e.Func)
}

func (e UndefinedVarError) Error() string {
	return fmt.Sprintf("%v: block %v: undefined variable %v", e.Func, e.Block, e.Var)
}

func (e TypeMismatchError) Error() string {
	return fmt.Sprintf("%v: block %v: %v: want %v, got %v", e.Func, e.Block, e.Var, e.Want, e.Got)
}
