package lower

import (
	"context"
	"strconv"

	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"
	"tlog.app/go/tlog/tlwire"

	"github.com/slowlang/cflat/compiler/ast"
	"github.com/slowlang/cflat/compiler/lir"
	"github.com/slowlang/cflat/compiler/tp"
)

type (
	// funContext is the state of lowering one function body.
	// Nothing in it outlives the function.
	funContext struct {
		*lowerer

		fn *lir.Function

		items []item

		next   int // fresh variable counter
		labels int

		consts  map[int64]lir.Var
		constAt int // where the next hoisted $const goes

		loops []loop

		free []lir.Var
	}

	// item is one element of the flat translation sequence.
	// Exactly one field is set.
	item struct {
		Label lir.Label
		Inst  lir.Inst
		Term  lir.Terminal
	}

	loop struct {
		hdr, end lir.Label
	}
)

func (l *lowerer) lowerFunc(ctx context.Context, d *ast.FuncDef) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "lower function", "name", d.Name)
	defer tr.Finish("err", &err)

	c := &funContext{
		lowerer: l,
		fn:      l.prog.Functions[lir.FuncID(d.Name)],
		consts:  make(map[int64]lir.Var),
	}

	c.label(c.fn.EntryLabel())
	c.constAt = len(c.items)

	err = c.lowerStmt(ctx, d.Body)
	if err != nil {
		return errors.Wrap(err, "body")
	}

	c.implicitReturn()

	if tr.If("dump_items") {
		for i, it := range c.items {
			tr.Printw("item", "i", i, "item", it)
		}
	}

	c.fn.Blocks = assemble(ctx, c.fn.EntryLabel(), c.items)

	for i, pass := range l.Passes {
		err = pass(ctx, l.prog, c.fn)
		if err != nil {
			return errors.Wrap(err, "pass %d", i)
		}
	}

	tr.Printw("function lowered", "blocks", len(c.fn.Blocks), "locals", len(c.fn.Locals), "items", len(c.items))

	return nil
}

// implicitReturn closes a body that falls off its end with a void return.
func (c *funContext) implicitReturn() {
	open := false

	for i := len(c.items) - 1; i >= 0; i-- {
		it := c.items[i]

		if it.Label != "" {
			open = true
			continue
		}

		if _, ok := it.Term.(lir.Ret); ok && !open {
			return
		}

		break
	}

	c.terminate(lir.Ret{})
}

func (c *funContext) label(l lir.Label) {
	c.items = append(c.items, item{Label: l})
}

func (c *funContext) emit(x lir.Inst) {
	c.items = append(c.items, item{Inst: x})
}

func (c *funContext) terminate(t lir.Terminal) {
	c.items = append(c.items, item{Term: t})
}

func (c *funContext) newLabel(prefix string) lir.Label {
	l := lir.Label(prefix + strconv.Itoa(c.labels))
	c.labels++

	tlog.V("labels").Printw("new label", "label", l, "from", loc.Caller(1))

	return l
}

// freshInnerVar allocates a short-lived pointer temporary computed while
// evaluating a place.
func (c *funContext) freshInnerVar(t tp.Type) lir.Var {
	return c.fresh("_inner", t)
}

func (c *funContext) freshVar(t tp.Type) lir.Var {
	return c.fresh("_tmp", t)
}

func (c *funContext) fresh(prefix string, t tp.Type) lir.Var {
	if v, ok := c.reuse(t); ok {
		return v
	}

	for {
		v := lir.Var(prefix + strconv.Itoa(c.next))
		c.next++

		if _, ok := c.fn.Locals[v]; ok {
			continue
		}

		c.fn.Locals[v] = t

		return v
	}
}

// reuse takes a released slot of the same type from the free list.
// release never fills it yet, so every temporary gets a new name.
func (c *funContext) reuse(t tp.Type) (lir.Var, bool) {
	for i, v := range c.free {
		if tp.Equal(c.fn.Locals[v], t) {
			c.free = append(c.free[:i], c.free[i+1:]...)
			return v, true
		}
	}

	return "", false
}

// release marks temporaries dead after their last use.
// It is the hook for slot reuse and does nothing for now.
func (c *funContext) release(vs ...lir.Var) {}

// constVar returns the variable holding literal n, hoisting a $const
// to the top of the entry block on first use.
func (c *funContext) constVar(n int64) (lir.Var, error) {
	if v, ok := c.consts[n]; ok {
		return v, nil
	}

	v := lir.Var("_const_" + strconv.FormatInt(n, 10))
	if n < 0 {
		v = lir.Var("_const_n" + strconv.FormatUint(-uint64(n), 10))
	}

	if _, ok := c.fn.Locals[v]; ok {
		return "", structural("constant", "name %v is taken by a declared variable", v)
	}

	c.fn.Locals[v] = c.types.Intern(tp.Int{})
	c.consts[n] = v

	c.items = append(c.items, item{})
	copy(c.items[c.constAt+1:], c.items[c.constAt:])
	c.items[c.constAt] = item{Inst: lir.Const{Dst: v, Value: n}}
	c.constAt++

	return v, nil
}

// typeOf recovers the type of an already emitted variable.
func (c *funContext) typeOf(v lir.Var) (tp.Type, error) {
	if t, ok := c.fn.Locals[v]; ok {
		return t, nil
	}

	if t, ok := c.prog.Funptrs[lir.FuncID(v)]; ok {
		return t, nil
	}

	if t, ok := c.prog.Externs[lir.FuncID(v)]; ok {
		return t, nil
	}

	if v == lir.NilVar {
		return c.types.Intern(tp.Nil{}), nil
	}

	return nil, structural("variable", "no type known for %v", v)
}

func (c *funContext) pushLoop(hdr, end lir.Label) {
	c.loops = append(c.loops, loop{hdr: hdr, end: end})
}

func (c *funContext) popLoop() {
	c.loops = c.loops[:len(c.loops)-1]
}

func (c *funContext) innerLoop() (loop, bool) {
	if len(c.loops) == 0 {
		return loop{}, false
	}

	return c.loops[len(c.loops)-1], true
}

func (it item) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendMap(b, 1)

	switch {
	case it.Inst != nil:
		b = e.AppendKey(b, "inst")
		b = e.AppendFormat(b, "%T%+v", it.Inst, it.Inst)
	case it.Term != nil:
		b = e.AppendKey(b, "term")
		b = e.AppendFormat(b, "%T%+v", it.Term, it.Term)
	default:
		b = e.AppendKey(b, "label")
		b = e.AppendFormat(b, "%v", it.Label)
	}

	return b
}
