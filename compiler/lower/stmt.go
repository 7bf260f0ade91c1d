package lower

import (
	"context"

	"tlog.app/go/errors"

	"github.com/slowlang/cflat/compiler/ast"
	"github.com/slowlang/cflat/compiler/lir"
)

func (c *funContext) lowerStmt(ctx context.Context, s ast.Stmt) (err error) {
	switch s := s.(type) {
	case ast.Stmts:
		for i, x := range s.List {
			err = c.lowerStmt(ctx, x)
			if err != nil {
				return errors.Wrap(err, "stmt %d", i)
			}
		}

		return nil
	case ast.Assign:
		return c.lowerAssign(ctx, s)
	case ast.CallStmt:
		_, err = c.lowerCall(ctx, s.Call, false)
		return err
	case ast.If:
		return c.lowerIf(ctx, s)
	case ast.While:
		return c.lowerWhile(ctx, s)
	case ast.Break:
		l, ok := c.innerLoop()
		if !ok {
			return structural("break", "outside of a loop")
		}

		c.terminate(lir.Jump{Target: l.end})

		return nil
	case ast.Continue:
		l, ok := c.innerLoop()
		if !ok {
			return structural("continue", "outside of a loop")
		}

		c.terminate(lir.Jump{Target: l.hdr})

		return nil
	case ast.Return:
		if s.Value == nil {
			c.terminate(lir.Ret{})
			return nil
		}

		x, err := c.lowerExpr(ctx, s.Value)
		if err != nil {
			return errors.Wrap(err, "return")
		}

		c.terminate(lir.Ret{Value: x})
		c.release(x)

		return nil
	case nil:
		return structural("statement", "missing statement")
	default:
		return structural("statement", "unsupported statement node: %T", s)
	}
}

func (c *funContext) lowerAssign(ctx context.Context, s ast.Assign) error {
	if id, ok := s.Place.(ast.Id); ok {
		x, err := c.lowerExpr(ctx, s.Value)
		if err != nil {
			return errors.Wrap(err, "assign %v", id.Name)
		}

		c.emit(lir.Copy{Dst: lir.Var(id.Name), Src: x})
		c.release(x)

		return nil
	}

	p, err := c.lowerPlace(ctx, s.Place)
	if err != nil {
		return errors.Wrap(err, "assign: place")
	}

	x, err := c.lowerExpr(ctx, s.Value)
	if err != nil {
		return errors.Wrap(err, "assign: value")
	}

	c.emit(lir.Store{Dst: p, Src: x})
	c.release(p, x)

	return nil
}

func (c *funContext) lowerIf(ctx context.Context, s ast.If) error {
	tt := c.newLabel("if_true")
	ff := c.newLabel("if_false")
	end := c.newLabel("if_end")

	g, err := c.lowerExpr(ctx, s.Guard)
	if err != nil {
		return errors.Wrap(err, "if: guard")
	}

	c.terminate(lir.Branch{Guard: g, True: tt, False: ff})
	c.label(tt)
	c.release(g)

	err = c.lowerStmt(ctx, s.Then)
	if err != nil {
		return errors.Wrap(err, "if: then")
	}

	c.terminate(lir.Jump{Target: end})
	c.label(ff)

	if s.Else != nil {
		err = c.lowerStmt(ctx, s.Else)
		if err != nil {
			return errors.Wrap(err, "if: else")
		}
	}

	c.terminate(lir.Jump{Target: end})
	c.label(end)

	return nil
}

func (c *funContext) lowerWhile(ctx context.Context, s ast.While) error {
	hdr := c.newLabel("loop_hdr")
	body := c.newLabel("loop_body")
	end := c.newLabel("loop_end")

	c.pushLoop(hdr, end)
	defer c.popLoop()

	c.terminate(lir.Jump{Target: hdr})
	c.label(hdr)

	g, err := c.lowerExpr(ctx, s.Guard)
	if err != nil {
		return errors.Wrap(err, "while: guard")
	}

	c.terminate(lir.Branch{Guard: g, True: body, False: end})
	c.release(g)
	c.label(body)

	err = c.lowerStmt(ctx, s.Body)
	if err != nil {
		return errors.Wrap(err, "while: body")
	}

	c.terminate(lir.Jump{Target: hdr})
	c.label(end)

	return nil
}
