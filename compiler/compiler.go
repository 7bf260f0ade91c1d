package compiler

import (
	"context"
	"os"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/cflat/compiler/analyze"
	"github.com/slowlang/cflat/compiler/ast"
	"github.com/slowlang/cflat/compiler/format"
	"github.com/slowlang/cflat/compiler/lir"
	"github.com/slowlang/cflat/compiler/lower"
	"github.com/slowlang/cflat/compiler/parse"
)

type (
	// Report is the outcome of Check.
	Report struct {
		Functions   int
		Blocks      int
		Unreachable map[lir.FuncID][]lir.Label
	}
)

func CompileFile(ctx context.Context, name string, cfg Config) (obj []byte, err error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", name)

	return Compile(ctx, name, text, cfg)
}

// Compile lowers a program document and renders the result as LIR text.
func Compile(ctx context.Context, name string, text []byte, cfg Config) (obj []byte, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compile", "name", name)
	defer tr.Finish("err", &err)

	x, err := parse.Parse(ctx, text)
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}

	p, err := Lower(ctx, x, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "lower")
	}

	obj, err = format.Program(ctx, p)
	if err != nil {
		return nil, errors.Wrap(err, "format")
	}

	return obj, nil
}

// Lower runs the lowering with the checks cfg asks for
// attached as per-function passes.
func Lower(ctx context.Context, x *ast.Program, cfg Config) (*lir.Program, error) {
	opts := cfg.options()

	if cfg.Verify {
		opts.Passes = append(opts.Passes, analyze.VerifyFunc)
	}

	if cfg.ReportUnreachable {
		opts.Passes = append(opts.Passes, analyze.ReportUnreachable)
	}

	return lower.Lower(ctx, x, opts)
}

// CheckFile lowers and verifies the program without printing it.
func CheckFile(ctx context.Context, name string, cfg Config) (r Report, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "check", "name", name)
	defer tr.Finish("err", &err)

	x, err := parse.ParseFile(ctx, name)
	if err != nil {
		return r, errors.Wrap(err, "parse")
	}

	cfg.Verify = false
	cfg.ReportUnreachable = false

	p, err := Lower(ctx, x, cfg)
	if err != nil {
		return r, errors.Wrap(err, "lower")
	}

	err = analyze.Verify(ctx, p)
	if err != nil {
		return r, errors.Wrap(err, "verify")
	}

	r.Functions = len(p.Functions)
	r.Unreachable = make(map[lir.FuncID][]lir.Label)

	for _, name := range p.SortedFunctions() {
		f := p.Functions[name]

		r.Blocks += len(f.Blocks)

		if ls := analyze.Unreachable(f); len(ls) != 0 {
			r.Unreachable[name] = ls
		}
	}

	tr.Printw("checked", "functions", r.Functions, "blocks", r.Blocks, "with_unreachable", len(r.Unreachable))

	return r, nil
}
