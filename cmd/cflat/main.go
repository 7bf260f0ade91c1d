package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/cflat/compiler"
	"github.com/slowlang/cflat/compiler/lir"
	"github.com/slowlang/cflat/compiler/parse"
)

func main() {
	parseCmd := &cli.Command{
		Name:        "parse",
		Description: "decode program documents and print their syntax trees",
		Action:      parseAct,
		Args:        cli.Args{},
	}

	lowerCmd := &cli.Command{
		Name:        "lower",
		Description: "lower program documents and print the LIR text",
		Action:      lowerAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("output,o", "-", "output file"),
		},
	}

	checkCmd := &cli.Command{
		Name:        "check",
		Description: "lower and verify program documents, report unreachable blocks",
		Action:      checkAct,
		Args:        cli.Args{},
	}

	app := &cli.Command{
		Name:        "cflat",
		Description: "cflat lowers typed syntax trees into a basic block IR",
		Flags: []*cli.Flag{
			cli.NewFlag("config", "", "TOML config file"),
			cli.NewFlag("entry", "", "entry function, overrides the config"),
		},
		Commands: []*cli.Command{
			parseCmd,
			lowerCmd,
			checkCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func parseAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	return parseFiles(ctx, os.Stdout, c.Args)
}

func lowerAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	cfg, err := loadConfig(c.String("config"), c.String("entry"))
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout

	if q := c.String("output"); q != "" && q != "-" {
		var f *os.File

		f, err = os.Create(q)
		if err != nil {
			return errors.Wrap(err, "create output")
		}

		defer func() {
			e := f.Close()
			if err == nil && e != nil {
				err = errors.Wrap(e, "close output")
			}
		}()

		w = f
	}

	return lowerFiles(ctx, w, cfg, c.Args)
}

func checkAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	cfg, err := loadConfig(c.String("config"), c.String("entry"))
	if err != nil {
		return err
	}

	return checkFiles(ctx, os.Stdout, cfg, c.Args)
}

func parseFiles(ctx context.Context, w io.Writer, files []string) error {
	for _, a := range files {
		x, err := parse.ParseFile(ctx, a)
		if err != nil {
			return errors.Wrap(err, "parse %v", a)
		}

		_, err = fmt.Fprintf(w, "ast: %+v\n", x)
		if err != nil {
			return errors.Wrap(err, "write")
		}
	}

	return nil
}

func lowerFiles(ctx context.Context, w io.Writer, cfg compiler.Config, files []string) error {
	for _, a := range files {
		obj, err := compiler.CompileFile(ctx, a, cfg)
		if err != nil {
			return errors.Wrap(err, "lower %v", a)
		}

		_, err = w.Write(obj)
		if err != nil {
			return errors.Wrap(err, "write")
		}
	}

	return nil
}

func checkFiles(ctx context.Context, w io.Writer, cfg compiler.Config, files []string) error {
	for _, a := range files {
		r, err := compiler.CheckFile(ctx, a, cfg)
		if err != nil {
			return errors.Wrap(err, "check %v", a)
		}

		fmt.Fprintf(w, "%v: ok: %d functions, %d blocks\n", a, r.Functions, r.Blocks)

		fs := make([]lir.FuncID, 0, len(r.Unreachable))
		for f := range r.Unreachable {
			fs = append(fs, f)
		}

		sort.Slice(fs, func(i, j int) bool { return fs[i] < fs[j] })

		for _, f := range fs {
			fmt.Fprintf(w, "%v: %v: unreachable blocks %v\n", a, f, r.Unreachable[f])
		}
	}

	return nil
}

func loadConfig(name, entry string) (cfg compiler.Config, err error) {
	cfg = compiler.DefaultConfig()

	if name != "" {
		cfg, err = compiler.LoadConfig(name)
		if err != nil {
			return cfg, err
		}
	}

	if entry != "" {
		cfg.Entry = entry
	}

	return cfg, nil
}
