package lower

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/cflat/compiler/ast"
	"github.com/slowlang/cflat/compiler/format"
	"github.com/slowlang/cflat/compiler/lir"
)

func TestEmptyFunction(t *testing.T) {
	p := &ast.Program{
		Functions: []*ast.FuncDef{{Name: "main", Ret: ast.Int{}}},
	}

	assert.Equal(t, `fn main() -> int {

main_entry:
  $ret
}

`, lowerText(t, p))
}

func TestConstantsShared(t *testing.T) {
	p := mainProgram(nil, []ast.Decl{{Name: "x", Type: ast.Int{}}, {Name: "y", Type: ast.Int{}}},
		assign("x", ast.Num{Value: 3}),
		assign("y", ast.Num{Value: 3}),
		ast.Return{Value: ast.BinOp{Op: ast.Add, Left: ast.Var("x"), Right: ast.Var("y")}},
	)

	assert.Equal(t, `fn main() -> int {
let _const_3:int, _tmp0:int, x:int, y:int

main_entry:
  _const_3 = $const 3
  x = $copy _const_3
  y = $copy _const_3
  _tmp0 = $arith add x y
  $ret _tmp0
}

`, lowerText(t, p))
}

func TestWhile(t *testing.T) {
	p := mainProgram(nil, []ast.Decl{{Name: "x", Type: ast.Int{}}},
		ast.While{
			Guard: ast.BinOp{Op: ast.Lt, Left: ast.Var("x"), Right: ast.Num{Value: 10}},
			Body: ast.Stmts{List: []ast.Stmt{
				assign("x", ast.BinOp{Op: ast.Add, Left: ast.Var("x"), Right: ast.Num{Value: 1}}),
			}},
		},
	)

	assert.Equal(t, `fn main() -> int {
let _const_1:int, _const_10:int, _tmp0:int, _tmp1:int, x:int

main_entry:
  _const_10 = $const 10
  _const_1 = $const 1
  $jump loop_hdr0

loop_body1:
  _tmp1 = $arith add x _const_1
  x = $copy _tmp1
  $jump loop_hdr0

loop_end2:
  $ret

loop_hdr0:
  _tmp0 = $cmp lt x _const_10
  $branch _tmp0 loop_body1 loop_end2
}

`, lowerText(t, p))
}

func TestBreakContinue(t *testing.T) {
	p := mainProgram(nil, []ast.Decl{{Name: "x", Type: ast.Int{}}},
		ast.While{
			Guard: ast.Var("x"),
			Body: ast.Stmts{List: []ast.Stmt{
				ast.If{Guard: ast.Var("x"), Then: ast.Stmts{List: []ast.Stmt{ast.Break{}}}},
				ast.Continue{},
			}},
		},
	)

	f := lowerFunc(t, p, "main")

	assert.Equal(t, lir.Jump{Target: "loop_end2"}, f.Blocks["if_true3"].Term)
	assert.Empty(t, f.Blocks["if_true3"].Insts)
	assert.Equal(t, lir.Jump{Target: "if_end5"}, f.Blocks["if_false4"].Term)
	assert.Equal(t, lir.Jump{Target: "loop_hdr0"}, f.Blocks["if_end5"].Term)
	assert.Equal(t, lir.Branch{Guard: "x", True: "loop_body1", False: "loop_end2"}, f.Blocks["loop_hdr0"].Term)
	assert.Equal(t, lir.Ret{}, f.Blocks["loop_end2"].Term)

	assertTerminated(t, f)
}

func TestSelectNil(t *testing.T) {
	params := []ast.Decl{{Name: "a", Type: ast.Int{}}, {Name: "b", Type: ast.Ptr{Elem: ast.Int{}}}}
	locals := []ast.Decl{{Name: "p", Type: ast.Ptr{Elem: ast.Int{}}}}

	p := mainProgram(params, locals,
		assign("p", ast.Select{Guard: ast.Var("a"), True: ast.Var("b"), False: ast.NilLit{}}),
	)

	assert.Equal(t, `fn main(a: int, b: &int) -> int {
let _tmp0:&int, a:int, b:&int, p:&int

main_entry:
  $branch a if_true0 if_false1

if_end2:
  p = $copy _tmp0
  $ret

if_false1:
  $jump if_end2

if_true0:
  _tmp0 = $copy b
  $jump if_end2
}

`, lowerText(t, p))

	p = mainProgram(params, locals,
		assign("p", ast.Select{Guard: ast.Var("a"), True: ast.NilLit{}, False: ast.Var("b")}),
	)

	f := lowerFunc(t, p, "main")

	assert.Empty(t, f.Blocks["if_true0"].Insts)
	assert.Equal(t, []lir.Inst{lir.Copy{Dst: "_tmp0", Src: "b"}}, f.Blocks["if_false1"].Insts)
	assert.Equal(t, "&int", f.Locals["_tmp0"].String())

	p = mainProgram(params, locals,
		assign("p", ast.Select{Guard: ast.Var("a"), True: ast.NilLit{}, False: ast.NilLit{}}),
	)

	f = lowerFunc(t, p, "main")

	assert.Equal(t, []lir.Inst{lir.Copy{Dst: "p", Src: lir.NilVar}}, f.Blocks["if_end2"].Insts)
}

func TestMutualRecursion(t *testing.T) {
	n := []ast.Decl{{Name: "n", Type: ast.Int{}}}
	call := func(name string) ast.Stmt {
		return ast.Return{Value: ast.CallExpr{Call: ast.FunCall{Callee: ast.Var(name), Args: []ast.Expr{ast.Var("n")}}}}
	}

	p := &ast.Program{
		Functions: []*ast.FuncDef{
			{Name: "even", Params: n, Ret: ast.Int{}, Body: ast.Stmts{List: []ast.Stmt{call("odd")}}},
			{Name: "odd", Params: n, Ret: ast.Int{}, Body: ast.Stmts{List: []ast.Stmt{call("even")}}},
			{Name: "main", Ret: ast.Int{}},
		},
	}

	text := lowerText(t, p)

	assert.True(t, strings.HasPrefix(text, "funptr even : &fn (int) -> int\nfunptr odd : &fn (int) -> int\n\nfn even(n: int) -> int {\n"), "text:\n%s", text)
	assert.Contains(t, text, `
even_entry:
  _tmp0 = $call odd, n
  $ret _tmp0
}
`)
	assert.Contains(t, text, "  _tmp0 = $call even, n\n")
	assert.NotContains(t, text, "funptr main")
}

func TestFunptrs(t *testing.T) {
	p := &ast.Program{
		Functions: []*ast.FuncDef{
			{Name: "start", Ret: ast.Nil{}},
			{Name: "f", Params: []ast.Decl{{Name: "a", Type: ast.Array{Elem: ast.Int{}}}, {Name: "b", Type: ast.Int{}}}, Ret: ast.Ptr{Elem: ast.Int{}}},
			{Name: "main", Ret: ast.Int{}},
		},
	}

	lp, err := Lower(context.Background(), p, Options{Entry: "start"})
	require.NoError(t, err)

	if assert.Len(t, lp.Funptrs, 2) {
		assert.Equal(t, "&fn ([int], int) -> &int", lp.Funptrs["f"].String())
		assert.Equal(t, "&fn () -> int", lp.Funptrs["main"].String())
	}

	assert.NotContains(t, lp.Funptrs, lir.FuncID("start"))
}

func TestOperators(t *testing.T) {
	locals := []ast.Decl{{Name: "x", Type: ast.Int{}}, {Name: "a", Type: ast.Int{}}, {Name: "b", Type: ast.Int{}}}

	for _, tc := range []struct {
		name string
		expr ast.Expr
		exp  string
	}{{
		name: "neg_literal",
		expr: ast.UnOp{Op: ast.Neg, X: ast.Num{Value: 7}},
		exp: `
main_entry:
  _const_n7 = $const -7
  x = $copy _const_n7
  $ret
`,
	}, {
		name: "neg",
		expr: ast.UnOp{Op: ast.Neg, X: ast.Var("a")},
		exp: `
main_entry:
  _const_0 = $const 0
  _tmp0 = $arith sub _const_0 a
  x = $copy _tmp0
  $ret
`,
	}, {
		name: "not",
		expr: ast.UnOp{Op: ast.Not, X: ast.Var("a")},
		exp: `
main_entry:
  _const_0 = $const 0
  _tmp0 = $cmp eq a _const_0
  x = $copy _tmp0
  $ret
`,
	}, {
		name: "div_gte",
		expr: ast.BinOp{Op: ast.Div, Left: ast.Var("a"), Right: ast.BinOp{Op: ast.Gte, Left: ast.Var("b"), Right: ast.Var("a")}},
		exp: `
main_entry:
  _tmp0 = $cmp gte b a
  _tmp1 = $arith div a _tmp0
  x = $copy _tmp1
  $ret
`,
	}, {
		name: "and",
		expr: ast.BinOp{Op: ast.And, Left: ast.Var("a"), Right: ast.Var("b")},
		exp: `
main_entry:
  _const_0 = $const 0
  $branch a and_true0 and_false1

and_end2:
  x = $copy _tmp0
  $ret

and_false1:
  _tmp0 = $copy _const_0
  $jump and_end2

and_true0:
  _tmp0 = $copy b
  $jump and_end2
`,
	}, {
		name: "or",
		expr: ast.BinOp{Op: ast.Or, Left: ast.Var("a"), Right: ast.Var("b")},
		exp: `
main_entry:
  _tmp0 = $copy a
  $branch _tmp0 or_end1 or_false0

or_end1:
  x = $copy _tmp0
  $ret

or_false0:
  _tmp0 = $copy b
  $jump or_end1
`,
	}} {
		t.Run(tc.name, func(t *testing.T) {
			p := mainProgram(nil, locals, assign("x", tc.expr))

			text := lowerText(t, p)

			assert.Contains(t, text, tc.exp)
			assert.True(t, strings.HasSuffix(text, tc.exp+"}\n\n"), "text:\n%s", text)
		})
	}
}

func TestCallOrder(t *testing.T) {
	p := &ast.Program{
		Externs: []*ast.Extern{
			{Name: "f", Params: []ast.Type{ast.Int{}, ast.Int{}}, Ret: ast.Nil{}},
			{Name: "g", Ret: ast.Int{}},
			{Name: "h", Ret: ast.Int{}},
		},
		Functions: []*ast.FuncDef{{
			Name: "main",
			Ret:  ast.Int{},
			Body: ast.Stmts{List: []ast.Stmt{
				ast.CallStmt{Call: ast.FunCall{
					Callee: ast.Var("f"),
					Args: []ast.Expr{
						ast.CallExpr{Call: ast.FunCall{Callee: ast.Var("g")}},
						ast.CallExpr{Call: ast.FunCall{Callee: ast.Var("h")}},
					},
				}},
			}},
		}},
	}

	assert.Equal(t, `extern f : fn (int, int) -> nil
extern g : fn () -> int
extern h : fn () -> int

fn main() -> int {
let _tmp0:int, _tmp1:int

main_entry:
  _tmp0 = $call h
  _tmp1 = $call g
  $call f, _tmp1, _tmp0
  $ret
}

`, lowerText(t, p))
}

func TestPlaces(t *testing.T) {
	s := ast.StructType{Name: "S"}

	p := &ast.Program{
		Structs: []*ast.StructDef{{
			Name: "S",
			Fields: []ast.Decl{
				{Name: "next", Type: ast.Ptr{Elem: s}},
				{Name: "a", Type: ast.Int{}},
			},
		}},
		Functions: []*ast.FuncDef{{
			Name: "main",
			Ret:  ast.Int{},
			Locals: []ast.Decl{
				{Name: "s", Type: ast.Ptr{Elem: s}},
				{Name: "arr", Type: ast.Array{Elem: ast.Int{}}},
				{Name: "x", Type: ast.Int{}},
			},
			Body: ast.Stmts{List: []ast.Stmt{
				assign("s", ast.NewSingle{Type: s}),
				ast.Assign{Place: ast.FieldAccess{Ptr: ast.Var("s"), Field: "a"}, Value: ast.Num{Value: 1}},
				assign("x", ast.Val{Place: ast.FieldAccess{Ptr: ast.Var("s"), Field: "a"}}),
				assign("arr", ast.NewArray{Type: ast.Int{}, Len: ast.Num{Value: 10}}),
				assign("x", ast.Val{Place: ast.ArrayAccess{Array: ast.Var("arr"), Index: ast.Num{Value: 2}}}),
				ast.Assign{Place: ast.Deref{X: ast.Val{Place: ast.FieldAccess{Ptr: ast.Var("s"), Field: "next"}}}, Value: ast.NilLit{}},
				ast.Return{Value: ast.Var("x")},
			}},
		}},
	}

	assert.Equal(t, `struct S {
  a: int;
  next: &struct S;
}

fn main() -> int {
let _const_1:int, _const_10:int, _const_2:int, _inner1:&int, _inner2:&int, _inner5:&int, _inner7:&&struct S, _tmp0:&struct S, _tmp3:int, _tmp4:[int], _tmp6:int, _tmp8:&struct S, arr:[int], s:&struct S, x:int

main_entry:
  _const_1 = $const 1
  _const_10 = $const 10
  _const_2 = $const 2
  _tmp0 = $alloc_single struct S
  s = $copy _tmp0
  _inner1 = $gfp s, S, a
  $store _inner1 _const_1
  _inner2 = $gfp s, S, a
  _tmp3 = $load _inner2
  x = $copy _tmp3
  _tmp4 = $alloc_array _const_10 int
  arr = $copy _tmp4
  _inner5 = $gep arr _const_2 [true]
  _tmp6 = $load _inner5
  x = $copy _tmp6
  _inner7 = $gfp s, S, next
  _tmp8 = $load _inner7
  $store _tmp8 __NULL
  $ret x
}

`, lowerText(t, p))
}

func TestImplicitReturn(t *testing.T) {
	p := mainProgram([]ast.Decl{{Name: "a", Type: ast.Int{}}}, nil,
		ast.If{
			Guard: ast.Var("a"),
			Then:  ast.Stmts{List: []ast.Stmt{ast.Return{Value: ast.Num{Value: 1}}}},
			Else:  ast.Stmts{List: []ast.Stmt{ast.Return{Value: ast.Num{Value: 2}}}},
		},
	)

	f := lowerFunc(t, p, "main")

	assert.Equal(t, lir.Ret{Value: "_const_1"}, f.Blocks["if_true0"].Term)
	assert.Equal(t, lir.Ret{Value: "_const_2"}, f.Blocks["if_false1"].Term)
	assert.Equal(t, lir.Ret{}, f.Blocks["if_end2"].Term)

	p = mainProgram(nil, nil, ast.Return{})

	f = lowerFunc(t, p, "main")

	if assert.Len(t, f.Blocks, 1) {
		assert.Equal(t, lir.Ret{}, f.Blocks["main_entry"].Term)
	}

	p = mainProgram(nil, nil, ast.Return{Value: ast.Num{Value: 0}}, ast.Return{})

	f = lowerFunc(t, p, "main")

	assert.Equal(t, lir.Ret{Value: "_const_0"}, f.Blocks["main_entry"].Term)
}

func TestFreshNamesAvoidLocals(t *testing.T) {
	locals := []ast.Decl{
		{Name: "_tmp0", Type: ast.Int{}},
		{Name: "_inner1", Type: ast.Int{}},
		{Name: "a", Type: ast.Int{}},
	}

	p := mainProgram(nil, locals,
		assign("a", ast.BinOp{Op: ast.Mul, Left: ast.Var("a"), Right: ast.Var("a")}),
		assign("a", ast.BinOp{Op: ast.Sub, Left: ast.Var("a"), Right: ast.Var("a")}),
	)

	f := lowerFunc(t, p, "main")

	assert.Equal(t, []lir.Inst{
		lir.Arith{Dst: "_tmp1", Op: lir.Mul, Left: "a", Right: "a"},
		lir.Copy{Dst: "a", Src: "_tmp1"},
		lir.Arith{Dst: "_tmp2", Op: lir.Sub, Left: "a", Right: "a"},
		lir.Copy{Dst: "a", Src: "_tmp2"},
	}, f.Blocks["main_entry"].Insts)
}

func TestConstantInterning(t *testing.T) {
	locals := []ast.Decl{{Name: "x", Type: ast.Int{}}}

	p := mainProgram(nil, locals,
		assign("x", ast.Num{Value: 5}),
		ast.If{
			Guard: ast.Var("x"),
			Then: ast.Stmts{List: []ast.Stmt{
				assign("x", ast.BinOp{Op: ast.Add, Left: ast.Num{Value: 5}, Right: ast.Num{Value: 6}}),
			}},
		},
		assign("x", ast.UnOp{Op: ast.Neg, X: ast.Num{Value: -5}}),
		ast.Return{Value: ast.Num{Value: 6}},
	)

	f := lowerFunc(t, p, "main")

	var consts []lir.Inst

	for _, b := range f.Blocks {
		for _, x := range b.Insts {
			if _, ok := x.(lir.Const); ok {
				consts = append(consts, x)
			}
		}
	}

	assert.Len(t, consts, 2)
	assert.Equal(t, []lir.Inst{
		lir.Const{Dst: "_const_5", Value: 5},
		lir.Const{Dst: "_const_6", Value: 6},
	}, f.Blocks["main_entry"].Insts[:2])
}

func TestDeterminism(t *testing.T) {
	p := mainProgram([]ast.Decl{{Name: "a", Type: ast.Int{}}}, []ast.Decl{{Name: "x", Type: ast.Int{}}},
		ast.While{
			Guard: ast.BinOp{Op: ast.Or, Left: ast.Var("a"), Right: ast.UnOp{Op: ast.Not, X: ast.Var("x")}},
			Body: ast.Stmts{List: []ast.Stmt{
				assign("x", ast.Select{Guard: ast.Var("a"), True: ast.Num{Value: 1}, False: ast.Num{Value: -1}}),
				ast.If{Guard: ast.Var("x"), Then: ast.Break{}, Else: ast.Continue{}},
			}},
		},
		ast.Return{Value: ast.Var("x")},
	)

	first := lowerText(t, p)

	for i := 0; i < 5; i++ {
		assert.Equal(t, first, lowerText(t, p))
	}

	f := lowerFunc(t, p, "main")
	assertTerminated(t, f)

	seen := map[lir.Var]bool{}

	for _, b := range f.Blocks {
		for _, x := range b.Insts {
			v, ok := lir.Def(x)
			if !ok {
				continue
			}

			if _, ok := x.(lir.Copy); ok {
				continue
			}

			assert.False(t, seen[v], "defined twice: %v", v)
			seen[v] = true
		}
	}
}

func TestPasses(t *testing.T) {
	p := &ast.Program{
		Functions: []*ast.FuncDef{
			{Name: "f", Ret: ast.Nil{}},
			{Name: "main", Ret: ast.Int{}},
		},
	}

	var names []lir.FuncID

	pass := func(ctx context.Context, p *lir.Program, f *lir.Function) error {
		names = append(names, f.Name)

		if _, ok := f.Blocks[f.EntryLabel()]; !ok {
			return errors.New("no entry")
		}

		return nil
	}

	_, err := Lower(context.Background(), p, Options{Passes: []Pass{pass}})
	require.NoError(t, err)
	assert.Equal(t, []lir.FuncID{"f", "main"}, names)

	fail := func(ctx context.Context, p *lir.Program, f *lir.Function) error {
		return errors.New("stop")
	}

	_, err = Lower(context.Background(), p, Options{Passes: []Pass{fail}})
	assert.ErrorContains(t, err, "stop")
}

func TestStructuralErrors(t *testing.T) {
	s := ast.StructType{Name: "S"}

	for _, tc := range []struct {
		name string
		prog *ast.Program
		exp  string
	}{{
		name: "break",
		prog: mainProgram(nil, nil, ast.Break{}),
		exp:  "break: outside of a loop",
	}, {
		name: "continue",
		prog: mainProgram(nil, nil, ast.If{Guard: ast.Num{Value: 1}, Then: ast.Continue{}}),
		exp:  "continue: outside of a loop",
	}, {
		name: "field_of_int_ptr",
		prog: mainProgram([]ast.Decl{{Name: "p", Type: ast.Ptr{Elem: ast.Int{}}}}, []ast.Decl{{Name: "x", Type: ast.Int{}}},
			assign("x", ast.Val{Place: ast.FieldAccess{Ptr: ast.Var("p"), Field: "a"}})),
		exp: "field access: p is not a pointer to struct: &int",
	}, {
		name: "no_field",
		prog: &ast.Program{
			Structs: []*ast.StructDef{{Name: "S", Fields: []ast.Decl{{Name: "a", Type: ast.Int{}}}}},
			Functions: []*ast.FuncDef{{
				Name:   "main",
				Params: []ast.Decl{{Name: "p", Type: ast.Ptr{Elem: s}}},
				Ret:    ast.Int{},
				Body:   ast.Stmts{List: []ast.Stmt{ast.Return{Value: ast.Val{Place: ast.FieldAccess{Ptr: ast.Var("p"), Field: "b"}}}}},
			}},
		},
		exp: "field access: struct S has no field b",
	}, {
		name: "unknown_var",
		prog: mainProgram(nil, []ast.Decl{{Name: "x", Type: ast.Int{}}},
			assign("x", ast.CallExpr{Call: ast.FunCall{Callee: ast.Var("nope")}})),
		exp: "variable: no type known for nope",
	}, {
		name: "const_collision",
		prog: mainProgram(nil, []ast.Decl{{Name: "_const_1", Type: ast.Int{}}}, ast.Return{Value: ast.Num{Value: 1}}),
		exp:  "constant: name _const_1 is taken by a declared variable",
	}, {
		name: "struct_redefined",
		prog: &ast.Program{Structs: []*ast.StructDef{{Name: "S"}, {Name: "S"}}},
		exp:  "struct: name redefined: S",
	}, {
		name: "function_redefined",
		prog: &ast.Program{Functions: []*ast.FuncDef{{Name: "main", Ret: ast.Int{}}, {Name: "main", Ret: ast.Int{}}}},
		exp:  "function: name redefined: main",
	}, {
		name: "missing_type",
		prog: &ast.Program{Externs: []*ast.Extern{{Name: "e"}}},
		exp:  "type: unsupported type node: <nil>",
	}, {
		name: "neg_overflow",
		prog: mainProgram(nil, nil, ast.Return{Value: ast.UnOp{Op: ast.Neg, X: ast.Num{Value: math.MinInt64}}}),
		exp:  "literal: -(-9223372036854775808) overflows int64",
	}, {
		name: "missing_return_type",
		prog: &ast.Program{Functions: []*ast.FuncDef{{Name: "main"}}},
		exp:  "type: unsupported type node: <nil>",
	}, {
		name: "missing_local_type",
		prog: mainProgram(nil, []ast.Decl{{Name: "x"}}),
		exp:  "type: unsupported type node: <nil>",
	}} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Lower(context.Background(), tc.prog, Options{})
			require.Error(t, err)

			var serr StructuralError
			require.True(t, errors.As(err, &serr), "err: %v", err)

			assert.Equal(t, tc.exp, serr.Error())
		})
	}
}

func TestDeadCodeAfterTerminator(t *testing.T) {
	x := []ast.Decl{{Name: "x", Type: ast.Int{}}}

	t.Run("after_return", func(t *testing.T) {
		text := lowerText(t, mainProgram(nil, x,
			ast.Return{Value: ast.Num{Value: 1}},
			assign("x", ast.Num{Value: 2}),
		))

		// the dead literal is still hoisted, its copy is dropped
		assert.Equal(t, `fn main() -> int {
let _const_1:int, _const_2:int, x:int

main_entry:
  _const_1 = $const 1
  _const_2 = $const 2
  $ret _const_1
}

`, text)
	})

	t.Run("after_break", func(t *testing.T) {
		text := lowerText(t, mainProgram(nil, x,
			ast.While{Guard: ast.Num{Value: 1}, Body: ast.Stmts{List: []ast.Stmt{
				ast.Break{},
				assign("x", ast.Num{Value: 2}),
			}}},
		))

		assert.Equal(t, `fn main() -> int {
let _const_1:int, _const_2:int, x:int

main_entry:
  _const_1 = $const 1
  _const_2 = $const 2
  $jump loop_hdr0

loop_body1:
  $jump loop_end2

loop_end2:
  $ret

loop_hdr0:
  $branch _const_1 loop_body1 loop_end2
}

`, text)
	})

	t.Run("label_after_return", func(t *testing.T) {
		text := lowerText(t, mainProgram(nil, nil,
			ast.If{
				Guard: ast.Num{Value: 1},
				Then:  ast.Stmts{List: []ast.Stmt{ast.Return{Value: ast.Num{Value: 1}}}},
				Else:  ast.Stmts{List: []ast.Stmt{ast.Return{Value: ast.Num{Value: 2}}}},
			},
		))

		assert.Equal(t, `fn main() -> int {
let _const_1:int, _const_2:int

main_entry:
  _const_1 = $const 1
  _const_2 = $const 2
  $branch _const_1 if_true0 if_false1

if_end2:
  $ret

if_false1:
  $ret _const_2

if_true0:
  $ret _const_1
}

`, text)
	})
}

func lowerText(t *testing.T, p *ast.Program) string {
	t.Helper()

	ctx := context.Background()

	lp, err := Lower(ctx, p, Options{})
	require.NoError(t, err)

	for _, f := range lp.Functions {
		assertTerminated(t, f)
	}

	b, err := format.Program(ctx, lp)
	require.NoError(t, err)

	t.Logf("lir:\n%s", b)

	return string(b)
}

func lowerFunc(t *testing.T, p *ast.Program, name lir.FuncID) *lir.Function {
	t.Helper()

	lp, err := Lower(context.Background(), p, Options{})
	require.NoError(t, err)

	f := lp.Functions[name]
	require.NotNil(t, f)

	return f
}

func assertTerminated(t *testing.T, f *lir.Function) {
	t.Helper()

	if !assert.Contains(t, f.Blocks, f.EntryLabel()) {
		return
	}

	for l, b := range f.Blocks {
		assert.NotNil(t, b.Term, "block %v of %v", l, f.Name)
		assert.Equal(t, l, b.Label)
	}
}

func mainProgram(params, locals []ast.Decl, body ...ast.Stmt) *ast.Program {
	return &ast.Program{
		Functions: []*ast.FuncDef{{
			Name:   "main",
			Params: params,
			Ret:    ast.Int{},
			Locals: locals,
			Body:   ast.Stmts{List: body},
		}},
	}
}

func assign(name string, x ast.Expr) ast.Assign {
	return ast.Assign{Place: ast.Id{Name: name}, Value: x}
}
