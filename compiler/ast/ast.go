package ast

type (
	Type interface {
		isType()
	}

	Place interface {
		isPlace()
	}

	Expr interface {
		isExpr()
	}

	Stmt interface {
		isStmt()
	}

	// Types.

	Int struct{}

	Nil struct{}

	StructType struct {
		Name string
	}

	Ptr struct {
		Elem Type
	}

	Array struct {
		Elem Type
	}

	Func struct {
		Params []Type
		Ret    Type
	}

	// Places.

	Id struct {
		Name string
	}

	Deref struct {
		X Expr
	}

	ArrayAccess struct {
		Array Expr
		Index Expr
	}

	FieldAccess struct {
		Ptr   Expr
		Field string
	}

	// Expressions.

	Val struct {
		Place Place
	}

	Num struct {
		Value int64
	}

	NilLit struct{}

	Select struct {
		Guard Expr
		True  Expr
		False Expr
	}

	UnOp struct {
		Op UnaryOp
		X  Expr
	}

	BinOp struct {
		Op    BinaryOp
		Left  Expr
		Right Expr
	}

	NewSingle struct {
		Type Type
	}

	NewArray struct {
		Type Type
		Len  Expr
	}

	CallExpr struct {
		Call FunCall
	}

	FunCall struct {
		Callee Expr
		Args   []Expr
	}

	// Statements.

	Stmts struct {
		List []Stmt
	}

	Assign struct {
		Place Place
		Value Expr
	}

	CallStmt struct {
		Call FunCall
	}

	If struct {
		Guard Expr
		Then  Stmt
		Else  Stmt // nil if absent
	}

	While struct {
		Guard Expr
		Body  Stmt
	}

	Break struct{}

	Continue struct{}

	Return struct {
		Value Expr // nil for a bare return
	}

	// Top level.

	Decl struct {
		Name string
		Type Type
	}

	StructDef struct {
		Name   string
		Fields []Decl
	}

	Extern struct {
		Name   string
		Params []Type
		Ret    Type
	}

	FuncDef struct {
		Name   string
		Params []Decl
		Ret    Type
		Locals []Decl
		Body   Stmts
	}

	Program struct {
		Structs   []*StructDef
		Externs   []*Extern
		Functions []*FuncDef
	}

	UnaryOp int
	BinaryOp int
)

const (
	Neg UnaryOp = iota
	Not
)

const (
	Add BinaryOp = iota
	Sub
	Mul
	Div
	Eq
	NotEq
	Lt
	Lte
	Gt
	Gte
	And
	Or
)

var unaryNames = []string{
	Neg: "Neg",
	Not: "Not",
}

var binaryNames = []string{
	Add:   "Add",
	Sub:   "Sub",
	Mul:   "Mul",
	Div:   "Div",
	Eq:    "Eq",
	NotEq: "NotEq",
	Lt:    "Lt",
	Lte:   "Lte",
	Gt:    "Gt",
	Gte:   "Gte",
	And:   "And",
	Or:    "Or",
}

func (Int) isType()        {}
func (Nil) isType()        {}
func (StructType) isType() {}
func (Ptr) isType()        {}
func (Array) isType()      {}
func (Func) isType()       {}

func (Id) isPlace()          {}
func (Deref) isPlace()       {}
func (ArrayAccess) isPlace() {}
func (FieldAccess) isPlace() {}

func (Val) isExpr()       {}
func (Num) isExpr()       {}
func (NilLit) isExpr()    {}
func (Select) isExpr()    {}
func (UnOp) isExpr()      {}
func (BinOp) isExpr()     {}
func (NewSingle) isExpr() {}
func (NewArray) isExpr()  {}
func (CallExpr) isExpr()  {}

func (Stmts) isStmt()    {}
func (Assign) isStmt()   {}
func (CallStmt) isStmt() {}
func (If) isStmt()       {}
func (While) isStmt()    {}
func (Break) isStmt()    {}
func (Continue) isStmt() {}
func (Return) isStmt()   {}

func (op UnaryOp) String() string {
	if op < 0 || int(op) >= len(unaryNames) {
		return "UnaryOp(?)"
	}

	return unaryNames[op]
}

func (op BinaryOp) String() string {
	if op < 0 || int(op) >= len(binaryNames) {
		return "BinaryOp(?)"
	}

	return binaryNames[op]
}

// ParseUnaryOp maps the document spelling of an operator to its value.
func ParseUnaryOp(s string) (UnaryOp, bool) {
	for op, n := range unaryNames {
		if n == s {
			return UnaryOp(op), true
		}
	}

	return 0, false
}

func ParseBinaryOp(s string) (BinaryOp, bool) {
	for op, n := range binaryNames {
		if n == s {
			return BinaryOp(op), true
		}
	}

	return 0, false
}

func (op BinaryOp) IsArith() bool { return op >= Add && op <= Div }
func (op BinaryOp) IsCmp() bool   { return op >= Eq && op <= Gte }

// Var is a shortcut for reading a named variable.
func Var(name string) Val {
	return Val{Place: Id{Name: name}}
}
