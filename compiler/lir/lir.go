package lir

import (
	"sort"

	"github.com/slowlang/cflat/compiler/tp"
)

type (
	Var      string
	Label    string
	FuncID   string
	StructID string
	FieldID  string

	ArithOp int
	RelOp   int

	// Inst is a non-branching instruction.
	Inst interface {
		isInst()
	}

	// Terminal ends a basic block. A nil Terminal means the block
	// was never closed, which is a bug in whoever built it.
	Terminal interface {
		isTerminal()
	}

	Const struct {
		Dst   Var
		Value int64
	}

	Copy struct {
		Dst Var
		Src Var
	}

	Arith struct {
		Dst   Var
		Op    ArithOp
		Left  Var
		Right Var
	}

	Cmp struct {
		Dst   Var
		Op    RelOp
		Left  Var
		Right Var
	}

	Load struct {
		Dst Var
		Src Var // pointer
	}

	Store struct {
		Dst Var // pointer
		Src Var
	}

	// Gfp is get-field-pointer.
	Gfp struct {
		Dst    Var
		Src    Var
		Struct StructID
		Field  FieldID
	}

	// Gep is get-element-pointer.
	Gep struct {
		Dst     Var
		Src     Var
		Index   Var
		Checked bool
	}

	AllocSingle struct {
		Dst  Var
		Type tp.Type
	}

	AllocArray struct {
		Dst  Var
		Len  Var
		Type tp.Type
	}

	Call struct {
		Dst    Var // empty if the result is discarded
		Callee Var
		Args   []Var
	}

	Jump struct {
		Target Label
	}

	Branch struct {
		Guard Var
		True  Label
		False Label
	}

	Ret struct {
		Value Var // empty for a void return
	}

	Block struct {
		Label Label
		Insts []Inst
		Term  Terminal
	}

	Param struct {
		Name Var
		Type tp.Type
	}

	Function struct {
		Name   FuncID
		Params []Param
		Ret    tp.Type

		// Locals holds every variable of the function, parameters included.
		Locals map[Var]tp.Type

		Blocks map[Label]*Block
	}

	Field struct {
		Name FieldID
		Type tp.Type
	}

	Struct struct {
		Name   StructID
		Fields []Field // declaration order
	}

	Program struct {
		Structs   map[StructID]*Struct
		Externs   map[FuncID]tp.Type // Func
		Funptrs   map[FuncID]tp.Type // Ptr(Func)
		Functions map[FuncID]*Function
	}
)

const (
	Add ArithOp = iota
	Sub
	Mul
	Div
)

const (
	Eq RelOp = iota
	NotEq
	Lt
	Lte
	Gt
	Gte
)

// NilVar is the reserved name of the untyped null value.
const NilVar Var = "__NULL"

func (Const) isInst()       {}
func (Copy) isInst()        {}
func (Arith) isInst()       {}
func (Cmp) isInst()         {}
func (Load) isInst()        {}
func (Store) isInst()       {}
func (Gfp) isInst()         {}
func (Gep) isInst()         {}
func (AllocSingle) isInst() {}
func (AllocArray) isInst()  {}
func (Call) isInst()        {}

func (Jump) isTerminal()   {}
func (Branch) isTerminal() {}
func (Ret) isTerminal()    {}

func (op ArithOp) String() string {
	switch op {
	case Add:
		return "add"
	case Sub:
		return "sub"
	case Mul:
		return "mul"
	case Div:
		return "div"
	}

	return "arith?"
}

func (op RelOp) String() string {
	switch op {
	case Eq:
		return "eq"
	case NotEq:
		return "ne"
	case Lt:
		return "lt"
	case Lte:
		return "lte"
	case Gt:
		return "gt"
	case Gte:
		return "gte"
	}

	return "cmp?"
}

func NewProgram() *Program {
	return &Program{
		Structs:   make(map[StructID]*Struct),
		Externs:   make(map[FuncID]tp.Type),
		Funptrs:   make(map[FuncID]tp.Type),
		Functions: make(map[FuncID]*Function),
	}
}

func NewFunction(name FuncID) *Function {
	return &Function{
		Name:   name,
		Locals: make(map[Var]tp.Type),
		Blocks: make(map[Label]*Block),
	}
}

// Def returns the variable defined by the instruction, if any.
func Def(x Inst) (Var, bool) {
	switch x := x.(type) {
	case Const:
		return x.Dst, true
	case Copy:
		return x.Dst, true
	case Arith:
		return x.Dst, true
	case Cmp:
		return x.Dst, true
	case Load:
		return x.Dst, true
	case Gfp:
		return x.Dst, true
	case Gep:
		return x.Dst, true
	case AllocSingle:
		return x.Dst, true
	case AllocArray:
		return x.Dst, true
	case Call:
		return x.Dst, x.Dst != ""
	}

	return "", false
}

// Uses lists the variables an instruction reads, in operand order.
func Uses(x Inst) []Var {
	switch x := x.(type) {
	case Copy:
		return []Var{x.Src}
	case Arith:
		return []Var{x.Left, x.Right}
	case Cmp:
		return []Var{x.Left, x.Right}
	case Load:
		return []Var{x.Src}
	case Store:
		return []Var{x.Dst, x.Src}
	case Gfp:
		return []Var{x.Src}
	case Gep:
		return []Var{x.Src, x.Index}
	case AllocArray:
		return []Var{x.Len}
	case Call:
		return append([]Var{x.Callee}, x.Args...)
	}

	return nil
}

// Successors returns the labels a terminal may transfer control to.
func Successors(t Terminal) []Label {
	switch t := t.(type) {
	case Jump:
		return []Label{t.Target}
	case Branch:
		return []Label{t.True, t.False}
	}

	return nil
}

func (s *Struct) Field(name FieldID) (tp.Type, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Type, true
		}
	}

	return nil, false
}

// EntryLabel is the label of the block execution starts at.
func (f *Function) EntryLabel() Label {
	return EntryLabel(f.Name)
}

func EntryLabel(name FuncID) Label {
	return Label(name + "_entry")
}

// BlockOrder lists labels with the entry block first and the rest ascending.
func (f *Function) BlockOrder() []Label {
	return BlockOrder(f.EntryLabel(), f.Blocks)
}

func BlockOrder(entry Label, blocks map[Label]*Block) []Label {
	ls := make([]Label, 0, len(blocks))

	for l := range blocks {
		if l != entry {
			ls = append(ls, l)
		}
	}

	sort.Slice(ls, func(i, j int) bool { return ls[i] < ls[j] })

	if _, ok := blocks[entry]; ok {
		ls = append([]Label{entry}, ls...)
	}

	return ls
}

func (f *Function) SortedLocals() []Var {
	return sortedKeys(f.Locals)
}

func (p *Program) SortedStructs() []StructID { return sortedKeys(p.Structs) }
func (p *Program) SortedExterns() []FuncID   { return sortedKeys(p.Externs) }
func (p *Program) SortedFunptrs() []FuncID   { return sortedKeys(p.Funptrs) }
func (p *Program) SortedFunctions() []FuncID { return sortedKeys(p.Functions) }

func sortedKeys[K ~string, V any](m map[K]V) []K {
	ks := make([]K, 0, len(m))

	for k := range m {
		ks = append(ks, k)
	}

	sort.Slice(ks, func(i, j int) bool { return ks[i] < ks[j] })

	return ks
}
