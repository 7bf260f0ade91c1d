package tp

import (
	"strings"

	"tlog.app/go/tlog/tlwire"
)

type (
	// Type is a LIR value type. Values are immutable and may be shared
	// between any number of instructions and tables.
	Type interface {
		String() string

		// Equal reports whether other is the same type.
		// Nil equals any Ptr or Array, but Ptr and Array
		// do not equal Nil back. Use Assignable for that.
		Equal(other Type) bool
	}

	Int struct{}

	Nil struct{}

	Struct struct {
		Name string
	}

	Array struct {
		Elem Type
	}

	Ptr struct {
		Elem Type
	}

	Func struct {
		Params []Type
		Ret    Type
	}
)

func (Int) String() string { return "int" }
func (Nil) String() string { return "nil" }

func (x Struct) String() string { return "struct " + x.Name }
func (x Array) String() string  { return "[" + str(x.Elem) + "]" }
func (x Ptr) String() string    { return "&" + str(x.Elem) }

func (x Func) String() string {
	var b strings.Builder

	b.WriteString("fn (")

	for i, p := range x.Params {
		if i != 0 {
			b.WriteString(", ")
		}

		b.WriteString(str(p))
	}

	b.WriteString(") -> ")
	b.WriteString(str(x.Ret))

	return b.String()
}

func (Int) Equal(y Type) bool {
	_, ok := y.(Int)
	return ok
}

func (Nil) Equal(y Type) bool {
	switch y.(type) {
	case Nil, Ptr, Array:
		return true
	}

	return false
}

func (x Struct) Equal(y Type) bool {
	s, ok := y.(Struct)
	return ok && s.Name == x.Name
}

func (x Array) Equal(y Type) bool {
	a, ok := y.(Array)
	return ok && Equal(x.Elem, a.Elem)
}

func (x Ptr) Equal(y Type) bool {
	p, ok := y.(Ptr)
	return ok && Equal(x.Elem, p.Elem)
}

func (x Func) Equal(y Type) bool {
	f, ok := y.(Func)
	if !ok || len(f.Params) != len(x.Params) || !Equal(x.Ret, f.Ret) {
		return false
	}

	for i, p := range x.Params {
		if !Equal(p, f.Params[i]) {
			return false
		}
	}

	return true
}

// Equal compares x with y using x's rule. nil types are only equal to each other.
func Equal(x, y Type) bool {
	if x == nil || y == nil {
		return x == nil && y == nil
	}

	return x.Equal(y)
}

// Assignable reports whether a value of type src can be stored where dst is expected.
// A nil source is routed through Nil's rule. A Nil destination takes only nil.
func Assignable(dst, src Type) bool {
	if _, ok := dst.(Nil); ok {
		_, ok = src.(Nil)
		return ok
	}

	if n, ok := src.(Nil); ok {
		return n.Equal(dst)
	}

	return Equal(dst, src)
}

// Elem returns the pointee of a Ptr or the element of an Array.
func Elem(t Type) (Type, bool) {
	switch t := t.(type) {
	case Ptr:
		return t.Elem, true
	case Array:
		return t.Elem, true
	}

	return nil, false
}

// Ret returns the result type of a Func or of a pointer to one.
func Ret(t Type) (Type, bool) {
	switch t := t.(type) {
	case Func:
		return t.Ret, true
	case Ptr:
		if f, ok := t.Elem.(Func); ok {
			return f.Ret, true
		}
	}

	return nil, false
}

func str(t Type) string {
	if t == nil {
		return "<null_type>"
	}

	return t.String()
}

func (Int) TlogAppend(b []byte) []byte      { return appendType(b, Int{}) }
func (Nil) TlogAppend(b []byte) []byte      { return appendType(b, Nil{}) }
func (x Struct) TlogAppend(b []byte) []byte { return appendType(b, x) }
func (x Array) TlogAppend(b []byte) []byte  { return appendType(b, x) }
func (x Ptr) TlogAppend(b []byte) []byte    { return appendType(b, x) }
func (x Func) TlogAppend(b []byte) []byte   { return appendType(b, x) }

func appendType(b []byte, t Type) []byte {
	var e tlwire.LowEncoder

	return e.AppendString(b, t.String())
}
