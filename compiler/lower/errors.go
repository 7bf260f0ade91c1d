package lower

import (
	"fmt"

	"tlog.app/go/loc"
)

type (
	// StructuralError reports an AST that breaks a rule the type checker
	// should have enforced. There is no partial output after one.
	StructuralError struct {
		Construct string
		Reason    string

		PC loc.PC // where lowering gave up
	}
)

func structural(construct, f string, args ...any) StructuralError {
	return StructuralError{
		Construct: construct,
		Reason:    fmt.Sprintf(f, args...),
		PC:        loc.Caller(1),
	}
}

func (e StructuralError) Error() string {
	return fmt.Sprintf("%s: %s", e.Construct, e.Reason)
}
