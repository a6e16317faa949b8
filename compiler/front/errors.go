package front

import (
	"fmt"

	"tlog.app/go/errors"
)

type (
	// LineError attaches the source line of the semantic action that failed.
	LineError struct {
		Line int
		Err  error
	}
)

var (
	ErrDuplicateDeclaration = errors.New("duplicate declaration")
	ErrUnknownType          = errors.New("unknown type")

	ErrUndeclaredIdentifier = errors.New("undeclared identifier")
	ErrNotAFunction         = errors.New("not a function")
	ErrTypeMismatch         = errors.New("type mismatch")

	ErrOperatorTypeMismatch   = errors.New("operator type mismatch")
	ErrReturnTypeMismatch     = errors.New("return type mismatch")
	ErrReturnOutsideFunction  = errors.New("return outside of function")
	ErrArgumentTypeMismatch   = errors.New("argument type mismatch")
	ErrArgumentCountMismatch  = errors.New("argument count mismatch")
	ErrDimensionCountMismatch = errors.New("dimension count mismatch")
	ErrNotAddressable         = errors.New("not addressable")

	// ErrUnbalanced means the driver broke stack discipline.
	ErrUnbalanced = errors.New("unbalanced semantic actions")
)

func (e LineError) Error() string {
	return fmt.Sprintf("semantic error at line %d: %v", e.Line, e.Err)
}

func (e LineError) Unwrap() error {
	return e.Err
}

func (f *Front) wrap(err *error) {
	if *err == nil {
		return
	}

	if _, ok := (*err).(LineError); ok {
		return
	}

	*err = LineError{Line: f.Line, Err: *err}
}
