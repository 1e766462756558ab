package quantity

import (
	"errors"
	"fmt"
)

// ErrUnknownUnit is returned when a unit tag is not part of the relevant
// unit table.
var ErrUnknownUnit = errors.New("quantity: unknown unit")

// UnknownUnitError carries the offending tag and, when known, the kind.
type UnknownUnitError struct {
	Kind Kind
	Tag  string
}

func (e *UnknownUnitError) Error() string {
	if e.Kind.Valid() {
		return fmt.Sprintf("quantity: unknown %s unit %q", e.Kind, e.Tag)
	}
	return fmt.Sprintf("quantity: unknown unit %q", e.Tag)
}

func (e *UnknownUnitError) Unwrap() error {
	return ErrUnknownUnit
}
