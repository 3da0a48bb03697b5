package keyword

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSchema signals that a source table lacks a required column.
	ErrSchema = errors.New("schema error")
	// ErrInvalidCriteria signals filter thresholds that cannot be applied.
	ErrInvalidCriteria = errors.New("invalid filter criteria")
	// ErrUnknownProfile signals a schema profile name that is not registered.
	ErrUnknownProfile = errors.New("unknown schema profile")
	// ErrUnknownField signals a column name that is not a numeric field.
	ErrUnknownField = errors.New("unknown field")
)

// SchemaError lists the source columns a profile expected but did not find.
type SchemaError struct {
	Profile string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: profile %q requires missing column(s): %s",
		ErrSchema.Error(), e.Profile, strings.Join(e.Missing, ", "))
}

func (e *SchemaError) Unwrap() error { return ErrSchema }
