package moderation

import (
	"errors"
	"fmt"
)

// ErrCaseIDExhausted means no free case id could be found up to the
// maximum digit width. Fatal for the ban action that hit it; the operation
// is aborted and nothing is written.
var ErrCaseIDExhausted = errors.New("moderation: case id space exhausted")

// ValidationError rejects malformed handles and case ids before any store
// access happens.
type ValidationError struct {
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("moderation: invalid %s %q", e.Field, e.Value)
}
