package resolver

import (
	"errors"
	"fmt"
)

// ResolutionErrorCode categorizes resolution failures.
type ResolutionErrorCode string

const (
	// ErrCodeAmbiguous indicates a pass found no singleton to commit.
	ErrCodeAmbiguous ResolutionErrorCode = "AMBIGUOUS"

	// ErrCodeIncomplete indicates the finished mapping is not a bijection.
	// Unreachable when ErrCodeAmbiguous is checked first.
	ErrCodeIncomplete ResolutionErrorCode = "INCOMPLETE"
)

// ResolutionError is a terminal resolution failure. Resolution is
// deterministic, so retrying with the same matrix fails the same way.
type ResolutionError struct {
	// Code identifies the error category.
	Code ResolutionErrorCode

	// Message is a human-readable description.
	Message string

	// Pass is the 1-based pass that failed.
	Pass int

	// Unresolved lists the columns left unassigned, ascending.
	Unresolved []int

	// Empty lists unresolved columns with no candidate left, ascending.
	Empty []int
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	if e.Pass > 0 {
		return fmt.Sprintf("%s: %s (pass=%d, unresolved=%d)", e.Code, e.Message, e.Pass, len(e.Unresolved))
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsAmbiguous returns true if err is an ErrCodeAmbiguous ResolutionError.
// Uses errors.As to handle wrapped errors.
func IsAmbiguous(err error) bool {
	var re *ResolutionError
	if errors.As(err, &re) {
		return re.Code == ErrCodeAmbiguous
	}
	return false
}

// IsIncomplete returns true if err is an ErrCodeIncomplete ResolutionError.
func IsIncomplete(err error) bool {
	var re *ResolutionError
	if errors.As(err, &re) {
		return re.Code == ErrCodeIncomplete
	}
	return false
}

func newAmbiguousError(pass int, unresolved, empty []int) *ResolutionError {
	msg := "no column reduces to a single candidate"
	if len(empty) > 0 {
		msg = fmt.Sprintf("%s; %d column(s) have no candidate left", msg, len(empty))
	}
	return &ResolutionError{
		Code:       ErrCodeAmbiguous,
		Message:    msg,
		Pass:       pass,
		Unresolved: unresolved,
		Empty:      empty,
	}
}

func newIncompleteError(cause error) *ResolutionError {
	return &ResolutionError{
		Code:    ErrCodeIncomplete,
		Message: cause.Error(),
	}
}
