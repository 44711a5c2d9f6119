package utils

import (
	"errors"
	"fmt"
)

var ErrorRecordNotFound = errors.New("record not found")

// Ledger submission outcomes. LedgerUnavailable means nothing was mutated on
// either side and the caller may retry; LedgerRejected is permanent for that
// request.
var (
	ErrLedgerUnavailable = errors.New("ledger unavailable")
	ErrLedgerRejected    = errors.New("ledger rejected submission")
)

// ErrProjectionInconsistency marks a confirmed ledger write with no matching
// local record. It is logged and skipped, never escalated: failing the event
// feed on one record would stall all other records.
var ErrProjectionInconsistency = errors.New("projection inconsistency")

// ValidationError is rejected before any I/O and is fully recoverable.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func NewValidationError(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}
