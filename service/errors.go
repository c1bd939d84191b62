package service

import (
	"errors"
	"fmt"
)

// Oracle error kinds.
const (
	OracleTimeout   = "timeout"
	OracleQuota     = "quota"
	OracleMalformed = "malformed"
)

// OracleError is a failed call to the inference or retrieval oracle.
// Timeout and quota errors are retryable up to the stage's budget; malformed
// responses are not (they go through the corrective re-prompt path instead).
type OracleError struct {
	Kind string
	Err  error
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("oracle %s: %v", e.Kind, e.Err)
}

func (e *OracleError) Unwrap() error { return e.Err }

// Retryable reports whether the call may be retried as-is.
func (e *OracleError) Retryable() bool {
	return e.Kind == OracleTimeout || e.Kind == OracleQuota
}

// IsRetryable reports whether err is a retryable oracle failure.
func IsRetryable(err error) bool {
	var oe *OracleError
	return errors.As(err, &oe) && oe.Retryable()
}

// ExtractionFailure means the source document could not be turned into the
// expected shape. Fatal for the document.
type ExtractionFailure struct {
	Reason string
	Err    error
}

func (e *ExtractionFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("extraction failed: %s", e.Reason)
}

func (e *ExtractionFailure) Unwrap() error { return e.Err }

// ParseFailure means an oracle response could not be parsed into the
// contract the stage expects.
type ParseFailure struct {
	Stage string
	Err   error
}

func (e *ParseFailure) Error() string {
	return fmt.Sprintf("%s: unparseable oracle response: %v", e.Stage, e.Err)
}

func (e *ParseFailure) Unwrap() error { return e.Err }

// ProcessingError is the failure surfaced by Pipeline A, carrying the stage
// that exhausted its budget.
type ProcessingError struct {
	Stage string
	Cause error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("processing failed at stage %s: %v", e.Stage, e.Cause)
}

func (e *ProcessingError) Unwrap() error { return e.Cause }

// TransferFailure is a bridge delivery that exhausted its retry budget. It
// never corrupts the processor's own document state.
type TransferFailure struct {
	DocumentID string
	Attempts   int
	Err        error
}

func (e *TransferFailure) Error() string {
	return fmt.Sprintf("transfer of document %s failed after %d attempts: %v",
		e.DocumentID, e.Attempts, e.Err)
}

func (e *TransferFailure) Unwrap() error { return e.Err }

// Sentinel errors for store and pipeline lookups.
var (
	ErrNotFound          = errors.New("not found")
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrAlreadyReported   = errors.New("document already reported; resubmission rejected")
)
