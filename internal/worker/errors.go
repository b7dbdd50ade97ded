package worker

import (
	"errors"
	"fmt"

	"github.com/roach88/isopod/internal/store"
)

// InfraError represents an infrastructure failure in the isolation layer,
// as distinct from an assertion failure in the code under test.
//
// Infrastructure errors include:
//   - Provisioning: schema application failed, worker unusable
//   - Lock contention: the storage instance reported busy
//   - Integrity violation: a constraint violation from the code under test
//   - Disconnect: closing a worker's client failed during cleanup
//
// InfraError includes structured fields for diagnostics.
type InfraError struct {
	// Code identifies the error category.
	Code InfraErrorCode

	// Message is a human-readable description.
	Message string

	// WorkerID identifies the affected worker.
	WorkerID string

	// TestID identifies the affected test, when one is bound.
	TestID string

	// Err is the underlying cause.
	Err error
}

// InfraErrorCode categorizes infrastructure errors.
type InfraErrorCode string

const (
	// ErrCodeProvisioning indicates schema application or instance creation
	// failed. Fatal to the worker: its remaining tests are aborted.
	ErrCodeProvisioning InfraErrorCode = "PROVISIONING_FAILED"

	// ErrCodeLockContention indicates the storage instance reported busy.
	// Retried with backoff; fatal only after the retry budget is exhausted.
	ErrCodeLockContention InfraErrorCode = "LOCK_CONTENTION"

	// ErrCodeIntegrity indicates a constraint violation raised by the code
	// under test. Always propagated immediately, never retried.
	ErrCodeIntegrity InfraErrorCode = "INTEGRITY_VIOLATION"

	// ErrCodeDisconnect indicates closing a worker's client failed during
	// cleanup. Logged as a warning only; results are already captured.
	ErrCodeDisconnect InfraErrorCode = "DISCONNECT_FAILED"
)

// Error implements the error interface.
func (e *InfraError) Error() string {
	switch {
	case e.WorkerID != "" && e.TestID != "":
		return fmt.Sprintf("%s: %s (worker=%s, test=%s)", e.Code, e.Message, e.WorkerID, e.TestID)
	case e.WorkerID != "":
		return fmt.Sprintf("%s: %s (worker=%s)", e.Code, e.Message, e.WorkerID)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Unwrap returns the underlying cause.
func (e *InfraError) Unwrap() error {
	return e.Err
}

// IsProvisioningError returns true if the error is a provisioning failure.
// Uses errors.As to handle wrapped errors.
func IsProvisioningError(err error) bool {
	var ie *InfraError
	if errors.As(err, &ie) {
		return ie.Code == ErrCodeProvisioning
	}
	return false
}

// IsTransientLock returns true if the error is transient lock contention,
// either already classified or raw from the storage engine.
func IsTransientLock(err error) bool {
	var ie *InfraError
	if errors.As(err, &ie) {
		return ie.Code == ErrCodeLockContention
	}
	return store.IsBusy(err)
}

// IsIntegrityViolation returns true if the error is a constraint violation,
// either already classified or raw from the storage engine.
func IsIntegrityViolation(err error) bool {
	var ie *InfraError
	if errors.As(err, &ie) {
		return ie.Code == ErrCodeIntegrity
	}
	return store.IsConstraint(err)
}

// IsDisconnectError returns true if the error is a cleanup disconnect failure.
func IsDisconnectError(err error) bool {
	var ie *InfraError
	if errors.As(err, &ie) {
		return ie.Code == ErrCodeDisconnect
	}
	return false
}

// NewProvisioningError creates an InfraError for a failed provisioning step.
func NewProvisioningError(workerID string, err error) *InfraError {
	return &InfraError{
		Code:     ErrCodeProvisioning,
		Message:  "failed to provision worker database",
		WorkerID: workerID,
		Err:      err,
	}
}

// NewDisconnectError creates an InfraError for a failed client disconnect.
func NewDisconnectError(workerID string, err error) *InfraError {
	return &InfraError{
		Code:     ErrCodeDisconnect,
		Message:  "failed to disconnect worker client",
		WorkerID: workerID,
		Err:      err,
	}
}

// Classify wraps a raw storage error into the infrastructure taxonomy.
// Busy signals become lock-contention errors, constraint violations become
// integrity errors, anything else passes through unchanged.
func Classify(workerID string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case store.IsBusy(err):
		return &InfraError{
			Code:     ErrCodeLockContention,
			Message:  "storage instance busy",
			WorkerID: workerID,
			Err:      err,
		}
	case store.IsConstraint(err):
		return &InfraError{
			Code:     ErrCodeIntegrity,
			Message:  "constraint violation",
			WorkerID: workerID,
			Err:      err,
		}
	default:
		return err
	}
}
