package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/pye-wu/axon-demo/internal/core/domain"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Accounts (ACC) ----

func ErrAccountNotFound() *AppError {
	return New("ACC_001", "Account not found", http.StatusNotFound)
}

func ErrAccountExists() *AppError {
	return New("ACC_002", "Account already exists", http.StatusConflict)
}

func ErrInvalidAmount() *AppError {
	return New("ACC_003", "Invalid amount", http.StatusBadRequest)
}

func ErrInvalidCommand(err error) *AppError {
	return Wrap("ACC_004", "Invalid command", http.StatusBadRequest, err)
}

// ---- Transfers (TRF) ----

func ErrTransferNotFound() *AppError {
	return New("TRF_001", "Transfer not found", http.StatusNotFound)
}

func ErrSameAccountTransfer() *AppError {
	return New("TRF_002", "Source and destination accounts must differ", http.StatusBadRequest)
}

func ErrTransferExists() *AppError {
	return New("TRF_003", "Transfer already requested", http.StatusConflict)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

func ErrTechnicalFault(err error) *AppError {
	return Wrap("SYS_002", "Technical fault, command not applied", http.StatusServiceUnavailable, err)
}

func ErrConcurrencyConflict(err error) *AppError {
	return Wrap("SYS_003", "Concurrent modification, retry the request", http.StatusConflict, err)
}

func ErrTransport(err error) *AppError {
	return Wrap("SYS_004", "Message transport failure", http.StatusServiceUnavailable, err)
}

func ErrCorruptedStream(err error) *AppError {
	return Wrap("SYS_005", "Stored history is inconsistent", http.StatusInternalServerError, err)
}

func ErrRateLimitExceeded() *AppError {
	return New("SYS_006", "Too many requests", http.StatusTooManyRequests)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns an ACC_004-style validation error.
func Validation(message string) *AppError {
	return New("ACC_004", message, http.StatusBadRequest)
}

// FromDomain maps domain sentinel errors to their API error. Errors that are
// already AppErrors pass through unchanged.
func FromDomain(err error) *AppError {
	var appErr *AppError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, domain.ErrAccountNotFound):
		return Wrap("ACC_001", "Account not found", http.StatusNotFound, err)
	case errors.Is(err, domain.ErrAccountExists):
		return Wrap("ACC_002", "Account already exists", http.StatusConflict, err)
	case errors.Is(err, domain.ErrInvalidCommand):
		return ErrInvalidCommand(err)
	case errors.Is(err, domain.ErrTransferNotFound):
		return Wrap("TRF_001", "Transfer not found", http.StatusNotFound, err)
	case errors.Is(err, domain.ErrTransferExists), errors.Is(err, domain.ErrSagaExists):
		return Wrap("TRF_003", "Transfer already requested", http.StatusConflict, err)
	case errors.Is(err, domain.ErrTechnicalFault):
		return ErrTechnicalFault(err)
	case errors.Is(err, domain.ErrConcurrencyConflict):
		return ErrConcurrencyConflict(err)
	case errors.Is(err, domain.ErrStreamCorrupted),
		errors.Is(err, domain.ErrClosedAccountMutation),
		errors.Is(err, domain.ErrNegativeBalance),
		errors.Is(err, domain.ErrUnknownEvent):
		return ErrCorruptedStream(err)
	default:
		return InternalError(err)
	}
}
