package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is an error that knows how it should be reported to API clients.
type AppError struct {
	Code       string
	Message    string
	Detail     string
	StatusCode int
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError carrying the same code, so callers can test for a
// kind of failure with errors.Is(err, errors.NotFoundError("")).
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

func (e *AppError) WithDetail(detail string) *AppError {
	e.Detail = detail

	return e
}

func (e *AppError) WithError(err error) *AppError {
	e.Err = err

	return e
}

const (
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeDatabaseError   = "DATABASE_ERROR"
	ErrCodeDuplicateEntry  = "DUPLICATE_ENTRY"
	ErrCodeConflict        = "CONFLICT"
	ErrCodeThirdPartyError = "THIRD_PARTY_ERROR"
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS"
)

var statusByCode = map[string]int{
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeUnauthorized:    http.StatusUnauthorized,
	ErrCodeForbidden:       http.StatusForbidden,
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeDatabaseError:   http.StatusInternalServerError,
	ErrCodeDuplicateEntry:  http.StatusConflict,
	ErrCodeConflict:        http.StatusConflict,
	ErrCodeThirdPartyError: http.StatusBadGateway,
	ErrCodeTooManyRequests: http.StatusTooManyRequests,
}

// New builds an AppError for one of the ErrCode constants. Unknown codes are
// reported as internal errors.
func New(code, message string) *AppError {
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}

	return &AppError{Code: code, Message: message, StatusCode: status}
}

func ValidationError(message string) *AppError { return New(ErrCodeValidation, message) }

func BadRequestError(message string) *AppError { return New(ErrCodeBadRequest, message) }

func NotFoundError(message string) *AppError { return New(ErrCodeNotFound, message) }

func UnauthorizedError(message string) *AppError { return New(ErrCodeUnauthorized, message) }

func ForbiddenError(message string) *AppError { return New(ErrCodeForbidden, message) }

func InternalError(message string) *AppError { return New(ErrCodeInternal, message) }

func DatabaseError(message string) *AppError { return New(ErrCodeDatabaseError, message) }

func DuplicateEntryError(message string) *AppError { return New(ErrCodeDuplicateEntry, message) }

// ConflictError reports a request that is valid on its own but not against the
// current state of the resource, e.g. an illegal order status transition.
func ConflictError(message string) *AppError { return New(ErrCodeConflict, message) }

// ThirdPartyError wraps failures from Stripe or SendGrid.
func ThirdPartyError(message string) *AppError { return New(ErrCodeThirdPartyError, message) }

func TooManyRequestsError(message string) *AppError { return New(ErrCodeTooManyRequests, message) }

func IsAppError(err error) (*AppError, bool) {
	var appError *AppError

	if errors.As(err, &appError) {
		return appError, true
	}

	return nil, false
}

// AddValidationError reports a single invalid field.
func AddValidationError(field, reason string) *AppError {
	return ValidationError(fmt.Sprintf("Invalid field '%s': %s", field, reason))
}
