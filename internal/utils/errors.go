package utils

import "fmt"

type AppError struct {
	Code    string
	Message string
	Origin  error // Original error that caused this error, if any
}

func (appErr *AppError) Error() string {
	if appErr.Origin != nil {
		return appErr.Message + ": " + appErr.Origin.Error()
	}
	return appErr.Message
}

// Standard error codes for the application
const (
	// Resource errors
	ErrNotFound     = "NOT_FOUND"
	ErrDuplicate    = "DUPLICATE"
	ErrInvalidInput = "INVALID_INPUT"

	// Authentication errors
	ErrUnauthenticated    = "UNAUTHENTICATED"
	ErrInvalidToken       = "INVALID_TOKEN"
	ErrInvalidCredentials = "INVALID_CREDENTIALS"

	// Voting errors
	ErrInvalidVote       = "INVALID_VOTE"
	ErrLocationNotFound  = "LOCATION_NOT_FOUND"
	ErrTransientStore    = "TRANSIENT_STORE_FAILURE"
	ErrAggregationFailed = "AGGREGATION_FAILED"

	// User-specific errors
	ErrUserNotFound      = "USER_NOT_FOUND"
	ErrUserAlreadyExists = "USER_ALREADY_EXISTS"

	// Actor communication errors
	ErrActorTimeout = "ACTOR_TIMEOUT"

	ErrDatabase = "DATABASE_ERROR"
)

// Error creation helper functions
func NewAppError(code string, message string, originalErr error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Origin:  originalErr,
	}
}

func NewLocationNotFoundError(locationID string) *AppError {
	return &AppError{
		Code:    ErrLocationNotFound,
		Message: "Location not found: " + locationID,
	}
}

func NewUnauthenticatedError(reason string) *AppError {
	return &AppError{
		Code:    ErrUnauthenticated,
		Message: "Unauthenticated: " + reason,
	}
}

func NewInvalidVoteError(voteType string) *AppError {
	return &AppError{
		Code:    ErrInvalidVote,
		Message: fmt.Sprintf("Invalid vote type: %q (expected igniter or imposter)", voteType),
	}
}

func NewActorTimeoutError(actorName string) *AppError {
	return &AppError{
		Code:    ErrActorTimeout,
		Message: "Actor communication timeout: " + actorName,
	}
}

// Helper method to check if an error is of a specific type
func IsErrorCode(err error, code string) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == code
	}
	return false
}

// IsTransient reports whether an error is worth retrying locally.
func IsTransient(err error) bool {
	return IsErrorCode(err, ErrTransientStore)
}

// AppErrorToHTTPStatus converts an AppError code to an HTTP status code.
func AppErrorToHTTPStatus(errorCode string) int {
	switch errorCode {
	case ErrNotFound, ErrUserNotFound, ErrLocationNotFound:
		return 404 // http.StatusNotFound
	case ErrInvalidInput, ErrInvalidVote, ErrInvalidCredentials:
		return 400 // http.StatusBadRequest
	case ErrUnauthenticated, ErrInvalidToken:
		return 401 // http.StatusUnauthorized
	case ErrDuplicate, ErrUserAlreadyExists:
		return 409 // http.StatusConflict
	case ErrTransientStore, ErrAggregationFailed:
		return 503 // http.StatusServiceUnavailable
	case ErrDatabase, ErrActorTimeout:
		return 500 // http.StatusInternalServerError
	default:
		return 500 // http.StatusInternalServerError for unknown errors
	}
}
