package apperrors

import (
	"errors"
	"net/http"
)

var (
	ErrInvalidFileType = errors.New("invalid file type")
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("not found")
	ErrStorage         = errors.New("storage error")
	ErrDatabase        = errors.New("database error")
	ErrConfiguration   = errors.New("configuration error")
)

// HTTPStatus maps an error chain to the status code returned to clients.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidFileType), errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Label is the short error string used in ErrorResponse.Error.
func Label(err error) string {
	switch {
	case errors.Is(err, ErrInvalidFileType):
		return "invalid file type"
	case errors.Is(err, ErrInvalidInput):
		return "invalid input"
	case errors.Is(err, ErrNotFound):
		return "not found"
	case errors.Is(err, ErrStorage):
		return "storage error"
	case errors.Is(err, ErrDatabase):
		return "database error"
	default:
		return "internal server error"
	}
}
