package analysis

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/verne/internal/imports"
	"github.com/JaimeStill/verne/pkg/abcxyz"
	"github.com/JaimeStill/verne/pkg/repository"
)

// Domain errors for analysis operations.
var (
	ErrNotFound      = errors.New("classification run not found")
	ErrDuplicate     = errors.New("classification run already exists")
	ErrInvalidSource = errors.New("invalid run source")
)

var dbErrors = repository.Errors{NotFound: ErrNotFound, Duplicate: ErrDuplicate}

// MapHTTPStatus maps analysis, engine and import errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, imports.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, abcxyz.ErrInvalidCriteria),
		errors.Is(err, abcxyz.ErrInvalidData),
		errors.Is(err, imports.ErrInvalidFile),
		errors.Is(err, ErrInvalidSource):
		return http.StatusBadRequest
	case errors.Is(err, abcxyz.ErrRunInProgress), errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, abcxyz.ErrSourceUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
