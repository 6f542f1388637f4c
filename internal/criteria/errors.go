package criteria

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/verne/pkg/abcxyz"
)

// Domain errors for criteria operations.
var (
	ErrEmptyPatch   = errors.New("criteria update must set at least one cut-off")
	ErrInvalidValue = abcxyz.ErrInvalidCriteria
)

// MapHTTPStatus maps criteria domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrInvalidValue) || errors.Is(err, ErrEmptyPatch) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
