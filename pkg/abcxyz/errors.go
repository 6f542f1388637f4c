package abcxyz

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for classification runs.
var (
	ErrInvalidCriteria   = errors.New("invalid criteria")
	ErrInvalidData       = errors.New("invalid data")
	ErrSourceUnavailable = errors.New("data source unavailable")
	ErrRunInProgress     = errors.New("classification run already in progress")
)

// Relations checked by Criteria.Validate.
const (
	RelationABC = "0 < A < B < 1"
	RelationXYZ = "0 < X < Y"
)

// ValidationError reports which criteria relation was violated.
type ValidationError struct {
	Relation string
	Criteria Criteria
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidCriteria, e.Relation)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidCriteria
}

// DataError reports malformed input series.
type DataError struct {
	Reason string
	Issues []Issue
}

func (e *DataError) Error() string {
	if len(e.Issues) == 0 {
		return fmt.Sprintf("%s: %s", ErrInvalidData, e.Reason)
	}

	parts := make([]string, 0, min(len(e.Issues), 3))
	for _, issue := range e.Issues[:min(len(e.Issues), 3)] {
		parts = append(parts, fmt.Sprintf("row %d: %s", issue.Row, issue.Reason))
	}
	msg := fmt.Sprintf("%s: %s (%s", ErrInvalidData, e.Reason, strings.Join(parts, "; "))
	if len(e.Issues) > 3 {
		msg += fmt.Sprintf("; %d more", len(e.Issues)-3)
	}
	return msg + ")"
}

func (e *DataError) Is(target error) bool {
	return target == ErrInvalidData
}
