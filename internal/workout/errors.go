package workout

import (
	"strings"

	"github.com/myrjola/fitplanner/internal/errors"
)

var (
	// ErrValidation matches every *ValidationError with errors.Is.
	ErrValidation = errors.NewSentinel("invalid preferences")
	// ErrNoData means there was nothing to analyse. Analyses report it as StatusNoData instead of failing.
	ErrNoData = errors.NewSentinel("no data")
	// ErrInsufficientCatalog is logged when the catalog cannot fill a quota. It is never returned.
	ErrInsufficientCatalog = errors.NewSentinel("insufficient catalog data")
	// ErrNotFound is returned by storage lookups of missing entities.
	ErrNotFound = errors.NewSentinel("not found")
)

// ValidationError lists the invalid fields of a request.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid fields: " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation //nolint:errorlint // sentinel identity.
}
