package ranking

import (
	"errors"
	"fmt"
	"strings"
)

// Wire names used in validation errors and JSON payloads.
const (
	FieldCustomerImpact = "customer_impact"
	FieldTeamEnergy     = "team_energy"
	FieldFrequency      = "frequency"
	FieldEase           = "ease"
)

// ErrInvalidRating matches any rating validation failure via errors.Is.
var ErrInvalidRating = errors.New("invalid rating")

// ValidationError reports every rating field that failed validation.
// Callers surface these distinctly from storage failures.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid rating(s) %s: each rating must be an integer between %d and %d",
		strings.Join(e.Fields, ", "), MinRating, MaxRating)
}

// Is reports ErrInvalidRating as the sentinel for this error type.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidRating
}
