package film

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidFilm is the base error for films that fail validation.
var ErrInvalidFilm = errors.New("invalid film data")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Film represents a single watched entry in a user's collection.
type Film struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title" validate:"required"`
	Year           int       `json:"year,omitempty" validate:"gte=0"`
	Genres         []string  `json:"genres,omitempty"`
	RuntimeMinutes int       `json:"runtimeMinutes" validate:"gt=0"`
	Director       string    `json:"director,omitempty"`
	Cast           []string  `json:"cast,omitempty"`
	Synopsis       string    `json:"synopsis,omitempty"`
	Rating         float64   `json:"rating" validate:"gte=0,lte=10"`
	WatchedDate    time.Time `json:"watchedDate"`
	Platform       string    `json:"platform,omitempty"`
	PosterURL      string    `json:"posterUrl,omitempty"`
}

// ValidationError describes a single rejected field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid film data: %s %s", e.Field, e.Reason)
}

// Unwrap lets callers match with errors.Is(err, ErrInvalidFilm).
func (e *ValidationError) Unwrap() error {
	return ErrInvalidFilm
}

// Validate checks the construction invariants for a film. It returns a
// *ValidationError naming the first offending field, or nil.
func Validate(f Film) error {
	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &ValidationError{
				Field:  verrs[0].Field(),
				Reason: reasonForTag(verrs[0]),
			}
		}
		return &ValidationError{Field: "film", Reason: "failed validation"}
	}

	// The validator cannot express a bound against the current year.
	if f.Year > time.Now().Year() {
		return &ValidationError{Field: "Year", Reason: "must not be in the future"}
	}

	return nil
}

func reasonForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

// HasGenre reports whether the film carries the given genre label.
func (f Film) HasGenre(genre string) bool {
	for _, g := range f.Genres {
		if g == genre {
			return true
		}
	}
	return false
}
