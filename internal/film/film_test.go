package film

import (
	"errors"
	"testing"
	"time"
)

func validFilm() Film {
	return Film{
		ID:             27205,
		Title:          "Inception",
		Year:           2010,
		Genres:         []string{"SciFi"},
		RuntimeMinutes: 148,
		Director:       "Christopher Nolan",
		Cast:           []string{"Leonardo DiCaprio"},
		Rating:         9,
		WatchedDate:    time.Date(2024, 1, 1, 21, 0, 0, 0, time.UTC),
		Platform:       "Netflix",
	}
}

func TestValidate_OK(t *testing.T) {
	if err := Validate(validFilm()); err != nil {
		t.Fatalf("Validate() error = %v, want nil", err)
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Film)
		wantField string
	}{
		{"empty title", func(f *Film) { f.Title = "" }, "Title"},
		{"zero runtime", func(f *Film) { f.RuntimeMinutes = 0 }, "RuntimeMinutes"},
		{"negative runtime", func(f *Film) { f.RuntimeMinutes = -10 }, "RuntimeMinutes"},
		{"rating above bound", func(f *Film) { f.Rating = 10.5 }, "Rating"},
		{"rating below bound", func(f *Film) { f.Rating = -1 }, "Rating"},
		{"future year", func(f *Film) { f.Year = time.Now().Year() + 1 }, "Year"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validFilm()
			tt.mutate(&f)

			err := Validate(f)
			if err == nil {
				t.Fatal("Validate() error = nil, want ValidationError")
			}
			if !errors.Is(err, ErrInvalidFilm) {
				t.Errorf("errors.Is(err, ErrInvalidFilm) = false for %v", err)
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error %v is not a *ValidationError", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("ValidationError.Field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}

func TestValidate_RatingBounds(t *testing.T) {
	for _, rating := range []float64{0, 10} {
		f := validFilm()
		f.Rating = rating
		if err := Validate(f); err != nil {
			t.Errorf("Validate() with rating %.0f error = %v, want nil", rating, err)
		}
	}
}

func TestHasGenre(t *testing.T) {
	f := validFilm()
	if !f.HasGenre("SciFi") {
		t.Error("HasGenre(SciFi) = false, want true")
	}
	if f.HasGenre("Horror") {
		t.Error("HasGenre(Horror) = true, want false")
	}
}
