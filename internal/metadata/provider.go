// Package metadata defines the movie-metadata provider boundary. Consumers
// receive explicit boundary types with defaults filled in here, never raw
// provider payloads.
package metadata

import (
	"context"
	"errors"
)

// Placeholder values returned when the provider is missing optional artwork.
const (
	PosterPlaceholder      = "https://via.placeholder.com/400x600?text=No+Poster"
	PersonImagePlaceholder = "https://via.placeholder.com/200x200?text=No+Photo"
)

// ErrLookupFailed wraps provider failures that the caller cannot recover
// from locally.
var ErrLookupFailed = errors.New("metadata lookup failed")

// ErrNotFound is returned when the provider has no record for the id.
var ErrNotFound = errors.New("movie not found")

// MovieSummary is a search result row.
type MovieSummary struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Year      int    `json:"year,omitempty"`
	Overview  string `json:"overview,omitempty"`
	PosterURL string `json:"posterUrl,omitempty"`
}

// MovieMetadata is the full detail record for one movie. Optional provider
// fields are always filled with documented defaults: a placeholder poster and
// empty cast/genres slices.
type MovieMetadata struct {
	ID             int64    `json:"id"`
	Title          string   `json:"title"`
	Overview       string   `json:"overview,omitempty"`
	ReleaseDate    string   `json:"releaseDate,omitempty"`
	Year           int      `json:"year,omitempty"`
	RuntimeMinutes int      `json:"runtimeMinutes,omitempty"`
	PosterURL      string   `json:"posterUrl"`
	Genres         []string `json:"genres"`
	Director       string   `json:"director,omitempty"`
	Cast           []string `json:"cast"`
}

// Provider is the external movie-database capability.
type Provider interface {
	SearchMovies(ctx context.Context, query string) ([]MovieSummary, error)
	GetMovie(ctx context.Context, id int64) (*MovieMetadata, error)
	GetPersonImage(ctx context.Context, name string) (string, error)
}
