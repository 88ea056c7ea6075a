// Package mock provides an in-memory metadata provider for tests.
package mock

import (
	"context"
	"sync"

	"github.com/cinelog/cinelog/internal/metadata"
)

// Provider is a metadata.Provider serving canned responses.
type Provider struct {
	mu sync.Mutex

	Movies       map[int64]*metadata.MovieMetadata
	Summaries    []metadata.MovieSummary
	PersonImages map[string]string

	// Err, when set, is returned by every call.
	Err error

	// Call counters for assertions.
	SearchCalls int
	MovieCalls  int
	PersonCalls int
}

// NewProvider creates an empty mock provider.
func NewProvider() *Provider {
	return &Provider{
		Movies:       make(map[int64]*metadata.MovieMetadata),
		PersonImages: make(map[string]string),
	}
}

// AddMovie registers a movie detail record.
func (p *Provider) AddMovie(m *metadata.MovieMetadata) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Movies[m.ID] = m
}

func (p *Provider) SearchMovies(ctx context.Context, query string) ([]metadata.MovieSummary, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.SearchCalls++
	if p.Err != nil {
		return nil, p.Err
	}
	return p.Summaries, nil
}

func (p *Provider) GetMovie(ctx context.Context, id int64) (*metadata.MovieMetadata, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.MovieCalls++
	if p.Err != nil {
		return nil, p.Err
	}
	movie, ok := p.Movies[id]
	if !ok {
		return nil, metadata.ErrNotFound
	}
	return movie, nil
}

func (p *Provider) GetPersonImage(ctx context.Context, name string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.PersonCalls++
	if p.Err != nil {
		return "", p.Err
	}
	if image, ok := p.PersonImages[name]; ok {
		return image, nil
	}
	return metadata.PersonImagePlaceholder, nil
}
