package metadata

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog"
)

const (
	searchCacheTTL = 15 * time.Minute
	movieCacheTTL  = 24 * time.Hour
	personCacheTTL = 7 * 24 * time.Hour

	retryAttempts = 3
)

// Service fronts a Provider with a TTL cache and transient-failure retries.
// It implements Provider itself so consumers stay unaware of the caching.
type Service struct {
	provider Provider
	cache    *Cache
	logger   zerolog.Logger
}

// NewService creates a caching metadata service around a provider.
func NewService(provider Provider, cache *Cache, logger zerolog.Logger) *Service {
	return &Service{
		provider: provider,
		cache:    cache,
		logger:   logger.With().Str("component", "metadata").Logger(),
	}
}

// SearchMovies searches the provider, serving repeated queries from cache.
func (s *Service) SearchMovies(ctx context.Context, query string) ([]MovieSummary, error) {
	key := "search:" + query
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]MovieSummary), nil
	}

	var results []MovieSummary
	err := s.retry(ctx, func() error {
		var err error
		results, err = s.provider.SearchMovies(ctx, query)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: search %q: %v", ErrLookupFailed, query, err)
	}

	s.cache.SetWithTTL(key, results, searchCacheTTL)
	return results, nil
}

// GetMovie fetches full movie details.
func (s *Service) GetMovie(ctx context.Context, id int64) (*MovieMetadata, error) {
	key := "movie:" + strconv.FormatInt(id, 10)
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*MovieMetadata), nil
	}

	var result *MovieMetadata
	err := s.retry(ctx, func() error {
		var err error
		result, err = s.provider.GetMovie(ctx, id)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: movie %d: %v", ErrLookupFailed, id, err)
	}

	s.cache.SetWithTTL(key, result, movieCacheTTL)
	return result, nil
}

// GetPersonImage fetches a portrait URL for a person by name.
func (s *Service) GetPersonImage(ctx context.Context, name string) (string, error) {
	key := "person:" + name
	if cached, ok := s.cache.Get(key); ok {
		return cached.(string), nil
	}

	var image string
	err := s.retry(ctx, func() error {
		var err error
		image, err = s.provider.GetPersonImage(ctx, name)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("%w: person %q: %v", ErrLookupFailed, name, err)
	}

	s.cache.SetWithTTL(key, image, personCacheTTL)
	return image, nil
}

// retry runs op with backoff, giving up immediately on non-transient errors.
func (s *Service) retry(ctx context.Context, op func() error) error {
	return retry.Do(op,
		retry.Context(ctx),
		retry.Attempts(retryAttempts),
		retry.Delay(200*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, ErrNotFound)
		}),
		retry.OnRetry(func(n uint, err error) {
			s.logger.Warn().Err(err).Uint("attempt", n+1).Msg("Metadata request failed, retrying")
		}),
	)
}
