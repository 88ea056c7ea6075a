// Package watchlist manages the per-user queue of films to watch. Items are
// ordered by priority, then recency, and can be promoted into the collection
// once watched.
package watchlist

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/avast/retry-go/v4"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/cinelog/cinelog/internal/collection"
	"github.com/cinelog/cinelog/internal/events"
	"github.com/cinelog/cinelog/internal/film"
	"github.com/cinelog/cinelog/internal/metadata"
	"github.com/cinelog/cinelog/internal/storage"
)

var (
	ErrItemNotFound    = errors.New("watchlist item not found")
	ErrDuplicateItem   = errors.New("film already on watchlist")
	ErrInvalidPriority = errors.New("invalid priority")
)

// Priority orders items in the displayed queue.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

func (p Priority) valid() bool { return p.rank() > 0 }

// Item is one queued film. ID is the source movie id, so promotion produces
// a Film with the same identity.
type Item struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	PosterPath string    `json:"posterPath,omitempty"`
	Year       int       `json:"year,omitempty"`
	Director   string    `json:"director,omitempty"`
	AddedDate  time.Time `json:"addedDate"`
	Priority   Priority  `json:"priority"`
	Notes      string    `json:"notes,omitempty"`
}

const removeRetryAttempts = 3

// Service owns watchlist state per user.
type Service struct {
	store      storage.Store
	bus        *events.Bus
	metadata   metadata.Provider
	collection *collection.Store
	logger     zerolog.Logger
}

// NewService creates a watchlist service.
func NewService(store storage.Store, bus *events.Bus, provider metadata.Provider, coll *collection.Store, logger zerolog.Logger) *Service {
	return &Service{
		store:      store,
		bus:        bus,
		metadata:   provider,
		collection: coll,
		logger:     logger.With().Str("component", "watchlist").Logger(),
	}
}

// List returns the user's watchlist ordered by priority descending, then
// add-date descending within equal priority.
func (s *Service) List(userID string) ([]Item, error) {
	items, err := s.load(userID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Priority.rank() != items[j].Priority.rank() {
			return items[i].Priority.rank() > items[j].Priority.rank()
		}
		return items[i].AddedDate.After(items[j].AddedDate)
	})
	return items, nil
}

// Add looks the movie up and queues it. Adding an id that is already queued
// fails with ErrDuplicateItem. An empty priority defaults to medium.
func (s *Service) Add(ctx context.Context, userID string, movieID int64, priority Priority, notes string) (*Item, error) {
	if priority == "" {
		priority = PriorityMedium
	}
	if !priority.valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPriority, priority)
	}

	items, err := s.load(userID)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if item.ID == movieID {
			return nil, ErrDuplicateItem
		}
	}

	movie, err := s.metadata.GetMovie(ctx, movieID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up movie %d: %w", movieID, err)
	}

	item := Item{
		ID:         movieID,
		Title:      movie.Title,
		PosterPath: movie.PosterURL,
		Year:       movie.Year,
		Director:   movie.Director,
		AddedDate:  time.Now().UTC(),
		Priority:   priority,
		Notes:      notes,
	}
	items = append(items, item)

	if err := s.persistAndNotify(userID, items); err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", userID).Int64("movie_id", movieID).Str("priority", string(priority)).Msg("added to watchlist")
	return &item, nil
}

// Remove deletes the item. Missing ids fail with ErrItemNotFound.
func (s *Service) Remove(userID string, movieID int64) error {
	items, err := s.load(userID)
	if err != nil {
		return err
	}

	idx := indexOf(items, movieID)
	if idx < 0 {
		return ErrItemNotFound
	}
	items = append(items[:idx], items[idx+1:]...)
	return s.persistAndNotify(userID, items)
}

// SetPriority changes an item's priority.
func (s *Service) SetPriority(userID string, movieID int64, priority Priority) error {
	if !priority.valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, priority)
	}
	return s.mutate(userID, movieID, func(item *Item) {
		item.Priority = priority
	})
}

// SetNotes replaces an item's notes.
func (s *Service) SetNotes(userID string, movieID int64, notes string) error {
	return s.mutate(userID, movieID, func(item *Item) {
		item.Notes = notes
	})
}

// MarkWatched promotes a queued item into the collection. The full metadata
// is fetched, a Film is built with rating zero and today's watch date, and
// the collection add runs first. The promotion succeeds once the add does:
// the subsequent watchlist removal is retried, and a removal that still
// fails is logged rather than surfaced, leaving the item queued for a later
// cleanup.
func (s *Service) MarkWatched(ctx context.Context, userID string, movieID int64) (*film.Film, error) {
	items, err := s.load(userID)
	if err != nil {
		return nil, err
	}
	if indexOf(items, movieID) < 0 {
		return nil, ErrItemNotFound
	}

	movie, err := s.metadata.GetMovie(ctx, movieID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up movie %d: %w", movieID, err)
	}

	f := film.Film{
		ID:             movieID,
		Title:          movie.Title,
		Year:           movie.Year,
		Genres:         movie.Genres,
		RuntimeMinutes: movie.RuntimeMinutes,
		Director:       movie.Director,
		Cast:           movie.Cast,
		Synopsis:       movie.Overview,
		Rating:         0,
		WatchedDate:    time.Now().UTC(),
		PosterURL:      movie.PosterURL,
	}

	added, err := s.collection.Add(userID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to promote movie %d: %w", movieID, err)
	}
	if !added {
		s.logger.Warn().Str("user_id", userID).Int64("movie_id", movieID).Msg("promoted film already in collection")
	}

	removeErr := retry.Do(
		func() error { return s.Remove(userID, movieID) },
		retry.Attempts(removeRetryAttempts),
		retry.Delay(100*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, ErrItemNotFound)
		}),
	)
	if removeErr != nil && !errors.Is(removeErr, ErrItemNotFound) {
		s.logger.Error().Err(removeErr).Str("user_id", userID).Int64("movie_id", movieID).
			Msg("film added to collection but watchlist removal failed")
	}

	s.logger.Info().Str("user_id", userID).Int64("movie_id", movieID).Msg("watchlist item marked watched")
	return &f, nil
}

// RefreshPosters re-fetches artwork for queued items that have none. It
// returns the number of items updated. Lookup failures skip the item so one
// bad id does not stall the rest of the queue.
func (s *Service) RefreshPosters(ctx context.Context, userID string) (int, error) {
	items, err := s.load(userID)
	if err != nil {
		return 0, err
	}

	updated := 0
	for i := range items {
		if items[i].PosterPath != "" && items[i].PosterPath != metadata.PosterPlaceholder {
			continue
		}
		movie, err := s.metadata.GetMovie(ctx, items[i].ID)
		if err != nil {
			s.logger.Warn().Err(err).Int64("movie_id", items[i].ID).Msg("poster refresh lookup failed")
			continue
		}
		if movie.PosterURL == "" || movie.PosterURL == items[i].PosterPath {
			continue
		}
		items[i].PosterPath = movie.PosterURL
		updated++
	}

	if updated == 0 {
		return 0, nil
	}
	if err := s.persistAndNotify(userID, items); err != nil {
		return 0, err
	}
	return updated, nil
}

func (s *Service) mutate(userID string, movieID int64, apply func(*Item)) error {
	items, err := s.load(userID)
	if err != nil {
		return err
	}

	idx := indexOf(items, movieID)
	if idx < 0 {
		return ErrItemNotFound
	}
	apply(&items[idx])
	return s.persistAndNotify(userID, items)
}

func indexOf(items []Item, movieID int64) int {
	for i, item := range items {
		if item.ID == movieID {
			return i
		}
	}
	return -1
}

func (s *Service) load(userID string) ([]Item, error) {
	data, err := s.store.Get(storage.WatchlistKey(userID))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load watchlist: %w", err)
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode watchlist: %w", err)
	}
	return items, nil
}

func (s *Service) persistAndNotify(userID string, items []Item) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode watchlist: %w", err)
	}
	if err := s.store.Set(storage.WatchlistKey(userID), data); err != nil {
		return fmt.Errorf("failed to persist watchlist: %w", err)
	}

	s.bus.Publish(events.TypeWatchlistChanged, events.WatchlistChangedPayload{
		UserID: userID,
		Items:  items,
	})
	return nil
}
