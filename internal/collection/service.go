package collection

import (
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/cinelog/cinelog/internal/events"
	"github.com/cinelog/cinelog/internal/film"
	"github.com/cinelog/cinelog/internal/storage"
)

var (
	ErrFilmNotFound = errors.New("film not found")
)

// Store owns the authoritative per-user film collection. Every mutation
// validates, persists the full collection, and publishes CollectionChanged
// synchronously before returning, in that order; a failed persist leaves the
// stored state untouched and publishes nothing.
type Store struct {
	store  storage.Store
	bus    *events.Bus
	logger zerolog.Logger
}

// NewStore creates a collection store.
func NewStore(store storage.Store, bus *events.Bus, logger zerolog.Logger) *Store {
	return &Store{
		store:  store,
		bus:    bus,
		logger: logger.With().Str("component", "collection").Logger(),
	}
}

// Load returns the persisted collection for a user. A missing key is a valid
// empty collection, not an error.
func (s *Store) Load(userID string) ([]film.Film, error) {
	data, err := s.store.Get(storage.CollectionKey(userID))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return []film.Film{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load collection: %w", err)
	}

	var films []film.Film
	if err := json.Unmarshal(data, &films); err != nil {
		return nil, fmt.Errorf("failed to decode collection: %w", err)
	}
	return films, nil
}

// Add appends a film to the user's collection. It returns false without
// mutation when a film with the same title, director and year already exists
// (case-insensitively).
func (s *Store) Add(userID string, f film.Film) (bool, error) {
	if err := film.Validate(f); err != nil {
		return false, err
	}

	films, err := s.Load(userID)
	if err != nil {
		return false, err
	}

	for _, existing := range films {
		if isDuplicate(existing, f) {
			s.logger.Debug().
				Str("userId", userID).
				Str("title", f.Title).
				Msg("Rejected duplicate film")
			return false, nil
		}
	}

	films = append(films, f)
	if err := s.persistAndNotify(userID, films); err != nil {
		return false, err
	}

	s.logger.Info().
		Str("userId", userID).
		Int64("id", f.ID).
		Str("title", f.Title).
		Msg("Added film")
	return true, nil
}

// UpdateInput contains the fields editable after a film has been logged.
// Title, year and the other metadata fields are locked post-creation.
type UpdateInput struct {
	Rating      *float64 `json:"rating,omitempty"`
	WatchedDate *string  `json:"watchedDate,omitempty"` // YYYY-MM-DD
	Platform    *string  `json:"platform,omitempty"`
}

// Update applies the editable fields to the film matching id. It fails with
// ErrFilmNotFound when no such film exists.
func (s *Store) Update(userID string, id int64, input UpdateInput) (*film.Film, error) {
	films, err := s.Load(userID)
	if err != nil {
		return nil, err
	}

	idx := indexOf(films, id)
	if idx < 0 {
		return nil, ErrFilmNotFound
	}

	updated := films[idx]
	if input.Rating != nil {
		updated.Rating = *input.Rating
	}
	if input.WatchedDate != nil {
		watched, err := parseDate(*input.WatchedDate)
		if err != nil {
			return nil, err
		}
		updated.WatchedDate = watched
	}
	if input.Platform != nil {
		updated.Platform = *input.Platform
	}

	if err := film.Validate(updated); err != nil {
		return nil, err
	}

	films[idx] = updated
	if err := s.persistAndNotify(userID, films); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("userId", userID).
		Int64("id", id).
		Msg("Updated film")
	return &updated, nil
}

// Remove deletes the film matching id. It fails with ErrFilmNotFound when no
// such film exists.
func (s *Store) Remove(userID string, id int64) error {
	films, err := s.Load(userID)
	if err != nil {
		return err
	}

	idx := indexOf(films, id)
	if idx < 0 {
		return ErrFilmNotFound
	}

	films = append(films[:idx], films[idx+1:]...)
	if err := s.persistAndNotify(userID, films); err != nil {
		return err
	}

	s.logger.Info().
		Str("userId", userID).
		Int64("id", id).
		Msg("Removed film")
	return nil
}

// persistAndNotify writes the full collection, then publishes the change.
// The publish happens only after the write succeeds, so subscribers never
// observe uncommitted state.
func (s *Store) persistAndNotify(userID string, films []film.Film) error {
	data, err := json.Marshal(films)
	if err != nil {
		return fmt.Errorf("failed to encode collection: %w", err)
	}
	if err := s.store.Set(storage.CollectionKey(userID), data); err != nil {
		return fmt.Errorf("failed to persist collection: %w", err)
	}

	s.bus.Publish(events.TypeCollectionChanged, events.CollectionChangedPayload{
		UserID: userID,
		Films:  films,
	})
	return nil
}

// isDuplicate matches films by title, director and year, case-insensitively.
func isDuplicate(a, b film.Film) bool {
	return strings.EqualFold(a.Title, b.Title) &&
		strings.EqualFold(a.Director, b.Director) &&
		a.Year == b.Year
}

func parseDate(s string) (time.Time, error) {
	watched, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, &film.ValidationError{Field: "WatchedDate", Reason: "must be a YYYY-MM-DD date"}
	}
	return watched, nil
}

func indexOf(films []film.Film, id int64) int {
	for i, f := range films {
		if f.ID == id {
			return i
		}
	}
	return -1
}
