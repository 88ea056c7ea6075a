package badges

import (
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/cinelog/cinelog/internal/events"
	"github.com/cinelog/cinelog/internal/film"
	"github.com/cinelog/cinelog/internal/storage"
)

// Progress is the persisted state of one (user, badge) pair.
type Progress struct {
	UserID        string     `json:"userId"`
	BadgeID       string     `json:"badgeId"`
	Progress      int        `json:"progress"`
	Completed     bool       `json:"completed"`
	CompletedDate *time.Time `json:"completedDate,omitempty"`
}

// Status joins a catalogue entry with the user's progress toward it.
type Status struct {
	Badge    Badge    `json:"badge"`
	Progress Progress `json:"progress"`
}

// Tracker maintains per-user badge progress. It listens for collection
// changes and re-evaluates the whole catalogue on each one.
type Tracker struct {
	store       storage.Store
	bus         *events.Bus
	logger      zerolog.Logger
	unsubscribe func()
}

// NewTracker creates a tracker and subscribes it to collection changes.
func NewTracker(store storage.Store, bus *events.Bus, logger zerolog.Logger) *Tracker {
	t := &Tracker{
		store:  store,
		bus:    bus,
		logger: logger.With().Str("component", "badges").Logger(),
	}
	t.unsubscribe = bus.Subscribe(events.TypeCollectionChanged, t.onCollectionChanged)
	return t
}

// Close detaches the tracker from the bus.
func (t *Tracker) Close() {
	if t.unsubscribe != nil {
		t.unsubscribe()
	}
}

func (t *Tracker) onCollectionChanged(ev events.Event) {
	payload, ok := ev.Payload.(events.CollectionChangedPayload)
	if !ok {
		t.logger.Warn().Str("event_id", ev.ID).Msg("unexpected collection payload type")
		return
	}
	if err := t.CheckAndUpdate(payload.UserID, payload.Films); err != nil {
		t.logger.Error().Err(err).Str("user_id", payload.UserID).Msg("failed to update badge progress")
	}
}

// CheckAndUpdate recomputes every badge's progress from the full collection,
// persists the table, and publishes an unlock event for each badge that
// completes in this pass. Already-completed badges keep their completion
// state and date even when the recomputed progress drops below the
// requirement.
func (t *Tracker) CheckAndUpdate(userID string, films []film.Film) error {
	table, err := t.load(userID)
	if err != nil {
		return err
	}

	var unlocked []Badge
	for _, badge := range Catalogue {
		entry, ok := table[badge.ID]
		if !ok {
			entry = Progress{UserID: userID, BadgeID: badge.ID}
		}

		value := badge.metric(films)
		if value > badge.Requirement {
			value = badge.Requirement
		}
		entry.Progress = value

		if !entry.Completed && value >= badge.Requirement {
			now := time.Now().UTC()
			entry.Completed = true
			entry.CompletedDate = &now
			unlocked = append(unlocked, badge)
		}

		table[badge.ID] = entry
	}

	if err := t.save(userID, table); err != nil {
		return err
	}

	for _, badge := range unlocked {
		t.logger.Info().Str("user_id", userID).Str("badge_id", badge.ID).Msg("badge unlocked")
		t.bus.Publish(events.TypeBadgeUnlocked, events.BadgeUnlockedPayload{
			UserID:    userID,
			BadgeID:   badge.ID,
			BadgeName: badge.Name,
			Icon:      badge.Icon,
		})
	}
	return nil
}

// Statuses returns the full catalogue with the user's progress, in catalogue
// order. Users with no history get zero progress on every badge.
func (t *Tracker) Statuses(userID string) ([]Status, error) {
	table, err := t.load(userID)
	if err != nil {
		return nil, err
	}

	out := make([]Status, 0, len(Catalogue))
	for _, badge := range Catalogue {
		entry, ok := table[badge.ID]
		if !ok {
			entry = Progress{UserID: userID, BadgeID: badge.ID}
		}
		out = append(out, Status{Badge: badge, Progress: entry})
	}
	return out, nil
}

func (t *Tracker) load(userID string) (map[string]Progress, error) {
	data, err := t.store.Get(storage.BadgesKey(userID))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return make(map[string]Progress), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load badge progress: %w", err)
	}

	var table map[string]Progress
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to decode badge progress: %w", err)
	}
	return table, nil
}

func (t *Tracker) save(userID string, table map[string]Progress) error {
	data, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("failed to encode badge progress: %w", err)
	}
	if err := t.store.Set(storage.BadgesKey(userID), data); err != nil {
		return fmt.Errorf("failed to persist badge progress: %w", err)
	}
	return nil
}
