package stats

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"github.com/cinelog/cinelog/internal/events"
	"github.com/cinelog/cinelog/internal/film"
	"github.com/cinelog/cinelog/internal/metadata"
)

const enrichTimeout = 10 * time.Second

// Aggregator keeps a per-user dashboard snapshot up to date. It listens for
// collection changes, debounces bursts of edits, recomputes off the calling
// goroutine, and swaps in the finished snapshot atomically. Readers always
// see either the previous complete dashboard or the new one, never a
// half-built state.
type Aggregator struct {
	cfg    Config
	images metadata.Provider
	bus    *events.Bus
	logger zerolog.Logger

	mu          sync.Mutex
	snapshots   map[string]*Dashboard
	latest      map[string][]film.Film
	timers      map[string]*time.Timer
	generations map[string]uint64

	unsubscribe func()
}

// NewAggregator creates an aggregator and subscribes it to collection
// changes on the bus. A nil image provider disables person-image
// enrichment.
func NewAggregator(cfg Config, images metadata.Provider, bus *events.Bus, logger zerolog.Logger) *Aggregator {
	a := &Aggregator{
		cfg:         cfg,
		images:      images,
		bus:         bus,
		logger:      logger.With().Str("component", "stats").Logger(),
		snapshots:   make(map[string]*Dashboard),
		latest:      make(map[string][]film.Film),
		timers:      make(map[string]*time.Timer),
		generations: make(map[string]uint64),
	}
	a.unsubscribe = bus.Subscribe(events.TypeCollectionChanged, a.onCollectionChanged)
	return a
}

// Close detaches the aggregator from the bus and cancels pending
// recomputations.
func (a *Aggregator) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for userID, timer := range a.timers {
		timer.Stop()
		delete(a.timers, userID)
	}
	// Invalidate passes already off the timer so they discard their result.
	for userID := range a.generations {
		a.generations[userID]++
	}
}

// Snapshot returns the latest complete dashboard for the user, or nil when
// none has been computed yet.
func (a *Aggregator) Snapshot(userID string) *Dashboard {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshots[userID]
}

// Refresh recomputes the user's dashboard from the given films immediately,
// bypassing the debounce. Handlers use it on a cold cache.
func (a *Aggregator) Refresh(ctx context.Context, userID string, films []film.Film) *Dashboard {
	a.mu.Lock()
	a.generations[userID]++
	gen := a.generations[userID]
	a.latest[userID] = films
	if timer, ok := a.timers[userID]; ok {
		timer.Stop()
		delete(a.timers, userID)
	}
	a.mu.Unlock()

	d := Compute(films, a.cfg)
	a.enrich(ctx, d)
	a.store(userID, gen, d)
	return d
}

func (a *Aggregator) onCollectionChanged(ev events.Event) {
	payload, ok := ev.Payload.(events.CollectionChangedPayload)
	if !ok {
		a.logger.Warn().Str("event_id", ev.ID).Msg("unexpected collection payload type")
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	userID := payload.UserID
	a.latest[userID] = payload.Films
	a.generations[userID]++
	gen := a.generations[userID]

	if timer, ok := a.timers[userID]; ok {
		timer.Stop()
	}
	a.timers[userID] = time.AfterFunc(a.cfg.Debounce, func() {
		a.recompute(userID, gen)
	})
}

// recompute runs one debounced aggregation pass. The generation captured at
// scheduling time guards the result: if another change arrived while this
// pass was running, the result is stale and is discarded without being
// published.
func (a *Aggregator) recompute(userID string, gen uint64) {
	a.mu.Lock()
	if a.generations[userID] != gen {
		a.mu.Unlock()
		return
	}
	films := a.latest[userID]
	a.mu.Unlock()

	d := Compute(films, a.cfg)

	ctx, cancel := context.WithTimeout(context.Background(), enrichTimeout)
	defer cancel()
	a.enrich(ctx, d)

	a.store(userID, gen, d)
}

// store publishes the snapshot unless it was superseded while computing.
func (a *Aggregator) store(userID string, gen uint64, d *Dashboard) {
	a.mu.Lock()
	if a.generations[userID] != gen {
		a.mu.Unlock()
		return
	}
	a.snapshots[userID] = d
	delete(a.timers, userID)
	a.mu.Unlock()

	a.logger.Debug().Str("user_id", userID).Int("films", d.FilmsCount).Msg("dashboard snapshot updated")
	a.bus.Publish(events.TypeStatsUpdated, events.StatsUpdatedPayload{UserID: userID})
}

// enrich resolves person images for the top rankings. Lookups run
// concurrently and a failed lookup falls back to the placeholder so a flaky
// image source never blocks or degrades the dashboard itself.
func (a *Aggregator) enrich(ctx context.Context, d *Dashboard) {
	if a.images == nil {
		for i := range d.TopDirectors {
			d.TopDirectors[i].Image = metadata.PersonImagePlaceholder
		}
		for i := range d.TopActors {
			d.TopActors[i].Image = metadata.PersonImagePlaceholder
		}
		return
	}

	p := pool.New().WithMaxGoroutines(4)
	for _, ranking := range [][]PersonStat{d.TopDirectors, d.TopActors} {
		for i := range ranking {
			stat := &ranking[i]
			p.Go(func() {
				image, err := a.images.GetPersonImage(ctx, stat.Name)
				if err != nil || image == "" {
					a.logger.Debug().Err(err).Str("person", stat.Name).Msg("person image lookup failed, using placeholder")
					stat.Image = metadata.PersonImagePlaceholder
					return
				}
				stat.Image = image
			})
		}
	}
	p.Wait()
}
