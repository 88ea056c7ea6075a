package stats

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinelog/cinelog/internal/events"
	"github.com/cinelog/cinelog/internal/metadata/mock"
)

func testAggregatorConfig() Config {
	cfg := DefaultConfig()
	cfg.Debounce = 20 * time.Millisecond
	return cfg
}

func waitForSnapshot(t *testing.T, a *Aggregator, userID string) *Dashboard {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if d := a.Snapshot(userID); d != nil {
			return d
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("timed out waiting for dashboard snapshot")
	return nil
}

func TestAggregator_RecomputesOnCollectionChange(t *testing.T) {
	bus := events.NewBus()
	a := NewAggregator(testAggregatorConfig(), mock.NewProvider(), bus, zerolog.Nop())
	defer a.Close()

	bus.Publish(events.TypeCollectionChanged, events.CollectionChangedPayload{
		UserID: "alice",
		Films:  sampleCollection(),
	})

	d := waitForSnapshot(t, a, "alice")
	assert.Equal(t, 3, d.FilmsCount)
	assert.Equal(t, 454, d.TotalRuntimeMinutes)
}

func TestAggregator_SnapshotMissingIsNil(t *testing.T) {
	bus := events.NewBus()
	a := NewAggregator(testAggregatorConfig(), mock.NewProvider(), bus, zerolog.Nop())
	defer a.Close()

	assert.Nil(t, a.Snapshot("nobody"))
}

func TestAggregator_DebounceCoalescesBurst(t *testing.T) {
	bus := events.NewBus()
	a := NewAggregator(testAggregatorConfig(), mock.NewProvider(), bus, zerolog.Nop())
	defer a.Close()

	var updates atomic.Int32
	bus.Subscribe(events.TypeStatsUpdated, func(events.Event) { updates.Add(1) })

	films := sampleCollection()
	for i := 1; i <= len(films); i++ {
		bus.Publish(events.TypeCollectionChanged, events.CollectionChangedPayload{
			UserID: "alice",
			Films:  films[:i],
		})
	}

	d := waitForSnapshot(t, a, "alice")
	assert.Equal(t, 3, d.FilmsCount, "snapshot reflects the last event in the burst")

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), updates.Load(), "a rapid burst yields one recomputation")
}

func TestAggregator_IsolatesUsers(t *testing.T) {
	bus := events.NewBus()
	a := NewAggregator(testAggregatorConfig(), mock.NewProvider(), bus, zerolog.Nop())
	defer a.Close()

	bus.Publish(events.TypeCollectionChanged, events.CollectionChangedPayload{
		UserID: "alice",
		Films:  sampleCollection(),
	})
	bus.Publish(events.TypeCollectionChanged, events.CollectionChangedPayload{
		UserID: "bob",
		Films:  sampleCollection()[:1],
	})

	assert.Equal(t, 3, waitForSnapshot(t, a, "alice").FilmsCount)
	assert.Equal(t, 1, waitForSnapshot(t, a, "bob").FilmsCount)
}

func TestAggregator_RefreshBypassesDebounce(t *testing.T) {
	bus := events.NewBus()
	a := NewAggregator(testAggregatorConfig(), mock.NewProvider(), bus, zerolog.Nop())
	defer a.Close()

	d := a.Refresh(context.Background(), "alice", sampleCollection())

	require.NotNil(t, d)
	assert.Equal(t, 3, d.FilmsCount)
	assert.Same(t, d, a.Snapshot("alice"))
}

func TestAggregator_EnrichesPersonImages(t *testing.T) {
	bus := events.NewBus()
	images := mock.NewProvider()
	images.PersonImages["Christopher Nolan"] = "https://img.example/nolan.jpg"
	a := NewAggregator(testAggregatorConfig(), images, bus, zerolog.Nop())
	defer a.Close()

	d := a.Refresh(context.Background(), "alice", sampleCollection())

	require.NotEmpty(t, d.TopDirectors)
	assert.Equal(t, "https://img.example/nolan.jpg", d.TopDirectors[0].Image)
}

func TestAggregator_ImageLookupFailureFallsBackToPlaceholder(t *testing.T) {
	bus := events.NewBus()
	images := mock.NewProvider()
	images.Err = context.DeadlineExceeded
	a := NewAggregator(testAggregatorConfig(), images, bus, zerolog.Nop())
	defer a.Close()

	d := a.Refresh(context.Background(), "alice", sampleCollection())

	require.NotEmpty(t, d.TopDirectors)
	for _, stat := range d.TopDirectors {
		assert.NotEmpty(t, stat.Image, "failed lookups still produce a placeholder image")
	}
}

func TestAggregator_PublishesStatsUpdated(t *testing.T) {
	bus := events.NewBus()
	a := NewAggregator(testAggregatorConfig(), mock.NewProvider(), bus, zerolog.Nop())
	defer a.Close()

	done := make(chan events.StatsUpdatedPayload, 1)
	bus.Subscribe(events.TypeStatsUpdated, func(ev events.Event) {
		if payload, ok := ev.Payload.(events.StatsUpdatedPayload); ok {
			done <- payload
		}
	})

	bus.Publish(events.TypeCollectionChanged, events.CollectionChangedPayload{
		UserID: "alice",
		Films:  sampleCollection(),
	})

	select {
	case payload := <-done:
		assert.Equal(t, "alice", payload.UserID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for stats update event")
	}
}

func TestAggregator_CloseStopsRecomputation(t *testing.T) {
	bus := events.NewBus()
	a := NewAggregator(testAggregatorConfig(), mock.NewProvider(), bus, zerolog.Nop())

	bus.Publish(events.TypeCollectionChanged, events.CollectionChangedPayload{
		UserID: "alice",
		Films:  sampleCollection(),
	})
	a.Close()

	time.Sleep(100 * time.Millisecond)
	assert.Nil(t, a.Snapshot("alice"))
}

func TestAggregator_StaleResultNotOverwrittenByOlderData(t *testing.T) {
	bus := events.NewBus()
	a := NewAggregator(testAggregatorConfig(), mock.NewProvider(), bus, zerolog.Nop())
	defer a.Close()

	films := sampleCollection()
	bus.Publish(events.TypeCollectionChanged, events.CollectionChangedPayload{
		UserID: "alice",
		Films:  films[:1],
	})

	// A second change during the first debounce window supersedes it.
	time.Sleep(5 * time.Millisecond)
	bus.Publish(events.TypeCollectionChanged, events.CollectionChangedPayload{
		UserID: "alice",
		Films:  films,
	})

	d := waitForSnapshot(t, a, "alice")
	assert.Equal(t, 3, d.FilmsCount)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 3, a.Snapshot("alice").FilmsCount)
}

func TestAggregator_NilImageProviderUsesPlaceholders(t *testing.T) {
	bus := events.NewBus()
	a := NewAggregator(testAggregatorConfig(), nil, bus, zerolog.Nop())
	defer a.Close()

	d := a.Refresh(context.Background(), "alice", sampleCollection())

	require.NotEmpty(t, d.TopDirectors)
	for _, stat := range d.TopDirectors {
		assert.NotEmpty(t, stat.Image)
	}
}
