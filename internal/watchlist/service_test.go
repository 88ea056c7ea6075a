package watchlist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/cinelog/cinelog/internal/collection"
	"github.com/cinelog/cinelog/internal/events"
	"github.com/cinelog/cinelog/internal/metadata"
	"github.com/cinelog/cinelog/internal/metadata/mock"
	"github.com/cinelog/cinelog/internal/storage"
)

type fixture struct {
	service    *Service
	collection *collection.Store
	provider   *mock.Provider
	store      *storage.MemoryStore
	bus        *events.Bus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := storage.NewMemoryStore()
	t.Cleanup(func() { mem.Close() })

	bus := events.NewBus()
	provider := mock.NewProvider()
	coll := collection.NewStore(mem, bus, zerolog.Nop())
	return &fixture{
		service:    NewService(mem, bus, provider, coll, zerolog.Nop()),
		collection: coll,
		provider:   provider,
		store:      mem,
		bus:        bus,
	}
}

func seedMovie(f *fixture, id int64, title string) {
	f.provider.AddMovie(&metadata.MovieMetadata{
		ID:             id,
		Title:          title,
		Year:           2014,
		RuntimeMinutes: 169,
		Genres:         []string{"SciFi"},
		Director:       "Christopher Nolan",
		Cast:           []string{"Matthew McConaughey"},
		PosterURL:      "https://img.example/poster.jpg",
	})
}

func TestAdd_QueuesItemWithMetadata(t *testing.T) {
	f := newFixture(t)
	seedMovie(f, 157336, "Interstellar")

	item, err := f.service.Add(context.Background(), "alice", 157336, PriorityHigh, "rewatch in IMAX")
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if item.Title != "Interstellar" || item.Director != "Christopher Nolan" {
		t.Errorf("item = %+v, metadata not applied", item)
	}
	if item.Priority != PriorityHigh || item.Notes != "rewatch in IMAX" {
		t.Errorf("item = %+v, want high priority with notes", item)
	}
}

func TestAdd_DefaultsToMediumPriority(t *testing.T) {
	f := newFixture(t)
	seedMovie(f, 1, "Some Film")

	item, err := f.service.Add(context.Background(), "alice", 1, "", "")
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if item.Priority != PriorityMedium {
		t.Errorf("Priority = %q, want medium default", item.Priority)
	}
}

func TestAdd_RejectsDuplicateID(t *testing.T) {
	f := newFixture(t)
	seedMovie(f, 1, "Some Film")

	if _, err := f.service.Add(context.Background(), "alice", 1, PriorityLow, ""); err != nil {
		t.Fatalf("first Add() error = %v", err)
	}
	if _, err := f.service.Add(context.Background(), "alice", 1, PriorityHigh, ""); !errors.Is(err, ErrDuplicateItem) {
		t.Errorf("second Add() error = %v, want ErrDuplicateItem", err)
	}

	items, err := f.service.List("alice")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(items) != 1 {
		t.Errorf("got %d items, want 1", len(items))
	}
}

func TestAdd_RejectsUnknownPriority(t *testing.T) {
	f := newFixture(t)
	seedMovie(f, 1, "Some Film")

	if _, err := f.service.Add(context.Background(), "alice", 1, "urgent", ""); !errors.Is(err, ErrInvalidPriority) {
		t.Errorf("Add() error = %v, want ErrInvalidPriority", err)
	}
}

func TestAdd_LookupFailureSurfaces(t *testing.T) {
	f := newFixture(t)
	f.provider.Err = metadata.ErrLookupFailed

	if _, err := f.service.Add(context.Background(), "alice", 1, "", ""); !errors.Is(err, metadata.ErrLookupFailed) {
		t.Errorf("Add() error = %v, want ErrLookupFailed", err)
	}
}

func TestList_OrdersByPriorityThenRecency(t *testing.T) {
	f := newFixture(t)
	for id := int64(1); id <= 4; id++ {
		seedMovie(f, id, "Film")
	}

	// Queue in mixed order, spacing add times apart.
	add := func(id int64, p Priority) {
		if _, err := f.service.Add(context.Background(), "alice", id, p, ""); err != nil {
			t.Fatalf("Add(%d) error = %v", id, err)
		}
		time.Sleep(2 * time.Millisecond)
	}
	add(1, PriorityLow)
	add(2, PriorityHigh)
	add(3, PriorityMedium)
	add(4, PriorityHigh)

	items, err := f.service.List("alice")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	var got []int64
	for _, item := range items {
		got = append(got, item.ID)
	}
	want := []int64{4, 2, 3, 1} // high (newest first), medium, low
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestRemove_MissingFails(t *testing.T) {
	f := newFixture(t)

	if err := f.service.Remove("alice", 404); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("Remove() error = %v, want ErrItemNotFound", err)
	}
}

func TestSetPriorityAndNotes(t *testing.T) {
	f := newFixture(t)
	seedMovie(f, 1, "Some Film")
	if _, err := f.service.Add(context.Background(), "alice", 1, PriorityLow, ""); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if err := f.service.SetPriority("alice", 1, PriorityHigh); err != nil {
		t.Fatalf("SetPriority() error = %v", err)
	}
	if err := f.service.SetNotes("alice", 1, "tonight"); err != nil {
		t.Fatalf("SetNotes() error = %v", err)
	}

	items, err := f.service.List("alice")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if items[0].Priority != PriorityHigh || items[0].Notes != "tonight" {
		t.Errorf("item = %+v, want high priority and updated notes", items[0])
	}

	if err := f.service.SetPriority("alice", 404, PriorityLow); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("SetPriority(missing) error = %v, want ErrItemNotFound", err)
	}
}

func TestMarkWatched_PromotesIntoCollectionThenRemoves(t *testing.T) {
	f := newFixture(t)
	seedMovie(f, 7, "Seven Samurai")
	if _, err := f.service.Add(context.Background(), "alice", 7, PriorityHigh, ""); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	// Record the causal order of the notification cascade.
	var sequence []events.Type
	f.bus.SubscribeAll(func(ev events.Event) {
		sequence = append(sequence, ev.Type)
	})

	promoted, err := f.service.MarkWatched(context.Background(), "alice", 7)
	if err != nil {
		t.Fatalf("MarkWatched() error = %v", err)
	}
	if promoted.ID != 7 || promoted.Rating != 0 {
		t.Errorf("promoted = %+v, want id 7 with zero rating", promoted)
	}
	if promoted.WatchedDate.IsZero() {
		t.Error("promoted film has no watched date")
	}

	films, err := f.collection.Load("alice")
	if err != nil {
		t.Fatalf("collection Load() error = %v", err)
	}
	if len(films) != 1 || films[0].ID != 7 {
		t.Errorf("collection = %+v, want the promoted film", films)
	}

	items, err := f.service.List("alice")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(items) != 0 {
		t.Errorf("watchlist = %+v, want empty after promotion", items)
	}

	// Collection change precedes the watchlist change.
	var collIdx, wlIdx = -1, -1
	for i, typ := range sequence {
		if typ == events.TypeCollectionChanged && collIdx < 0 {
			collIdx = i
		}
		if typ == events.TypeWatchlistChanged && wlIdx < 0 {
			wlIdx = i
		}
	}
	if collIdx < 0 || wlIdx < 0 || collIdx > wlIdx {
		t.Errorf("event order = %v, want collection change before watchlist change", sequence)
	}
}

func TestMarkWatched_MissingItemFails(t *testing.T) {
	f := newFixture(t)

	if _, err := f.service.MarkWatched(context.Background(), "alice", 404); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("MarkWatched() error = %v, want ErrItemNotFound", err)
	}
}

func TestMarkWatched_RemovalFailureDoesNotSurface(t *testing.T) {
	f := newFixture(t)
	seedMovie(f, 7, "Seven Samurai")
	if _, err := f.service.Add(context.Background(), "alice", 7, PriorityHigh, ""); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	// Separate store for the collection so only watchlist writes fail.
	collStore := storage.NewMemoryStore()
	defer collStore.Close()
	f.service.collection = collection.NewStore(collStore, f.bus, zerolog.Nop())
	f.store.FailSet = true

	promoted, err := f.service.MarkWatched(context.Background(), "alice", 7)
	if err != nil {
		t.Fatalf("MarkWatched() error = %v, removal failure must not surface", err)
	}
	if promoted == nil || promoted.ID != 7 {
		t.Errorf("promoted = %+v, want film 7", promoted)
	}

	// The item is still queued; a later pass can clean it up.
	f.store.FailSet = false
	items, err := f.service.List("alice")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(items) != 1 {
		t.Errorf("watchlist = %+v, want item retained after failed removal", items)
	}
}
