// Package tasks contains the scheduled maintenance jobs.
package tasks

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cinelog/cinelog/internal/storage"
	"github.com/cinelog/cinelog/internal/watchlist"
)

// PosterRefreshTask re-fetches missing watchlist artwork for every user.
// Items added while the metadata provider only had partial data pick up
// their posters on the next run.
type PosterRefreshTask struct {
	store     storage.Store
	watchlist *watchlist.Service
	logger    zerolog.Logger
}

// NewPosterRefreshTask creates a new poster refresh task.
func NewPosterRefreshTask(store storage.Store, wl *watchlist.Service, logger zerolog.Logger) *PosterRefreshTask {
	return &PosterRefreshTask{
		store:     store,
		watchlist: wl,
		logger:    logger.With().Str("task", "poster-refresh").Logger(),
	}
}

// Run refreshes posters across all stored watchlists.
func (t *PosterRefreshTask) Run(ctx context.Context) error {
	keys, err := t.store.List(storage.WatchlistPrefix())
	if err != nil {
		t.logger.Error().Err(err).Msg("Failed to enumerate watchlists")
		return err
	}
	if len(keys) == 0 {
		t.logger.Debug().Msg("No watchlists stored, nothing to refresh")
		return nil
	}

	updated := 0
	var lastErr error
	for _, key := range keys {
		userID := strings.TrimPrefix(key, storage.WatchlistPrefix())
		n, err := t.watchlist.RefreshPosters(ctx, userID)
		if err != nil {
			t.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to refresh posters")
			lastErr = err
			continue
		}
		updated += n
	}

	t.logger.Info().Int("users", len(keys)).Int("updated", updated).Msg("Poster refresh completed")
	return lastErr
}
