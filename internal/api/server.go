// Package api assembles the HTTP surface of the application.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/cinelog/cinelog/internal/badges"
	"github.com/cinelog/cinelog/internal/collection"
	"github.com/cinelog/cinelog/internal/config"
	"github.com/cinelog/cinelog/internal/events"
	"github.com/cinelog/cinelog/internal/metadata"
	"github.com/cinelog/cinelog/internal/metadata/tmdb"
	"github.com/cinelog/cinelog/internal/stats"
	"github.com/cinelog/cinelog/internal/storage"
	"github.com/cinelog/cinelog/internal/watchlist"
	"github.com/cinelog/cinelog/internal/websocket"
)

// Server handles HTTP requests for the CineLog API.
type Server struct {
	echo   *echo.Echo
	store  storage.Store
	bus    *events.Bus
	hub    *websocket.Hub
	logger zerolog.Logger
	cfg    *config.Config

	// Services
	metadataService  *metadata.Service
	collectionStore  *collection.Store
	statsAggregator  *stats.Aggregator
	badgeTracker     *badges.Tracker
	watchlistService *watchlist.Service
}

// NewServer creates a new API server instance and wires the services.
func NewServer(store storage.Store, bus *events.Bus, hub *websocket.Hub, cfg *config.Config, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:   e,
		store:  store,
		bus:    bus,
		hub:    hub,
		logger: logger,
		cfg:    cfg,
	}

	tmdbClient := tmdb.NewClient(cfg.TMDB, logger)
	cache := metadata.NewCache(metadata.CacheConfig{})
	s.metadataService = metadata.NewService(tmdbClient, cache, logger)

	s.collectionStore = collection.NewStore(store, bus, logger)

	statsCfg := stats.Config{
		TopFilms:   cfg.Stats.TopFilms,
		TopPeople:  cfg.Stats.TopPeople,
		YearWindow: cfg.Stats.YearWindow,
		Debounce:   time.Duration(cfg.Stats.DebounceMs) * time.Millisecond,
	}
	s.statsAggregator = stats.NewAggregator(statsCfg, s.metadataService, bus, logger)

	s.badgeTracker = badges.NewTracker(store, bus, logger)
	s.watchlistService = watchlist.NewService(store, bus, s.metadataService, s.collectionStore, logger)

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures Echo middleware.
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())
	s.echo.Use(middleware.BodyLimit("2M"))

	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogMethod:   true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Err(v.Error).
					Msg("request error")
			} else {
				s.logger.Info().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Msg("request")
			}
			return nil
		},
	}))

	s.echo.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			// Skip compression for WebSocket
			return c.Request().Header.Get("Upgrade") == "websocket"
		},
	}))
}

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)

	api := s.echo.Group("/api/v1")
	api.GET("/status", s.getStatus)

	collection.NewHandlers(s.collectionStore).RegisterRoutes(api.Group("/collection"))
	stats.NewHandlers(s.statsAggregator, s.collectionStore).RegisterRoutes(api.Group("/stats"))
	badges.NewHandlers(s.badgeTracker).RegisterRoutes(api.Group("/badges"))
	watchlist.NewHandlers(s.watchlistService).RegisterRoutes(api.Group("/watchlist"))
	metadata.NewHandlers(s.metadataService).RegisterRoutes(api.Group("/metadata"))

	s.echo.GET("/ws", s.hub.HandleWebSocket)
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"version": config.Version,
		"clients": s.hub.ClientCount(),
	})
}

// WatchlistService exposes the watchlist service for background tasks.
func (s *Server) WatchlistService() *watchlist.Service {
	return s.watchlistService
}

// Start begins listening on the given address.
func (s *Server) Start(address string) error {
	s.logger.Info().Str("address", address).Msg("starting HTTP server")
	return s.echo.Start(address)
}

// Shutdown gracefully stops the server and detaches the derived-state
// subscribers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")
	s.statsAggregator.Close()
	s.badgeTracker.Close()
	return s.echo.Shutdown(ctx)
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
