package stats

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cinelog/cinelog/internal/collection"
)

// Handlers provides HTTP handlers for the statistics dashboard.
type Handlers struct {
	aggregator *Aggregator
	collection *collection.Store
}

// NewHandlers creates new stats handlers.
func NewHandlers(aggregator *Aggregator, coll *collection.Store) *Handlers {
	return &Handlers{aggregator: aggregator, collection: coll}
}

// RegisterRoutes registers the stats routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.Dashboard)
}

// Dashboard returns the user's dashboard snapshot, computing it on demand
// when the cache is cold.
// GET /api/v1/stats
func (h *Handlers) Dashboard(c echo.Context) error {
	userID := collection.UserID(c)

	if d := h.aggregator.Snapshot(userID); d != nil {
		return c.JSON(http.StatusOK, d)
	}

	films, err := h.collection.Load(userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, h.aggregator.Refresh(c.Request().Context(), userID, films))
}
