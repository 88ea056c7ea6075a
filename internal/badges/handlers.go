package badges

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cinelog/cinelog/internal/collection"
)

// Handlers provides HTTP handlers for badge progress.
type Handlers struct {
	tracker *Tracker
}

// NewHandlers creates new badge handlers.
func NewHandlers(tracker *Tracker) *Handlers {
	return &Handlers{tracker: tracker}
}

// RegisterRoutes registers the badge routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
}

// List returns the full catalogue with the user's progress.
// GET /api/v1/badges
func (h *Handlers) List(c echo.Context) error {
	statuses, err := h.tracker.Statuses(collection.UserID(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, statuses)
}
