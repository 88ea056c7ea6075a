package watchlist

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/cinelog/cinelog/internal/collection"
	"github.com/cinelog/cinelog/internal/metadata"
)

// Handlers provides HTTP handlers for watchlist operations.
type Handlers struct {
	service *Service
}

// NewHandlers creates new watchlist handlers.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers the watchlist routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Add)
	g.DELETE("/:id", h.Remove)
	g.PUT("/:id/priority", h.SetPriority)
	g.PUT("/:id/notes", h.SetNotes)
	g.POST("/:id/watched", h.MarkWatched)
}

// AddInput is the request body for queuing a film.
type AddInput struct {
	MovieID  int64    `json:"movieId"`
	Priority Priority `json:"priority,omitempty"`
	Notes    string   `json:"notes,omitempty"`
}

// List returns the user's watchlist in display order.
// GET /api/v1/watchlist
func (h *Handlers) List(c echo.Context) error {
	items, err := h.service.List(collection.UserID(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

// Add queues a film.
// POST /api/v1/watchlist
func (h *Handlers) Add(c echo.Context) error {
	var input AddInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	item, err := h.service.Add(c.Request().Context(), collection.UserID(c), input.MovieID, input.Priority, input.Notes)
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateItem):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, ErrInvalidPriority):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, metadata.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, metadata.ErrLookupFailed):
			return echo.NewHTTPError(http.StatusBadGateway, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusCreated, item)
}

// Remove deletes an item.
// DELETE /api/v1/watchlist/:id
func (h *Handlers) Remove(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.service.Remove(collection.UserID(c), id); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// SetPriority changes an item's priority.
// PUT /api/v1/watchlist/:id/priority
func (h *Handlers) SetPriority(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var input struct {
		Priority Priority `json:"priority"`
	}
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.service.SetPriority(collection.UserID(c), id, input.Priority); err != nil {
		switch {
		case errors.Is(err, ErrItemNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrInvalidPriority):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// SetNotes replaces an item's notes.
// PUT /api/v1/watchlist/:id/notes
func (h *Handlers) SetNotes(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var input struct {
		Notes string `json:"notes"`
	}
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.service.SetNotes(collection.UserID(c), id, input.Notes); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// MarkWatched promotes an item into the collection.
// POST /api/v1/watchlist/:id/watched
func (h *Handlers) MarkWatched(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	promoted, err := h.service.MarkWatched(c.Request().Context(), collection.UserID(c), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrItemNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, metadata.ErrLookupFailed):
			return echo.NewHTTPError(http.StatusBadGateway, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, promoted)
}
