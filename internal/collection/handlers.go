package collection

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/cinelog/cinelog/internal/film"
	"github.com/cinelog/cinelog/internal/filter"
)

// Handlers provides HTTP handlers for collection operations.
type Handlers struct {
	store *Store
}

// NewHandlers creates new collection handlers.
func NewHandlers(store *Store) *Handlers {
	return &Handlers{store: store}
}

// RegisterRoutes registers the collection routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

// UserID resolves the collection owner from the request. A missing param
// falls back to the single-user default.
func UserID(c echo.Context) string {
	if id := c.QueryParam("userId"); id != "" {
		return id
	}
	return "default"
}

// List returns the user's collection, filtered and sorted per query params.
// GET /api/v1/collection
func (h *Handlers) List(c echo.Context) error {
	films, err := h.store.Load(UserID(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	state := filter.State{
		Platform: c.QueryParam("platform"),
		Genre:    c.QueryParam("genre"),
		Sort:     filter.SortKey(c.QueryParam("sort")),
	}
	if v := c.QueryParam("yearMin"); v != "" {
		state.YearMin, _ = strconv.Atoi(v)
	}
	if v := c.QueryParam("yearMax"); v != "" {
		state.YearMax, _ = strconv.Atoi(v)
	}

	return c.JSON(http.StatusOK, filter.Apply(films, state))
}

// Create adds a film to the collection.
// POST /api/v1/collection
func (h *Handlers) Create(c echo.Context) error {
	var f film.Film
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	added, err := h.store.Add(UserID(c), f)
	if err != nil {
		if errors.Is(err, film.ErrInvalidFilm) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !added {
		return echo.NewHTTPError(http.StatusConflict, "film already in collection")
	}
	return c.JSON(http.StatusCreated, f)
}

// Update edits the editable fields of an entry.
// PUT /api/v1/collection/:id
func (h *Handlers) Update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var input UpdateInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	updated, err := h.store.Update(UserID(c), id, input)
	if err != nil {
		switch {
		case errors.Is(err, ErrFilmNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, film.ErrInvalidFilm):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete removes an entry.
// DELETE /api/v1/collection/:id
func (h *Handlers) Delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.store.Remove(UserID(c), id); err != nil {
		if errors.Is(err, ErrFilmNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
