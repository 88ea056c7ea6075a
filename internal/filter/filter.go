// Package filter derives a filtered, ordered view of a film collection.
// Apply is a pure function: it never mutates its input and always works from
// the unfiltered collection, so stale-filter composition bugs cannot occur.
package filter

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/cinelog/cinelog/internal/film"
)

// SortKey selects the ordering of the derived view.
type SortKey string

const (
	SortWatchedDesc SortKey = "date-desc"
	SortWatchedAsc  SortKey = "date-asc"
	SortTitleAsc    SortKey = "title-asc"
	SortTitleDesc   SortKey = "title-desc"
	SortRatingDesc  SortKey = "rating-desc"
	SortRatingAsc   SortKey = "rating-asc"
	SortYearDesc    SortKey = "year-desc"
	SortYearAsc     SortKey = "year-asc"
	SortRuntimeDesc SortKey = "runtime-desc"
	SortRuntimeAsc  SortKey = "runtime-asc"
)

// DefaultSort is most-recently-watched first.
const DefaultSort = SortWatchedDesc

// State describes the active filters and sort. Zero values impose no
// constraint; an empty Sort falls back to DefaultSort.
type State struct {
	Platform string  `json:"platform,omitempty"`
	Genre    string  `json:"genre,omitempty"`
	YearMin  int     `json:"yearMin,omitempty"`
	YearMax  int     `json:"yearMax,omitempty"`
	Sort     SortKey `json:"sort,omitempty"`
}

// collator performs locale-aware title comparison.
var collator = collate.New(language.Und)

// Apply returns the films matching every active predicate, ordered by the
// sort key. Ties keep the input order (the sort is stable).
func Apply(films []film.Film, state State) []film.Film {
	out := make([]film.Film, 0, len(films))
	for _, f := range films {
		if matches(f, state) {
			out = append(out, f)
		}
	}

	sortKey := state.Sort
	if sortKey == "" {
		sortKey = DefaultSort
	}
	sort.SliceStable(out, less(out, sortKey))

	return out
}

// matches reports whether a film satisfies every active predicate.
func matches(f film.Film, state State) bool {
	if state.Platform != "" && f.Platform != state.Platform {
		return false
	}
	if state.Genre != "" && !f.HasGenre(state.Genre) {
		return false
	}
	if state.YearMin != 0 && f.Year < state.YearMin {
		return false
	}
	if state.YearMax != 0 && f.Year > state.YearMax {
		return false
	}
	return true
}

func less(films []film.Film, key SortKey) func(i, j int) bool {
	switch key {
	case SortWatchedAsc:
		return func(i, j int) bool { return films[i].WatchedDate.Before(films[j].WatchedDate) }
	case SortWatchedDesc:
		return func(i, j int) bool { return films[j].WatchedDate.Before(films[i].WatchedDate) }
	case SortTitleAsc:
		return func(i, j int) bool { return collator.CompareString(films[i].Title, films[j].Title) < 0 }
	case SortTitleDesc:
		return func(i, j int) bool { return collator.CompareString(films[j].Title, films[i].Title) < 0 }
	case SortRatingAsc:
		return func(i, j int) bool { return films[i].Rating < films[j].Rating }
	case SortRatingDesc:
		return func(i, j int) bool { return films[j].Rating < films[i].Rating }
	case SortYearAsc:
		return func(i, j int) bool { return films[i].Year < films[j].Year }
	case SortYearDesc:
		return func(i, j int) bool { return films[j].Year < films[i].Year }
	case SortRuntimeAsc:
		return func(i, j int) bool { return films[i].RuntimeMinutes < films[j].RuntimeMinutes }
	case SortRuntimeDesc:
		return func(i, j int) bool { return films[j].RuntimeMinutes < films[i].RuntimeMinutes }
	default:
		return func(i, j int) bool { return films[j].WatchedDate.Before(films[i].WatchedDate) }
	}
}
