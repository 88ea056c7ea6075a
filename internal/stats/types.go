package stats

import (
	"time"

	"github.com/cinelog/cinelog/internal/film"
)

// EmptyRecordTitle marks the shortest/longest record sentinel used when no
// film has a usable runtime.
const EmptyRecordTitle = "No films"

// Config holds the aggregation constants. Top-N truncation and the yearly
// window are configuration, not per-call-site values.
type Config struct {
	TopFilms   int
	TopPeople  int
	YearWindow int
	Debounce   time.Duration
}

// DefaultConfig returns the stock dashboard configuration.
func DefaultConfig() Config {
	return Config{
		TopFilms:   5,
		TopPeople:  5,
		YearWindow: 5,
		Debounce:   300 * time.Millisecond,
	}
}

// PersonStat is one row of a top-directors or top-actors ranking.
type PersonStat struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	Image string `json:"image,omitempty"`
}

// CategoryStat is one row of a genre or platform breakdown.
type CategoryStat struct {
	Name       string `json:"name"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// YearlyStat is one bucket of the watch-year histogram. Height is the bar
// height as a percentage of the fullest bucket, e.g. "75%".
type YearlyStat struct {
	Year   int    `json:"year"`
	Count  int    `json:"count"`
	Height string `json:"height"`
}

// TimeTotals breaks the total watch time into display units.
type TimeTotals struct {
	Hours float64 `json:"hours"`
	Days  float64 `json:"days"`
}

// Records holds the extremal runtime entries. When no film qualifies both
// carry the EmptyRecordTitle sentinel.
type Records struct {
	Shortest film.Film `json:"shortest"`
	Longest  film.Film `json:"longest"`
}

// Dashboard is the derived statistics view of one user's collection. It is
// recomputed, never stored.
type Dashboard struct {
	FilmsCount          int            `json:"filmsCount"`
	TotalRuntimeMinutes int            `json:"totalRuntimeMinutes"`
	TotalTime           TimeTotals     `json:"totalTime"`
	AverageRating       float64        `json:"averageRating"`
	YearlyStats         []YearlyStat   `json:"yearlyStats"`
	TopDirectors        []PersonStat   `json:"topDirectors"`
	TopActors           []PersonStat   `json:"topActors"`
	GenreStats          []CategoryStat `json:"genreStats"`
	PlatformStats       []CategoryStat `json:"platformStats"`
	TopRatedFilms       []film.Film    `json:"topRatedFilms"`
	Records             Records        `json:"records"`
}
