// Package badges evaluates achievement progress against a fixed catalogue of
// milestone rules. Progress recomputes from the live collection on every
// change, but completion is a one-way latch: once unlocked a badge stays
// unlocked even if the supporting films are later deleted.
package badges

import (
	"strings"
	"time"

	"github.com/cinelog/cinelog/internal/film"
)

// Category groups badges for display.
type Category string

const (
	CategoryCollection Category = "collection"
	CategoryGenres     Category = "genres"
	CategorySpecial    Category = "special"
)

// Badge is one catalogue entry. Requirement is the progress value at which
// the badge unlocks.
type Badge struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Icon        string   `json:"icon"`
	Requirement int      `json:"requirement"`
	Category    Category `json:"category"`

	metric func(films []film.Film) int
}

// nightOwlCutoffHour bounds the late-night window. Entries logged with a
// date only carry a midnight timestamp and do not count.
const nightOwlCutoffHour = 6

// Catalogue is the fixed badge set. Order is the display order.
var Catalogue = []Badge{
	{
		ID:          "first_movie",
		Name:        "First Steps",
		Description: "Log your first film",
		Icon:        "🎬",
		Requirement: 1,
		Category:    CategoryCollection,
		metric:      filmCount,
	},
	{
		ID:          "movie_collector_bronze",
		Name:        "Bronze Collector",
		Description: "Log 25 films",
		Icon:        "🥉",
		Requirement: 25,
		Category:    CategoryCollection,
		metric:      filmCount,
	},
	{
		ID:          "movie_collector_silver",
		Name:        "Silver Collector",
		Description: "Log 50 films",
		Icon:        "🥈",
		Requirement: 50,
		Category:    CategoryCollection,
		metric:      filmCount,
	},
	{
		ID:          "movie_collector_gold",
		Name:        "Gold Collector",
		Description: "Log 100 films",
		Icon:        "🥇",
		Requirement: 100,
		Category:    CategoryCollection,
		metric:      filmCount,
	},
	{
		ID:          "horror_fan",
		Name:        "Horror Fan",
		Description: "Watch 10 horror films",
		Icon:        "👻",
		Requirement: 10,
		Category:    CategoryGenres,
		metric:      genreCount("Horror"),
	},
	{
		ID:          "action_hero",
		Name:        "Action Hero",
		Description: "Watch 20 action films",
		Icon:        "💪",
		Requirement: 20,
		Category:    CategoryGenres,
		metric:      genreCount("Action"),
	},
	{
		ID:          "romantic_soul",
		Name:        "Romantic Soul",
		Description: "Watch 15 romance films",
		Icon:        "❤️",
		Requirement: 15,
		Category:    CategoryGenres,
		metric:      genreCount("Romance"),
	},
	{
		ID:          "marathon_master",
		Name:        "Marathon Master",
		Description: "Watch 5 films in a single day",
		Icon:        "⚡",
		Requirement: 5,
		Category:    CategorySpecial,
		metric:      maxFilmsInOneDay,
	},
	{
		ID:          "night_owl",
		Name:        "Night Owl",
		Description: "Watch a film after midnight",
		Icon:        "🦉",
		Requirement: 1,
		Category:    CategorySpecial,
		metric:      postMidnightCount,
	},
}

// Find returns the catalogue entry with the given id.
func Find(id string) (Badge, bool) {
	for _, b := range Catalogue {
		if b.ID == id {
			return b, true
		}
	}
	return Badge{}, false
}

func filmCount(films []film.Film) int { return len(films) }

func genreCount(genre string) func([]film.Film) int {
	return func(films []film.Film) int {
		count := 0
		for _, f := range films {
			for _, g := range f.Genres {
				if strings.EqualFold(g, genre) {
					count++
					break
				}
			}
		}
		return count
	}
}

func maxFilmsInOneDay(films []film.Film) int {
	perDay := make(map[string]int)
	max := 0
	for _, f := range films {
		if f.WatchedDate.IsZero() {
			continue
		}
		day := f.WatchedDate.Format(time.DateOnly)
		perDay[day]++
		if perDay[day] > max {
			max = perDay[day]
		}
	}
	return max
}

func postMidnightCount(films []film.Film) int {
	count := 0
	for _, f := range films {
		if f.WatchedDate.IsZero() {
			continue
		}
		hour, minute, _ := f.WatchedDate.Clock()
		if hour == 0 && minute == 0 {
			continue
		}
		if hour < nightOwlCutoffHour {
			count++
		}
	}
	return count
}
