package stats

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/cinelog/cinelog/internal/film"
)

// Compute derives the full dashboard from a film slice. It is a pure
// function of its input: no filtering is applied inside, so callers choose
// the scope they want aggregated. An empty input yields a zero-valued
// dashboard, never an error.
func Compute(films []film.Film, cfg Config) *Dashboard {
	return computeAt(films, cfg, time.Now())
}

func computeAt(films []film.Film, cfg Config, now time.Time) *Dashboard {
	d := &Dashboard{
		FilmsCount:    len(films),
		YearlyStats:   yearlyStats(films, cfg.YearWindow, now),
		TopDirectors:  topPeople(films, directorNames, cfg.TopPeople),
		TopActors:     topPeople(films, castNames, cfg.TopPeople),
		GenreStats:    categoryStats(films, genreLabels),
		PlatformStats: categoryStats(films, platformLabels),
		TopRatedFilms: topRated(films, cfg.TopFilms),
		Records:       runtimeRecords(films),
	}

	totalMinutes := 0
	totalRating := 0.0
	for _, f := range films {
		totalMinutes += f.RuntimeMinutes
		totalRating += f.Rating
	}
	d.TotalRuntimeMinutes = totalMinutes
	d.TotalTime = TimeTotals{
		Hours: math.Round(float64(totalMinutes)/60*10) / 10,
		Days:  math.Round(float64(totalMinutes)/(60*24)*100) / 100,
	}
	if len(films) > 0 {
		d.AverageRating = math.Round(totalRating/float64(len(films))*10) / 10
	}

	return d
}

func directorNames(f film.Film) []string {
	if f.Director == "" {
		return nil
	}
	return []string{f.Director}
}

func castNames(f film.Film) []string { return f.Cast }

func genreLabels(f film.Film) []string { return f.Genres }

func platformLabels(f film.Film) []string {
	if f.Platform == "" {
		return nil
	}
	return []string{f.Platform}
}

// topPeople counts occurrences (each credit counts once per film it appears
// on) and returns the top-N. Ties keep first-encountered order.
func topPeople(films []film.Film, names func(film.Film) []string, limit int) []PersonStat {
	counts := make(map[string]int)
	var order []string

	for _, f := range films {
		for _, name := range names(f) {
			if name == "" {
				continue
			}
			if _, seen := counts[name]; !seen {
				order = append(order, name)
			}
			counts[name]++
		}
	}

	ranked := make([]PersonStat, len(order))
	for i, name := range order {
		ranked[i] = PersonStat{Name: name, Count: counts[name]}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// categoryStats computes a breakdown where a film contributes once to each
// of its labels and once per label to the shared denominator. Percentages
// are rounded to the nearest integer.
func categoryStats(films []film.Film, labels func(film.Film) []string) []CategoryStat {
	counts := make(map[string]int)
	var order []string
	total := 0

	for _, f := range films {
		for _, label := range labels(f) {
			if _, seen := counts[label]; !seen {
				order = append(order, label)
			}
			counts[label]++
			total++
		}
	}

	out := make([]CategoryStat, len(order))
	for i, label := range order {
		out[i] = CategoryStat{
			Name:       label,
			Count:      counts[label],
			Percentage: int(math.Round(float64(counts[label]) / float64(total) * 100)),
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

// yearlyStats buckets films by watch year over a trailing window ending at
// the current year. Years with no entries stay present with count 0.
func yearlyStats(films []film.Film, window int, now time.Time) []YearlyStat {
	currentYear := now.Year()
	counts := make(map[int]int, window)
	for year := currentYear; year > currentYear-window; year-- {
		counts[year] = 0
	}

	for _, f := range films {
		if f.WatchedDate.IsZero() {
			continue
		}
		year := f.WatchedDate.Year()
		if _, inWindow := counts[year]; inWindow {
			counts[year]++
		}
	}

	maxCount := 0
	for _, count := range counts {
		if count > maxCount {
			maxCount = count
		}
	}

	out := make([]YearlyStat, 0, window)
	for year := currentYear; year > currentYear-window; year-- {
		height := "0%"
		if maxCount > 0 {
			height = fmt.Sprintf("%d%%", int(math.Round(float64(counts[year])/float64(maxCount)*100)))
		}
		out = append(out, YearlyStat{Year: year, Count: counts[year], Height: height})
	}
	return out
}

// topRated returns the limit highest-rated films, ties in input order.
func topRated(films []film.Film, limit int) []film.Film {
	out := make([]film.Film, len(films))
	copy(out, films)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Rating > out[j].Rating
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// runtimeRecords finds the shortest and longest films among those with a
// positive runtime, falling back to the empty-record sentinel.
func runtimeRecords(films []film.Film) Records {
	sentinel := film.Film{Title: EmptyRecordTitle}
	records := Records{Shortest: sentinel, Longest: sentinel}

	found := false
	for _, f := range films {
		if f.RuntimeMinutes <= 0 {
			continue
		}
		if !found {
			records.Shortest = f
			records.Longest = f
			found = true
			continue
		}
		if f.RuntimeMinutes < records.Shortest.RuntimeMinutes {
			records.Shortest = f
		}
		if f.RuntimeMinutes > records.Longest.RuntimeMinutes {
			records.Longest = f
		}
	}
	return records
}
