package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinelog/cinelog/internal/film"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func watched(date string) time.Time {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return t
}

func sampleCollection() []film.Film {
	return []film.Film{
		{Title: "Inception", Year: 2010, Rating: 9, RuntimeMinutes: 148, WatchedDate: watched("2024-01-01"), Genres: []string{"SciFi"}, Director: "Christopher Nolan", Platform: "Netflix"},
		{Title: "The Dark Knight", Year: 2008, Rating: 10, RuntimeMinutes: 152, WatchedDate: watched("2024-01-02"), Genres: []string{"Action"}, Director: "Christopher Nolan", Platform: "Blu-ray"},
		{Title: "The Shawshank Redemption", Year: 1994, Rating: 8, RuntimeMinutes: 154, WatchedDate: watched("2024-01-03"), Genres: []string{"Drama"}, Director: "Frank Darabont", Platform: "Netflix"},
	}
}

func TestCompute_Totals(t *testing.T) {
	d := computeAt(sampleCollection(), DefaultConfig(), testNow)

	assert.Equal(t, 3, d.FilmsCount)
	assert.Equal(t, 454, d.TotalRuntimeMinutes)
	assert.Equal(t, 9.0, d.AverageRating)
	require.NotEmpty(t, d.TopRatedFilms)
	assert.Equal(t, 10.0, d.TopRatedFilms[0].Rating)
}

func TestCompute_TimeTotals(t *testing.T) {
	d := computeAt(sampleCollection(), DefaultConfig(), testNow)

	// 454 minutes is 7.5666... hours and 0.31527... days.
	assert.Equal(t, 7.6, d.TotalTime.Hours)
	assert.Equal(t, 0.32, d.TotalTime.Days)
}

func TestCompute_AverageRatingRounding(t *testing.T) {
	films := []film.Film{
		{Title: "A", Year: 2020, Rating: 7, RuntimeMinutes: 100, WatchedDate: watched("2024-01-01")},
		{Title: "B", Year: 2020, Rating: 8, RuntimeMinutes: 100, WatchedDate: watched("2024-01-02")},
		{Title: "C", Year: 2020, Rating: 8, RuntimeMinutes: 100, WatchedDate: watched("2024-01-03")},
	}

	d := computeAt(films, DefaultConfig(), testNow)

	// 23/3 = 7.666... rounds to 7.7 at one decimal.
	assert.Equal(t, 7.7, d.AverageRating)
}

func TestCompute_TopDirectors(t *testing.T) {
	d := computeAt(sampleCollection(), DefaultConfig(), testNow)

	require.NotEmpty(t, d.TopDirectors)
	assert.Equal(t, PersonStat{Name: "Christopher Nolan", Count: 2}, d.TopDirectors[0])
}

func TestCompute_TopPeopleTiesKeepFirstEncounterOrder(t *testing.T) {
	films := []film.Film{
		{Title: "A", Year: 2020, RuntimeMinutes: 100, Director: "Villeneuve", WatchedDate: watched("2024-01-01")},
		{Title: "B", Year: 2021, RuntimeMinutes: 100, Director: "Kurosawa", WatchedDate: watched("2024-01-02")},
		{Title: "C", Year: 2022, RuntimeMinutes: 100, Director: "Villeneuve", WatchedDate: watched("2024-01-03")},
		{Title: "D", Year: 2023, RuntimeMinutes: 100, Director: "Kurosawa", WatchedDate: watched("2024-01-04")},
	}

	d := computeAt(films, DefaultConfig(), testNow)

	require.Len(t, d.TopDirectors, 2)
	assert.Equal(t, "Villeneuve", d.TopDirectors[0].Name)
	assert.Equal(t, "Kurosawa", d.TopDirectors[1].Name)
}

func TestCompute_TopActorsCountOncePerFilm(t *testing.T) {
	films := []film.Film{
		{Title: "A", Year: 2020, RuntimeMinutes: 100, Cast: []string{"DiCaprio", "Hardy"}, WatchedDate: watched("2024-01-01")},
		{Title: "B", Year: 2021, RuntimeMinutes: 100, Cast: []string{"DiCaprio"}, WatchedDate: watched("2024-01-02")},
	}

	d := computeAt(films, DefaultConfig(), testNow)

	require.Len(t, d.TopActors, 2)
	assert.Equal(t, PersonStat{Name: "DiCaprio", Count: 2}, d.TopActors[0])
	assert.Equal(t, PersonStat{Name: "Hardy", Count: 1}, d.TopActors[1])
}

func TestCompute_TopRatedTruncatesAndKeepsTieOrder(t *testing.T) {
	films := []film.Film{
		{Title: "First Nine", Year: 2018, Rating: 9, RuntimeMinutes: 100, WatchedDate: watched("2024-01-01")},
		{Title: "Ten", Year: 2019, Rating: 10, RuntimeMinutes: 100, WatchedDate: watched("2024-01-02")},
		{Title: "Second Nine", Year: 2020, Rating: 9, RuntimeMinutes: 100, WatchedDate: watched("2024-01-03")},
	}
	cfg := DefaultConfig()
	cfg.TopFilms = 2

	d := computeAt(films, cfg, testNow)

	require.Len(t, d.TopRatedFilms, 2)
	assert.Equal(t, "Ten", d.TopRatedFilms[0].Title)
	assert.Equal(t, "First Nine", d.TopRatedFilms[1].Title)
}

func TestCompute_GenrePercentagesUseOccurrenceTotal(t *testing.T) {
	films := []film.Film{
		{Title: "A", Year: 2020, RuntimeMinutes: 100, Genres: []string{"Action", "SciFi"}, WatchedDate: watched("2024-01-01")},
		{Title: "B", Year: 2021, RuntimeMinutes: 100, Genres: []string{"Action"}, WatchedDate: watched("2024-01-02")},
	}

	d := computeAt(films, DefaultConfig(), testNow)

	require.Len(t, d.GenreStats, 2)
	// Three genre occurrences total: Action 2/3, SciFi 1/3.
	assert.Equal(t, CategoryStat{Name: "Action", Count: 2, Percentage: 67}, d.GenreStats[0])
	assert.Equal(t, CategoryStat{Name: "SciFi", Count: 1, Percentage: 33}, d.GenreStats[1])
}

func TestCompute_PlatformStats(t *testing.T) {
	d := computeAt(sampleCollection(), DefaultConfig(), testNow)

	require.Len(t, d.PlatformStats, 2)
	assert.Equal(t, CategoryStat{Name: "Netflix", Count: 2, Percentage: 67}, d.PlatformStats[0])
}

func TestCompute_YearlyHistogramWindow(t *testing.T) {
	films := []film.Film{
		{Title: "A", Year: 2020, RuntimeMinutes: 100, WatchedDate: watched("2024-03-01")},
		{Title: "B", Year: 2020, RuntimeMinutes: 100, WatchedDate: watched("2024-04-01")},
		{Title: "C", Year: 2019, RuntimeMinutes: 100, WatchedDate: watched("2022-05-01")},
		{Title: "D", Year: 2015, RuntimeMinutes: 100, WatchedDate: watched("2015-06-01")}, // outside window
	}

	d := computeAt(films, DefaultConfig(), testNow)

	require.Len(t, d.YearlyStats, 5)
	assert.Equal(t, YearlyStat{Year: 2024, Count: 2, Height: "100%"}, d.YearlyStats[0])
	assert.Equal(t, YearlyStat{Year: 2023, Count: 0, Height: "0%"}, d.YearlyStats[1])
	assert.Equal(t, YearlyStat{Year: 2022, Count: 1, Height: "50%"}, d.YearlyStats[2])
	assert.Equal(t, YearlyStat{Year: 2021, Count: 0, Height: "0%"}, d.YearlyStats[3])
	assert.Equal(t, YearlyStat{Year: 2020, Count: 0, Height: "0%"}, d.YearlyStats[4])
}

func TestCompute_Records(t *testing.T) {
	d := computeAt(sampleCollection(), DefaultConfig(), testNow)

	assert.Equal(t, "Inception", d.Records.Shortest.Title)
	assert.Equal(t, "The Shawshank Redemption", d.Records.Longest.Title)
}

func TestCompute_RecordsSkipZeroRuntime(t *testing.T) {
	films := []film.Film{
		{Title: "Unknown Runtime", Year: 2020, RuntimeMinutes: 0, WatchedDate: watched("2024-01-01")},
		{Title: "Short", Year: 2021, RuntimeMinutes: 80, WatchedDate: watched("2024-01-02")},
	}

	d := computeAt(films, DefaultConfig(), testNow)

	assert.Equal(t, "Short", d.Records.Shortest.Title)
	assert.Equal(t, "Short", d.Records.Longest.Title)
}

func TestCompute_EmptyCollection(t *testing.T) {
	d := computeAt(nil, DefaultConfig(), testNow)

	assert.Equal(t, 0, d.FilmsCount)
	assert.Equal(t, 0, d.TotalRuntimeMinutes)
	assert.Equal(t, 0.0, d.AverageRating)
	assert.Equal(t, TimeTotals{}, d.TotalTime)
	assert.Empty(t, d.TopDirectors)
	assert.Empty(t, d.TopActors)
	assert.Empty(t, d.GenreStats)
	assert.Empty(t, d.TopRatedFilms)
	assert.Equal(t, EmptyRecordTitle, d.Records.Shortest.Title)
	assert.Equal(t, EmptyRecordTitle, d.Records.Longest.Title)

	require.Len(t, d.YearlyStats, 5, "empty collection still gets a populated histogram")
	for _, bucket := range d.YearlyStats {
		assert.Equal(t, 0, bucket.Count)
		assert.Equal(t, "0%", bucket.Height)
	}
}

func TestCompute_DoesNotMutateInput(t *testing.T) {
	films := sampleCollection()
	computeAt(films, DefaultConfig(), testNow)

	assert.Equal(t, sampleCollection(), films)
}
