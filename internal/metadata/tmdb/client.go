package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/cinelog/cinelog/internal/config"
	"github.com/cinelog/cinelog/internal/metadata"
)

var (
	ErrAPIKeyMissing = errors.New("TMDB API key is not configured")
	ErrAPIError      = errors.New("TMDB API error")
	ErrRateLimited   = errors.New("TMDB API rate limited")
)

// maxCastEntries bounds the cast list carried into a Film.
const maxCastEntries = 10

// Client is a TMDB API client implementing metadata.Provider.
type Client struct {
	httpClient *http.Client
	config     config.TMDBConfig
	logger     zerolog.Logger
}

// NewClient creates a new TMDB client.
func NewClient(cfg config.TMDBConfig, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		config: cfg,
		logger: logger.With().Str("component", "tmdb").Logger(),
	}
}

// IsConfigured returns true if the API key is set.
func (c *Client) IsConfigured() bool {
	return c.config.APIKey != ""
}

// SearchMovies searches for movies by title.
func (c *Client) SearchMovies(ctx context.Context, query string) ([]metadata.MovieSummary, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	endpoint := fmt.Sprintf("%s/search/movie", c.config.BaseURL)
	params := url.Values{}
	params.Set("api_key", c.config.APIKey)
	params.Set("query", query)
	params.Set("include_adult", "false")

	var response SearchMoviesResponse
	if err := c.doRequest(ctx, endpoint, params, &response); err != nil {
		return nil, err
	}

	results := make([]metadata.MovieSummary, len(response.Results))
	for i, movie := range response.Results {
		results[i] = c.toSummary(movie)
	}

	c.logger.Debug().
		Str("query", query).
		Int("results", len(results)).
		Msg("Movie search completed")

	return results, nil
}

// GetMovie gets detailed movie info by TMDB ID, including credits.
func (c *Client) GetMovie(ctx context.Context, id int64) (*metadata.MovieMetadata, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	endpoint := fmt.Sprintf("%s/movie/%d", c.config.BaseURL, id)
	params := url.Values{}
	params.Set("api_key", c.config.APIKey)
	params.Set("append_to_response", "credits")

	var details MovieDetails
	if err := c.doRequest(ctx, endpoint, params, &details); err != nil {
		return nil, err
	}

	result := c.detailsToMetadata(details)

	c.logger.Debug().
		Int64("id", id).
		Str("title", result.Title).
		Msg("Got movie details")

	return result, nil
}

// GetPersonImage returns a portrait URL for a person, searched by name.
// A person without a profile photo resolves to the placeholder.
func (c *Client) GetPersonImage(ctx context.Context, name string) (string, error) {
	if !c.IsConfigured() {
		return "", ErrAPIKeyMissing
	}

	endpoint := fmt.Sprintf("%s/search/person", c.config.BaseURL)
	params := url.Values{}
	params.Set("api_key", c.config.APIKey)
	params.Set("query", name)

	var response SearchPersonResponse
	if err := c.doRequest(ctx, endpoint, params, &response); err != nil {
		return "", err
	}

	if len(response.Results) == 0 || response.Results[0].ProfilePath == nil {
		return metadata.PersonImagePlaceholder, nil
	}
	return c.imageURL(*response.Results[0].ProfilePath, "w185"), nil
}

// imageURL returns a full image URL for a given path and size.
// Size options: "w92", "w154", "w185", "w342", "w500", "w780", "original"
func (c *Client) imageURL(path string, size string) string {
	if path == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s%s", c.config.ImageBaseURL, size, path)
}

// doRequest performs an HTTP GET request and decodes the JSON response.
func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	reqURL := endpoint
	if len(params) > 0 {
		reqURL = fmt.Sprintf("%s?%s", endpoint, params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("url", endpoint).Msg("HTTP request failed")
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			c.logger.Error().
				Int("status", resp.StatusCode).
				Str("message", errResp.StatusMessage).
				Msg("TMDB API error")
		}

		switch resp.StatusCode {
		case http.StatusNotFound:
			return metadata.ErrNotFound
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: invalid API key", ErrAPIError)
		case http.StatusTooManyRequests:
			return ErrRateLimited
		default:
			return fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// toSummary converts a TMDB search result to a boundary MovieSummary.
func (c *Client) toSummary(movie MovieResult) metadata.MovieSummary {
	year := 0
	if len(movie.ReleaseDate) >= 4 {
		year, _ = strconv.Atoi(movie.ReleaseDate[:4])
	}

	summary := metadata.MovieSummary{
		ID:       movie.ID,
		Title:    movie.Title,
		Year:     year,
		Overview: movie.Overview,
	}
	if movie.PosterPath != nil {
		summary.PosterURL = c.imageURL(*movie.PosterPath, "w500")
	}
	return summary
}

// detailsToMetadata converts TMDB movie details to boundary MovieMetadata,
// filling defaults for optional fields.
func (c *Client) detailsToMetadata(details MovieDetails) *metadata.MovieMetadata {
	year := 0
	if len(details.ReleaseDate) >= 4 {
		year, _ = strconv.Atoi(details.ReleaseDate[:4])
	}

	genres := make([]string, len(details.Genres))
	for i, g := range details.Genres {
		genres[i] = g.Name
	}

	cast := make([]string, 0, maxCastEntries)
	for _, member := range details.Credits.Cast {
		if len(cast) >= maxCastEntries {
			break
		}
		cast = append(cast, member.Name)
	}

	director := ""
	for _, member := range details.Credits.Crew {
		if member.Job == "Director" {
			director = member.Name
			break
		}
	}

	result := &metadata.MovieMetadata{
		ID:             details.ID,
		Title:          details.Title,
		Overview:       details.Overview,
		ReleaseDate:    details.ReleaseDate,
		Year:           year,
		RuntimeMinutes: details.Runtime,
		PosterURL:      metadata.PosterPlaceholder,
		Genres:         genres,
		Director:       director,
		Cast:           cast,
	}
	if details.PosterPath != nil {
		result.PosterURL = c.imageURL(*details.PosterPath, "w500")
	}

	return result
}
