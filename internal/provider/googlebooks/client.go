// Package googlebooks queries the Google Books volumes API for import candidates.
package googlebooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"bookstore/internal/types"
)

const DefaultBaseURL = "https://www.googleapis.com/books/v1"

type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	// RPS limits outgoing requests; zero or less disables limiting.
	RPS float64
	// Backoff is the delay before the first retry, doubled on each following one.
	Backoff time.Duration
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
	logger     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), 1)
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		limiter:    limiter,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.Backoff,
		logger:     logger,
	}
}

type volumesResponse struct {
	TotalItems int      `json:"totalItems"`
	Items      []volume `json:"items"`
}

type volume struct {
	Id         string `json:"id"`
	VolumeInfo struct {
		Title         string   `json:"title"`
		Authors       []string `json:"authors"`
		PublishedDate string   `json:"publishedDate"`
		ImageLinks    *struct {
			Thumbnail string `json:"thumbnail"`
		} `json:"imageLinks"`
	} `json:"volumeInfo"`
}

// SearchByAuthor returns the volumes matching "<authors> inauthor:<authors>". Missing fields are
// left empty; deciding whether a candidate is usable is up to the caller.
func (c *Client) SearchByAuthor(ctx context.Context, authors string) ([]types.Candidate, error) {
	params := url.Values{}
	params.Set("q", authors+" inauthor:"+authors)
	params.Set("projection", "lite")
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	u := c.baseURL + "/volumes?" + params.Encode()

	c.logger.DebugContext(ctx, "searching Google Books", slog.String("authors", authors))

	var res volumesResponse
	if err := c.get(ctx, u, &res); err != nil {
		return nil, fmt.Errorf("google books search for %q: %w", authors, err)
	}

	candidates := make([]types.Candidate, 0, len(res.Items))
	for _, item := range res.Items {
		cand := types.Candidate{
			ExternalId:    item.Id,
			Title:         item.VolumeInfo.Title,
			Authors:       item.VolumeInfo.Authors,
			PublishedDate: item.VolumeInfo.PublishedDate,
		}
		if item.VolumeInfo.ImageLinks != nil {
			cand.Thumbnail = item.VolumeInfo.ImageLinks.Thumbnail
		}

		candidates = append(candidates, cand)
	}

	c.logger.DebugContext(ctx, "Google Books search done",
		slog.String("authors", authors),
		slog.Int("total_items", res.TotalItems),
		slog.Int("returned", len(candidates)),
	)

	return candidates, nil
}

var errRetryable = errors.New("retryable")

func (c *Client) get(ctx context.Context, u string, target any) error {
	var lastErr error
	for i := 0; i <= c.maxRetries; i++ {
		if i > 0 {
			backoff := c.backoff * time.Duration(1<<uint(i-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := c.try(ctx, u, target)
		if err == nil {
			return nil
		}
		if !errors.Is(err, errRetryable) {
			return err
		}

		lastErr = err
		c.logger.WarnContext(ctx, "Google Books request failed, will retry",
			slog.Int("attempt", i+1), slog.String("error", err.Error()))
	}

	return fmt.Errorf("after %d retries: %w", c.maxRetries, lastErr)
}

func (c *Client) try(ctx context.Context, u string, target any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %w", errRetryable, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, res.Body)
		err := fmt.Errorf("unexpected status code: %d", res.StatusCode)
		if res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= 500 {
			return fmt.Errorf("%w: %w", errRetryable, err)
		}
		return err
	}

	if err := json.NewDecoder(res.Body).Decode(target); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}
