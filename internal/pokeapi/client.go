// Package pokeapi is a read-only client for the PokeAPI pokemon endpoints.
// Every call is a single attempt: no retries, no backoff.
package pokeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fleveque/poke-finder/internal/model"
)

const (
	// DefaultBaseURL is the pokemon collection root.
	DefaultBaseURL = "https://pokeapi.co/api/v2/pokemon"
	// DefaultIndexLimit is large enough to return every species in one page.
	DefaultIndexLimit = 1010

	userAgent = "poke-finder/1.0"
)

// Client issues GET requests against PokeAPI and decodes the JSON bodies.
type Client struct {
	baseURL    string
	indexLimit int
	client     *http.Client
	logger     *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client (tests, custom transports).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithIndexLimit overrides the page size used by ListAll.
func WithIndexLimit(limit int) Option {
	return func(c *Client) {
		if limit > 0 {
			c.indexLimit = limit
		}
	}
}

// NewClient creates a client for the given base URL. A zero timeout means the
// request waits as long as the server does.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		indexLimit: DefaultIndexLimit,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the collection root requests are built from.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListAll fetches the full name index in a single page.
func (c *Client) ListAll(ctx context.Context) ([]model.NamedResource, error) {
	u := fmt.Sprintf("%s/?limit=%d", c.baseURL, c.indexLimit)

	var page model.ListResponse
	if err := c.getJSON(ctx, u, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}

// ListRange fetches count entries starting at the 1-based id start.
func (c *Client) ListRange(ctx context.Context, start, count int) ([]model.NamedResource, error) {
	if start < 1 {
		return nil, fmt.Errorf("list range start must be >= 1, got %d", start)
	}
	if count < 0 {
		return nil, fmt.Errorf("list range count must be >= 0, got %d", count)
	}
	u := fmt.Sprintf("%s/?offset=%d&limit=%d", c.baseURL, start-1, count)

	var page model.ListResponse
	if err := c.getJSON(ctx, u, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}

// GetEntity looks a Pokémon up by name, case-insensitively. An empty name
// returns (nil, nil) without touching the network.
func (c *Client) GetEntity(ctx context.Context, name string) (*model.EntityDetail, error) {
	name = NormalizeName(name)
	if name == "" {
		return nil, nil
	}
	u := c.baseURL + "/" + url.PathEscape(name)

	var detail model.EntityDetail
	err := c.getJSON(ctx, u, &detail)
	if IsNotFound(err) {
		return nil, &NotFoundError{Resource: "pokemon", Name: name}
	}
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// GetSpecies fetches the species record at an absolute URL taken from an
// EntityDetail. An empty URL returns (nil, nil).
func (c *Client) GetSpecies(ctx context.Context, speciesURL string) (*model.SpeciesDetail, error) {
	if speciesURL == "" {
		return nil, nil
	}

	var species model.SpeciesDetail
	if err := c.getJSON(ctx, speciesURL, &species); err != nil {
		return nil, err
	}
	return &species, nil
}

// NormalizeName is the canonical form of a lookup name.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (c *Client) getJSON(ctx context.Context, u string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &NetworkError{URL: u, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("pokeapi request", zap.String("url", u))

	resp, err := c.client.Do(req)
	if err != nil {
		return &NetworkError{URL: u, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return &NetworkError{URL: u, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return &NetworkError{URL: u, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}
