package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/duowatch/duowatch/internal/config"
)

const defaultBaseURL = "https://api.themoviedb.org/3"

// Fixed TTLs per endpoint kind
const (
	searchTTL = 10 * time.Minute
	detailTTL = 6 * time.Hour
	configTTL = 24 * time.Hour
)

// Client handles communication with the TMDB API. Every call consults the
// in-memory TTL cache before going upstream.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	cache      *gocache.Cache
	logger     *logrus.Logger
}

// NewClient creates a new TMDB client
func NewClient(cfg *config.Config, logger *logrus.Logger) (*Client, error) {
	if cfg.TMDBAPIKey == "" {
		return nil, fmt.Errorf("TMDB API key is required")
	}

	return &Client{
		apiKey:  cfg.TMDBAPIKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		cache:  gocache.New(searchTTL, 30*time.Minute),
		logger: logger,
	}, nil
}

// get performs a GET request and decodes the JSON response into result.
// Upstream failures come back as typed *Error values.
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	apiURL, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("invalid catalog URL: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	apiURL.RawQuery = params.Encode()

	c.logger.WithFields(logrus.Fields{
		"path": path,
	}).Debug("Performing TMDB request")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return &Error{Kind: KindTimeout}
		}
		return &Error{Kind: KindUnavailable}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &Error{Kind: KindRateLimited, Status: resp.StatusCode}
	case resp.StatusCode == http.StatusNotFound:
		return &Error{Kind: KindNotFound, Status: resp.StatusCode}
	case resp.StatusCode == http.StatusGatewayTimeout:
		return &Error{Kind: KindTimeout, Status: resp.StatusCode}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		c.logger.WithField("status_code", resp.StatusCode).Warn("TMDB returned non-OK status")
		return &Error{Kind: KindUnavailable, Status: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode TMDB response: %w", err)
	}

	return nil
}

// isTimeout reports whether a transport-level error was a timeout
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
