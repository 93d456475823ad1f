// Package directory provides the client for the provider directory's
// synchronous nearby-providers query.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/handyhub/quotehub/internal/matching"
	"github.com/handyhub/quotehub/internal/types"
)

// DefaultTimeout bounds the nearby-providers lookup. The whole match for a
// job fails on timeout and is retried by redelivery of the triggering
// signal, never by an in-process retry loop.
const DefaultTimeout = 5 * time.Second

// Options contains configuration options for the directory client
type Options struct {
	// BaseURL is the base URL of the provider directory
	BaseURL string

	// Timeout is the request timeout
	Timeout time.Duration
}

// Client queries the provider directory. It implements matching.ProviderSource.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ matching.ProviderSource = (*Client)(nil)

// NewClient creates a new directory client with the given options
func NewClient(opts *Options) (*Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("directory client options are required")
	}
	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    opts.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Nearby performs the nearby-providers query. Any transport or non-200
// outcome is reported as ServiceUnavailable so the caller aborts the match
// instead of silently inviting a partial set.
func (c *Client) Nearby(ctx context.Context, query matching.NearbyQuery) ([]matching.CandidateProvider, error) {
	endpoint := fmt.Sprintf("%s/providers/nearby", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build nearby request: %w", err)
	}

	params := req.URL.Query()
	params.Set("category", query.Category)
	params.Set("lat", strconv.FormatFloat(query.Lat, 'f', -1, 64))
	params.Set("lng", strconv.FormatFloat(query.Lng, 'f', -1, 64))
	params.Set("radius", strconv.FormatFloat(query.RadiusKm, 'f', -1, 64))
	params.Set("limit", strconv.Itoa(query.Limit))
	params.Set("min_rating", strconv.FormatFloat(query.MinRating, 'f', -1, 64))
	req.URL.RawQuery = params.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, types.WrapError(types.KindServiceUnavailable, "provider directory is unreachable", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, types.NewErrorf(types.KindServiceUnavailable,
			"provider directory returned status %d", resp.StatusCode)
	}

	var candidates []matching.CandidateProvider
	if err := json.NewDecoder(resp.Body).Decode(&candidates); err != nil {
		return nil, types.WrapError(types.KindServiceUnavailable, "provider directory returned an unreadable response", err)
	}
	return candidates, nil
}
