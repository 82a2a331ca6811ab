// Package fetch retrieves raw listing collections from the portal backends.
//
// The collection endpoints return the full published set in one response; no
// pagination parameters are sent upstream — all filtering, sorting and
// pagination happens locally in the engine.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"careersetu/listing-service/internal/model"
)

const httpTimeout = 15 * time.Second

// Client fetches one raw listing collection.
type Client struct {
	// URL is the collection endpoint, e.g. ".../api/jobs/public".
	URL    string
	client *http.Client
}

// NewClient constructs a fetcher with a bounded HTTP timeout.
func NewClient(url string) *Client {
	return &Client{
		URL:    url,
		client: &http.Client{Timeout: httpTimeout},
	}
}

// collectionResponse mirrors the portal's wrapped collection shapes. Only one
// of the arrays is populated per endpoint.
type collectionResponse struct {
	Jobs       []model.RawRecord `json:"jobs"`
	Candidates []model.RawRecord `json:"candidates"`
	Colleges   []model.RawRecord `json:"colleges"`
	Results    []model.RawRecord `json:"results"`
}

// FetchAll retrieves the whole collection. Both a wrapped object
// ({"jobs": [...]}) and a bare array are accepted.
func (c *Client) FetchAll(ctx context.Context) ([]model.RawRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing source returned %d: %s", resp.StatusCode, string(body))
	}

	var bare []model.RawRecord
	if err := json.Unmarshal(body, &bare); err == nil {
		return bare, nil
	}

	var wrapped collectionResponse
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	for _, records := range [][]model.RawRecord{wrapped.Jobs, wrapped.Candidates, wrapped.Colleges, wrapped.Results} {
		if len(records) > 0 {
			return records, nil
		}
	}
	return nil, nil
}
