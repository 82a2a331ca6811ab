package action

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const confirmTimeout = 15 * time.Second

// ConfirmClient sends the act-confirmation request for one listing. The
// message, when non-empty, is a human-readable string from the response body
// to surface via the notification sink.
type ConfirmClient interface {
	Confirm(ctx context.Context, token, listingID string) (message string, err error)
}

// HTTPConfirmClient posts to the portal's apply endpoint. A request carries
// an Idempotency-Key so a retried confirmation is not double-counted
// server-side.
type HTTPConfirmClient struct {
	// BaseURL is the endpoint prefix; the listing ID and "/apply" are
	// appended per request.
	BaseURL string
	client  *http.Client
}

// NewHTTPConfirmClient constructs a client with a bounded timeout; a timeout
// is treated identically to any other network failure by the machine.
func NewHTTPConfirmClient(baseURL string) *HTTPConfirmClient {
	return &HTTPConfirmClient{
		BaseURL: baseURL,
		client:  &http.Client{Timeout: confirmTimeout},
	}
}

// confirmResponse mirrors the portal's apply response body.
type confirmResponse struct {
	Message string `json:"message"`
}

func (c *HTTPConfirmClient) Confirm(ctx context.Context, token, listingID string) (string, error) {
	reqURL := fmt.Sprintf("%s/%s/apply", c.BaseURL, listingID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader([]byte("{}")))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http POST: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	var parsed confirmResponse
	_ = json.Unmarshal(body, &parsed) // body is optional

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if parsed.Message != "" {
			return parsed.Message, fmt.Errorf("apply endpoint returned %d: %s", resp.StatusCode, parsed.Message)
		}
		return "", fmt.Errorf("apply endpoint returned %d", resp.StatusCode)
	}

	return parsed.Message, nil
}
