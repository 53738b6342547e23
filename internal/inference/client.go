// Package inference contains the client for the remote try-on synthesis service.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// DefaultTimeout bounds the synthesis call when no timeout is configured. The
// upstream model can take more than a minute to composite an image.
const DefaultTimeout = 300 * time.Second

// APIError is returned when the synthesis service responds with a non-2xx status.
// The response body is retained for server-side logging only and is never included
// in the error message.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("generation failed: %d", e.StatusCode)
}

// Config holds the client configuration.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client is a client for the try-on synthesis service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new synthesis service client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("the inference service URL is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{baseURL: cfg.BaseURL, httpClient: httpClient}, nil
}

type generateRequest struct {
	SubjectURL string `json:"subject_url"`
	GarmentURL string `json:"garment_url"`
}

// Generate asks the synthesis service to composite the garment onto the subject and
// returns the raw image bytes. A single attempt is made; the outcome is final for
// the enclosing request.
func (c *Client) Generate(ctx context.Context, subjectURL, garmentURL string) ([]byte, error) {
	wrapMsg := "unable to call the synthesis service"

	body, err := json.Marshal(generateRequest{SubjectURL: subjectURL, GarmentURL: garmentURL})
	if err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		errorText, _ := io.ReadAll(resp.Body)
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(errorText)}
	}

	image, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}

	return image, nil
}
