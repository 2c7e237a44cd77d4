package clock

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/veritick/veritick/ports"
)

// HTTPOracle reads the verifier's reference clock over HTTP. It consumes
// the GET /api/server-time endpoint.
type HTTPOracle struct {
	baseURL string
	client  *http.Client
}

// NewHTTPOracle creates an oracle client for the given base URL.
func NewHTTPOracle(baseURL string) *HTTPOracle {
	return &HTTPOracle{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// ServerTime fetches the remote clock reading in epoch milliseconds.
func (o *HTTPOracle) ServerTime(ctx context.Context) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/server-time", nil)
	if err != nil {
		return 0, fmt.Errorf("building request: %w", err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetching server time: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("server time returned status %d", resp.StatusCode)
	}

	var body struct {
		ServerTime int64 `json:"serverTime"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decoding server time: %w", err)
	}

	return body.ServerTime, nil
}

var _ ports.TimeOracle = (*HTTPOracle)(nil)
