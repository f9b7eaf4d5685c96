// Package geolocate resolves an approximate device position from an
// IP-geolocation service. It is used only as a fallback when the vision
// analysis does not yield coordinates.
package geolocate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/PakBOSS-007/Jaga-pohon/internal/httputil"
	"github.com/PakBOSS-007/Jaga-pohon/internal/metrics"
)

const (
	// DefaultEndpoint is an unauthenticated JSON IP-geolocation service.
	DefaultEndpoint = "http://ip-api.com/json"

	// lookupTimeout bounds the whole lookup, retries included.
	lookupTimeout = 5 * time.Second
)

// Locator is the lookup contract. Satisfied by *Client and by test fakes.
type Locator interface {
	Locate(ctx context.Context) (lat, lon float64, err error)
}

type Client struct {
	endpoint string
	client   *http.Client
	timeout  time.Duration
}

func NewClient(endpoint string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint: endpoint,
		client:   httputil.NewClient(lookupTimeout),
		timeout:  lookupTimeout,
	}
}

type lookupResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Locate fetches the current approximate position. Transient failures are
// retried within the 5-second budget; rate-limit responses are retried,
// other HTTP errors are terminal.
func (c *Client) Locate(ctx context.Context) (float64, float64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("fetch location: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("rate limited: status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(fmt.Errorf("fetch location: status %d: %s", resp.StatusCode, string(b)))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("read body: %w", err))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		metrics.GeolocateCallsTotal.WithLabelValues("error").Inc()
		return 0, 0, err
	}

	var data lookupResponse
	if err := json.Unmarshal(body, &data); err != nil {
		metrics.GeolocateCallsTotal.WithLabelValues("error").Inc()
		return 0, 0, fmt.Errorf("unmarshal: %w", err)
	}

	if data.Status != "" && data.Status != "success" {
		metrics.GeolocateCallsTotal.WithLabelValues("error").Inc()
		return 0, 0, fmt.Errorf("lookup failed: %s", data.Message)
	}

	metrics.GeolocateCallsTotal.WithLabelValues("ok").Inc()
	return data.Lat, data.Lon, nil
}
