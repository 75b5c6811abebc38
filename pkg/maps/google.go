package maps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const googleMatrixEndpoint = "https://maps.googleapis.com/maps/api/distancematrix/json"

// Google's Distance Matrix API caps the number of origin/destination elements
// per request; larger coordinate sets are fetched row by row.
const maxRowDestinations = 25

// GoogleProvider implements Provider against the Google Distance Matrix API.
// Safe for concurrent use.
type GoogleProvider struct {
	client  *http.Client
	apiKey  string
	baseURL string
}

func NewGoogleProvider(apiKey string) *GoogleProvider {
	return &GoogleProvider{
		client:  &http.Client{Timeout: 10 * time.Second},
		apiKey:  apiKey,
		baseURL: googleMatrixEndpoint,
	}
}

type matrixResponse struct {
	Status string `json:"status"`
	Rows   []struct {
		Elements []struct {
			Status   string              `json:"status"`
			Distance struct{ Value int } `json:"distance"`
			Duration struct{ Value int } `json:"duration"`
		} `json:"elements"`
	} `json:"rows"`
}

// Matrix fetches travel distances and durations for every coordinate pair.
// Each origin row is requested separately to stay under the API element limit.
func (g *GoogleProvider) Matrix(ctx context.Context, coords []Coordinate) (*Matrix, error) {
	n := len(coords)
	out := &Matrix{
		DistanceKm:  make([][]float64, n),
		TimeMinutes: make([][]float64, n),
	}

	for i := 0; i < n; i++ {
		out.DistanceKm[i] = make([]float64, n)
		out.TimeMinutes[i] = make([]float64, n)

		for start := 0; start < n; start += maxRowDestinations {
			end := start + maxRowDestinations
			if end > n {
				end = n
			}
			if err := g.fetchRow(ctx, coords, i, start, end, out); err != nil {
				return nil, fmt.Errorf("maps: matrix row %d: %w", i, err)
			}
		}
	}
	return out, nil
}

func (g *GoogleProvider) fetchRow(ctx context.Context, coords []Coordinate, origin, start, end int, out *Matrix) error {
	params := url.Values{}
	params.Set("origins", formatCoord(coords[origin]))
	params.Set("destinations", formatCoords(coords[start:end]))
	params.Set("key", g.apiKey)

	resp, err := g.doWithRetry(ctx, g.baseURL+"?"+params.Encode())
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var mr matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if mr.Status != "OK" {
		return fmt.Errorf("distance matrix status %q", mr.Status)
	}
	if len(mr.Rows) != 1 || len(mr.Rows[0].Elements) != end-start {
		return fmt.Errorf("unexpected row shape: rows=%d elements=%d want=%d",
			len(mr.Rows), len(mr.Rows[0].Elements), end-start)
	}

	for j, el := range mr.Rows[0].Elements {
		if el.Status != "OK" {
			return fmt.Errorf("element %d status %q", start+j, el.Status)
		}
		out.DistanceKm[origin][start+j] = float64(el.Distance.Value) / 1000.0
		out.TimeMinutes[origin][start+j] = float64(el.Duration.Value) / 60.0
	}
	return nil
}

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("code %d: %s", e.Code, e.Body)
}

// doWithRetry retries transient failures (network errors, 429, 5xx) with
// exponential backoff while respecting context cancellation.
func (g *GoogleProvider) doWithRetry(ctx context.Context, rawURL string) (*http.Response, error) {
	const maxAttempts = 4
	backoff := 200 * time.Millisecond

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := g.do(ctx, rawURL)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		retry := false
		var he *httpStatusError
		if errors.As(err, &he) {
			switch he.Code {
			case http.StatusTooManyRequests,
				http.StatusInternalServerError,
				http.StatusBadGateway,
				http.StatusServiceUnavailable,
				http.StatusGatewayTimeout:
				retry = true
			}
		}
		var netErr net.Error
		if !retry && errors.As(err, &netErr) {
			retry = true
		}

		if !retry || attempt == maxAttempts {
			return nil, lastErr
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}
	return nil, lastErr
}

func (g *GoogleProvider) do(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		body := make([]byte, 512)
		n, _ := resp.Body.Read(body)
		resp.Body.Close()
		return nil, &httpStatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body[:n]))}
	}
	return resp, nil
}

func formatCoord(c Coordinate) string {
	return fmt.Sprintf("%f,%f", c.Lat, c.Lng)
}

func formatCoords(cs []Coordinate) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = formatCoord(c)
	}
	return strings.Join(parts, "|")
}
