package roads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"fleetplan/internal/geo"
)

// OSRM queries an OSRM HTTP backend for per-edge road metrics. Safe for
// concurrent use.
type OSRM struct {
	client  *http.Client
	baseURL string
	profile string
	limiter *rate.Limiter
}

// NewOSRM builds a provider against the given base URL (e.g. a self-hosted
// router or the public demo server). Requests are rate-limited to rps with a
// small burst so bulk enrichment cannot hammer the backend.
func NewOSRM(baseURL string, rps float64) (*OSRM, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("osrm base URL is empty")
	}
	if rps <= 0 {
		rps = 5
	}
	return &OSRM{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		profile: "driving",
		limiter: rate.NewLimiter(rate.Limit(rps), 2),
	}, nil
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"` // meters
		Duration float64 `json:"duration"` // seconds
		Geometry string  `json:"geometry"`
	} `json:"routes"`
}

func (o *OSRM) Edge(ctx context.Context, from, to geo.Point) (EdgeResult, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return EdgeResult{}, err
	}
	url := fmt.Sprintf("%s/route/v1/%s/%f,%f;%f,%f?overview=full&geometries=polyline",
		o.baseURL, o.profile, from.Lng, from.Lat, to.Lng, to.Lat)
	resp, err := o.doWithRetry(ctx, url)
	if err != nil {
		return EdgeResult{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return EdgeResult{}, fmt.Errorf("decode osrm response: %w", err)
	}
	if body.Code != "Ok" || len(body.Routes) == 0 {
		return EdgeResult{}, fmt.Errorf("osrm: no route (code %q)", body.Code)
	}
	r := body.Routes[0]
	return EdgeResult{
		DistanceKm:  r.Distance / 1000.0,
		DurationSec: r.Duration,
		Geometry:    r.Geometry,
	}, nil
}

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("osrm http %d: %s", e.Code, e.Body)
}

// doWithRetry retries transient failures (network errors, 429, 5xx) with
// exponential backoff while respecting context cancellation.
func (o *OSRM) doWithRetry(ctx context.Context, url string) (*http.Response, error) {
	const maxAttempts = 3
	backoff := 200 * time.Millisecond

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := o.client.Do(req)
		if err == nil && resp.StatusCode < 400 {
			return resp, nil
		}
		if err == nil {
			b, _ := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			err = &httpStatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
		}
		lastErr = err

		retry := false
		var he *httpStatusError
		if errors.As(err, &he) {
			switch he.Code {
			case 429, 500, 502, 503, 504:
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
