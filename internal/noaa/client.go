// SPDX-License-Identifier: MIT

// Package noaa implements a client for the NOAA CO-OPS derived product API
// (high tide flooding counts and projections) plus the file-backed station
// cache the fetch services read through.
package noaa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	xglog "github.com/mihiarc/county-level-tidal-flooding/internal/log"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the production NOAA derived-product API endpoint.
const DefaultBaseURL = "https://api.tidesandcurrents.noaa.gov/dpapi/prod/webapi"

// DefaultRequestsPerSecond keeps the client under NOAA's informal rate
// guidance.
const DefaultRequestsPerSecond = 2.0

const maxErrorBodyBytes = 512

// AnnualFloodCount is one observed year of high tide flooding for a station.
type AnnualFloodCount struct {
	StationID     string `json:"stnId"`
	StationName   string `json:"stnName"`
	Year          int    `json:"year"`
	MajorCount    int    `json:"majCount"`
	ModerateCount int    `json:"modCount"`
	MinorCount    int    `json:"minCount"`
	MissingCount  int    `json:"nanCount"`
}

// DecadalProjection is one projected decade of flood days per year for a
// station, across the five NOAA sea level rise scenarios.
type DecadalProjection struct {
	StationID        string  `json:"stnId"`
	StationName      string  `json:"stnName"`
	Decade           int     `json:"decade"`
	Source           string  `json:"source"`
	Low              float64 `json:"low"`
	IntermediateLow  float64 `json:"intLow"`
	Intermediate     float64 `json:"intermediate"`
	IntermediateHigh float64 `json:"intHigh"`
	High             float64 `json:"high"`
}

// AnnualOptions narrows an annual flood count query. Zero values are omitted.
type AnnualOptions struct {
	Year  int // specific year
	Range int // number of years from Year
}

// DecadalOptions narrows a decadal projection query. Zero values are omitted.
type DecadalOptions struct {
	Decade int // target decade, e.g. 2050
	Range  int // number of decades from Decade
}

// Client talks to the NOAA CO-OPS derived product API. All requests pass
// through a shared client-side rate limiter.
type Client struct {
	base    string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a NOAA API client. An empty base selects the production
// endpoint; a non-positive rps selects the default rate limit.
func NewClient(base string, rps float64) *Client {
	if base == "" {
		base = DefaultBaseURL
	}
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}
	return &Client{
		base:    strings.TrimRight(base, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// FetchAnnualFloodCounts returns the observed annual flood counts for a
// station from /htf/htf_annual.json.
func (c *Client) FetchAnnualFloodCounts(ctx context.Context, station string, opts AnnualOptions) ([]AnnualFloodCount, error) {
	if station == "" {
		return nil, &APIError{Sentinel: ErrStationRequired, Operation: "annual flood counts"}
	}

	params := url.Values{"station": {station}}
	if opts.Year != 0 {
		params.Set("year", strconv.Itoa(opts.Year))
	}
	if opts.Range != 0 {
		params.Set("range", strconv.Itoa(opts.Range))
	}

	var payload struct {
		Counts []AnnualFloodCount `json:"AnnualFloodCount"`
	}
	ok, err := c.get(ctx, "annual", "/htf/htf_annual.json", station, params, &payload)
	if err != nil {
		return nil, err
	}
	if !ok || payload.Counts == nil {
		observeRequest("annual", "bad_response")
		return nil, &APIError{Sentinel: ErrBadResponse, Operation: "annual flood counts", Station: station}
	}
	observeRequest("annual", "success")
	return payload.Counts, nil
}

// FetchDecadalProjections returns the decadal flood projections for a
// station from /htf/htf_projection_decadal.json.
func (c *Client) FetchDecadalProjections(ctx context.Context, station string, opts DecadalOptions) ([]DecadalProjection, error) {
	if station == "" {
		return nil, &APIError{Sentinel: ErrStationRequired, Operation: "decadal projections"}
	}

	params := url.Values{"station": {station}}
	if opts.Decade != 0 {
		params.Set("decade", strconv.Itoa(opts.Decade))
	}
	if opts.Range != 0 {
		params.Set("range", strconv.Itoa(opts.Range))
	}

	var payload struct {
		Projections []DecadalProjection `json:"DecadalProjection"`
	}
	ok, err := c.get(ctx, "decadal", "/htf/htf_projection_decadal.json", station, params, &payload)
	if err != nil {
		return nil, err
	}
	if !ok || payload.Projections == nil {
		observeRequest("decadal", "bad_response")
		return nil, &APIError{Sentinel: ErrBadResponse, Operation: "decadal projections", Station: station}
	}
	observeRequest("decadal", "success")
	return payload.Projections, nil
}

// get performs one rate-limited request and decodes the body into out.
// The bool result reports whether the body decoded cleanly; payload-shape
// validation stays with the caller, which knows the expected key.
func (c *Client) get(ctx context.Context, endpoint, path, station string, params url.Values, out any) (bool, error) {
	logger := xglog.WithComponentFromContext(ctx, "noaa")
	if xglog.StationIDFromContext(ctx) == "" {
		logger = logger.With().Str(xglog.FieldStationID, station).Logger()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return false, fmt.Errorf("rate limiter wait: %w", err)
	}

	u := c.base + path + "?" + params.Encode()
	logger.Debug().
		Str(xglog.FieldBaseURL, c.base).
		Str("endpoint", endpoint).
		Msg("requesting NOAA data")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}

	res, err := c.http.Do(req)
	if err != nil {
		observeRequest(endpoint, "transport")
		return false, c.transportError(endpoint, station, err)
	}
	defer func() { _ = res.Body.Close() }()

	switch {
	case res.StatusCode == http.StatusNotFound:
		observeRequest(endpoint, "not_found")
		return false, &APIError{Sentinel: ErrNotFound, Operation: endpoint, Station: station, Status: res.StatusCode}
	case res.StatusCode >= 500:
		observeRequest(endpoint, "upstream_error")
		return false, &APIError{
			Sentinel:  ErrUpstreamError,
			Operation: endpoint,
			Station:   station,
			Status:    res.StatusCode,
			Body:      readErrorBody(res.Body),
		}
	case res.StatusCode != http.StatusOK:
		observeRequest(endpoint, "upstream_error")
		return false, &APIError{
			Sentinel:  ErrUpstreamError,
			Operation: endpoint,
			Station:   station,
			Status:    res.StatusCode,
			Body:      readErrorBody(res.Body),
		}
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		observeRequest(endpoint, "bad_response")
		return false, &APIError{Sentinel: ErrBadResponse, Operation: endpoint, Station: station, Err: err}
	}
	return true, nil
}

func (c *Client) transportError(endpoint, station string, err error) error {
	sentinel := ErrUpstreamUnavailable
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		sentinel = ErrTimeout
	}
	return &APIError{Sentinel: sentinel, Operation: endpoint, Station: station, Err: err}
}

func readErrorBody(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, maxErrorBodyBytes))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}
