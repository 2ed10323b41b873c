// Package mola talks to the external Mars elevation data service.
package mola

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Patch is a rectangular elevation array for a lat/lon region, row-major,
// in meters of real planetary elevation.
type Patch struct {
	MinLat     float64   `json:"minLat"`
	MaxLat     float64   `json:"maxLat"`
	MinLon     float64   `json:"minLon"`
	MaxLon     float64   `json:"maxLon"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Elevation  []float32 `json:"elevation"`
	Resolution int       `json:"resolution,omitempty"`
	DataSource string    `json:"dataSource,omitempty"`
}

// PointSample is the single-point diagnostic query result.
type PointSample struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Elevation float32 `json:"elevation"`
	Source    string  `json:"source,omitempty"`
}

// Client fetches elevation data over HTTP. All failures are returned as
// errors; callers fall back to procedural generation for the region.
type Client struct {
	base string
	http *http.Client
	log  *zap.Logger
}

func NewClient(baseURL string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		base: baseURL,
		http: &http.Client{Timeout: 30 * time.Second},
		log:  log,
	}
}

// FetchPatch requests the elevation grid for a bounding rectangle. The
// response is validated against a JSON schema before use so a malformed
// payload can never reach the height field.
func (c *Client) FetchPatch(ctx context.Context, minLat, maxLat, minLon, maxLon float64, resolution int) (*Patch, error) {
	q := url.Values{}
	q.Set("minLat", strconv.FormatFloat(minLat, 'f', -1, 64))
	q.Set("maxLat", strconv.FormatFloat(maxLat, 'f', -1, 64))
	q.Set("minLon", strconv.FormatFloat(minLon, 'f', -1, 64))
	q.Set("maxLon", strconv.FormatFloat(maxLon, 'f', -1, 64))
	q.Set("resolution", strconv.Itoa(resolution))

	body, err := c.get(ctx, "/api/mars/chunk", q)
	if err != nil {
		return nil, err
	}
	if err := validate(patchSchema, body); err != nil {
		return nil, fmt.Errorf("chunk response: %w", err)
	}

	var p Patch
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("chunk response: %w", err)
	}
	if len(p.Elevation) != p.Width*p.Height {
		return nil, fmt.Errorf("chunk response: %d samples for %dx%d grid", len(p.Elevation), p.Width, p.Height)
	}
	return &p, nil
}

// FetchPoint queries elevation at a single coordinate. Diagnostics only.
func (c *Client) FetchPoint(ctx context.Context, lat, lon float64) (*PointSample, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))

	body, err := c.get(ctx, "/api/mars/elevation", q)
	if err != nil {
		return nil, err
	}
	if err := validate(pointSchema, body); err != nil {
		return nil, fmt.Errorf("elevation response: %w", err)
	}

	var s PointSample
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, fmt.Errorf("elevation response: %w", err)
	}
	return &s, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	u := c.base + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mola fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mola fetch: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, fmt.Errorf("mola fetch: %w", err)
	}
	return body, nil
}
