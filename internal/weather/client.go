// Package weather talks to OpenWeatherMap: geocoding and the one-call
// weather overview used to phrase forecasts.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultGeocodeURL  = "http://api.openweathermap.org/geo/1.0/direct"
	defaultOverviewURL = "https://api.openweathermap.org/data/3.0/onecall/overview"

	geocodeCachePrefix = "weather:geocode:"

	requestTimeout = 10 * time.Second
)

// Coordinates is a geocoded place.
type Coordinates struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Country   string  `json:"country"`
	State     string  `json:"state,omitempty"`
}

// Overview is the one-call weather overview: a prose summary for one
// location and day.
type Overview struct {
	Latitude        float64 `json:"lat"`
	Longitude       float64 `json:"lon"`
	Timezone        string  `json:"tz"`
	Date            string  `json:"date"`
	Units           string  `json:"units"`
	WeatherOverview string  `json:"weather_overview"`
}

// Client is an OpenWeatherMap API client. cache may be nil; geocode
// results are cached when it is set since places do not move.
type Client struct {
	apiKey      string
	units       string
	geocodeURL  string
	overviewURL string
	httpClient  *http.Client
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      *zap.Logger
}

func NewClient(apiKey, units string, cache *redis.Client, cacheTTL time.Duration, logger *zap.Logger) *Client {
	return &Client{
		apiKey:      apiKey,
		units:       units,
		geocodeURL:  defaultGeocodeURL,
		overviewURL: defaultOverviewURL,
		httpClient:  &http.Client{Timeout: requestTimeout},
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

// Geocode resolves a place name ("Nags Head", "Luxembourg, LU") to
// coordinates. An unknown place is an error, not empty coordinates.
func (c *Client) Geocode(ctx context.Context, location string) (*Coordinates, error) {
	key := geocodeCachePrefix + strings.ToLower(strings.TrimSpace(location))
	if coords := c.cachedCoords(ctx, key); coords != nil {
		return coords, nil
	}

	q := url.Values{}
	q.Set("q", location)
	q.Set("limit", "1")
	q.Set("appid", c.apiKey)

	var results []Coordinates
	if err := c.getJSON(ctx, c.geocodeURL, q, &results); err != nil {
		return nil, fmt.Errorf("geocoding %q: %w", location, err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no geocoding data for %q", location)
	}
	coords := &results[0]
	c.storeCoords(ctx, key, coords)
	return coords, nil
}

// Overview fetches the weather overview for a coordinate pair.
func (c *Client) Overview(ctx context.Context, lat, lon float64) (*Overview, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("units", c.units)
	q.Set("appid", c.apiKey)

	var ov Overview
	if err := c.getJSON(ctx, c.overviewURL, q, &ov); err != nil {
		return nil, fmt.Errorf("fetching weather overview: %w", err)
	}
	if ov.WeatherOverview == "" {
		return nil, errors.New("fetching weather overview: empty overview in response")
	}
	return &ov, nil
}

// Units reports the configured unit system.
func (c *Client) Units() string { return c.units }

func (c *Client) getJSON(ctx context.Context, rawURL string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) cachedCoords(ctx context.Context, key string) *Coordinates {
	if c.cache == nil {
		return nil
	}
	raw, err := c.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("reading geocode cache", zap.Error(err))
		}
		return nil
	}
	var coords Coordinates
	if err := json.Unmarshal(raw, &coords); err != nil {
		return nil
	}
	return &coords
}

func (c *Client) storeCoords(ctx context.Context, key string, coords *Coordinates) {
	if c.cache == nil {
		return
	}
	raw, err := json.Marshal(coords)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, raw, c.cacheTTL).Err(); err != nil {
		c.logger.Warn("writing geocode cache", zap.Error(err))
	}
}
