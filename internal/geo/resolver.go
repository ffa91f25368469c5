package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultSourceTimeout = 5 * time.Second

type source struct {
	name  string
	url   string
	parse func([]byte) (*IPInfo, error)
}

// Resolver fetches public IP info from free lookup services. Each call
// tries the sources in random order and returns the first that answers.
type Resolver struct {
	client  *http.Client
	sources []source
	logger  *zap.Logger
}

func NewResolver(logger *zap.Logger) *Resolver {
	return &Resolver{
		client: &http.Client{Timeout: defaultSourceTimeout},
		sources: []source{
			{name: "ipinfo.io", url: "https://ipinfo.io/json", parse: parseIPInfoIO},
			{name: "ipwho.is", url: "https://ipwho.is/", parse: parseIPWhoIs},
			{name: "ipapi.is", url: "https://api.ipapi.is/", parse: parseIPAPIIs},
		},
		logger: logger,
	}
}

// Resolve returns the host's public IP info, or an error joining the
// failures of every source.
func (r *Resolver) Resolve(ctx context.Context) (*IPInfo, error) {
	var errs []error
	for _, i := range rand.Perm(len(r.sources)) {
		src := r.sources[i]
		info, err := r.fetch(ctx, src)
		if err != nil {
			r.logger.Warn("ip lookup source failed",
				zap.String("source", src.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", src.name, err))
			continue
		}
		return info, nil
	}
	return nil, fmt.Errorf("resolving public ip info: %w", errors.Join(errs...))
}

func (r *Resolver) fetch(ctx context.Context, src source) (*IPInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return src.parse(body)
}

func parseIPInfoIO(body []byte) (*IPInfo, error) {
	var raw struct {
		IP       string `json:"ip"`
		Hostname string `json:"hostname"`
		City     string `json:"city"`
		Region   string `json:"region"`
		Country  string `json:"country"`
		Loc      string `json:"loc"`
		Timezone string `json:"timezone"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	info := &IPInfo{
		IP:       raw.IP,
		Hostname: raw.Hostname,
		City:     raw.City,
		Region:   raw.Region,
		Country:  raw.Country,
		Timezone: raw.Timezone,
	}
	// loc is "lat,lon" in one field.
	if lat, lon, ok := strings.Cut(raw.Loc, ","); ok {
		if v, err := strconv.ParseFloat(lat, 64); err == nil {
			info.Latitude = v
		}
		if v, err := strconv.ParseFloat(lon, 64); err == nil {
			info.Longitude = v
		}
	}
	return info, nil
}

func parseIPWhoIs(body []byte) (*IPInfo, error) {
	var raw struct {
		Success   *bool   `json:"success"`
		IP        string  `json:"ip"`
		City      string  `json:"city"`
		Region    string  `json:"region"`
		Country   string  `json:"country"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Timezone  struct {
			ID string `json:"id"`
		} `json:"timezone"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	if raw.Success != nil && !*raw.Success {
		return nil, errors.New("lookup reported failure")
	}
	return &IPInfo{
		IP:        raw.IP,
		City:      raw.City,
		Region:    raw.Region,
		Country:   raw.Country,
		Latitude:  raw.Latitude,
		Longitude: raw.Longitude,
		Timezone:  raw.Timezone.ID,
	}, nil
}

func parseIPAPIIs(body []byte) (*IPInfo, error) {
	var raw struct {
		IP       string `json:"ip"`
		Location struct {
			City      string  `json:"city"`
			State     string  `json:"state"`
			Country   string  `json:"country"`
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
			Timezone  string  `json:"timezone"`
		} `json:"location"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	return &IPInfo{
		IP:        raw.IP,
		City:      raw.Location.City,
		Region:    raw.Location.State,
		Country:   raw.Location.Country,
		Latitude:  raw.Location.Latitude,
		Longitude: raw.Location.Longitude,
		Timezone:  raw.Location.Timezone,
	}, nil
}
