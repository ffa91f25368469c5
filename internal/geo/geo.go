// Package geo resolves the host's public IP location from free lookup
// services and caches the result for the weather collaborator.
package geo

import "strings"

// IPInfo is the public IP location record. Fields a source does not
// provide stay zero.
type IPInfo struct {
	IP        string  `json:"ip"`
	Hostname  string  `json:"hostname,omitempty"`
	City      string  `json:"city"`
	Region    string  `json:"region"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
}

// Location renders the "City, Region, Country" form used as the default
// weather location. Empty parts are skipped.
func (i *IPInfo) Location() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{i.City, i.Region, i.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
