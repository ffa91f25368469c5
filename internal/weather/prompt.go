package weather

import (
	"fmt"
	"strings"
)

// OverviewPrompt renders the answer-model prompt that turns a raw
// weather overview into a short spoken forecast.
func OverviewPrompt(location string, ov *Overview) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Provide a short weather forecast for %s on %s based on this overview:\n\n", location, ov.Date)
	sb.WriteString(ov.WeatherOverview)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Use %s units for all temperatures and speeds. Do not reference other unit systems.\n", ov.Units)
	sb.WriteString("Keep the response under 100 words.")
	return sb.String()
}
