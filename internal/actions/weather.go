package actions

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nexa-assistant/nexa/internal/intent"
	"github.com/nexa-assistant/nexa/internal/weather"
)

const dateLayout = "2006-01-02"

var validDurations = map[string]bool{"today": true, "tomorrow": true, "week": true}

// weatherForecast resolves a location to coordinates, fetches the
// weather overview, and has the answer model phrase it.
func (s *Service) weatherForecast(ctx context.Context, args map[string]any) (string, error) {
	duration := stringArg(args, "duration")
	if !validDurations[duration] {
		return "", fmt.Errorf("unsupported duration %q: accepted values are 'today', 'tomorrow', and 'week'", duration)
	}

	startDate := stringArg(args, "start_date")
	if startDate == "" {
		startDate = s.now().Format(dateLayout)
	} else if _, err := time.Parse(dateLayout, startDate); err != nil {
		return "", fmt.Errorf("invalid start date %q: expected 'YYYY-MM-DD'", startDate)
	}

	place, lat, lon, err := s.resolvePlace(ctx, stringArg(args, "location"))
	if err != nil {
		return "", err
	}

	overview, err := s.weather.Overview(ctx, lat, lon)
	if err != nil {
		return "", &intent.DomainError{Op: "fetching weather overview", Err: err}
	}

	prompt := weather.OverviewPrompt(place, overview)
	if cond := stringArg(args, "weather_condition"); cond != "" {
		prompt += fmt.Sprintf("\nSay specifically whether to expect %s.", cond)
	}

	answer, err := s.llm.InferAnswer(ctx, prompt, s.personality.Role())
	if err != nil {
		return "", &intent.DomainError{Op: "phrasing weather overview", Err: err}
	}

	s.logger.Info("weather forecast produced",
		zap.String("location", place),
		zap.String("duration", duration),
		zap.String("start_date", startDate))
	return answer, nil
}

// resolvePlace geocodes an explicit location, or falls back to the
// device's public IP location.
func (s *Service) resolvePlace(ctx context.Context, location string) (string, float64, float64, error) {
	if location != "" {
		coords, err := s.weather.Geocode(ctx, location)
		if err != nil {
			return "", 0, 0, &intent.DomainError{Op: "geocoding location", Err: err}
		}
		return location, coords.Latitude, coords.Longitude, nil
	}

	info, err := s.locator.Current(ctx)
	if err != nil {
		return "", 0, 0, &intent.DomainError{Op: "resolving public location", Err: err}
	}
	return info.Location(), info.Latitude, info.Longitude, nil
}
