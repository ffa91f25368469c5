// Package actions implements the registered action handlers: weather
// forecasts, general questions, and web search.
package actions

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nexa-assistant/nexa/internal/geo"
	"github.com/nexa-assistant/nexa/internal/intent"
	"github.com/nexa-assistant/nexa/internal/weather"
)

// Forecaster is what the weather handler needs from the weather client.
type Forecaster interface {
	Geocode(ctx context.Context, location string) (*weather.Coordinates, error)
	Overview(ctx context.Context, lat, lon float64) (*weather.Overview, error)
}

// Locator supplies the default location when an utterance names none.
type Locator interface {
	Current(ctx context.Context) (*geo.IPInfo, error)
}

// Answerer phrases prompts into user-facing text.
type Answerer interface {
	InferAnswer(ctx context.Context, prompt, systemRole string) (string, error)
}

// Searcher performs a web search.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// Service owns the action handlers and their collaborators.
type Service struct {
	weather     Forecaster
	locator     Locator
	llm         Answerer
	searcher    Searcher
	personality *intent.Personality
	logger      *zap.Logger
	now         func() time.Time
}

func NewService(forecaster Forecaster, locator Locator, llm Answerer, searcher Searcher, personality *intent.Personality, logger *zap.Logger) *Service {
	return &Service{
		weather:     forecaster,
		locator:     locator,
		llm:         llm,
		searcher:    searcher,
		personality: personality,
		logger:      logger,
		now:         time.Now,
	}
}

// Specs returns the action registry entries. These definitions are the
// whole surface the function model can target.
func (s *Service) Specs() []intent.ActionSpec {
	return []intent.ActionSpec{
		{
			Name:        "get_weather_forecast",
			Description: "Fetches the weather forecast for a duration, location, start date, and weather condition.",
			Params: []intent.Param{
				{
					Name: "duration", Type: intent.TypeString, Default: "today",
					Description: "When the forecast is for: 'today', 'tomorrow', or 'week'.",
				},
				{
					Name: "location", Type: intent.TypeString,
					Description: "City name, optionally with country or state code, e.g. 'Nags Head' or 'Paris, FR'. Defaults to the device's public location.",
				},
				{
					Name: "start_date", Type: intent.TypeString,
					Description: "Forecast start date in 'YYYY-MM-DD' form. Defaults to today.",
				},
				{
					Name: "weather_condition", Type: intent.TypeString,
					Description: "Condition to focus on, e.g. 'rain', 'snow', 'fog'.",
				},
			},
			Handler: s.weatherForecast,
		},
		{
			Name:        "ask_the_ai",
			Description: "Answers a general question that does not mention the web or the internet.",
			Params: []intent.Param{
				{
					Name: "query", Type: intent.TypeString, Required: true,
					Description: "The user's question, unmodified.",
				},
			},
			Handler: s.askTheAI,
		},
		{
			Name:        "web_search",
			Description: "Searches the web when the user explicitly mentions the web or the internet.",
			Params: []intent.Param{
				{
					Name: "search", Type: intent.TypeString, Required: true,
					Description: "The user's search string, unmodified.",
				},
			},
			Handler: s.webSearch,
		},
	}
}

func stringArg(args map[string]any, name string) string {
	v, _ := args[name].(string)
	return v
}
