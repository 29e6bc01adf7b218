package timeweather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"timeweathermcp/mcp"
	"timeweathermcp/registry"
)

// defaultWeatherBaseURL is the weatherapi.com current-conditions API root.
const defaultWeatherBaseURL = "http://api.weatherapi.com/v1"

// defaultWeatherTimeout bounds each upstream lookup. The dispatcher imposes
// no deadline of its own; timeouts are the tool's responsibility.
const defaultWeatherTimeout = 10 * time.Second

// WeatherConfig configures the weather_tool upstream.
type WeatherConfig struct {
	// APIKey authenticates against weatherapi.com. When empty the tool
	// reports the missing key as tool output instead of failing registration,
	// so the rest of the server stays usable.
	APIKey string

	// BaseURL overrides the API root. Defaults to the public weatherapi.com
	// endpoint; tests point it at a local fake.
	BaseURL string

	// HTTPClient overrides the outbound client. Defaults to a client with a
	// ten second timeout.
	HTTPClient *http.Client
}

type weatherArgs struct {
	Location string `json:"location" jsonschema:"description=Location to get weather for"`
}

type weatherResponse struct {
	Current *struct {
		TempC     float64 `json:"temp_c"`
		Condition struct {
			Text string `json:"text"`
		} `json:"condition"`
	} `json:"current"`
}

// WeatherTool returns the weather_tool definition backed by weatherapi.com.
func WeatherTool(cfg WeatherConfig) registry.Definition {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultWeatherBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultWeatherTimeout}
	}

	return registry.NewTool("weather_tool", func(ctx context.Context, args weatherArgs) (*mcp.CallToolResult, error) {
		if args.Location == "" {
			return registry.TextResult("Location parameter is required."), nil
		}
		if cfg.APIKey == "" {
			return registry.TextResult("Weather API key not found. Please set WEATHER_API_KEY environment variable."), nil
		}

		q := url.Values{}
		q.Set("key", cfg.APIKey)
		q.Set("q", args.Location)
		q.Set("aqi", "no")
		reqURL := cfg.BaseURL + "/current.json?" + q.Encode()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return registry.TextResult(fmt.Sprintf("Error fetching weather data: %v", err)), nil
		}
		resp, err := cfg.HTTPClient.Do(req)
		if err != nil {
			return registry.TextResult(fmt.Sprintf("Error fetching weather data: %v", err)), nil
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return registry.TextResult(fmt.Sprintf("Error fetching weather data: upstream returned status %d", resp.StatusCode)), nil
		}

		var payload weatherResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return registry.TextResult(fmt.Sprintf("Error fetching weather data: %v", err)), nil
		}
		if payload.Current == nil {
			return registry.TextResult(fmt.Sprintf("Sorry, couldn't find weather for %s.", args.Location)), nil
		}

		temp := strconv.FormatFloat(payload.Current.TempC, 'f', -1, 64)
		return registry.TextResult(fmt.Sprintf("The weather in %s is %s at %s°C.", args.Location, payload.Current.Condition.Text, temp)), nil
	}, registry.WithDescription("Provides weather info for a given location"))
}

// Definitions returns both built-in tools in their canonical order.
func Definitions(cfg WeatherConfig) []registry.Definition {
	return []registry.Definition{TimeTool(), WeatherTool(cfg)}
}
