package integration

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/alexivanou/cityinfo-api/internal/httpretry"
	"github.com/alexivanou/cityinfo-api/internal/model"
	"go.uber.org/zap"
)

const defaultWeatherBaseURL = "https://api.openweathermap.org"

// OpenWeatherClient fetches current conditions from OpenWeatherMap.
// Results are never cached.
type OpenWeatherClient struct {
	http    *httpretry.Client
	baseURL string
	apiKey  string
	logger  *zap.Logger
}

// NewOpenWeatherClient creates a client. Without an API key every lookup reports false.
func NewOpenWeatherClient(http *httpretry.Client, baseURL, apiKey string, logger *zap.Logger) *OpenWeatherClient {
	if baseURL == "" {
		baseURL = defaultWeatherBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenWeatherClient{
		http:    http,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		logger:  logger,
	}
}

type owmPayload struct {
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  float64 `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

// CurrentWeather looks up the weather for city in the country with the given
// ISO 3166-1 alpha-2 code. Any failure reports false.
func (c *OpenWeatherClient) CurrentWeather(ctx context.Context, city, countryCode string) (model.WeatherInfo, bool) {
	if c.apiKey == "" || countryCode == "" {
		return model.WeatherInfo{}, false
	}

	values := url.Values{}
	values.Set("q", fmt.Sprintf("%s,%s", city, countryCode))
	values.Set("units", "metric")
	values.Set("appid", c.apiKey)
	endpoint := fmt.Sprintf("%s/data/2.5/weather?%s", c.baseURL, values.Encode())

	var payload owmPayload
	if err := c.http.GetJSON(ctx, endpoint, &payload); err != nil {
		c.logger.Warn("Weather lookup failed",
			zap.String("city", city),
			zap.String("country_code", countryCode),
			zap.Error(err),
		)
		return model.WeatherInfo{}, false
	}

	info := model.WeatherInfo{
		TempC:      payload.Main.Temp,
		FeelsLikeC: payload.Main.FeelsLike,
		Humidity:   payload.Main.Humidity,
	}
	if len(payload.Weather) > 0 {
		info.Description = payload.Weather[0].Description
	}
	return info, true
}
