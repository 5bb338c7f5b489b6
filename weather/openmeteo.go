// Package weather fetches current conditions for a coordinate.
package weather

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/imkonsowa/paragourmet/scene"
)

const DefaultURL = "https://api.open-meteo.com/v1/forecast"

var ErrUnavailable = errors.Mark(errors.New("weather unavailable"), scene.ErrUpstreamUnavailable)

// Provider answers the weather part of a scene for a coordinate.
type Provider interface {
	Current(ctx context.Context, lat, lon float64) (scene.Weather, error)
}

type Options struct {
	URL     string
	Timeout time.Duration
	Retries int
	Logger  *zap.SugaredLogger
}

// OpenMeteo is a Provider backed by the Open-Meteo forecast API.
type OpenMeteo struct {
	url    string
	http   *retryablehttp.Client
	logger *zap.SugaredLogger
}

func NewOpenMeteo(opts Options) *OpenMeteo {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}

	httpClient := retryablehttp.NewClient()
	httpClient.HTTPClient.Timeout = opts.Timeout
	httpClient.RetryMax = opts.Retries
	httpClient.RetryWaitMin = 500 * time.Millisecond
	httpClient.RetryWaitMax = 4 * time.Second
	httpClient.Logger = nil

	return &OpenMeteo{url: opts.URL, http: httpClient, logger: opts.Logger}
}

type currentResponse struct {
	Current *struct {
		Temperature float64 `json:"temperature_2m"`
		Humidity    float64 `json:"relative_humidity_2m"`
		WeatherCode int     `json:"weather_code"`
	} `json:"current"`
}

func (o *OpenMeteo) Current(ctx context.Context, lat, lon float64) (scene.Weather, error) {
	u, err := url.Parse(o.url)
	if err != nil {
		return scene.Weather{}, errors.Wrapf(err, "parse weather url %q", o.url)
	}
	q := u.Query()
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("current", "temperature_2m,relative_humidity_2m,weather_code")
	u.RawQuery = q.Encode()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return scene.Weather{}, errors.Wrap(err, "build weather request")
	}

	resp, err := o.http.Do(req)
	if err != nil {
		return scene.Weather{}, errors.Wrap(ErrUnavailable, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return scene.Weather{}, errors.Wrapf(ErrUnavailable, "status %d", resp.StatusCode)
	}

	var parsed currentResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return scene.Weather{}, errors.Wrapf(ErrUnavailable, "decode response: %v", err)
	}
	if parsed.Current == nil {
		return scene.Weather{}, errors.Wrap(ErrUnavailable, "response has no current block")
	}

	sky := Sky(parsed.Current.WeatherCode)
	w := scene.Weather{
		TempC:    parsed.Current.Temperature,
		Humidity: clampHumidity(parsed.Current.Humidity),
	}
	if sky != "" {
		w.Sky = &sky
	}

	o.logger.Debugw("weather fetched", "lat", lat, "lon", lon, "temp_c", w.TempC, "code", parsed.Current.WeatherCode)

	return w, nil
}

func clampHumidity(h float64) int {
	return int(math.Round(math.Max(0, math.Min(100, h))))
}

// Sky maps a WMO weather interpretation code to a short description. Unknown
// codes map to "".
func Sky(code int) string {
	switch {
	case code == 0:
		return "Clear"
	case code == 1:
		return "Mainly clear"
	case code == 2:
		return "Partly cloudy"
	case code == 3:
		return "Overcast"
	case code == 45 || code == 48:
		return "Fog"
	case code >= 51 && code <= 57:
		return "Drizzle"
	case code >= 61 && code <= 67:
		return "Rain"
	case code >= 71 && code <= 77, code == 85, code == 86:
		return "Snow"
	case code >= 80 && code <= 82:
		return "Rain showers"
	case code >= 95 && code <= 99:
		return "Thunderstorm"
	default:
		return ""
	}
}

// Static always answers the same weather.
type Static scene.Weather

func (s Static) Current(context.Context, float64, float64) (scene.Weather, error) {
	return scene.Weather(s), nil
}
