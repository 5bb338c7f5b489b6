package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imkonsowa/paragourmet/scene"
)

func TestOpenMeteoCurrent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "37.5665", q.Get("latitude"))
		assert.Equal(t, "126.978", q.Get("longitude"))
		assert.Equal(t, "temperature_2m,relative_humidity_2m,weather_code", q.Get("current"))

		_, _ = w.Write([]byte(`{"latitude":37.56,"longitude":126.97,"current":{"time":"2025-08-20T12:15","interval":900,"temperature_2m":29.4,"relative_humidity_2m":72,"weather_code":61}}`))
	}))
	defer srv.Close()

	got, err := NewOpenMeteo(Options{URL: srv.URL}).Current(context.Background(), 37.5665, 126.978)
	require.NoError(t, err)

	assert.Equal(t, 29.4, got.TempC)
	assert.Equal(t, 72, got.Humidity)
	require.True(t, got.HasSky())
	assert.Equal(t, "Rain", *got.Sky)
}

func TestOpenMeteoUnknownCodeLeavesSkyEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"current":{"temperature_2m":10,"relative_humidity_2m":100.4,"weather_code":42}}`))
	}))
	defer srv.Close()

	got, err := NewOpenMeteo(Options{URL: srv.URL}).Current(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.False(t, got.HasSky())
	assert.Equal(t, 100, got.Humidity)
}

func TestOpenMeteoFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload string
	}{
		{"server error", http.StatusInternalServerError, ``},
		{"bad request", http.StatusBadRequest, `{"error":true,"reason":"bad latitude"}`},
		{"no current block", http.StatusOK, `{"latitude":1}`},
		{"not json", http.StatusOK, `nope`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.payload))
			}))
			defer srv.Close()

			_, err := NewOpenMeteo(Options{URL: srv.URL, Timeout: time.Second}).Current(context.Background(), 0, 0)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnavailable))
			assert.True(t, errors.Is(err, scene.ErrUpstreamUnavailable))
		})
	}
}

func TestSky(t *testing.T) {
	tests := map[int]string{
		0:  "Clear",
		2:  "Partly cloudy",
		3:  "Overcast",
		48: "Fog",
		53: "Drizzle",
		65: "Rain",
		75: "Snow",
		86: "Snow",
		81: "Rain showers",
		95: "Thunderstorm",
		4:  "",
	}
	for code, want := range tests {
		assert.Equal(t, want, Sky(code), "code %d", code)
	}
}

func TestStatic(t *testing.T) {
	sky := "Sunny"
	p := Static(scene.Weather{TempC: 20, Sky: &sky, Humidity: 40})

	got, err := p.Current(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 20.0, got.TempC)
	assert.Equal(t, "Sunny", *got.Sky)
}
