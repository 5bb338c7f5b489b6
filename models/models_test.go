package models

import (
	"encoding/binary"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
)

func pointEWKB(t *testing.T, lon, lat float64) []byte {
	t.Helper()
	p := geom.NewPoint(geom.XY).MustSetCoords(geom.Coord{lon, lat}).SetSRID(4326)
	data, err := ewkb.Marshal(p, binary.LittleEndian)
	require.NoError(t, err)

	return data
}

func TestLocationScan(t *testing.T) {
	raw := pointEWKB(t, 126.978, 37.5665)

	var fromBytes Location
	require.NoError(t, fromBytes.Scan(raw))
	assert.Equal(t, Location{Lon: 126.978, Lat: 37.5665}, fromBytes)

	var fromHex Location
	require.NoError(t, fromHex.Scan(hex.EncodeToString(raw)))
	assert.Equal(t, fromBytes, fromHex)
}

func TestLocationScanRejects(t *testing.T) {
	var l Location
	assert.Error(t, l.Scan(42))
	assert.Error(t, l.Scan("zz"))

	line := geom.NewLineString(geom.XY).MustSetCoords([]geom.Coord{{0, 0}, {1, 1}})
	data, err := ewkb.Marshal(line, binary.LittleEndian)
	require.NoError(t, err)
	assert.Error(t, l.Scan(data))
}

func TestLocationWKT(t *testing.T) {
	assert.Equal(t, "POINT(126.978000 37.566500)", NewGeoPoint(126.978, 37.5665).WKT())
}

func TestNewSuggestionRecord(t *testing.T) {
	now := time.Date(2025, 8, 20, 12, 15, 0, 0, time.UTC)
	ev := SuggestionEvent{
		RequestID:    "req-1",
		Lang:         "en",
		Lat:          37.5665,
		Lon:          126.978,
		City:         "Seoul",
		District:     "Jung-gu",
		TempC:        29.5,
		Humidity:     72,
		Surroundings: []string{"cafe", "bus stop"},
		Intents:      []string{"heat_relief", "rush_lunch"},
		Suggestion:   "Iced citron tea",
		Reason:       "Cold and quick.",
		CreatedAt:    now,
	}
	require.NoError(t, ev.Validate())

	rec := NewSuggestionRecord(ev)
	assert.Equal(t, "suggestions", rec.TableName())
	assert.Equal(t, Location{Lon: 126.978, Lat: 37.5665}, rec.Location)
	assert.Equal(t, []string{"heat_relief", "rush_lunch"}, []string(rec.Intents))
	assert.Equal(t, "Suggestion: Iced citron tea, City: Seoul, Intents: heat_relief, rush_lunch", rec.Stringify())

	assert.Error(t, (&SuggestionEvent{Suggestion: "x"}).Validate())
	assert.Error(t, (&SuggestionEvent{RequestID: "x"}).Validate())
}
