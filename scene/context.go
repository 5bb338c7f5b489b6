// Package scene turns raw request parameters into the canonical Context the
// prompt engine works on.
package scene

import (
	"strings"
	"time"
)

type Location struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	City     string  `json:"city"`
	District *string `json:"district,omitempty"`
}

// HasDistrict reports whether a non-empty district was supplied.
func (l Location) HasDistrict() bool {
	return l.District != nil && *l.District != ""
}

type Weather struct {
	TempC    float64 `json:"temp_c"`
	Sky      *string `json:"sky,omitempty"`
	Humidity int     `json:"humidity"`
}

// HasSky reports whether a sky description is available for rule matching.
func (w Weather) HasSky() bool {
	return w.Sky != nil && *w.Sky != ""
}

// SkyKey is the lower-cased sky description used for matching. It is empty
// when no sky was supplied.
func (w Weather) SkyKey() string {
	if !w.HasSky() {
		return ""
	}

	return strings.ToLower(*w.Sky)
}

// Context is one request's snapshot of the user's surroundings. It is built
// once by a Normalizer and never mutated afterwards.
type Context struct {
	Location Location  `json:"location"`
	Weather  Weather   `json:"weather"`
	Local    time.Time `json:"datetime_local"`
	RadiusM  int       `json:"radius_m"`
	RawPOIs  []string  `json:"raw_pois"`
}

// WithPOIs returns a copy of c carrying pois as its raw POI list.
func (c Context) WithPOIs(pois []string) Context {
	c.RawPOIs = append([]string(nil), pois...)

	return c
}

// MinuteOfDay is the local wall-clock time as minutes past midnight.
func (c Context) MinuteOfDay() int {
	return c.Local.Hour()*60 + c.Local.Minute()
}
