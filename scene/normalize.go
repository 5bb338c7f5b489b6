package scene

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/imkonsowa/paragourmet/policy"
)

// Raw input keys.
const (
	KeyLat      = "lat"
	KeyLon      = "lon"
	KeyCity     = "city"
	KeyDistrict = "district"
	KeyTempC    = "temp_c"
	KeySky      = "sky"
	KeyHumidity = "humidity"
	KeyRadius   = "radius"
	KeyDatetime = "datetime"
)

const (
	minTempC = -90
	maxTempC = 60
)

var localLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Raw is the unparsed key/value input of one request.
type Raw map[string]string

func (r Raw) get(key string) (string, bool) {
	v, ok := r[key]
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)

	return v, v != ""
}

// HasWeather reports whether any weather field was supplied by the caller.
func (r Raw) HasWeather() bool {
	for _, k := range []string{KeyTempC, KeySky, KeyHumidity} {
		if _, ok := r.get(k); ok {
			return true
		}
	}

	return false
}

// WithWeather returns a copy of r carrying w in place of any weather fields.
func (r Raw) WithWeather(w Weather) Raw {
	out := make(Raw, len(r)+3)
	for k, v := range r {
		out[k] = v
	}
	out[KeyTempC] = strconv.FormatFloat(w.TempC, 'f', -1, 64)
	out[KeyHumidity] = strconv.Itoa(w.Humidity)
	delete(out, KeySky)
	if w.HasSky() {
		out[KeySky] = *w.Sky
	}

	return out
}

type Normalizer struct {
	DefaultRadiusM int
	Location       *time.Location
	Now            func() time.Time
}

func NewNormalizer(defaultRadiusM int, loc *time.Location) *Normalizer {
	if defaultRadiusM <= 0 {
		defaultRadiusM = policy.DefaultRadiusM
	}
	if loc == nil {
		loc = time.Local
	}

	return &Normalizer{
		DefaultRadiusM: defaultRadiusM,
		Location:       loc,
		Now:            time.Now,
	}
}

// Locate validates every field of raw that does not describe weather and
// returns a Context carrying only those. Callers use it to reject a request
// before fetching the weather or POIs it lacks.
func (n *Normalizer) Locate(raw Raw) (Context, error) {
	var c Context
	var err error

	if c.Location.Lat, err = requireFloat(raw, KeyLat); err != nil {
		return Context{}, err
	}
	if c.Location.Lon, err = requireFloat(raw, KeyLon); err != nil {
		return Context{}, err
	}

	city, ok, err := text(raw, KeyCity)
	if err != nil {
		return Context{}, err
	}
	if !ok {
		return Context{}, invalid(KeyCity, "is required")
	}
	c.Location.City = city

	district, ok, err := text(raw, KeyDistrict)
	if err != nil {
		return Context{}, err
	}
	if ok {
		c.Location.District = &district
	}

	if c.RadiusM, err = n.parseRadius(raw); err != nil {
		return Context{}, err
	}

	if c.Local, err = n.parseDatetime(raw); err != nil {
		return Context{}, err
	}

	return c, nil
}

// Normalize validates raw and builds a Context. pois become the Context's raw
// POI list; they may be nil and attached later with Context.WithPOIs.
func (n *Normalizer) Normalize(raw Raw, pois []string) (Context, error) {
	c, err := n.Locate(raw)
	if err != nil {
		return Context{}, err
	}

	if c.Weather.TempC, err = requireFloat(raw, KeyTempC); err != nil {
		return Context{}, err
	}
	if c.Weather.TempC < minTempC || c.Weather.TempC > maxTempC {
		return Context{}, invalid(KeyTempC, "%v is outside [%d, %d]", c.Weather.TempC, minTempC, maxTempC)
	}

	sky, ok, err := text(raw, KeySky)
	if err != nil {
		return Context{}, err
	}
	if ok {
		c.Weather.Sky = &sky
	}

	if c.Weather.Humidity, err = parseHumidity(raw); err != nil {
		return Context{}, err
	}

	c.RawPOIs = append([]string(nil), pois...)

	return c, nil
}

// text returns a free-text field. Values are written into prompt lines, so
// control characters such as newlines are rejected.
func text(raw Raw, key string) (string, bool, error) {
	v, ok := raw.get(key)
	if !ok {
		return "", false, nil
	}
	if i := strings.IndexFunc(v, unicode.IsControl); i >= 0 {
		r, _ := utf8.DecodeRuneInString(v[i:])
		return "", false, invalid(key, "contains control character %U", r)
	}

	return v, true, nil
}

func requireFloat(raw Raw, key string) (float64, error) {
	v, ok := raw.get(key)
	if !ok {
		return 0, invalid(key, "is required")
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, invalid(key, "%q is not a number", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, invalid(key, "%q is not finite", v)
	}

	return f, nil
}

func parseHumidity(raw Raw) (int, error) {
	v, ok := raw.get(KeyHumidity)
	if !ok {
		return 0, invalid(KeyHumidity, "is required")
	}

	h, err := strconv.Atoi(v)
	if err != nil {
		return 0, invalid(KeyHumidity, "%q is not an integer", v)
	}
	if h < 0 || h > 100 {
		return 0, invalid(KeyHumidity, "%d is outside [0, 100]", h)
	}

	return h, nil
}

func (n *Normalizer) parseRadius(raw Raw) (int, error) {
	v, ok := raw.get(KeyRadius)
	if !ok {
		return n.DefaultRadiusM, nil
	}

	r, err := strconv.Atoi(v)
	if err != nil {
		return 0, invalid(KeyRadius, "%q is not an integer", v)
	}
	if r <= 0 || r > policy.MaxRadiusM {
		return 0, invalid(KeyRadius, "%d is outside (0, %d]", r, policy.MaxRadiusM)
	}

	return r, nil
}

func (n *Normalizer) parseDatetime(raw Raw) (time.Time, error) {
	v, ok := raw.get(KeyDatetime)
	if !ok {
		return n.Now().In(n.Location), nil
	}

	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, v, n.Location); err == nil {
			return t, nil
		}
	}

	return time.Time{}, invalid(KeyDatetime, "%q is not RFC 3339 or YYYY-MM-DDTHH:MM", v)
}
