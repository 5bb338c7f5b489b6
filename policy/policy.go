// Package policy holds the tunable data behind the prompt engine: rule
// thresholds, meal windows and the POI synonym table. Defaults are compiled
// in; a YAML file can override any subset of them.
package policy

import (
	"os"
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

const (
	DefaultRadiusM = 300
	MaxRadiusM     = 50000
)

// Window is a half-open local time range [Start, End) in "HH:MM".
type Window struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// Contains reports whether minuteOfDay falls in the window. Windows whose end
// is before their start wrap past midnight.
func (w Window) Contains(minuteOfDay int) bool {
	start, err := ParseClock(w.Start)
	if err != nil {
		return false
	}
	end, err := ParseClock(w.End)
	if err != nil {
		return false
	}
	if start <= end {
		return minuteOfDay >= start && minuteOfDay < end
	}

	return minuteOfDay >= start || minuteOfDay < end
}

type Thresholds struct {
	HotC      float64 `yaml:"hotC"`
	ColdC     float64 `yaml:"coldC"`
	SunnyMinC float64 `yaml:"sunnyMinC"`
	MuggyMinC float64 `yaml:"muggyMinC"`
	HumidPct  int     `yaml:"humidPct"`
}

type Meals struct {
	Breakfast Window `yaml:"breakfast"`
	Lunch     Window `yaml:"lunch"`
	Dinner    Window `yaml:"dinner"`
	LateNight Window `yaml:"lateNight"`
}

// Groups name which canonical surroundings count towards each rule family.
type Groups struct {
	Transit []string `yaml:"transit"`
	Office  []string `yaml:"office"`
	Market  []string `yaml:"market"`
	Dessert []string `yaml:"dessert"`
	Green   []string `yaml:"green"`
}

type Policy struct {
	DefaultRadiusM int               `yaml:"defaultRadiusM"`
	Thresholds     Thresholds        `yaml:"thresholds"`
	Meals          Meals             `yaml:"meals"`
	Groups         Groups            `yaml:"groups"`
	Synonyms       map[string]string `yaml:"synonyms"`
}

func Default() Policy {
	return Policy{
		DefaultRadiusM: DefaultRadiusM,
		Thresholds: Thresholds{
			HotC:      27,
			ColdC:     5,
			SunnyMinC: 18,
			MuggyMinC: 24,
			HumidPct:  70,
		},
		Meals: Meals{
			Breakfast: Window{Start: "07:00", End: "10:00"},
			Lunch:     Window{Start: "11:30", End: "14:00"},
			Dinner:    Window{Start: "17:30", End: "20:30"},
			LateNight: Window{Start: "22:00", End: "04:00"},
		},
		Groups: Groups{
			Transit: []string{"bus stop", "subway entrance"},
			Office:  []string{"office", "school", "university"},
			Market:  []string{"marketplace", "supermarket", "convenience store"},
			Dessert: []string{"cafe", "bakery", "ice cream"},
			Green:   []string{"park", "river"},
		},
		Synonyms: defaultSynonyms(),
	}
}

func defaultSynonyms() map[string]string {
	return map[string]string{
		"bus stop":          "bus stop",
		"bus station":       "bus stop",
		"bus stops":         "bus stop",
		"subway entrance":   "subway entrance",
		"subway":            "subway entrance",
		"subway station":    "subway entrance",
		"metro":             "subway entrance",
		"metro station":     "subway entrance",
		"marketplace":       "marketplace",
		"market":            "marketplace",
		"street market":     "marketplace",
		"supermarket":       "supermarket",
		"grocery":           "supermarket",
		"convenience":       "convenience store",
		"convenience store": "convenience store",
		"cafe":              "cafe",
		"café":              "cafe",
		"coffee":            "cafe",
		"coffee shop":       "cafe",
		"coffeehouse":       "cafe",
		"bakery":            "bakery",
		"patisserie":        "bakery",
		"ice cream":         "ice cream",
		"gelato":            "ice cream",
		"park":              "park",
		"garden":            "park",
		"green space":       "park",
		"river":             "river",
		"riverside":         "river",
		"office":            "office",
		"offices":           "office",
		"school":            "school",
		"university":        "university",
		"college":           "university",
		"campus":            "university",
	}
}

// Load reads a YAML policy file and decodes it over Default. Keys the file
// sets apply even when zero; keys it leaves out keep their defaults. Synonym
// entries are merged.
func Load(path string) (Policy, error) {
	p := Default()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return p, errors.Wrapf(err, "read policy file %s", path)
	}

	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, errors.Wrapf(err, "parse policy file %s", path)
	}

	p.canonicalize()

	if err := p.Validate(); err != nil {
		return p, errors.Wrapf(err, "policy file %s", path)
	}

	return p, nil
}

// canonicalize rewrites group entries and synonyms in the spelling the POI
// classifier compares against.
func (p *Policy) canonicalize() {
	for _, g := range []*[]string{
		&p.Groups.Transit,
		&p.Groups.Office,
		&p.Groups.Market,
		&p.Groups.Dessert,
		&p.Groups.Green,
	} {
		labels := make([]string, 0, len(*g))
		for _, label := range *g {
			if n := NormalizeLabel(label); n != "" {
				labels = append(labels, n)
			}
		}
		*g = labels
	}

	synonyms := make(map[string]string, len(p.Synonyms))
	for k, v := range p.Synonyms {
		k, v = NormalizeLabel(k), NormalizeLabel(v)
		if k == "" || v == "" {
			continue
		}
		synonyms[k] = v
	}
	p.Synonyms = synonyms
}

// NormalizeLabel lower-cases a POI tag, treats '_' and '-' as word
// separators, collapses whitespace and trims punctuation from both ends.
func NormalizeLabel(tag string) string {
	tag = strings.ToLower(tag)
	tag = strings.Map(func(r rune) rune {
		if r == '_' || r == '-' {
			return ' '
		}
		return r
	}, tag)
	tag = strings.Join(strings.Fields(tag), " ")

	return strings.TrimFunc(tag, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r)
	})
}

func (p Policy) Validate() error {
	if p.DefaultRadiusM <= 0 || p.DefaultRadiusM > MaxRadiusM {
		return errors.Newf("defaultRadiusM must be in (0, %d], got %d", MaxRadiusM, p.DefaultRadiusM)
	}
	if p.Thresholds.ColdC >= p.Thresholds.HotC {
		return errors.Newf("coldC (%v) must be below hotC (%v)", p.Thresholds.ColdC, p.Thresholds.HotC)
	}
	if p.Thresholds.HumidPct < 0 || p.Thresholds.HumidPct > 100 {
		return errors.Newf("humidPct must be in [0, 100], got %d", p.Thresholds.HumidPct)
	}

	windows := map[string]Window{
		"breakfast": p.Meals.Breakfast,
		"lunch":     p.Meals.Lunch,
		"dinner":    p.Meals.Dinner,
		"lateNight": p.Meals.LateNight,
	}
	for name, w := range windows {
		if _, err := ParseClock(w.Start); err != nil {
			return errors.Wrapf(err, "meals.%s.start", name)
		}
		if _, err := ParseClock(w.End); err != nil {
			return errors.Wrapf(err, "meals.%s.end", name)
		}
	}

	return nil
}

// ParseClock converts "HH:MM" to minutes past midnight.
func ParseClock(s string) (int, error) {
	var h, m int
	if len(s) != 5 || s[2] != ':' {
		return 0, errors.Newf("invalid clock %q, want HH:MM", s)
	}
	for i, c := range s {
		if i == 2 {
			continue
		}
		if c < '0' || c > '9' {
			return 0, errors.Newf("invalid clock %q, want HH:MM", s)
		}
	}
	h = int(s[0]-'0')*10 + int(s[1]-'0')
	m = int(s[3]-'0')*10 + int(s[4]-'0')
	if h > 23 || m > 59 {
		return 0, errors.Newf("invalid clock %q, out of range", s)
	}

	return h*60 + m, nil
}
