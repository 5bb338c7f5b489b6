// Package prompt renders a scene, its surroundings and intents into the
// sectioned text handed to the downstream model.
package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/imkonsowa/paragourmet/intent"
	"github.com/imkonsowa/paragourmet/poi"
	"github.com/imkonsowa/paragourmet/scene"
)

const (
	SectionScene   = "SCENE"
	SectionIntent  = "INTENT"
	SectionRules   = "RULES"
	SectionScoring = "SCORING"
	SectionOutput  = "OUTPUT"

	DatetimeLayout = "2006-01-02 Monday, 15:04"

	NoneNearby = "none nearby"
	NoIntents  = "none"
)

type Composer struct {
	policy Policy
}

func NewComposer(p Policy) *Composer {
	return &Composer{policy: p}
}

func NewDefaultComposer() *Composer {
	return NewComposer(DefaultPolicy())
}

// Compose renders the prompt. The output is byte-identical for identical input.
func (c *Composer) Compose(sc scene.Context, surroundings poi.SurroundingSet, intents intent.Set) string {
	var b strings.Builder

	writeSection(&b, SectionScene, []string{
		"Location: " + FormatLocation(sc.Location),
		"Datetime (local): " + sc.Local.Format(DatetimeLayout),
		"Weather: " + FormatWeather(sc.Weather),
		"Surroundings: " + FormatSurroundings(surroundings),
	})
	b.WriteString("\n")

	writeSection(&b, SectionIntent, []string{
		"Context intents: " + FormatIntents(intents),
	})
	b.WriteString("\n")

	writeSection(&b, SectionRules, c.policy.Rules)
	b.WriteString("\n")

	writeSection(&b, SectionScoring, c.policy.Scoring)
	b.WriteString("\n")

	writeSection(&b, SectionOutput, c.policy.Output)

	return b.String()
}

func writeSection(b *strings.Builder, name string, bullets []string) {
	b.WriteString("[" + name + "]\n")
	for _, line := range bullets {
		b.WriteString("- ")
		b.WriteString(line)
		b.WriteString("\n")
	}
}

// FormatLocation renders district and city; the country is never shown.
func FormatLocation(l scene.Location) string {
	place := l.City
	if l.HasDistrict() {
		place = *l.District + ", " + l.City
	}

	return fmt.Sprintf("%s (lat: %.6f, lon: %.6f)", place, l.Lat, l.Lon)
}

// FormatTemp uses the shortest decimal that parses back to t exactly.
func FormatTemp(t float64) string {
	return strconv.FormatFloat(t, 'f', -1, 64)
}

func FormatWeather(w scene.Weather) string {
	if !w.HasSky() {
		return fmt.Sprintf("%s°C, humidity %d%%", FormatTemp(w.TempC), w.Humidity)
	}

	return fmt.Sprintf("%s°C, %s, humidity %d%%", FormatTemp(w.TempC), *w.Sky, w.Humidity)
}

func FormatSurroundings(s poi.SurroundingSet) string {
	if s.Empty() {
		return NoneNearby
	}

	return strings.Join(s.Labels(), ", ")
}

func FormatIntents(s intent.Set) string {
	if s.Len() == 0 {
		return NoIntents
	}

	return s.String()
}
