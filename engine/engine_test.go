package engine

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imkonsowa/paragourmet/intent"
	"github.com/imkonsowa/paragourmet/policy"
	"github.com/imkonsowa/paragourmet/scene"
)

func normalize(t *testing.T, raw scene.Raw, pois []string) scene.Context {
	t.Helper()

	n := scene.NewNormalizer(policy.DefaultRadiusM, time.UTC)
	c, err := n.Normalize(raw, pois)
	require.NoError(t, err)

	return c
}

func TestRenderScenarioA(t *testing.T) {
	c := normalize(t, scene.Raw{
		"lat": "37.544", "lon": "127.056", "city": "Seoul", "district": "Seongsu-dong",
		"temp_c": "28", "sky": "very sunny", "humidity": "60", "datetime": "2025-07-14T16:00",
	}, []string{"cafe", "bus_stop"})

	res := NewFromPolicy(policy.Default()).Render(c)

	assert.Equal(t, []string{"cafe", "bus stop"}, res.Surroundings.Labels())
	for _, want := range []string{intent.HeatRelief, intent.Hydration, intent.VerySunny} {
		assert.True(t, res.Intents.Has(want))
	}
	assert.Contains(t, res.Prompt, "- Surroundings: cafe, bus stop\n")
	assert.Contains(t, res.Prompt, "- Weather: 28°C, very sunny, humidity 60%\n")
	assert.Contains(t, res.Prompt, "- Context intents: "+strings.Join(res.Intents.Labels(), ", ")+"\n")
}

func TestRenderScenarioB(t *testing.T) {
	c := normalize(t, scene.Raw{
		"lat": "37.5", "lon": "127.0", "city": "Seoul",
		"temp_c": "5", "sky": "light rain", "humidity": "80", "datetime": "2025-01-14T16:00",
	}, nil)

	res := NewFromPolicy(policy.Default()).Render(c)

	assert.True(t, res.Surroundings.Empty())
	assert.False(t, res.Intents.Has(intent.HeatRelief))
	assert.False(t, res.Intents.Has(intent.VerySunny))
	assert.Contains(t, res.Prompt, "- Surroundings: none nearby\n")
	assert.Contains(t, res.Prompt, "- Location: Seoul (lat: 37.500000, lon: 127.000000)\n")
}

func TestRenderScenarioC(t *testing.T) {
	c := normalize(t, scene.Raw{
		"lat": "37.5", "lon": "127.0", "city": "Seoul",
		"temp_c": "21", "sky": "cloudy", "humidity": "50", "datetime": "2025-04-02T12:15",
	}, []string{"bus_stop", "office"})

	res := NewFromPolicy(policy.Default()).Render(c)

	assert.True(t, res.Intents.Has(intent.RushLunch))
	assert.True(t, res.Intents.Has(intent.LowWait))
}

func TestRenderConcurrent(t *testing.T) {
	e := NewFromPolicy(policy.Default())
	c := normalize(t, scene.Raw{
		"lat": "37.5", "lon": "127.0", "city": "Seoul",
		"temp_c": "30", "sky": "clear", "humidity": "75", "datetime": "2025-08-02T12:15",
	}, []string{"park", "cafe", "subway"})

	want := e.Render(c).Prompt

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = e.Render(c).Prompt
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestRenderIntentOrderIgnoresPOIOrder(t *testing.T) {
	e := NewFromPolicy(policy.Default())
	raw := scene.Raw{
		"lat": "37.5", "lon": "127.0", "city": "Seoul",
		"temp_c": "30", "sky": "clear", "humidity": "75", "datetime": "2025-08-02T12:15",
	}

	a := e.Render(normalize(t, raw, []string{"park", "cafe", "subway"}))
	b := e.Render(normalize(t, raw, []string{"subway", "park", "cafe"}))

	assert.Equal(t, a.Intents.Labels(), b.Intents.Labels())
	assert.NotEqual(t, a.Surroundings.Labels(), b.Surroundings.Labels())
}
