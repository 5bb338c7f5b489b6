package intent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imkonsowa/paragourmet/poi"
	"github.com/imkonsowa/paragourmet/policy"
	"github.com/imkonsowa/paragourmet/scene"
)

func sky(s string) *string { return &s }

func input(tempC float64, skyDesc *string, humidity int, hour, minute int, pois ...string) Input {
	c := scene.Context{
		Location: scene.Location{Lat: 37.544, Lon: 127.056, City: "Seoul"},
		Weather:  scene.Weather{TempC: tempC, Sky: skyDesc, Humidity: humidity},
		Local:    time.Date(2025, 7, 14, hour, minute, 0, 0, time.UTC),
		RadiusM:  300,
		RawPOIs:  pois,
	}

	return Input{
		Context:      c,
		Surroundings: poi.NewDefaultClassifier().Classify(pois),
	}
}

func evaluate(in Input) Result {
	return NewDefaultEngine(policy.Default()).Evaluate(in)
}

func TestScenarioHotAndSunny(t *testing.T) {
	res := evaluate(input(28, sky("very sunny"), 60, 15, 30, "cafe", "bus_stop"))

	for _, want := range []string{HeatRelief, Hydration, VerySunny} {
		assert.True(t, res.Intents.Has(want), "missing %s in %v", want, res.Intents.Labels())
	}
	assert.Equal(t, []string{
		HeatRelief, Hydration, LighterMeal, IcedBeveragePair,
		VerySunny,
		Portable, QuickServe, LowWait,
		DessertPairingPossible,
	}, res.Intents.Labels())
}

func TestScenarioColdAndRainy(t *testing.T) {
	res := evaluate(input(5, sky("light rain"), 80, 15, 30))

	assert.False(t, res.Intents.Has(HeatRelief))
	assert.False(t, res.Intents.Has(VerySunny))
	assert.Equal(t, []string{
		Warmth, HeartyMeal,
		RainyDay, ComfortFood,
		HighHumidity, Hydration,
	}, res.Intents.Labels())
}

func TestScenarioLunchRush(t *testing.T) {
	tests := []struct {
		name string
		pois []string
	}{
		{"transit", []string{"subway_entrance"}},
		{"office", []string{"office"}},
		{"campus", []string{"university", "park"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := evaluate(input(20, sky("cloudy"), 50, 12, 15, tt.pois...))

			assert.True(t, res.Intents.Has(RushLunch))
			assert.True(t, res.Intents.Has(LowWait))
			assert.True(t, res.Intents.Has(QuickServe))
		})
	}
}

func TestLunchWithoutBusySurroundings(t *testing.T) {
	res := evaluate(input(20, sky("cloudy"), 50, 12, 15, "park"))

	assert.True(t, res.Intents.Has(RushLunch))
	assert.False(t, res.Intents.Has(LowWait))
	assert.False(t, res.Intents.Has(QuickServe))
}

func TestMealWindowsBoundaries(t *testing.T) {
	tests := []struct {
		hour, minute int
		want         string
		absent       []string
	}{
		{7, 0, RushBreakfast, nil},
		{9, 59, RushBreakfast, nil},
		{11, 30, RushLunch, []string{RushBreakfast}},
		{13, 59, RushLunch, nil},
		{17, 30, RushDinner, []string{RushLunch}},
		{22, 0, LateNight, []string{RushDinner}},
		{3, 59, LateNight, nil},
	}

	for _, tt := range tests {
		res := evaluate(input(20, nil, 50, tt.hour, tt.minute))
		assert.True(t, res.Intents.Has(tt.want), "%02d:%02d want %s, got %v", tt.hour, tt.minute, tt.want, res.Intents.Labels())
		for _, a := range tt.absent {
			assert.False(t, res.Intents.Has(a), "%02d:%02d unexpected %s", tt.hour, tt.minute, a)
		}
	}

	res := evaluate(input(20, nil, 50, 14, 0))
	assert.False(t, res.Intents.Has(RushLunch))
	res = evaluate(input(20, nil, 50, 10, 0))
	assert.False(t, res.Intents.Has(RushBreakfast))
}

func TestMissingSkySkipsSkyRules(t *testing.T) {
	res := evaluate(input(30, nil, 40, 16, 0))

	assert.False(t, res.Intents.Has(VerySunny))
	assert.True(t, res.Intents.Has(HeatRelief))

	outcomes := map[string]string{}
	for _, step := range res.Trace {
		outcomes[step.Rule] = step.Outcome
	}
	assert.Equal(t, "skipped", outcomes["sunny"])
	assert.Equal(t, "skipped", outcomes["rainy"])
	assert.Equal(t, "fired", outcomes["hot"])
	assert.Equal(t, "not_fired", outcomes["cold"])
	assert.Len(t, res.Trace, len(DefaultRules(policy.Default())))
}

func TestSunnyNeedsWarmth(t *testing.T) {
	res := evaluate(input(10, sky("Clear"), 30, 16, 0))
	assert.False(t, res.Intents.Has(VerySunny))

	res = evaluate(input(19, sky("Mainly CLEAR"), 30, 16, 0))
	assert.True(t, res.Intents.Has(VerySunny))
}

func TestHumidityIsAdditive(t *testing.T) {
	res := evaluate(input(25, sky("haze"), 85, 16, 0))

	assert.Equal(t, []string{Overcast, HighHumidity, Hydration, HeatRelief}, res.Intents.Labels())
}

func TestEmptyIntentSetIsValid(t *testing.T) {
	res := evaluate(input(15, sky("windy"), 40, 16, 0))

	assert.Equal(t, 0, res.Intents.Len())
	assert.Empty(t, res.Intents.Labels())
	assert.Equal(t, "", res.Intents.String())
}

func TestOrderIndependentOfPOIOrder(t *testing.T) {
	a := evaluate(input(28, sky("sunny"), 75, 12, 15, "cafe", "bus_stop", "park", "market", "office"))
	b := evaluate(input(28, sky("sunny"), 75, 12, 15, "office", "market", "park", "bus_stop", "cafe"))

	assert.Equal(t, a.Intents.Labels(), b.Intents.Labels())
}

func TestDeterministic(t *testing.T) {
	in := input(28, sky("very sunny"), 60, 12, 15, "cafe", "bus_stop")
	e := NewDefaultEngine(policy.Default())

	first := e.Evaluate(in)
	for i := 0; i < 20; i++ {
		got := e.Evaluate(in)
		require.Equal(t, first.Intents.Labels(), got.Intents.Labels())
		require.Equal(t, first.Trace, got.Trace)
	}
}

func TestCustomThresholds(t *testing.T) {
	p := policy.Default()
	p.Thresholds.HotC = 22

	res := NewDefaultEngine(p).Evaluate(input(23, nil, 40, 16, 0))
	assert.True(t, res.Intents.Has(HeatRelief))
}

func TestCustomRuleTable(t *testing.T) {
	e := NewEngine([]Rule{
		{Name: "always", Eval: func(Input) Outcome { return Fired }, Emit: []string{"b", "a"}},
		{Name: "never", Eval: func(Input) Outcome { return NotFired }, Emit: []string{"c"}},
		{Name: "again", Eval: func(Input) Outcome { return Fired }, Emit: []string{"a", "d"}},
	})

	res := e.Evaluate(Input{})
	assert.Equal(t, []string{"b", "a", "d"}, res.Intents.Labels())
	assert.Equal(t, []string{"a", "d"}, res.Trace[2].Emitted)
	assert.Nil(t, res.Trace[1].Emitted)
}
