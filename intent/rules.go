package intent

import (
	"strings"

	"github.com/imkonsowa/paragourmet/poi"
	"github.com/imkonsowa/paragourmet/policy"
	"github.com/imkonsowa/paragourmet/scene"
)

type Outcome int

const (
	NotFired Outcome = iota
	Fired
	// Skipped means the rule needs an optional field the context lacks.
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Fired:
		return "fired"
	case Skipped:
		return "skipped"
	default:
		return "not_fired"
	}
}

// Input is what every rule sees: the canonical context and its classified
// surroundings. Rules never see each other's output.
type Input struct {
	Context      scene.Context
	Surroundings poi.SurroundingSet
}

type Rule struct {
	Name string
	Eval func(Input) Outcome
	Emit []string
}

func when(ok bool) Outcome {
	if ok {
		return Fired
	}

	return NotFired
}

func skyRule(keywords []string, extra func(Input) bool) func(Input) Outcome {
	return func(in Input) Outcome {
		if !in.Context.Weather.HasSky() {
			return Skipped
		}
		sky := in.Context.Weather.SkyKey()
		for _, k := range keywords {
			if strings.Contains(sky, k) {
				return when(extra == nil || extra(in))
			}
		}

		return NotFired
	}
}

// DefaultRules builds the ordered rule table for p. The order is part of the
// output contract: it fixes the order of labels in the IntentSet.
func DefaultRules(p policy.Policy) []Rule {
	t := p.Thresholds
	meals := p.Meals
	groups := p.Groups

	inMealWindow := func(in Input) bool {
		m := in.Context.MinuteOfDay()
		return meals.Breakfast.Contains(m) || meals.Lunch.Contains(m) || meals.Dinner.Contains(m)
	}
	busy := func(in Input) bool {
		return in.Surroundings.HasAny(groups.Transit...) || in.Surroundings.HasAny(groups.Office...)
	}

	return []Rule{
		{
			Name: "hot",
			Eval: func(in Input) Outcome { return when(in.Context.Weather.TempC >= t.HotC) },
			Emit: []string{HeatRelief, Hydration, LighterMeal, IcedBeveragePair},
		},
		{
			Name: "cold",
			Eval: func(in Input) Outcome { return when(in.Context.Weather.TempC <= t.ColdC) },
			Emit: []string{Warmth, HeartyMeal},
		},
		{
			Name: "sunny",
			Eval: skyRule([]string{"sunny", "clear"}, func(in Input) bool {
				return in.Context.Weather.TempC > t.SunnyMinC
			}),
			Emit: []string{VerySunny},
		},
		{
			Name: "rainy",
			Eval: skyRule([]string{"rain", "drizzle", "shower", "thunder", "storm"}, nil),
			Emit: []string{RainyDay, ComfortFood},
		},
		{
			Name: "snowy",
			Eval: skyRule([]string{"snow", "sleet", "blizzard"}, nil),
			Emit: []string{SnowyDay, Warmth},
		},
		{
			Name: "overcast",
			Eval: skyRule([]string{"cloud", "overcast", "fog", "mist", "haze"}, nil),
			Emit: []string{Overcast},
		},
		{
			Name: "humid",
			Eval: func(in Input) Outcome { return when(in.Context.Weather.Humidity >= t.HumidPct) },
			Emit: []string{HighHumidity, Hydration},
		},
		{
			Name: "muggy",
			Eval: func(in Input) Outcome {
				w := in.Context.Weather
				return when(w.Humidity >= t.HumidPct && w.TempC >= t.MuggyMinC)
			},
			Emit: []string{HeatRelief},
		},
		{
			Name: "breakfast",
			Eval: func(in Input) Outcome { return when(meals.Breakfast.Contains(in.Context.MinuteOfDay())) },
			Emit: []string{RushBreakfast},
		},
		{
			Name: "lunch",
			Eval: func(in Input) Outcome { return when(meals.Lunch.Contains(in.Context.MinuteOfDay())) },
			Emit: []string{RushLunch},
		},
		{
			Name: "dinner",
			Eval: func(in Input) Outcome { return when(meals.Dinner.Contains(in.Context.MinuteOfDay())) },
			Emit: []string{RushDinner},
		},
		{
			Name: "meal_rush_busy_area",
			Eval: func(in Input) Outcome { return when(inMealWindow(in) && busy(in)) },
			Emit: []string{LowWait, QuickServe},
		},
		{
			Name: "late_night",
			Eval: func(in Input) Outcome { return when(meals.LateNight.Contains(in.Context.MinuteOfDay())) },
			Emit: []string{LateNight},
		},
		{
			Name: "transit",
			Eval: func(in Input) Outcome { return when(in.Surroundings.HasAny(groups.Transit...)) },
			Emit: []string{Portable, QuickServe, LowWait},
		},
		{
			Name: "market",
			Eval: func(in Input) Outcome { return when(in.Surroundings.HasAny(groups.Market...)) },
			Emit: []string{StreetFoodFriendly},
		},
		{
			Name: "cafe_dessert",
			Eval: func(in Input) Outcome { return when(in.Surroundings.HasAny(groups.Dessert...)) },
			Emit: []string{DessertPairingPossible, IcedBeveragePair},
		},
		{
			Name: "green_space",
			Eval: func(in Input) Outcome { return when(in.Surroundings.HasAny(groups.Green...)) },
			Emit: []string{PicnicReady, Shareable, Portable, BudgetSensitive},
		},
		{
			Name: "office_campus",
			Eval: func(in Input) Outcome { return when(in.Surroundings.HasAny(groups.Office...)) },
			Emit: []string{BudgetSensitive},
		},
	}
}
