package intent

import "strings"

// Intent labels.
const (
	HeatRelief             = "heat_relief"
	Hydration              = "hydration"
	LighterMeal            = "lighter_meal"
	IcedBeveragePair       = "iced_beverage_pair"
	Warmth                 = "warmth"
	HeartyMeal             = "hearty_meal"
	VerySunny              = "very_sunny"
	RainyDay               = "rainy_day"
	ComfortFood            = "comfort_food"
	SnowyDay               = "snowy_day"
	Overcast               = "overcast"
	HighHumidity           = "high_humidity"
	RushBreakfast          = "rush_breakfast"
	RushLunch              = "rush_lunch"
	RushDinner             = "rush_dinner"
	LowWait                = "low_wait"
	QuickServe             = "quick_serve"
	LateNight              = "late_night"
	Portable               = "portable"
	StreetFoodFriendly     = "street_food_friendly"
	DessertPairingPossible = "dessert_pairing_possible"
	PicnicReady            = "picnic_ready"
	Shareable              = "shareable"
	BudgetSensitive        = "budget_sensitive"
)

// Set is an insertion-ordered set of intent labels.
type Set struct {
	labels []string
	seen   map[string]struct{}
}

func (s *Set) Add(labels ...string) {
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	for _, l := range labels {
		if _, ok := s.seen[l]; ok {
			continue
		}
		s.seen[l] = struct{}{}
		s.labels = append(s.labels, l)
	}
}

func (s Set) Has(label string) bool {
	_, ok := s.seen[label]

	return ok
}

func (s Set) Len() int {
	return len(s.labels)
}

func (s Set) Labels() []string {
	return append([]string(nil), s.labels...)
}

func (s Set) String() string {
	return strings.Join(s.labels, ", ")
}
