package prompt

import "strings"

// Fixed policy text, one bullet per line. It is the same for every request.
const (
	RulesText = `Your primary goal is to suggest a single, specific food or drink menu item.
Suggest exactly one item; never list alternatives or combos.
The menu must be common and culturally appropriate for the given region.
DO NOT mention any specific restaurant, brand, or store name.
DO NOT use any of the words from the 'Surroundings' list in your suggestion.
The suggestion must be realistic and fit the scene, especially the weather, time and derived intents.
The output format MUST be a single, clean JSON object.`

	ScoringText = `High score for creative items that fit the scene and satisfy several intents at once.
High score for items that are familiar, locally popular, and seasonally appropriate.
Low score for generic, low-effort suggestions (e.g., "water", "snack", "coffee").
Low score for suggestions that ignore key intents (e.g., a hot, heavy soup on a sweltering day).
Low score for overly exotic, unrealistic, or culturally irrelevant items.`

	OutputText = `Your response must be only a single JSON object and nothing else.
The JSON object must have exactly two keys: "suggestion" (string) and "reason" (string).
Example: {"suggestion": "Iced citron tea", "reason": "Cold, tangy and hydrating for a hot, sunny afternoon on the go."}`
)

// Policy is the constant text rendered into the RULES, SCORING and OUTPUT
// sections.
type Policy struct {
	Rules   []string
	Scoring []string
	Output  []string
}

func DefaultPolicy() Policy {
	return Policy{
		Rules:   lines(RulesText),
		Scoring: lines(ScoringText),
		Output:  lines(OutputText),
	}
}

func lines(text string) []string {
	var out []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}

	return out
}
