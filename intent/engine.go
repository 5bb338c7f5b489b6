// Package intent derives abstract intent labels from a scene by evaluating
// an ordered table of independent rules.
package intent

import "github.com/imkonsowa/paragourmet/policy"

// Step records how one rule evaluated.
type Step struct {
	Rule    string   `json:"rule"`
	Outcome string   `json:"outcome"`
	Emitted []string `json:"emitted,omitempty"`
}

type Result struct {
	Intents Set
	Trace   []Step
}

type Engine struct {
	rules []Rule
}

func NewEngine(rules []Rule) *Engine {
	return &Engine{rules: append([]Rule(nil), rules...)}
}

func NewDefaultEngine(p policy.Policy) *Engine {
	return NewEngine(DefaultRules(p))
}

// Evaluate runs every rule once, in table order. A label emitted by several
// rules keeps the position of its first emission. An empty set is valid.
func (e *Engine) Evaluate(in Input) Result {
	var res Result
	res.Trace = make([]Step, 0, len(e.rules))

	for _, r := range e.rules {
		outcome := r.Eval(in)
		step := Step{Rule: r.Name, Outcome: outcome.String()}
		if outcome == Fired {
			res.Intents.Add(r.Emit...)
			step.Emitted = append([]string(nil), r.Emit...)
		}
		res.Trace = append(res.Trace, step)
	}

	return res
}
