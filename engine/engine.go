// Package engine wires the classifier, the intent rules and the composer into
// a single pure call: one Context in, one prompt out.
package engine

import (
	"github.com/imkonsowa/paragourmet/intent"
	"github.com/imkonsowa/paragourmet/poi"
	"github.com/imkonsowa/paragourmet/policy"
	"github.com/imkonsowa/paragourmet/prompt"
	"github.com/imkonsowa/paragourmet/scene"
)

type Result struct {
	Surroundings poi.SurroundingSet
	Intents      intent.Set
	Trace        []intent.Step
	Prompt       string
}

// Engine holds no per-request state and is safe for concurrent use.
type Engine struct {
	classifier *poi.Classifier
	rules      *intent.Engine
	composer   *prompt.Composer
}

func New(classifier *poi.Classifier, rules *intent.Engine, composer *prompt.Composer) *Engine {
	return &Engine{
		classifier: classifier,
		rules:      rules,
		composer:   composer,
	}
}

// NewFromPolicy builds an Engine with the default rule table and prompt text
// over the thresholds and synonyms in p.
func NewFromPolicy(p policy.Policy) *Engine {
	return New(
		poi.NewClassifier(p.Synonyms),
		intent.NewDefaultEngine(p),
		prompt.NewDefaultComposer(),
	)
}

func (e *Engine) Render(c scene.Context) Result {
	surroundings := e.classifier.Classify(c.RawPOIs)
	evaluation := e.rules.Evaluate(intent.Input{
		Context:      c,
		Surroundings: surroundings,
	})

	return Result{
		Surroundings: surroundings,
		Intents:      evaluation.Intents,
		Trace:        evaluation.Trace,
		Prompt:       e.composer.Compose(c, surroundings, evaluation.Intents),
	}
}
