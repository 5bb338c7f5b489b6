package suggest

import (
	"github.com/cockroachdb/errors"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/imkonsowa/paragourmet/config"
)

// NewModel builds the chat model named by cfg.Provider.
func NewModel(cfg config.LLM) (llms.Model, error) {
	switch cfg.Provider {
	case "", "openai":
		opts := []openai.Option{openai.WithModel(cfg.Model)}
		if cfg.APIKey != "" {
			opts = append(opts, openai.WithToken(cfg.APIKey))
		}
		if cfg.ServerURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.ServerURL))
		}

		llm, err := openai.New(opts...)
		if err != nil {
			return nil, errors.Wrap(err, "create openai model")
		}

		return llm, nil
	case "ollama":
		opts := []ollama.Option{ollama.WithModel(cfg.Model)}
		if cfg.ServerURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.ServerURL))
		}

		llm, err := ollama.New(opts...)
		if err != nil {
			return nil, errors.Wrap(err, "create ollama model")
		}

		return llm, nil
	default:
		return nil, errors.Newf("unknown llm provider %q", cfg.Provider)
	}
}
