// Package suggest asks a chat model for one food or drink item given a
// composed prompt.
package suggest

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

const (
	LangEnglish = "en"
	LangKorean  = "ko"

	DefaultSession = "default"
)

var (
	ErrMalformedResponse = errors.New("model response is not a suggestion")
	ErrUnsupportedLang   = errors.New("unsupported language")
)

const baseSystemMessage = "You are an AI that suggests a single food or drink item based on a detailed prompt. " +
	"You must follow all rules and output only a single, clean JSON object with two keys: suggestion and reason."

type Request struct {
	Prompt        string
	Lang          string
	DiversityMode bool
	Session       string
}

type Suggestion struct {
	Suggestion string `json:"suggestion"`
	Reason     string `json:"reason"`
}

// StreamFunc receives raw model output as it is generated.
type StreamFunc func(ctx context.Context, chunk []byte) error

type Options struct {
	Temperature float64
	MaxTokens   int
	History     History
	Logger      *zap.SugaredLogger
}

type Service struct {
	model       llms.Model
	history     History
	temperature float64
	maxTokens   int
	logger      *zap.SugaredLogger
}

func NewService(model llms.Model, opts Options) *Service {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 200
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}

	return &Service{
		model:       model,
		history:     opts.History,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
		logger:      opts.Logger,
	}
}

func ValidLang(lang string) bool {
	return lang == LangEnglish || lang == LangKorean
}

// SystemMessage builds the instruction sent ahead of the prompt. previous is
// only used in diversity mode.
func SystemMessage(lang string, diversity bool, previous []string) string {
	var b strings.Builder
	b.WriteString(baseSystemMessage)

	switch lang {
	case LangKorean:
		b.WriteString(" Respond in Korean (한국어), in a friendly, casual tone that would fit an Instagram feed.")
	case LangEnglish:
		b.WriteString(" Respond in English.")
	}

	if diversity {
		b.WriteString(" If the same request was made before, suggest a different suitable option.")
		if len(previous) > 0 {
			b.WriteString(" Already suggested: ")
			b.WriteString(strings.Join(previous, ", "))
			b.WriteString(".")
		}
	}

	return b.String()
}

func (s *Service) Suggest(ctx context.Context, req Request, stream StreamFunc) (*Suggestion, error) {
	if req.Lang == "" {
		req.Lang = LangEnglish
	}
	if !ValidLang(req.Lang) {
		return nil, errors.Wrapf(ErrUnsupportedLang, "%q", req.Lang)
	}
	if req.Session == "" {
		req.Session = DefaultSession
	}

	var previous []string
	if req.DiversityMode && s.history != nil {
		var err error
		previous, err = s.history.Recent(ctx, req.Session)
		if err != nil {
			s.logger.Warnw("failed to read suggestion history", "session", req.Session, "error", err)
		}
	}

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(SystemMessage(req.Lang, req.DiversityMode, previous))},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(req.Prompt)},
		},
	}

	opts := []llms.CallOption{
		llms.WithJSONMode(),
		llms.WithTemperature(s.temperature),
		llms.WithMaxTokens(s.maxTokens),
	}
	if stream != nil {
		opts = append(opts, llms.WithStreamingFunc(stream))
	}

	content, err := s.model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "generate suggestion")
	}
	if content == nil || len(content.Choices) == 0 {
		return nil, errors.Wrap(ErrMalformedResponse, "no choices")
	}

	payload := content.Choices[0].Content
	suggestion, err := Parse(payload)
	if err != nil {
		s.logger.Errorw("model response is missing required keys", "content", payload)
		return nil, err
	}

	if s.history != nil {
		if err := s.history.Remember(ctx, req.Session, suggestion.Suggestion); err != nil {
			s.logger.Warnw("failed to store suggestion history", "session", req.Session, "error", err)
		}
	}

	return suggestion, nil
}

// Parse decodes a model answer. Both keys must be present and non-empty; a
// surrounding markdown code fence is tolerated.
func Parse(payload string) (*Suggestion, error) {
	payload = strings.TrimSpace(payload)
	if strings.HasPrefix(payload, "```") {
		payload = strings.TrimPrefix(payload, "```json")
		payload = strings.TrimPrefix(payload, "```")
		payload = strings.TrimSuffix(strings.TrimSpace(payload), "```")
	}

	var raw struct {
		Suggestion *string `json:"suggestion"`
		Reason     *string `json:"reason"`
	}
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, errors.Wrapf(ErrMalformedResponse, "decode: %v", err)
	}
	if raw.Suggestion == nil || strings.TrimSpace(*raw.Suggestion) == "" {
		return nil, errors.Wrap(ErrMalformedResponse, "missing suggestion")
	}
	if raw.Reason == nil {
		return nil, errors.Wrap(ErrMalformedResponse, "missing reason")
	}

	return &Suggestion{
		Suggestion: strings.TrimSpace(*raw.Suggestion),
		Reason:     strings.TrimSpace(*raw.Reason),
	}, nil
}
