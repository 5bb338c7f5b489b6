package main

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/imkonsowa/paragourmet/intent"
	"github.com/imkonsowa/paragourmet/scene"
	"github.com/imkonsowa/paragourmet/suggest"
)

const (
	// QueryPOIs carries a comma separated POI list that replaces the Overpass
	// lookup.
	QueryPOIs          = "pois"
	QueryDebug         = "debug"
	QueryLang          = "lang"
	QueryDiversityMode = "diversity_mode"
	QuerySession       = "session"
)

var sceneKeys = []string{
	scene.KeyLat,
	scene.KeyLon,
	scene.KeyCity,
	scene.KeyDistrict,
	scene.KeyTempC,
	scene.KeySky,
	scene.KeyHumidity,
	scene.KeyRadius,
	scene.KeyDatetime,
}

type PromptRequest struct {
	Raw   scene.Raw
	POIs  []string
	Debug bool
}

func NewPromptRequest(q url.Values) PromptRequest {
	req := PromptRequest{Raw: scene.Raw{}}
	for _, k := range sceneKeys {
		if q.Has(k) {
			req.Raw[k] = q.Get(k)
		}
	}

	if q.Has(QueryPOIs) {
		req.POIs = []string{}
		for _, p := range strings.Split(q.Get(QueryPOIs), ",") {
			if p = strings.TrimSpace(p); p != "" {
				req.POIs = append(req.POIs, p)
			}
		}
	}

	req.Debug, _ = strconv.ParseBool(q.Get(QueryDebug))

	return req
}

type SuggestionRequest struct {
	PromptRequest
	Lang          string
	DiversityMode bool
	Session       string
}

func NewSuggestionRequest(q url.Values) SuggestionRequest {
	req := SuggestionRequest{
		PromptRequest: NewPromptRequest(q),
		Lang:          q.Get(QueryLang),
		Session:       q.Get(QuerySession),
	}
	if req.Lang == "" {
		req.Lang = suggest.LangEnglish
	}
	req.DiversityMode = strings.EqualFold(q.Get(QueryDiversityMode), "true")

	return req
}

func (r *SuggestionRequest) Validate() error {
	if !suggest.ValidLang(r.Lang) {
		return errors.Wrapf(suggest.ErrUnsupportedLang, "lang must be %q or %q, got %q", suggest.LangEnglish, suggest.LangKorean, r.Lang)
	}

	return nil
}

type PromptResponse struct {
	Prompt       string        `json:"prompt"`
	Surroundings []string      `json:"surroundings,omitempty"`
	Intents      []string      `json:"intents,omitempty"`
	Trace        []intent.Step `json:"trace,omitempty"`
}

type SuggestionResponse struct {
	Suggestion string `json:"suggestion"`
	Reason     string `json:"reason"`
	ImageURL   string `json:"image_url"`
}

type WebSocketsMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

const (
	MessagePrompt     = "prompt"
	MessageChunk      = "chunk"
	MessageSuggestion = "suggestion"
	MessageError      = "error"
)

type ProcessingResult struct {
	Err error
	Msg WebSocketsMessage
}
