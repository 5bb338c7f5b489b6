package main

import (
	"context"
	"io"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/imkonsowa/paragourmet/engine"
	"github.com/imkonsowa/paragourmet/imagesearch"
	"github.com/imkonsowa/paragourmet/models"
	"github.com/imkonsowa/paragourmet/scene"
	"github.com/imkonsowa/paragourmet/suggest"
	"github.com/imkonsowa/paragourmet/weather"
)

// POIProvider lists the tag classes present around a coordinate.
type POIProvider interface {
	Nearby(ctx context.Context, lat, lon float64, radiusM int) ([]string, error)
}

type Suggester interface {
	Suggest(ctx context.Context, req suggest.Request, stream suggest.StreamFunc) (*suggest.Suggestion, error)
}

type EventPublisher interface {
	PublishSuggestion(ctx context.Context, event models.SuggestionEvent) error
}

// Handler gathers context from the collaborators and runs the engine. Any
// collaborator may be nil; the corresponding step is then skipped.
type Handler struct {
	normalizer *scene.Normalizer
	engine     *engine.Engine
	weather    weather.Provider
	pois       POIProvider
	suggester  Suggester
	images     imagesearch.Searcher
	events     EventPublisher
	logger     *zap.SugaredLogger
	now        func() time.Time
}

type HandlerDeps struct {
	Normalizer *scene.Normalizer
	Engine     *engine.Engine
	Weather    weather.Provider
	POIs       POIProvider
	Suggester  Suggester
	Images     imagesearch.Searcher
	Events     EventPublisher
	Logger     *zap.SugaredLogger
}

func NewHandler(deps HandlerDeps) (*Handler, error) {
	if deps.Normalizer == nil || deps.Engine == nil {
		return nil, errors.New("handler needs a normalizer and an engine")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop().Sugar()
	}

	return &Handler{
		normalizer: deps.Normalizer,
		engine:     deps.Engine,
		weather:    deps.Weather,
		pois:       deps.POIs,
		suggester:  deps.Suggester,
		images:     deps.Images,
		events:     deps.Events,
		logger:     deps.Logger,
		now:        time.Now,
	}, nil
}

// BuildScene normalizes req into a Context. Weather is fetched only when the
// request carries no weather field at all; POIs are fetched only when the
// request carries none. Weather and POIs are looked up concurrently.
func (h *Handler) BuildScene(ctx context.Context, req PromptRequest) (scene.Context, error) {
	raw := req.Raw
	needWeather := !raw.HasWeather() && h.weather != nil
	needPOIs := req.POIs == nil && h.pois != nil

	if !needWeather && !needPOIs {
		return h.normalizer.Normalize(raw, req.POIs)
	}

	located, err := h.normalizer.Locate(raw)
	if err != nil {
		return scene.Context{}, err
	}
	lat, lon, radius := located.Location.Lat, located.Location.Lon, located.RadiusM

	var current scene.Weather
	pois := req.POIs

	g, gctx := errgroup.WithContext(ctx)
	if needWeather {
		g.Go(func() error {
			w, err := h.weather.Current(gctx, lat, lon)
			if err != nil {
				return errors.Wrap(err, "fetch weather")
			}
			current = w

			return nil
		})
	}
	if needPOIs {
		g.Go(func() error {
			found, err := h.pois.Nearby(gctx, lat, lon, radius)
			if err != nil {
				h.logger.Warnw("poi lookup failed, continuing without surroundings", "lat", lat, "lon", lon, "radius", radius, "error", err)
				return nil
			}
			pois = found

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return scene.Context{}, err
	}

	if needWeather {
		raw = raw.WithWeather(current)
	}

	return h.normalizer.Normalize(raw, pois)
}

func (h *Handler) Prompt(ctx context.Context, req PromptRequest) (scene.Context, engine.Result, error) {
	c, err := h.BuildScene(ctx, req)
	if err != nil {
		return scene.Context{}, engine.Result{}, err
	}

	return c, h.engine.Render(c), nil
}

func NewPromptResponse(res engine.Result, debug bool) PromptResponse {
	resp := PromptResponse{Prompt: res.Prompt}
	if debug {
		resp.Surroundings = res.Surroundings.Labels()
		resp.Intents = res.Intents.Labels()
		resp.Trace = res.Trace
	}

	return resp
}

// Suggest runs the full cycle: scene, prompt, model suggestion, image lookup
// and event publishing. onPrompt and stream may be nil.
func (h *Handler) Suggest(
	ctx context.Context,
	req SuggestionRequest,
	onPrompt func(prompt string),
	stream suggest.StreamFunc,
) (*SuggestionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if h.suggester == nil {
		return nil, errors.New("suggestions are not configured")
	}

	c, res, err := h.Prompt(ctx, req.PromptRequest)
	if err != nil {
		return nil, err
	}
	if onPrompt != nil {
		onPrompt(res.Prompt)
	}

	s, err := h.suggester.Suggest(ctx, suggest.Request{
		Prompt:        res.Prompt,
		Lang:          req.Lang,
		DiversityMode: req.DiversityMode,
		Session:       req.Session,
	}, stream)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get suggestion")
	}

	resp := &SuggestionResponse{
		Suggestion: s.Suggestion,
		Reason:     s.Reason,
		ImageURL:   imagesearch.URLOrFallback(ctx, h.images, s.Suggestion, req.Lang, h.logger),
	}

	h.publish(ctx, req, c, res, resp)

	return resp, nil
}

func (h *Handler) publish(ctx context.Context, req SuggestionRequest, c scene.Context, res engine.Result, resp *SuggestionResponse) {
	if h.events == nil {
		return
	}

	event := models.SuggestionEvent{
		RequestID:    uuid.New().String(),
		Session:      req.Session,
		Lang:         req.Lang,
		Lat:          c.Location.Lat,
		Lon:          c.Location.Lon,
		City:         c.Location.City,
		TempC:        c.Weather.TempC,
		Humidity:     c.Weather.Humidity,
		Surroundings: res.Surroundings.Labels(),
		Intents:      res.Intents.Labels(),
		Suggestion:   resp.Suggestion,
		Reason:       resp.Reason,
		LocalTime:    c.Local,
		CreatedAt:    h.now().UTC(),
	}
	if c.Location.HasDistrict() {
		event.District = *c.Location.District
	}
	if c.Weather.HasSky() {
		event.Sky = *c.Weather.Sky
	}
	if resp.ImageURL != imagesearch.NoImage {
		event.ImageURL = resp.ImageURL
	}

	if err := h.events.PublishSuggestion(ctx, event); err != nil {
		h.logger.Warnw("failed to publish suggestion event", "request_id", event.RequestID, "error", err)
	}
}

// SuggestStream runs Suggest and reports progress on the returned channel:
// the prompt, model chunks, then the final suggestion. The channel ends with
// io.EOF on success or an error result, and is then closed.
func (h *Handler) SuggestStream(ctx context.Context, req SuggestionRequest) chan *ProcessingResult {
	resultChan := make(chan *ProcessingResult)

	go func() {
		defer close(resultChan)

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		send := func(r *ProcessingResult) bool {
			select {
			case resultChan <- r:
				return true
			case <-ctx.Done():
				return false
			}
		}

		resp, err := h.Suggest(ctx, req,
			func(prompt string) {
				send(&ProcessingResult{Msg: WebSocketsMessage{Type: MessagePrompt, Data: prompt}})
			},
			func(ctx context.Context, chunk []byte) error {
				if !send(&ProcessingResult{Msg: WebSocketsMessage{Type: MessageChunk, Data: string(chunk)}}) {
					return ctx.Err()
				}

				return nil
			},
		)
		if err != nil {
			send(&ProcessingResult{Err: err})
			return
		}

		if !send(&ProcessingResult{Msg: WebSocketsMessage{Type: MessageSuggestion, Data: resp}}) {
			return
		}

		send(&ProcessingResult{Err: io.EOF})
	}()

	return resultChan
}
