// Package imagesearch looks up a representative photo for a suggested dish.
package imagesearch

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// NoImage is what callers show when no image could be found.
const NoImage = "No image found"

var ErrNoImage = errors.New("no image results")

type Searcher interface {
	FirstImage(ctx context.Context, query, lang string) (string, error)
}

// Query decorates a dish name so the search favours food photos.
func Query(dish, lang string) string {
	if lang == "ko" {
		return fmt.Sprintf("%s 음식 사진", dish)
	}

	return fmt.Sprintf("%s food photography", dish)
}

type Google struct {
	svc      *customsearch.Service
	engineID string
	logger   *zap.SugaredLogger
}

// NewGoogle builds a Custom Search client. Extra client options, such as an
// endpoint override, are passed through.
func NewGoogle(ctx context.Context, apiKey, engineID string, logger *zap.SugaredLogger, opts ...option.ClientOption) (*Google, error) {
	if apiKey == "" || engineID == "" {
		return nil, errors.New("image search needs an api key and an engine id")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	svc, err := customsearch.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, errors.Wrap(err, "create custom search service")
	}

	return &Google{svc: svc, engineID: engineID, logger: logger}, nil
}

func (g *Google) FirstImage(ctx context.Context, dish, lang string) (string, error) {
	res, err := g.svc.Cse.List().
		Q(Query(dish, lang)).
		Cx(g.engineID).
		SearchType("image").
		Num(1).
		ImgSize("LARGE").
		Safe("active").
		Context(ctx).
		Do()
	if err != nil {
		return "", errors.Wrap(err, "custom search")
	}

	if len(res.Items) == 0 || res.Items[0].Link == "" {
		g.logger.Warnw("no image results", "query", dish)
		return "", ErrNoImage
	}

	return res.Items[0].Link, nil
}

// URLOrFallback returns the first image link for dish or NoImage. Failures are
// logged, never returned.
func URLOrFallback(ctx context.Context, s Searcher, dish, lang string, logger *zap.SugaredLogger) string {
	if s == nil {
		return NoImage
	}

	link, err := s.FirstImage(ctx, dish, lang)
	if err != nil {
		if !errors.Is(err, ErrNoImage) && logger != nil {
			logger.Errorw("image search failed", "query", dish, "error", err)
		}
		return NoImage
	}

	return link
}
