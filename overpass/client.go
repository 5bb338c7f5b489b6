// Package overpass counts nearby points of interest through the Overpass API
// and reports which tag classes are present around a coordinate.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/imkonsowa/paragourmet/scene"
)

const DefaultURL = "https://overpass-api.de/api/interpreter"

// ErrUnavailable wraps every failure to reach or parse Overpass.
var ErrUnavailable = errors.Mark(errors.New("overpass unavailable"), scene.ErrUpstreamUnavailable)

// Tag is one POI class: its key as reported to callers and the Overpass
// selector that matches it.
type Tag struct {
	Key      string
	Selector string
}

// DefaultTags is ordered; results keep this order.
var DefaultTags = []Tag{
	{Key: "bus_stop", Selector: `nwr["highway"="bus_stop"]`},
	{Key: "subway_entrance", Selector: `nwr["railway"="subway_entrance"]`},
	{Key: "marketplace", Selector: `nwr["amenity"="marketplace"]`},
	{Key: "supermarket", Selector: `nwr["shop"="supermarket"]`},
	{Key: "convenience", Selector: `nwr["shop"="convenience"]`},
	{Key: "cafe", Selector: `nwr["amenity"="cafe"]`},
	{Key: "bakery", Selector: `nwr["shop"="bakery"]`},
	{Key: "ice_cream", Selector: `nwr["amenity"="ice_cream"]`},
	{Key: "park", Selector: `nwr["leisure"="park"]`},
	{Key: "river", Selector: `nwr["waterway"="river"]`},
	{Key: "office", Selector: `nwr["amenity"="office"]`},
	{Key: "school", Selector: `nwr["amenity"="school"]`},
	{Key: "university", Selector: `nwr["amenity"="university"]`},
}

type Options struct {
	URL           string
	Timeout       time.Duration
	Retries       int
	RatePerSecond float64
	Tags          []Tag
	Logger        *zap.SugaredLogger
}

type Client struct {
	url     string
	tags    []Tag
	http    *retryablehttp.Client
	limiter *rate.Limiter
	logger  *zap.SugaredLogger
}

func NewClient(opts Options) *Client {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = 1
	}
	if len(opts.Tags) == 0 {
		opts.Tags = DefaultTags
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}

	httpClient := retryablehttp.NewClient()
	httpClient.HTTPClient.Timeout = opts.Timeout
	httpClient.RetryMax = opts.Retries
	httpClient.RetryWaitMin = time.Second
	httpClient.RetryWaitMax = 8 * time.Second
	httpClient.Logger = leveledLogger{opts.Logger}

	return &Client{
		url:     opts.URL,
		tags:    opts.Tags,
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1),
		logger:  opts.Logger,
	}
}

// Query builds one request with an "out count" statement per tag.
func (c *Client) Query(lat, lon float64, radiusM int) string {
	var b strings.Builder
	b.WriteString("[out:json][timeout:25];")
	for _, t := range c.tags {
		fmt.Fprintf(&b, "(%s(around:%d,%f,%f);); out count;", t.Selector, radiusM, lat, lon)
	}

	return b.String()
}

type countResponse struct {
	Elements []struct {
		Type string            `json:"type"`
		Tags map[string]string `json:"tags"`
	} `json:"elements"`
}

// Nearby returns the keys of tag classes with at least one element within
// radiusM of the coordinate, in tag order.
func (c *Client) Nearby(ctx context.Context, lat, lon float64, radiusM int) ([]string, error) {
	counts, err := c.Counts(ctx, lat, lon, radiusM)
	if err != nil {
		return nil, err
	}

	var keys []string
	for _, t := range c.tags {
		if counts[t.Key] > 0 {
			keys = append(keys, t.Key)
		}
	}

	return keys, nil
}

// Counts returns the element count per tag key. Overpass answers the count
// statements in query order, so counts are mapped back by position.
func (c *Client) Counts(ctx context.Context, lat, lon float64, radiusM int) (map[string]int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "overpass rate limit wait")
	}

	form := url.Values{}
	form.Set("data", c.Query(lat, lon, radiusM))

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.url, []byte(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "build overpass request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(ErrUnavailable, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Wrapf(ErrUnavailable, "status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed countResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errors.Wrapf(ErrUnavailable, "decode response: %v", err)
	}

	counts := make(map[string]int, len(c.tags))
	i := 0
	for _, el := range parsed.Elements {
		if el.Type != "count" {
			continue
		}
		if i >= len(c.tags) {
			break
		}
		total, err := strconv.Atoi(el.Tags["total"])
		if err != nil {
			c.logger.Warnw("overpass count without numeric total", "tag", c.tags[i].Key, "total", el.Tags["total"])
		}
		counts[c.tags[i].Key] = total
		i++
	}

	return counts, nil
}

// leveledLogger adapts zap to retryablehttp's LeveledLogger.
type leveledLogger struct {
	l *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.l.Errorw(msg, keysAndValues...)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.l.Debugw(msg, keysAndValues...)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.l.Debugw(msg, keysAndValues...)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.l.Warnw(msg, keysAndValues...)
}
