package main

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/imkonsowa/paragourmet/config"
)

type Client struct {
	conn   *nats.Conn
	js     nats.JetStreamContext
	logger *zap.SugaredLogger
}

func NewNats(cfg config.Nats, logger *zap.SugaredLogger) (*Client, error) {
	nc, err := nats.Connect(cfg.ConnStr(), nats.Name("paragourmet-recorder"))
	if err != nil {
		return nil, errors.Wrapf(err, "connect to nats at %s", cfg.ConnStr())
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, errors.Wrap(err, "open jetstream context")
	}

	return &Client{
		conn:   nc,
		js:     js,
		logger: logger,
	}, nil
}

func (c *Client) Close() {
	c.conn.Close()
}

// ConsumerName derives a durable consumer name from a subject.
func ConsumerName(subject string) string {
	return strings.ReplaceAll(subject+".recorder", ".", "-")
}

// Subscribe pulls messages from subject into pool until ctx is cancelled.
func (c *Client) Subscribe(ctx context.Context, subject string, pool *WorkerPool) error {
	subscription, err := c.js.PullSubscribe(subject, ConsumerName(subject), nats.ManualAck())
	if err != nil {
		return errors.Wrapf(err, "pull subscribe %s", subject)
	}

	for {
		select {
		case <-ctx.Done():
			if err := subscription.Unsubscribe(); err != nil {
				c.logger.Warnw("failed to unsubscribe from subject", "subject", subject, "error", err)
			}

			return nil
		default:
			msgs, err := subscription.Fetch(4, nats.MaxWait(200*time.Millisecond))
			if err != nil && !errors.Is(err, nats.ErrTimeout) {
				if ctx.Err() != nil {
					continue
				}
				return errors.Wrapf(err, "fetch from %s", subject)
			}

			for _, msg := range msgs {
				if !pool.Submit(ctx, natsJob{msg: msg}) {
					break
				}
			}
		}
	}
}
