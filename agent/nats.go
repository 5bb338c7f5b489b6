package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/nats-io/nats.go"

	"github.com/imkonsowa/paragourmet/config"
	"github.com/imkonsowa/paragourmet/models"
)

type NatsClient struct {
	conn    *nats.Conn
	js      nats.JetStreamContext
	subject string
}

func NewNatsClient(cfg config.Nats) (*NatsClient, error) {
	nc, err := nats.Connect(cfg.ConnStr(), nats.Name("paragourmet-agent"))
	if err != nil {
		return nil, errors.Wrapf(err, "connect to nats at %s", cfg.ConnStr())
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, errors.Wrap(err, "open jetstream context")
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:      cfg.Stream,
		Subjects:  []string{cfg.SuggestionsSubject},
		Storage:   nats.FileStorage,
		Retention: nats.LimitsPolicy,
		MaxAge:    time.Hour * 24 * 7,
	})
	if err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		nc.Close()
		return nil, errors.Wrapf(err, "add stream %s", cfg.Stream)
	}

	return &NatsClient{conn: nc, js: js, subject: cfg.SuggestionsSubject}, nil
}

func (c *NatsClient) Close() {
	c.conn.Close()
}

func (c *NatsClient) PublishSuggestion(ctx context.Context, event models.SuggestionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal suggestion event")
	}

	if _, err := c.js.Publish(c.subject, data, nats.Context(ctx), nats.MsgId(event.RequestID)); err != nil {
		return errors.Wrapf(err, "publish to %s", c.subject)
	}

	return nil
}
