package main

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/imkonsowa/paragourmet/models"
)

type SuggestionStore interface {
	SaveSuggestion(ctx context.Context, record *models.SuggestionRecord) error
}

type Handler struct {
	store  SuggestionStore
	logger *zap.SugaredLogger
}

func NewHandler(store SuggestionStore, logger *zap.SugaredLogger) (*Handler, error) {
	if store == nil {
		return nil, errors.New("recorder handler needs a store")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &Handler{
		store:  store,
		logger: logger,
	}, nil
}

// HandleSuggestionEvent stores one published suggestion. Events that can
// never be stored are logged and dropped so they are acked, not redelivered.
func (h *Handler) HandleSuggestionEvent(ctx context.Context, msg []byte) error {
	var event models.SuggestionEvent
	if err := json.Unmarshal(msg, &event); err != nil {
		h.logger.Warnw("dropping undecodable suggestion event", "error", err)
		return nil
	}

	if err := event.Validate(); err != nil {
		h.logger.Warnw("dropping invalid suggestion event", "request_id", event.RequestID, "error", err)
		return nil
	}

	record := models.NewSuggestionRecord(event)
	if err := h.store.SaveSuggestion(ctx, &record); err != nil {
		return err
	}

	h.logger.Debugw("suggestion recorded", "request_id", event.RequestID, "record", record.Stringify())

	return nil
}
