package suggest

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
	_ "github.com/mattn/go-sqlite3"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/memory/sqlite3"
)

const DefaultHistoryLimit = 5

// History remembers what was suggested per session so diversity mode can
// steer away from repeats.
type History interface {
	Recent(ctx context.Context, session string) ([]string, error)
	Remember(ctx context.Context, session, suggestion string) error
}

type SqliteHistory struct {
	db    *sql.DB
	limit int
}

func OpenSqliteHistory(path string, limit int) (*SqliteHistory, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open history db %s", path)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "ping history db %s", path)
	}

	if limit < 1 {
		limit = DefaultHistoryLimit
	}

	return &SqliteHistory{db: db, limit: limit}, nil
}

func (h *SqliteHistory) chat(session string) *sqlite3.SqliteChatMessageHistory {
	return sqlite3.NewSqliteChatMessageHistory(
		sqlite3.WithSession(session),
		sqlite3.WithDB(h.db),
	)
}

// Recent returns up to the configured number of the latest suggestions for
// session, oldest first.
func (h *SqliteHistory) Recent(ctx context.Context, session string) ([]string, error) {
	messages, err := h.chat(session).Messages(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "read history for session %s", session)
	}

	var out []string
	for _, m := range messages {
		if m.GetType() == llms.ChatMessageTypeAI {
			out = append(out, m.GetContent())
		}
	}
	if len(out) > h.limit {
		out = out[len(out)-h.limit:]
	}

	return out, nil
}

func (h *SqliteHistory) Remember(ctx context.Context, session, suggestion string) error {
	if err := h.chat(session).AddAIMessage(ctx, suggestion); err != nil {
		return errors.Wrapf(err, "store history for session %s", session)
	}

	return nil
}

func (h *SqliteHistory) Close() error {
	return h.db.Close()
}
