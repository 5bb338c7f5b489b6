package main

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/imkonsowa/paragourmet/config"
	"github.com/imkonsowa/paragourmet/scene"
	"github.com/imkonsowa/paragourmet/suggest"
)

type Agent struct {
	config   config.Server
	handler  *Handler
	upgrader websocket.Upgrader
	logger   *zap.SugaredLogger
}

func NewAgent(cfg config.Server, handler *Handler, logger *zap.SugaredLogger) *Agent {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &Agent{
		config:  cfg,
		handler: handler,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(cfg.AllowedOrigins),
		},
		logger: logger,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}

		return false
	}
}

// StatusFor maps an error to the HTTP status the API answers with.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, scene.ErrValidation), errors.Is(err, suggest.ErrUnsupportedLang):
		return http.StatusBadRequest
	case errors.Is(err, scene.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (a *Agent) abort(ctx *gin.Context, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		a.logger.Errorw("request failed", "path", ctx.FullPath(), "status", status, "error", err)
	} else {
		a.logger.Infow("bad request", "path", ctx.FullPath(), "error", err)
	}

	body := gin.H{"error": err.Error()}
	if field := scene.FieldOf(err); field != "" {
		body["field"] = field
	}
	ctx.JSON(status, body)
}

func (a *Agent) requestContext(ctx *gin.Context) (context.Context, context.CancelFunc) {
	if a.config.RequestTimeout <= 0 {
		return context.WithCancel(ctx.Request.Context())
	}

	return context.WithTimeout(ctx.Request.Context(), a.config.RequestTimeout)
}

func (a *Agent) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), a.requestLogger())

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"ok": true})
	})

	r.GET("/api/prompt", func(ctx *gin.Context) {
		req := NewPromptRequest(ctx.Request.URL.Query())

		rctx, cancel := a.requestContext(ctx)
		defer cancel()

		_, res, err := a.handler.Prompt(rctx, req)
		if err != nil {
			a.abort(ctx, err)
			return
		}

		ctx.JSON(http.StatusOK, NewPromptResponse(res, req.Debug))
	})

	r.GET("/api/suggestion", func(ctx *gin.Context) {
		req := NewSuggestionRequest(ctx.Request.URL.Query())

		rctx, cancel := a.requestContext(ctx)
		defer cancel()

		resp, err := a.handler.Suggest(rctx, req, nil, nil)
		if err != nil {
			a.abort(ctx, err)
			return
		}

		ctx.JSON(http.StatusOK, resp)
	})

	r.GET("/ws/suggestion", func(ctx *gin.Context) {
		req := NewSuggestionRequest(ctx.Request.URL.Query())
		if err := req.Validate(); err != nil {
			a.abort(ctx, err)
			return
		}

		c, err := a.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
		if err != nil {
			a.logger.Warnw("websocket upgrade failed", "error", err)
			return
		}
		defer c.Close()

		rctx, cancel := a.requestContext(ctx)
		defer cancel()

		resultChan := a.handler.SuggestStream(rctx, req)
		for {
			select {
			case <-rctx.Done():
				return
			case result, ok := <-resultChan:
				if !ok || result == nil {
					return
				}
				if result.Err != nil {
					if errors.Is(result.Err, io.EOF) {
						return
					}
					msg := WebSocketsMessage{Type: MessageError, Data: gin.H{"status": StatusFor(result.Err), "error": result.Err.Error()}}
					if err := c.WriteJSON(msg); err != nil {
						a.logger.Errorw("failed to write to ws connection", "error", err)
					}
					return
				}

				if err := c.WriteJSON(result.Msg); err != nil {
					a.logger.Errorw("failed to write to ws connection", "error", err)
					return
				}
			}
		}
	})

	return r
}

func (a *Agent) requestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()
		a.logger.Debugw("request",
			"method", ctx.Request.Method,
			"path", ctx.Request.URL.Path,
			"status", ctx.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// Handler wraps the router with CORS for the configured origins.
func (a *Agent) Handler() http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: a.config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}).Handler(a.Router())
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (a *Agent) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.config.Address(),
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		a.logger.Infow("agent listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		return errors.Wrap(err, "serve")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
