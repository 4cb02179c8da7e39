// Package agent serves the riddle agent over A2A JSON-RPC.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/ashureev/riddler/internal/a2a"
	"github.com/ashureev/riddler/internal/api"
	"github.com/ashureev/riddler/internal/config"
	"github.com/ashureev/riddler/internal/intent"
	"github.com/ashureev/riddler/internal/metrics"
	"github.com/ashureev/riddler/internal/middleware"
	"github.com/ashureev/riddler/internal/session"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// defaultMaxRequestBodySize is the default maximum allowed request body size (1MB).
const defaultMaxRequestBodySize = 1 << 20

// Route is the A2A endpoint path.
const Route = "/a2a/riddler"

// Handler turns A2A requests into session controller calls.
type Handler struct {
	classifier  *intent.Classifier
	controller  *session.Controller
	log         ConversationLogger
	logger      *slog.Logger
	extract     a2a.ExtractOptions
	maxBodySize int64
	rateLimit   config.RateLimitConfig
}

// NewHandler creates the A2A handler. cfg may be nil for defaults.
func NewHandler(classifier *intent.Classifier, controller *session.Controller, conversationLogger ConversationLogger, cfg *config.Config, logger *slog.Logger) *Handler {
	if conversationLogger == nil {
		conversationLogger = noopConversationLogger{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	h := &Handler{
		classifier:  classifier,
		controller:  controller,
		log:         conversationLogger,
		logger:      logger,
		maxBodySize: defaultMaxRequestBodySize,
	}
	if cfg != nil {
		h.extract.MaxUtteranceLen = cfg.Intent.MaxUtteranceLen
		h.rateLimit = cfg.RateLimit
		if cfg.MaxRequestBodySize > 0 {
			h.maxBodySize = cfg.MaxRequestBodySize
		}
	}
	return h
}

// RegisterRoutes registers the A2A route behind the per-IP rate limiter.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RateLimit(middleware.RateLimitConfig{
		RequestLimit: h.rateLimit.RequestsPerWindow,
		WindowSize:   h.rateLimit.WindowDuration,
	})).Post(Route, h.HandleA2A)
}

// Close releases handler resources.
func (h *Handler) Close() {
	if err := h.log.Close(); err != nil {
		h.logger.Warn("failed to close conversation logger", "error", err)
	}
}

// HandleA2A handles POST /a2a/riddler. It always answers HTTP 200 with a
// JSON-RPC envelope; failures are reported in result.status.state.
func (h *Handler) HandleA2A(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	var payload any
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		h.logger.Warn("Malformed A2A payload, treating as empty", "error", err)
		payload = nil
	}

	ex := a2a.Extract(payload, h.extract)
	reqID := chiMiddleware.GetReqID(r.Context())

	resp := h.respond(r.Context(), ex, reqID)
	api.JSON(w, http.StatusOK, resp)
}

func (h *Handler) respond(ctx context.Context, ex a2a.Extraction, reqID string) (resp a2a.Response) {
	start := time.Now()
	in := intent.Intent{Kind: intent.Fallback}

	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("Panic while handling riddle request",
				"session_key", ex.SessionKey,
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			resp = a2a.RenderFailure(ex, fmt.Sprint(rec))
		}

		state := resp.Result.Status.State
		metrics.RequestsTotal.WithLabelValues(in.Kind.String(), state).Inc()
		text := ""
		if parts := resp.Result.Status.Message.Parts; len(parts) > 0 {
			text = parts[0].Text
		}
		h.logEvent(ex, "outbound", "agent_message", text, map[string]any{
			"request_id":  reqID,
			"state":       state,
			"duration_ms": time.Since(start).Milliseconds(),
		})
	}()

	in = h.classifier.Classify(ex.Utterance)
	h.logger.Info("Riddle request",
		"session_key", ex.SessionKey,
		"synthesized_key", ex.Synthesized,
		"intent", in.Kind.String(),
		"topic", in.Topic,
		"request_id", reqID,
	)
	h.logEvent(ex, "inbound", "user_message", ex.Utterance, map[string]any{
		"request_id": reqID,
		"intent":     in.Kind.String(),
	})

	reply, err := h.controller.Handle(ctx, ex.SessionKey, in)
	if err != nil {
		h.logger.Error("Riddle request failed", "session_key", ex.SessionKey, "error", err)
		return a2a.RenderFailure(ex, err.Error())
	}
	return a2a.Render(ex, reply.Text, &reply.Record)
}

func (h *Handler) logEvent(ex a2a.Extraction, direction, eventType, content string, meta map[string]any) {
	h.log.Log(ConversationLogEvent{
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		ContextID:  ex.ContextID,
		SessionID:  ex.SessionKey,
		Channel:    "a2a",
		Direction:  direction,
		EventType:  eventType,
		ContentRaw: content,
		Content:    cleanForReadability(content),
		Meta:       meta,
	})
}
