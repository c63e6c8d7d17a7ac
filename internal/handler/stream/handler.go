package stream

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nwatkins/health-adviser/internal/service/conversation"
	"github.com/nwatkins/health-adviser/pkg/utils"
)

const heartbeatInterval = 8 * time.Second

// Handler streams transcript updates to browser clients over SSE.
type Handler struct {
	convSvc *conversation.Service
	logger  *slog.Logger
}

// New creates the stream handler.
func New(convSvc *conversation.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{convSvc: convSvc, logger: logger}
}

// RegisterRoutes wires the event stream route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/events", h.handleEvents)
}

// handleEvents pushes every transcript message as a named SSE event, with
// periodic heartbeats so proxies keep the connection open.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	utils.SetupSSEHeaders(w)

	ctx := r.Context()
	messages, cancel := h.convSvc.Subscribe()
	defer cancel()

	h.logger.Info("opening event stream", "session", h.convSvc.SessionID())

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	utils.SendSSEChunk(w, flusher, map[string]any{
		"event":   "status",
		"message": "stream established",
	})

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("closing event stream", "session", h.convSvc.SessionID())
			return
		case msg := <-messages:
			utils.SendSSEEvent(w, flusher, "message", msg)
		case t := <-ticker.C:
			utils.SendSSEChunk(w, flusher, map[string]any{
				"event": "heartbeat",
				"time":  t.UTC().Format(time.RFC3339),
			})
		}
	}
}
