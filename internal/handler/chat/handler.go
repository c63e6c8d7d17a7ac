package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nwatkins/health-adviser/internal/service/conversation"
	"github.com/nwatkins/health-adviser/pkg/utils"
)

// Handler exposes the conversation session over HTTP.
type Handler struct {
	convSvc *conversation.Service
}

// New creates the chat handler.
func New(convSvc *conversation.Service) *Handler {
	return &Handler{convSvc: convSvc}
}

// RegisterRoutes wires the session and message routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Get("/session", h.handleGetSession)
	r.Post("/session/reset", h.handleResetSession)
	r.Post("/messages", h.handleSubmitMessage)
	r.Get("/messages", h.handleListMessages)
}

// handleCreateSession initializes the session. Repeat calls return the
// existing session unchanged.
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if err := h.convSvc.Initialize(r.Context()); err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusCreated, h.convSvc.Session())
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session := h.convSvc.Session()
	if !session.Ready {
		utils.RespondError(w, http.StatusNotFound, "session not initialized")
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

// handleResetSession issues a fresh session ID. The transcript survives.
func (h *Handler) handleResetSession(w http.ResponseWriter, r *http.Request) {
	if !h.convSvc.Ready() {
		utils.RespondError(w, http.StatusNotFound, "session not initialized")
		return
	}
	h.convSvc.Reset()
	utils.RespondJSON(w, http.StatusOK, h.convSvc.Session())
}

// handleSubmitMessage runs one conversation turn and responds with the user
// message and the assistant reply once the turn settles.
func (h *Handler) handleSubmitMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Content string `json:"content"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	done, err := h.convSvc.Submit(r.Context(), payload.Content)
	if err != nil {
		utils.RespondError(w, submitStatus(err), err.Error())
		return
	}

	select {
	case res := <-done:
		if res.Err != nil {
			utils.RespondJSON(w, http.StatusInternalServerError, map[string]any{
				"error": res.Err.Error(),
				"user":  res.User,
				"reply": res.Reply,
			})
			return
		}
		utils.RespondJSON(w, http.StatusCreated, map[string]any{
			"user":  res.User,
			"reply": res.Reply,
		})
	case <-r.Context().Done():
		// The turn settles in the background and lands in the history.
	}
}

func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	if !h.convSvc.Ready() {
		utils.RespondError(w, http.StatusNotFound, "session not initialized")
		return
	}
	utils.RespondJSON(w, http.StatusOK, h.convSvc.History())
}

func submitStatus(err error) int {
	switch {
	case errors.Is(err, conversation.ErrTurnInFlight):
		return http.StatusConflict
	case errors.Is(err, conversation.ErrNotReady):
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}
