package topic

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nwatkins/health-adviser/internal/model/topic"
	"github.com/nwatkins/health-adviser/pkg/utils"
)

// Handler serves the health topic catalog.
type Handler struct {
	topics topic.Store
}

// New creates the topic handler.
func New(topics topic.Store) *Handler {
	return &Handler{topics: topics}
}

// RegisterRoutes wires the topic routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/topics", h.handleListTopics)
	r.Get("/topics/{topicID}", h.handleGetTopic)
}

func (h *Handler) handleListTopics(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.topics.List())
}

func (h *Handler) handleGetTopic(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "topicID")
	found, ok := h.topics.FindByID(id)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "topic not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, found)
}
