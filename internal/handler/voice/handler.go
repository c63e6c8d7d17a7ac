package voice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	voicemodel "github.com/nwatkins/health-adviser/internal/model/voice"
	"github.com/nwatkins/health-adviser/internal/service/conversation"
	voiceservice "github.com/nwatkins/health-adviser/internal/service/voice"
	"github.com/nwatkins/health-adviser/pkg/utils"
)

// VoiceEngine is the part of the voice service the handlers depend on.
type VoiceEngine interface {
	Capabilities() voicemodel.Capability
	State() voicemodel.State
	StartListening(ctx context.Context) (<-chan voiceservice.ListenResult, error)
	StopListening()
	Speak(ctx context.Context, req voicemodel.SpeakRequest) (<-chan error, error)
	StopSpeaking()
	Subscribe() (<-chan voicemodel.State, func())
}

// Handler exposes microphone capture and speech synthesis over HTTP.
type Handler struct {
	engine  VoiceEngine
	convSvc *conversation.Service
}

// New creates the voice handler.
func New(engine VoiceEngine, convSvc *conversation.Service) *Handler {
	return &Handler{engine: engine, convSvc: convSvc}
}

// RegisterRoutes wires the voice routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/voice", func(v chi.Router) {
		v.Get("/capabilities", h.handleCapabilities)
		v.Get("/state", h.handleState)
		v.Post("/listen", h.handleStartListening)
		v.Post("/listen/stop", h.handleStopListening)
		v.Post("/speak", h.handleSpeak)
		v.Post("/speak/stop", h.handleStopSpeaking)
		v.Post("/stop", h.handleStopAll)
		v.Get("/ws", h.handleWebSocket)
	})
}

func (h *Handler) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.engine.Capabilities())
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]voicemodel.State{"state": h.engine.State()})
}

// handleStartListening blocks until the utterance is transcribed, then runs
// it through the conversation like typed input.
func (h *Handler) handleStartListening(w http.ResponseWriter, r *http.Request) {
	results, err := h.engine.StartListening(r.Context())
	if err != nil {
		utils.RespondError(w, listenStatus(err), err.Error())
		return
	}

	select {
	case res := <-results:
		if res.Err != nil {
			utils.RespondError(w, listenStatus(res.Err), res.Err.Error())
			return
		}
		utils.RespondJSON(w, http.StatusOK, res.Transcript)
	case <-r.Context().Done():
		h.engine.StopListening()
	}
}

func (h *Handler) handleStopListening(w http.ResponseWriter, r *http.Request) {
	h.engine.StopListening()
	utils.RespondJSON(w, http.StatusOK, map[string]voicemodel.State{"state": h.engine.State()})
}

// handleSpeak speaks the supplied text, interrupting any active utterance.
func (h *Handler) handleSpeak(w http.ResponseWriter, r *http.Request) {
	var req voicemodel.SpeakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		utils.RespondError(w, http.StatusBadRequest, "text is required")
		return
	}

	done, err := h.engine.Speak(r.Context(), req)
	if err != nil {
		utils.RespondError(w, speakStatus(err), err.Error())
		return
	}

	select {
	case err := <-done:
		switch {
		case errors.Is(err, voiceservice.ErrUtteranceInterrupted):
			utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "interrupted"})
		case err != nil:
			utils.RespondError(w, http.StatusInternalServerError, err.Error())
		default:
			utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "completed"})
		}
	case <-r.Context().Done():
	}
}

func (h *Handler) handleStopSpeaking(w http.ResponseWriter, r *http.Request) {
	h.engine.StopSpeaking()
	utils.RespondJSON(w, http.StatusOK, map[string]voicemodel.State{"state": h.engine.State()})
}

// handleStopAll silences the engine whichever side is active.
func (h *Handler) handleStopAll(w http.ResponseWriter, r *http.Request) {
	h.engine.StopListening()
	h.engine.StopSpeaking()
	utils.RespondJSON(w, http.StatusOK, map[string]voicemodel.State{"state": h.engine.State()})
}

func listenStatus(err error) int {
	switch {
	case errors.Is(err, voiceservice.ErrCaptureUnsupported):
		return http.StatusServiceUnavailable
	case errors.Is(err, voiceservice.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, voiceservice.ErrListeningCanceled):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func speakStatus(err error) int {
	if errors.Is(err, voiceservice.ErrSynthesisUnsupported) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
