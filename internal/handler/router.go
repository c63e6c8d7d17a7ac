package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	chathandler "github.com/nwatkins/health-adviser/internal/handler/chat"
	streamhandler "github.com/nwatkins/health-adviser/internal/handler/stream"
	topichandler "github.com/nwatkins/health-adviser/internal/handler/topic"
	voicehandler "github.com/nwatkins/health-adviser/internal/handler/voice"
	middlewarePkg "github.com/nwatkins/health-adviser/internal/middleware"
	topicmodel "github.com/nwatkins/health-adviser/internal/model/topic"
	"github.com/nwatkins/health-adviser/internal/service/conversation"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(topics topicmodel.Store, convSvc *conversation.Service, engine voicehandler.VoiceEngine) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	chatHandler := chathandler.New(convSvc)
	topicHandler := topichandler.New(topics)
	streamHandler := streamhandler.New(convSvc, nil)
	voiceHandler := voicehandler.New(engine, convSvc)

	r.Route("/api", func(api chi.Router) {
		chatHandler.RegisterRoutes(api)
		topicHandler.RegisterRoutes(api)
		streamHandler.RegisterRoutes(api)
		voiceHandler.RegisterRoutes(api)
	})

	return r
}
