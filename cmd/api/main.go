package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/nwatkins/health-adviser/internal/config"
	"github.com/nwatkins/health-adviser/internal/handler"
	"github.com/nwatkins/health-adviser/internal/model/topic"
	voicemodel "github.com/nwatkins/health-adviser/internal/model/voice"
	"github.com/nwatkins/health-adviser/internal/service/conversation"
	voiceservice "github.com/nwatkins/health-adviser/internal/service/voice"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	// Load .env file
	if err := godotenv.Load(); err != nil {
		slog.Warn("failed to load .env file, continuing with system environment", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	topicStore := topic.NewMemoryStore(topic.Seed())

	engine := buildVoiceEngine(cfg.Voice)
	caps := engine.Capabilities()
	slog.Info("voice engine ready", "capture", caps.Capture, "synthesis", caps.Synthesis)

	convSvc := conversation.NewService(conversation.Config{
		MaxHistory:  cfg.Chat.MaxHistory,
		TypingDelay: cfg.Chat.TypingDelay,
		Welcome:     cfg.Chat.Welcome,
		AutoPlay:    cfg.Voice.AutoPlay,
	}, conversation.Classify, conversation.WithSpeaker(engine))

	if err := convSvc.Initialize(ctx); err != nil {
		slog.Error("failed to initialize conversation", "error", err)
		os.Exit(1)
	}

	router := handler.NewRouter(topicStore, convSvc, engine)

	startServer(ctx, cfg.Server, router)
}

// buildVoiceEngine probes each provider independently. A provider that fails
// to initialize leaves its capability off and the rest of the assistant keeps
// working.
func buildVoiceEngine(cfg config.VoiceConfig) *voiceservice.Engine {
	if !cfg.Enabled {
		slog.Info("voice disabled by configuration")
		return voiceservice.NewEngine(nil, nil)
	}

	var rec voiceservice.Recognizer
	dumpDir := ""
	if cfg.DebugDump {
		dumpDir = os.TempDir()
	}
	whisperRec, err := voiceservice.NewWhisperRecognizer(voiceservice.RecognizerConfig{
		ModelPath: cfg.WhisperModel,
		Language:  cfg.Language,
		DumpDir:   dumpDir,
	})
	if err != nil {
		slog.Warn("voice capture unavailable, continuing text-only", "error", err)
	} else {
		rec = whisperRec
	}

	var synth voiceservice.Synthesizer
	espeak, err := voiceservice.NewEspeakSynthesizer()
	if err != nil {
		slog.Warn("speech synthesis unavailable, continuing text-only", "error", err)
	} else {
		synth = espeak
	}

	opts := []voiceservice.EngineOption{
		voiceservice.WithSpeakDefaults(voicemodel.SpeakRequest{
			Rate:     cfg.Rate,
			Pitch:    cfg.Pitch,
			Volume:   cfg.Volume,
			Language: cfg.Language,
		}),
	}
	if cfg.Chime {
		chime, err := voiceservice.NewChime()
		if err != nil {
			slog.Warn("listen chime unavailable", "error", err)
		} else {
			opts = append(opts, voiceservice.WithChime(chime))
		}
	}

	return voiceservice.NewEngine(rec, synth, opts...)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	slog.Info("health adviser listening", "addr", addr)
	if err := runServer(ctx, srv); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
