package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nwatkins/health-adviser/internal/analysis/intent"
	voicemodel "github.com/nwatkins/health-adviser/internal/model/voice"
	voiceservice "github.com/nwatkins/health-adviser/internal/service/voice"
)

// voicetester exercises the audio pipeline outside the HTTP server: capture
// an utterance, speak a line, or run a full listen-classify-speak round trip.
func main() {
	var (
		envFile = pflag.String("env", "", "path to an env file to load first")
		mode    = pflag.String("mode", "roundtrip", "listen, speak or roundtrip")
		text    = pflag.String("text", "Stay hydrated and sleep well.", "text to speak in speak mode")
		model   = pflag.String("model", "models/ggml-base.en.bin", "whisper model path")
		lang    = pflag.String("lang", "en-US", "capture and synthesis language")
		timeout = pflag.Duration("timeout", 30*time.Second, "overall deadline")
	)
	pflag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			fatal("load env file: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	engine := buildEngine(*mode, *model, *lang)

	switch *mode {
	case "listen":
		transcript := listen(ctx, engine)
		fmt.Printf("transcript: %q (%dms)\n", transcript.Text, transcript.Duration)
	case "speak":
		speak(ctx, engine, *text)
	case "roundtrip":
		transcript := listen(ctx, engine)
		fmt.Printf("transcript: %q\n", transcript.Text)
		res := intent.Classify(transcript.Text)
		fmt.Printf("intent: %s\n", res.Intent)
		speak(ctx, engine, res.Response)
	default:
		fatal("unknown mode %q", *mode)
	}
}

func buildEngine(mode, model, lang string) *voiceservice.Engine {
	var rec voiceservice.Recognizer
	if mode != "speak" {
		r, err := voiceservice.NewWhisperRecognizer(voiceservice.RecognizerConfig{
			ModelPath: model,
			Language:  lang,
		})
		if err != nil {
			fatal("capture unavailable: %v", err)
		}
		rec = r
	}

	var synth voiceservice.Synthesizer
	if mode != "listen" {
		s, err := voiceservice.NewEspeakSynthesizer()
		if err != nil {
			fatal("synthesis unavailable: %v", err)
		}
		synth = s
	}

	return voiceservice.NewEngine(rec, synth, voiceservice.WithSpeakDefaults(voicemodel.SpeakRequest{
		Language: lang,
	}))
}

func listen(ctx context.Context, engine *voiceservice.Engine) voicemodel.Transcript {
	fmt.Println("listening... speak now")
	results, err := engine.StartListening(ctx)
	if err != nil {
		fatal("start listening: %v", err)
	}

	select {
	case res := <-results:
		if res.Err != nil {
			fatal("listening failed: %v", res.Err)
		}
		return res.Transcript
	case <-ctx.Done():
		engine.StopListening()
		fatal("timed out waiting for speech")
		return voicemodel.Transcript{}
	}
}

func speak(ctx context.Context, engine *voiceservice.Engine, text string) {
	done, err := engine.Speak(ctx, voicemodel.SpeakRequest{Text: text})
	if err != nil {
		fatal("speak: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			fatal("playback failed: %v", err)
		}
	case <-ctx.Done():
		engine.StopSpeaking()
		fatal("timed out during playback")
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
