package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"runtime"
	"strings"
	"time"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/gordonklaus/portaudio"

	voicemodel "github.com/nwatkins/health-adviser/internal/model/voice"
)

const (
	captureSampleRate = 16000
	captureFrameSize  = 320 // 20ms at 16 kHz

	silenceThreshRMS = 0.015
	silenceDuration  = 600 * time.Millisecond
	maxUtterance     = 10 * time.Second
)

// WhisperRecognizer captures microphone audio through PortAudio and
// transcribes it locally with a whisper.cpp model. Construct once; the model
// stays loaded for the process lifetime.
type WhisperRecognizer struct {
	model    whisper.Model
	language string
	dumpDir  string
	logger   *slog.Logger
}

// RecognizerConfig configures NewWhisperRecognizer.
type RecognizerConfig struct {
	ModelPath string
	Language  string
	// DumpDir, when non-empty, receives a WAV copy of every captured
	// utterance for debugging.
	DumpDir string
	Logger  *slog.Logger
}

// NewWhisperRecognizer initializes PortAudio and loads the model. Errors here
// mean capture is unavailable; callers degrade to text-only operation.
func NewWhisperRecognizer(cfg RecognizerConfig) (*WhisperRecognizer, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("voice: empty whisper model path")
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("voice: portaudio init: %w", err)
	}
	model, err := whisper.New(cfg.ModelPath)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("voice: load whisper model: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &WhisperRecognizer{
		model:    model,
		language: whisperLanguage(cfg.Language),
		dumpDir:  cfg.DumpDir,
		logger:   logger,
	}, nil
}

// Close releases the model and PortAudio.
func (r *WhisperRecognizer) Close() error {
	err := r.model.Close()
	portaudio.Terminate()
	return err
}

// Acquire opens the default input stream. A refused device surfaces as
// ErrPermissionDenied so the caller can fail before entering Listening.
func (r *WhisperRecognizer) Acquire() (Capture, error) {
	buf := make([]float32, captureFrameSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, captureSampleRate, len(buf), buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	return &micCapture{rec: r, stream: stream, buf: buf}, nil
}

type micCapture struct {
	rec    *WhisperRecognizer
	stream *portaudio.Stream
	buf    []float32
}

// Transcribe records until the speaker falls silent, then runs the model over
// the captured PCM. Cancellation is checked once per 20ms frame.
func (c *micCapture) Transcribe(ctx context.Context) (voicemodel.Transcript, error) {
	started := time.Now()

	samples, err := c.record(ctx)
	if err != nil {
		return voicemodel.Transcript{}, err
	}
	if len(samples) == 0 {
		return voicemodel.Transcript{}, nil
	}

	if c.rec.dumpDir != "" {
		if path, err := dumpCaptureWAV(c.rec.dumpDir, samples); err != nil {
			c.rec.logger.Warn("failed to write debug audio", "error", err)
		} else {
			c.rec.logger.Debug("wrote debug audio", "path", path)
		}
	}

	text, confidence, err := c.rec.transcribe(ctx, samples)
	if err != nil {
		return voicemodel.Transcript{}, err
	}

	return voicemodel.Transcript{
		Text:       text,
		Confidence: confidence,
		Duration:   time.Since(started).Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	}, nil
}

func (c *micCapture) record(ctx context.Context) ([]float32, error) {
	out := make([]float32, 0, captureSampleRate*3)

	var (
		speaking      bool
		silenceFrames int
	)
	frameDur := time.Second * captureFrameSize / captureSampleRate
	maxFrames := int(maxUtterance / frameDur)
	silenceLimit := int(silenceDuration / frameDur)

	for i := 0; i < maxFrames; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := c.stream.Read(); err != nil {
			return nil, fmt.Errorf("voice: read stream: %w", err)
		}

		rms := frameRMS(c.buf)
		if rms > silenceThreshRMS {
			speaking = true
			silenceFrames = 0
			out = append(out, c.buf...)
			continue
		}
		if speaking {
			silenceFrames++
			if silenceFrames >= silenceLimit {
				break
			}
			out = append(out, c.buf...)
		}
	}

	return out, nil
}

func (c *micCapture) Close() error {
	c.stream.Stop()
	return c.stream.Close()
}

func (r *WhisperRecognizer) transcribe(ctx context.Context, pcm []float32) (string, float64, error) {
	wctx, err := r.model.NewContext()
	if err != nil {
		return "", 0, fmt.Errorf("voice: whisper context: %w", err)
	}
	if err := wctx.SetLanguage(r.language); err != nil {
		return "", 0, fmt.Errorf("voice: set language: %w", err)
	}
	wctx.SetThreads(uint(runtime.NumCPU()))

	if err := wctx.Process(pcm, nil, nil, nil); err != nil {
		return "", 0, fmt.Errorf("voice: whisper process: %w", err)
	}

	var (
		parts    []string
		probSum  float64
		tokenCnt int
	)
	for {
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}
		seg, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", 0, fmt.Errorf("voice: next segment: %w", err)
		}
		parts = append(parts, strings.TrimSpace(seg.Text))
		for _, tok := range seg.Tokens {
			probSum += float64(tok.P)
			tokenCnt++
		}
	}

	confidence := 0.0
	if tokenCnt > 0 {
		confidence = probSum / float64(tokenCnt)
	}
	return strings.Join(parts, " "), confidence, nil
}

// whisperLanguage maps a BCP 47 tag like "en-US" onto whisper's two-letter
// language codes.
func whisperLanguage(tag string) string {
	if tag == "" {
		return "auto"
	}
	tag = strings.ToLower(tag)
	if i := strings.IndexAny(tag, "-_"); i >= 0 {
		tag = tag[:i]
	}
	return tag
}

func frameRMS(f []float32) float64 {
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}
