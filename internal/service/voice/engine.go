package voice

import (
	"context"
	"log/slog"
	"sync"

	voicemodel "github.com/nwatkins/health-adviser/internal/model/voice"
)

// Recognizer grants access to the host microphone. Acquire grabs the device
// and fails fast (ErrPermissionDenied when the platform refuses access).
type Recognizer interface {
	Acquire() (Capture, error)
}

// Capture is one acquired recognition session. Close releases the device and
// must be safe to call after Transcribe returns.
type Capture interface {
	Transcribe(ctx context.Context) (voicemodel.Transcript, error)
	Close() error
}

// Synthesizer speaks one utterance, blocking until playback completes or ctx
// is canceled.
type Synthesizer interface {
	Speak(ctx context.Context, req voicemodel.SpeakRequest) error
}

// ListenResult is delivered when a recognition session settles.
type ListenResult struct {
	Transcript voicemodel.Transcript
	Err        error
}

// Engine arbitrates the microphone and the synthesis engine behind one state
// machine: Idle -> Listening -> Idle and Idle -> Speaking -> Idle, never both
// at once. Starting one side cancels the other first. The engine is the sole
// owner of device acquire/release.
type Engine struct {
	rec      Recognizer
	synth    Synthesizer
	caps     voicemodel.Capability
	defaults voicemodel.SpeakRequest
	chime    func()
	logger   *slog.Logger

	mu      sync.Mutex
	listen  *listenOp
	speak   *speakOp
	subs    map[int]chan voicemodel.State
	nextSub int
}

type listenOp struct {
	cancel  context.CancelFunc
	done    chan ListenResult
	stopped bool
}

type speakOp struct {
	cancel      context.CancelFunc
	done        chan error
	interrupted bool
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithSpeakDefaults sets the rate/pitch/volume/language applied to requests
// that leave them zero.
func WithSpeakDefaults(defaults voicemodel.SpeakRequest) EngineOption {
	return func(e *Engine) { e.defaults = defaults }
}

// WithChime plays an audible cue when listening starts.
func WithChime(chime func()) EngineOption {
	return func(e *Engine) { e.chime = chime }
}

// WithEngineLogger overrides the default logger.
func WithEngineLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine probes capabilities once from the supplied providers; a nil
// provider marks its capability unsupported and the gated operations fail
// fast forever after.
func NewEngine(rec Recognizer, synth Synthesizer, opts ...EngineOption) *Engine {
	e := &Engine{
		rec:    rec,
		synth:  synth,
		caps:   voicemodel.Capability{Capture: rec != nil, Synthesis: synth != nil},
		logger: slog.Default(),
		subs:   make(map[int]chan voicemodel.State),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Capabilities returns the startup probe result.
func (e *Engine) Capabilities() voicemodel.Capability { return e.caps }

// State reports the current voice activity.
func (e *Engine) State() voicemodel.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

func (e *Engine) stateLocked() voicemodel.State {
	switch {
	case e.speak != nil:
		return voicemodel.StateSpeaking
	case e.listen != nil:
		return voicemodel.StateListening
	default:
		return voicemodel.StateIdle
	}
}

// StartListening acquires the microphone and resolves the returned channel
// with the completed transcript. A second call while Listening returns the
// same pending channel. Speaking, if active, is canceled first.
func (e *Engine) StartListening(ctx context.Context) (<-chan ListenResult, error) {
	if !e.caps.Capture {
		return nil, ErrCaptureUnsupported
	}

	e.mu.Lock()
	if e.listen != nil {
		done := e.listen.done
		e.mu.Unlock()
		return done, nil
	}
	e.cancelSpeakLocked()

	capture, err := e.rec.Acquire()
	if err != nil {
		e.notifyLocked()
		e.mu.Unlock()
		return nil, err
	}

	opCtx, cancel := context.WithCancel(ctx)
	op := &listenOp{cancel: cancel, done: make(chan ListenResult, 1)}
	e.listen = op
	e.notifyLocked()
	e.mu.Unlock()

	if e.chime != nil {
		e.chime()
	}

	go e.runListen(opCtx, op, capture)
	return op.done, nil
}

func (e *Engine) runListen(ctx context.Context, op *listenOp, capture Capture) {
	// The device is released on every exit path.
	defer capture.Close()

	transcript, err := capture.Transcribe(ctx)

	e.mu.Lock()
	if e.listen == op {
		e.listen = nil
		e.notifyLocked()
	}
	canceled := op.stopped || ctx.Err() != nil
	e.mu.Unlock()

	switch {
	case canceled:
		// Partial transcripts are discarded on cancellation.
		op.done <- ListenResult{Err: ErrListeningCanceled}
	case err != nil:
		e.logger.Error("recognition failed", "error", err)
		op.done <- ListenResult{Err: err}
	default:
		op.done <- ListenResult{Transcript: transcript}
	}
}

// StopListening cancels the pending recognition session without producing a
// transcript. Safe to call when Idle.
func (e *Engine) StopListening() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelListenLocked()
}

func (e *Engine) cancelListenLocked() {
	if e.listen == nil {
		return
	}
	e.listen.stopped = true
	e.listen.cancel()
	e.listen = nil
	e.notifyLocked()
}

// Speak synthesizes req, resolving the returned channel on completion. A
// prior utterance is canceled, never queued: last call wins. Listening, if
// active, is stopped first and its partial capture discarded.
func (e *Engine) Speak(ctx context.Context, req voicemodel.SpeakRequest) (<-chan error, error) {
	if !e.caps.Synthesis {
		return nil, ErrSynthesisUnsupported
	}
	req = e.applyDefaults(req)

	e.mu.Lock()
	e.cancelListenLocked()
	e.cancelSpeakLocked()

	opCtx, cancel := context.WithCancel(ctx)
	op := &speakOp{cancel: cancel, done: make(chan error, 1)}
	e.speak = op
	e.notifyLocked()
	e.mu.Unlock()

	go e.runSpeak(opCtx, op, req)
	return op.done, nil
}

func (e *Engine) runSpeak(ctx context.Context, op *speakOp, req voicemodel.SpeakRequest) {
	err := e.synth.Speak(ctx, req)

	e.mu.Lock()
	if e.speak == op {
		e.speak = nil
		e.notifyLocked()
	}
	interrupted := op.interrupted || ctx.Err() != nil
	e.mu.Unlock()

	switch {
	case interrupted:
		op.done <- ErrUtteranceInterrupted
	case err != nil:
		e.logger.Error("synthesis failed", "error", err)
		op.done <- &SynthesisError{Cause: err}
	default:
		op.done <- nil
	}
}

// StopSpeaking cancels the active utterance immediately. Safe to call when
// Idle.
func (e *Engine) StopSpeaking() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelSpeakLocked()
}

func (e *Engine) cancelSpeakLocked() {
	if e.speak == nil {
		return
	}
	e.speak.interrupted = true
	e.speak.cancel()
	e.speak = nil
	e.notifyLocked()
}

func (e *Engine) applyDefaults(req voicemodel.SpeakRequest) voicemodel.SpeakRequest {
	if req.Rate == 0 {
		req.Rate = e.defaults.Rate
	}
	if req.Pitch == 0 {
		req.Pitch = e.defaults.Pitch
	}
	if req.Volume == 0 {
		req.Volume = e.defaults.Volume
	}
	if req.Language == "" {
		req.Language = e.defaults.Language
	}
	return req
}

// Subscribe returns a feed of state transitions plus a cancel func. Slow
// consumers drop transitions rather than blocking the engine.
func (e *Engine) Subscribe() (<-chan voicemodel.State, func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextSub
	e.nextSub++
	ch := make(chan voicemodel.State, 8)
	e.subs[id] = ch

	cancel := func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if sub, ok := e.subs[id]; ok {
			delete(e.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (e *Engine) notifyLocked() {
	state := e.stateLocked()
	for _, sub := range e.subs {
		select {
		case sub <- state:
		default:
		}
	}
}
