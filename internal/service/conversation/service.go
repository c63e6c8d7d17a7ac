package conversation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nwatkins/health-adviser/internal/analysis/intent"
	"github.com/nwatkins/health-adviser/internal/model/chat"
	voicemodel "github.com/nwatkins/health-adviser/internal/model/voice"
)

// Validation errors. None of them mutate history; the session stays usable.
var (
	ErrNotReady     = errors.New("session not initialized")
	ErrEmptyInput   = errors.New("message text is empty")
	ErrTurnInFlight = errors.New("another turn is awaiting a response")
)

// ApologyText is recorded as an Error message when a turn cannot be fulfilled.
const ApologyText = "Sorry, I encountered an error. Please try again."

// ClassifyFunc resolves user text to an intent result. The compiled-in
// classifier never fails; the error return exists for infrastructure wrappers.
type ClassifyFunc func(text string) (intent.Result, error)

// Classify adapts the static rule table to a ClassifyFunc.
func Classify(text string) (intent.Result, error) {
	return intent.Classify(text), nil
}

// Speaker is the slice of the voice engine the session drives for auto-play.
type Speaker interface {
	Capabilities() voicemodel.Capability
	Speak(ctx context.Context, req voicemodel.SpeakRequest) (<-chan error, error)
}

// Config controls pacing, history retention and voice auto-play.
type Config struct {
	MaxHistory  int
	TypingDelay time.Duration
	Welcome     string
	AutoPlay    bool
}

// TurnResult is delivered once a submitted turn settles.
type TurnResult struct {
	User  chat.Message
	Reply chat.Message
	Err   error // non-nil when Reply is an Error message
}

// Service sequences one conversational turn at a time over bounded history.
// One Service instance is one conversation; construct another for independent
// sessions.
type Service struct {
	cfg      Config
	classify ClassifyFunc
	speaker  Speaker
	now      func() time.Time
	logger   *slog.Logger

	mu        sync.Mutex
	sessionID string
	createdAt time.Time
	ready     bool
	awaiting  bool
	history   []chat.Message
	subs      map[int]chan chat.Message
	nextSub   int
}

// Option customizes a Service.
type Option func(*Service)

// WithSpeaker wires the voice engine used for auto-play of bot replies.
func WithSpeaker(s Speaker) Option {
	return func(svc *Service) { svc.speaker = s }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(svc *Service) { svc.now = now }
}

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(svc *Service) { svc.logger = l }
}

// NewService builds a session manager. classify may be nil, in which case the
// compiled-in rule table is used.
func NewService(cfg Config, classify ClassifyFunc, opts ...Option) *Service {
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = 50
	}
	if cfg.Welcome == "" {
		cfg.Welcome = "Hi! How can I help you today?"
	}
	if classify == nil {
		classify = Classify
	}

	svc := &Service{
		cfg:      cfg,
		classify: classify,
		now:      time.Now,
		logger:   slog.Default(),
		subs:     make(map[int]chan chat.Message),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Initialize marks the session ready and seeds the welcome message. Calling it
// again is a no-op.
func (s *Service) Initialize(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready {
		return nil
	}

	s.sessionID = uuid.NewString()
	s.createdAt = s.now().UTC()
	s.ready = true
	s.appendLocked(chat.Message{
		Author:           chat.AuthorBot,
		Content:          s.cfg.Welcome,
		FulfillmentState: chat.Fulfilled,
	})

	s.logger.Info("session initialized", "session_id", s.sessionID)
	return nil
}

// Submit runs one conversational turn. The User message is appended before
// Submit returns; the Bot (or Error) message lands on the returned channel
// after the configured typing delay. Validation failures are synchronous and
// leave history untouched.
func (s *Service) Submit(_ context.Context, text string) (<-chan TurnResult, error) {
	trimmed := strings.TrimSpace(text)

	s.mu.Lock()
	switch {
	case !s.ready:
		s.mu.Unlock()
		return nil, ErrNotReady
	case trimmed == "":
		s.mu.Unlock()
		return nil, ErrEmptyInput
	case s.awaiting:
		s.mu.Unlock()
		return nil, ErrTurnInFlight
	}

	user := s.appendLocked(chat.Message{Author: chat.AuthorUser, Content: trimmed})
	s.awaiting = true
	s.mu.Unlock()

	// The turn is detached from the caller: a dropped HTTP request must not
	// turn a pending reply into an error message.
	done := make(chan TurnResult, 1)
	go s.completeTurn(user, trimmed, done)
	return done, nil
}

func (s *Service) completeTurn(user chat.Message, text string, done chan<- TurnResult) {
	if s.cfg.TypingDelay > 0 {
		timer := time.NewTimer(s.cfg.TypingDelay)
		defer timer.Stop()
		<-timer.C
	}

	result, turnErr := s.classify(text)

	var reply chat.Message
	if turnErr != nil {
		reply = chat.Message{
			Author:           chat.AuthorError,
			Content:          ApologyText,
			FulfillmentState: chat.Failed,
		}
		s.logger.Error("turn failed", "session_id", s.SessionID(), "error", turnErr)
	} else {
		reply = chat.Message{
			Author:           chat.AuthorBot,
			Content:          result.Response,
			Intent:           result.Intent,
			FulfillmentState: chat.Fulfilled,
		}
	}

	s.mu.Lock()
	reply = s.appendLocked(reply)
	s.awaiting = false
	s.mu.Unlock()

	done <- TurnResult{User: user, Reply: reply, Err: turnErr}

	if turnErr == nil {
		s.autoPlay(reply)
	}
}

// autoPlay speaks a bot reply fire-and-forget. Failures never touch session
// state.
func (s *Service) autoPlay(reply chat.Message) {
	if !s.cfg.AutoPlay || s.speaker == nil {
		return
	}
	if !s.speaker.Capabilities().Synthesis {
		return
	}

	if _, err := s.speaker.Speak(context.Background(), voicemodel.SpeakRequest{Text: reply.Content}); err != nil {
		s.logger.Warn("auto-play failed", "error", err)
	}
}

// Reset regenerates the session identifier. History is deliberately retained;
// callers wanting a hard reset construct a fresh Service.
func (s *Service) Reset() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessionID = uuid.NewString()
	s.logger.Info("session reset", "session_id", s.sessionID)
	return s.sessionID
}

// Session returns a snapshot of the session record.
func (s *Service) Session() chat.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return chat.Session{ID: s.sessionID, Ready: s.ready, CreatedAt: s.createdAt}
}

// SessionID returns the current opaque session token.
func (s *Service) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// Ready reports whether Initialize has completed.
func (s *Service) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Awaiting reports whether a turn is currently in flight.
func (s *Service) Awaiting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.awaiting
}

// History returns an ordered copy of the retained messages.
func (s *Service) History() []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]chat.Message, len(s.history))
	copy(copied, s.history)
	return copied
}

// appendLocked stamps and stores a message, trimming the oldest entries once
// the window is full. Callers hold s.mu.
func (s *Service) appendLocked(msg chat.Message) chat.Message {
	msg.ID = uuid.NewString()
	msg.CreatedAt = s.now().UTC()

	s.history = append(s.history, msg)
	if len(s.history) > s.cfg.MaxHistory {
		s.history = append([]chat.Message(nil), s.history[len(s.history)-s.cfg.MaxHistory:]...)
	}

	s.publishLocked(msg)
	return msg
}
