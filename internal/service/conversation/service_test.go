package conversation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nwatkins/health-adviser/internal/analysis/intent"
	"github.com/nwatkins/health-adviser/internal/model/chat"
	voicemodel "github.com/nwatkins/health-adviser/internal/model/voice"
	conversation "github.com/nwatkins/health-adviser/internal/service/conversation"
)

func testConfig() conversation.Config {
	return conversation.Config{
		MaxHistory:  50,
		TypingDelay: time.Millisecond,
		Welcome:     "welcome",
	}
}

func awaitTurn(t *testing.T, ch <-chan conversation.TurnResult) conversation.TurnResult {
	t.Helper()
	select {
	case result := <-ch:
		return result
	case <-time.After(2 * time.Second):
		t.Fatal("turn did not settle in time")
		return conversation.TurnResult{}
	}
}

func TestInitializeSeedsWelcome(t *testing.T) {
	svc := conversation.NewService(testConfig(), nil)
	ctx := context.Background()

	if err := svc.Initialize(ctx); err != nil {
		t.Fatalf("Initialize err: %v", err)
	}

	history := svc.History()
	if len(history) != 1 {
		t.Fatalf("expected 1 message, got %d", len(history))
	}
	if history[0].Author != chat.AuthorBot || history[0].Content != "welcome" {
		t.Fatalf("unexpected welcome message: %+v", history[0])
	}
	if !svc.Ready() {
		t.Fatal("session should be ready")
	}
}

func TestInitializeIsIdempotent(t *testing.T) {
	svc := conversation.NewService(testConfig(), nil)
	ctx := context.Background()

	if err := svc.Initialize(ctx); err != nil {
		t.Fatalf("Initialize err: %v", err)
	}
	id := svc.SessionID()

	if err := svc.Initialize(ctx); err != nil {
		t.Fatalf("second Initialize err: %v", err)
	}

	if svc.SessionID() != id {
		t.Fatal("re-initialization must not regenerate the session id")
	}
	if len(svc.History()) != 1 {
		t.Fatal("re-initialization must not duplicate the welcome message")
	}
}

func TestSubmitBeforeInitializeRejected(t *testing.T) {
	svc := conversation.NewService(testConfig(), nil)

	if _, err := svc.Submit(context.Background(), "hello"); !errors.Is(err, conversation.ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
}

func TestWelcomePrecedesFirstSubmit(t *testing.T) {
	svc := conversation.NewService(testConfig(), nil)
	ctx := context.Background()

	if err := svc.Initialize(ctx); err != nil {
		t.Fatalf("Initialize err: %v", err)
	}
	ch, err := svc.Submit(ctx, "hello")
	if err != nil {
		t.Fatalf("Submit err: %v", err)
	}
	awaitTurn(t, ch)

	history := svc.History()
	if len(history) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(history))
	}
	if history[0].Author != chat.AuthorBot {
		t.Fatal("welcome message must come first")
	}
	if history[1].Author != chat.AuthorUser || history[1].Content != "hello" {
		t.Fatalf("expected user message second, got %+v", history[1])
	}
	if history[2].Author != chat.AuthorBot {
		t.Fatalf("expected bot reply third, got %+v", history[2])
	}
}

func TestSubmitWhitespaceRejected(t *testing.T) {
	svc := conversation.NewService(testConfig(), nil)
	ctx := context.Background()

	if err := svc.Initialize(ctx); err != nil {
		t.Fatalf("Initialize err: %v", err)
	}

	before := len(svc.History())
	if _, err := svc.Submit(ctx, "   "); !errors.Is(err, conversation.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if len(svc.History()) != before {
		t.Fatal("rejected input must not mutate history")
	}
}

func TestSubmitClassifiesIntent(t *testing.T) {
	svc := conversation.NewService(testConfig(), nil)
	ctx := context.Background()

	if err := svc.Initialize(ctx); err != nil {
		t.Fatalf("Initialize err: %v", err)
	}
	ch, err := svc.Submit(ctx, "What should I eat to stay healthy?")
	if err != nil {
		t.Fatalf("Submit err: %v", err)
	}

	result := awaitTurn(t, ch)
	if result.Err != nil {
		t.Fatalf("turn err: %v", result.Err)
	}
	if result.Reply.Intent != intent.HealthyDietTips {
		t.Fatalf("expected diet intent, got %s", result.Reply.Intent)
	}
	if result.Reply.FulfillmentState != chat.Fulfilled {
		t.Fatalf("expected Fulfilled, got %s", result.Reply.FulfillmentState)
	}
}

func TestTurnCompletesAfterCallerCancellation(t *testing.T) {
	cfg := testConfig()
	cfg.TypingDelay = 100 * time.Millisecond
	svc := conversation.NewService(cfg, nil)
	if err := svc.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize err: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done, err := svc.Submit(ctx, "how can I sleep better")
	if err != nil {
		t.Fatalf("Submit err: %v", err)
	}
	cancel()

	result := awaitTurn(t, done)
	if result.Err != nil {
		t.Fatalf("turn err = %v, want nil", result.Err)
	}
	if result.Reply.Author != chat.AuthorBot {
		t.Fatalf("reply author = %q, want %q", result.Reply.Author, chat.AuthorBot)
	}
	if result.Reply.Intent != intent.SleepTips {
		t.Fatalf("reply intent = %q, want %q", result.Reply.Intent, intent.SleepTips)
	}

	history := svc.History()
	last := history[len(history)-1]
	if last.Author != chat.AuthorBot || last.FulfillmentState != chat.Fulfilled {
		t.Fatalf("last message = %+v, want a fulfilled bot reply", last)
	}
	if svc.Awaiting() {
		t.Fatal("session still awaiting after the turn settled")
	}
}

func TestTurnExclusivity(t *testing.T) {
	cfg := testConfig()
	cfg.TypingDelay = 200 * time.Millisecond
	svc := conversation.NewService(cfg, nil)
	ctx := context.Background()

	if err := svc.Initialize(ctx); err != nil {
		t.Fatalf("Initialize err: %v", err)
	}
	ch, err := svc.Submit(ctx, "first")
	if err != nil {
		t.Fatalf("Submit err: %v", err)
	}

	if _, err := svc.Submit(ctx, "second"); !errors.Is(err, conversation.ErrTurnInFlight) {
		t.Fatalf("expected ErrTurnInFlight, got %v", err)
	}

	awaitTurn(t, ch)

	for _, msg := range svc.History() {
		if msg.Content == "second" {
			t.Fatal("rejected submit must not append a user message")
		}
	}
}

func TestHistoryBound(t *testing.T) {
	cfg := testConfig()
	cfg.MaxHistory = 5
	svc := conversation.NewService(cfg, nil)
	ctx := context.Background()

	if err := svc.Initialize(ctx); err != nil {
		t.Fatalf("Initialize err: %v", err)
	}

	for i := 0; i < 8; i++ {
		ch, err := svc.Submit(ctx, "tell me about sleep")
		if err != nil {
			t.Fatalf("Submit %d err: %v", i, err)
		}
		awaitTurn(t, ch)
	}

	history := svc.History()
	if len(history) != 5 {
		t.Fatalf("expected window of 5, got %d", len(history))
	}
	for i := 1; i < len(history); i++ {
		if history[i].CreatedAt.Before(history[i-1].CreatedAt) {
			t.Fatal("retained messages out of chronological order")
		}
	}
	// The window must end on the most recent turn: user then bot.
	if history[3].Author != chat.AuthorUser || history[4].Author != chat.AuthorBot {
		t.Fatalf("unexpected window tail: %s, %s", history[3].Author, history[4].Author)
	}
}

func TestClassifierFailureAppendsErrorMessage(t *testing.T) {
	boom := errors.New("classifier exploded")
	failing := func(string) (intent.Result, error) { return intent.Result{}, boom }
	svc := conversation.NewService(testConfig(), failing)
	ctx := context.Background()

	if err := svc.Initialize(ctx); err != nil {
		t.Fatalf("Initialize err: %v", err)
	}
	ch, err := svc.Submit(ctx, "hello")
	if err != nil {
		t.Fatalf("Submit err: %v", err)
	}

	result := awaitTurn(t, ch)
	if !errors.Is(result.Err, boom) {
		t.Fatalf("expected surfaced failure, got %v", result.Err)
	}
	if result.Reply.Author != chat.AuthorError {
		t.Fatalf("expected error message, got %s", result.Reply.Author)
	}
	if result.Reply.Content != conversation.ApologyText {
		t.Fatalf("unexpected apology text: %q", result.Reply.Content)
	}
	if svc.Awaiting() {
		t.Fatal("session stuck awaiting after failure")
	}

	// The session must stay usable for the next turn.
	if _, err := svc.Submit(ctx, "again"); err != nil {
		t.Fatalf("session unusable after failure: %v", err)
	}
}

func TestResetKeepsHistory(t *testing.T) {
	svc := conversation.NewService(testConfig(), nil)
	ctx := context.Background()

	if err := svc.Initialize(ctx); err != nil {
		t.Fatalf("Initialize err: %v", err)
	}
	before := svc.SessionID()

	after := svc.Reset()
	if after == before {
		t.Fatal("reset must regenerate the session id")
	}
	if len(svc.History()) == 0 {
		t.Fatal("reset must not clear history")
	}
}

type fakeSpeaker struct {
	caps  voicemodel.Capability
	texts chan string
}

func (f *fakeSpeaker) Capabilities() voicemodel.Capability { return f.caps }

func (f *fakeSpeaker) Speak(_ context.Context, req voicemodel.SpeakRequest) (<-chan error, error) {
	f.texts <- req.Text
	done := make(chan error, 1)
	done <- nil
	return done, nil
}

func TestAutoPlaySpeaksBotReply(t *testing.T) {
	speaker := &fakeSpeaker{
		caps:  voicemodel.Capability{Synthesis: true},
		texts: make(chan string, 1),
	}
	cfg := testConfig()
	cfg.AutoPlay = true
	svc := conversation.NewService(cfg, nil, conversation.WithSpeaker(speaker))
	ctx := context.Background()

	if err := svc.Initialize(ctx); err != nil {
		t.Fatalf("Initialize err: %v", err)
	}
	ch, err := svc.Submit(ctx, "how can I sleep better")
	if err != nil {
		t.Fatalf("Submit err: %v", err)
	}
	result := awaitTurn(t, ch)

	select {
	case spoken := <-speaker.texts:
		if spoken != result.Reply.Content {
			t.Fatal("auto-play must speak the bot reply content")
		}
	case <-time.After(time.Second):
		t.Fatal("auto-play never reached the speaker")
	}
}

func TestAutoPlaySkippedWithoutSynthesis(t *testing.T) {
	speaker := &fakeSpeaker{texts: make(chan string, 1)}
	cfg := testConfig()
	cfg.AutoPlay = true
	svc := conversation.NewService(cfg, nil, conversation.WithSpeaker(speaker))
	ctx := context.Background()

	if err := svc.Initialize(ctx); err != nil {
		t.Fatalf("Initialize err: %v", err)
	}
	ch, err := svc.Submit(ctx, "hello")
	if err != nil {
		t.Fatalf("Submit err: %v", err)
	}
	awaitTurn(t, ch)

	select {
	case <-speaker.texts:
		t.Fatal("auto-play must be gated on synthesis support")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribeDeliversMessagesInOrder(t *testing.T) {
	svc := conversation.NewService(testConfig(), nil)
	ctx := context.Background()

	events, cancel := svc.Subscribe()
	defer cancel()

	if err := svc.Initialize(ctx); err != nil {
		t.Fatalf("Initialize err: %v", err)
	}
	ch, err := svc.Submit(ctx, "hello")
	if err != nil {
		t.Fatalf("Submit err: %v", err)
	}
	awaitTurn(t, ch)

	wantAuthors := []chat.Author{chat.AuthorBot, chat.AuthorUser, chat.AuthorBot}
	for i, want := range wantAuthors {
		select {
		case msg := <-events:
			if msg.Author != want {
				t.Fatalf("event %d: expected author %s, got %s", i, want, msg.Author)
			}
		case <-time.After(time.Second):
			t.Fatalf("missing event %d", i)
		}
	}
}
