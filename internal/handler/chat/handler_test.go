package chat_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	chathandler "github.com/nwatkins/health-adviser/internal/handler/chat"
	chatmodel "github.com/nwatkins/health-adviser/internal/model/chat"
	"github.com/nwatkins/health-adviser/internal/service/conversation"
)

func newTestServer(t *testing.T, initialized bool) (*httptest.Server, *conversation.Service) {
	t.Helper()

	svc := conversation.NewService(conversation.Config{
		MaxHistory:  50,
		TypingDelay: time.Millisecond,
		Welcome:     "welcome",
	}, conversation.Classify)
	if initialized {
		if err := svc.Initialize(context.Background()); err != nil {
			t.Fatalf("Initialize() error = %v", err)
		}
	}

	r := chi.NewRouter()
	r.Route("/api", func(api chi.Router) {
		chathandler.New(svc).RegisterRoutes(api)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, svc
}

func TestCreateSession(t *testing.T) {
	srv, _ := newTestServer(t, false)

	resp, err := http.Post(srv.URL+"/api/session", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /api/session error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var session chatmodel.Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if session.ID == "" || !session.Ready {
		t.Fatalf("session = %+v, want ready with an ID", session)
	}
}

func TestGetSessionBeforeInitialize(t *testing.T) {
	srv, _ := newTestServer(t, false)

	resp, err := http.Get(srv.URL + "/api/session")
	if err != nil {
		t.Fatalf("GET /api/session error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestSubmitMessageReturnsReply(t *testing.T) {
	srv, _ := newTestServer(t, true)

	body := strings.NewReader(`{"content": "what should I eat for a healthy diet?"}`)
	resp, err := http.Post(srv.URL+"/api/messages", "application/json", body)
	if err != nil {
		t.Fatalf("POST /api/messages error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var turn struct {
		User  chatmodel.Message `json:"user"`
		Reply chatmodel.Message `json:"reply"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&turn); err != nil {
		t.Fatalf("decode turn: %v", err)
	}
	if turn.User.Author != chatmodel.AuthorUser {
		t.Fatalf("user author = %q, want %q", turn.User.Author, chatmodel.AuthorUser)
	}
	if turn.Reply.Author != chatmodel.AuthorBot {
		t.Fatalf("reply author = %q, want %q", turn.Reply.Author, chatmodel.AuthorBot)
	}
	if turn.Reply.Intent != "HealthyDietTips" {
		t.Fatalf("reply intent = %q, want HealthyDietTips", turn.Reply.Intent)
	}
}

func TestSubmitEmptyMessageRejected(t *testing.T) {
	srv, _ := newTestServer(t, true)

	body := strings.NewReader(`{"content": "   "}`)
	resp, err := http.Post(srv.URL+"/api/messages", "application/json", body)
	if err != nil {
		t.Fatalf("POST /api/messages error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestSubmitBeforeInitializeRejected(t *testing.T) {
	srv, _ := newTestServer(t, false)

	body := strings.NewReader(`{"content": "hello"}`)
	resp, err := http.Post(srv.URL+"/api/messages", "application/json", body)
	if err != nil {
		t.Fatalf("POST /api/messages error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestListMessagesIncludesWelcomeAndTurn(t *testing.T) {
	srv, _ := newTestServer(t, true)

	body := strings.NewReader(`{"content": "how much water should I drink?"}`)
	resp, err := http.Post(srv.URL+"/api/messages", "application/json", body)
	if err != nil {
		t.Fatalf("POST /api/messages error = %v", err)
	}
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/api/messages")
	if err != nil {
		t.Fatalf("GET /api/messages error = %v", err)
	}
	defer resp.Body.Close()

	var history []chatmodel.Message
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("history length = %d, want 3", len(history))
	}
	if history[0].Author != chatmodel.AuthorBot || history[0].Content != "welcome" {
		t.Fatalf("history[0] = %+v, want the welcome message", history[0])
	}
	if history[2].Intent != "HydrationInfo" {
		t.Fatalf("history[2] intent = %q, want HydrationInfo", history[2].Intent)
	}
}

func TestResetSessionIssuesNewID(t *testing.T) {
	srv, svc := newTestServer(t, true)
	before := svc.SessionID()

	resp, err := http.Post(srv.URL+"/api/session/reset", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /api/session/reset error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var session chatmodel.Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if session.ID == before {
		t.Fatal("reset did not issue a new session ID")
	}
}
