package stream_test

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	streamhandler "github.com/nwatkins/health-adviser/internal/handler/stream"
	"github.com/nwatkins/health-adviser/internal/service/conversation"
)

func TestEventStreamDeliversMessages(t *testing.T) {
	svc := conversation.NewService(conversation.Config{
		MaxHistory:  50,
		TypingDelay: time.Millisecond,
		Welcome:     "welcome",
	}, conversation.Classify)
	if err := svc.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	r := chi.NewRouter()
	r.Route("/api", func(api chi.Router) {
		streamhandler.New(svc, nil).RegisterRoutes(api)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/api/events")
	if err != nil {
		t.Fatalf("GET /api/events error = %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("Content-Type = %q, want text/event-stream", got)
	}

	reader := bufio.NewReader(resp.Body)

	// First frame announces the stream.
	line, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read status frame: %v", err)
	}
	if !strings.Contains(line, "stream established") {
		t.Fatalf("first frame = %q, want stream established", line)
	}

	if _, err := svc.Submit(context.Background(), "give me sleep advice"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	deadline := time.After(2 * time.Second)
	found := make(chan string, 1)
	go func() {
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			if strings.Contains(line, "SleepTips") {
				found <- line
				return
			}
		}
	}()

	select {
	case <-found:
	case <-deadline:
		t.Fatal("timed out waiting for the reply event")
	}
}
