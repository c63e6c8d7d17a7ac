package topic_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	topichandler "github.com/nwatkins/health-adviser/internal/handler/topic"
	topicmodel "github.com/nwatkins/health-adviser/internal/model/topic"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	r := chi.NewRouter()
	r.Route("/api", func(api chi.Router) {
		topichandler.New(topicmodel.NewMemoryStore(topicmodel.Seed())).RegisterRoutes(api)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestListTopics(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/topics")
	if err != nil {
		t.Fatalf("GET /api/topics error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var topics []topicmodel.Topic
	if err := json.NewDecoder(resp.Body).Decode(&topics); err != nil {
		t.Fatalf("decode topics: %v", err)
	}
	if len(topics) != 5 {
		t.Fatalf("got %d topics, want 5", len(topics))
	}
}

func TestGetTopicByID(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/topics/hydration")
	if err != nil {
		t.Fatalf("GET /api/topics/hydration error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var got topicmodel.Topic
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode topic: %v", err)
	}
	if got.Intent != "HydrationInfo" {
		t.Fatalf("intent = %q, want HydrationInfo", got.Intent)
	}
}

func TestGetTopicUnknownID(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/topics/juicing")
	if err != nil {
		t.Fatalf("GET /api/topics/juicing error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}
