package callbackend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gtm9/remi-ai-v1/internal/model"
)

func newTestClient(url string) *Client {
	return NewClient(url, 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_PlaceCall(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/make-call" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body struct {
			GeneratedAudioURL string `json:"generatedAudioUrl"`
			Reminder          struct {
				ID    string `json:"id"`
				Title string `json:"title"`
			} `json:"reminder"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if body.GeneratedAudioURL != "https://pub.example.com/gen123.wav" || body.Reminder.ID != "r1" || body.Reminder.Title != "Call mom" {
			t.Errorf("unexpected body: %+v", body)
		}
		w.Write([]byte(`{"message":"Call queued"}`))
	}))
	defer srv.Close()

	msg, err := newTestClient(srv.URL+"/").PlaceCall(context.Background(), "https://pub.example.com/gen123.wav", model.Reminder{ID: "r1", Title: "Call mom"})
	if err != nil {
		t.Fatalf("PlaceCall: %v", err)
	}
	if msg != "Call queued" {
		t.Fatalf("message = %q", msg)
	}
}

func TestClient_PlaceCallDefaultMessage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	msg, err := newTestClient(srv.URL).PlaceCall(context.Background(), "u", model.Reminder{ID: "r1"})
	if err != nil {
		t.Fatalf("PlaceCall: %v", err)
	}
	if msg != "Call is being processed." {
		t.Fatalf("message = %q", msg)
	}
}

func TestClient_PlaceCallFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("no lines"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).PlaceCall(context.Background(), "u", model.Reminder{ID: "r1"})
	var upstream *model.UpstreamError
	if !errors.As(err, &upstream) || upstream.StatusCode != http.StatusServiceUnavailable || upstream.Message != "no lines" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_PlaceCallOversizedResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"`))
		w.Write([]byte(strings.Repeat("m", maxResponseBytes)))
		w.Write([]byte(`"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).PlaceCall(context.Background(), "https://pub.example.com/gen123.wav", model.Reminder{ID: "r1"})
	if err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("expected size limit error, got %v", err)
	}
}
