package voice

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
	params := Params{Exaggeration: 0.5, Temperature: 0.8, CFGWeight: 0.5, Seed: 7}
	return NewClient(url, params, 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_Generate(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/predict-gradio" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		want := generateRequest{AudioURL: "https://pub.example.com/voice1", Text: "say hi", Exaggeration: 0.5, Temperature: 0.8, CFGWeight: 0.5, Seed: 7}
		if req != want {
			t.Errorf("request = %+v, want %+v", req, want)
		}
		w.Write([]byte(`{"predictedAudioUrl":{"fileKey":"gen123.wav","data":[{"value":{"url":"https://gradio/tmp/gen123.wav"}}],"time":3.2}}`))
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL).Generate(context.Background(), "https://pub.example.com/voice1", "say hi")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := model.GeneratedAudio{FileKey: "gen123.wav", URL: "https://gradio/tmp/gen123.wav", Time: 3.2}
	if got != want {
		t.Fatalf("Generate = %+v, want %+v", got, want)
	}
}

func TestClient_GenerateErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		body     string
		upstream bool
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "model crashed", upstream: true},
		{name: "malformed json", status: http.StatusOK, body: `{"predictedAudioUrl":`},
		{name: "missing object", status: http.StatusOK, body: `{}`},
		{name: "no key or url", status: http.StatusOK, body: `{"predictedAudioUrl":{"time":1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL).Generate(context.Background(), "u", "t")
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.upstream != errors.Is(err, model.ErrUpstream) {
				t.Errorf("errors.Is(ErrUpstream) = %v, want %v (%v)", !tt.upstream, tt.upstream, err)
			}
			if !tt.upstream && !errors.Is(err, ErrMalformedResponse) {
				t.Errorf("expected ErrMalformedResponse, got %v", err)
			}
		})
	}
}

func TestClient_GenerateContextCancelled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(srv.URL).Generate(ctx, "u", "t")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestClient_GenerateOversizedResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(strings.Repeat("x", maxResponseBytes+10)))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Generate(context.Background(), "https://pub.example.com/voice1", "say hi")
	if err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("expected size limit error, got %v", err)
	}
	if len(err.Error()) > 200 {
		t.Fatalf("error message carries the body: %d bytes", len(err.Error()))
	}
}
