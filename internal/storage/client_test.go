package storage

import (
	"context"
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

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(url string) *Client {
	return NewClient(url+"/", "VOICES", 5*time.Second, newTestLogger())
}

func TestClient_List(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/R2/GetList" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("selectR2Bucket"); got != "VOICES" {
			t.Errorf("bucket = %q", got)
		}
		if got := r.URL.Query().Get("prefix"); got != "audio_sources" {
			t.Errorf("prefix = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"s3Objects":[{"key":"audio_sources/a.m4a","size":10},{"key":"audio_sources/b.mp3","size":20}]}`))
	}))
	defer srv.Close()

	objects, err := newTestClient(srv.URL).List(context.Background(), "audio_sources")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(objects) != 2 || objects[0].Key != "audio_sources/a.m4a" || objects[1].Size != 20 {
		t.Fatalf("unexpected objects: %+v", objects)
	}
}

func TestClient_ListServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("bucket unavailable"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).List(context.Background(), "audio_sources")
	var upstream *model.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %T: %v", err, err)
	}
	if upstream.StatusCode != http.StatusBadGateway || upstream.Message != "bucket unavailable" {
		t.Fatalf("unexpected upstream error: %+v", upstream)
	}
	if !errors.Is(err, model.ErrUpstream) {
		t.Fatalf("expected errors.Is ErrUpstream")
	}
}

func TestClient_ListMalformedJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"s3Objects":`))
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).List(context.Background(), "p"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestClient_Upload(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/R2/Upload" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("filePath") != "audio_sources" || q.Get("name") != "hello.m4a" || q.Get("id") != "uploaded_1" || q.Get("type") != "audio/m4a" {
			t.Errorf("unexpected query: %v", q)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if string(data) != "RIFF" || header.Filename != "hello.m4a" {
			t.Errorf("unexpected file %q (%s)", data, header.Filename)
		}
		if ct := header.Header.Get("Content-Type"); ct != "audio/m4a" {
			t.Errorf("part content type = %q", ct)
		}
		w.Write([]byte(`{"id":"uploaded_1","name":"hello.m4a","fileKey":"audio_sources/hello.m4a"}`))
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).Upload(context.Background(), UploadRequest{
		FilePath:    "audio_sources",
		FileName:    "hello.m4a",
		ID:          "uploaded_1",
		ContentType: "audio/m4a",
		Body:        strings.NewReader("RIFF"),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if res.FileKey != "audio_sources/hello.m4a" || res.ID != "uploaded_1" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestClient_Delete(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/R2/Delete" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("key"); got != "audio_sources/a.m4a" {
			t.Errorf("key = %q", got)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := newTestClient(srv.URL).Delete(context.Background(), "audio_sources/a.m4a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestClient_DeleteJSONErrorBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"object not found"}`))
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).Delete(context.Background(), "nope")
	var upstream *model.UpstreamError
	if !errors.As(err, &upstream) || upstream.Message != "object not found" {
		t.Fatalf("expected upstream error with JSON message, got %v", err)
	}
}

func TestPublicURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		base, key, want string
	}{
		{"https://pub.example.com", "gen123.wav", "https://pub.example.com/gen123.wav"},
		{"https://pub.example.com/", "gen123.wav", "https://pub.example.com/gen123.wav"},
		{"https://pub.example.com/", "/audio_sources/a.m4a", "https://pub.example.com/audio_sources/a.m4a"},
	}
	for _, tt := range tests {
		if got := PublicURL(tt.base, tt.key); got != tt.want {
			t.Errorf("PublicURL(%q, %q) = %q, want %q", tt.base, tt.key, got, tt.want)
		}
	}
}

func TestClient_ListOversizedResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"s3Objects":[{"key":"`))
		w.Write([]byte(strings.Repeat("a", maxResponseBytes)))
		w.Write([]byte(`"}]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).List(context.Background(), "audio_sources")
	if err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("expected size limit error, got %v", err)
	}
}
