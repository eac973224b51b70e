package transcribe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/petems/speaches-tray/internal/config"
)

func writeTestAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.opus")
	if err := os.WriteFile(path, []byte("not really opus"), 0644); err != nil {
		t.Fatalf("failed to write test audio: %v", err)
	}
	return path
}

func testClient(baseURL string) Transcriber {
	return New(config.APIConfig{
		BaseURL:        baseURL,
		Model:          "Systran/faster-distil-whisper-large-v3",
		Language:       "en",
		TimeoutSeconds: 5,
	}, zerolog.Nop())
}

func TestTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("failed to parse multipart form: %v", err)
		}
		if got := r.FormValue("model"); got != "Systran/faster-distil-whisper-large-v3" {
			t.Errorf("unexpected model field %q", got)
		}
		if got := r.FormValue("response_format"); got != "json" {
			t.Errorf("unexpected response_format %q", got)
		}
		if got := r.FormValue("language"); got != "en" {
			t.Errorf("unexpected language %q", got)
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("missing file field: %v", err)
		}
		file.Close()
		if header.Filename != "clip.opus" {
			t.Errorf("unexpected filename %q", header.Filename)
		}
		if ct := header.Header.Get("Content-Type"); ct != "audio/opus" {
			t.Errorf("unexpected file content type %q", ct)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text": "hello world"}`))
	}))
	defer srv.Close()

	res, err := testClient(srv.URL).Transcribe(context.Background(), writeTestAudio(t))
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if res.Text != "hello world" {
		t.Errorf("expected text %q, got %q", "hello world", res.Text)
	}
}

func TestTranscribeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := testClient(srv.URL).Transcribe(context.Background(), writeTestAudio(t)); err == nil {
		t.Error("expected error for HTTP 500 response")
	}
}

func TestTranscribeConnectionRefused(t *testing.T) {
	// Nothing listens here.
	if _, err := testClient("http://127.0.0.1:1").Transcribe(context.Background(), writeTestAudio(t)); err == nil {
		t.Error("expected error when the server is unreachable")
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	if !testClient(srv.URL).Health(context.Background()) {
		t.Error("expected healthy when /health returns 200")
	}
}

func TestHealthDocsFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/docs" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	if !testClient(srv.URL).Health(context.Background()) {
		t.Error("expected healthy via /docs fallback")
	}
}

func TestHealthUnreachable(t *testing.T) {
	if testClient("http://127.0.0.1:1").Health(context.Background()) {
		t.Error("expected unhealthy when nothing is listening")
	}
}
