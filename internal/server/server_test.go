package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Digital-Shane/shirarium/internal/core"
	"github.com/Digital-Shane/shirarium/internal/provider"
	"github.com/Digital-Shane/shirarium/internal/provider/inference"
	"github.com/Digital-Shane/shirarium/internal/provider/local"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestParseFilename(t *testing.T) {
	t.Parallel()
	s := New(nil, zerolog.Nop())

	path := "My.Show.S02E07.1080p.WEBRip.mkv"
	rec := do(t, s, http.MethodPost, "/v1/parse-filename", `{"path": "`+path+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var got provider.Record
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if diff := cmp.Diff(local.Classify(path).Record(), got); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFilenameWireShape(t *testing.T) {
	t.Parallel()
	s := New(nil, zerolog.Nop())

	rec := do(t, s, http.MethodPost, "/v1/parse-filename", `{"path": "Noroi (2005) 1080p BluRay x264.mkv"}`)
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	for _, key := range []string{"title", "media_type", "year", "season", "episode", "confidence", "source", "raw_tokens"} {
		if _, ok := body[key]; !ok {
			t.Errorf("response missing %q: %s", key, rec.Body)
		}
	}
	if body["season"] != nil || body["episode"] != nil {
		t.Errorf("movie response season/episode = %v/%v, want null", body["season"], body["episode"])
	}
	if body["media_type"] != "movie" || body["year"] != float64(2005) {
		t.Errorf("response = %s, want movie 2005", rec.Body)
	}
}

func TestParseFilenameErrors(t *testing.T) {
	t.Parallel()
	s := New(nil, zerolog.Nop())

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
	}{
		{"EmptyPath", `{"path": ""}`, http.StatusUnprocessableEntity, "INVALID_REQUEST"},
		{"BlankPath", `{"path": "   "}`, http.StatusUnprocessableEntity, "INVALID_REQUEST"},
		{"MissingPath", `{}`, http.StatusUnprocessableEntity, "INVALID_REQUEST"},
		{"MalformedJSON", `{"path": `, http.StatusBadRequest, "MALFORMED_JSON"},
		{"EmptyBody", ``, http.StatusBadRequest, "MALFORMED_JSON"},
		{"TooLarge", `{"path": "` + strings.Repeat("a", maxBodyBytes) + `"}`, http.StatusRequestEntityTooLarge, "REQUEST_TOO_LARGE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/v1/parse-filename", tt.body)
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			var got errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("decode error body: %v (%s)", err, rec.Body)
			}
			if got.Error.Code != tt.wantErr || got.Error.Message == "" {
				t.Errorf("error = %+v, want code %s with message", got.Error, tt.wantErr)
			}
		})
	}
}

func TestParseFilenameMethodNotAllowed(t *testing.T) {
	t.Parallel()
	rec := do(t, New(nil, zerolog.Nop()), http.MethodGet, "/v1/parse-filename", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	ext := inference.New()
	if err := ext.Configure(map[string]interface{}{"base_url": "http://127.0.0.1:1", "model": "llama3.1:8b"}); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}

	tests := []struct {
		name       string
		classifier *core.Classifier
		want       HealthResponse
	}{
		{"Disabled", core.NewClassifier(core.ClassifierConfig{}), HealthResponse{Status: "ok", OllamaEnabled: "false"}},
		{"Enabled", core.NewClassifier(core.ClassifierConfig{External: ext}), HealthResponse{Status: "ok", OllamaEnabled: "true"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, New(tt.classifier, zerolog.Nop()), http.MethodGet, "/health", "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			var got HealthResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("health mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	t.Parallel()
	s := New(nil, zerolog.Nop())

	rec := do(t, s, http.MethodGet, "/health", "")
	generated := rec.Header().Get(RequestIDHeader)
	if len(generated) != 36 {
		t.Errorf("generated request id = %q, want a uuid", generated)
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q, want the caller's abc-123", got)
	}
}

func TestAccessLog(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := New(nil, zerolog.New(&buf))

	req := httptest.NewRequest(http.MethodPost, "/v1/parse-filename", strings.NewReader(`{"path": ""}`))
	req.Header.Set(RequestIDHeader, "req-42")
	s.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	for _, want := range []string{`"request_id":"req-42"`, `"status":422`, `"path":"/v1/parse-filename"`, `"method":"POST"`} {
		if !strings.Contains(out, want) {
			t.Errorf("access log %q missing %s", out, want)
		}
	}
}

func TestUnreachableBackendFallsBack(t *testing.T) {
	t.Parallel()

	ext := inference.New()
	if err := ext.Configure(map[string]interface{}{
		"base_url": "http://127.0.0.1:1",
		"model":    "llama3.1:8b",
		"timeout":  time.Second,
	}); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	s := New(core.NewClassifier(core.ClassifierConfig{External: ext, Logger: zerolog.Nop()}), zerolog.Nop())

	path := "Random Words Here.mkv"
	rec := do(t, s, http.MethodPost, "/v1/parse-filename", `{"path": "`+path+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got provider.Record
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(local.Classify(path).Record(), got); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(nil, zerolog.Nop()).Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/health"
	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Get(url)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}
