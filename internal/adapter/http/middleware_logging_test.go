package adapthttp

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	s := (&Server{}).WithLogger(zerolog.New(&buf))

	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("OK"))
	})
	handler := s.loggingMiddleware(nextHandler)

	req := httptest.NewRequest("GET", "/test-path", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusTeapot {
		t.Errorf("Expected status %d, got %d", http.StatusTeapot, w.Code)
	}

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected a JSON log line, got %q: %v", buf.String(), err)
	}
	if line["method"] != "GET" || line["path"] != "/test-path" || line["status"] != float64(418) {
		t.Errorf("Log output missing expected fields. Got: %s", buf.String())
	}
	if _, ok := line["duration"]; !ok {
		t.Error("expected a duration field")
	}
}

func TestLoggingMiddleware_ErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	s := (&Server{}).WithLogger(zerolog.New(&buf))

	handler := s.loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/boom", nil))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if line["level"] != "error" {
		t.Errorf("expected error level for 5xx, got %v", line["level"])
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc.def", "abc.def", true},
		{"bearer abc", "abc", true},
		{"Basic abc", "", false},
		{"Bearer ", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		got, ok := bearerToken(r)
		if got != tt.want || ok != tt.ok {
			t.Errorf("bearerToken(%q) = %q, %v; want %q, %v", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}
