package web_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/JaimeStill/verne/pkg/web"
)

func TestRouter(t *testing.T) {
	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }
	teapot := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) }

	tests := []struct {
		name     string
		fallback http.HandlerFunc
		path     string
		expected int
	}{
		{"registered route", nil, "/known", http.StatusOK},
		{"registered route with fallback", teapot, "/known", http.StatusOK},
		{"fallback", teapot, "/unknown", http.StatusTeapot},
		{"no fallback", nil, "/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := web.NewRouter()
			r.HandleFunc("GET /known", ok)
			if tt.fallback != nil {
				r.SetFallback(tt.fallback)
			}

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))

			if rec.Code != tt.expected {
				t.Errorf("got %d, want %d", rec.Code, tt.expected)
			}
		})
	}
}

func TestServeEmbeddedFile(t *testing.T) {
	tests := []struct {
		name        string
		data        []byte
		contentType string
	}{
		{"json", []byte(`{"ok":true}`), "application/json"},
		{"html", []byte(`<h1>hola</h1>`), "text/html"},
		{"empty", []byte{}, "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			web.ServeEmbeddedFile(tt.data, tt.contentType).ServeHTTP(rec, httptest.NewRequest("GET", "/file", nil))

			if rec.Code != http.StatusOK {
				t.Errorf("status: got %d, want 200", rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != tt.contentType {
				t.Errorf("content-type: got %q, want %q", ct, tt.contentType)
			}
			if rec.Body.String() != string(tt.data) {
				t.Errorf("body: got %q, want %q", rec.Body.String(), string(tt.data))
			}
		})
	}
}

func TestRender(t *testing.T) {
	fsys := fstest.MapFS{
		"page.html":   {Data: []byte(`<a href="{{ .URL }}">{{ .Name }}</a>`)},
		"broken.html": {Data: []byte(`{{ .Name `)},
	}

	t.Run("escapes data", func(t *testing.T) {
		out, err := web.Render(fsys, "page.html", map[string]string{
			"URL":  "/api/openapi.json",
			"Name": "<Verne>",
		})
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if !strings.Contains(string(out), "&lt;Verne&gt;") {
			t.Errorf("output not escaped: %s", out)
		}
		if !strings.Contains(string(out), `href="/api/openapi.json"`) {
			t.Errorf("missing href: %s", out)
		}
	})

	t.Run("parse error", func(t *testing.T) {
		if _, err := web.Render(fsys, "broken.html", nil); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("missing template", func(t *testing.T) {
		if _, err := web.Render(fsys, "missing.html", nil); err == nil {
			t.Error("expected error for missing template")
		}
	})
}
