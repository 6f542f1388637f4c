package module_test

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/JaimeStill/verne/pkg/module"
)

func echoPath(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(r.URL.Path))
}

func TestNewPrefix(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		panics bool
	}{
		{"api", "/api", false},
		{"scalar", "/scalar", false},
		{"empty", "", true},
		{"root", "/", true},
		{"no leading slash", "api", true},
		{"nested path", "/api/v1", true},
		{"needs escaping", "/a b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if r := recover(); (r != nil) != tt.panics {
					t.Errorf("panic = %v, want panic %v", r, tt.panics)
				}
			}()

			m := module.New(tt.prefix, http.NewServeMux())
			if m.Prefix() != tt.prefix {
				t.Errorf("prefix: got %s, want %s", m.Prefix(), tt.prefix)
			}
		})
	}
}

func TestServe(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", echoPath)

	m := module.New("/api", mux)

	tests := []struct {
		name     string
		path     string
		status   int
		wantPath string
	}{
		{"strips prefix", "/api/abcxyz/status", http.StatusOK, "/abcxyz/status"},
		{"module root", "/api", http.StatusOK, "/"},
		{"shared prefix", "/apis/run", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			m.Serve(rec, httptest.NewRequest("GET", tt.path, nil))

			if rec.Code != tt.status {
				t.Fatalf("status: got %d, want %d", rec.Code, tt.status)
			}
			if tt.wantPath != "" && rec.Body.String() != tt.wantPath {
				t.Errorf("inner path: got %s, want %s", rec.Body.String(), tt.wantPath)
			}
		})
	}
}

func TestServeKeepsOriginalRequest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", echoPath)
	m := module.New("/api", mux)

	req := httptest.NewRequest("GET", "/api/abcxyz/latest", nil)
	m.Serve(httptest.NewRecorder(), req)

	if req.URL.Path != "/api/abcxyz/latest" {
		t.Errorf("original path mutated: %s", req.URL.Path)
	}
}

func TestModuleMiddleware(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", echoPath)

	m := module.New("/api", mux)

	var called bool
	m.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			next.ServeHTTP(w, r)
		})
	})

	m.Serve(httptest.NewRecorder(), httptest.NewRequest("GET", "/api", nil))

	if !called {
		t.Error("module middleware not called")
	}
}

func TestRouter(t *testing.T) {
	api := http.NewServeMux()
	api.HandleFunc("GET /abcxyz/latest", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("api"))
	})

	docs := http.NewServeMux()
	docs.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("scalar"))
	})

	router := module.NewRouter()
	router.Mount(module.New("/scalar", docs))
	router.Mount(module.New("/api", api))
	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	tests := []struct {
		name     string
		path     string
		status   int
		wantBody string
	}{
		{"api module", "/api/abcxyz/latest", http.StatusOK, "api"},
		{"trailing slash", "/api/abcxyz/latest/", http.StatusOK, "api"},
		{"scalar module", "/scalar", http.StatusOK, "scalar"},
		{"native", "/healthz", http.StatusOK, "ok"},
		{"unclaimed", "/missing", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))

			if rec.Code != tt.status {
				t.Errorf("status: got %d, want %d", rec.Code, tt.status)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body: got %s, want %s", rec.Body.String(), tt.wantBody)
			}
		})
	}

	if got := router.Prefixes(); !slices.Equal(got, []string{"/api", "/scalar"}) {
		t.Errorf("prefixes = %v", got)
	}
}

func TestRouterDuplicateMountPanics(t *testing.T) {
	router := module.NewRouter()
	router.Mount(module.New("/api", http.NewServeMux()))

	defer func() {
		if recover() == nil {
			t.Error("expected panic for duplicate prefix")
		}
	}()
	router.Mount(module.New("/api", http.NewServeMux()))
}
