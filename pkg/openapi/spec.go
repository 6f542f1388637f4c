package openapi

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
)

// Spec is an OpenAPI 3.1 document.
type Spec struct {
	OpenAPI    string               `json:"openapi"`
	Info       *Info                `json:"info"`
	Servers    []*Server            `json:"servers,omitempty"`
	Paths      map[string]PathItem `json:"paths"`
	Components *Components          `json:"components,omitempty"`
}

// NewSpec starts a document from cfg with the shared error responses
// registered and one entry per server URL.
func NewSpec(cfg Config, version string, servers ...string) *Spec {
	spec := &Spec{
		OpenAPI: "3.1.0",
		Info: &Info{
			Title:       cfg.Title,
			Description: cfg.Description,
			Version:     version,
		},
		Paths:      make(map[string]PathItem),
		Components: NewComponents(),
	}

	for _, url := range servers {
		spec.Servers = append(spec.Servers, &Server{URL: url})
	}
	return spec
}

// Handler serializes spec once and serves it with an ETag so clients can
// revalidate with If-None-Match.
func Handler(spec *Spec) (http.HandlerFunc, error) {
	data, err := json.Marshal(spec)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(data)
	etag := `"` + hex.EncodeToString(sum[:8]) + `"`

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", etag)
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Write(data)
	}, nil
}
