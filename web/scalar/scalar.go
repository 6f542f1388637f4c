// Package scalar serves the Scalar API reference for the generated OpenAPI
// document.
package scalar

import (
	"embed"
	"net/http"

	"github.com/JaimeStill/verne/pkg/module"
	"github.com/JaimeStill/verne/pkg/web"
)

//go:embed index.html
var pageFS embed.FS

type page struct {
	Title   string
	SpecURL string
}

// NewModule creates a module at basePath whose index loads the spec served
// at specURL. Any other path under basePath redirects to the index.
func NewModule(basePath, title, specURL string) (*module.Module, error) {
	index, err := web.Render(pageFS, "index.html", page{Title: title, SpecURL: specURL})
	if err != nil {
		return nil, err
	}

	router := web.NewRouter()
	router.HandleFunc("GET /{$}", web.ServeEmbeddedFile(index, "text/html; charset=utf-8"))
	router.SetFallback(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, basePath+"/", http.StatusFound)
	})

	return module.New(basePath, router), nil
}
