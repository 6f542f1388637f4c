package api

import (
	"log/slog"
	"net/http"
	"path"

	"github.com/JaimeStill/verne/pkg/handlers"
	"github.com/JaimeStill/verne/pkg/openapi"
	"github.com/JaimeStill/verne/pkg/routes"
	"github.com/JaimeStill/verne/pkg/storage"
)

// archivePrefix scopes listings to archived imports when no prefix is given.
const archivePrefix = "imports/"

// storageHandler exposes read-only access to archived import spreadsheets.
type storageHandler struct {
	store       storage.System
	logger      *slog.Logger
	maxListSize int32
}

func newStorageHandler(store storage.System, logger *slog.Logger, maxListSize int32) *storageHandler {
	return &storageHandler{
		store:       store,
		logger:      logger.With("handler", "storage"),
		maxListSize: maxListSize,
	}
}

func (h *storageHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/storage",
		Tags:   []string{"Storage"},
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.list, OpenAPI: storageSpec.list},
			{Method: "GET", Pattern: "/download/{key...}", Handler: h.download, OpenAPI: storageSpec.download},
			{Method: "GET", Pattern: "/{key...}", Handler: h.find, OpenAPI: storageSpec.find},
		},
	}
}

func (h *storageHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	size, err := storage.ParseMaxResults(q.Get("max_results"), h.maxListSize)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	prefix := q.Get("prefix")
	if prefix == "" {
		prefix = archivePrefix
	}

	page, err := h.store.List(r.Context(), prefix, q.Get("marker"), size)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, page)
}

func (h *storageHandler) find(w http.ResponseWriter, r *http.Request) {
	info, err := h.store.Find(r.Context(), r.PathValue("key"))
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, info)
}

func (h *storageHandler) download(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	info, err := h.store.Find(r.Context(), key)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}

	body, err := h.store.Download(r.Context(), key)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}
	defer body.Close()

	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := handlers.RespondStream(w, path.Base(key), contentType, info.Size, body); err != nil {
		h.logger.Warn("download interrupted", "key", key, "error", err)
	}
}

var keyParam = &openapi.Parameter{
	Name:        "key",
	In:          "path",
	Required:    true,
	Description: "Blob key, e.g. imports/{run_id}/{filename}",
	Schema:      &openapi.Schema{Type: "string"},
}

var storageSpec = struct {
	list, find, download *openapi.Operation
}{
	list: &openapi.Operation{
		Summary: "List archived imports",
		Parameters: []*openapi.Parameter{
			openapi.QueryParam("prefix", "string", "Key prefix, defaults to imports/", false),
			openapi.QueryParam("marker", "string", "Continuation marker", false),
			openapi.QueryParam("max_results", "integer", "Page size", false),
		},
		Responses: map[int]*openapi.Response{
			200: {Description: "Blob listing"},
			400: openapi.ResponseRef("BadRequest"),
		},
	},
	find: &openapi.Operation{
		Summary:    "Archived import metadata",
		Parameters: []*openapi.Parameter{keyParam},
		Responses: map[int]*openapi.Response{
			200: {Description: "Blob metadata"},
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	download: &openapi.Operation{
		Summary:    "Download archived import",
		Parameters: []*openapi.Parameter{keyParam},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseFile("Original upload", "text/csv", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
}
