package analysis

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/verne/internal/imports"
	"github.com/JaimeStill/verne/pkg/formatting"
	"github.com/JaimeStill/verne/pkg/handlers"
	"github.com/JaimeStill/verne/pkg/pagination"
	"github.com/JaimeStill/verne/pkg/routes"
)

// multipartOverhead allows for the form boundaries around an upload that
// is exactly the size limit.
const multipartOverhead = 1 << 20

// ErrInvalidID is returned for malformed run id path values.
var ErrInvalidID = errors.New("invalid run id")

// Handler provides HTTP endpoints for classification runs.
type Handler struct {
	sys           System
	logger        *slog.Logger
	pagination    pagination.Config
	maxUploadSize int64
	now           func() time.Time
}

// NewHandler creates a Handler with the given system, logger, pagination config, and upload size limit.
func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
	maxUploadSize int64,
) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "analysis"),
		pagination:    pagination,
		maxUploadSize: maxUploadSize,
		now:           time.Now,
	}
}

// Routes returns the route group definition for analysis endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:  "/abcxyz",
		Tags:    []string{"Analysis"},
		Schemas: Spec.Schemas,
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/run", Handler: h.Run, OpenAPI: Spec.Run},
			{Method: "POST", Pattern: "/import", Handler: h.Import, OpenAPI: Spec.Import},
			{Method: "GET", Pattern: "/precheck", Handler: h.Precheck, OpenAPI: Spec.Precheck},
			{Method: "GET", Pattern: "/template", Handler: h.Template, OpenAPI: Spec.Template},
			{Method: "GET", Pattern: "/status", Handler: h.Status, OpenAPI: Spec.Status},
			{Method: "GET", Pattern: "/latest", Handler: h.Latest, OpenAPI: Spec.Latest},
			{Method: "GET", Pattern: "/last", Handler: h.Latest, OpenAPI: Spec.Last},
			{Method: "GET", Pattern: "/runs", Handler: h.List, OpenAPI: Spec.List},
			{Method: "GET", Pattern: "/runs/{id}", Handler: h.Find, OpenAPI: Spec.Find},
			{Method: "GET", Pattern: "/runs/{id}/export", Handler: h.Export, OpenAPI: Spec.Export},
			{Method: "DELETE", Pattern: "/runs/{id}", Handler: h.Delete, OpenAPI: Spec.Delete},
		},
	}
}

// Run classifies the sales database with the stored criteria.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	run, err := h.sys.RunDatabase(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, run)
}

// Import classifies the spreadsheet sent in the multipart field "file".
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+multipartOverhead)

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = fmt.Errorf("%w of %s", imports.ErrFileTooLarge, formatting.FormatBytes(h.maxUploadSize, 0))
			handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, err)
			return
		}
		handlers.RespondError(w, h.logger, http.StatusBadRequest, imports.ErrInvalidFile)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, imports.ErrInvalidFile)
		return
	}
	defer file.Close()

	run, err := h.sys.RunImport(r.Context(), ImportCommand{
		Filename: header.Filename,
		Data:     file,
	})
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, run)
}

// Precheck reports whether the sales database can support a run.
func (h *Handler) Precheck(w http.ResponseWriter, r *http.Request) {
	p, err := h.sys.Precheck(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, p)
}

// Template downloads an example import spreadsheet.
func (h *Handler) Template(w http.ResponseWriter, r *http.Request) {
	format, err := imports.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	data, err := imports.Template(format, h.now())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondFile(w, format.Filename(imports.TemplateFilename), format.ContentType(), data)
}

// Status returns the current run state.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, h.sys.Status())
}

// Latest returns the most recent run, optionally restricted by the
// "source" query parameter.
func (h *Handler) Latest(w http.ResponseWriter, r *http.Request) {
	source, err := ParseSource(r.URL.Query().Get("source"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	run, err := h.sys.Latest(r.Context(), source)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, run)
}

// List returns a paginated list of run summaries.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns a single run with its result.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidID)
		return
	}

	run, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, run)
}

// Export downloads the classified rows of a run as CSV or XLSX.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidID)
		return
	}

	format, err := imports.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	file, err := h.sys.Export(r.Context(), id, format)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondFile(w, file.Filename, file.ContentType, file.Data)
}

// Delete removes a run and its archived upload.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidID)
		return
	}

	if err := h.sys.Delete(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
