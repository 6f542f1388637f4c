package criteria

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/verne/pkg/abcxyz"
	"github.com/JaimeStill/verne/pkg/handlers"
	"github.com/JaimeStill/verne/pkg/routes"
)

// Handler provides HTTP endpoints for the criteria store.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "criteria"),
	}
}

// Routes returns the route group definition for criteria endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:  "/abcxyz/config",
		Tags:    []string{"Criteria"},
		Schemas: Spec.Schemas,
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.Get, OpenAPI: Spec.Get},
			{Method: "PUT", Pattern: "", Handler: h.Update, OpenAPI: Spec.Update},
		},
	}
}

// Get returns the current cut-offs.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.sys.Load(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, c)
}

// Update applies a partial {a_cut, b_cut, x_cut, y_cut} body and returns
// the persisted cut-offs.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var patch abcxyz.CriteriaPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	c, err := h.sys.Save(r.Context(), patch)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, c)
}
