package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"zmodels/internal/codec"
	"zmodels/internal/domain"
	"zmodels/internal/service"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 8 << 20

// HealthChecker reports whether the database is reachable
type HealthChecker interface {
	Health(ctx context.Context) error
}

// ModelHandler handles model API requests
type ModelHandler struct {
	catalog *service.Catalog
	health  HealthChecker
	log     zerolog.Logger
}

// NewModelHandler creates a new model handler
func NewModelHandler(catalog *service.Catalog, health HealthChecker, log zerolog.Logger) *ModelHandler {
	return &ModelHandler{
		catalog: catalog,
		health:  health,
		log:     log.With().Str("component", "http").Logger(),
	}
}

// Routes registers the handler's routes on mux. events, when not nil,
// serves the change feed.
func (h *ModelHandler) Routes(mux *http.ServeMux, events http.Handler) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /api/models", h.ListModels)
	mux.HandleFunc("GET /api/models/{model}", h.Filter)
	mux.HandleFunc("GET /api/models/{model}/one", h.Get)
	mux.HandleFunc("POST /api/models/{model}", h.Create)
	mux.HandleFunc("POST /api/models/{model}/get-or-create", h.GetOrCreate)
	if events != nil {
		mux.Handle("GET /api/events", events)
	}
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Health reports database reachability
func (h *ModelHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health.Health(r.Context()); err != nil {
			h.writeError(w, "Unhealthy", err.Error(), http.StatusServiceUnavailable)
			return
		}
	}
	h.writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// ListModels returns the registered schemas
func (h *ModelHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.catalog.Schemas(), http.StatusOK)
}

// Filter returns the rows matching the query parameters
func (h *ModelHandler) Filter(w http.ResponseWriter, r *http.Request) {
	models, err := h.catalog.Filter(r.Context(), r.PathValue("model"), service.ParseQuery(r.URL.Query()))
	if err != nil {
		h.handleError(w, r, "Failed to filter models", err)
		return
	}
	h.writeModels(w, r, models, http.StatusOK)
}

// Get returns the single row matching the query parameters
func (h *ModelHandler) Get(w http.ResponseWriter, r *http.Request) {
	m, err := h.catalog.Get(r.Context(), r.PathValue("model"), service.ParseQuery(r.URL.Query()))
	if err != nil {
		h.handleError(w, r, "Failed to get model", err)
		return
	}
	h.writeModel(w, m, http.StatusOK)
}

// Create creates one row from a JSON object, or imports a JSON array of objects
func (h *ModelHandler) Create(w http.ResponseWriter, r *http.Request) {
	model := r.PathValue("model")

	sets, isArray, err := readAttributeSets(w, r)
	if err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	if isArray {
		created, err := h.catalog.Import(r.Context(), model, sets)
		if err != nil {
			h.handleError(w, r, "Failed to import models", err)
			return
		}
		h.writeModels(w, r, created, http.StatusCreated)
		return
	}

	m, err := h.catalog.Create(r.Context(), model, sets[0])
	if err != nil {
		h.handleError(w, r, "Failed to create model", err)
		return
	}
	h.writeModel(w, m, http.StatusCreated)
}

// GetOrCreate returns the row matching a JSON object of terms, creating it if needed.
// Replies 201 when a row was created and 200 otherwise.
func (h *ModelHandler) GetOrCreate(w http.ResponseWriter, r *http.Request) {
	sets, isArray, err := readAttributeSets(w, r)
	if err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}
	if isArray {
		h.writeError(w, "Invalid request body", "expected a JSON object", http.StatusBadRequest)
		return
	}

	m, created, err := h.catalog.GetOrCreate(r.Context(), r.PathValue("model"), sets[0])
	if err != nil {
		h.handleError(w, r, "Failed to get or create model", err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	h.writeModel(w, m, status)
}

// readAttributeSets decodes a JSON object or array body
func readAttributeSets(w http.ResponseWriter, r *http.Request) ([]domain.Attributes, bool, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, false, err
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, false, errors.New("empty body")
	}
	isArray := trimmed[0] == '['

	sets, err := codec.NewJSONCodec().Parse(bytes.NewReader(trimmed))
	if err != nil {
		return nil, false, err
	}
	if !isArray && len(sets) != 1 {
		return nil, false, errors.New("expected a JSON object")
	}
	return sets, isArray, nil
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case domain.IsNotFound(err), errors.Is(err, domain.ErrUnknownModel):
		return http.StatusNotFound
	case domain.IsNotUnique(err):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnknownField), errors.Is(err, domain.ErrInvalidValue):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *ModelHandler) handleError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg(msg)
	}
	h.writeError(w, msg, err.Error(), status)
}

// Helper methods

// exporterFor picks a list exporter from the Accept header
func exporterFor(r *http.Request) (codec.Exporter, string) {
	accept := r.Header.Get("Accept")
	switch {
	case strings.Contains(accept, "yaml"):
		return codec.NewYAMLCodec(), "application/yaml"
	case strings.Contains(accept, "text/plain"):
		return codec.NewTextCodec(), "text/plain; charset=utf-8"
	}
	return codec.NewJSONCodec(), "application/json"
}

func (h *ModelHandler) writeModels(w http.ResponseWriter, r *http.Request, models []*domain.Model, statusCode int) {
	exporter, contentType := exporterFor(r)

	var buf bytes.Buffer
	if err := exporter.Export(models, &buf); err != nil {
		h.log.Error().Err(err).Msg("failed to export models")
		h.writeError(w, "Failed to encode models", err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(statusCode)
	w.Write(buf.Bytes())
}

func (h *ModelHandler) writeModel(w http.ResponseWriter, m *domain.Model, statusCode int) {
	var buf bytes.Buffer
	if err := codec.NewJSONCodec().EncodeModel(m, &buf); err != nil {
		h.log.Error().Err(err).Msg("failed to encode model")
		h.writeError(w, "Failed to encode model", err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(buf.Bytes())
}

func (h *ModelHandler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("failed to encode JSON")
	}
}

func (h *ModelHandler) writeError(w http.ResponseWriter, error, details string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Details: details,
	}); err != nil {
		h.log.Error().Err(err).Msg("failed to encode error response")
	}
}
