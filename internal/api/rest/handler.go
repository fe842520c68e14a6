package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/syntrixbase/filecatalog/internal/api/config"
	"github.com/syntrixbase/filecatalog/internal/catalog"
	"github.com/syntrixbase/filecatalog/internal/server"
	"github.com/syntrixbase/filecatalog/pkg/model"
)

// FileReader resolves one file by identifier.
type FileReader interface {
	FindByID(ctx context.Context, id string) (*model.FileRecord, error)
}

// TagMutator applies a tag operation to one file.
type TagMutator interface {
	Apply(ctx context.Context, id string, requested []string, mode model.TagMode) (*model.FileRecord, error)
}

// FileSearcher answers name searches.
type FileSearcher interface {
	Search(ctx context.Context, q catalog.Query) ([]*model.FileRecord, error)
}

// ReconcileTrigger requests an out-of-schedule reconciliation.
type ReconcileTrigger interface {
	Trigger()
}

type Handler struct {
	reader   FileReader
	mutator  TagMutator
	searcher FileSearcher
	trigger  ReconcileTrigger

	cfg    config.Config
	auth   *Authenticator
	logger *slog.Logger
}

// NewHandler creates the REST handler. trigger may be nil when background
// reconciliation is disabled; the admin route then answers 503.
func NewHandler(reader FileReader, mutator TagMutator, searcher FileSearcher, trigger ReconcileTrigger, cfg config.Config, logger *slog.Logger) *Handler {
	if reader == nil || mutator == nil || searcher == nil {
		panic("rest: reader, mutator and searcher are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	cfg.ApplyDefaults()

	h := &Handler{
		reader:   reader,
		mutator:  mutator,
		searcher: searcher,
		trigger:  trigger,
		cfg:      cfg,
		logger:   logger.With("component", "rest"),
	}
	if cfg.Auth.Enabled() {
		h.auth = NewAuthenticator(cfg.Auth)
	}
	return h
}

// APIError represents a structured error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeConflict        = "CONFLICT"
	ErrCodeUnavailable     = "UNAVAILABLE"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	ErrCodeInternalError   = "INTERNAL_ERROR"
)

// StatusClientClosedRequest is written when the caller went away first.
const StatusClientClosedRequest = 499

// writeError writes a structured JSON error response
func writeError(w http.ResponseWriter, status int, code string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(APIError{Code: code, Message: message}); err != nil {
		slog.Warn("Failed to encode error response", "error", err)
	}
}

// writeInternalError answers 499 when the client went away and 500 otherwise.
// Store and handler deadlines are server failures and get a 500.
func (h *Handler) writeInternalError(w http.ResponseWriter, r *http.Request, err error, message string) {
	if errors.Is(r.Context().Err(), context.Canceled) {
		w.WriteHeader(StatusClientClosedRequest)
		return
	}
	h.logger.Error(message, "error", err, "path", r.URL.Path, "request_id", server.GetRequestID(r.Context()))
	writeError(w, http.StatusInternalServerError, ErrCodeInternalError, message)
}

// writeCatalogError maps catalog errors to status codes.
func (h *Handler) writeCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "File not found")
	case errors.Is(err, model.ErrConflict):
		writeError(w, http.StatusConflict, ErrCodeConflict, "Concurrent tag update, retry later")
	default:
		h.writeInternalError(w, r, err, "Catalog operation failed")
	}
}

// writeJSON writes a JSON response with proper error handling
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("Failed to encode JSON response", "error", err)
	}
}

// maxBodySize wraps a handler with request body size limiting
func maxBodySize(next http.HandlerFunc, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		}
		next(w, r)
	}
}

// withTimeout wraps a handler with a context timeout
func withTimeout(next http.HandlerFunc, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		next(w, r.WithContext(ctx))
	}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	timeout, limit := h.cfg.RequestTimeout, h.cfg.MaxBodyBytes

	// {id} is a single path-escaped segment, e.g. /files/%2Fdocs%2Fa.txt
	mux.HandleFunc("GET /files/search", withTimeout(h.handleSearch, timeout))
	mux.HandleFunc("GET /files/{id}", withTimeout(h.handleGetFile, timeout))

	mux.HandleFunc("POST /files/{id}/tags", withTimeout(maxBodySize(h.protected(h.handleTags(model.TagModeReset)), limit), timeout))
	mux.HandleFunc("PUT /files/{id}/tags", withTimeout(maxBodySize(h.protected(h.handleTags(model.TagModeMerge)), limit), timeout))
	mux.HandleFunc("DELETE /files/{id}/tags", withTimeout(maxBodySize(h.protected(h.handleTags(model.TagModeDelete)), limit), timeout))

	mux.HandleFunc("POST /admin/reconcile", withTimeout(h.protected(h.handleReconcile), timeout))

	mux.HandleFunc("GET /health", withTimeout(h.handleHealth, 5*time.Second))
}

// protected requires a bearer token when authentication is configured.
func (h *Handler) protected(next http.HandlerFunc) http.HandlerFunc {
	if h.auth == nil {
		return next
	}
	return h.auth.Middleware(next)
}
