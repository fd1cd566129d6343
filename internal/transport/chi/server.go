// Package chi exposes the HTTP API: the generic read surface over every
// registered entity type, the write path, health and metrics.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tourdex/internal/domain"
	"github.com/kailas-cloud/tourdex/internal/domain/entity"
	"github.com/kailas-cloud/tourdex/internal/domain/filter"
	logpkg "github.com/kailas-cloud/tourdex/internal/logger"
	"github.com/kailas-cloud/tourdex/internal/metrics"
	contentuc "github.com/kailas-cloud/tourdex/internal/usecase/content"
	healthuc "github.com/kailas-cloud/tourdex/internal/usecase/health"
)

// Error codes returned in the error response body.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeNotFound         = "not_found"
	codeInternalError    = "internal_error"
)

// errorResponse is the JSON error body.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Param   string `json:"param,omitempty"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server wires the usecases to the chi router.
type Server struct {
	content         *contentuc.Service
	health          *healthuc.Service
	logger          *zap.Logger
	defaultPageSize int
	maxPageSize     int
	errorHandlers   []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(content *contentuc.Service, health *healthuc.Service, logger *zap.Logger, defaultPageSize, maxPageSize int) *Server {
	s := &Server{
		content:         content,
		health:          health,
		logger:          logger,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
	s.errorHandlers = []errorHandler{
		paramErrorHandler,
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrUnknownEntityType, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
	}
	return s
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chirouter.NewRouter()
	r.Route("/v1/{entitytype}", func(r chirouter.Router) {
		r.Get("/", s.listEntities)
		r.Post("/", s.createEntity)
		r.Get("/{id}", s.getEntity)
		r.Put("/{id}", s.upsertEntity)
		r.Delete("/{id}", s.deleteEntity)
	})
	r.Get("/healthz", s.healthCheck)
	r.Get("/metrics", s.metricsHandler)
	return r
}

// listEntities handles GET /v1/{entitytype}.
func (s *Server) listEntities(w http.ResponseWriter, r *http.Request) {
	t, ok := s.entityFromRequest(w, r)
	if !ok {
		return
	}
	id := identityFromRequest(r)

	spec, err := filter.NewSpec(t, filterParamsFromRequest(r, t, id), s.defaultPageSize, s.maxPageSize)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	pg, err := s.content.List(r.Context(), &spec, projectionContextFromSpec(r, &spec, id))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	metrics.ObserveListQuery(t.Name, pg.TotalCount)
	pg.Links = pageLinks(r, pg.PageNumber, pg.TotalPages)
	writeJSON(w, http.StatusOK, pg)
}

// getEntity handles GET /v1/{entitytype}/{id}.
func (s *Server) getEntity(w http.ResponseWriter, r *http.Request) {
	t, ok := s.entityFromRequest(w, r)
	if !ok {
		return
	}
	id := identityFromRequest(r)

	// Single fetches accept the projection parameters only; reusing the
	// spec keeps their validation in one place.
	spec, err := filter.NewSpec(t, filter.Params{
		Language:         r.URL.Query().Get("language"),
		Fields:           r.URL.Query().Get("fields"),
		RemoveNullValues: r.URL.Query().Get("removenullvalues"),
	}, s.defaultPageSize, s.maxPageSize)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	out, err := s.content.Get(r.Context(), t, chirouter.URLParam(r, "id"), projectionContextFromSpec(r, &spec, id))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// upsertEntity handles PUT /v1/{entitytype}/{id}.
func (s *Server) upsertEntity(w http.ResponseWriter, r *http.Request) {
	t, ok := s.entityFromRequest(w, r)
	if !ok {
		return
	}
	data, ok := decodeBody(w, r)
	if !ok {
		return
	}

	id, created, err := s.content.Upsert(r.Context(), t, chirouter.URLParam(r, "id"), data)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]any{"Id": id, "Created": created})
}

// createEntity handles POST /v1/{entitytype}; the id is generated.
func (s *Server) createEntity(w http.ResponseWriter, r *http.Request) {
	t, ok := s.entityFromRequest(w, r)
	if !ok {
		return
	}
	data, ok := decodeBody(w, r)
	if !ok {
		return
	}

	id, _, err := s.content.Upsert(r.Context(), t, "", data)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"Id": id, "Created": true})
}

// deleteEntity handles DELETE /v1/{entitytype}/{id}.
func (s *Server) deleteEntity(w http.ResponseWriter, r *http.Request) {
	t, ok := s.entityFromRequest(w, r)
	if !ok {
		return
	}
	if err := s.content.Delete(r.Context(), t, chirouter.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// healthCheck handles GET /healthz.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// metricsHandler handles GET /metrics.
func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) entityFromRequest(w http.ResponseWriter, r *http.Request) (*entity.Type, bool) {
	name := chirouter.URLParam(r, "entitytype")
	t, ok := entity.Lookup(name)
	if !ok {
		writeError(w, http.StatusNotFound, codeNotFound, "unknown entity type "+name)
		return nil, false
	}
	return t, true
}

func decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var data map[string]any
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return nil, false
	}
	return data, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals or query text.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrValidation,
		domain.ErrUnknownEntityType,
		domain.ErrDocumentNotFound,
		domain.ErrNotFound,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// paramErrorHandler reports validation failures with the offending
// parameter named.
func paramErrorHandler(w http.ResponseWriter, err error, _ string) bool {
	var perr *domain.ParamError
	if !errors.As(err, &perr) {
		return false
	}
	writeJSON(w, http.StatusBadRequest, errorResponse{
		Code:    codeValidationFailed,
		Message: perr.Error(),
		Param:   perr.Param,
	})
	return true
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// handleDomainError walks the handler chain. The request-scoped logger
// carries the request id when the canonical-log middleware is installed.
func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context(), s.logger)

	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
