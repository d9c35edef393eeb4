package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	domdoc "github.com/kailas-cloud/searchgate/internal/domain/document"
	"github.com/kailas-cloud/searchgate/internal/domain/search/query"
	logpkg "github.com/kailas-cloud/searchgate/internal/logger"
	"github.com/kailas-cloud/searchgate/internal/metrics"
	healthuc "github.com/kailas-cloud/searchgate/internal/usecase/health"
	"github.com/kailas-cloud/searchgate/internal/usecase/indexing"
)

// maxBodyBytes bounds webhook and search request bodies.
const maxBodyBytes = 32 << 20

// Server serves the search, webhook, and admin HTTP surface.
type Server struct {
	search        Searcher
	ingest        Ingester
	health        HealthChecker
	logger        *zap.Logger
	now           func() time.Time
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search Searcher, ingest Ingester, health HealthChecker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		search:        search,
		ingest:        ingest,
		health:        health,
		logger:        logger,
		now:           time.Now,
		errorHandlers: defaultErrorHandlers(),
	}
}

// Router mounts every route behind the standard middleware chain.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Post("/search", s.Search)
	r.Post("/webhook/index", s.IndexDocuments)
	r.Delete("/webhook/documents/{type}/{id}", s.DeleteDocument)
	r.Post("/reindex", s.ReindexAll)
	r.Post("/reindex/{type}", s.Reindex)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})
	return r
}

// IndexRequest is the webhook body. Documents stays raw so a missing or
// non-array value can be told apart from an empty batch.
type IndexRequest struct {
	Documents json.RawMessage `json:"documents"`
	Type      string          `json:"type,omitempty"`
}

// IndexResponse acknowledges a webhook batch.
type IndexResponse struct {
	Success   bool                 `json:"success"`
	Indexed   int                  `json:"indexed"`
	Failed    int                  `json:"failed"`
	Type      string               `json:"type"`
	BatchID   string               `json:"batchId"`
	Errors    []indexingFailureDTO `json:"errors,omitempty"`
	Timestamp string               `json:"timestamp"`
}

type indexingFailureDTO struct {
	ID     string `json:"id"`
	Status int    `json:"status"`
	Reason string `json:"reason"`
}

// DeleteResponse acknowledges a document deletion.
type DeleteResponse struct {
	Success   bool   `json:"success"`
	Deleted   string `json:"deleted"`
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
}

// ReindexResponse reports a replay of one type.
type ReindexResponse struct {
	Success   bool   `json:"success"`
	Type      string `json:"type"`
	Indexed   int    `json:"indexed"`
	Failed    int    `json:"failed"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ReindexAllResponse reports a replay of every journaled type.
type ReindexAllResponse struct {
	Success   bool              `json:"success"`
	Types     []ReindexResponse `json:"types"`
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Search handles POST /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var q query.Query
	if err := decodeBody(w, r, &q); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	page, err := s.search.Query(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// IndexDocuments handles POST /webhook/index.
func (s *Server) IndexDocuments(w http.ResponseWriter, r *http.Request) {
	var req IndexRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	var docs []domdoc.Document
	if len(req.Documents) == 0 || req.Documents[0] != '[' {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "documents array is required")
		return
	}
	if err := json.Unmarshal(req.Documents, &docs); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "Invalid documents: "+err.Error())
		return
	}

	batchID := uuid.NewString()
	r = r.WithContext(logpkg.With(r.Context(), zap.String("batch_id", batchID)))
	logpkg.FromContext(r.Context()).Info("webhook batch received",
		zap.String("type", req.Type),
		zap.Int("documents", len(docs)),
	)

	report, err := s.ingest.IndexDocuments(r.Context(), req.Type, docs)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, IndexResponse{
		Success:   true,
		Indexed:   report.Indexed,
		Failed:    report.Failed,
		Type:      report.Type,
		BatchID:   batchID,
		Errors:    failuresToDTO(report),
		Timestamp: s.timestamp(),
	})
}

// DeleteDocument handles DELETE /webhook/documents/{type}/{id}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	docType := chi.URLParam(r, "type")
	id := chi.URLParam(r, "id")

	if err := s.ingest.DeleteDocument(r.Context(), docType, id); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, DeleteResponse{
		Success:   true,
		Deleted:   id,
		Type:      docType,
		Timestamp: s.timestamp(),
	})
}

// Reindex handles POST /reindex/{type}.
func (s *Server) Reindex(w http.ResponseWriter, r *http.Request) {
	report, err := s.ingest.Reindex(r.Context(), chi.URLParam(r, "type"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.reindexResponse(report))
}

// ReindexAll handles POST /reindex.
func (s *Server) ReindexAll(w http.ResponseWriter, r *http.Request) {
	reports, err := s.ingest.ReindexAll(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	types := make([]ReindexResponse, len(reports))
	for i := range reports {
		types[i] = s.reindexResponse(reports[i])
	}
	writeJSON(w, http.StatusOK, ReindexAllResponse{
		Success:   true,
		Types:     types,
		Status:    "reindexed",
		Timestamp: s.timestamp(),
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) reindexResponse(report indexing.Report) ReindexResponse {
	return ReindexResponse{
		Success:   true,
		Type:      report.Type,
		Indexed:   report.Indexed,
		Failed:    report.Failed,
		Status:    "reindexed",
		Timestamp: s.timestamp(),
	}
}

func (s *Server) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logpkg.FromContext(r.Context())
	logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.String("path", r.URL.Path), zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func failuresToDTO(report indexing.Report) []indexingFailureDTO {
	if len(report.Sample) == 0 {
		return nil
	}
	out := make([]indexingFailureDTO, len(report.Sample))
	for i, f := range report.Sample {
		out[i] = indexingFailureDTO{ID: f.ID, Status: f.Status, Reason: f.Reason}
	}
	return out
}
