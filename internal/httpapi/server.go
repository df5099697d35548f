package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/dshills/forensicq/internal/engine"
	"github.com/dshills/forensicq/pkg/types"
)

const (
	// ServiceMessage is returned by GET /
	ServiceMessage = "forensicq high-speed forensic query API"

	maxBodyBytes    = 1 << 20
	shutdownTimeout = 10 * time.Second
)

// Server exposes an Engine over HTTP/JSON
type Server struct {
	engine *engine.Engine
	logger zerolog.Logger
	mux    *http.ServeMux
}

// New creates a Server and registers its routes
func New(eng *engine.Engine, logger zerolog.Logger) *Server {
	s := &Server{
		engine: eng,
		logger: logger,
		mux:    http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleRoot)
	s.mux.HandleFunc("POST /scan", s.handleScan)
	s.mux.HandleFunc("POST /query", s.handleQuery)
	s.mux.HandleFunc("POST /query_by_category", s.handleQueryByCategory)
	s.mux.HandleFunc("GET /packages", s.handlePackages)
	s.mux.HandleFunc("GET /package_paths", s.handlePackagePaths)
	s.mux.HandleFunc("POST /release_memory", s.handleReleaseMemory)
	s.mux.HandleFunc("POST /clear_data", s.handleClearData)
	s.mux.HandleFunc("GET /apps", s.handleApps)
	s.mux.HandleFunc("GET /stats", s.handleStats)
}

// Handler returns the routed handler wrapped with request logging
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully. In-flight scans are allowed to finish within the shutdown
// timeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("http server listening")
		errChan <- srv.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info().Msg("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type scanRequest struct {
	RootDir string `json:"root_dir"`
}

type queryRequest struct {
	Keyword string `json:"keyword"`
	Source  string `json:"source"`
}

type categoryRequest struct {
	Keyword  string `json:"keyword"`
	Category string `json:"category"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": ServiceMessage,
		"version": engine.Version,
	})
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	sum, err := s.engine.Indexer.Scan(r.Context(), req.RootDir)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	response := map[string]interface{}{
		"status":         "success",
		"scan_id":        sum.ScanID,
		"count":          sum.Processed,
		"package_count":  sum.PackageCount,
		"skipped":        sum.Skipped,
		"errored":        sum.Errored,
		"batches_failed": sum.BatchesFailed,
		"duration_ms":    sum.Duration.Milliseconds(),
		"message":        fmt.Sprintf("scanned %d files, found %d packages", sum.Processed, sum.PackageCount),
	}
	if len(sum.ErrorMessages) > 0 {
		response["errors"] = sum.ErrorMessages
	}
	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	source, err := types.ParseSource(req.Source)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := s.engine.Searcher.Query(r.Context(), req.Keyword, source)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeResult(w, res)
}

func (s *Server) handleQueryByCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	category := req.Category
	if category == "" {
		category = req.Keyword
	}

	res, err := s.engine.Searcher.QueryCategory(r.Context(), category)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeResult(w, res)
}

func (s *Server) writeResult(w http.ResponseWriter, res *types.QueryResult) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"cost_ms": res.CostMS(),
		"count":   res.Count(),
		"data":    res.Matches,
	})
}

func (s *Server) handlePackages(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": s.engine.Searcher.ListPackages(),
	})
}

func (s *Server) handlePackagePaths(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("package_name")
	paths, err := s.engine.Searcher.ListPaths(name)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "success",
		"package_name": name,
		"paths":        paths,
	})
}

func (s *Server) handleReleaseMemory(w http.ResponseWriter, r *http.Request) {
	n, err := s.engine.Searcher.PurgeCache(r.Context())
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": fmt.Sprintf("released %d cache entries", n),
		"count":   n,
	})
}

func (s *Server) handleClearData(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.Searcher.ClearAll(r.Context())
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "success",
		"message":       "all data cleared",
		"rows":          res.Rows,
		"cache_entries": res.CacheEntries,
	})
}

func (s *Server) handleApps(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": s.engine.Searcher.Apps(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.Searcher.Stats(r.Context())
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   stats,
	})
}

// Helper functions

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrInvalidRoot),
		errors.Is(err, types.ErrRootRequired),
		errors.Is(err, types.ErrEmptyKeyword),
		errors.Is(err, types.ErrInvalidSource),
		errors.Is(err, types.ErrInvalidPackage):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrPackageNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrScanInProgress):
		return http.StatusConflict
	case errors.Is(err, types.ErrPoolExhausted), errors.Is(err, types.ErrPoolClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a bounded JSON body into v. An empty body leaves v zero.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Int("status", status).Msg("request failed")
	}
	body := map[string]interface{}{
		"status":  "error",
		"message": err.Error(),
	}
	if types.IsRetryable(err) {
		body["retryable"] = true
	}
	s.writeJSON(w, status, body)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn().Err(err).Msg("failed to write response")
	}
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}
