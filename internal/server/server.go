// Package server exposes the access layer over HTTP. It issues presigned
// download and upload URLs, answers existence probes, and applies the
// make-public operation; the byte transfers themselves happen directly
// between clients and the object store.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aquastor/depot/internal/artifact"
	"github.com/aquastor/depot/internal/errs"
	"github.com/aquastor/depot/internal/logger"
)

// Server routes artifact operations to a Resolver.
type Server struct {
	resolver *artifact.Resolver
	log      *logger.Logger
	router   chi.Router
}

// New builds a Server around resolver. A nil log discards output.
func New(resolver *artifact.Resolver, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{resolver: resolver, log: log}

	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Route("/artifacts/{id}", func(r chi.Router) {
		r.Get("/url", s.handleURL)
		r.Get("/download", s.handleDownload)
		r.Get("/exists", s.handleExists)
		r.Post("/upload-urls", s.handleUploadURLs)
		r.Post("/public", s.handleMakePublic)
	})
	s.router = r
	return s
}

// Handler returns the HTTP handler for mounting or serving.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// presignedURL resolves the query parameters shared by /url and /download.
func (s *Server) presignedURL(r *http.Request) (string, error) {
	kind, err := artifact.ParseKind(r.URL.Query().Get("artifact"))
	if err != nil {
		return "", err
	}
	var expiration time.Duration
	if raw := r.URL.Query().Get("expires"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			return "", errs.New(errs.ErrKindInvalidInput, "expires must be a positive number of seconds")
		}
		expiration = time.Duration(secs) * time.Second
	}
	return s.resolver.PresignedURL(r.Context(), chi.URLParam(r, "id"), kind,
		expiration, r.URL.Query().Get("filename"))
}

func (s *Server) handleURL(w http.ResponseWriter, r *http.Request) {
	u, err := s.presignedURL(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": u})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	u, err := s.presignedURL(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	http.Redirect(w, r, u, http.StatusFound)
}

func (s *Server) handleExists(w http.ResponseWriter, r *http.Request) {
	kind, err := artifact.ParseKind(r.URL.Query().Get("artifact"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	exists, err := s.resolver.Exists(r.Context(), chi.URLParam(r, "id"), kind)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

type uploadURLsRequest struct {
	Artifact string `json:"artifact"`
	Size     int64  `json:"size"`
}

type uploadURLsResponse struct {
	URLs        []string `json:"urls"`
	CompleteURL string   `json:"complete_url,omitempty"`
}

func (s *Server) handleUploadURLs(w http.ResponseWriter, r *http.Request) {
	var req uploadURLsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errs.Wrap(errs.ErrKindInvalidInput, "invalid request body", err))
		return
	}
	kind, err := artifact.ParseKind(req.Artifact)
	if err != nil {
		s.writeError(w, err)
		return
	}
	urls, complete, err := s.resolver.PresignedUploadURLs(r.Context(), chi.URLParam(r, "id"), kind, req.Size, 0)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadURLsResponse{URLs: urls, CompleteURL: complete})
}

func (s *Server) handleMakePublic(w http.ResponseWriter, r *http.Request) {
	if err := s.resolver.MakeResourcePublic(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeError maps error kinds to HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errs.IsNotFound(err):
		status = http.StatusNotFound
	case errs.IsInvalidInput(err):
		status = http.StatusBadRequest
	case errs.IsPermissionDenied(err):
		status = http.StatusForbidden
	case errs.IsUnavailable(err):
		status = http.StatusServiceUnavailable
	case errs.IsTimeout(err):
		status = http.StatusGatewayTimeout
	case errs.IsIntegrity(err):
		status = http.StatusBadGateway
	}
	if status >= http.StatusInternalServerError {
		s.log.Errorf("request failed: %v", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
