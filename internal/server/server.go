// Package server exposes the render control surface over HTTP.
//
// The surface is intentionally small: three POST operations mirroring the
// control contract (open_stage, set_renderer, render) plus read-only job
// record lookups and a health probe. Request and response bodies are JSON;
// failures carry a stable machine-readable code alongside a human-readable
// message:
//
//	{"code": "PRECONDITION", "error": "no active stage: call open_stage first"}
//
// # Routes
//
//	POST /open_stage    {usd_file_location}          -> {message}
//	POST /set_renderer  {renderer}                   -> {message}
//	POST /render        render.Request               -> render.Response
//	GET  /jobs                                       -> [jobstore.Record]
//	GET  /jobs/{id}                                  -> jobstore.Record
//	GET  /healthz                                    -> {status}
//
// The server owns the session: open_stage replaces the active stage and
// closes the displaced one when it holds releasable resources, set_renderer
// parses the wire value at the boundary, and render delegates to the
// orchestrator with a snapshot of both.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	apperrors "github.com/rlei-miris/kit-render-service/pkg/errors"
	"github.com/rlei-miris/kit-render-service/pkg/jobstore"
	"github.com/rlei-miris/kit-render-service/pkg/observability"
	"github.com/rlei-miris/kit-render-service/pkg/render"
	"github.com/rlei-miris/kit-render-service/pkg/scene"
	"github.com/rlei-miris/kit-render-service/pkg/session"
)

// Server wires the session, stage opener, orchestrator and job store behind
// the HTTP routes.
type Server struct {
	sess   *session.Session
	opener scene.Opener
	orch   *render.Orchestrator
	store  jobstore.Store
	logger *log.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithStore attaches a job record store for the read-only /jobs routes.
func WithStore(s jobstore.Store) Option {
	return func(srv *Server) { srv.store = s }
}

// WithLogger sets the request logger. Defaults to the charm default logger.
func WithLogger(l *log.Logger) Option {
	return func(srv *Server) { srv.logger = l }
}

// New assembles a Server around an existing session and orchestrator.
func New(sess *session.Session, opener scene.Opener, orch *render.Orchestrator, opts ...Option) *Server {
	srv := &Server{
		sess:   sess,
		opener: opener,
		orch:   orch,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(srv)
	}
	return srv
}

// Router builds the chi router with the standard middleware chain.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Post("/open_stage", s.handleOpenStage)
	r.Post("/set_renderer", s.handleSetRenderer)
	r.Post("/render", s.handleRender)
	r.Get("/jobs", s.handleListJobs)
	r.Get("/jobs/{id}", s.handleGetJob)
	r.Get("/healthz", s.handleHealth)
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

type openStageRequest struct {
	USDFileLocation string `json:"usd_file_location"`
}

type setRendererRequest struct {
	Renderer string `json:"renderer"`
}

type ackResponse struct {
	Message string `json:"message"`
}

func (s *Server) handleOpenStage(w http.ResponseWriter, r *http.Request) {
	var req openStageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := apperrors.ValidateStagePath(req.USDFileLocation); err != nil {
		writeError(w, err)
		return
	}

	stage, err := s.opener.Open(r.Context(), req.USDFileLocation)
	if err != nil {
		// Load failures come from the scene collaborator and keep their
		// original diagnostic content.
		writeError(w, apperrors.Wrap(apperrors.ErrCodeStageLoad, err, "open stage %s", req.USDFileLocation))
		return
	}

	prev := s.sess.OpenStage(stage)
	observability.Stage().OnStageOpen(r.Context(), req.USDFileLocation, prev != nil)
	if prev != nil {
		if c, ok := prev.(scene.Closer); ok {
			if cerr := c.Close(); cerr != nil {
				s.logger.Warn("closing displaced stage", "path", prev.Path(), "error", cerr)
			}
		}
	}

	s.logger.Info("stage opened", "path", req.USDFileLocation)
	writeJSON(w, http.StatusOK, ackResponse{Message: fmt.Sprintf("opened stage %s", req.USDFileLocation)})
}

func (s *Server) handleSetRenderer(w http.ResponseWriter, r *http.Request) {
	var req setRendererRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	mode, err := session.ParseMode(req.Renderer)
	if err != nil {
		writeError(w, err)
		return
	}
	s.sess.SetMode(mode)
	observability.Stage().OnModeChange(r.Context(), string(mode))

	s.logger.Info("renderer mode set", "mode", mode)
	writeJSON(w, http.StatusOK, ackResponse{Message: fmt.Sprintf("renderer set to %s", req.Renderer)})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req render.Request
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	resp, err := s.orch.Render(r.Context(), s.sess, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, apperrors.New(apperrors.ErrCodePrecondition, "no job store configured"))
		return
	}
	records, err := s.store.List(r.Context(), jobstore.DefaultListLimit)
	if err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInternal, err, "list job records"))
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, apperrors.New(apperrors.ErrCodePrecondition, "no job store configured"))
		return
	}
	id := chi.URLParam(r, "id")
	rec, err := s.store.Get(r.Context(), id)
	if errors.Is(err, jobstore.ErrNotFound) {
		writeJSONError(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("no job record %s", id))
		return
	}
	if err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInternal, err, "load job record %s", id))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "decode request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
