// Package server exposes the thin HTTP surface over the ingestion
// pipeline: manual triggers plus read access to the content store and the
// audit log. It never calls adapters directly.
package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"content_aggregator/internal/domain"
	"content_aggregator/internal/scheduler"
	"content_aggregator/internal/storage/postgres"
)

type Server struct {
	scheduler *scheduler.Scheduler
	content   *postgres.ContentStore
	creators  *postgres.CreatorStore
	logs      *postgres.IngestLogStore
	tx        *postgres.TransactionManager
	logger    *slog.Logger
	router    chi.Router
}

func New(
	sched *scheduler.Scheduler,
	content *postgres.ContentStore,
	creators *postgres.CreatorStore,
	logs *postgres.IngestLogStore,
	tx *postgres.TransactionManager,
	logger *slog.Logger,
) *Server {
	s := &Server{
		scheduler: sched,
		content:   content,
		creators:  creators,
		logs:      logs,
		tx:        tx,
		logger:    logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/ingest/run", s.handleRunSweep)
		r.Post("/ingest/deep", s.handleRunDeepSweep)
		r.Post("/ingest/creators/{id}", s.handleRunCreator)
		r.Post("/ingest/search", s.handleRunSearch)

		r.Get("/content", s.handleListContent)
		r.Patch("/content/{id}", s.handleUpdateContent)

		r.Get("/logs", s.handleListLogs)
		r.Get("/stats", s.handleStats)

		r.Get("/creators", s.handleListCreators)
		r.Post("/creators", s.handleCreateCreator)
		r.Patch("/creators/{id}/active", s.handleSetCreatorActive)
		r.Delete("/creators/{id}", s.handleDeleteCreator)
	})

	s.router = r
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// --- Ingestion triggers ---

func (s *Server) handleRunSweep(w http.ResponseWriter, r *http.Request) {
	report, err := s.scheduler.RunSweep(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleRunDeepSweep(w http.ResponseWriter, r *http.Request) {
	report, err := s.scheduler.RunDeepSweep(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleRunCreator(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeStatus(w, http.StatusBadRequest, "invalid creator id")
		return
	}

	report, err := s.scheduler.RunCreator(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

type searchRequest struct {
	Keyword   string   `json:"keyword"`
	Platforms []string `json:"platforms"`
	Limit     int      `json:"limit"`
}

func (s *Server) handleRunSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeStatus(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Keyword == "" {
		s.writeStatus(w, http.StatusBadRequest, "keyword is required")
		return
	}

	var platforms []domain.Platform
	for _, p := range req.Platforms {
		platform, ok := domain.ParsePlatform(p)
		if !ok {
			s.writeStatus(w, http.StatusBadRequest, "unknown platform: "+p)
			return
		}
		platforms = append(platforms, platform)
	}

	report, err := s.scheduler.RunSearch(r.Context(), req.Keyword, platforms, req.Limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

// --- Content ---

func (s *Server) handleListContent(w http.ResponseWriter, r *http.Request) {
	q := postgres.ContentQuery{
		TitleSearch: r.URL.Query().Get("q"),
		OrderBy:     r.URL.Query().Get("order"),
		Limit:       queryInt(r, "limit", 50),
		Offset:      queryInt(r, "offset", 0),
	}

	if p := r.URL.Query().Get("platform"); p != "" {
		platform, ok := domain.ParsePlatform(p)
		if !ok {
			s.writeStatus(w, http.StatusBadRequest, "unknown platform: "+p)
			return
		}
		q.Platform = platform
	}
	if v := r.URL.Query().Get("creator_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			q.CreatorID = &id
		}
	}
	if v := r.URL.Query().Get("type"); v != "" {
		q.ContentType = domain.ContentType(v)
	}
	q.IsRead = queryBool(r, "is_read")
	q.IsBookmarked = queryBool(r, "is_bookmarked")
	q.IsRecommended = queryBool(r, "is_recommended")
	q.Since = queryTime(r, "since")
	q.Until = queryTime(r, "until")

	rows, err := s.content.List(r.Context(), q)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rows)
}

type contentUpdate struct {
	IsRead        *bool `json:"is_read"`
	IsBookmarked  *bool `json:"is_bookmarked"`
	IsRecommended *bool `json:"is_recommended"`
}

func (s *Server) handleUpdateContent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeStatus(w, http.StatusBadRequest, "invalid content id")
		return
	}

	var req contentUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeStatus(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updates := map[string]*bool{
		"is_read":        req.IsRead,
		"is_bookmarked":  req.IsBookmarked,
		"is_recommended": req.IsRecommended,
	}
	for field, value := range updates {
		if value == nil {
			continue
		}
		if err := s.content.SetReadState(r.Context(), id, field, *value); err != nil {
			s.writeError(w, err)
			return
		}
	}

	content, err := s.content.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, content)
}

// --- Logs and stats ---

func (s *Server) handleListLogs(w http.ResponseWriter, r *http.Request) {
	q := postgres.LogQuery{
		Status: r.URL.Query().Get("status"),
		Limit:  queryInt(r, "limit", 50),
		Offset: queryInt(r, "offset", 0),
	}
	if p := r.URL.Query().Get("platform"); p != "" {
		platform, ok := domain.ParsePlatform(p)
		if !ok {
			s.writeStatus(w, http.StatusBadRequest, "unknown platform: "+p)
			return
		}
		q.Platform = platform
	}
	q.Since = queryTime(r, "since")
	q.Until = queryTime(r, "until")

	rows, err := s.logs.List(r.Context(), q)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	counts, err := s.content.CountByPlatform(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"content_by_platform": counts,
		"sweep_running":       s.scheduler.IsRunning(),
	})
}

// --- Creators ---

func (s *Server) handleListCreators(w http.ResponseWriter, r *http.Request) {
	creators, err := s.creators.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, creators)
}

func (s *Server) handleCreateCreator(w http.ResponseWriter, r *http.Request) {
	var creator domain.Creator
	if err := json.NewDecoder(r.Body).Decode(&creator); err != nil {
		s.writeStatus(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if creator.DisplayName == "" || creator.PlatformExternalID == "" {
		s.writeStatus(w, http.StatusBadRequest, "display_name and platform_external_id are required")
		return
	}
	if _, ok := domain.ParsePlatform(string(creator.Platform)); !ok {
		s.writeStatus(w, http.StatusBadRequest, "unknown platform: "+string(creator.Platform))
		return
	}
	creator.IsActive = true

	if _, err := s.creators.Create(r.Context(), &creator); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, creator)
}

func (s *Server) handleSetCreatorActive(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeStatus(w, http.StatusBadRequest, "invalid creator id")
		return
	}

	var req struct {
		IsActive bool `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeStatus(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.creators.SetActive(r.Context(), id, req.IsActive); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeStatus(w, http.StatusOK, "updated")
}

// handleDeleteCreator removes a creator and its content in one transaction:
// the cascade is explicit, content rows first, then the creator row.
func (s *Server) handleDeleteCreator(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeStatus(w, http.StatusBadRequest, "invalid creator id")
		return
	}

	err = s.tx.WithTransaction(r.Context(), func(ctx context.Context) error {
		if err := s.content.DeleteByCreator(ctx, id); err != nil {
			return err
		}
		return s.creators.Delete(ctx, id)
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeStatus(w, http.StatusOK, "deleted")
}

// --- Helpers ---

type response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response{Success: true, Data: data}); err != nil {
		s.logger.Error("write response", "error", err)
	}
}

func (s *Server) writeStatus(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	ok := status < http.StatusBadRequest
	resp := response{Success: ok}
	if ok {
		resp.Data = msg
	} else {
		resp.Error = msg
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSweepRunning):
		s.writeStatus(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrCreatorNotFound), errors.Is(err, sql.ErrNoRows):
		s.writeStatus(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrCreatorInactive):
		s.writeStatus(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("request failed", "error", err)
		s.writeStatus(w, http.StatusInternalServerError, "internal error")
	}
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func queryBool(r *http.Request, key string) *bool {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil
	}
	return &b
}

func queryTime(r *http.Request, key string) *time.Time {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil
	}
	return &t
}
