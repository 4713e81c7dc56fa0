// Package api exposes search jobs and synchronous page parsing over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/maltedev/sourcing-triads/internal/database"
	"github.com/maltedev/sourcing-triads/internal/jobs"
	"github.com/maltedev/sourcing-triads/internal/models"
	"github.com/maltedev/sourcing-triads/internal/scraper"
)

const (
	maxParseBody  = 16 << 20
	maxSearchBody = 64 << 10

	pendingWarnThreshold    = 1000
	deadLetterFailThreshold = 100
)

type JobService interface {
	CreateJob(ctx context.Context, query string, minReviews *int, multiplier *float64) (*database.SearchJob, error)
	GetJob(ctx context.Context, jobID uuid.UUID) (*database.SearchJob, error)
	ListJobs(ctx context.Context, limit int) ([]*database.SearchJob, error)
	GetJobProducts(ctx context.Context, jobID uuid.UUID) ([]database.ProductRecord, error)
}

type PageParser interface {
	ProcessHTML(ctx context.Context, html string) ([]models.Listing, error)
}

type OutboxStats interface {
	Stats(ctx context.Context) (database.OutboxStats, error)
}

type Handlers struct {
	jobs     JobService
	parser   PageParser
	outbox   OutboxStats
	defaults scraper.EvalOptions
	logger   *slog.Logger
}

// NewHandlers wires the API. outbox may be nil, in which case /health
// reports no outbox figures. defaults are applied to /parse requests that
// leave a field out.
func NewHandlers(jobs JobService, parser PageParser, outbox OutboxStats, defaults scraper.EvalOptions, logger *slog.Logger) *Handlers {
	return &Handlers{
		jobs:     jobs,
		parser:   parser,
		outbox:   outbox,
		defaults: defaults,
		logger:   logger.With("component", "api"),
	}
}

// Routes mounts /health and the /api/v1 endpoints on r.
func (h *Handlers) Routes(r chi.Router) {
	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/searches", func(r chi.Router) {
			r.Post("/", h.CreateSearch)
			r.Get("/", h.ListSearches)
			r.Get("/{jobID}", h.GetSearch)
			r.Get("/{jobID}/products", h.GetSearchProducts)
		})
		r.Post("/parse", h.Parse)
	})
}

type CreateSearchRequest struct {
	Query      string   `json:"query"`
	MinReviews *int     `json:"min_reviews,omitempty"`
	Multiplier *float64 `json:"multiplier,omitempty"`
}

func (h *Handlers) CreateSearch(w http.ResponseWriter, r *http.Request) {
	var req CreateSearchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSearchBody)).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	job, err := h.jobs.CreateJob(r.Context(), req.Query, req.MinReviews, req.Multiplier)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, job)
}

func (h *Handlers) ListSearches(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	list, err := h.jobs.ListJobs(r.Context(), limit)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, list)
}

func (h *Handlers) GetSearch(w http.ResponseWriter, r *http.Request) {
	jobID, ok := h.jobID(w, r)
	if !ok {
		return
	}

	job, err := h.jobs.GetJob(r.Context(), jobID)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, job)
}

func (h *Handlers) GetSearchProducts(w http.ResponseWriter, r *http.Request) {
	jobID, ok := h.jobID(w, r)
	if !ok {
		return
	}

	products, err := h.jobs.GetJobProducts(r.Context(), jobID)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, products)
}

type ParseRequest struct {
	HTML            string   `json:"html"`
	MinReviews      *int     `json:"min_reviews,omitempty"`
	Multiplier      *float64 `json:"multiplier,omitempty"`
	AllowUnverified bool     `json:"allow_unverified"`
	NoFilter        bool     `json:"no_filter"`
}

type ParseResponse struct {
	Total int `json:"total"`
	scraper.Evaluation
}

// Parse runs the pipeline over a page supplied by the caller. Nothing is
// stored.
func (h *Handlers) Parse(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxParseBody)).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	opts := h.defaults
	if req.MinReviews != nil {
		if *req.MinReviews < 0 {
			h.respondError(w, http.StatusBadRequest, "min_reviews must not be negative")
			return
		}
		opts.MinReviews = *req.MinReviews
	}
	if req.Multiplier != nil {
		if *req.Multiplier <= 0 {
			h.respondError(w, http.StatusBadRequest, "multiplier must be positive")
			return
		}
		opts.Multiplier = *req.Multiplier
	}
	if req.AllowUnverified {
		opts.RequireVerified = false
	}
	opts.NoFilter = req.NoFilter

	listings, err := h.parser.ProcessHTML(r.Context(), req.HTML)
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, ParseResponse{
		Total:      len(listings),
		Evaluation: scraper.Evaluate(listings, opts),
	})
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	health := map[string]any{"status": "ok"}
	status := http.StatusOK

	if h.outbox != nil {
		stats, err := h.outbox.Stats(r.Context())
		switch {
		case err != nil:
			h.logger.Warn("failed to read outbox stats", "error", err)
			health["status"] = "degraded"
			health["message"] = "outbox stats unavailable"
		case stats.DeadLetter > deadLetterFailThreshold:
			health["status"] = "error"
			health["message"] = "high number of dead letter events"
			status = http.StatusServiceUnavailable
		case stats.Pending > pendingWarnThreshold:
			health["status"] = "warning"
			health["message"] = "high number of pending outbox events"
		}
		if err == nil {
			health["outbox"] = stats
		}
	}

	h.respondJSON(w, status, health)
}

func (h *Handlers) jobID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid job ID")
		return uuid.Nil, false
	}
	return id, true
}

// respondErr maps domain errors to status codes.
func (h *Handlers) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, jobs.ErrJobNotFound):
		h.respondError(w, http.StatusNotFound, "job not found")
	case errors.Is(err, jobs.ErrInvalidJob):
		h.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, scraper.ErrEmptyPage), errors.Is(err, scraper.ErrNoListings):
		h.respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.logger.Error("request failed", "error", err)
		h.respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
