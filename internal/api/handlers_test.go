package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/maltedev/sourcing-triads/internal/database"
	"github.com/maltedev/sourcing-triads/internal/jobs"
	"github.com/maltedev/sourcing-triads/internal/models"
	"github.com/maltedev/sourcing-triads/internal/opt"
	"github.com/maltedev/sourcing-triads/internal/scraper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockJobService struct {
	mock.Mock
}

func (m *MockJobService) CreateJob(ctx context.Context, query string, minReviews *int, multiplier *float64) (*database.SearchJob, error) {
	args := m.Called(ctx, query, minReviews, multiplier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*database.SearchJob), args.Error(1)
}

func (m *MockJobService) GetJob(ctx context.Context, jobID uuid.UUID) (*database.SearchJob, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*database.SearchJob), args.Error(1)
}

func (m *MockJobService) ListJobs(ctx context.Context, limit int) ([]*database.SearchJob, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*database.SearchJob), args.Error(1)
}

func (m *MockJobService) GetJobProducts(ctx context.Context, jobID uuid.UUID) ([]database.ProductRecord, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]database.ProductRecord), args.Error(1)
}

type MockParser struct {
	mock.Mock
}

func (m *MockParser) ProcessHTML(ctx context.Context, html string) ([]models.Listing, error) {
	args := m.Called(ctx, html)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Listing), args.Error(1)
}

type staticStats struct {
	stats database.OutboxStats
	err   error
}

func (s staticStats) Stats(context.Context) (database.OutboxStats, error) {
	return s.stats, s.err
}

func newRouter(jobSvc JobService, parser PageParser, outbox OutboxStats) http.Handler {
	h := NewHandlers(jobSvc, parser, outbox, scraper.EvalOptions{
		MinReviews:      1,
		RequireVerified: true,
		Multiplier:      3,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.Routes(r)
	return r
}

func do(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestCreateSearch(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setup      func(m *MockJobService)
		wantStatus int
	}{
		{
			name: "created",
			body: `{"query":"paper cups","min_reviews":2}`,
			setup: func(m *MockJobService) {
				m.On("CreateJob", mock.Anything, "paper cups",
					mock.MatchedBy(func(p *int) bool { return p != nil && *p == 2 }),
					(*float64)(nil),
				).Return(&database.SearchJob{ID: uuid.New(), Query: "paper cups", Status: database.JobStatusPending}, nil)
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "malformed body",
			body:       `{"query":`,
			setup:      func(m *MockJobService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "oversized body",
			body:       `{"query":"` + strings.Repeat("a", maxSearchBody) + `"}`,
			setup:      func(m *MockJobService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "invalid job",
			body: `{"query":""}`,
			setup: func(m *MockJobService) {
				m.On("CreateJob", mock.Anything, "", (*int)(nil), (*float64)(nil)).
					Return(nil, jobs.ErrInvalidJob)
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "store failure",
			body: `{"query":"cups"}`,
			setup: func(m *MockJobService) {
				m.On("CreateJob", mock.Anything, "cups", (*int)(nil), (*float64)(nil)).
					Return(nil, errors.New("db down"))
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockJobService)
			tt.setup(svc)

			rec := do(t, newRouter(svc, nil, nil), http.MethodPost, "/api/v1/searches", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestCreateSearch_ResponseBody(t *testing.T) {
	svc := new(MockJobService)
	id := uuid.New()
	svc.On("CreateJob", mock.Anything, "cups", (*int)(nil), (*float64)(nil)).
		Return(&database.SearchJob{ID: id, Query: "cups", Status: database.JobStatusPending}, nil)

	rec := do(t, newRouter(svc, nil, nil), http.MethodPost, "/api/v1/searches", `{"query":"cups"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var job database.SearchJob
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.Equal(t, id, job.ID)
	assert.Equal(t, database.JobStatusPending, job.Status)
}

func TestListSearches(t *testing.T) {
	t.Run("passes the limit", func(t *testing.T) {
		svc := new(MockJobService)
		svc.On("ListJobs", mock.Anything, 5).Return([]*database.SearchJob{{Query: "a"}}, nil)

		rec := do(t, newRouter(svc, nil, nil), http.MethodGet, "/api/v1/searches?limit=5", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var list []database.SearchJob
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		require.Len(t, list, 1)
		assert.Equal(t, "a", list[0].Query)
	})

	t.Run("rejects a bad limit", func(t *testing.T) {
		rec := do(t, newRouter(new(MockJobService), nil, nil), http.MethodGet, "/api/v1/searches?limit=abc", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetSearch(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name       string
		path       string
		setup      func(m *MockJobService)
		wantStatus int
	}{
		{
			name: "found",
			path: "/api/v1/searches/" + id.String(),
			setup: func(m *MockJobService) {
				m.On("GetJob", mock.Anything, id).Return(&database.SearchJob{ID: id}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "missing",
			path: "/api/v1/searches/" + id.String(),
			setup: func(m *MockJobService) {
				m.On("GetJob", mock.Anything, id).Return(nil, jobs.ErrJobNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "invalid id",
			path:       "/api/v1/searches/not-a-uuid",
			setup:      func(m *MockJobService) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockJobService)
			tt.setup(svc)

			rec := do(t, newRouter(svc, nil, nil), http.MethodGet, tt.path, "")
			assert.Equal(t, tt.wantStatus, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestGetSearchProducts(t *testing.T) {
	svc := new(MockJobService)
	id := uuid.New()
	svc.On("GetJobProducts", mock.Anything, id).Return([]database.ProductRecord{
		{JobID: id, Position: 0, Title: "cup", Payload: json.RawMessage(`{"title":"cup"}`)},
	}, nil)

	rec := do(t, newRouter(svc, nil, nil), http.MethodGet, "/api/v1/searches/"+id.String()+"/products", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"listing":{"title":"cup"}`)
}

func parseListings() []models.Listing {
	return []models.Listing{
		{Title: "cheap", Price: opt.Some(1.0)},
		{Title: "verified", Price: opt.Some(2.0),
			ProductReview: models.ProductReview{Avg: opt.Some(4.8), Count: opt.Some(20)},
			Supplier:      models.Supplier{Verified: opt.Some(true)}},
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		wantSelected   int
		wantCandidates int
	}{
		{"filtered by default", `{"html":"<html></html>"}`, 1, 1},
		{"no filter", `{"html":"<html></html>","no_filter":true}`, 2, 2},
		{"allow unverified without reviews", `{"html":"<html></html>","allow_unverified":true,"min_reviews":0}`, 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := new(MockParser)
			parser.On("ProcessHTML", mock.Anything, "<html></html>").Return(parseListings(), nil)

			rec := do(t, newRouter(nil, parser, nil), http.MethodPost, "/api/v1/parse", tt.body)
			require.Equal(t, http.StatusOK, rec.Code)

			var resp struct {
				Total    int               `json:"total"`
				Listings []json.RawMessage `json:"listings"`
				Triad    struct {
					Candidates int `json:"candidates"`
				} `json:"triad"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, 2, resp.Total)
			assert.Len(t, resp.Listings, tt.wantSelected)
			assert.Equal(t, tt.wantCandidates, resp.Triad.Candidates)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		parseErr   error
		wantStatus int
	}{
		{"malformed body", `not json`, nil, http.StatusBadRequest},
		{"negative min reviews", `{"html":"x","min_reviews":-1}`, nil, http.StatusBadRequest},
		{"zero multiplier", `{"html":"x","multiplier":0}`, nil, http.StatusBadRequest},
		{"empty page", `{"html":""}`, scraper.ErrEmptyPage, http.StatusUnprocessableEntity},
		{"no listings", `{"html":"x"}`, scraper.ErrNoListings, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := new(MockParser)
			if tt.parseErr != nil {
				parser.On("ProcessHTML", mock.Anything, mock.Anything).Return(nil, tt.parseErr)
			}

			rec := do(t, newRouter(nil, parser, nil), http.MethodPost, "/api/v1/parse", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.NotEmpty(t, decodeError(t, rec))
		})
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		outbox     OutboxStats
		wantStatus int
		wantState  string
	}{
		{"no outbox", nil, http.StatusOK, "ok"},
		{"healthy outbox", staticStats{stats: database.OutboxStats{Pending: 3}}, http.StatusOK, "ok"},
		{"backlog", staticStats{stats: database.OutboxStats{Pending: 5000}}, http.StatusOK, "warning"},
		{"dead letters", staticStats{stats: database.OutboxStats{DeadLetter: 500}}, http.StatusServiceUnavailable, "error"},
		{"stats unavailable", staticStats{err: errors.New("db down")}, http.StatusOK, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newRouter(nil, nil, tt.outbox), http.MethodGet, "/health", "")
			assert.Equal(t, tt.wantStatus, rec.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantState, body["status"])
		})
	}
}
