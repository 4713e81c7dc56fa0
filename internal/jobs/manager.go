// Package jobs runs search jobs in the background and stores their results.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/maltedev/sourcing-triads/internal/database"
	"github.com/maltedev/sourcing-triads/internal/events"
	"github.com/maltedev/sourcing-triads/internal/models"
	"github.com/maltedev/sourcing-triads/internal/ranking"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

var (
	ErrJobNotFound = database.ErrJobNotFound
	ErrInvalidJob  = errors.New("invalid job")
)

// Store is the job persistence the manager relies on.
type Store interface {
	Create(ctx context.Context, job *database.SearchJob) error
	Get(ctx context.Context, id uuid.UUID) (*database.SearchJob, error)
	List(ctx context.Context, limit int) ([]*database.SearchJob, error)
	ClaimPending(ctx context.Context) (*database.SearchJob, error)
	CompleteWithTx(ctx context.Context, tx pgx.Tx, jobID uuid.UUID, products []database.ProductRecord, triad json.RawMessage) error
	Fail(ctx context.Context, jobID uuid.UUID, jobErr error) error
	Products(ctx context.Context, jobID uuid.UUID) ([]database.ProductRecord, error)
}

type Transactor interface {
	Transaction(ctx context.Context, fn func(pgx.Tx) error) error
}

type Searcher interface {
	Search(ctx context.Context, query string) ([]models.Listing, error)
}

type Publisher interface {
	PublishSearchCompletedWithTx(ctx context.Context, tx pgx.Tx, payload *events.SearchCompletedPayload) error
}

type Config struct {
	PollInterval      time.Duration
	DefaultMinReviews int
	DefaultMultiplier float64
	RequireVerified   bool
	FXRate            float64
}

type Manager struct {
	store     Store
	tx        Transactor
	searcher  Searcher
	publisher Publisher
	cfg       Config
	logger    *slog.Logger
}

func NewManager(store Store, tx Transactor, searcher Searcher, publisher Publisher, cfg Config, logger *slog.Logger) *Manager {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.DefaultMultiplier <= 0 {
		cfg.DefaultMultiplier = ranking.DefaultMultiplier
	}
	return &Manager{
		store:     store,
		tx:        tx,
		searcher:  searcher,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger.With("component", "job_manager"),
	}
}

// CreateJob queues a search. A nil minReviews or multiplier takes the
// configured default.
func (m *Manager) CreateJob(ctx context.Context, query string, minReviews *int, multiplier *float64) (*database.SearchJob, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", ErrInvalidJob)
	}

	job := &database.SearchJob{
		Query:      query,
		MinReviews: m.cfg.DefaultMinReviews,
		Multiplier: m.cfg.DefaultMultiplier,
	}
	if minReviews != nil {
		if *minReviews < 0 {
			return nil, fmt.Errorf("%w: min_reviews must not be negative", ErrInvalidJob)
		}
		job.MinReviews = *minReviews
	}
	if multiplier != nil {
		if *multiplier <= 0 {
			return nil, fmt.Errorf("%w: multiplier must be positive", ErrInvalidJob)
		}
		job.Multiplier = *multiplier
	}

	if err := m.store.Create(ctx, job); err != nil {
		return nil, err
	}

	m.logger.Info("job created", "id", job.ID, "query", job.Query)
	return job, nil
}

func (m *Manager) GetJob(ctx context.Context, jobID uuid.UUID) (*database.SearchJob, error) {
	return m.store.Get(ctx, jobID)
}

// ListJobs returns the newest jobs first. limit is clamped to
// [1, MaxListLimit]; zero or less means DefaultListLimit.
func (m *Manager) ListJobs(ctx context.Context, limit int) ([]*database.SearchJob, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	jobs, err := m.store.List(ctx, min(limit, MaxListLimit))
	if err != nil {
		return nil, err
	}
	if jobs == nil {
		jobs = []*database.SearchJob{}
	}
	return jobs, nil
}

// GetJobProducts returns the stored products of an existing job.
func (m *Manager) GetJobProducts(ctx context.Context, jobID uuid.UUID) ([]database.ProductRecord, error) {
	if _, err := m.store.Get(ctx, jobID); err != nil {
		return nil, err
	}
	products, err := m.store.Products(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []database.ProductRecord{}
	}
	return products, nil
}
