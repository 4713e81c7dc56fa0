package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

var ErrJobNotFound = errors.New("job not found")

type SearchJob struct {
	ID            uuid.UUID       `json:"id"`
	Query         string          `json:"query"`
	MinReviews    int             `json:"min_reviews"`
	Multiplier    float64         `json:"multiplier"`
	Status        JobStatus       `json:"status"`
	ProductsFound int             `json:"products_found"`
	Triad         json.RawMessage `json:"triad,omitempty"`
	Error         *string         `json:"error,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	StartedAt     *time.Time      `json:"started_at,omitempty"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
}

// ProductRecord is one reconciled listing stored for a job. Payload holds
// the full listing as JSON.
type ProductRecord struct {
	JobID      uuid.UUID       `json:"job_id"`
	Position   int             `json:"position"`
	ListingKey string          `json:"listing_key"`
	ProductID  string          `json:"product_id"`
	Title      string          `json:"title"`
	URL        string          `json:"url"`
	Price      *float64        `json:"price"`
	Payload    json.RawMessage `json:"listing"`
}

const jobColumns = `id, query, min_reviews, multiplier, status, products_found,
			triad, error_message, created_at, updated_at, started_at, completed_at`

type JobRepository struct {
	db *DB
}

func NewJobRepository(db *DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) Create(ctx context.Context, job *SearchJob) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.Status == "" {
		job.Status = JobStatusPending
	}
	now := time.Now()
	job.CreatedAt, job.UpdatedAt = now, now

	query := `
		INSERT INTO sourcing_jobs (
			id, query, min_reviews, multiplier, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.pool.Exec(ctx, query,
		job.ID, job.Query, job.MinReviews, job.Multiplier, job.Status, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

func (r *JobRepository) Get(ctx context.Context, id uuid.UUID) (*SearchJob, error) {
	query := `SELECT ` + jobColumns + ` FROM sourcing_jobs WHERE id = $1`
	job, err := scanJob(r.db.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

func (r *JobRepository) List(ctx context.Context, limit int) ([]*SearchJob, error) {
	query := `SELECT ` + jobColumns + ` FROM sourcing_jobs ORDER BY created_at DESC LIMIT $1`
	rows, err := r.db.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*SearchJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating jobs: %w", err)
	}
	return jobs, nil
}

// ClaimPending moves the oldest pending job to running and returns it.
// Concurrent workers skip rows another worker has locked. It returns nil
// when there is nothing to do.
func (r *JobRepository) ClaimPending(ctx context.Context) (*SearchJob, error) {
	query := `
		UPDATE sourcing_jobs
		SET status = $1, started_at = NOW(), updated_at = NOW()
		WHERE id = (
			SELECT id FROM sourcing_jobs
			WHERE status = $2
			ORDER BY created_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + jobColumns

	job, err := scanJob(r.db.pool.QueryRow(ctx, query, JobStatusRunning, JobStatusPending))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}
	return job, nil
}

// CompleteWithTx replaces the job's products and stores its triad.
func (r *JobRepository) CompleteWithTx(ctx context.Context, tx pgx.Tx, jobID uuid.UUID, products []ProductRecord, triad json.RawMessage) error {
	if _, err := tx.Exec(ctx, `DELETE FROM sourcing_products WHERE job_id = $1`, jobID); err != nil {
		return fmt.Errorf("failed to clear products: %w", err)
	}

	insert := `
		INSERT INTO sourcing_products (
			job_id, position, listing_key, product_id, title, url, price, payload
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	for _, p := range products {
		if _, err := tx.Exec(ctx, insert,
			jobID, p.Position, p.ListingKey, p.ProductID, p.Title, p.URL, p.Price, p.Payload,
		); err != nil {
			return fmt.Errorf("failed to insert product %d: %w", p.Position, err)
		}
	}

	update := `
		UPDATE sourcing_jobs
		SET status = $1, products_found = $2, triad = $3, error_message = NULL,
			completed_at = NOW(), updated_at = NOW()
		WHERE id = $4`

	result, err := tx.Exec(ctx, update, JobStatusCompleted, len(products), triad, jobID)
	if err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (r *JobRepository) Fail(ctx context.Context, jobID uuid.UUID, jobErr error) error {
	query := `
		UPDATE sourcing_jobs
		SET status = $1, error_message = $2, completed_at = NOW(), updated_at = NOW()
		WHERE id = $3`

	if _, err := r.db.pool.Exec(ctx, query, JobStatusFailed, jobErr.Error(), jobID); err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}
	return nil
}

func (r *JobRepository) Products(ctx context.Context, jobID uuid.UUID) ([]ProductRecord, error) {
	query := `
		SELECT position, listing_key, product_id, title, url, price, payload
		FROM sourcing_products
		WHERE job_id = $1
		ORDER BY position`

	rows, err := r.db.pool.Query(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	defer rows.Close()

	var products []ProductRecord
	for rows.Next() {
		p := ProductRecord{JobID: jobID}
		if err := rows.Scan(&p.Position, &p.ListingKey, &p.ProductID, &p.Title, &p.URL, &p.Price, &p.Payload); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}
	return products, nil
}

func scanJob(row pgx.Row) (*SearchJob, error) {
	var (
		job SearchJob
		id  string
	)
	err := row.Scan(
		&id, &job.Query, &job.MinReviews, &job.Multiplier, &job.Status, &job.ProductsFound,
		&job.Triad, &job.Error, &job.CreatedAt, &job.UpdatedAt, &job.StartedAt, &job.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	if job.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("failed to parse job id %q: %w", id, err)
	}
	return &job, nil
}
