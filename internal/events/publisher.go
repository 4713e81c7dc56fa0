// Package events defines the domain events written to the outbox.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/maltedev/sourcing-triads/internal/database"
	"github.com/maltedev/sourcing-triads/internal/ranking"
)

type EventType string

const (
	// EventTypeSearchCompleted is published when a search job has stored
	// its products and triad.
	EventTypeSearchCompleted EventType = "SEARCH_COMPLETED"

	AggregateTypeSearchJob = "sourcing_job"
)

// Pick is the outbound form of one triad selection.
type Pick struct {
	Kind        ranking.Kind `json:"kind"`
	Position    int          `json:"position"`
	ProductID   string       `json:"product_id,omitempty"`
	Title       string       `json:"title"`
	URL         string       `json:"url,omitempty"`
	Price       *float64     `json:"price,omitempty"`
	Currency    string       `json:"currency,omitempty"`
	Score       float64      `json:"score"`
	LandedUSD   *float64     `json:"landed_usd,omitempty"`
	LandedLocal *float64     `json:"landed_local,omitempty"`
	Verified    bool         `json:"verified"`
}

type SearchCompletedPayload struct {
	EventID       string    `json:"event_id"`
	EventType     string    `json:"event_type"`
	Timestamp     time.Time `json:"timestamp"`
	JobID         string    `json:"job_id"`
	Query         string    `json:"query"`
	ProductsFound int       `json:"products_found"`
	Candidates    int       `json:"candidates"`
	MinReviews    int       `json:"min_reviews"`
	Picks         []Pick    `json:"picks"`
	Source        string    `json:"source"`
}

// NewSearchCompletedPayload summarizes a finished job and its triad.
func NewSearchCompletedPayload(job *database.SearchJob, productsFound int, triad ranking.Triad) *SearchCompletedPayload {
	payload := &SearchCompletedPayload{
		JobID:         job.ID.String(),
		Query:         job.Query,
		ProductsFound: productsFound,
		Candidates:    triad.Candidates,
		MinReviews:    triad.MinReviews,
		Picks:         []Pick{},
	}
	for _, s := range triad.Selections() {
		pick := Pick{
			Kind:      s.Kind,
			Position:  s.Index,
			ProductID: s.Listing.ProductID,
			Title:     s.Listing.Title,
			URL:       s.Listing.URL,
			Price:     s.Listing.Price.Ptr(),
			Currency:  s.Listing.Currency,
			Score:     s.Score,
			Verified:  s.Listing.IsVerified(),
		}
		if s.Landed != nil {
			usd := s.Landed.USD
			pick.LandedUSD = &usd
			pick.LandedLocal = s.Landed.Local.Ptr()
		}
		payload.Picks = append(payload.Picks, pick)
	}
	return payload
}

// OutboxWriter is the part of the outbox repository the publisher needs.
type OutboxWriter interface {
	InsertWithTx(ctx context.Context, tx pgx.Tx, event *database.OutboxEvent) error
}

// Publisher writes events through the transactional outbox.
type Publisher struct {
	outbox OutboxWriter
	logger *slog.Logger
}

func NewPublisher(outbox OutboxWriter, logger *slog.Logger) *Publisher {
	return &Publisher{
		outbox: outbox,
		logger: logger.With("component", "event_publisher"),
	}
}

// PublishSearchCompletedWithTx writes the event inside tx, so it is only
// visible once the job's results commit.
func (p *Publisher) PublishSearchCompletedWithTx(ctx context.Context, tx pgx.Tx, payload *SearchCompletedPayload) error {
	if payload.EventID == "" {
		payload.EventID = uuid.New().String()
	}
	if payload.EventType == "" {
		payload.EventType = string(EventTypeSearchCompleted)
	}
	if payload.Timestamp.IsZero() {
		payload.Timestamp = time.Now()
	}
	if payload.Source == "" {
		payload.Source = "scraper"
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	event := &database.OutboxEvent{
		AggregateType: AggregateTypeSearchJob,
		AggregateID:   payload.JobID,
		EventType:     string(EventTypeSearchCompleted),
		Payload:       data,
	}
	if err := p.outbox.InsertWithTx(ctx, tx, event); err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}

	p.logger.Info("event written to outbox",
		"type", payload.EventType,
		"event_id", payload.EventID,
		"job_id", payload.JobID,
		"outbox_id", event.ID,
	)
	return nil
}
