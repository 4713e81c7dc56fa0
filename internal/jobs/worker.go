package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/maltedev/sourcing-triads/internal/database"
	"github.com/maltedev/sourcing-triads/internal/events"
	"github.com/maltedev/sourcing-triads/internal/models"
	"github.com/maltedev/sourcing-triads/internal/scraper"
	"github.com/maltedev/sourcing-triads/internal/urlutil"
)

const failTimeout = 10 * time.Second

// StartWorker polls for pending jobs until ctx is done.
func (m *Manager) StartWorker(ctx context.Context) {
	m.logger.Info("job worker started", "interval", m.cfg.PollInterval)

	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("job worker stopping")
			return
		case <-ticker.C:
			m.drain(ctx)
		}
	}
}

// drain runs jobs until none is pending.
func (m *Manager) drain(ctx context.Context) {
	for ctx.Err() == nil {
		if !m.processNextJob(ctx) {
			return
		}
	}
}

// processNextJob claims and runs one job. It reports whether a job was
// claimed.
func (m *Manager) processNextJob(ctx context.Context) bool {
	job, err := m.store.ClaimPending(ctx)
	if err != nil {
		m.logger.Error("failed to claim job", "error", err)
		return false
	}
	if job == nil {
		return false
	}

	m.logger.Info("processing job", "id", job.ID, "query", job.Query)

	if err := m.runJob(ctx, job); err != nil {
		m.logger.Error("job failed", "id", job.ID, "error", err)

		failCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failTimeout)
		defer cancel()
		if failErr := m.store.Fail(failCtx, job.ID, err); failErr != nil {
			m.logger.Error("failed to mark job failed", "id", job.ID, "error", failErr)
		}
		return true
	}

	m.logger.Info("job completed", "id", job.ID)
	return true
}

func (m *Manager) runJob(ctx context.Context, job *database.SearchJob) error {
	listings, err := m.searcher.Search(ctx, job.Query)
	if err != nil {
		return err
	}

	ev := scraper.Evaluate(listings, scraper.EvalOptions{
		MinReviews:      job.MinReviews,
		RequireVerified: m.cfg.RequireVerified,
		Multiplier:      job.Multiplier,
		FXRate:          m.cfg.FXRate,
	})
	if ev.FilterFallback {
		m.logger.Warn("no listings passed the filter, ranking all listings",
			"id", job.ID, "listings", len(listings))
	}

	// Triad positions index the ranked set, so that is what gets stored.
	records, err := productRecords(ev.Selected)
	if err != nil {
		return err
	}
	triad, err := json.Marshal(ev.Triad)
	if err != nil {
		return fmt.Errorf("failed to marshal triad: %w", err)
	}
	payload := events.NewSearchCompletedPayload(job, len(records), ev.Triad)

	return m.tx.Transaction(ctx, func(tx pgx.Tx) error {
		if err := m.store.CompleteWithTx(ctx, tx, job.ID, records, triad); err != nil {
			return err
		}
		return m.publisher.PublishSearchCompletedWithTx(ctx, tx, payload)
	})
}

func productRecords(listings []models.Listing) ([]database.ProductRecord, error) {
	records := make([]database.ProductRecord, 0, len(listings))
	for i, l := range listings {
		data, err := json.Marshal(l)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal listing %d: %w", i, err)
		}
		records = append(records, database.ProductRecord{
			Position:   i,
			ListingKey: listingKey(l, i),
			ProductID:  l.ProductID,
			Title:      l.Title,
			URL:        l.URL,
			Price:      l.Price.Ptr(),
			Payload:    data,
		})
	}
	return records, nil
}

// listingKey is the join key the listing was grouped under: its canonical
// URL, else its id, else its position.
func listingKey(l models.Listing, position int) string {
	if u := urlutil.Canonical(l.URL); u != "" {
		return u
	}
	if l.ProductID != "" {
		return "id:" + l.ProductID
	}
	return "pos:" + strconv.Itoa(position)
}
