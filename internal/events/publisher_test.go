package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/maltedev/sourcing-triads/internal/database"
	"github.com/maltedev/sourcing-triads/internal/models"
	"github.com/maltedev/sourcing-triads/internal/opt"
	"github.com/maltedev/sourcing-triads/internal/ranking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOutbox struct {
	mock.Mock
}

func (m *MockOutbox) InsertWithTx(ctx context.Context, tx pgx.Tx, event *database.OutboxEvent) error {
	return m.Called(ctx, tx, event).Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testTriad() ranking.Triad {
	listings := []models.Listing{
		{Title: "cheap cup", ProductID: "1600000000001", Price: opt.Some(0.8), Currency: "USD"},
		{Title: "good cup", ProductID: "1600000000002", Price: opt.Some(1.5), Currency: "USD",
			Supplier: models.Supplier{Verified: opt.Some(true), Years: opt.Some(9)}},
	}
	triad := ranking.RankTriad(listings, 1)
	triad.ApplyLanded(3, 0)
	return triad
}

func TestNewSearchCompletedPayload(t *testing.T) {
	job := &database.SearchJob{ID: uuid.New(), Query: "paper cups"}

	payload := NewSearchCompletedPayload(job, 2, testTriad())

	assert.Equal(t, job.ID.String(), payload.JobID)
	assert.Equal(t, "paper cups", payload.Query)
	assert.Equal(t, 2, payload.ProductsFound)
	assert.Equal(t, 2, payload.Candidates)
	require.Len(t, payload.Picks, 2)

	cheapest := payload.Picks[0]
	assert.Equal(t, ranking.KindCheapest, cheapest.Kind)
	assert.Equal(t, "1600000000001", cheapest.ProductID)
	require.NotNil(t, cheapest.LandedUSD)
	assert.InDelta(t, 2.4, *cheapest.LandedUSD, 1e-9)
	assert.Nil(t, cheapest.LandedLocal)

	assert.Equal(t, ranking.KindBestQuality, payload.Picks[1].Kind)
	assert.True(t, payload.Picks[1].Verified)
}

func TestNewSearchCompletedPayload_EmptyTriad(t *testing.T) {
	payload := NewSearchCompletedPayload(&database.SearchJob{ID: uuid.New()}, 0, ranking.Triad{})

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"picks":[]`)
}

func TestPublisher_PublishSearchCompletedWithTx(t *testing.T) {
	ctx := context.Background()

	t.Run("writes the event", func(t *testing.T) {
		outbox := new(MockOutbox)
		publisher := NewPublisher(outbox, testLogger())
		payload := &SearchCompletedPayload{JobID: "job-1", Query: "cups"}

		outbox.On("InsertWithTx", ctx, nil, mock.MatchedBy(func(e *database.OutboxEvent) bool {
			var decoded SearchCompletedPayload
			if err := json.Unmarshal(e.Payload, &decoded); err != nil {
				return false
			}
			return e.AggregateType == AggregateTypeSearchJob &&
				e.AggregateID == "job-1" &&
				e.EventType == "SEARCH_COMPLETED" &&
				decoded.Query == "cups" &&
				decoded.EventID != ""
		})).Return(nil)

		require.NoError(t, publisher.PublishSearchCompletedWithTx(ctx, nil, payload))
		assert.Equal(t, "SEARCH_COMPLETED", payload.EventType)
		assert.Equal(t, "scraper", payload.Source)
		assert.False(t, payload.Timestamp.IsZero())
		outbox.AssertExpectations(t)
	})

	t.Run("propagates outbox errors", func(t *testing.T) {
		outbox := new(MockOutbox)
		publisher := NewPublisher(outbox, testLogger())
		outbox.On("InsertWithTx", ctx, nil, mock.Anything).Return(database.ErrInvalidEvent)

		err := publisher.PublishSearchCompletedWithTx(ctx, nil, &SearchCompletedPayload{})
		assert.True(t, errors.Is(err, database.ErrInvalidEvent))
	})
}
