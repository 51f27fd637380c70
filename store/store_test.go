package store_test

import (
	"context"
	"testing"

	apperrors "booking-calendar/errors"
	"booking-calendar/models"
	"booking-calendar/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := store.Open("sqlite", ":memory:")
	require.NoError(t, err)
	s := store.New(db)
	require.NoError(t, s.Migrate())
	return s
}

func TestCommitAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	batch := []models.Booking{
		{Date: "2025-01-10", SlotID: "checklist_t1", Countries: "KR, US", Advertiser: "acme"},
		{Date: "2025-01-10", SlotID: "interactive_t1", GuaranteedExposure: 30000, Advertiser: "acme"},
		{Date: "2025-01-11", SlotID: "checklist_t1", Countries: "KR, US", Advertiser: "acme"},
	}
	require.NoError(t, s.CommitBookings(ctx, batch))

	got, err := s.ListRange(ctx, "2025-01-10", "2025-01-11", nil)
	require.NoError(t, err)
	require.Len(t, got, 3)
	// Ordered by date then slot id.
	assert.Equal(t, "checklist_t1", got[0].SlotID)
	assert.Equal(t, "interactive_t1", got[1].SlotID)
	assert.Equal(t, "2025-01-11", got[2].Date)
	assert.Equal(t, "KR, US", got[0].Countries)
	assert.Equal(t, 30000, got[1].GuaranteedExposure)
	assert.Equal(t, "acme", got[2].Advertiser)
}

func TestListRange_SlotFilterAndBounds(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CommitBookings(ctx, []models.Booking{
		{Date: "2025-01-09", SlotID: "checklist_t1"},
		{Date: "2025-01-10", SlotID: "checklist_t1"},
		{Date: "2025-01-10", SlotID: "checklist_t2"},
		{Date: "2025-01-12", SlotID: "checklist_t1"},
	}))

	got, err := s.ListRange(ctx, "2025-01-10", "2025-01-11", []string{"checklist_t1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2025-01-10", got[0].Date)
	assert.Equal(t, "checklist_t1", got[0].SlotID)
}

func TestQueryOccupancy(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CommitBookings(ctx, []models.Booking{
		{Date: "2025-01-10", SlotID: "checklist_t1"},
		{Date: "2025-01-10", SlotID: "checklist_t2"},
		{Date: "2025-01-11", SlotID: "checklist_t1"},
	}))

	occ, err := s.QueryOccupancy(ctx, []string{"2025-01-10"}, []string{"checklist_t1", "checklist_t2"})
	require.NoError(t, err)
	assert.True(t, occ.Has("2025-01-10", "checklist_t1"))
	assert.True(t, occ.Has("2025-01-10", "checklist_t2"))
	assert.False(t, occ.Has("2025-01-11", "checklist_t1"), "dates outside the query stay invisible")

	empty, err := s.QueryOccupancy(ctx, nil, []string{"checklist_t1"})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestCommitBookings_ConflictRollsBackBatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateBooking(ctx, models.Booking{Date: "2025-01-10", SlotID: "checklist_t1"}))

	err := s.CommitBookings(ctx, []models.Booking{
		{Date: "2025-01-09", SlotID: "checklist_t1"},
		{Date: "2025-01-10", SlotID: "checklist_t1"}, // collides
	})
	require.ErrorIs(t, err, apperrors.ErrConflict)

	// The whole batch rolled back, including the non-colliding row.
	got, err := s.ListRange(ctx, "2025-01-09", "2025-01-09", nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCreateBooking_Duplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b := models.Booking{Date: "2025-01-10", SlotID: "interactive_t1", GuaranteedExposure: 10000}
	require.NoError(t, s.CreateBooking(ctx, b))
	assert.ErrorIs(t, s.CreateBooking(ctx, b), apperrors.ErrConflict)
}

func TestCommitBookings_Empty(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.CommitBookings(context.Background(), nil))
}
