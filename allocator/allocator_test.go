package allocator_test

import (
	"testing"

	"booking-calendar/allocator"
	"booking-calendar/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checklistTable() models.FamilyTable {
	return models.FamilyTable{
		"checklist":   {"checklist_t1", "checklist_t2"},
		"interactive": {"interactive_t1"},
	}
}

func occupancyOf(pairs ...[2]string) models.Occupancy {
	occ := make(models.Occupancy)
	for _, p := range pairs {
		occ.Add(p[0], p[1])
	}
	return occ
}

func TestAllocate(t *testing.T) {
	tests := map[string]struct {
		requests         []models.BookingRequest
		existing         models.Occupancy
		expectedSlots    []string // slot ids in request order, nil when rejection expected
		expectedFailures []models.AllocationFailure
	}{
		"PinnedConflict_ExistingOccupancy": {
			requests: []models.BookingRequest{
				{Date: "2025-01-10", SlotID: "checklist_t1"},
			},
			existing: occupancyOf([2]string{"2025-01-10", "checklist_t1"}),
			expectedFailures: []models.AllocationFailure{
				{Date: "2025-01-10", Family: "checklist", Reason: models.ReasonAlreadyOccupied, Capacity: 2, Occupied: 1},
			},
		},
		"AutoAssignment_RequestOrderWins": {
			requests: []models.BookingRequest{
				{Date: "2025-01-10", Family: "checklist"},
				{Date: "2025-01-10", Family: "checklist"},
			},
			existing:      make(models.Occupancy),
			expectedSlots: []string{"checklist_t1", "checklist_t2"},
		},
		"CapacityExceeded_ThirdRequestFailsWholeBatch": {
			requests: []models.BookingRequest{
				{Date: "2025-01-10", Family: "checklist"},
				{Date: "2025-01-10", Family: "checklist"},
				{Date: "2025-01-10", Family: "checklist"},
			},
			existing: make(models.Occupancy),
			expectedFailures: []models.AllocationFailure{
				{Date: "2025-01-10", Family: "checklist", Reason: models.ReasonCapacityExceeded, Capacity: 2, Occupied: 2},
			},
		},
		"UnknownFamily_NoCapacityList": {
			requests: []models.BookingRequest{
				{Date: "2025-01-10", Family: "uncatalogued"},
			},
			existing: make(models.Occupancy),
			expectedFailures: []models.AllocationFailure{
				{Date: "2025-01-10", Family: "uncatalogued", Reason: models.ReasonNoCapacityList},
			},
		},
		"SingleSlotFamily_TrivialSuccess": {
			requests: []models.BookingRequest{
				{Date: "2025-01-10", Family: "interactive", GuaranteedExposure: 50000},
			},
			existing:      make(models.Occupancy),
			expectedSlots: []string{"interactive_t1"},
		},
		"PinnedOutsideCapacityList_Accepted": {
			// One-off slot ids not yet catalogued must stay bookable.
			requests: []models.BookingRequest{
				{Date: "2025-01-10", SlotID: "checklist_t9"},
			},
			existing:      make(models.Occupancy),
			expectedSlots: []string{"checklist_t9"},
		},
		"PinnedBlocksLaterUnpinned": {
			requests: []models.BookingRequest{
				{Date: "2025-01-10", SlotID: "checklist_t1"},
				{Date: "2025-01-10", Family: "checklist"},
			},
			existing:      make(models.Occupancy),
			expectedSlots: []string{"checklist_t1", "checklist_t2"},
		},
		"SameFamilyDifferentDates_NoInterference": {
			requests: []models.BookingRequest{
				{Date: "2025-01-10", Family: "checklist"},
				{Date: "2025-01-11", Family: "checklist"},
			},
			existing:      make(models.Occupancy),
			expectedSlots: []string{"checklist_t1", "checklist_t1"},
		},
		"ExistingOccupancyShiftsAssignment": {
			requests: []models.BookingRequest{
				{Date: "2025-01-10", Family: "checklist"},
			},
			existing:      occupancyOf([2]string{"2025-01-10", "checklist_t1"}),
			expectedSlots: []string{"checklist_t2"},
		},
		"AllFailuresReported_NotJustTheFirst": {
			requests: []models.BookingRequest{
				{Date: "2025-01-10", SlotID: "checklist_t1"},
				{Date: "2025-01-11", Family: "uncatalogued"},
			},
			existing: occupancyOf([2]string{"2025-01-10", "checklist_t1"}),
			expectedFailures: []models.AllocationFailure{
				{Date: "2025-01-10", Family: "checklist", Reason: models.ReasonAlreadyOccupied, Capacity: 2, Occupied: 1},
				{Date: "2025-01-11", Family: "uncatalogued", Reason: models.ReasonNoCapacityList},
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			bookings, failures := allocator.Allocate(tt.requests, checklistTable(), tt.existing)

			if tt.expectedFailures != nil {
				assert.Equal(t, tt.expectedFailures, failures)
				assert.Empty(t, bookings, "rejected batch must emit no bookings")
				return
			}

			require.Empty(t, failures)
			require.Len(t, bookings, len(tt.expectedSlots))
			for i, want := range tt.expectedSlots {
				assert.Equal(t, want, bookings[i].SlotID, "request %d slot mismatch", i)
				assert.Equal(t, tt.requests[i].Date, bookings[i].Date, "request %d date mismatch", i)
			}
		})
	}
}

func TestAllocate_Deterministic(t *testing.T) {
	requests := []models.BookingRequest{
		{Date: "2025-01-10", Family: "checklist", Countries: "KR, US"},
		{Date: "2025-01-10", Family: "checklist", Countries: "JP"},
		{Date: "2025-01-11", SlotID: "checklist_t2"},
		{Date: "2025-01-11", Family: "checklist"},
	}
	existing := occupancyOf([2]string{"2025-01-12", "checklist_t1"})

	first, firstFailures := allocator.Allocate(requests, checklistTable(), existing)
	second, secondFailures := allocator.Allocate(requests, checklistTable(), existing)

	assert.Equal(t, first, second, "identical input must produce identical assignments")
	assert.Equal(t, firstFailures, secondFailures)
}

func TestAllocate_NoDoubleBookingAndCapacityRespected(t *testing.T) {
	table := models.FamilyTable{
		"checklist":     {"checklist_t1", "checklist_t2"},
		"funnel_search": {"funnel_search_t1", "funnel_search_t2"},
	}
	var requests []models.BookingRequest
	for _, date := range []string{"2025-02-01", "2025-02-02", "2025-02-03"} {
		requests = append(requests,
			models.BookingRequest{Date: date, Family: "checklist"},
			models.BookingRequest{Date: date, Family: "funnel_search"},
			models.BookingRequest{Date: date, Family: "checklist"},
		)
	}

	bookings, failures := allocator.Allocate(requests, table, make(models.Occupancy))
	require.Empty(t, failures)

	seen := make(map[string]struct{})
	for _, b := range bookings {
		key := b.Date + "|" + b.SlotID
		_, dup := seen[key]
		assert.False(t, dup, "double booking on %s", key)
		seen[key] = struct{}{}
	}
	for _, date := range []string{"2025-02-01", "2025-02-02", "2025-02-03"} {
		count := 0
		for _, b := range bookings {
			if b.Date == date && (b.SlotID == "checklist_t1" || b.SlotID == "checklist_t2") {
				count++
			}
		}
		assert.LessOrEqual(t, count, 2, "checklist capacity exceeded on %s", date)
	}
}

func TestAllocate_PreservesRequestPayload(t *testing.T) {
	requests := []models.BookingRequest{
		{Date: "2025-01-10", Family: "checklist", Countries: "KR, US", Advertiser: "마이리얼트립"},
	}

	bookings, failures := allocator.Allocate(requests, checklistTable(), make(models.Occupancy))
	require.Empty(t, failures)
	require.Len(t, bookings, 1)
	assert.Equal(t, "KR, US", bookings[0].Countries)
	assert.Equal(t, "마이리얼트립", bookings[0].Advertiser)
}
