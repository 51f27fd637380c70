// Package allocator assigns booking requests to concrete slots.
//
// The engine is a pure, single-pass function over in-memory data: it
// never touches the store. Callers snapshot occupancy first, allocate,
// and commit the returned bookings as one unit. A concurrent writer can
// invalidate the snapshot; the store's unique index on (date, slot)
// closes that race and surfaces it as a retryable conflict.
package allocator

import (
	"booking-calendar/models"
	"booking-calendar/slots"
)

// Allocate places every request on a concrete slot or rejects the whole
// batch.
//
// Requests are processed in order; the order is the tie-break priority
// when several unpinned requests compete for the same family and date.
// Pinned requests claim their slot if it is free. Unpinned requests get
// the first free slot of the family's ordered capacity list, so
// repeated runs on identical input produce identical assignments.
//
// The call is all-or-nothing: if any request fails, the full ordered
// failure list is returned and no bookings are emitted. On success the
// failure list is empty and bookings preserve the request order.
func Allocate(requests []models.BookingRequest, families models.FamilyTable, existing models.Occupancy) ([]models.Booking, []models.AllocationFailure) {
	batchTaken := make(models.Occupancy)
	bookings := make([]models.Booking, 0, len(requests))
	var failures []models.AllocationFailure

	for _, req := range requests {
		if req.Pinned() {
			if b, fail := placePinned(req, families, existing, batchTaken); fail != nil {
				failures = append(failures, *fail)
			} else {
				batchTaken.Add(b.Date, b.SlotID)
				bookings = append(bookings, b)
			}
			continue
		}

		if b, fail := placeUnpinned(req, families, existing, batchTaken); fail != nil {
			failures = append(failures, *fail)
		} else {
			batchTaken.Add(b.Date, b.SlotID)
			bookings = append(bookings, b)
		}
	}

	if len(failures) > 0 {
		return nil, failures
	}
	return bookings, nil
}

// placePinned accepts the request unless its concrete slot is taken.
// A pin outside the family's capacity list is intentionally accepted:
// one-off slot ids not yet catalogued must still be bookable.
func placePinned(req models.BookingRequest, families models.FamilyTable, existing, batch models.Occupancy) (models.Booking, *models.AllocationFailure) {
	family := slots.Normalize(req.SlotID)
	candidates := families[family]

	if existing.Has(req.Date, req.SlotID) || batch.Has(req.Date, req.SlotID) {
		return models.Booking{}, &models.AllocationFailure{
			Date:     req.Date,
			Family:   family,
			Reason:   models.ReasonAlreadyOccupied,
			Capacity: len(candidates),
			Occupied: takenCount(candidates, req.Date, existing, batch),
		}
	}
	return toBooking(req, req.SlotID), nil
}

// placeUnpinned picks the first free slot of the family's ordered list.
func placeUnpinned(req models.BookingRequest, families models.FamilyTable, existing, batch models.Occupancy) (models.Booking, *models.AllocationFailure) {
	candidates := families[req.Family]
	if len(candidates) == 0 {
		return models.Booking{}, &models.AllocationFailure{
			Date:   req.Date,
			Family: req.Family,
			Reason: models.ReasonNoCapacityList,
		}
	}

	for _, id := range candidates {
		if existing.Has(req.Date, id) || batch.Has(req.Date, id) {
			continue
		}
		return toBooking(req, id), nil
	}

	return models.Booking{}, &models.AllocationFailure{
		Date:     req.Date,
		Family:   req.Family,
		Reason:   models.ReasonCapacityExceeded,
		Capacity: len(candidates),
		Occupied: takenCount(candidates, req.Date, existing, batch),
	}
}

// takenCount counts how many of the family's slots are occupied on date
// across the store snapshot and the current batch. When the family has
// no registered list, the snapshot's per-date count stands in.
func takenCount(candidates []string, date string, existing, batch models.Occupancy) int {
	if len(candidates) == 0 {
		return len(existing[date])
	}
	n := 0
	for _, id := range candidates {
		if existing.Has(date, id) || batch.Has(date, id) {
			n++
		}
	}
	return n
}

func toBooking(req models.BookingRequest, slotID string) models.Booking {
	return models.Booking{
		Date:               req.Date,
		SlotID:             slotID,
		Countries:          req.Countries,
		GuaranteedExposure: req.GuaranteedExposure,
		Advertiser:         req.Advertiser,
	}
}
