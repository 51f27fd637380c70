package formatter

import (
	"strconv"
	"time"

	"booking-calendar/models"
	"booking-calendar/slots"
)

// Label is the two-line display text of a booked calendar cell.
type Label struct {
	Top    string
	Bottom string
}

// BookingLabel derives the cell text for one booking. Exposure-tracked
// families show the guaranteed daily impressions; everything else shows
// the target country string.
func BookingLabel(b models.Booking) Label {
	if slots.ExposureTracked(b.SlotID) {
		bottom := "0"
		if b.GuaranteedExposure != 0 {
			bottom = comma(b.GuaranteedExposure)
		}
		return Label{Top: "Booking", Bottom: bottom}
	}
	return Label{Top: b.Countries}
}

// BuildCellRuns merges one calendar row's bookings into horizontal run
// segments. Contiguous days with identical labels collapse into one
// run; empty days emit a span of one with an empty label so the grid
// keeps its shape.
//
// If several bookings land on the same row and day — the allocator's
// uniqueness invariant makes that an inconsistency, not an expected
// state — only the first is displayed. The store still holds every row.
func BuildCellRuns(rowFamilyID string, weekDays []time.Time, bookings []models.Booking) []models.CellRun {
	byDay := make(map[string][]models.Booking)
	for _, b := range bookings {
		if !slots.SameFamily(rowFamilyID, b.SlotID) {
			continue
		}
		byDay[b.Date] = append(byDay[b.Date], b)
	}

	var runs []models.CellRun
	for i := 0; i < len(weekDays); {
		list := byDay[models.YMD(weekDays[i])]
		if len(list) == 0 {
			runs = append(runs, models.CellRun{DayStart: i, Span: 1})
			i++
			continue
		}

		main := list[0]
		label := BookingLabel(main)

		span := 1
		for i+span < len(weekDays) {
			next := byDay[models.YMD(weekDays[i+span])]
			if len(next) == 0 || BookingLabel(next[0]) != label {
				break
			}
			span++
		}

		runs = append(runs, models.CellRun{
			DayStart:    i,
			Span:        span,
			LabelTop:    label.Top,
			LabelBottom: label.Bottom,
			SlotID:      main.SlotID,
		})
		i += span
	}
	return runs
}

// comma renders n with thousands separators.
func comma(n int) string {
	s := strconv.Itoa(n)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	if neg {
		return "-" + s
	}
	return s
}
