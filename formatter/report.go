package formatter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"booking-calendar/models"
)

// reasonText maps failure reason codes to operator-facing phrasing.
func reasonText(r models.FailureReason) string {
	switch r {
	case models.ReasonAlreadyOccupied:
		return "slot already occupied"
	case models.ReasonNoCapacityList:
		return "no slot list registered for family"
	case models.ReasonCapacityExceeded:
		return "family capacity exceeded"
	default:
		return string(r)
	}
}

// FormatFailuresText renders a rejected batch as one line per failure.
func FormatFailuresText(failures []models.AllocationFailure) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("allocation rejected: %d failure(s)\n", len(failures)))
	for _, f := range failures {
		sb.WriteString(fmt.Sprintf("  • %s %s: %s", f.Date, f.Family, reasonText(f.Reason)))
		if f.Capacity > 0 {
			sb.WriteString(fmt.Sprintf(" (capacity=%d, occupied=%d)", f.Capacity, f.Occupied))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatFailuresJSON renders the failure list as indented JSON.
func FormatFailuresJSON(failures []models.AllocationFailure) string {
	out, _ := json.MarshalIndent(failures, "", "  ")
	return string(out)
}

// FormatFailuresCSV renders the failure list with a header row.
func FormatFailuresCSV(failures []models.AllocationFailure) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	w.Write([]string{"Date", "Family", "Reason", "Capacity", "Occupied"})
	for _, f := range failures {
		w.Write([]string{
			f.Date,
			f.Family,
			string(f.Reason),
			fmt.Sprintf("%d", f.Capacity),
			fmt.Sprintf("%d", f.Occupied),
		})
	}

	w.Flush()
	return sb.String()
}

// FormatBookingsText renders resolved assignments one per line.
func FormatBookingsText(bookings []models.Booking) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d booking(s) resolved\n", len(bookings)))
	for _, b := range bookings {
		sb.WriteString(fmt.Sprintf("  %s → %s", b.Date, b.SlotID))
		if b.Countries != "" {
			sb.WriteString(fmt.Sprintf(" [%s]", b.Countries))
		}
		if b.GuaranteedExposure > 0 {
			sb.WriteString(fmt.Sprintf(" exposure=%s/day", comma(b.GuaranteedExposure)))
		}
		if b.Advertiser != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", b.Advertiser))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatBookingsJSON renders resolved assignments as indented JSON.
func FormatBookingsJSON(bookings []models.Booking) string {
	out, _ := json.MarshalIndent(bookings, "", "  ")
	return string(out)
}

// FormatBookingsCSV renders resolved assignments with a header row.
func FormatBookingsCSV(bookings []models.Booking) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	w.Write([]string{"Date", "SlotID", "Countries", "GuaranteedExposure", "Advertiser"})
	for _, b := range bookings {
		w.Write([]string{
			b.Date,
			b.SlotID,
			b.Countries,
			fmt.Sprintf("%d", b.GuaranteedExposure),
			b.Advertiser,
		})
	}

	w.Flush()
	return sb.String()
}
