package parser

import (
	"time"

	apperrors "booking-calendar/errors"
	"booking-calendar/models"
	"booking-calendar/slots"
)

// ValidateRows rejects a parsed batch before any allocation is
// attempted: there must be at least one row, every row needs a product,
// an advertiser and a non-inverted date range.
func ValidateRows(rows []models.ParsedRow) error {
	if len(rows) == 0 {
		return apperrors.ErrNoRows
	}
	for _, r := range rows {
		if r.Product == "" {
			return apperrors.ErrNoFamily
		}
		if r.Advertiser == "" {
			return apperrors.ErrNoAdvertiser
		}
		start, err := models.ParseYMD(r.Start)
		if err != nil {
			return apperrors.ErrInvalidDate
		}
		end, err := models.ParseYMD(r.End)
		if err != nil {
			return apperrors.ErrInvalidDate
		}
		if end.Before(start) {
			return apperrors.ErrEmptyRange
		}
	}
	return nil
}

// ExpandRows turns parsed date-range rows into one unpinned booking
// request per day. The product resolves to its slot family; country
// targets attach only to country-targeted families and exposure only
// to exposure-tracked ones. When the daily exposure cell was empty the
// per-day figure is derived from the total, spread evenly over the
// range.
func ExpandRows(rows []models.ParsedRow) ([]models.BookingRequest, error) {
	var out []models.BookingRequest
	for _, r := range rows {
		start, err := models.ParseYMD(r.Start)
		if err != nil {
			return nil, &apperrors.RowError{Cells: []string{r.Start}, Err: apperrors.ErrInvalidDate}
		}
		end, err := models.ParseYMD(r.End)
		if err != nil {
			return nil, &apperrors.RowError{Cells: []string{r.End}, Err: apperrors.ErrInvalidDate}
		}

		family := slots.ProductFamily(r.Product)
		info := slots.Info(family)
		daily := dailyExposure(r, start, end)

		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			req := models.BookingRequest{
				Date:       models.YMD(d),
				Family:     family,
				Advertiser: r.Advertiser,
			}
			if info.HasCountry {
				req.Countries = r.Target
			}
			if info.HasExposure {
				req.GuaranteedExposure = daily
			}
			out = append(out, req)
		}
	}
	return out, nil
}

// dailyExposure prefers the sheet's daily column and otherwise divides
// the total evenly across the booked days.
func dailyExposure(r models.ParsedRow, start, end time.Time) int {
	if r.DailyExposure != nil {
		return *r.DailyExposure
	}
	if r.TotalExposure == nil {
		return 0
	}
	days := int(end.Sub(start).Hours()/24) + 1
	if days < 1 {
		days = 1
	}
	return *r.TotalExposure / days
}
