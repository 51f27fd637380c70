// Package formatter turns committed bookings and allocation results
// into render-ready structures: the calendar's rendering layer does no
// aggregation of its own.
package formatter

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"booking-calendar/models"
	"booking-calendar/slots"
)

// SummaryMode selects what a daily summary row aggregates.
type SummaryMode string

const (
	ModeCountries   SummaryMode = "countries"
	ModeImpressions SummaryMode = "impressions"
)

// EmptyPlaceholder renders for days without matching bookings.
const EmptyPlaceholder = "—"

// DefaultMaxTokens caps country tokens shown before the "+N more"
// suffix.
const DefaultMaxTokens = 6

var tokenSplitRe = regexp.MustCompile(`[_,\s]+`)

// DailySummary is one aggregate calendar row: a rendered value per day
// plus the merged spans the table emits.
type DailySummary struct {
	ByDate map[string]string `json:"by_date"`
	Totals map[string]int    `json:"totals,omitempty"` // impressions mode only
	Spans  []models.Span     `json:"spans"`
}

// BuildDailySummary aggregates bookings into a per-day display value
// for the given slot families, then run-length-encodes consecutive
// days with identical rendered values into spans.
//
// In impressions mode each day sums guaranteed exposure (absent = 0).
// In countries mode each day joins the de-duplicated country tokens of
// its bookings in first-seen order, packing overflow beyond maxTokens
// into a "외 N개" suffix. The day list drives span order; it need not
// be contiguous.
func BuildDailySummary(bookings []models.Booking, days []time.Time, mode SummaryMode, familyIDs []string, maxTokens int, normalize func(string) string) DailySummary {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if normalize == nil {
		normalize = func(s string) string { return s }
	}

	families := make(models.SlotSet, len(familyIDs))
	for _, id := range familyIDs {
		families[normalize(id)] = struct{}{}
	}

	dayKeys := make([]string, len(days))
	buckets := make(map[string][]models.Booking)
	for i, d := range days {
		dayKeys[i] = models.YMD(d)
		buckets[dayKeys[i]] = nil
	}
	for _, b := range bookings {
		if _, wanted := buckets[b.Date]; !wanted {
			continue
		}
		if _, ok := families[normalize(b.SlotID)]; !ok {
			continue
		}
		buckets[b.Date] = append(buckets[b.Date], b)
	}

	out := DailySummary{ByDate: make(map[string]string, len(dayKeys))}
	if mode == ModeImpressions {
		out.Totals = make(map[string]int, len(dayKeys))
	}
	for _, k := range dayKeys {
		switch mode {
		case ModeImpressions:
			total := 0
			for _, b := range buckets[k] {
				total += b.GuaranteedExposure
			}
			out.Totals[k] = total
			out.ByDate[k] = strconv.Itoa(total)
		default:
			out.ByDate[k] = packCountries(buckets[k], maxTokens)
		}
	}

	out.Spans = encodeSpans(dayKeys, out.ByDate)
	return out
}

// packCountries joins the day's country tokens, de-duplicated in
// first-seen order across all of the day's bookings.
func packCountries(bookings []models.Booking, maxTokens int) string {
	seen := make(map[string]struct{})
	var ordered []string
	for _, b := range bookings {
		for _, tok := range tokenSplitRe.Split(strings.TrimSpace(b.Countries), -1) {
			if tok == "" {
				continue
			}
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			ordered = append(ordered, tok)
		}
	}
	if len(ordered) == 0 {
		return EmptyPlaceholder
	}
	if len(ordered) <= maxTokens {
		return strings.Join(ordered, ", ")
	}
	return strings.Join(ordered[:maxTokens], ", ") + " 외 " + strconv.Itoa(len(ordered)-maxTokens) + "개"
}

// encodeSpans merges consecutive days with byte-identical rendered
// values. Concatenated spans reconstruct the day list exactly.
func encodeSpans(dayKeys []string, byDate map[string]string) []models.Span {
	var spans []models.Span
	for i := 0; i < len(dayKeys); {
		value := byDate[dayKeys[i]]
		j := i + 1
		for j < len(dayKeys) && byDate[dayKeys[j]] == value {
			j++
		}
		spans = append(spans, models.Span{Start: dayKeys[i], Span: j - i, Value: value})
		i = j
	}
	return spans
}

// SummarySpec describes the aggregate row rendered above one section of
// calendar rows.
type SummarySpec struct {
	Mode     SummaryMode `json:"mode"`
	Label    string      `json:"label"`
	Families []string    `json:"families"`
}

// SectionSummary decides how a section of slot rows is summarized:
// sections containing the interactive family sum guaranteed exposure,
// everything else aggregates target countries. Returns false for empty
// sections.
func SectionSummary(slotIDs []string) (SummarySpec, bool) {
	if len(slotIDs) == 0 {
		return SummarySpec{}, false
	}
	bases := make([]string, len(slotIDs))
	for i, id := range slotIDs {
		bases[i] = slots.Canonical(id)
	}
	for _, b := range bases {
		if b == "interactive" {
			return SummarySpec{Mode: ModeImpressions, Label: "총 보장 노출", Families: []string{"interactive"}}, true
		}
	}
	return SummarySpec{Mode: ModeCountries, Label: "전체 타겟 국가", Families: bases}, true
}
