// Package parser converts raw media-mix tables (spreadsheet cells or
// pasted text) into normalized booking rows.
package parser

import (
	"encoding/csv"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	apperrors "booking-calendar/errors"
	"booking-calendar/models"
)

// DefaultMaxRows bounds how many raw rows a single table scan visits.
// Sales sheets occasionally carry thousands of trailing empty rows.
const DefaultMaxRows = 300

// Options tunes a parse call.
type Options struct {
	// MaxRows caps the raw rows scanned; 0 means DefaultMaxRows.
	MaxRows int
}

func (o Options) maxRows() int {
	if o.MaxRows > 0 {
		return o.MaxRows
	}
	return DefaultMaxRows
}

// Stats reports what a parse call did with the raw input. Parse errors
// are row-local: the offending row is dropped and recorded here, never
// fatal to the batch.
type Stats struct {
	RowsScanned int
	RowsParsed  int
	BlankRows   int
	DroppedRows int     // data rows dropped for unparseable dates
	RowErrors   []error // one *errors.RowError per dropped row
}

// Section and row shape of the sales sheets. The header/advertiser
// patterns are fixed Korean phrases; matching them is inherent to the
// ingestion format.
var (
	advertiserRe     = regexp.MustCompile(`(\S+)\s*광고\s*제안`)
	sectionDisplayRe = regexp.MustCompile(`디스플레이\s*광고\s*상품명`)
	sectionAlertRe   = regexp.MustCompile(`알람\s*광고\s*상품\s*명`)
	sectionOtherRe   = regexp.MustCompile(`기타\s*상품\s*명`)
	rowNumberRe      = regexp.MustCompile(`^\d+`)
	nonNumericRe     = regexp.MustCompile(`[^0-9-]`)
	multiSpaceRe     = regexp.MustCompile(`\s{2,}`)
)

const totalMarker = "총합"

// Date cells come in several spellings depending on who exported the
// sheet. The first layout that parses wins.
var dateLayouts = []string{
	"2006. 1. 2",
	"2006.1.2",
	"2006-01-02",
	"2006/01/02",
	"2006. 1. 2.",
	"2006.1.2.",
}

// ParseTable scans a 2D text grid and returns the recognized booking
// rows. A row qualifies as data only when a section header has been
// seen and its first cell starts with a row number; header rows, blank
// rows and "total" rows are skipped. The two date cells are always the
// last two columns, tolerating variable-width rows. The extracted
// advertiser name (one per table) is attached to every row.
func ParseTable(table [][]string, opts Options) ([]models.ParsedRow, Stats) {
	var (
		out        []models.ParsedRow
		stats      Stats
		section    models.Section
		advertiser string
	)

	limit := min(len(table), opts.maxRows())
	for i := 0; i < limit; i++ {
		stats.RowsScanned++

		line := trimCells(table[i])
		if blank(line) {
			stats.BlankRows++
			continue
		}
		text := strings.Join(line, " ")

		if advertiser == "" {
			if m := advertiserRe.FindStringSubmatch(text); m != nil {
				advertiser = m[1]
			}
		}

		switch {
		case sectionDisplayRe.MatchString(text):
			section = models.SectionDisplay
			continue
		case sectionAlertRe.MatchString(text):
			section = models.SectionAlert
			continue
		case sectionOtherRe.MatchString(text):
			section = models.SectionOther
			continue
		}

		if section == "" || !rowNumberRe.MatchString(cell(line, 0)) {
			continue
		}
		if strings.Contains(cell(line, 1), totalMarker) {
			continue
		}

		start, startOK := parseDate(cell(line, len(line)-2))
		end, endOK := parseDate(cell(line, len(line)-1))
		if !startOK || !endOK {
			stats.DroppedRows++
			stats.RowErrors = append(stats.RowErrors, &apperrors.RowError{
				Row:   i,
				Cells: line,
				Err:   apperrors.ErrInvalidDate,
			})
			continue
		}

		out = append(out, models.ParsedRow{
			Section:       section,
			Product:       cell(line, 1),
			Target:        cell(line, 3),
			Start:         start,
			End:           end,
			DailyExposure: parseInt(cell(line, 4)),
			TotalExposure: parseInt(cell(line, 6)),
		})
		stats.RowsParsed++
	}

	for i := range out {
		out[i].Advertiser = advertiser
	}
	return out, stats
}

// ParseText splits pasted text into a grid and parses it. Cells are
// separated by tabs when present, otherwise by runs of spaces, falling
// back to single spaces.
func ParseText(text string, opts Options) ([]models.ParsedRow, Stats) {
	var table [][]string
	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimRight(strings.TrimSpace(l), "\r")
		if l == "" {
			continue
		}
		switch {
		case strings.Contains(l, "\t"):
			table = append(table, strings.Split(l, "\t"))
		case strings.Contains(l, "  "):
			table = append(table, multiSpaceRe.Split(l, -1))
		default:
			table = append(table, strings.Split(l, " "))
		}
	}
	return ParseTable(table, opts)
}

// ParseCSV reads comma-separated rows and parses them as one table.
func ParseCSV(r io.Reader, opts Options) ([]models.ParsedRow, Stats, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	var table [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, Stats{}, err
		}
		table = append(table, record)
	}

	rows, stats := ParseTable(table, opts)
	return rows, stats, nil
}

// parseDate tries the known layouts in order and reports failure when
// none of them accepts the cell.
func parseDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return models.YMD(t), true
		}
	}
	return "", false
}

// parseInt strips every non-digit character and parses what remains.
// Empty results are absent, not zero.
func parseInt(s string) *int {
	cleaned := nonNumericRe.ReplaceAllString(s, "")
	if cleaned == "" || cleaned == "-" {
		return nil
	}
	n, err := strconv.Atoi(cleaned)
	if err != nil {
		return nil
	}
	return &n
}

func trimCells(row []string) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = strings.TrimSpace(c)
	}
	return out
}

func blank(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
