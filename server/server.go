// Package server exposes the allocation core and the calendar read
// models over HTTP for the grid UI and the bulk-import dialog.
package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"booking-calendar/allocator"
	apperrors "booking-calendar/errors"
	"booking-calendar/formatter"
	"booking-calendar/metrics"
	"booking-calendar/models"
	"booking-calendar/parser"
	"booking-calendar/slots"
	"booking-calendar/store"
)

type Server struct {
	store    *store.Store
	families models.FamilyTable
}

func New(st *store.Store, families models.FamilyTable) *Server {
	return &Server{store: st, families: families}
}

// Router wires all routes. /metrics serves the application registry.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	v1 := r.Group("/v1")
	v1.POST("/bookings/bulk", s.BulkImport)
	v1.POST("/bookings", s.CreateBooking)
	v1.GET("/bookings", s.ListBookings)
	v1.GET("/calendar/summary", s.CalendarSummary)
	v1.GET("/calendar/runs", s.CalendarRuns)
	return r
}

// POST /v1/bookings/bulk
// Parses pasted media-mix text, allocates concrete slots and commits
// the batch. With preview=true the parsed rows are returned without
// touching the store, for the edit-before-submit dialog.
func (s *Server) BulkImport(c *gin.Context) {
	var in struct {
		Text    string `json:"text" binding:"required"`
		Preview bool   `json:"preview"`
		MaxRows int    `json:"max_rows"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	parseStart := time.Now()
	rows, stats := parser.ParseText(in.Text, parser.Options{MaxRows: in.MaxRows})
	metrics.ParserDurationSeconds.Observe(time.Since(parseStart).Seconds())
	metrics.ParserRowsTotal.Add(float64(stats.RowsParsed))
	metrics.ParserRowsDroppedTotal.Add(float64(stats.DroppedRows))

	if err := parser.ValidateRows(rows); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "dropped_rows": stats.DroppedRows})
		return
	}

	if in.Preview {
		c.JSON(http.StatusOK, gin.H{"rows": rows, "dropped_rows": stats.DroppedRows})
		return
	}

	requests, err := parser.ExpandRows(rows)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bookings, failures, err := s.allocate(c, requests)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(failures) > 0 {
		metrics.AllocationBatchesTotal.WithLabelValues("rejected").Inc()
		c.JSON(http.StatusUnprocessableEntity, gin.H{"failures": failures})
		return
	}

	if err := s.store.CommitBookings(c, bookings); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			metrics.AllocationBatchesTotal.WithLabelValues("conflict").Inc()
			metrics.StoreConflictsTotal.Inc()
			c.JSON(http.StatusConflict, gin.H{"error": "a slot was booked concurrently, retry the import"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	metrics.AllocationBatchesTotal.WithLabelValues("committed").Inc()
	metrics.BookingsCommittedTotal.Add(float64(len(bookings)))
	c.JSON(http.StatusCreated, gin.H{"committed": len(bookings), "bookings": bookings})
}

// allocate snapshots occupancy for the batch and runs the engine.
func (s *Server) allocate(c *gin.Context, requests []models.BookingRequest) ([]models.Booking, []models.AllocationFailure, error) {
	dateSet := make(map[string]struct{})
	famSet := make(map[string]struct{})
	for _, r := range requests {
		dateSet[r.Date] = struct{}{}
		if r.Pinned() {
			famSet[slots.Normalize(r.SlotID)] = struct{}{}
		} else {
			famSet[r.Family] = struct{}{}
		}
	}
	dates := make([]string, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	keys := make([]string, 0, len(famSet))
	for f := range famSet {
		keys = append(keys, f)
	}

	existing, err := s.store.QueryOccupancy(c, dates, familySlotIDs(s.families, keys))
	if err != nil {
		return nil, nil, err
	}

	allocStart := time.Now()
	bookings, failures := allocator.Allocate(requests, s.families, existing)
	metrics.AllocatorDurationSeconds.Observe(time.Since(allocStart).Seconds())
	metrics.RequestsPerBatch.Observe(float64(len(requests)))
	for _, f := range failures {
		metrics.AllocationFailuresTotal.WithLabelValues(string(f.Reason)).Inc()
	}
	return bookings, failures, nil
}

// POST /v1/bookings
// Single-slot booking from the schedule form; the slot is pinned.
func (s *Server) CreateBooking(c *gin.Context) {
	var in struct {
		Date               string `json:"date" binding:"required"`
		SlotID             string `json:"slot_id" binding:"required"`
		Countries          string `json:"countries"`
		GuaranteedExposure int    `json:"guaranteed_exposure"`
		Advertiser         string `json:"advertiser"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := models.ParseYMD(in.Date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": apperrors.ErrInvalidDate.Error()})
		return
	}

	b := models.Booking{
		Date:               in.Date,
		SlotID:             in.SlotID,
		Countries:          in.Countries,
		GuaranteedExposure: in.GuaranteedExposure,
		Advertiser:         in.Advertiser,
	}
	if err := s.store.CreateBooking(c, b); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			metrics.StoreConflictsTotal.Inc()
			c.JSON(http.StatusConflict, gin.H{"error": "slot already booked for that date"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	metrics.BookingsCommittedTotal.Inc()
	c.JSON(http.StatusCreated, b)
}

// GET /v1/bookings?from=2025-01-01&to=2025-01-31&slots=a,b
func (s *Server) ListBookings(c *gin.Context) {
	from, to := c.Query("from"), c.Query("to")
	if from == "" || to == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to are required"})
		return
	}

	var slotIDs []string
	if raw := c.Query("slots"); raw != "" {
		slotIDs = strings.Split(raw, ",")
	}

	bookings, err := s.store.ListRange(c, from, to, slotIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

// GET /v1/calendar/summary?families=checklist,funnel_search&from=...&to=...&mode=countries
// mode defaults to the section rule: interactive sections sum exposure,
// the rest aggregate countries.
func (s *Server) CalendarSummary(c *gin.Context) {
	families, days, ok := s.rangeParams(c)
	if !ok {
		return
	}

	slotIDs := familySlotIDs(s.families, families)
	bookings, err := s.store.ListRange(c, models.YMD(days[0]), models.YMD(days[len(days)-1]), slotIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	mode := formatter.SummaryMode(c.Query("mode"))
	label := ""
	if mode == "" {
		spec, ok := formatter.SectionSummary(slotIDs)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown families"})
			return
		}
		mode, label, families = spec.Mode, spec.Label, spec.Families
	}

	summary := formatter.BuildDailySummary(bookings, days, mode, families, 0, slots.Canonical)
	c.JSON(http.StatusOK, gin.H{"mode": mode, "label": label, "summary": summary})
}

// GET /v1/calendar/runs?family=checklist_t1&from=...&to=...
func (s *Server) CalendarRuns(c *gin.Context) {
	family := c.Query("family")
	if family == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "family is required"})
		return
	}
	days, ok := s.days(c)
	if !ok {
		return
	}

	slotIDs := familySlotIDs(s.families, []string{slots.Normalize(family)})
	bookings, err := s.store.ListRange(c, models.YMD(days[0]), models.YMD(days[len(days)-1]), slotIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	runs := formatter.BuildCellRuns(family, days, bookings)
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) rangeParams(c *gin.Context) ([]string, []time.Time, bool) {
	raw := c.Query("families")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "families is required"})
		return nil, nil, false
	}
	days, ok := s.days(c)
	if !ok {
		return nil, nil, false
	}
	return strings.Split(raw, ","), days, true
}

func (s *Server) days(c *gin.Context) ([]time.Time, bool) {
	days, err := models.DayRange(c.Query("from"), c.Query("to"))
	if err != nil || len(days) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from/to must be a valid date range"})
		return nil, false
	}
	return days, true
}

// familySlotIDs flattens the concrete slot ids of the given families,
// keeping table order.
func familySlotIDs(table models.FamilyTable, families []string) []string {
	var out []string
	for _, f := range families {
		out = append(out, table[f]...)
	}
	return out
}
