package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"

	"booking-calendar/allocator"
	"booking-calendar/config"
	apperrors "booking-calendar/errors"
	"booking-calendar/formatter"
	"booking-calendar/metrics"
	"booking-calendar/models"
	"booking-calendar/parser"
	"booking-calendar/server"
	"booking-calendar/slots"
	"booking-calendar/store"
)

func main() {
	// Define flags
	input := flag.String("input", "", "Media-mix file to import (.csv or pasted-text dump)")
	format := flag.String("format", "text", "Output format: text|json|csv")
	dryRun := flag.Bool("dry-run", false, "Allocate without reading or writing the store")
	maxRows := flag.Int("max-rows", 0, "Raw rows scanned per table (0 = default 300)")
	layout := flag.String("layout", "", "JSON slot-layout file (default: built-in layout)")
	serve := flag.Bool("serve", false, "Run the HTTP API instead of a one-shot import")
	metricsAddr := flag.String("metrics-addr", "", "Address to expose Prometheus metrics (e.g., :9090)")
	pushGateway := flag.String("push-url", "", "Pushgateway URL to push metrics to (e.g., http://localhost:9091)")
	wait := flag.Bool("wait", false, "Keep process running after completion to allow for metric scraping")

	flag.Parse()

	// Env config; .env is optional.
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	families, err := loadFamilies(*layout, cfg.LayoutPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading slot layout: %v\n", err)
		os.Exit(1)
	}

	// Start metrics server if address provided
	if *metricsAddr != "" {
		go func() {
			http.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
			fmt.Printf("Metrics server listening on %s/metrics\n", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
				fmt.Printf("Metrics server error: %v\n", err)
			}
		}()
	}

	if *serve {
		runServer(cfg, families)
		return
	}

	if *input == "" {
		fmt.Println("Error: -input flag is required (or use -serve)")
		fmt.Println("\nUsage:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	validFormats := map[string]bool{"text": true, "json": true, "csv": true}
	if !validFormats[*format] {
		fmt.Printf("Error: format must be one of: text, json, csv (got: %s)\n", *format)
		os.Exit(1)
	}

	code := runImport(cfg, families, *input, *format, *maxRows, *dryRun)

	// Handle metrics pushing or waiting
	if *pushGateway != "" {
		if err := push.New(*pushGateway, "booking_calendar").Gatherer(metrics.Registry).Push(); err != nil {
			fmt.Fprintf(os.Stderr, "Error pushing to Pushgateway: %v\n", err)
		} else {
			fmt.Println("\nMetrics successfully pushed to Pushgateway")
		}
	}

	if *wait && *metricsAddr != "" {
		fmt.Println("\nProcess kept alive for metric scraping. Press Ctrl+C to exit.")
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		fmt.Println("\nExiting...")
	}

	os.Exit(code)
}

func loadFamilies(flagPath, envPath string) (models.FamilyTable, error) {
	path := flagPath
	if path == "" {
		path = envPath
	}
	if path == "" {
		return slots.DefaultFamilyTable(), nil
	}
	return slots.LoadFamilyTable(path)
}

func runServer(cfg config.App, families models.FamilyTable) {
	db, err := store.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	st := store.New(db)
	if err := st.Migrate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error migrating store: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Booking API listening on %s\n", cfg.HTTPAddr)
	if err := server.New(st, families).Router().Run(cfg.HTTPAddr); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

// runImport is the one-shot CLI path: parse the media-mix file, allocate
// against the store snapshot (or an empty one for -dry-run) and commit.
func runImport(cfg config.App, families models.FamilyTable, input, format string, maxRows int, dryRun bool) int {
	raw, err := os.ReadFile(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening file: %v\n", err)
		return 1
	}

	opts := parser.Options{MaxRows: maxRows}
	var (
		rows  []models.ParsedRow
		stats parser.Stats
	)
	parseStart := time.Now()
	if filepath.Ext(input) == ".csv" {
		rows, stats, err = parser.ParseCSV(bytes.NewReader(raw), opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing file: %v\n", err)
			return 1
		}
	} else {
		rows, stats = parser.ParseText(string(raw), opts)
	}
	metrics.ParserDurationSeconds.Observe(time.Since(parseStart).Seconds())
	metrics.ParserRowsTotal.Add(float64(stats.RowsParsed))
	metrics.ParserRowsDroppedTotal.Add(float64(stats.DroppedRows))

	if stats.DroppedRows > 0 {
		fmt.Fprintf(os.Stderr, "Warning: %d row(s) dropped for unparseable dates\n", stats.DroppedRows)
	}
	if err := parser.ValidateRows(rows); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	requests, err := parser.ExpandRows(rows)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error expanding rows: %v\n", err)
		return 1
	}

	ctx := context.Background()
	var st *store.Store
	existing := make(models.Occupancy)
	if !dryRun {
		db, err := store.Open(cfg.DBDriver, cfg.DBDSN)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
			return 1
		}
		st = store.New(db)
		if err := st.Migrate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error migrating store: %v\n", err)
			return 1
		}
		existing, err = st.QueryOccupancy(ctx, requestDates(requests), allSlotIDs(families))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading occupancy: %v\n", err)
			return 1
		}
	}

	allocStart := time.Now()
	bookings, failures := allocator.Allocate(requests, families, existing)
	metrics.AllocatorDurationSeconds.Observe(time.Since(allocStart).Seconds())
	metrics.RequestsPerBatch.Observe(float64(len(requests)))

	if len(failures) > 0 {
		metrics.AllocationBatchesTotal.WithLabelValues("rejected").Inc()
		for _, f := range failures {
			metrics.AllocationFailuresTotal.WithLabelValues(string(f.Reason)).Inc()
		}
		switch format {
		case "json":
			fmt.Print(formatter.FormatFailuresJSON(failures))
		case "csv":
			fmt.Print(formatter.FormatFailuresCSV(failures))
		default:
			fmt.Print(formatter.FormatFailuresText(failures))
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", &apperrors.AllocationError{Failures: failures})
		return 1
	}

	if !dryRun {
		if err := st.CommitBookings(ctx, bookings); err != nil {
			if errors.Is(err, apperrors.ErrConflict) {
				metrics.AllocationBatchesTotal.WithLabelValues("conflict").Inc()
				metrics.StoreConflictsTotal.Inc()
				fmt.Fprintln(os.Stderr, "Error: a slot was booked concurrently, retry the import")
				return 1
			}
			fmt.Fprintf(os.Stderr, "Error committing bookings: %v\n", err)
			return 1
		}
		metrics.BookingsCommittedTotal.Add(float64(len(bookings)))
	}
	metrics.AllocationBatchesTotal.WithLabelValues("committed").Inc()

	switch format {
	case "json":
		fmt.Print(formatter.FormatBookingsJSON(bookings))
	case "csv":
		fmt.Print(formatter.FormatBookingsCSV(bookings))
	default:
		fmt.Print(formatter.FormatBookingsText(bookings))
	}
	return 0
}

func requestDates(requests []models.BookingRequest) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range requests {
		if _, ok := seen[r.Date]; ok {
			continue
		}
		seen[r.Date] = struct{}{}
		out = append(out, r.Date)
	}
	return out
}

func allSlotIDs(families models.FamilyTable) []string {
	var out []string
	for _, ids := range families {
		out = append(out, ids...)
	}
	return out
}
