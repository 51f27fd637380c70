// Package store persists committed bookings. The allocation engine
// never talks to it directly: callers snapshot occupancy here, run the
// engine, then commit the resolved batch. The composite unique index on
// (basis_date, slot_id) closes the snapshot race between two concurrent
// allocation calls; such a collision surfaces as ErrConflict and is
// retryable.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	apperrors "booking-calendar/errors"
	"booking-calendar/models"
)

// Booking is the persisted row shape. Optional fields are nullable so
// "absent" and "zero" stay distinguishable in the table.
type Booking struct {
	ID                 string  `gorm:"primaryKey;size:36"`
	BasisDate          string  `gorm:"size:10;not null;uniqueIndex:idx_bookings_day_slot,priority:1"`
	SlotID             string  `gorm:"size:64;not null;uniqueIndex:idx_bookings_day_slot,priority:2"`
	CountryNames       *string `gorm:"size:255"`
	GuaranteedExposure *int
	AdvertiserName     *string `gorm:"size:128"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (Booking) TableName() string { return "bookings" }

// Store wraps the bookings table.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Open connects to the configured database. Supported drivers are
// "sqlite" (DSN is a file path, ":memory:" for tests) and "postgres".
func Open(driver, dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	switch driver {
	case "sqlite", "":
		return gorm.Open(sqlite.Open(dsn), cfg)
	case "postgres":
		return gorm.Open(postgres.Open(dsn), cfg)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
}

// Migrate creates the bookings table and its uniqueness index.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&Booking{})
}

// QueryOccupancy reads the (date, slot) pairs already committed for the
// given dates and slot ids. The result is the snapshot the allocation
// engine works from.
func (s *Store) QueryOccupancy(ctx context.Context, dates, slotIDs []string) (models.Occupancy, error) {
	occ := make(models.Occupancy)
	if len(dates) == 0 || len(slotIDs) == 0 {
		return occ, nil
	}

	var rows []Booking
	err := s.db.WithContext(ctx).
		Select("basis_date", "slot_id").
		Where("basis_date IN ?", dates).
		Where("slot_id IN ?", slotIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, r := range rows {
		occ.Add(r.BasisDate, r.SlotID)
	}
	return occ, nil
}

// CommitBookings writes a resolved batch in one transaction. Nothing is
// written when any row collides with a booking the allocation snapshot
// did not see; that case returns ErrConflict.
func (s *Store) CommitBookings(ctx context.Context, bookings []models.Booking) error {
	if len(bookings) == 0 {
		return nil
	}

	rows := make([]Booking, len(bookings))
	for i, b := range bookings {
		rows[i] = toRow(b)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&rows).Error
	})
	if isDuplicate(err) {
		return apperrors.ErrConflict
	}
	return err
}

// CreateBooking writes one booking, for the single-slot form flow.
func (s *Store) CreateBooking(ctx context.Context, b models.Booking) error {
	row := toRow(b)
	err := s.db.WithContext(ctx).Create(&row).Error
	if isDuplicate(err) {
		return apperrors.ErrConflict
	}
	return err
}

// ListRange returns bookings between from and to inclusive, optionally
// filtered to a set of slot ids, ordered for stable rendering.
func (s *Store) ListRange(ctx context.Context, from, to string, slotIDs []string) ([]models.Booking, error) {
	q := s.db.WithContext(ctx).Model(&Booking{}).
		Where("basis_date >= ? AND basis_date <= ?", from, to)
	if len(slotIDs) > 0 {
		q = q.Where("slot_id IN ?", slotIDs)
	}

	var rows []Booking
	if err := q.Order("basis_date ASC, slot_id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]models.Booking, len(rows))
	for i, r := range rows {
		out[i] = fromRow(r)
	}
	return out, nil
}

// isDuplicate recognizes unique-index violations across drivers. GORM
// translates most of them to ErrDuplicatedKey; the sqlite message sniff
// covers driver versions that predate translation.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func toRow(b models.Booking) Booking {
	row := Booking{
		ID:        uuid.NewString(),
		BasisDate: b.Date,
		SlotID:    b.SlotID,
	}
	if b.Countries != "" {
		row.CountryNames = &b.Countries
	}
	if b.GuaranteedExposure != 0 {
		v := b.GuaranteedExposure
		row.GuaranteedExposure = &v
	}
	if b.Advertiser != "" {
		row.AdvertiserName = &b.Advertiser
	}
	return row
}

func fromRow(r Booking) models.Booking {
	b := models.Booking{
		Date:   r.BasisDate,
		SlotID: r.SlotID,
	}
	if r.CountryNames != nil {
		b.Countries = *r.CountryNames
	}
	if r.GuaranteedExposure != nil {
		b.GuaranteedExposure = *r.GuaranteedExposure
	}
	if r.AdvertiserName != nil {
		b.Advertiser = *r.AdvertiserName
	}
	return b
}
