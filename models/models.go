package models

// Dates are plain calendar days in "2006-01-02" form throughout the core.
// The store and the UI exchange the same keys, so nothing here carries a
// time component or a timezone.

// Booking is a committed reservation of one concrete slot on one day.
// At most one Booking exists per (Date, SlotID) pair; the allocator
// preserves that invariant inside a batch and the store enforces it
// with a unique index.
type Booking struct {
	Date               string `json:"date"`
	SlotID             string `json:"slot_id"`
	Countries          string `json:"countries,omitempty"`           // delimited country tokens, empty = untargeted
	GuaranteedExposure int    `json:"guaranteed_exposure,omitempty"` // impressions/day, exposure-tracked families only
	Advertiser         string `json:"advertiser,omitempty"`
}

// BookingRequest is one desired booking handed to the allocator.
// Exactly one of SlotID and Family is set: SlotID pins the request to a
// concrete slot, Family leaves the concrete assignment to the engine.
type BookingRequest struct {
	Date               string `json:"date"`
	SlotID             string `json:"slot_id,omitempty"`
	Family             string `json:"family,omitempty"`
	Countries          string `json:"countries,omitempty"`
	GuaranteedExposure int    `json:"guaranteed_exposure,omitempty"`
	Advertiser         string `json:"advertiser,omitempty"`
}

// Pinned reports whether the request names a concrete slot.
func (r BookingRequest) Pinned() bool {
	return r.SlotID != ""
}

// FailureReason is the closed set of allocation failure causes.
type FailureReason string

const (
	// ReasonAlreadyOccupied: the pinned slot already holds a booking for
	// that date, either persisted or earlier in the same batch.
	ReasonAlreadyOccupied FailureReason = "already_occupied"
	// ReasonNoCapacityList: the requested family has no registered list
	// of concrete slots. A configuration gap, not capacity exhaustion.
	ReasonNoCapacityList FailureReason = "no_capacity_list"
	// ReasonCapacityExceeded: every concrete slot of the family is taken
	// for that date.
	ReasonCapacityExceeded FailureReason = "capacity_exceeded"
)

// AllocationFailure describes one request the engine could not place.
type AllocationFailure struct {
	Date     string        `json:"date"`
	Family   string        `json:"family"`
	Reason   FailureReason `json:"reason"`
	Capacity int           `json:"capacity,omitempty"` // family size, 0 when unknown
	Occupied int           `json:"occupied,omitempty"` // slots already taken for the date
}

// FamilyTable maps a family key to its ordered list of concrete slot
// ids. The order is the display order of the layout configuration and
// doubles as the assignment priority for unpinned requests. The table
// is built once from static configuration and passed into every
// allocation call.
type FamilyTable map[string][]string

// Capacity returns the number of concrete slots registered for family.
func (t FamilyTable) Capacity(family string) int {
	return len(t[family])
}

// SlotSet is a set of concrete slot ids.
type SlotSet map[string]struct{}

// Occupancy is the set of (date, slotID) pairs already committed,
// keyed by date. It is a snapshot read from the store before an
// allocation call.
type Occupancy map[string]SlotSet

// Has reports whether slotID is taken on date.
func (o Occupancy) Has(date, slotID string) bool {
	_, ok := o[date][slotID]
	return ok
}

// Add marks slotID taken on date.
func (o Occupancy) Add(date, slotID string) {
	set, ok := o[date]
	if !ok {
		set = make(SlotSet)
		o[date] = set
	}
	set[slotID] = struct{}{}
}

// Section tags a parsed media-mix row with the sheet section it came
// from.
type Section string

const (
	SectionDisplay Section = "display"
	SectionAlert   Section = "alert"
	SectionOther   Section = "other"
)

// ParsedRow is one normalized media-mix row: a product booked for a
// date range, before expansion into per-day requests. Exposure fields
// are nil when the source cell was empty (absent, not zero).
type ParsedRow struct {
	Section       Section `json:"section"`
	Product       string  `json:"product"`
	Target        string  `json:"target,omitempty"` // country/target string, stored verbatim
	Start         string  `json:"start"`            // "2006-01-02"
	End           string  `json:"end"`
	DailyExposure *int    `json:"daily_exposure,omitempty"`
	TotalExposure *int    `json:"total_exposure,omitempty"`
	Advertiser    string  `json:"advertiser,omitempty"`
}

// Span is a run-length-encoded range of consecutive days sharing one
// rendered value. The rendering layer emits one merged cell per span.
type Span struct {
	Start string `json:"start"` // day key of the first day
	Span  int    `json:"span"`  // number of days covered
	Value string `json:"value"`
}

// CellRun is one merged horizontal segment of a calendar row.
type CellRun struct {
	DayStart    int    `json:"day_start"` // index into the rendered day list
	Span        int    `json:"span"`
	LabelTop    string `json:"label_top"`
	LabelBottom string `json:"label_bottom,omitempty"`
	SlotID      string `json:"slot_id,omitempty"` // empty for blank cells
}
