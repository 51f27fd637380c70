package models

import "time"

// DateLayout is the day-key layout used everywhere in the core.
const DateLayout = "2006-01-02"

// YMD renders a time as a day key.
func YMD(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseYMD parses a day key back into a midnight-UTC time.
func ParseYMD(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// DayRange returns every day from from to to inclusive. An empty slice
// is returned when to precedes from.
func DayRange(from, to string) ([]time.Time, error) {
	start, err := ParseYMD(from)
	if err != nil {
		return nil, err
	}
	end, err := ParseYMD(to)
	if err != nil {
		return nil, err
	}
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days, nil
}
