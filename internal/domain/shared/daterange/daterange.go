package daterange

import (
	"errors"
	"math"
	"time"
)

var (
	ErrMissingBound = errors.New("daterange: start and end dates are required")
	ErrUnordered    = errors.New("daterange: end date must be after start date")
)

const day = 24 * time.Hour

// Layout is the calendar date format used on the wire.
const Layout = "2006-01-02"

// DateRange is a stay between two calendar dates. Start and End are kept as given;
// callers decide whether an unordered range is acceptable.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func New(start, end time.Time) (DateRange, error) {
	if start.IsZero() || end.IsZero() {
		return DateRange{}, ErrMissingBound
	}
	return DateRange{Start: start.UTC(), End: end.UTC()}, nil
}

// Parse builds a range from two YYYY-MM-DD strings.
func Parse(start, end string) (DateRange, error) {
	if start == "" || end == "" {
		return DateRange{}, ErrMissingBound
	}
	s, err := time.Parse(Layout, start)
	if err != nil {
		return DateRange{}, err
	}
	e, err := time.Parse(Layout, end)
	if err != nil {
		return DateRange{}, err
	}
	return New(s, e)
}

// Ordered reports whether End is strictly after Start.
func (dr DateRange) Ordered() bool {
	return dr.End.After(dr.Start)
}

func (dr DateRange) Validate() error {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return ErrMissingBound
	}
	if !dr.Ordered() {
		return ErrUnordered
	}
	return nil
}

// Nights is the absolute distance in days rounded up, never less than one.
func (dr DateRange) Nights() int {
	diff := dr.End.Sub(dr.Start)
	if diff < 0 {
		diff = -diff
	}
	nights := int(math.Ceil(float64(diff) / float64(day)))
	if nights < 1 {
		return 1
	}
	return nights
}

// Normalized returns the range with Start <= End.
func (dr DateRange) Normalized() DateRange {
	if dr.End.Before(dr.Start) {
		return DateRange{Start: dr.End, End: dr.Start}
	}
	return dr
}

func (dr DateRange) Overlaps(other DateRange) bool {
	a, b := dr.Normalized(), other.Normalized()
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

func (dr DateRange) String() string {
	return dr.Start.Format(Layout) + ".." + dr.End.Format(Layout)
}
