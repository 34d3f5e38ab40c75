package listings

import "strings"

// SearchCriteria filters the catalog. Zero values mean "no constraint" and all
// set criteria must hold at once.
type SearchCriteria struct {
	Location  string
	MinPrice  int64
	MaxPrice  int64
	MinGuests int
}

// Normalized returns a sanitized copy of the criteria.
func (c SearchCriteria) Normalized() SearchCriteria {
	n := c
	n.Location = strings.ToLower(strings.TrimSpace(n.Location))
	if n.MinPrice < 0 {
		n.MinPrice = 0
	}
	if n.MaxPrice < 0 {
		n.MaxPrice = 0
	}
	if n.MinGuests < 0 {
		n.MinGuests = 0
	}
	return n
}

// Empty reports whether no criterion is set.
func (c SearchCriteria) Empty() bool {
	n := c.Normalized()
	return n.Location == "" && n.MinPrice == 0 && n.MaxPrice == 0 && n.MinGuests == 0
}

// Matches applies the criteria to a single listing. Price bounds are inclusive and
// location is a case-insensitive substring match.
func (c SearchCriteria) Matches(l *Listing) bool {
	if l == nil {
		return false
	}
	n := c.Normalized()
	if n.Location != "" && !strings.Contains(strings.ToLower(l.Location), n.Location) {
		return false
	}
	if n.MinPrice > 0 && l.NightlyPrice < n.MinPrice {
		return false
	}
	if n.MaxPrice > 0 && l.NightlyPrice > n.MaxPrice {
		return false
	}
	if n.MinGuests > 0 && l.Capacity < n.MinGuests {
		return false
	}
	return true
}

// Filter returns the listings matching c in their original order.
func Filter(items []*Listing, c SearchCriteria) []*Listing {
	out := make([]*Listing, 0, len(items))
	for _, item := range items {
		if c.Matches(item) {
			out = append(out, item)
		}
	}
	return out
}
