package access

import (
	"errors"

	"reva/internal/domain/listings"
	"reva/internal/domain/user"
)

var ErrAccessDenied = errors.New("access: denied")

type Principal struct {
	ID   user.ID
	Role user.Role
}

func (p Principal) Authenticated() bool {
	return p.ID != ""
}

type ScopeKind string

const (
	ScopeNone  ScopeKind = "none"
	ScopeOwner ScopeKind = "owner"
	ScopeAll   ScopeKind = "all"
)

// Scope bounds the listings (and their bookings) a principal may manage.
type Scope struct {
	Kind    ScopeKind
	OwnerID listings.OwnerID
}

type Capability string

const (
	CapBook            Capability = "book"
	CapViewOwnBookings Capability = "view_own_bookings"
	CapViewDashboard   Capability = "view_dashboard"
	CapManageBookings  Capability = "manage_bookings"
)

type Grant struct {
	Principal    Principal
	Scope        Scope
	Capabilities map[Capability]struct{}
}

// Resolve computes what a principal may see and do.
func Resolve(p Principal) Grant {
	g := Grant{Principal: p, Scope: Scope{Kind: ScopeNone}, Capabilities: map[Capability]struct{}{}}
	if !p.Authenticated() {
		return g
	}
	switch p.Role {
	case user.RoleAdmin:
		g.Scope = Scope{Kind: ScopeAll}
		g.add(CapBook, CapViewOwnBookings, CapViewDashboard, CapManageBookings)
	case user.RoleOwner:
		g.Scope = Scope{Kind: ScopeOwner, OwnerID: listings.OwnerID(p.ID)}
		g.add(CapBook, CapViewOwnBookings, CapViewDashboard, CapManageBookings)
	case user.RoleUser, user.RoleGuest:
		g.add(CapBook, CapViewOwnBookings)
	}
	return g
}

func (g *Grant) add(caps ...Capability) {
	for _, c := range caps {
		g.Capabilities[c] = struct{}{}
	}
}

func (g Grant) Can(c Capability) bool {
	_, ok := g.Capabilities[c]
	return ok
}

// Require returns ErrAccessDenied when the capability is missing.
func (g Grant) Require(c Capability) error {
	if !g.Can(c) {
		return ErrAccessDenied
	}
	return nil
}

// CoversListing reports whether the listing falls inside the grant's management scope.
func (g Grant) CoversListing(l *listings.Listing) bool {
	if l == nil {
		return false
	}
	switch g.Scope.Kind {
	case ScopeAll:
		return true
	case ScopeOwner:
		return l.OwnedBy(g.Scope.OwnerID)
	default:
		return false
	}
}

// ScopeListings filters items to those the grant covers.
func (g Grant) ScopeListings(items []*listings.Listing) []*listings.Listing {
	out := make([]*listings.Listing, 0, len(items))
	for _, l := range items {
		if g.CoversListing(l) {
			out = append(out, l)
		}
	}
	return out
}
