package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"reva/internal/domain/listings"
	"reva/internal/domain/user"
)

func TestResolve(t *testing.T) {
	own := &listings.Listing{ID: "c1", Owner: "2"}
	foreign := &listings.Listing{ID: "c4", Owner: "99"}

	t.Run("owner sees own listings", func(t *testing.T) {
		g := Resolve(Principal{ID: "2", Role: user.RoleOwner})
		assert.Equal(t, ScopeOwner, g.Scope.Kind)
		assert.True(t, g.CoversListing(own))
		assert.False(t, g.CoversListing(foreign))
		assert.NoError(t, g.Require(CapViewDashboard))
		assert.Equal(t, []*listings.Listing{own}, g.ScopeListings([]*listings.Listing{own, foreign}))
	})

	t.Run("admin sees everything", func(t *testing.T) {
		g := Resolve(Principal{ID: "1", Role: user.RoleAdmin})
		assert.Equal(t, ScopeAll, g.Scope.Kind)
		assert.True(t, g.CoversListing(foreign))
		assert.True(t, g.Can(CapManageBookings))
	})

	t.Run("user is denied management", func(t *testing.T) {
		g := Resolve(Principal{ID: "3", Role: user.RoleUser})
		assert.Equal(t, ScopeNone, g.Scope.Kind)
		assert.ErrorIs(t, g.Require(CapViewDashboard), ErrAccessDenied)
		assert.True(t, g.Can(CapBook))
		assert.False(t, g.CoversListing(own))
	})

	t.Run("anonymous has nothing", func(t *testing.T) {
		g := Resolve(Principal{})
		assert.False(t, g.Can(CapBook))
		assert.ErrorIs(t, g.Require(CapViewOwnBookings), ErrAccessDenied)
	})
}
