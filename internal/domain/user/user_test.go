package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	u, err := NewUser(CreateParams{ID: "u1", Name: " Jane ", Email: " Jane@Example.COM "})

	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", u.Email)
	assert.Equal(t, "Jane", u.Name)
	assert.Equal(t, RoleUser, u.Role)
	assert.False(t, u.HasSecret())
}

func TestNewUser_Validation(t *testing.T) {
	_, err := NewUser(CreateParams{Name: "n", Email: "e@x"})
	assert.ErrorIs(t, err, ErrIDRequired)

	_, err = NewUser(CreateParams{ID: "u", Name: "n"})
	assert.ErrorIs(t, err, ErrEmailRequired)

	_, err = NewUser(CreateParams{ID: "u", Email: "e@x"})
	assert.ErrorIs(t, err, ErrNameRequired)

	_, err = NewUser(CreateParams{ID: "u", Name: "n", Email: "e@x", Role: "superuser"})
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("owner")
	require.NoError(t, err)
	assert.Equal(t, RoleOwner, r)
}

func TestDefaultAvatarURL(t *testing.T) {
	assert.Equal(t,
		"https://ui-avatars.com/api/?background=d4af37&color=fff&name=Jane+Doe",
		DefaultAvatarURL("Jane Doe"))
}
