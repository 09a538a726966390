package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole_KnownLabels(t *testing.T) {
	cases := map[string]Role{
		"Admin":         RoleAdmin,
		"administrator": RoleAdmin,
		"Supervisor":    RoleSupervisor,
		"Manager":       RoleSupervisor,
		"Employee":      RoleEmployee,
		"operator":      RoleEmployee,
		"  Admin  ":     RoleAdmin,
	}
	for label, want := range cases {
		got, err := ParseRole(label)
		require.NoError(t, err, "label %q", label)
		assert.Equal(t, want, got, "label %q", label)
	}
}

func TestParseRole_UnknownLabel(t *testing.T) {
	_, err := ParseRole("SuperUser")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SuperUser")
}

func TestPrimaryRole_PicksHighestRank(t *testing.T) {
	primary, ok := PrimaryRole([]Role{RoleEmployee, RoleAdmin, RoleSupervisor})
	require.True(t, ok)
	assert.Equal(t, RoleAdmin, primary)

	primary, ok = PrimaryRole([]Role{RoleEmployee, RoleSupervisor})
	require.True(t, ok)
	assert.Equal(t, RoleSupervisor, primary)
}

func TestPrimaryRole_Empty(t *testing.T) {
	_, ok := PrimaryRole(nil)
	assert.False(t, ok)

	// Unknown roles never contribute to the primary role.
	_, ok = PrimaryRole([]Role{Role("intruder")})
	assert.False(t, ok)
}

func TestCredential_Expired(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	fresh := Credential{Token: "t", ExpiresAt: now.Add(time.Hour)}
	assert.False(t, fresh.Expired(now))

	stale := Credential{Token: "t", ExpiresAt: now.Add(-time.Minute)}
	assert.True(t, stale.Expired(now))

	// Zero expiry means "no expiry recorded"; treated as not expired here,
	// the store decides what to do with it.
	assert.False(t, Credential{Token: "t"}.Expired(now))
}

func TestUser_RolePredicates(t *testing.T) {
	u := User{Roles: []Role{RoleEmployee, RoleSupervisor}}

	assert.True(t, u.HasRole(RoleEmployee))
	assert.False(t, u.HasRole(RoleAdmin))
	assert.True(t, u.HasAnyRole(RoleAdmin, RoleSupervisor))
	assert.False(t, u.HasAnyRole(RoleAdmin))
	assert.False(t, u.HasAnyRole())

	var none User
	assert.False(t, none.HasRole(RoleEmployee))
	assert.False(t, none.HasAnyRole(RoleAdmin, RoleSupervisor, RoleEmployee))
}

func TestUser_DisplayName(t *testing.T) {
	u := User{FirstName: "Ana", LastName: "Paz", Email: "ana@plant.example"}
	assert.Equal(t, "Ana Paz", u.DisplayName())

	assert.Equal(t, "ana@plant.example", User{Email: "ana@plant.example"}.DisplayName())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "uninitialized", StateUninitialized.String())
	assert.Equal(t, "authenticated", StateAuthenticated.String())
	assert.Equal(t, "unauthenticated", StateUnauthenticated.String())
}
