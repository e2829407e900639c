package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRole(t *testing.T) {
	t.Run("Should parse known roles", func(t *testing.T) {
		r, err := ParseRole("admin")
		require.NoError(t, err)
		assert.Equal(t, RoleAdmin, r)

		r, err = ParseRole("employee")
		require.NoError(t, err)
		assert.Equal(t, RoleEmployee, r)
	})

	t.Run("Should reject unknown and differently cased roles", func(t *testing.T) {
		_, err := ParseRole("Admin")
		assert.Error(t, err)
		_, err = ParseRole("")
		assert.Error(t, err)
	})

	t.Run("Should default admins to the admin view", func(t *testing.T) {
		assert.Equal(t, ViewAdmin, RoleAdmin.DefaultView())
		assert.Equal(t, ViewEmployee, RoleEmployee.DefaultView())
		assert.Equal(t, ViewEmployee, Role("").DefaultView())
	})
}

func TestParseView(t *testing.T) {
	v, err := ParseView("admin")
	require.NoError(t, err)
	assert.Equal(t, ViewAdmin, v)

	_, err = ParseView("dashboard")
	assert.Error(t, err)
}

func TestLocationReading_Address(t *testing.T) {
	t.Run("Should round both coordinates to six decimals", func(t *testing.T) {
		loc := LocationReading{Latitude: -6.2087634567, Longitude: 106.845599, Accuracy: 12}
		assert.Equal(t, "-6.208763, 106.845599", loc.Address())
	})

	t.Run("Should pad short coordinates", func(t *testing.T) {
		loc := LocationReading{Latitude: 1.5, Longitude: -2}
		assert.Equal(t, "1.500000, -2.000000", loc.Address())
	})
}

func TestRecordType(t *testing.T) {
	assert.True(t, CheckIn.Valid())
	assert.True(t, CheckOut.Valid())
	assert.False(t, RecordType("checkin").Valid())
	assert.Equal(t, "Check In", CheckIn.Label())
	assert.Equal(t, "Check Out", CheckOut.Label())
}
