package names

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Saint Paul", "saint-paul"},
		{" Brainerd, MN ", "brainerd-mn"},
		{"Minneapolis", "minneapolis"},
		{"St. Louis Park", "st-louis-park"},
		{"Lake St. Croix Beach", "lake-st-croix-beach"},
		{"--Odd--Name--", "odd-name"},
		{"Mañana", "manana"},
		{"", ""},
		{"!!!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slug(tt.in))
		})
	}
}

func TestSlug_Deterministic(t *testing.T) {
	assert.Equal(t, Slug("White Bear Lake"), Slug("White Bear Lake"))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "saintpaul", Key("Saint Paul"))
	assert.Equal(t, "saintpaul", Key("saint-paul"))
	assert.Equal(t, "stlouispark", Key("St. Louis Park"))
	assert.Equal(t, "brainerdmn", Key(" Brainerd, MN "))
	assert.Equal(t, "", Key("  "))
}

func TestKey_ConsistentWithSlug(t *testing.T) {
	for _, name := range []string{"Saint Paul", "Lake St. Croix Beach", "Mañana", " Brainerd, MN "} {
		assert.Equal(t, strings.ReplaceAll(Slug(name), "-", ""), Key(name), name)
	}
}

func TestClean(t *testing.T) {
	name, seat, capital := Clean("Saint Paul ††")
	assert.Equal(t, "Saint Paul", name)
	assert.True(t, seat)
	assert.True(t, capital)

	name, seat, capital = Clean("Brainerd †")
	assert.Equal(t, "Brainerd", name)
	assert.True(t, seat)
	assert.False(t, capital)

	name, seat, capital = Clean(" Zumbrota ")
	assert.Equal(t, "Zumbrota", name)
	assert.False(t, seat)
	assert.False(t, capital)
}

func TestParseCoordinate_Decimal(t *testing.T) {
	v, err := ParseCoordinate("44.95")
	require.NoError(t, err)
	assert.InDelta(t, 44.95, v, 1e-9)

	v, err = ParseCoordinate("-93.0")
	require.NoError(t, err)
	assert.InDelta(t, -93.0, v, 1e-9)
}

func TestParseCoordinate_DMS(t *testing.T) {
	v, err := ParseCoordinate("44°57′N")
	require.NoError(t, err)
	assert.InDelta(t, 44.95, v, 1e-6)

	v, err = ParseCoordinate("93°5′30″W")
	require.NoError(t, err)
	assert.InDelta(t, -93.091667, v, 1e-6)

	v, err = ParseCoordinate("46 21′N")
	require.NoError(t, err)
	assert.InDelta(t, 46.35, v, 1e-6)
}

func TestParseCoordinate_Invalid(t *testing.T) {
	_, err := ParseCoordinate("")
	assert.Error(t, err)

	_, err = ParseCoordinate("north-ish")
	assert.Error(t, err)
}
