package recommend

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcp-drink-rec/internal/models"
)

func TestResolve_Thresholds(t *testing.T) {
	tests := []struct {
		attr  Attribute
		level Level
		want  Range
	}{
		{Calories, Low, Range{Min: 0, Max: 120}},
		{Calories, Medium, Range{Min: 120, Max: 260}},
		{Calories, High, Range{Min: 260, Max: math.Inf(1)}},
		{Sugars, Low, Range{Min: 0, Max: 15}},
		{Sugars, Medium, Range{Min: 15, Max: 40}},
		{Sugars, High, Range{Min: 40, Max: math.Inf(1)}},
		{Protein, Low, Range{Min: 0, Max: 5}},
		{Protein, Medium, Range{Min: 5, Max: 10}},
		{Protein, High, Range{Min: 10, Max: math.Inf(1)}},
		{TotalFat, Low, Range{Min: 0, Max: 0.5}},
		{TotalFat, Medium, Range{Min: 0.5, Max: 4}},
		{TotalFat, High, Range{Min: 4, Max: math.Inf(1)}},
		{Caffeine, Zero, Range{Min: 0, Max: 0, Closed: true}},
		{Caffeine, Low, Range{Min: 1, Max: 50}},
		{Caffeine, Medium, Range{Min: 50, Max: 150}},
		{Caffeine, High, Range{Min: 150, Max: math.Inf(1)}},
	}

	for _, tt := range tests {
		t.Run(string(tt.attr)+"/"+string(tt.level), func(t *testing.T) {
			got, ok, err := Resolve(tt.attr, tt.level)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_NoPreference(t *testing.T) {
	for _, attr := range NumericAttributes {
		_, ok, err := Resolve(attr, NoPreference)
		require.NoError(t, err)
		assert.False(t, ok, attr)

		_, ok, err = Resolve(attr, "")
		require.NoError(t, err)
		assert.False(t, ok, attr)
	}
}

func TestResolve_ZeroOnlyForCaffeine(t *testing.T) {
	_, _, err := Resolve(Calories, Zero)
	require.Error(t, err)

	var invalid *InvalidLevelError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, Calories, invalid.Attribute)
	assert.Equal(t, "Zero", invalid.Value)
	assert.ErrorIs(t, err, ErrInvalidLevel)
}

func TestResolve_UnknownAttribute(t *testing.T) {
	_, _, err := Resolve("sodium", High)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidLevel)
}

func TestRange_BoundariesAreHalfOpen(t *testing.T) {
	adjacent := map[Attribute][]float64{
		Calories: {120, 260},
		Sugars:   {15, 40},
		Protein:  {5, 10},
		TotalFat: {0.5, 4},
		Caffeine: {50, 150},
	}

	for attr, bounds := range adjacent {
		for _, b := range bounds {
			var matches []Level
			for _, l := range Levels(attr) {
				r, _, err := Resolve(attr, l)
				require.NoError(t, err)
				if r.Contains(b) {
					matches = append(matches, l)
				}
			}
			assert.Len(t, matches, 1, "%s=%v matched %v", attr, b, matches)
		}
	}
}

func TestRange_CaffeineZeroIsSinglePoint(t *testing.T) {
	zero, _, err := Resolve(Caffeine, Zero)
	require.NoError(t, err)
	low, _, err := Resolve(Caffeine, Low)
	require.NoError(t, err)

	assert.True(t, zero.Contains(0))
	assert.False(t, zero.Contains(5))
	assert.False(t, zero.Contains(0.5))
	assert.False(t, low.Contains(0))
	assert.False(t, low.Contains(0.5))
	assert.True(t, low.Contains(1))
}

func TestRange_MissingNeverMatches(t *testing.T) {
	r := Range{Min: 0, Max: math.Inf(1)}
	assert.False(t, r.Contains(models.Missing()))
	assert.True(t, r.Contains(1e9))
}

func TestRange_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(Range{Min: 260, Max: math.Inf(1)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"min":260,"max":null}`, string(b))

	b, err = json.Marshal(Range{Min: 0, Max: 0, Closed: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"min":0,"max":0,"closed":true}`, string(b))
}

func TestRange_String(t *testing.T) {
	assert.Equal(t, "[0.5, 4)", Range{Min: 0.5, Max: 4}.String())
	assert.Equal(t, "[0, 0]", Range{Closed: true}.String())
	assert.Equal(t, "[150, inf)", Range{Min: 150, Max: math.Inf(1)}.String())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		attr  Attribute
		input string
		want  Level
	}{
		{Caffeine, "high", High},
		{Caffeine, " ZERO ", Zero},
		{Calories, "Medium", Medium},
		{Sugars, "", NoPreference},
		{Sugars, "No Preference", NoPreference},
		{Protein, "any", NoPreference},
		{TotalFat, "none", NoPreference},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.attr, tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}
}

func TestParseLevel_Invalid(t *testing.T) {
	_, err := ParseLevel(Sugars, "extreme")
	require.Error(t, err)

	var invalid *InvalidLevelError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, Sugars, invalid.Attribute)
	assert.Equal(t, "extreme", invalid.Value)
	assert.Contains(t, err.Error(), "sugars")
	assert.Contains(t, err.Error(), "extreme")

	_, err = ParseLevel(Protein, "zero")
	assert.ErrorIs(t, err, ErrInvalidLevel)
}

func TestLevels(t *testing.T) {
	assert.Equal(t, []Level{High, Medium, Low, Zero}, Levels(Caffeine))
	assert.Equal(t, []Level{High, Medium, Low}, Levels(Sugars))
	assert.Empty(t, Levels(Prep))
}
