package tcxnotes

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyBoundaries(t *testing.T) {
	tests := []struct {
		bpm  float64
		want int
	}{
		{0, 1},
		{-20, 1},
		{109, 1},
		{109.99, 1},
		{110, 2},
		{111, 2},
		{129, 2},
		{130, 3},
		{135, 3},
		{144, 3},
		{145, 4},
		{150, 4},
		{164, 4},
		{164.9, 4},
		// Strict "< 165" and "> 165" rules would leave 165 unclassified.
		// It opens zone 5.
		{165, 5},
		{166, 5},
		{200, 5},
		{math.Inf(1), 5},
		{math.Inf(-1), 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.bpm), "Classify(%v)", tt.bpm)
	}
}

func TestClassifyNaNIsUnclassified(t *testing.T) {
	assert.Equal(t, ZoneUnclassified, Classify(math.NaN()))
}

func TestClassifyMonotonic(t *testing.T) {
	prev := Classify(0)
	for bpm := 0.0; bpm <= 250; bpm += 0.5 {
		z := Classify(bpm)
		require.GreaterOrEqual(t, z, prev, "zone decreased at %v", bpm)
		require.True(t, z >= 1 && z <= 5, "zone %d out of range at %v", z, bpm)
		prev = z
	}
}

func TestZoneConfigCustomThresholds(t *testing.T) {
	cfg := ZoneConfig{Thresholds: []float64{100, 150}}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 3, cfg.Zones())
	assert.Equal(t, 1, cfg.Classify(99))
	assert.Equal(t, 2, cfg.Classify(100))
	assert.Equal(t, 3, cfg.Classify(150))
}

func TestZoneConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultZones().Validate())
	assert.Error(t, ZoneConfig{}.Validate())
	assert.Error(t, ZoneConfig{Thresholds: []float64{130, 110}}.Validate())
	assert.Error(t, ZoneConfig{Thresholds: []float64{110, 110}}.Validate())
	assert.Error(t, ZoneConfig{Thresholds: []float64{math.NaN()}}.Validate())
}

func TestDefaultZonesIsACopy(t *testing.T) {
	z := DefaultZones()
	z.Thresholds[0] = 1
	assert.Equal(t, 110.0, DefaultZoneThresholds[0])
}
