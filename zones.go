package tcxnotes

import (
	"fmt"
	"math"
)

// DefaultZoneThresholds are the lower bounds (bpm) of zones 2 through 5.
var DefaultZoneThresholds = []float64{110, 130, 145, 165}

// ZoneUnclassified is returned only for readings that cannot be compared, i.e. NaN.
const ZoneUnclassified = 0

// ZoneConfig holds ascending heart-rate cutoffs. A reading below Thresholds[0]
// is zone 1; a reading at or above Thresholds[i] is at least zone i+2.
type ZoneConfig struct {
	Thresholds []float64 `json:"thresholds" yaml:"thresholds"`
}

// DefaultZones returns the stock five-zone configuration.
func DefaultZones() ZoneConfig {
	return ZoneConfig{Thresholds: append([]float64(nil), DefaultZoneThresholds...)}
}

// Validate checks that cutoffs are finite and strictly ascending.
func (z ZoneConfig) Validate() error {
	if len(z.Thresholds) == 0 {
		return fmt.Errorf("zone thresholds are required")
	}
	for i, t := range z.Thresholds {
		if !isFinite(t) {
			return fmt.Errorf("zone threshold %d is not finite", i)
		}
		if i > 0 && t <= z.Thresholds[i-1] {
			return fmt.Errorf("zone thresholds must be strictly ascending (%v after %v)", t, z.Thresholds[i-1])
		}
	}
	return nil
}

// Zones is the number of zones the configuration produces.
func (z ZoneConfig) Zones() int {
	return len(z.Thresholds) + 1
}

// Classify maps a heart-rate reading to its zone. Cutoffs are lower-inclusive,
// so a reading equal to a cutoff belongs to the zone that cutoff opens.
func (z ZoneConfig) Classify(bpm float64) int {
	if math.IsNaN(bpm) {
		return ZoneUnclassified
	}
	zone := 1
	for _, t := range z.Thresholds {
		if bpm < t {
			break
		}
		zone++
	}
	return zone
}

// Classify maps bpm to a zone using DefaultZoneThresholds.
func Classify(bpm float64) int {
	return ZoneConfig{Thresholds: DefaultZoneThresholds}.Classify(bpm)
}
