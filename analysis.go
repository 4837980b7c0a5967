package tcxnotes

import (
	"fmt"
	"math"
	"time"

	"github.com/tkrajina/gpxgo/gpx"
)

// maxGapSeconds caps the time a single sample can account for; longer gaps
// are treated as pauses.
const maxGapSeconds = 30.0

// HeartRateAnalysis contains summary metrics for a heart-rate table.
type HeartRateAnalysis struct {
	Source         string         `json:"source"`
	StartTime      time.Time      `json:"start_time"`
	EndTime        time.Time      `json:"end_time"`
	ElapsedSeconds float64        `json:"elapsed_seconds"`
	Samples        int            `json:"samples"`
	DroppedSamples int            `json:"dropped_samples"`
	AvgHeartRate   float64        `json:"avg_heart_rate_bpm"`
	MinHeartRate   float64        `json:"min_heart_rate_bpm"`
	MaxHeartRate   float64        `json:"max_heart_rate_bpm"`
	Zones          []ZoneDuration `json:"zones,omitempty"`
}

// ZoneDuration stores the share of a session spent in one heart-rate zone.
type ZoneDuration struct {
	Zone       int     `json:"zone"`
	Label      string  `json:"label"`
	MinBPM     float64 `json:"min_bpm"`
	MaxBPM     float64 `json:"max_bpm,omitempty"` // zero for the open top zone
	Samples    int     `json:"samples"`
	Seconds    float64 `json:"seconds"`
	Percentage float64 `json:"percentage"`
}

// PositionAnalysis contains summary metrics for a position table.
type PositionAnalysis struct {
	Source         string    `json:"source"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	ElapsedSeconds float64   `json:"elapsed_seconds"`
	Points         int       `json:"points"`
	DroppedSamples int       `json:"dropped_samples"`
	DistanceMeters float64   `json:"distance_meters"`
	AvgSpeedMps    float64   `json:"avg_speed_mps"`
	MinLatitude    float64   `json:"min_latitude"`
	MaxLatitude    float64   `json:"max_latitude"`
	MinLongitude   float64   `json:"min_longitude"`
	MaxLongitude   float64   `json:"max_longitude"`
}

// AnalyzeHeartRate summarizes a heart-rate table against zones.
func AnalyzeHeartRate(table *HeartRateTable, zones ZoneConfig) *HeartRateAnalysis {
	a := &HeartRateAnalysis{
		Source:         table.Source,
		Samples:        table.Len(),
		DroppedSamples: table.Stats.Dropped,
	}
	if table.Len() == 0 {
		return a
	}
	a.StartTime, a.EndTime = table.Rows[0].Timestamp, table.Rows[table.Len()-1].Timestamp
	if a.EndTime.After(a.StartTime) {
		a.ElapsedSeconds = a.EndTime.Sub(a.StartTime).Seconds()
	}

	hr := table.HeartRates()
	a.AvgHeartRate = average(hr)
	a.MinHeartRate = minValue(hr)
	a.MaxHeartRate = maxValue(hr)
	a.Zones = buildHeartRateZones(table, zones)
	return a
}

func buildHeartRateZones(table *HeartRateTable, zones ZoneConfig) []ZoneDuration {
	n := zones.Zones()
	out := make([]ZoneDuration, n)
	for i := range out {
		out[i].Zone = i + 1
		out[i].Label = fmt.Sprintf("Z%d", i+1)
		if i > 0 {
			out[i].MinBPM = zones.Thresholds[i-1]
		}
		if i < len(zones.Thresholds) {
			out[i].MaxBPM = zones.Thresholds[i]
		}
	}

	total := 0
	for i, row := range table.Rows {
		idx := row.Zone - 1
		if idx < 0 || idx >= n {
			continue
		}
		out[idx].Samples++
		total++
		if i+1 < len(table.Rows) {
			out[idx].Seconds += sampleSeconds(row.Timestamp, table.Rows[i+1].Timestamp)
		}
	}
	if total == 0 {
		return nil
	}
	for i := range out {
		out[i].Percentage = float64(out[i].Samples) / float64(total) * 100.0
	}
	return out
}

func sampleSeconds(from, to time.Time) float64 {
	delta := to.Sub(from).Seconds()
	if delta <= 0 || delta > maxGapSeconds {
		return 0
	}
	return delta
}

// AnalyzePosition summarizes a position table. Distance is the sum of
// great-circle segments between consecutive points.
func AnalyzePosition(table *PositionTable) *PositionAnalysis {
	a := &PositionAnalysis{
		Source:         table.Source,
		Points:         table.Len(),
		DroppedSamples: table.Stats.Dropped,
	}
	if table.Len() == 0 {
		return a
	}
	first := table.Rows[0]
	a.StartTime, a.EndTime = first.Timestamp, table.Rows[table.Len()-1].Timestamp
	if a.EndTime.After(a.StartTime) {
		a.ElapsedSeconds = a.EndTime.Sub(a.StartTime).Seconds()
	}
	a.MinLatitude, a.MaxLatitude = first.Latitude, first.Latitude
	a.MinLongitude, a.MaxLongitude = first.Longitude, first.Longitude

	for i, row := range table.Rows {
		a.MinLatitude = math.Min(a.MinLatitude, row.Latitude)
		a.MaxLatitude = math.Max(a.MaxLatitude, row.Latitude)
		a.MinLongitude = math.Min(a.MinLongitude, row.Longitude)
		a.MaxLongitude = math.Max(a.MaxLongitude, row.Longitude)
		if i == 0 {
			continue
		}
		prev := table.Rows[i-1]
		d := gpx.HaversineDistance(prev.Latitude, prev.Longitude, row.Latitude, row.Longitude)
		if isFinite(d) {
			a.DistanceMeters += d
		}
	}
	if a.ElapsedSeconds > 0 {
		a.AvgSpeedMps = a.DistanceMeters / a.ElapsedSeconds
	}
	return a
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0.0
	count := 0
	for _, v := range values {
		if !isFinite(v) {
			continue
		}
		total += v
		count++
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

func maxValue(values []float64) float64 {
	max := 0.0
	found := false
	for _, v := range values {
		if !isFinite(v) {
			continue
		}
		if !found || v > max {
			max = v
			found = true
		}
	}
	return max
}

func minValue(values []float64) float64 {
	min := 0.0
	found := false
	for _, v := range values {
		if !isFinite(v) {
			continue
		}
		if !found || v < min {
			min = v
			found = true
		}
	}
	return min
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
