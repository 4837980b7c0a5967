package tcxnotes

import (
	"fmt"
	"math"
	"strings"
)

// BuildHeartRateNotes turns heart-rate metrics into a short session summary.
func BuildHeartRateNotes(a *HeartRateAnalysis) string {
	if a == nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Source: %s\n", a.Source)
	if !a.StartTime.IsZero() {
		fmt.Fprintf(&b, "Start: %s\n", a.StartTime.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(
		&b,
		"Duration %s | Samples %d (%d dropped)\n",
		formatDuration(a.ElapsedSeconds),
		a.Samples,
		a.DroppedSamples,
	)
	if a.Samples == 0 {
		b.WriteString("No usable heart-rate samples.\n")
		return strings.TrimSpace(b.String())
	}
	fmt.Fprintf(
		&b,
		"HR %.0f avg / %.0f min / %.0f max bpm\n",
		a.AvgHeartRate,
		a.MinHeartRate,
		a.MaxHeartRate,
	)

	if len(a.Zones) > 0 {
		b.WriteString("\nHeart Rate Zone Distribution\n")
		for _, z := range a.Zones {
			if z.Samples == 0 {
				continue
			}
			fmt.Fprintf(
				&b,
				"- %s %s: %s (%.1f%%)\n",
				z.Label,
				zoneRange(z),
				formatDuration(z.Seconds),
				z.Percentage,
			)
		}
	}

	b.WriteString("\nNotes\n- ")
	b.WriteString(intensityAssessment(a))
	b.WriteByte('\n')
	return strings.TrimSpace(b.String())
}

// BuildPositionNotes renders a short summary of a position table.
func BuildPositionNotes(a *PositionAnalysis) string {
	if a == nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Source: %s\n", a.Source)
	if !a.StartTime.IsZero() {
		fmt.Fprintf(&b, "Start: %s\n", a.StartTime.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(
		&b,
		"Duration %s | Points %d (%d dropped) | Distance %.2f km | Speed %.1f km/h\n",
		formatDuration(a.ElapsedSeconds),
		a.Points,
		a.DroppedSamples,
		a.DistanceMeters/1000.0,
		mpsToKmh(a.AvgSpeedMps),
	)
	if a.Points > 0 {
		fmt.Fprintf(
			&b,
			"Bounds lat %.5f..%.5f, lon %.5f..%.5f\n",
			a.MinLatitude,
			a.MaxLatitude,
			a.MinLongitude,
			a.MaxLongitude,
		)
	}
	return strings.TrimSpace(b.String())
}

func zoneRange(z ZoneDuration) string {
	switch {
	case z.MinBPM == 0:
		return fmt.Sprintf("<%.0f bpm", z.MaxBPM)
	case z.MaxBPM == 0:
		return fmt.Sprintf(">=%.0f bpm", z.MinBPM)
	}
	return fmt.Sprintf("%.0f-%.0f bpm", z.MinBPM, z.MaxBPM)
}

func intensityAssessment(a *HeartRateAnalysis) string {
	var high, low float64
	for _, z := range a.Zones {
		if z.Zone >= 4 {
			high += z.Percentage
		} else if z.Zone <= 2 {
			low += z.Percentage
		}
	}
	switch {
	case high >= 50:
		return "Mostly threshold-and-above effort; plan an easy day next."
	case low >= 70:
		return "Predominantly easy aerobic work."
	}
	return "Mixed-intensity session."
}

func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return "0s"
	}
	s := int(math.Round(seconds))
	h := s / 3600
	m := (s % 3600) / 60
	sec := s % 60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, sec)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, sec)
	}
	return fmt.Sprintf("%ds", sec)
}

func mpsToKmh(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return v * 3.6
}
