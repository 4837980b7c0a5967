package tcxnotes

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/tormoder/fit"

	"github.com/lucasjlepore/tcx-analyzer/walker"
)

// Load-time sentinels shared by every extractor.
var (
	ErrMalformedInput = walker.ErrMalformedInput
	ErrNotFound       = walker.ErrNotFound
)

// FITHeartRateExtractor loads heart-rate tables from FIT activity files.
// Records with an invalid timestamp or heart-rate sentinel are dropped.
type FITHeartRateExtractor struct {
	Zones  ZoneConfig
	Logger *slog.Logger
}

func (x *FITHeartRateExtractor) Extract(path string) (Table, error) {
	zones := x.Zones
	if len(zones.Thresholds) == 0 {
		zones = DefaultZones()
	}
	if err := zones.Validate(); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	logger(x.Logger).Info("loading fit file", "path", path, "kind", "heart_rate")

	records, err := decodeFITRecords(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	table := &HeartRateTable{Source: path, Rows: make([]HeartRateRow, 0, len(records))}
	table.Stats.Raw = len(records)
	for _, rec := range records {
		ts := validTimeOrZero(rec.Timestamp)
		hr, ok := extractHeartRate(rec)
		if ts.IsZero() || !ok {
			continue
		}
		table.Rows = append(table.Rows, HeartRateRow{Timestamp: ts, HeartRate: hr, Zone: zones.Classify(hr)})
	}
	table.Stats.Kept = len(table.Rows)
	table.Stats.Dropped = table.Stats.Raw - table.Stats.Kept
	return table, nil
}

// FITPositionExtractor loads position tables from FIT activity files.
type FITPositionExtractor struct {
	Logger *slog.Logger
}

func (x *FITPositionExtractor) Extract(path string) (Table, error) {
	logger(x.Logger).Info("loading fit file", "path", path, "kind", "position")

	records, err := decodeFITRecords(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	table := &PositionTable{Source: path, Rows: make([]PositionRow, 0, len(records))}
	table.Stats.Raw = len(records)
	for _, rec := range records {
		ts := validTimeOrZero(rec.Timestamp)
		if ts.IsZero() || rec.PositionLat.Invalid() || rec.PositionLong.Invalid() {
			continue
		}
		table.Rows = append(table.Rows, PositionRow{
			Timestamp: ts,
			Latitude:  rec.PositionLat.Degrees(),
			Longitude: rec.PositionLong.Degrees(),
		})
	}
	table.Stats.Kept = len(table.Rows)
	table.Stats.Dropped = table.Stats.Raw - table.Stats.Kept
	return table, nil
}

func decodeFITRecords(path string) ([]*fit.RecordMsg, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("open fit file: %w", err)
	}
	defer f.Close()

	decoded, err := fit.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decode fit file: %v", ErrMalformedInput, err)
	}
	activity, err := decoded.Activity()
	if err != nil {
		return nil, fmt.Errorf("activity fit expected: %w", err)
	}
	out := make([]*fit.RecordMsg, 0, len(activity.Records))
	for _, rec := range activity.Records {
		if rec != nil {
			out = append(out, rec)
		}
	}
	return out, nil
}

func extractHeartRate(rec *fit.RecordMsg) (float64, bool) {
	if rec.HeartRate == math.MaxUint8 {
		return 0, false
	}
	return float64(rec.HeartRate), true
}

func validTimeOrZero(t time.Time) time.Time {
	if t.IsZero() || fit.IsBaseTime(t) {
		return time.Time{}
	}
	return t
}
