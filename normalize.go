package tcxnotes

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ColumnKind is the type a raw text field is coerced to.
type ColumnKind int

const (
	KindTime ColumnKind = iota
	KindFloat
)

// ColumnSpec names one raw field and its target type.
type ColumnSpec struct {
	Name string
	Kind ColumnKind
}

// Schema describes the raw fields of a sample, in order. The first column
// must be the timestamp; the rest are numeric.
type Schema []ColumnSpec

var (
	HeartRateSchema = Schema{
		{Name: ColumnTimestamp, Kind: KindTime},
		{Name: ColumnHeartRate, Kind: KindFloat},
	}
	PositionSchema = Schema{
		{Name: ColumnTimestamp, Kind: KindTime},
		{Name: ColumnLatitude, Kind: KindFloat},
		{Name: ColumnLongitude, Kind: KindFloat},
	}
)

// NormalizeStats counts raw samples and the rows that survived parsing.
type NormalizeStats struct {
	Raw     int `json:"raw"`
	Kept    int `json:"kept"`
	Dropped int `json:"dropped"`
}

// Record is one fully parsed row: the timestamp and the numeric columns in
// schema order.
type Record struct {
	Timestamp time.Time
	Values    []float64
}

func (s Schema) validate() error {
	if len(s) == 0 || s[0].Kind != KindTime {
		return fmt.Errorf("schema must start with a time column")
	}
	for _, c := range s[1:] {
		if c.Kind != KindFloat {
			return fmt.Errorf("column %q: only the first column may be a time", c.Name)
		}
	}
	return nil
}

// Normalize parses raw text fields according to schema. A sample with a
// missing or unparseable field is dropped; order is preserved.
func Normalize(samples [][]*string, schema Schema) ([]Record, NormalizeStats, error) {
	if err := schema.validate(); err != nil {
		return nil, NormalizeStats{}, err
	}
	stats := NormalizeStats{Raw: len(samples)}
	out := make([]Record, 0, len(samples))
	for i, fields := range samples {
		if len(fields) != len(schema) {
			return nil, stats, fmt.Errorf("sample %d has %d fields, schema has %d", i, len(fields), len(schema))
		}
		rec, ok := parseRecord(fields, schema)
		if !ok {
			stats.Dropped++
			continue
		}
		out = append(out, rec)
	}
	stats.Kept = len(out)
	return out, stats, nil
}

func parseRecord(fields []*string, schema Schema) (Record, bool) {
	if fields[0] == nil {
		return Record{}, false
	}
	ts, err := ParseTimestamp(*fields[0])
	if err != nil {
		return Record{}, false
	}
	rec := Record{Timestamp: ts, Values: make([]float64, 0, len(schema)-1)}
	for _, f := range fields[1:] {
		if f == nil {
			return Record{}, false
		}
		v, err := ParseNumber(*f)
		if err != nil {
			return Record{}, false
		}
		rec.Values = append(rec.Values, v)
	}
	return rec, true
}

// ParseTimestamp parses an RFC 3339 instant, falling back to lenient
// formats interpreted as UTC when no offset is given. The result is in UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts.UTC(), nil
	}
	ts, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return ts.UTC(), nil
}

// ParseNumber parses a finite decimal number.
func ParseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if !isFinite(v) {
		return 0, fmt.Errorf("non-finite value %q", s)
	}
	return v, nil
}

// NormalizeHeartRate builds a heart-rate table and classifies each row.
func NormalizeHeartRate(raw []RawHeartRate, zones ZoneConfig) (*HeartRateTable, error) {
	samples := make([][]*string, len(raw))
	for i, r := range raw {
		samples[i] = []*string{r.Time, r.HeartRate}
	}
	records, stats, err := Normalize(samples, HeartRateSchema)
	if err != nil {
		return nil, err
	}
	table := &HeartRateTable{Rows: make([]HeartRateRow, len(records)), Stats: stats}
	for i, rec := range records {
		table.Rows[i] = HeartRateRow{
			Timestamp: rec.Timestamp,
			HeartRate: rec.Values[0],
			Zone:      zones.Classify(rec.Values[0]),
		}
	}
	return table, nil
}

// NormalizePosition builds a position table.
func NormalizePosition(raw []RawPosition) (*PositionTable, error) {
	samples := make([][]*string, len(raw))
	for i, r := range raw {
		samples[i] = []*string{r.Time, r.Latitude, r.Longitude}
	}
	records, stats, err := Normalize(samples, PositionSchema)
	if err != nil {
		return nil, err
	}
	table := &PositionTable{Rows: make([]PositionRow, len(records)), Stats: stats}
	for i, rec := range records {
		table.Rows[i] = PositionRow{
			Timestamp: rec.Timestamp,
			Latitude:  rec.Values[0],
			Longitude: rec.Values[1],
		}
	}
	return table, nil
}
