package tcxnotes

import "time"

// Column names exposed to reporting collaborators.
const (
	ColumnTimestamp = "timestamp"
	ColumnHeartRate = "heart_rate"
	ColumnZone      = "zone"
	ColumnLatitude  = "latitude"
	ColumnLongitude = "longitude"
)

// Table is the typed, complete output of one extraction. Every row has a
// value for every column.
type Table interface {
	Columns() []string
	Len() int
	Time(i int) time.Time
	// Value returns a numeric column value. ok is false for unknown columns.
	Value(column string, i int) (v float64, ok bool)
}

// HeartRateRow is one parsed heart-rate sample.
type HeartRateRow struct {
	Timestamp time.Time `json:"timestamp"`
	HeartRate float64   `json:"heart_rate"`
	Zone      int       `json:"zone"`
}

// HeartRateTable holds heart-rate rows in document order.
type HeartRateTable struct {
	Source string         `json:"source"`
	Rows   []HeartRateRow `json:"rows"`
	Stats  NormalizeStats `json:"stats"`
}

func (t *HeartRateTable) Columns() []string {
	return []string{ColumnTimestamp, ColumnHeartRate, ColumnZone}
}

func (t *HeartRateTable) Len() int { return len(t.Rows) }

func (t *HeartRateTable) Time(i int) time.Time { return t.Rows[i].Timestamp }

func (t *HeartRateTable) Value(column string, i int) (float64, bool) {
	switch column {
	case ColumnHeartRate:
		return t.Rows[i].HeartRate, true
	case ColumnZone:
		return float64(t.Rows[i].Zone), true
	}
	return 0, false
}

// HeartRates returns the heart_rate column.
func (t *HeartRateTable) HeartRates() []float64 {
	out := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.HeartRate
	}
	return out
}

// PositionRow is one parsed position sample.
type PositionRow struct {
	Timestamp time.Time `json:"timestamp"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
}

// PositionTable holds position rows in document order.
type PositionTable struct {
	Source string         `json:"source"`
	Rows   []PositionRow  `json:"rows"`
	Stats  NormalizeStats `json:"stats"`
}

func (t *PositionTable) Columns() []string {
	return []string{ColumnTimestamp, ColumnLatitude, ColumnLongitude}
}

func (t *PositionTable) Len() int { return len(t.Rows) }

func (t *PositionTable) Time(i int) time.Time { return t.Rows[i].Timestamp }

func (t *PositionTable) Value(column string, i int) (float64, bool) {
	switch column {
	case ColumnLatitude:
		return t.Rows[i].Latitude, true
	case ColumnLongitude:
		return t.Rows[i].Longitude, true
	}
	return 0, false
}
