package tcxnotes

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/lucasjlepore/tcx-analyzer/walker"
)

// Namespace is the Garmin Training Center Database v2 namespace.
const Namespace = "http://www.garmin.com/xmlschemas/TrainingCenterDatabase/v2"

const (
	tagTrackpoint = "Trackpoint"
	tagTime       = "Time"
	tagHeartRate  = "HeartRateBpm"
	tagValue      = "Value"
	tagPosition   = "Position"
	tagLatitude   = "LatitudeDegrees"
	tagLongitude  = "LongitudeDegrees"
)

var (
	heartRateTags = tcxTags(tagTrackpoint, tagTime, tagHeartRate, tagValue)
	positionTags  = tcxTags(tagTrackpoint, tagTime, tagPosition, tagLatitude, tagLongitude)
)

func tcxTags(locals ...string) []xml.Name {
	out := make([]xml.Name, len(locals))
	for i, l := range locals {
		out[i] = xml.Name{Space: Namespace, Local: l}
	}
	return out
}

// Extractor loads one activity file into a table.
type Extractor interface {
	Extract(path string) (Table, error)
}

// LoadError reports a file that could not be loaded at all.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// RawHeartRate is an unparsed heart-rate sample. A nil field was absent or empty.
type RawHeartRate struct {
	Time      *string
	HeartRate *string
}

// RawPosition is an unparsed position sample. A nil field was absent or empty.
type RawPosition struct {
	Time      *string
	Latitude  *string
	Longitude *string
}

func textOf(el walker.Element) *string {
	if !el.HasText {
		return nil
	}
	s := el.Text
	return &s
}

// ScanHeartRate pulls heart-rate samples from w. Each HeartRateBpm yields one
// sample paired with the Time seen since the enclosing Trackpoint began.
// A Time from an earlier Trackpoint is not carried over.
func ScanHeartRate(w *walker.Walker) ([]RawHeartRate, error) {
	var (
		out     []RawHeartRate
		pending *string
	)
	for {
		el, err := w.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		switch el.Name.Local {
		case tagTrackpoint:
			pending = nil
		case tagTime:
			pending = textOf(el)
		case tagHeartRate:
			sample := RawHeartRate{Time: pending}
			value, ok, err := w.Expect(tagValue)
			if err != nil {
				return nil, err
			}
			if ok {
				sample.HeartRate = textOf(value)
			}
			out = append(out, sample)
		}
	}
}

// ScanPosition pulls position samples from w. A sample is emitted for each
// Time immediately followed by Position; LatitudeDegrees and LongitudeDegrees
// must follow in that order or the field is recorded as missing.
func ScanPosition(w *walker.Walker) ([]RawPosition, error) {
	var out []RawPosition
	for {
		el, err := w.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		if !el.Is(tagTime) {
			continue
		}
		sample := RawPosition{Time: textOf(el)}
		if _, ok, err := w.Expect(tagPosition); err != nil {
			return nil, err
		} else if !ok {
			continue
		}
		lat, ok, err := w.Expect(tagLatitude)
		if err != nil {
			return nil, err
		}
		if ok {
			sample.Latitude = textOf(lat)
		}
		lon, ok, err := w.Expect(tagLongitude)
		if err != nil {
			return nil, err
		}
		if ok {
			sample.Longitude = textOf(lon)
		}
		out = append(out, sample)
	}
}

// HeartRateExtractor loads (timestamp, heart_rate, zone) tables from TCX files.
type HeartRateExtractor struct {
	Zones  ZoneConfig
	Logger *slog.Logger
}

// NewHeartRateExtractor returns an extractor using the default zones.
func NewHeartRateExtractor() *HeartRateExtractor {
	return &HeartRateExtractor{Zones: DefaultZones()}
}

func (x *HeartRateExtractor) Extract(path string) (Table, error) {
	t, err := x.ExtractHeartRate(path)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ExtractHeartRate is Extract with a concrete result type.
func (x *HeartRateExtractor) ExtractHeartRate(path string) (*HeartRateTable, error) {
	zones := x.Zones
	if len(zones.Thresholds) == 0 {
		zones = DefaultZones()
	}
	if err := zones.Validate(); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	logger(x.Logger).Info("loading tcx file", "path", path, "kind", "heart_rate")

	raw, err := scanFile(path, heartRateTags, ScanHeartRate)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	table, err := NormalizeHeartRate(raw, zones)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	table.Source = path
	return table, nil
}

// PositionExtractor loads (timestamp, latitude, longitude) tables from TCX files.
type PositionExtractor struct {
	Logger *slog.Logger
}

func (x *PositionExtractor) Extract(path string) (Table, error) {
	t, err := x.ExtractPosition(path)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ExtractPosition is Extract with a concrete result type.
func (x *PositionExtractor) ExtractPosition(path string) (*PositionTable, error) {
	logger(x.Logger).Info("loading tcx file", "path", path, "kind", "position")

	raw, err := scanFile(path, positionTags, ScanPosition)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	table, err := NormalizePosition(raw)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	table.Source = path
	return table, nil
}

func scanFile[T any](path string, tags []xml.Name, scan func(*walker.Walker) ([]T, error)) ([]T, error) {
	w, err := walker.Open(path, tags...)
	if err != nil {
		return nil, err
	}
	defer w.Close()
	return scan(w)
}

func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
