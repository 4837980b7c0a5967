package tcxnotes

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/tkrajina/gpxgo/gpx"
)

// GPXPositionExtractor loads position tables from GPX tracks. Points without
// a timestamp are dropped.
type GPXPositionExtractor struct {
	Logger *slog.Logger
}

func (x *GPXPositionExtractor) Extract(path string) (Table, error) {
	logger(x.Logger).Info("loading gpx file", "path", path, "kind", "position")

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("%w: %s", ErrNotFound, path)
		} else {
			err = fmt.Errorf("read gpx file: %w", err)
		}
		return nil, &LoadError{Path: path, Err: err}
	}
	doc, err := gpx.ParseBytes(data)
	if err != nil {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("%w: parse gpx: %v", ErrMalformedInput, err)}
	}

	table := &PositionTable{Source: path}
	for _, track := range doc.Tracks {
		for _, segment := range track.Segments {
			for _, point := range segment.Points {
				table.Stats.Raw++
				if point.Timestamp.IsZero() || !isFinite(point.Latitude) || !isFinite(point.Longitude) {
					continue
				}
				table.Rows = append(table.Rows, PositionRow{
					Timestamp: point.Timestamp,
					Latitude:  point.Latitude,
					Longitude: point.Longitude,
				})
			}
		}
	}
	table.Stats.Kept = len(table.Rows)
	table.Stats.Dropped = table.Stats.Raw - table.Stats.Kept
	return table, nil
}

// PositionGPX renders a position table as a single-track GPX 1.1 document.
func PositionGPX(table *PositionTable, name string) ([]byte, error) {
	segment := gpx.GPXTrackSegment{Points: make([]gpx.GPXPoint, 0, len(table.Rows))}
	for _, row := range table.Rows {
		segment.Points = append(segment.Points, gpx.GPXPoint{
			Point:     gpx.Point{Latitude: row.Latitude, Longitude: row.Longitude},
			Timestamp: row.Timestamp.UTC(),
		})
	}
	doc := gpx.GPX{
		Version: "1.1",
		Creator: "tcx-analyzer",
		Tracks:  []gpx.GPXTrack{{Name: name, Segments: []gpx.GPXTrackSegment{segment}}},
	}
	return doc.ToXml(gpx.ToXmlParams{Version: "1.1", Indent: true})
}
