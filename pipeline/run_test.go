package pipeline

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"

	tcxnotes "github.com/lucasjlepore/tcx-analyzer"
)

func activity(points ...string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>` +
		`<TrainingCenterDatabase xmlns="` + tcxnotes.Namespace + `"><Activities><Activity Sport="Running">` +
		`<Lap StartTime="2020-05-01T07:00:00Z"><Track>` + strings.Join(points, "") +
		`</Track></Lap></Activity></Activities></TrainingCenterDatabase>`
}

func point(sec, bpm int, lat, lon float64) string {
	return fmt.Sprintf(`<Trackpoint><Time>2020-05-01T07:00:%02dZ</Time>`+
		`<Position><LatitudeDegrees>%.6f</LatitudeDegrees><LongitudeDegrees>%.6f</LongitudeDegrees></Position>`+
		`<HeartRateBpm><Value>%d</Value></HeartRateBpm></Trackpoint>`, sec, lat, lon, bpm)
}

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func readManifest(t *testing.T, path string) Manifest {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var m Manifest
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestRunHeartRateDirectory(t *testing.T) {
	in := t.TempDir()
	writeInput(t, in, "easy.tcx", activity(point(0, 100, 40, -74), point(1, 105, 40.0001, -74)))
	writeInput(t, in, "hard.tcx", activity(point(0, 150, 40, -74), point(1, 165, 40.0001, -74), point(2, 171, 40.0002, -74)))
	writeInput(t, in, "broken.tcx", `<TrainingCenterDatabase xmlns="`+tcxnotes.Namespace+`"><Activities>`)

	out := filepath.Join(t.TempDir(), "out")
	res, err := Run(context.Background(), Options{
		InputPath: in,
		OutDir:    out,
		Format:    "csv",
		Batch:     tcxnotes.BatchOptions{SkipFailures: true, Workers: 2},
	})
	require.NoError(t, err)

	_, err = uuid.Parse(res.RunID)
	assert.NoError(t, err, "run id is a uuid")
	require.Len(t, res.Files, 3)
	assert.Len(t, res.Loaded(), 2)

	m := readManifest(t, res.ManifestPath)
	assert.Equal(t, res.RunID, m.RunID)
	assert.Equal(t, tcxnotes.ModeHeartRate, m.Mode)
	assert.Equal(t, []float64{110, 130, 145, 165}, m.Zones)
	require.Len(t, m.Files, 3)
	assert.Equal(t, StatusFailed, m.Files[0].Status)
	assert.Contains(t, m.Files[0].Error, "malformed")

	hard := m.Files[2]
	assert.Equal(t, StatusOK, hard.Status)
	assert.Equal(t, 3, hard.Rows)
	assert.Equal(t, filepath.Join(out, "hard_tcx.heart_rate.csv"), hard.TablePath)

	f, err := os.Open(hard.TablePath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"timestamp", "heart_rate", "zone"},
		{"2020-05-01T07:00:00Z", "150", "4"},
		{"2020-05-01T07:00:01Z", "165", "5"},
		{"2020-05-01T07:00:02Z", "171", "5"},
	}, rows)

	notes, err := os.ReadFile(hard.NotesPath)
	require.NoError(t, err)
	assert.Contains(t, string(notes), "HR 162 avg / 150 min / 171 max bpm")

	var plots PlotsFile
	data, err := os.ReadFile(res.PlotsPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &plots))
	require.NotNil(t, plots.Panel)
	assert.Len(t, plots.Panel.Rows, 2)
	assert.Equal(t, [2]float64{12, 24}, plots.Panel.FigureSize)
	assert.Len(t, plots.Plots, 2)
}

func TestRunPositionParquet(t *testing.T) {
	in := writeInput(t, t.TempDir(), "route.tcx", activity(point(0, 120, 40, -74), point(1, 121, 40.001, -74.001)))
	out := t.TempDir()

	res, err := Run(context.Background(), Options{
		InputPath: in,
		OutDir:    out,
		Mode:      tcxnotes.ModePosition,
		Format:    "parquet",
	})
	require.NoError(t, err)
	require.Len(t, res.Loaded(), 1)

	fr, err := local.NewLocalFileReader(res.Files[0].TablePath)
	require.NoError(t, err)
	defer fr.Close()
	pr, err := reader.NewParquetReader(fr, new(positionParquetRow), 1)
	require.NoError(t, err)
	defer pr.ReadStop()

	require.EqualValues(t, 2, pr.GetNumRows())
	rows := make([]positionParquetRow, 2)
	require.NoError(t, pr.Read(&rows))
	assert.Equal(t, "2020-05-01T07:00:01Z", rows[1].Timestamp)
	assert.InDelta(t, 40.001, rows[1].Latitude, 1e-9)
	assert.InDelta(t, -74.001, rows[1].Longitude, 1e-9)
}

func TestRunPositionGPX(t *testing.T) {
	in := writeInput(t, t.TempDir(), "route.tcx", activity(point(0, 120, 40, -74), point(1, 121, 40.001, -74.001)))
	res, err := Run(context.Background(), Options{
		InputPath: in,
		OutDir:    t.TempDir(),
		Mode:      tcxnotes.ModePosition,
		Format:    "gpx",
	})
	require.NoError(t, err)

	gpxPath := res.Files[0].TablePath
	assert.True(t, strings.HasSuffix(gpxPath, "route_tcx.position.gpx"))
	table, err := (&tcxnotes.GPXPositionExtractor{}).Extract(gpxPath)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
}

func TestRunRejectsBadOptions(t *testing.T) {
	in := writeInput(t, t.TempDir(), "a.tcx", activity(point(0, 120, 40, -74)))

	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"missing input", Options{OutDir: t.TempDir()}, "input path is required"},
		{"missing out", Options{InputPath: in}, "output directory is required"},
		{"bad format", Options{InputPath: in, OutDir: t.TempDir(), Format: "xlsx"}, "unsupported format"},
		{"gpx needs position", Options{InputPath: in, OutDir: t.TempDir(), Format: "gpx"}, "requires mode position"},
		{"bad zones", Options{InputPath: in, OutDir: t.TempDir(), Zones: tcxnotes.ZoneConfig{Thresholds: []float64{150, 140}}}, "ascending"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(context.Background(), tt.opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRunRefusesNonEmptyOutput(t *testing.T) {
	in := writeInput(t, t.TempDir(), "a.tcx", activity(point(0, 120, 40, -74)))
	out := t.TempDir()
	writeInput(t, out, "keep.txt", "x")

	_, err := Run(context.Background(), Options{InputPath: in, OutDir: out})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not empty")

	_, err = Run(context.Background(), Options{InputPath: in, OutDir: out, Overwrite: true})
	assert.NoError(t, err)
}

func TestRunAbortsOnFailureWithoutSkip(t *testing.T) {
	in := t.TempDir()
	writeInput(t, in, "broken.tcx", "<TrainingCenterDatabase")
	_, err := Run(context.Background(), Options{InputPath: in, OutDir: t.TempDir()})
	require.Error(t, err)
	assert.ErrorIs(t, err, tcxnotes.ErrMalformedInput)
}
