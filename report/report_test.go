package report

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	tcxnotes "github.com/lucasjlepore/tcx-analyzer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2016, 8, 24, 13, 29, 25, 0, time.UTC)

func table(source string, bpms ...float64) *tcxnotes.HeartRateTable {
	t := &tcxnotes.HeartRateTable{Source: source}
	for i, b := range bpms {
		t.Rows = append(t.Rows, tcxnotes.HeartRateRow{
			Timestamp: start.Add(time.Duration(i) * time.Second),
			HeartRate: b,
			Zone:      tcxnotes.Classify(b),
		})
	}
	return t
}

func TestHistogram(t *testing.T) {
	h := Histogram([]float64{100, 110, 120, 130, 140}, 4)
	require.Len(t, h.Counts, 4)
	require.Len(t, h.Edges, 5)
	assert.Equal(t, []float64{100, 110, 120, 130, 140}, h.Edges)
	assert.Equal(t, []int{1, 1, 1, 2}, h.Counts, "last bin is closed on the right")
	assert.Equal(t, []float64{100, 110, 120, 130}, h.Left())
}

func TestHistogramDefaultsAndDegenerateInput(t *testing.T) {
	h := Histogram([]float64{120, 120, math.NaN()}, 0)
	require.Len(t, h.Counts, DefaultBins)
	total := 0
	for _, c := range h.Counts {
		total += c
	}
	assert.Equal(t, 2, total)
	assert.Equal(t, 119.5, h.Edges[0])
	assert.Equal(t, 120.5, h.Edges[DefaultBins])

	assert.Empty(t, Histogram(nil, 10).Counts)
	assert.Nil(t, Histogram(nil, 10).Left())
}

func TestZoneCounts(t *testing.T) {
	counts := ZoneCounts(table("a.tcx", 100, 100, 150, 165, 170, math.NaN()))
	assert.Equal(t, []ZoneCount{
		{Zone: 0, Count: 1},
		{Zone: 1, Count: 2},
		{Zone: 4, Count: 1},
		{Zone: 5, Count: 2},
	}, counts)
}

func TestHeartRatePanel(t *testing.T) {
	tables := []*tcxnotes.HeartRateTable{table("a.tcx", 100, 120), table("b.tcx", 150)}
	p := HeartRatePanel(tables, Options{})

	assert.Equal(t, PanelFigureSize, p.FigureSize)
	require.Len(t, p.Rows, 2)
	for _, row := range p.Rows {
		require.Len(t, row, 2)
		assert.Equal(t, "line", row[0].Series[0].Kind)
		assert.Equal(t, "bar", row[1].Series[0].Kind)
		assert.Len(t, row[1].Series[0].X, DefaultBins)
	}
	assert.Equal(t, []float64{100, 120}, p.Rows[0][0].Series[0].Y)
	assert.Equal(t, "Heart rate: b.tcx", p.Rows[1][0].Title)

	_, err := json.Marshal(p)
	assert.NoError(t, err)
}

func TestOptionsArePerCall(t *testing.T) {
	hr := table("a.tcx", 100, 120)
	custom := HistogramPlot(hr, Options{FigureSize: [2]float64{8, 3}, Bins: 5})
	assert.Equal(t, [2]float64{8, 3}, custom.FigureSize)
	assert.Len(t, custom.Series[0].Y, 5)

	plain := HistogramPlot(hr, Options{})
	assert.Equal(t, DefaultFigureSize, plain.FigureSize)
	assert.Len(t, plain.Series[0].Y, DefaultBins)
}

func TestScatter(t *testing.T) {
	pos := &tcxnotes.PositionTable{Source: "r.tcx", Rows: []tcxnotes.PositionRow{
		{Timestamp: start, Latitude: 40, Longitude: -74},
		{Timestamp: start.Add(time.Second), Latitude: 40.1, Longitude: -74.1},
	}}
	p := Scatter(pos, DefaultOptions())
	require.Len(t, p.Series, 1)
	assert.Equal(t, "scatter", p.Series[0].Kind)
	assert.Equal(t, []float64{-74, -74.1}, p.Series[0].X)
	assert.Equal(t, []float64{40, 40.1}, p.Series[0].Y)
}

func TestZonePlot(t *testing.T) {
	p := ZonePlot(table("a.tcx", 100, 150, 150), DefaultOptions())
	assert.Equal(t, []float64{1, 4}, p.Series[0].X)
	assert.Equal(t, []float64{1, 2}, p.Series[0].Y)
}
