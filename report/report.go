// Package report builds plot-ready series from extracted tables. Builders
// never touch shared rendering state: every call takes its Options.
package report

import (
	"fmt"
	"math"
	"time"

	tcxnotes "github.com/lucasjlepore/tcx-analyzer"
)

const (
	DefaultBins = 40
)

var (
	DefaultFigureSize = [2]float64{5, 5}
	PanelFigureSize   = [2]float64{12, 24}
)

// Options configures one rendering call.
type Options struct {
	FigureSize [2]float64 `json:"figure_size" yaml:"figure_size"`
	Bins       int        `json:"bins" yaml:"bins"`
}

// DefaultOptions returns the single-plot defaults.
func DefaultOptions() Options {
	return Options{FigureSize: DefaultFigureSize, Bins: DefaultBins}
}

func (o Options) withDefaults(size [2]float64) Options {
	if o.FigureSize[0] <= 0 || o.FigureSize[1] <= 0 {
		o.FigureSize = size
	}
	if o.Bins <= 0 {
		o.Bins = DefaultBins
	}
	return o
}

// HistogramData is an equal-width histogram. Edges has len(Counts)+1 entries.
type HistogramData struct {
	Edges  []float64 `json:"edges"`
	Counts []int     `json:"counts"`
}

// Left returns the left edge of every bin.
func (h HistogramData) Left() []float64 {
	if len(h.Edges) == 0 {
		return nil
	}
	return h.Edges[:len(h.Edges)-1]
}

// Histogram bins values into bins equal-width buckets spanning their range.
// The last bin is closed on the right. Non-finite values are ignored.
func Histogram(values []float64, bins int) HistogramData {
	if bins <= 0 {
		bins = DefaultBins
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.IsInf(lo, 1) {
		return HistogramData{}
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	width := (hi - lo) / float64(bins)
	h := HistogramData{Edges: make([]float64, bins+1), Counts: make([]int, bins)}
	for i := range h.Edges {
		h.Edges[i] = lo + float64(i)*width
	}
	h.Edges[bins] = hi
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		idx := int((v - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		h.Counts[idx]++
	}
	return h
}

// ZoneCount is the number of samples in one zone.
type ZoneCount struct {
	Zone  int `json:"zone"`
	Count int `json:"count"`
}

// ZoneCounts counts samples per zone, ordered by zone. Zones with no samples
// are omitted.
func ZoneCounts(table *tcxnotes.HeartRateTable) []ZoneCount {
	counts := map[int]int{}
	maxZone := 0
	for _, r := range table.Rows {
		counts[r.Zone]++
		maxZone = max(maxZone, r.Zone)
	}
	out := make([]ZoneCount, 0, len(counts))
	for z := 0; z <= maxZone; z++ {
		if c := counts[z]; c > 0 {
			out = append(out, ZoneCount{Zone: z, Count: c})
		}
	}
	return out
}

// Series is an x/y line or scatter series.
type Series struct {
	Kind string      `json:"kind"` // line|scatter|bar
	X    []float64   `json:"x,omitempty"`
	T    []time.Time `json:"t,omitempty"`
	Y    []float64   `json:"y"`
}

// Plot is one rendered figure description.
type Plot struct {
	Title      string     `json:"title"`
	FigureSize [2]float64 `json:"figure_size"`
	Series     []Series   `json:"series"`
}

// HeartRatePlot is the time series of heart rate.
func HeartRatePlot(table *tcxnotes.HeartRateTable, opts Options) Plot {
	opts = opts.withDefaults(DefaultFigureSize)
	s := Series{Kind: "line", T: make([]time.Time, table.Len()), Y: table.HeartRates()}
	for i, r := range table.Rows {
		s.T[i] = r.Timestamp
	}
	return Plot{Title: fmt.Sprintf("Heart rate: %s", table.Source), FigureSize: opts.FigureSize, Series: []Series{s}}
}

// HistogramPlot is the heart-rate histogram as a bar series.
func HistogramPlot(table *tcxnotes.HeartRateTable, opts Options) Plot {
	opts = opts.withDefaults(DefaultFigureSize)
	h := Histogram(table.HeartRates(), opts.Bins)
	y := make([]float64, len(h.Counts))
	for i, c := range h.Counts {
		y[i] = float64(c)
	}
	return Plot{
		Title:      fmt.Sprintf("Heart rate histogram: %s", table.Source),
		FigureSize: opts.FigureSize,
		Series:     []Series{{Kind: "bar", X: h.Left(), Y: y}},
	}
}

// ZonePlot is the per-zone sample count as a bar series.
func ZonePlot(table *tcxnotes.HeartRateTable, opts Options) Plot {
	opts = opts.withDefaults(DefaultFigureSize)
	s := Series{Kind: "bar"}
	for _, zc := range ZoneCounts(table) {
		s.X = append(s.X, float64(zc.Zone))
		s.Y = append(s.Y, float64(zc.Count))
	}
	return Plot{Title: fmt.Sprintf("Heart rate zones: %s", table.Source), FigureSize: opts.FigureSize, Series: []Series{s}}
}

// Scatter plots longitude against latitude.
func Scatter(table *tcxnotes.PositionTable, opts Options) Plot {
	opts = opts.withDefaults(DefaultFigureSize)
	s := Series{Kind: "scatter", X: make([]float64, table.Len()), Y: make([]float64, table.Len())}
	for i, r := range table.Rows {
		s.X[i] = r.Longitude
		s.Y[i] = r.Latitude
	}
	return Plot{Title: fmt.Sprintf("Track: %s", table.Source), FigureSize: opts.FigureSize, Series: []Series{s}}
}

// Panel is a grid of plots sharing one figure size. Columns share axes.
type Panel struct {
	FigureSize [2]float64 `json:"figure_size"`
	Rows       [][]Plot   `json:"rows"`
}

// HeartRatePanel lays out one row per table: the time series on the left and
// its histogram on the right.
func HeartRatePanel(tables []*tcxnotes.HeartRateTable, opts Options) Panel {
	opts = opts.withDefaults(PanelFigureSize)
	p := Panel{FigureSize: opts.FigureSize, Rows: make([][]Plot, 0, len(tables))}
	for _, t := range tables {
		p.Rows = append(p.Rows, []Plot{HeartRatePlot(t, opts), HistogramPlot(t, opts)})
	}
	return p
}
