package pipeline

import (
	"log/slog"
	"time"

	tcxnotes "github.com/lucasjlepore/tcx-analyzer"
	"github.com/lucasjlepore/tcx-analyzer/report"
)

// Options configures the tcx_analyze pipeline.
type Options struct {
	InputPath string // one activity file or a directory of them
	OutDir    string
	Mode      tcxnotes.Mode
	Format    string // csv|parquet|gpx
	Overwrite bool
	Zones     tcxnotes.ZoneConfig
	Report    report.Options
	Batch     tcxnotes.BatchOptions
	Logger    *slog.Logger
}

// Result returns generated output paths.
type Result struct {
	RunID        string      `json:"run_id"`
	OutputDir    string      `json:"output_dir"`
	ManifestPath string      `json:"manifest_path"`
	PlotsPath    string      `json:"plots_path,omitempty"`
	Files        []FileEntry `json:"files"`
}

// Loaded returns the entries that produced a table.
func (r *Result) Loaded() []FileEntry {
	var out []FileEntry
	for _, f := range r.Files {
		if f.Status == StatusOK {
			out = append(out, f)
		}
	}
	return out
}

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Manifest describes one pipeline run.
type Manifest struct {
	RunID       string        `json:"run_id"`
	GeneratedAt time.Time     `json:"generated_at"`
	Input       string        `json:"input"`
	Mode        tcxnotes.Mode `json:"mode"`
	Format      string        `json:"format"`
	Zones       []float64     `json:"zone_thresholds,omitempty"`
	Files       []FileEntry   `json:"files"`
}

// FileEntry is the per-source outcome of a run.
type FileEntry struct {
	Source      string `json:"source"`
	Status      string `json:"status"` // ok|failed
	Error       string `json:"error,omitempty"`
	TablePath   string `json:"table_path,omitempty"`
	SummaryPath string `json:"summary_path,omitempty"`
	NotesPath   string `json:"notes_path,omitempty"`
	Rows        int    `json:"rows"`
	Dropped     int    `json:"dropped"`
}

// PlotsFile is the set of plot descriptions handed to a renderer.
type PlotsFile struct {
	Panel *report.Panel `json:"panel,omitempty"`
	Plots []report.Plot `json:"plots"`
}
