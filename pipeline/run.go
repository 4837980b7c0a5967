package pipeline

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	tcxnotes "github.com/lucasjlepore/tcx-analyzer"
	"github.com/lucasjlepore/tcx-analyzer/report"
)

// Run extracts every input file and writes its table, summary, notes, the
// shared plot descriptions, and a manifest into OutDir.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if strings.TrimSpace(opts.InputPath) == "" {
		return nil, fmt.Errorf("input path is required")
	}
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	mode, err := tcxnotes.ParseMode(string(opts.Mode))
	if err != nil {
		return nil, err
	}
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "csv"
	}
	switch format {
	case "csv", "parquet":
	case "gpx":
		if mode != tcxnotes.ModePosition {
			return nil, fmt.Errorf("format gpx requires mode %s", tcxnotes.ModePosition)
		}
	default:
		return nil, fmt.Errorf("unsupported format %q (expected csv|parquet|gpx)", format)
	}
	zones := opts.Zones
	if len(zones.Thresholds) == 0 {
		zones = tcxnotes.DefaultZones()
	}
	if err := zones.Validate(); err != nil {
		return nil, err
	}

	info, err := os.Stat(opts.InputPath)
	if err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}
	if err := ensureOutputDir(opts.OutDir, opts.Overwrite); err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	batch := opts.Batch
	batch.Logger = log
	factory := tcxnotes.ExtractorFor(mode, zones, log)

	var results []tcxnotes.LoadResult
	if info.IsDir() {
		results, err = tcxnotes.LoadDirectory(ctx, opts.InputPath, factory, batch)
	} else {
		results, err = tcxnotes.LoadFiles(ctx, []string{opts.InputPath}, factory, batch)
	}
	if err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	manifest := Manifest{
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
		Input:       opts.InputPath,
		Mode:        mode,
		Format:      format,
	}
	if mode == tcxnotes.ModeHeartRate {
		manifest.Zones = zones.Thresholds
	}

	var heartRates []*tcxnotes.HeartRateTable
	plots := PlotsFile{}
	for _, res := range results {
		entry := FileEntry{Source: res.Path}
		if res.Err != nil {
			entry.Status = StatusFailed
			entry.Error = res.Err.Error()
			manifest.Files = append(manifest.Files, entry)
			continue
		}

		stem := outputStem(res.Path)
		switch t := res.Table.(type) {
		case *tcxnotes.HeartRateTable:
			entry.Rows, entry.Dropped = t.Len(), t.Stats.Dropped
			if err := writeHeartRateOutputs(opts.OutDir, stem, format, t, zones, &entry); err != nil {
				return nil, fmt.Errorf("write outputs for %s: %w", res.Path, err)
			}
			heartRates = append(heartRates, t)
			plots.Plots = append(plots.Plots, report.ZonePlot(t, opts.Report))
		case *tcxnotes.PositionTable:
			entry.Rows, entry.Dropped = t.Len(), t.Stats.Dropped
			if err := writePositionOutputs(opts.OutDir, stem, format, t, &entry); err != nil {
				return nil, fmt.Errorf("write outputs for %s: %w", res.Path, err)
			}
			plots.Plots = append(plots.Plots, report.Scatter(t, opts.Report))
		default:
			return nil, fmt.Errorf("unexpected table type %T for %s", res.Table, res.Path)
		}
		entry.Status = StatusOK
		manifest.Files = append(manifest.Files, entry)
	}

	result := &Result{
		RunID:        runID,
		OutputDir:    opts.OutDir,
		ManifestPath: filepath.Join(opts.OutDir, "manifest.json"),
		Files:        manifest.Files,
	}
	if len(heartRates) > 0 {
		panel := report.HeartRatePanel(heartRates, report.Options{Bins: opts.Report.Bins})
		plots.Panel = &panel
	}
	if len(plots.Plots) > 0 {
		result.PlotsPath = filepath.Join(opts.OutDir, "plots.json")
		if err := writeJSON(result.PlotsPath, plots); err != nil {
			return nil, fmt.Errorf("write plots.json: %w", err)
		}
	}
	if err := writeJSON(result.ManifestPath, manifest); err != nil {
		return nil, fmt.Errorf("write manifest.json: %w", err)
	}

	log.Info("pipeline finished", "run_id", runID, "files", len(results), "loaded", len(result.Loaded()))
	return result, nil
}

func writeHeartRateOutputs(dir, stem, format string, t *tcxnotes.HeartRateTable, zones tcxnotes.ZoneConfig, entry *FileEntry) error {
	entry.TablePath = filepath.Join(dir, stem+".heart_rate."+format)
	var err error
	switch format {
	case "csv":
		err = writeHeartRateCSV(entry.TablePath, t)
	case "parquet":
		err = writeHeartRateParquet(entry.TablePath, t)
	}
	if err != nil {
		return fmt.Errorf("write heart-rate table: %w", err)
	}

	analysis := tcxnotes.AnalyzeHeartRate(t, zones)
	entry.SummaryPath = filepath.Join(dir, stem+".summary.json")
	if err := writeJSON(entry.SummaryPath, analysis); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	entry.NotesPath = filepath.Join(dir, stem+".notes.txt")
	return os.WriteFile(entry.NotesPath, []byte(tcxnotes.BuildHeartRateNotes(analysis)+"\n"), 0o644)
}

func writePositionOutputs(dir, stem, format string, t *tcxnotes.PositionTable, entry *FileEntry) error {
	entry.TablePath = filepath.Join(dir, stem+".position."+format)
	var err error
	switch format {
	case "csv":
		err = writePositionCSV(entry.TablePath, t)
	case "parquet":
		err = writePositionParquet(entry.TablePath, t)
	case "gpx":
		var data []byte
		if data, err = tcxnotes.PositionGPX(t, stem); err == nil {
			err = os.WriteFile(entry.TablePath, data, 0o644)
		}
	}
	if err != nil {
		return fmt.Errorf("write position table: %w", err)
	}

	analysis := tcxnotes.AnalyzePosition(t)
	entry.SummaryPath = filepath.Join(dir, stem+".summary.json")
	if err := writeJSON(entry.SummaryPath, analysis); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	entry.NotesPath = filepath.Join(dir, stem+".notes.txt")
	return os.WriteFile(entry.NotesPath, []byte(tcxnotes.BuildPositionNotes(analysis)+"\n"), 0o644)
}

// outputStem keeps the source extension so a.tcx and a.fit do not collide.
func outputStem(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if ext == "" {
		return stem
	}
	return stem + "_" + strings.ToLower(strings.TrimPrefix(ext, "."))
}

func ensureOutputDir(path string, overwrite bool) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("read output directory: %w", err)
	}
	if len(entries) > 0 && !overwrite {
		return fmt.Errorf("output directory is not empty: %s (set overwrite=true to allow)", path)
	}
	return nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeHeartRateCSV(path string, t *tcxnotes.HeartRateTable) error {
	rows := make([][]string, 0, t.Len())
	for _, r := range t.Rows {
		rows = append(rows, []string{
			formatTimestamp(r.Timestamp),
			formatFloat(r.HeartRate),
			strconv.Itoa(r.Zone),
		})
	}
	return writeCSV(path, t.Columns(), rows)
}

func writePositionCSV(path string, t *tcxnotes.PositionTable) error {
	rows := make([][]string, 0, t.Len())
	for _, r := range t.Rows {
		rows = append(rows, []string{
			formatTimestamp(r.Timestamp),
			formatFloat(r.Latitude),
			formatFloat(r.Longitude),
		})
	}
	return writeCSV(path, t.Columns(), rows)
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return w.Error()
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
