package tcxnotes

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// DefaultExtension is the file suffix picked up by directory loads.
const DefaultExtension = ".tcx"

// BatchOptions controls directory loading.
type BatchOptions struct {
	// Extension filters directory entries (case-insensitive). Defaults to .tcx.
	Extension string

	// SkipFailures records per-file load errors instead of aborting the batch.
	SkipFailures bool

	// Workers bounds concurrent loads. Defaults to runtime.NumCPU().
	Workers int

	Logger *slog.Logger
}

// LoadResult is the outcome for one file in a batch.
type LoadResult struct {
	Path  string
	Table Table
	Err   error
}

// ListFiles returns the regular files in dir whose name ends in ext, sorted.
// Subdirectories are not descended into.
func ListFiles(dir, ext string) ([]string, error) {
	if ext == "" {
		ext = DefaultExtension
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}
	ext = strings.ToLower(ext)
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ext) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// LoadFiles runs one extraction per path. Each load is independent, so loads
// run concurrently; results keep the order of paths.
func LoadFiles(ctx context.Context, paths []string, factory func(path string) Extractor, opts BatchOptions) ([]LoadResult, error) {
	log := logger(opts.Logger)
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]LoadResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = LoadResult{Path: path, Err: err}
				return err
			}
			table, err := factory(path).Extract(path)
			results[i] = LoadResult{Path: path, Table: table, Err: err}
			if err == nil {
				return nil
			}
			if opts.SkipFailures {
				log.Warn("skipping file", "path", path, "error", err)
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// LoadDirectory loads every matching file in dir with the extractor chosen by
// factory.
func LoadDirectory(ctx context.Context, dir string, factory func(path string) Extractor, opts BatchOptions) ([]LoadResult, error) {
	paths, err := ListFiles(dir, opts.Extension)
	if err != nil {
		return nil, err
	}
	logger(opts.Logger).Info("loading directory", "dir", dir, "files", len(paths))
	return LoadFiles(ctx, paths, factory, opts)
}

// Loaded returns the tables of the successful results, in order.
func Loaded(results []LoadResult) []Table {
	out := make([]Table, 0, len(results))
	for _, r := range results {
		if r.Err == nil && r.Table != nil {
			out = append(out, r.Table)
		}
	}
	return out
}

// Failed returns the results that did not load.
func Failed(results []LoadResult) []LoadResult {
	var out []LoadResult
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

// Mode selects which series an extractor produces.
type Mode string

const (
	ModeHeartRate Mode = "heart_rate"
	ModePosition  Mode = "position"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeHeartRate, ModePosition:
		return m, nil
	case "":
		return ModeHeartRate, nil
	}
	return "", fmt.Errorf("unsupported mode %q (expected heart_rate|position)", s)
}

// ExtractorFor returns a factory that picks the extractor by file extension:
// .fit files are decoded as FIT, .gpx as GPX (position only), anything else as TCX.
func ExtractorFor(mode Mode, zones ZoneConfig, log *slog.Logger) func(path string) Extractor {
	return func(path string) Extractor {
		ext := strings.ToLower(filepath.Ext(path))
		switch mode {
		case ModePosition:
			switch ext {
			case ".fit":
				return &FITPositionExtractor{Logger: log}
			case ".gpx":
				return &GPXPositionExtractor{Logger: log}
			}
			return &PositionExtractor{Logger: log}
		default:
			if ext == ".fit" {
				return &FITHeartRateExtractor{Zones: zones, Logger: log}
			}
			return &HeartRateExtractor{Zones: zones, Logger: log}
		}
	}
}
