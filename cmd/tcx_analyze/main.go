package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	tcxnotes "github.com/lucasjlepore/tcx-analyzer"
	"github.com/lucasjlepore/tcx-analyzer/config"
	"github.com/lucasjlepore/tcx-analyzer/pipeline"
)

func main() {
	var (
		inPath       = flag.String("in", "", "Input activity file or directory")
		outDir       = flag.String("out", "", "Output directory")
		mode         = flag.String("mode", "", "Series to extract: heart_rate|position")
		format       = flag.String("format", "", "Table format: csv|parquet|gpx")
		configPath   = flag.String("config", "", "YAML config file (default $"+config.EnvConfigPath+" or ./tcx-analyzer.yaml)")
		skipFailures = flag.Bool("skip-failures", false, "Record unreadable files in the manifest instead of aborting")
		workers      = flag.Int("workers", 0, "Concurrent file loads (0 uses config or CPU count)")
		overwrite    = flag.Bool("overwrite", true, "Allow writing into non-empty output directories")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s --in file.tcx|dir --out outdir [--mode heart_rate|position] [--format csv|parquet|gpx]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if strings.TrimSpace(*inPath) == "" || strings.TrimSpace(*outDir) == "" {
		flag.Usage()
		os.Exit(2)
	}

	path := *configPath
	if path == "" {
		path = config.GetConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tcx_analyze failed: %v\n", err)
		os.Exit(1)
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "mode":
			cfg.Mode = *mode
		case "format":
			cfg.Format = *format
		case "skip-failures":
			cfg.SkipFailures = *skipFailures
		case "workers":
			cfg.Workers = *workers
		}
	})
	parsedMode, err := tcxnotes.ParseMode(cfg.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tcx_analyze failed: %v\n", err)
		os.Exit(2)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, err := pipeline.Run(ctx, pipeline.Options{
		InputPath: *inPath,
		OutDir:    *outDir,
		Mode:      parsedMode,
		Format:    cfg.Format,
		Overwrite: *overwrite,
		Zones:     cfg.Zones,
		Report:    cfg.ReportOptions(),
		Batch:     cfg.BatchOptions(log),
		Logger:    log,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "tcx_analyze failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("tcx_analyze complete\n")
	fmt.Printf("Run id:          %s\n", result.RunID)
	fmt.Printf("Output dir:      %s\n", result.OutputDir)
	fmt.Printf("manifest.json:   %s\n", result.ManifestPath)
	if result.PlotsPath != "" {
		fmt.Printf("plots.json:      %s\n", result.PlotsPath)
	}
	for _, f := range result.Files {
		if f.Status != pipeline.StatusOK {
			fmt.Printf("failed:          %s (%s)\n", f.Source, f.Error)
			continue
		}
		size := ""
		if st, err := os.Stat(f.TablePath); err == nil {
			size = humanize.Bytes(uint64(st.Size()))
		}
		fmt.Printf("table:           %s [%s rows, %d dropped, %s]\n", f.TablePath, humanize.Comma(int64(f.Rows)), f.Dropped, size)
	}
}
