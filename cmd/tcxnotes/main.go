package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	tcxnotes "github.com/lucasjlepore/tcx-analyzer"
	"github.com/lucasjlepore/tcx-analyzer/config"
)

func main() {
	var (
		jsonOut    = flag.Bool("json", false, "Emit full analysis as JSON")
		position   = flag.Bool("position", false, "Summarize the track instead of heart rate")
		configPath = flag.String("config", "", "YAML config file for zone thresholds")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <path-to-tcx|fit|gpx-file>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	path := *configPath
	if path == "" {
		path = config.GetConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config failed: %v\n", err)
		os.Exit(1)
	}

	mode := tcxnotes.ModeHeartRate
	if *position {
		mode = tcxnotes.ModePosition
	}
	filePath := flag.Arg(0)
	table, err := tcxnotes.ExtractorFor(mode, cfg.Zones, nil)(filePath).Extract(filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "analysis failed: %v\n", err)
		os.Exit(1)
	}

	var (
		analysis any
		notes    string
	)
	switch t := table.(type) {
	case *tcxnotes.HeartRateTable:
		a := tcxnotes.AnalyzeHeartRate(t, cfg.Zones)
		analysis, notes = a, tcxnotes.BuildHeartRateNotes(a)
	case *tcxnotes.PositionTable:
		a := tcxnotes.AnalyzePosition(t)
		analysis, notes = a, tcxnotes.BuildPositionNotes(a)
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(analysis); err != nil {
			fmt.Fprintf(os.Stderr, "json encode failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println(notes)
	if st, err := os.Stat(filePath); err == nil {
		fmt.Printf("\nRead %s from %s, modified %s\n", humanize.Bytes(uint64(st.Size())), filePath, humanize.Time(st.ModTime()))
	}
}
