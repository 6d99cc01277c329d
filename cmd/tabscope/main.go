package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tabscope/tabscope/browser"
	"github.com/tabscope/tabscope/config"
	"github.com/tabscope/tabscope/loader"
	"github.com/tabscope/tabscope/output"
	"github.com/tabscope/tabscope/tui"
)

var (
	queryFlag     = flag.String("q", "", "Run a query and print the result instead of opening the browser")
	formatFlag    = flag.String("f", "table", "Output format for -q: json, jsonl, csv, table")
	limitFlag     = flag.Int("limit", 0, "Limit number of rows printed by -q (0 = unlimited)")
	configFlag    = flag.String("config", "", "Path to config.yaml (default: user config dir)")
	logFlag       = flag.String("log", "", "Write debug logs to this file")
	delimiterFlag = flag.String("delimiter", "", "Field delimiter for CSV input (default: by extension)")
	noHeaderFlag  = flag.Bool("no-header", false, "Treat the first CSV row as data")
	maxRowsFlag   = flag.Int("max-rows", 0, "Stop loading after this many rows (0 = all)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <file-or-directory>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "An interactive browser for tabular data files.\n")
		fmt.Fprintf(os.Stderr, "Supported inputs: CSV, TSV, JSON, JSON Lines, Parquet and hive-partitioned directories.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s data.parquet\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -q \"select region, sum(amount) group by region\" -f csv data.csv\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s warehouse/year=2024/\n", os.Args[0])
	}

	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: missing input file argument\n\n")
		flag.Usage()
		os.Exit(1)
	}
	path := flag.Arg(0)

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	opts := loader.Options{NoHeader: *noHeaderFlag, MaxRows: *maxRowsFlag}
	if *delimiterFlag != "" {
		opts.Delimiter = []rune(*delimiterFlag)[0]
	}

	rel, err := loader.Open(path, opts)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Error: file '%s' not found\n", path)
			fmt.Fprintf(os.Stderr, "Please check the file path and try again.\n")
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}

	bcfg := cfg.BrowserConfig()
	if *logFlag != "" {
		logFile, err := os.OpenFile(*logFlag, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
			os.Exit(1)
		}
		defer logFile.Close()
		bcfg.Logger = slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	b, err := browser.New(rel, bcfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", path, err)
		os.Exit(1)
	}

	if *queryFlag != "" {
		if err := runQuery(b); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	program := tea.NewProgram(tui.New(b, cfg.UI), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runQuery runs the one-shot, non-interactive mode: apply the query,
// materialize the result and print it with the selected formatter.
func runQuery(b *browser.Browser) error {
	if err := b.ApplyTextQuery(*queryFlag); err != nil {
		return fmt.Errorf("parsing query: %w", err)
	}

	rel := b.Active()
	if *limitFlag > 0 {
		rel = rel.Slice(0, *limitFlag)
	}
	tbl, err := rel.Materialize()
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}

	formatter, err := output.New(*formatFlag, os.Stdout)
	if err != nil {
		return err
	}
	return formatter.Format(tbl)
}
