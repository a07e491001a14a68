// Command trendlens-cli validates a dataset and writes its report without
// starting the server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"trendlens/internal/analysis"
	"trendlens/internal/config"
	"trendlens/internal/dataset"
	"trendlens/internal/infrastructure"
	"trendlens/internal/services"
	"trendlens/internal/session"
	"trendlens/internal/validation"
	"trendlens/pkg/contracts"
)

func main() {
	_ = godotenv.Load()
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	version bool
	file    string
	topic   string
	k       int
	out     string
	csv     string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("trendlens-cli", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	fs.StringVar(&opts.file, "file", "", "dataset to analyse (.csv or .xlsx)")
	fs.StringVar(&opts.topic, "topic", "", "topic for the forecast sheet (defaults to the first numeric column)")
	fs.IntVar(&opts.k, "k", 0, "number of clusters (defaults to the configured default)")
	fs.StringVar(&opts.out, "out", "", "xlsx report path (defaults to <file>-report.xlsx)")
	fs.StringVar(&opts.csv, "csv", "", "optional clustered CSV path")
	fs.BoolVar(&opts.version, "version", false, "print version information and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.version {
		return opts, nil
	}
	if opts.file == "" {
		return nil, errors.New("-file is required")
	}
	if opts.out == "" {
		base := filepath.Base(opts.file)
		opts.out = base[:len(base)-len(filepath.Ext(base))] + "-report.xlsx"
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	if opts.version {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(contracts.GetVersionInfo()); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return 1
	}
	logger := infrastructure.NewLogger(cfg.Logging, stderr)
	ctx = infrastructure.EnsureTraceID(ctx)

	store := session.NewStore(cfg.Store.TTL, cfg.Store.MaxDatasets)
	defer store.Stop()
	svc := services.NewDashboardService(store, cfg.Analysis, logger)

	files := validation.NewFileValidator(logger)
	if err := files.ValidateDatasetFile(opts.file); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if err := files.ValidateOutputFile(opts.out, ".xlsx"); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if opts.csv != "" {
		if err := files.ValidateOutputFile(opts.csv, ".csv"); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
	}

	f, err := os.Open(opts.file)
	if err != nil {
		fmt.Fprintf(stderr, "open %s: %v\n", opts.file, err)
		return 1
	}
	defer f.Close()

	summary, err := svc.Upload(ctx, filepath.Base(opts.file), f)
	if err != nil {
		if errors.Is(err, dataset.ErrInvalidDataset) {
			fmt.Fprintln(stderr, dataset.InvalidMonthMessage)
		} else {
			fmt.Fprintln(stderr, err)
		}
		return 1
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	req := analysis.ViewRequest{Topic: opts.topic, K: opts.k}
	if err := writeReport(ctx, svc, summary.ID, req, services.ReportXLSX, opts.out); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	logger.InfoContext(ctx, "Report written", slog.String("path", opts.out))

	if opts.csv != "" {
		if err := writeReport(ctx, svc, summary.ID, req, services.ReportCSV, opts.csv); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		logger.InfoContext(ctx, "Cluster CSV written", slog.String("path", opts.csv))
	}
	return 0
}

func writeReport(ctx context.Context, svc *services.DashboardService, id string, req analysis.ViewRequest, format, path string) error {
	report, err := svc.Report(ctx, id, req, format)
	if err != nil {
		return fmt.Errorf("%s report: %w", format, err)
	}
	if err := os.WriteFile(path, report.Data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
