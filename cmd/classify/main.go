// Command classify runs an ABC-XYZ classification offline, from a CSV/XLSX
// sales spreadsheet or directly against a sales database, and writes the
// result as a table, JSON, CSV, or XLSX.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/JaimeStill/verne/internal/config"
	"github.com/JaimeStill/verne/internal/imports"
	"github.com/JaimeStill/verne/internal/infrastructure"
	"github.com/JaimeStill/verne/internal/sales"
	"github.com/JaimeStill/verne/pkg/abcxyz"
)

const (
	maxFileSize = 64 << 20

	// runSteps counts the runner stages from loading through ready.
	runSteps = 5
)

type options struct {
	file      string
	dsn       string
	criteria  abcxyz.Criteria
	zeroMean  string
	top       int
	window    int
	minMonths int
	maxMonths int
	timeout   time.Duration
	format    string
	out       string
	logLevel  string
	quiet     bool
}

func main() {
	opts := parseFlags()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts); err != nil {
		log.Fatal(err)
	}
}

func parseFlags() options {
	def := abcxyz.DefaultCriteria()
	opts := options{}

	flag.StringVar(&opts.file, "file", "", "CSV or XLSX sales spreadsheet (producto, periodo, cantidad, ingreso)")
	flag.StringVar(&opts.dsn, "dsn", "", "Sales database: postgres://, mysql:// or mariadb:// URL")
	flag.Float64Var(&opts.criteria.ACut, "a", def.ACut, "Cumulative share closing band A")
	flag.Float64Var(&opts.criteria.BCut, "b", def.BCut, "Cumulative share closing band B")
	flag.Float64Var(&opts.criteria.XCut, "x", def.XCut, "Maximum CV for band X")
	flag.Float64Var(&opts.criteria.YCut, "y", def.YCut, "Maximum CV for band Y")
	flag.StringVar(&opts.zeroMean, "zero-mean", string(abcxyz.ZeroMeanStable), "Band for products without sales: stable (X) or erratic (Z)")
	flag.IntVar(&opts.top, "top", 3, "Number of top product series to include")
	flag.IntVar(&opts.window, "window", 12, "Months loaded from the sales database")
	flag.IntVar(&opts.minMonths, "min-months", 3, "Months with sales required by the database precheck")
	flag.IntVar(&opts.maxMonths, "max-months", 36, "Maximum months accepted from a spreadsheet")
	flag.DurationVar(&opts.timeout, "timeout", 30*time.Second, "Sales database query timeout")
	flag.StringVar(&opts.format, "format", "table", "Output format: table, json, csv or xlsx")
	flag.StringVar(&opts.out, "out", "", "Output file (default stdout)")
	flag.StringVar(&opts.logLevel, "log-level", "warn", "Log level")
	flag.BoolVar(&opts.quiet, "quiet", false, "Hide the progress bar")
	flag.Parse()

	return opts
}

func (o options) validate() error {
	if (o.file == "") == (o.dsn == "") {
		return errors.New("exactly one of -file or -dsn is required")
	}
	if o.format == "xlsx" && o.out == "" {
		return errors.New("-format xlsx requires -out")
	}
	return o.criteria.Validate()
}

func run(ctx context.Context, opts options) error {
	if err := opts.validate(); err != nil {
		return err
	}

	zero, err := abcxyz.ParseZeroMean(opts.zeroMean)
	if err != nil {
		return err
	}

	w, err := newWriter(opts.format)
	if err != nil {
		return err
	}

	logger := infrastructure.NewLogger(
		&config.LoggingConfig{Level: opts.logLevel, Format: "text"},
		os.Stderr,
	)

	bar := newBar(opts.quiet)
	runner := abcxyz.NewRunner(
		abcxyz.Options{ZeroMean: zero, TopSeries: opts.top},
		func(s abcxyz.Status) {
			bar.Describe(string(s.Stage))
			bar.Add(1)
		},
	)

	var result *abcxyz.Result
	if opts.file != "" {
		result, err = classifyFile(ctx, runner, opts)
	} else {
		result, err = classifyDatabase(ctx, runner, opts, logger)
	}
	bar.Finish()
	if err != nil {
		return err
	}

	return write(w, result, opts.out)
}

func classifyFile(ctx context.Context, runner *abcxyz.Runner, opts options) (*abcxyz.Result, error) {
	f, err := os.Open(opts.file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	upload, err := imports.Read(opts.file, f, maxFileSize)
	if err != nil {
		return nil, err
	}

	src := abcxyz.SourceFunc(func(context.Context) (*abcxyz.Dataset, error) {
		ds, err := upload.Dataset(opts.maxMonths)
		if ds != nil {
			reportIssues(ds.Issues)
		}
		return ds, err
	})

	return runner.Run(ctx, src, opts.criteria)
}

// classifyDatabase runs the readiness precheck alongside the classification
// and reports its reasons as warnings.
func classifyDatabase(ctx context.Context, runner *abcxyz.Runner, opts options, logger *slog.Logger) (*abcxyz.Result, error) {
	db, dialect, err := openSales(opts.dsn)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	sys := sales.New(db, dialect, sales.Options{
		WindowMonths: opts.window,
		MinMonths:    opts.minMonths,
		QueryTimeout: opts.timeout,
	}, logger)

	var (
		result *abcxyz.Result
		check  *sales.Precheck
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		check, err = sys.Precheck(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		result, err = runner.Run(gctx, sys.Source(), opts.criteria)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if !check.OK {
		for _, reason := range check.Reasons {
			fmt.Fprintln(os.Stderr, "warning:", reason)
		}
	}
	return result, nil
}

func openSales(dsn string) (*sql.DB, sales.Dialect, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, sales.Dialect{}, fmt.Errorf("open sales database: %w", err)
		}
		return db, sales.Postgres, nil
	}

	db, err := sales.Open(dsn, 4, time.Minute)
	if err != nil {
		return nil, sales.Dialect{}, err
	}
	return db, sales.MySQL, nil
}

func newBar(quiet bool) *progressbar.ProgressBar {
	if quiet {
		return progressbar.DefaultSilent(-1)
	}
	return progressbar.NewOptions(
		runSteps,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("classifying"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func reportIssues(issues []abcxyz.Issue) {
	for _, issue := range issues {
		fmt.Fprintf(os.Stderr, "skipped row %d (%s): %s\n", issue.Row, issue.Field, issue.Reason)
	}
}
