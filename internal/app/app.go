// Package app wires the command-line surface to the core pipeline: parse
// and validate options, load the pattern catalog, run the pipeline, write
// the stats summary, and translate any error into the documented exit
// code. cmd/bcdemux/main.go is a thin os.Exit(app.Run(...)) shim over it.
package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/Altius/bcdemux/internal/cli"
	"github.com/Altius/bcdemux/internal/config"
	"github.com/Altius/bcdemux/internal/fastqio"
	"github.com/Altius/bcdemux/internal/pattern"
	"github.com/Altius/bcdemux/internal/pipeline"
	"github.com/Altius/bcdemux/internal/record"
	"github.com/Altius/bcdemux/internal/sink"
)

const (
	exitOK           = 0
	exitConfigError  = 2
	exitIOError      = 3
	exitInternalError = 4
)

// Run parses argv, executes one full demultiplexing run, and returns the
// process exit code. stdout carries the on-success summary; stderr carries
// the single-line diagnostic on failure.
func Run(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	logger := log.New(stderr, "bcdemux: ", 0)

	fs := cli.NewFlagSet("bcdemux", stderr)
	cfg, err := cli.Parse(fs, argv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		logger.Println(err)
		return exitConfigError
	}

	if err := cfg.Validate(); err != nil {
		logger.Println(err)
		return exitConfigError
	}

	dbBytes, err := os.ReadFile(cfg.PatternDB)
	if err != nil {
		logger.Println(fmt.Errorf("reading pattern database: %w", err))
		return exitIOError
	}
	indexBytes, err := os.ReadFile(cfg.PatternIndex)
	if err != nil {
		logger.Println(fmt.Errorf("reading pattern index: %w", err))
		return exitIOError
	}

	cat, err := pattern.Load(dbBytes, indexBytes)
	if err != nil {
		logger.Println(err)
		return exitConfigError
	}

	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		logger.Println(fmt.Errorf("creating output directory: %w", err))
		return exitIOError
	}

	snk, err := sink.New(cfg.OutDir)
	if err != nil {
		logger.Println(err)
		return exitIOError
	}

	source := fastqio.NewReader(cfg.Inputs)
	totals, runErr := pipeline.Run(ctx, source, &cfg, cat, snk)

	closeErr := snk.Close()

	if runErr != nil {
		logger.Println(runErr)
		return exitCodeFor(runErr)
	}
	if closeErr != nil {
		logger.Println(closeErr)
		return exitIOError
	}
	if err := writeStatsFile(cfg.OutDir, totals); err != nil {
		logger.Println(err)
		return exitIOError
	}

	fmt.Fprintf(stdout, "records_in=%d classified=%d rejected_short=%d rejected_unmatched=%d\n",
		totals.RecordsIn, totals.RecordsClassified, totals.RecordsRejectedShort, totals.RecordsRejectedUnmatched)
	return exitOK
}

func writeStatsFile(outDir string, totals interface {
	WriteTSV(w io.Writer) error
}) error {
	f, err := os.Create(filepath.Join(outDir, "stats.tsv"))
	if err != nil {
		return fmt.Errorf("creating stats.tsv: %w", err)
	}
	defer f.Close()
	if err := totals.WriteTSV(f); err != nil {
		return fmt.Errorf("writing stats.tsv: %w", err)
	}
	return nil
}

// exitCodeFor maps a pipeline error to the documented exit code: parse
// errors and record-level issues are I/O-adjacent (3); invariant
// violations are internal (4).
func exitCodeFor(err error) int {
	var internal *pipeline.InternalError
	if errors.As(err, &internal) {
		return exitInternalError
	}
	var parseRate *pipeline.ParseErrorRateExceeded
	if errors.As(err, &parseRate) {
		return exitIOError
	}
	var parseErr *record.ParseError
	if errors.As(err, &parseErr) {
		return exitIOError
	}
	var cfgErr *config.Error
	if errors.As(err, &cfgErr) {
		return exitConfigError
	}
	return exitIOError
}
