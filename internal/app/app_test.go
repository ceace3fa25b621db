package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Altius/bcdemux/internal/config"
	"github.com/Altius/bcdemux/internal/pipeline"
	"github.com/Altius/bcdemux/internal/record"
)

func TestRunMissingRequiredFlagsIsConfigError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), []string{"-input", "a.fastq"}, &stdout, &stderr)
	if code != exitConfigError {
		t.Errorf("exit code = %d, want %d; stderr=%s", code, exitConfigError, stderr.String())
	}
}

func TestRunMissingPatternDBIsIOError(t *testing.T) {
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), []string{
		"-input", "a.fastq",
		"-pattern-db", filepath.Join(dir, "does-not-exist.txt"),
		"-pattern-index", filepath.Join(dir, "also-missing.tsv"),
		"-outdir", filepath.Join(dir, "out"),
	}, &stdout, &stderr)
	if code != exitIOError {
		t.Errorf("exit code = %d, want %d; stderr=%s", code, exitIOError, stderr.String())
	}
}

func TestRunMalformedCatalogIsConfigError(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "db.txt")
	indexPath := filepath.Join(dir, "index.tsv")
	writeFile(t, dbPath, "BC01\tACGTACGT\n")
	writeFile(t, indexPath, "#index_F\tindex_R\ttype\nMISSING\t\tsample\n")

	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), []string{
		"-input", "a.fastq",
		"-pattern-db", dbPath,
		"-pattern-index", indexPath,
		"-outdir", filepath.Join(dir, "out"),
	}, &stdout, &stderr)
	if code != exitConfigError {
		t.Errorf("exit code = %d, want %d; stderr=%s", code, exitConfigError, stderr.String())
	}
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func TestExitCodeForMapsErrorKinds(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"internal", &pipeline.InternalError{Reason: "boom"}, exitInternalError},
		{"parse-rate", &pipeline.ParseErrorRateExceeded{Errors: 10, Total: 100}, exitIOError},
		{"parse-record", &record.ParseError{ID: "r1", Reason: "boom"}, exitIOError},
		{"config", &config.Error{Field: "threads", Reason: "must be >= 1"}, exitConfigError},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := exitCodeFor(c.err); got != c.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", c.err, got, c.want)
			}
		})
	}
}
