// Package cli defines the demultiplexer's command-line surface: flag
// registration, parsing, and translation into a config.Config. Flags are
// registered only here; internal/app imports flag solely to recognize
// flag.ErrHelp.
package cli

import (
	"flag"
	"fmt"
	"io"

	"github.com/Altius/bcdemux/internal/config"
)

// sliceValue appends every occurrence of a repeatable flag to a *[]string,
// the same pattern the KPU-AGC-ipcr CLI uses for repeatable sequence files.
type sliceValue struct{ dst *[]string }

func (s *sliceValue) String() string {
	if s.dst == nil {
		return ""
	}
	return fmt.Sprint(*s.dst)
}

func (s *sliceValue) Set(v string) error {
	*s.dst = append(*s.dst, v)
	return nil
}

// NewFlagSet builds the demux flag set. ContinueOnError lets the caller
// decide how to report a parse failure instead of the flag package calling
// os.Exit directly.
func NewFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() {
		fmt.Fprintf(out, "Usage:\n  %s [options] -input reads.fastq.gz\n\nOptions:\n", name)
		fs.PrintDefaults()
	}
	return fs
}

// Parse registers flags on fs, parses argv, and returns the resulting
// Config, with any positional arguments appended to Inputs.
// Validation is left to the caller via cfg.Validate().
func Parse(fs *flag.FlagSet, argv []string) (config.Config, error) {
	cfg := config.Default()

	inputs := &sliceValue{dst: &cfg.Inputs}
	fs.Var(inputs, "input", "input FASTQ file, .gz auto-detected (repeatable)")

	fs.StringVar(&cfg.PatternDB, "pattern-db", "", "path to the decrypted pattern database")
	fs.StringVar(&cfg.PatternIndex, "pattern-index", "", "path to the sample-index file")
	fs.StringVar(&cfg.OutDir, "outdir", "", "output directory")

	fs.IntVar(&cfg.Threads, "threads", cfg.Threads, "worker thread count")
	fs.IntVar(&cfg.MinLength, "min-length", cfg.MinLength, "reject records shorter than this before matching")
	fs.IntVar(&cfg.WindowLeft, "window-left", cfg.WindowLeft, "5' search window length")
	fs.IntVar(&cfg.WindowRight, "window-right", cfg.WindowRight, "3' search window length")
	fs.Float64Var(&cfg.ErrorRateLeft, "error-rate-left", cfg.ErrorRateLeft, "max edit-distance fraction for the 5' end")
	fs.Float64Var(&cfg.ErrorRateRight, "error-rate-right", cfg.ErrorRateRight, "max edit-distance fraction for the 3' end")

	matchMode := string(cfg.MatchMode)
	fs.StringVar(&matchMode, "match-mode", matchMode, "single or dual")

	fs.IntVar(&cfg.TrimMode, "trim-mode", cfg.TrimMode, "0 = remove matched regions; k>0 = retain outermost k regions")

	writeType := string(cfg.WriteType)
	fs.StringVar(&writeType, "write-type", writeType, "names or type")

	fs.BoolVar(&cfg.UsePosition, "use-position", cfg.UsePosition, "require hits to fall within their end's window position")
	fs.IntVar(&cfg.Shift, "shift", cfg.Shift, "positional tolerance for same-pattern hit dedup")
	fs.IntVar(&cfg.MaxDist, "maxdist", cfg.MaxDist, "absolute upper bound on any accepted hit's edit distance")

	idSep := string(cfg.IDSep)
	fs.StringVar(&idSep, "id-sep", idSep, "single-character separator before the ID annotation")

	if err := fs.Parse(argv); err != nil {
		return cfg, err
	}
	cfg.Inputs = append(cfg.Inputs, fs.Args()...)

	cfg.MatchMode = config.MatchMode(matchMode)
	cfg.WriteType = config.WriteType(writeType)
	if len(idSep) != 1 {
		return cfg, fmt.Errorf("id-sep must be exactly one character, got %q", idSep)
	}
	cfg.IDSep = idSep[0]

	return cfg, nil
}
