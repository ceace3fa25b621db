// Package pipeline drives the bounded reader/worker-pool/writer stages:
// one reader goroutine decodes FASTQ batches, a fixed pool of worker
// goroutines classifies each record, and the calling goroutine drains
// classified batches into the keyed sink. Cancellation is cooperative via
// context.Context; the first fatal error from any stage cancels the rest.
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/Altius/bcdemux/internal/classify"
	"github.com/Altius/bcdemux/internal/config"
	"github.com/Altius/bcdemux/internal/pattern"
	"github.com/Altius/bcdemux/internal/record"
	"github.com/Altius/bcdemux/internal/sink"
	"github.com/Altius/bcdemux/internal/stats"
)

// RecordSource decodes input files into records, reporting malformed
// records via a non-nil parseErr rather than aborting the scan.
// *fastqio.Reader satisfies this.
type RecordSource interface {
	Each(fn func(rec record.Record, parseErr error) error) error
}

// batchSize amortizes channel synchronization across many records; it is
// independent of fastqio's own internal chunk size.
const batchSize = 64

// maxParseErrorRate is the run-wide fraction of malformed records tolerated
// before the reader escalates further parse errors to a fatal error.
const maxParseErrorRate = 0.005

// minSampleBeforeRateCheck keeps a handful of early malformed records from
// aborting a run before there's enough of a sample to judge the rate.
const minSampleBeforeRateCheck = 200

// ParseErrorRateExceeded is returned when malformed records cross
// maxParseErrorRate of all records seen so far.
type ParseErrorRateExceeded struct {
	Errors, Total uint64
}

func (e *ParseErrorRateExceeded) Error() string {
	return fmt.Sprintf("pipeline: %d/%d records malformed, exceeding the %.2f%% cap", e.Errors, e.Total, maxParseErrorRate*100)
}

// InternalError reports an invariant violation caught mid-run (e.g. a
// classified record whose trimmed sequence and quality lengths disagree).
type InternalError struct {
	Reason string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("pipeline: internal invariant violated: %s", e.Reason)
}

type rawBatch struct {
	records []record.Record
}

type classifiedBatch struct {
	results []classify.Result
}

// Run reads every record from source, classifies it against cat under cfg, and
// appends results to snk, fanning classification out across cfg.Threads
// worker goroutines. It returns the merged run totals and the first fatal
// error encountered by any stage (nil on success). Totals reflect every
// record processed before a fatal error triggered cancellation.
func Run(ctx context.Context, source RecordSource, cfg *config.Config, cat *pattern.Catalog, snk *sink.Sink) (*stats.Totals, error) {
	threads := cfg.Threads
	if threads < 1 {
		threads = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan rawBatch, threads*2)
	results := make(chan classifiedBatch, threads*2)
	totals := stats.NewTotals()

	var (
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		if err == nil {
			return
		}
		mu.Lock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
		mu.Unlock()
	}

	var readerWG sync.WaitGroup
	readerWG.Add(1)
	go func() {
		defer readerWG.Done()
		defer close(jobs)
		runReader(ctx, source, jobs, totals, fail)
	}()

	var workerWG sync.WaitGroup
	workerWG.Add(threads)
	for w := 0; w < threads; w++ {
		go func() {
			defer workerWG.Done()
			runWorker(ctx, cat, cfg, jobs, results, totals, fail)
		}()
	}

	go func() {
		workerWG.Wait()
		close(results)
	}()

	writeFailed := false
	for cb := range results {
		if writeFailed {
			continue
		}
		for _, res := range cb.results {
			if err := snk.Append(res); err != nil {
				fail(err)
				writeFailed = true
				break
			}
		}
	}

	readerWG.Wait()

	mu.Lock()
	err := firstErr
	mu.Unlock()
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	return totals, err
}

// runReader decodes every input file in order, batching well-formed records
// onto jobs. A malformed record never reaches a worker: it is counted
// directly as records_rejected_unmatched. Once recordsSeen clears
// minSampleBeforeRateCheck, a parse-error rate above maxParseErrorRate
// escalates to a fatal ParseErrorRateExceeded.
func runReader(ctx context.Context, source RecordSource, jobs chan<- rawBatch, totals *stats.Totals, fail func(error)) {
	var (
		batch       []record.Record
		recordsSeen uint64
		parseErrors uint64
	)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		select {
		case jobs <- rawBatch{records: batch}:
		case <-ctx.Done():
		}
		batch = nil
	}

	err := source.Each(func(rec record.Record, parseErr error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		recordsSeen++
		if parseErr != nil {
			parseErrors++
			if recordsSeen >= minSampleBeforeRateCheck && float64(parseErrors)/float64(recordsSeen) > maxParseErrorRate {
				return &ParseErrorRateExceeded{Errors: parseErrors, Total: recordsSeen}
			}
			local := stats.NewLocal()
			local.RecordsIn = 1
			local.RecordsRejectedUnmatched = 1
			totals.Merge(local)
			return nil
		}
		batch = append(batch, rec)
		if len(batch) >= batchSize {
			flush()
		}
		return nil
	})
	flush()
	fail(err)
}

// runWorker classifies batches pulled from jobs until jobs closes or ctx is
// cancelled, merging its local counters into totals exactly once at exit.
func runWorker(ctx context.Context, cat *pattern.Catalog, cfg *config.Config, jobs <-chan rawBatch, results chan<- classifiedBatch, totals *stats.Totals, fail func(error)) {
	local := stats.NewLocal()
	defer totals.Merge(local)

	for {
		select {
		case <-ctx.Done():
			return
		case b, ok := <-jobs:
			if !ok {
				return
			}
			out := make([]classify.Result, 0, len(b.records))
			for _, rec := range b.records {
				local.RecordsIn++
				res := classify.Classify(rec, cat, cfg)
				if len(res.TrimmedSeq) != len(res.TrimmedQual) {
					fail(&InternalError{Reason: fmt.Sprintf("record %q: trimmed sequence length %d != trimmed quality length %d", rec.ID, len(res.TrimmedSeq), len(res.TrimmedQual))})
					return
				}
				switch {
				case res.TooShort:
					local.RecordsRejectedShort++
				case res.Unmatched:
					local.RecordsRejectedUnmatched++
				default:
					local.AddSample(res.OutputKey)
				}
				out = append(out, res)
			}
			select {
			case results <- classifiedBatch{results: out}:
			case <-ctx.Done():
				return
			}
		}
	}
}
