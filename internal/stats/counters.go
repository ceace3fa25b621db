// Package stats implements the per-run counters: thread-local accumulation
// on each worker's hot path, merged once under a single mutex at shutdown.
package stats

import (
	"fmt"
	"io"
	"sort"
	"sync"
)

// Local is a single worker's unsynchronized accumulator. Never shared
// across goroutines; safe to mutate without locking.
type Local struct {
	RecordsIn               uint64
	RecordsClassified       uint64
	RecordsRejectedShort    uint64
	RecordsRejectedUnmatched uint64
	PerSample               map[string]uint64
}

// NewLocal returns a ready-to-use per-worker accumulator.
func NewLocal() *Local {
	return &Local{PerSample: make(map[string]uint64)}
}

// AddSample records one classified record under the given sample key.
func (l *Local) AddSample(key string) {
	l.RecordsClassified++
	l.PerSample[key]++
}

// Totals is the synchronized, run-wide aggregate. Merge and WriteTSV take
// its lock; the hot path never does.
type Totals struct {
	mu                       sync.Mutex
	RecordsIn                uint64
	RecordsClassified        uint64
	RecordsRejectedShort     uint64
	RecordsRejectedUnmatched uint64
	PerSample                map[string]uint64
}

// NewTotals returns an empty run-wide aggregate.
func NewTotals() *Totals {
	return &Totals{PerSample: make(map[string]uint64)}
}

// Merge folds one local snapshot into the run totals. Each worker calls it
// once at shutdown; the pipeline reader also calls it once per malformed
// record it rejects.
func (t *Totals) Merge(l *Local) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.RecordsIn += l.RecordsIn
	t.RecordsClassified += l.RecordsClassified
	t.RecordsRejectedShort += l.RecordsRejectedShort
	t.RecordsRejectedUnmatched += l.RecordsRejectedUnmatched
	for k, v := range l.PerSample {
		t.PerSample[k] += v
	}
}

// WriteTSV writes the stats.tsv summary required by the invocation surface:
// one row per observed sample key plus the total/unmatched/too_short
// summary rows.
func (t *Totals) WriteTSV(w io.Writer) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	keys := make([]string, 0, len(t.PerSample))
	for k := range t.PerSample {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if _, err := fmt.Fprintln(w, "key\tcount"); err != nil {
		return err
	}
	for _, k := range keys {
		if _, err := fmt.Fprintf(w, "%s\t%d\n", k, t.PerSample[k]); err != nil {
			return err
		}
	}
	rows := [][2]interface{}{
		{"total", t.RecordsIn},
		{"unmatched", t.RecordsRejectedUnmatched},
		{"too_short", t.RecordsRejectedShort},
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(w, "%s\t%d\n", row[0], row[1]); err != nil {
			return err
		}
	}
	return nil
}
