package stats

import (
	"strings"
	"sync"
	"testing"
)

func TestMergeIsAdditive(t *testing.T) {
	totals := NewTotals()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l := NewLocal()
			l.RecordsIn = 10
			l.AddSample("BC01")
			l.RecordsRejectedShort = 1
			totals.Merge(l)
		}()
	}
	wg.Wait()

	if totals.RecordsIn != 40 {
		t.Errorf("RecordsIn = %d, want 40", totals.RecordsIn)
	}
	if totals.PerSample["BC01"] != 4 {
		t.Errorf("PerSample[BC01] = %d, want 4", totals.PerSample["BC01"])
	}
	if totals.RecordsRejectedShort != 4 {
		t.Errorf("RecordsRejectedShort = %d, want 4", totals.RecordsRejectedShort)
	}
}

func TestWriteTSV(t *testing.T) {
	totals := NewTotals()
	l := NewLocal()
	l.RecordsIn = 3
	l.AddSample("BC01")
	l.RecordsRejectedUnmatched = 1
	l.RecordsRejectedShort = 1
	totals.Merge(l)

	var sb strings.Builder
	if err := totals.WriteTSV(&sb); err != nil {
		t.Fatalf("WriteTSV: %v", err)
	}
	out := sb.String()
	for _, want := range []string{"BC01\t1", "total\t3", "unmatched\t1", "too_short\t1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q; got:\n%s", want, out)
		}
	}
}
