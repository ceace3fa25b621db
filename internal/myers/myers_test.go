package myers

import (
	"strings"
	"testing"
)

func TestBestHitExact(t *testing.T) {
	tests := []struct {
		name       string
		pattern    string
		haystack   string
		maxEdits   int
		wantOK     bool
		wantOffset int
		wantEdits  int
	}{
		{"exact at start", "ACGT", "ACGTGGGG", 0, true, 0, 0},
		{"exact in middle", "ACGT", "GGACGTGG", 0, true, 2, 0},
		{"no match exact", "TTTT", "ACGTACGT", 0, false, 0, 0},
		{"one substitution allowed", "ACGT", "ACCTGGGG", 1, true, 0, 1},
		{"too many edits", "ACGT", "TTTTGGGG", 1, false, 0, 0},
		{"leftmost of equal hits", "AAA", "AAAAAA", 0, true, 0, 0},
		{"N in pattern matches any", "ACNT", "ACGTGGGG", 0, true, 0, 0},
		{"N in haystack matches any for free", "ACGT", "ACNTGGGG", 0, true, 0, 0},
		{"lowercase normalized", "acgt", "ggACGTgg", 0, true, 2, 0},
		{"insertion tolerated", "ACGT", "ACXGT", 1, true, 0, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			offset, edits, ok := BestHit([]byte(tc.pattern), []byte(tc.haystack), tc.maxEdits)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if !ok {
				return
			}
			if offset != tc.wantOffset {
				t.Errorf("offset = %d, want %d", offset, tc.wantOffset)
			}
			if edits != tc.wantEdits {
				t.Errorf("edits = %d, want %d", edits, tc.wantEdits)
			}
		})
	}
}

func TestBestHitAgreesAcrossWordBoundary(t *testing.T) {
	// A pattern just over 64 bases forces the DP fallback; a pattern just
	// under forces the bit-vector path. Both must agree on a shared exact
	// match embedded in a longer haystack. The NNNN flanks pair with any
	// base for free and both patterns repeat every four bases, so the
	// left-most zero-edit hit starts at offset 0, not at the embedded copy.
	short := strings.Repeat("ACGT", 15) // 60 bases, bit-vector path
	long := short + "ACGTACGTA"         // 69 bases, DP fallback path

	haystackShort := "NNNN" + short + "NNNN"
	offS, edS, okS := BestHit([]byte(short), []byte(haystackShort), 0)
	if !okS || offS != 0 || edS != 0 {
		t.Fatalf("short: got offset=%d edits=%d ok=%v", offS, edS, okS)
	}

	haystackLong := "NNNN" + long + "NNNN"
	offL, edL, okL := BestHit([]byte(long), []byte(haystackLong), 0)
	if !okL || offL != 0 || edL != 0 {
		t.Fatalf("long: got offset=%d edits=%d ok=%v", offL, edL, okL)
	}
}

func TestBestHitShortCircuitsOnLengthGap(t *testing.T) {
	_, _, ok := BestHit([]byte("ACGTACGT"), []byte("AC"), 1)
	if ok {
		t.Fatalf("expected no match when haystack shorter than pattern-maxEdits")
	}
}

func BenchmarkBestHitShort(b *testing.B) {
	pattern := []byte("ACGTACGT")
	haystack := []byte(strings.Repeat("TTTTGGGGCCCCAAAA", 25))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		BestHit(pattern, haystack, 2)
	}
}
