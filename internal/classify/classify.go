// Package classify applies the approximate matcher over a record's 5'/3'
// windows, selects a sample assignment under the configured match mode,
// derives the output key, annotates the record ID, and produces the
// trimmed payload. It holds no mutable state: classification depends only
// on the record's own contents plus the immutable Catalog/Config passed in,
// so it is safe to call concurrently from every worker goroutine.
package classify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Altius/bcdemux/internal/config"
	"github.com/Altius/bcdemux/internal/myers"
	"github.com/Altius/bcdemux/internal/pattern"
	"github.com/Altius/bcdemux/internal/record"
	"github.com/Altius/bcdemux/internal/window"
)

// End identifies which side of the record a hit was found on.
type End int

const (
	Left End = iota
	Right
)

func (e End) String() string {
	if e == Left {
		return "L"
	}
	return "R"
}

// UnmatchedKey is the reserved output key for records that fail
// classification, and the reserved output file for too-short records.
const UnmatchedKey = "unmatched"

// Hit reports one accepted approximate match: the pattern's name and type,
// its inclusive zero-based start offset within the original record (not the
// window), the edit distance, and which end it was found on.
type Hit struct {
	PatternName  string
	PatternType  string
	Position     int
	EditDistance int
	End          End
	// Length is the byte length of the pattern that produced this hit, used
	// to compute the trimmed boundary. Indels can shift the true matched
	// span by a few bases, but the pattern's own length is what spec.md's
	// trimming rule keys off (the window is trimmed back to the declared
	// barcode length starting at Position).
	Length int
}

// Result is a Record plus its classification outcome.
type Result struct {
	Record      record.Record
	Hits        []Hit
	OutputKey   string
	AnnotatedID string
	TrimmedSeq  []byte
	TrimmedQual []byte
	TooShort    bool
	Unmatched   bool
}

// Classify runs the full per-record pipeline of spec.md §4.3: window
// extraction, per-end approximate matching, mode policy selection, ID
// annotation, trimming, and output-key derivation.
func Classify(rec record.Record, cat *pattern.Catalog, cfg *config.Config) Result {
	seqLen := len(rec.Sequence)

	if window.TooShort(seqLen, cfg.MinLength) {
		return Result{
			Record:      rec,
			OutputKey:   UnmatchedKey,
			AnnotatedID: rec.ID,
			TrimmedSeq:  rec.Sequence,
			TrimmedQual: rec.Quality,
			TooShort:    true,
		}
	}

	leftBounds, rightBounds := window.Extract(seqLen, window.Spec{LeftLen: cfg.WindowLeft, RightLen: cfg.WindowRight})

	leftHits := matchEnd(rec.Sequence, cat.ForwardPatterns(), leftBounds, Left, cfg)
	rightHits := matchEnd(rec.Sequence, cat.ReversePatterns(), rightBounds, Right, cfg)

	leftHits = dedup(leftHits, cfg.Shift)
	rightHits = dedup(rightHits, cfg.Shift)

	leftBest, _ := selectBest(leftHits, Left)
	rightBest, _ := selectBest(rightHits, Right)

	switch cfg.MatchMode {
	case config.Dual:
		return classifyDual(rec, cat, cfg, leftBest, rightBest)
	default:
		return classifySingle(rec, cat, cfg, leftBest, rightBest)
	}
}

// matchEnd runs the matcher over every pattern in the given set against the
// given window, keeping candidates that satisfy the per-end rate, the
// global maxdist, and (if enabled) the use_position constraint.
func matchEnd(seq []byte, patterns []pattern.Pattern, bounds window.Bounds, end End, cfg *config.Config) []Hit {
	if bounds.Len() <= 0 || len(patterns) == 0 {
		return nil
	}
	haystack := seq[bounds.Start:bounds.End]

	rate := cfg.ErrorRateLeft
	if end == Right {
		rate = cfg.ErrorRateRight
	}

	var hits []Hit
	for _, p := range patterns {
		maxEdits := cfg.MaxEditsFor(len(p.Bytes), rate)
		offset, edits, ok := myers.BestHit(p.Bytes, haystack, maxEdits)
		if !ok {
			continue
		}
		position := bounds.Start + offset

		if cfg.UsePosition {
			switch end {
			case Left:
				if position < 0 || position >= cfg.WindowLeft {
					continue
				}
			case Right:
				if position < len(seq)-cfg.WindowRight {
					continue
				}
			}
		}

		hits = append(hits, Hit{
			PatternName:  p.Name,
			PatternType:  p.Type,
			Position:     position,
			EditDistance: edits,
			End:          end,
			Length:       len(p.Bytes),
		})
	}
	return hits
}

// dedup collapses hits within a single end whose positions differ by at
// most shift and whose pattern name is identical, keeping the lowest edit
// distance of the group. Dedup never compares across ends (spec.md §9).
func dedup(hits []Hit, shift int) []Hit {
	if len(hits) < 2 {
		return hits
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Position < hits[j].Position
	})

	out := hits[:0:0]
	for _, h := range hits {
		merged := false
		for i := range out {
			if out[i].PatternName == h.PatternName && absInt(out[i].Position-h.Position) <= shift {
				if h.EditDistance < out[i].EditDistance {
					out[i] = h
				}
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, h)
		}
	}
	return out
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// selectBest picks the winning hit for one end: smallest edit distance,
// ties broken by position (smaller for left, larger for right), then by
// database order (the order hits were collected in, which mirrors
// ForwardPatterns()/ReversePatterns() order since matchEnd iterates the
// catalog in that order and dedup's stable sort by position keeps that
// order among hits at equal position — so database order ties are broken
// by retaining the first encountered candidate at equal distance and
// position).
func selectBest(hits []Hit, end End) (Hit, bool) {
	if len(hits) == 0 {
		return Hit{}, false
	}
	best := hits[0]
	for _, h := range hits[1:] {
		if h.EditDistance < best.EditDistance {
			best = h
			continue
		}
		if h.EditDistance > best.EditDistance {
			continue
		}
		if end == Left && h.Position < best.Position {
			best = h
		} else if end == Right && h.Position > best.Position {
			best = h
		}
	}
	return best, true
}

func classifySingle(rec record.Record, cat *pattern.Catalog, cfg *config.Config, left, right Hit) Result {
	var ok bool
	var chosen []Hit
	var sampleForward, sampleReverse string

	haveLeft := hitPresent(left)
	haveRight := hitPresent(right)

	switch {
	case haveLeft && haveRight:
		// Both ends produced hits. Spec.md's open-question decision: the
		// winning end alone determines the sample; prefer the lower-distance
		// hit, ties go to the left end.
		if right.EditDistance < left.EditDistance {
			chosen = []Hit{right}
			sampleReverse = right.PatternName
			sampleForward = pattern.NoEnd
		} else {
			chosen = []Hit{left}
			sampleForward = left.PatternName
			sampleReverse = pattern.NoEnd
		}
		ok = true
	case haveLeft:
		chosen = []Hit{left}
		sampleForward = left.PatternName
		sampleReverse = pattern.NoEnd
		ok = true
	case haveRight:
		chosen = []Hit{right}
		sampleReverse = right.PatternName
		sampleForward = pattern.NoEnd
		ok = true
	}

	if !ok {
		return unmatchedResult(rec)
	}

	label, known := cat.SampleLabel(sampleForward, sampleReverse)
	if !known {
		// Single-end mode does not require the pair to be registered in the
		// index beyond resolving a label for write_type=type; if the index
		// has no entry at all for a name, fall back to the raw name.
		label = firstNonEmptyName(sampleForward, sampleReverse)
	}

	return buildResult(rec, cfg, chosen, sampleForward, sampleReverse, label)
}

func classifyDual(rec record.Record, cat *pattern.Catalog, cfg *config.Config, left, right Hit) Result {
	if !hitPresent(left) || !hitPresent(right) {
		return unmatchedResult(rec)
	}

	label, known := cat.SampleLabel(left.PatternName, right.PatternName)
	if !known {
		return unmatchedResult(rec)
	}

	return buildResult(rec, cfg, []Hit{left, right}, left.PatternName, right.PatternName, label)
}

func hitPresent(h Hit) bool {
	return h.PatternName != ""
}

func firstNonEmptyName(names ...string) string {
	for _, n := range names {
		if n != "" && n != pattern.NoEnd {
			return n
		}
	}
	return pattern.NoEnd
}

func unmatchedResult(rec record.Record) Result {
	return Result{
		Record:      rec,
		OutputKey:   UnmatchedKey,
		AnnotatedID: rec.ID,
		TrimmedSeq:  rec.Sequence,
		TrimmedQual: rec.Quality,
		Unmatched:   true,
	}
}

func buildResult(rec record.Record, cfg *config.Config, hits []Hit, forwardName, reverseName, label string) Result {
	seq, qual := trim(rec, hits, cfg.TrimMode)

	var left, right Hit
	var haveLeft, haveRight bool
	for _, h := range hits {
		if h.End == Left {
			left, haveLeft = h, true
		} else {
			right, haveRight = h, true
		}
	}

	outputKey := outputKey(cfg, forwardName, reverseName, label, haveLeft, haveRight)
	annotated := annotateID(rec.ID, cfg.IDSep, left, haveLeft, right, haveRight)

	return Result{
		Record:      rec,
		Hits:        hits,
		OutputKey:   outputKey,
		AnnotatedID: annotated,
		TrimmedSeq:  seq,
		TrimmedQual: qual,
	}
}

func outputKey(cfg *config.Config, forwardName, reverseName, label string, haveLeft, haveRight bool) string {
	if cfg.WriteType == config.WriteLabel {
		return label
	}
	switch {
	case haveLeft && haveRight:
		return forwardName + "_" + reverseName
	case haveLeft:
		return forwardName
	default:
		return reverseName
	}
}

func annotateID(id string, sep byte, left Hit, haveLeft bool, right Hit, haveRight bool) string {
	var endTag string
	switch {
	case haveLeft && haveRight:
		endTag = "LR"
	case haveLeft:
		endTag = "L"
	default:
		endTag = "R"
	}

	var parts []string
	parts = append(parts, "end:"+endTag)
	if haveLeft {
		parts = append(parts, fmt.Sprintf("fwd=%s,d=%d,p=%d", left.PatternName, left.EditDistance, left.Position))
	}
	if haveRight {
		parts = append(parts, fmt.Sprintf("rev=%s,d=%d,p=%d", right.PatternName, right.EditDistance, right.Position))
	}
	annotation := strings.Join(parts, ";")
	return id + string(sep) + annotation
}

// trim implements spec.md §4.3's trimming rules. trim_mode=0 removes the
// matched regions and everything outside the innermost hits. trim_mode=k>0
// retains the k outermost matched regions; with at most two matched regions
// per record in practice, every region present is retained once k>=1 (a
// single matched end is itself the complete set of regions when k=1, not a
// region to excise), so any k>=1 is a no-op over the untouched sequence.
func trim(rec record.Record, hits []Hit, trimMode int) ([]byte, []byte) {
	seq, qual := rec.Sequence, rec.Quality
	L := len(seq)

	var left, right Hit
	var haveLeft, haveRight bool
	for _, h := range hits {
		if h.End == Left {
			left, haveLeft = h, true
		} else {
			right, haveRight = h, true
		}
	}

	if trimMode >= 1 {
		return seq, qual
	}

	a := 0
	if haveLeft {
		a = left.Position + left.Length
	}
	b := L
	if haveRight {
		b = right.Position
	}
	if a > b {
		a = b
	}
	return seq[a:b], qual[a:b]
}
