// Package record defines the immutable FASTQ record type shared by the
// reader, classifier, and sink. A Record is created by the reader, owned by
// exactly one worker at a time, and released after being handed to the
// writer.
package record

import "fmt"

// Record is one FASTQ entry: an ID, a nucleotide sequence, the separator
// line (always "+" on output regardless of what was read), and a Phred
// quality string of equal length to the sequence.
type Record struct {
	ID       string
	Sequence []byte
	Quality  []byte
}

// Validate reports a RecordParseError if sequence and quality lengths
// disagree, the FASTQ malformation spec.md §7 calls out explicitly.
func (r Record) Validate() error {
	if len(r.Sequence) != len(r.Quality) {
		return &ParseError{
			ID:     r.ID,
			Reason: fmt.Sprintf("sequence length %d != quality length %d", len(r.Sequence), len(r.Quality)),
		}
	}
	return nil
}

// ParseError reports a malformed FASTQ record: length mismatch between
// sequence and quality, or a missing '+' separator line.
type ParseError struct {
	ID     string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("record parse error (id=%q): %s", e.ID, e.Reason)
}
