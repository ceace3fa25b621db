// Package fastqio adapts the shenwei356/bio FASTQ reader to the pipeline's
// record.Record type. It is the only package that imports fastx; output
// goes through internal/sink, which uses shenwei356/xopen.
package fastqio

import (
	"fmt"

	"github.com/shenwei356/bio/seqio/fastx"

	"github.com/Altius/bcdemux/internal/record"
)

// chunkBufSize and chunkSize mirror the buffering the reader uses to batch
// fastx's own chunked decode; they are independent of the pipeline's own
// batch size (internal/pipeline), which batches already-decoded records.
const (
	chunkBufSize = 4
	chunkSize    = 256
)

// Reader streams records out of one or more FASTQ (optionally gzipped)
// input files, translating fastx.Record into record.Record and surfacing
// malformed records as *record.ParseError instead of failing the whole
// file.
type Reader struct {
	paths []string
}

// NewReader builds a Reader over the given input files, read in order.
func NewReader(paths []string) *Reader {
	return &Reader{paths: paths}
}

// Each calls fn once per decoded record, in file order, stopping at the
// first error returned either by the underlying decoder or by fn itself.
// A *record.ParseError from a malformed FASTQ entry is passed to fn rather
// than aborting the scan, so the caller can apply its own malformed-record
// policy (see internal/pipeline).
func (r *Reader) Each(fn func(rec record.Record, parseErr error) error) error {
	for _, path := range r.paths {
		if err := r.eachInFile(path, fn); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reader) eachInFile(path string, fn func(rec record.Record, parseErr error) error) error {
	fq, err := fastx.NewDefaultReader(path)
	if err != nil {
		return fmt.Errorf("fastqio: opening %s: %w", path, err)
	}
	defer fq.Close()

	for chunk := range fq.ChunkChan(chunkBufSize, chunkSize) {
		if chunk.Err != nil {
			return fmt.Errorf("fastqio: reading %s: %w", path, chunk.Err)
		}
		for _, fr := range chunk.Data {
			rec := record.Record{
				ID:       string(fr.Name),
				Sequence: append([]byte(nil), fr.Seq.Seq...),
				Quality:  append([]byte(nil), fr.Seq.Qual...),
			}
			var parseErr error
			if verr := rec.Validate(); verr != nil {
				parseErr = verr
			}
			if err := fn(rec, parseErr); err != nil {
				return err
			}
		}
	}
	return nil
}
