// Package sink implements the output keyed sink: one append-only FASTQ
// stream per observed output key, opened lazily on first write, flushed and
// closed on every exit path. The sink is driven only by the writer stage of
// internal/pipeline and performs no locking of its own.
package sink

import (
	"fmt"
	"path/filepath"

	"github.com/shenwei356/xopen"

	"github.com/Altius/bcdemux/internal/classify"
)

// Sink owns one *xopen.Writer per output key, rooted at outDir. The
// reserved key "unmatched" is opened eagerly so unmatched.fastq exists even
// on a run that classifies every record.
type Sink struct {
	outDir  string
	writers map[string]*xopen.Writer
	order   []string
}

// New creates a Sink rooted at outDir. The "unmatched" stream is opened
// immediately; every other key is opened lazily on first Append.
func New(outDir string) (*Sink, error) {
	s := &Sink{
		outDir:  outDir,
		writers: make(map[string]*xopen.Writer),
	}
	if _, err := s.writerFor(classify.UnmatchedKey); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sink) writerFor(key string) (*xopen.Writer, error) {
	if w, ok := s.writers[key]; ok {
		return w, nil
	}
	path := filepath.Join(s.outDir, key+".fastq")
	w, err := xopen.Wopen(path)
	if err != nil {
		return nil, fmt.Errorf("sink: opening %s: %w", path, err)
	}
	s.writers[key] = w
	s.order = append(s.order, key)
	return w, nil
}

// Append writes one classified record's FASTQ four-line form to the stream
// for result.OutputKey, opening that stream if this is its first record.
func (s *Sink) Append(result classify.Result) error {
	w, err := s.writerFor(result.OutputKey)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "@%s\n%s\n+\n%s\n", result.AnnotatedID, result.TrimmedSeq, result.TrimmedQual); err != nil {
		return fmt.Errorf("sink: writing key %q: %w", result.OutputKey, err)
	}
	return nil
}

// Keys returns every key that has had at least one stream opened, in the
// order streams were first created. "unmatched" is always first.
func (s *Sink) Keys() []string {
	return append([]string(nil), s.order...)
}

// Close flushes and closes every open stream and returns the first error
// encountered; Close always attempts every stream regardless of
// earlier failures, so a write-error on one key never leaks the rest.
func (s *Sink) Close() error {
	var firstErr error
	for _, key := range s.order {
		w := s.writers[key]
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("sink: closing key %q: %w", key, err)
		}
	}
	return firstErr
}
