// Package pattern loads and indexes the named barcode patterns used by the
// classifier: the decrypted pattern database (name -> bases) and the
// sample-index file that joins a forward/reverse pattern pair to a sample
// label.
package pattern

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// NoEnd is the sentinel substituted for a missing forward or reverse name
// when deriving a sample label for single-end classifications.
const NoEnd = "none"

// Pattern is a single named barcode sequence.
type Pattern struct {
	Name  string
	Type  string
	Bytes []byte
}

// Catalog is the immutable, read-only-after-construction set of forward and
// reverse patterns plus the sample-label mapping derived from the index
// file. It is shared by reference across all worker goroutines.
type Catalog struct {
	forward    []Pattern
	reverse    []Pattern
	forwardIdx map[string]int
	reverseIdx map[string]int
	samples    map[pairKey]string
}

type pairKey struct {
	forward, reverse string
}

// ForwardPatterns returns the forward (5') pattern set in database order.
func (c *Catalog) ForwardPatterns() []Pattern { return c.forward }

// ReversePatterns returns the reverse (3') pattern set in database order.
func (c *Catalog) ReversePatterns() []Pattern { return c.reverse }

// SampleLabel resolves a (forwardName, reverseName) pair to a sample label.
// Either side may be NoEnd for single-end lookups. Every index row registers
// its own pair plus the (forward, NoEnd) and, when it has a reverse name,
// (NoEnd, reverse) pairs. Reports false if no row registered the pair.
func (c *Catalog) SampleLabel(forwardName, reverseName string) (string, bool) {
	label, ok := c.samples[pairKey{forwardName, reverseName}]
	return label, ok
}

// LoadError reports a failure while parsing the database or index file.
type LoadError struct {
	Kind   string // "missing-pattern", "duplicate-pattern", "malformed"
	Name   string
	Line   int
	Reason string
}

func (e *LoadError) Error() string {
	switch e.Kind {
	case "missing-pattern":
		return fmt.Sprintf("pattern catalog: index references unknown pattern %q", e.Name)
	case "duplicate-pattern":
		return fmt.Sprintf("pattern catalog: duplicate pattern name %q", e.Name)
	case "malformed":
		return fmt.Sprintf("pattern catalog: malformed line %d: %s", e.Line, e.Reason)
	default:
		return fmt.Sprintf("pattern catalog: %s", e.Reason)
	}
}

func errMissing(name string) error   { return &LoadError{Kind: "missing-pattern", Name: name} }
func errDup(name string) error       { return &LoadError{Kind: "duplicate-pattern", Name: name} }
func errMalformed(line int, reason string) error {
	return &LoadError{Kind: "malformed", Line: line, Reason: reason}
}

// rawEntry is one name/bases pair as read from the database file, in file
// order, before it is known whether it belongs to the forward or reverse
// set.
type rawEntry struct {
	name  string
	bases []byte
}

// parseDatabase reads `name\tbytes` lines from the decrypted database. Blank
// lines and lines starting with '#' are ignored. Order is preserved.
func parseDatabase(r io.Reader) ([]rawEntry, error) {
	seen := make(map[string]struct{})
	var entries []rawEntry

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			return nil, errMalformed(lineNo, "expected name\\tbases")
		}
		name := strings.TrimSpace(fields[0])
		bases := []byte(strings.ToUpper(strings.TrimSpace(fields[1])))
		if name == "" {
			return nil, errMalformed(lineNo, "empty pattern name")
		}
		if !validBases(bases) {
			return nil, errMalformed(lineNo, fmt.Sprintf("invalid bases for pattern %q", name))
		}
		if _, dup := seen[name]; dup {
			return nil, errDup(name)
		}
		seen[name] = struct{}{}
		entries = append(entries, rawEntry{name: name, bases: bases})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("pattern catalog: reading database: %w", err)
	}
	return entries, nil
}

func validBases(b []byte) bool {
	for _, c := range b {
		switch c {
		case 'A', 'C', 'G', 'T', 'N':
		default:
			return false
		}
	}
	return len(b) > 0
}

// indexRow is one (forward, reverse, sampleLabel) row from the sample-index
// file.
type indexRow struct {
	forward, reverse, label string
}

// parseIndex reads the tab-separated sample-index file. The first line is a
// '#'-prefixed header; blank lines are ignored.
func parseIndex(r io.Reader) ([]indexRow, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows []indexRow
	lineNo := 0
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		lineNo++
		if err != nil {
			return nil, fmt.Errorf("pattern catalog: reading index: %w", err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(rec[0]), "#") {
			continue
		}
		if len(rec) < 3 {
			return nil, errMalformed(lineNo, "expected index_F\\tindex_R\\ttype")
		}
		forward := strings.TrimSpace(rec[0])
		reverse := strings.TrimSpace(rec[1])
		label := strings.TrimSpace(rec[2])
		if label == "" {
			return nil, errMalformed(lineNo, "empty sample label")
		}
		rows = append(rows, indexRow{forward: forward, reverse: reverse, label: label})
	}
	return rows, nil
}

// Load parses the decrypted pattern database and the sample-index file into
// a Catalog. dbBytes holds `name\tbases` lines; indexBytes holds the
// tab-separated `index_F\tindex_R\ttype` rows.
//
// A forward/reverse split is inferred from the index: any database entry
// whose name appears in the index's first column is forward, any whose name
// appears in the second column is reverse. A name referenced by neither
// column but present in the database is kept out of both sets (dead
// entries are allowed; only index references to *absent* patterns are an
// error). When the index's reverse column is entirely blank, the reverse
// set is empty and the catalog operates in single-end-only mode.
func Load(dbBytes, indexBytes []byte) (*Catalog, error) {
	entries, err := parseDatabase(bytes.NewReader(dbBytes))
	if err != nil {
		return nil, err
	}
	rows, err := parseIndex(bytes.NewReader(indexBytes))
	if err != nil {
		return nil, err
	}

	byName := make(map[string][]byte, len(entries))
	for _, e := range entries {
		byName[e.name] = e.bases
	}

	isForward := make(map[string]struct{})
	isReverse := make(map[string]struct{})
	for _, row := range rows {
		isForward[row.forward] = struct{}{}
		if row.reverse != "" && row.reverse != NoEnd {
			isReverse[row.reverse] = struct{}{}
		}
		if _, ok := byName[row.forward]; !ok {
			return nil, errMissing(row.forward)
		}
		if row.reverse != "" && row.reverse != NoEnd {
			if _, ok := byName[row.reverse]; !ok {
				return nil, errMissing(row.reverse)
			}
		}
	}

	c := &Catalog{
		forwardIdx: make(map[string]int),
		reverseIdx: make(map[string]int),
		samples:    make(map[pairKey]string, len(rows)),
	}
	for _, e := range entries {
		if _, ok := isForward[e.name]; ok {
			c.forwardIdx[e.name] = len(c.forward)
			c.forward = append(c.forward, Pattern{Name: e.name, Bytes: e.bases})
		}
		if _, ok := isReverse[e.name]; ok {
			c.reverseIdx[e.name] = len(c.reverse)
			c.reverse = append(c.reverse, Pattern{Name: e.name, Bytes: e.bases})
		}
	}

	for _, row := range rows {
		forward, reverse := row.forward, row.reverse
		if reverse == "" {
			reverse = NoEnd
		}
		c.samples[pairKey{forward, reverse}] = row.label
		c.samples[pairKey{forward, NoEnd}] = row.label
		if reverse != NoEnd {
			c.samples[pairKey{NoEnd, reverse}] = row.label
		}
		// annotate pattern types with the owning sample label
		if i, ok := c.forwardIdx[forward]; ok {
			c.forward[i].Type = row.label
		}
		if reverse != NoEnd {
			if i, ok := c.reverseIdx[reverse]; ok {
				c.reverse[i].Type = row.label
			}
		}
	}

	return c, nil
}
