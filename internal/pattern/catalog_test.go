package pattern

import "testing"

const testDB = `# decrypted pattern database
BC01	ACGTACGTAC
BC02	TTGGCCAATT
RC01	GGCCTTAAGG
`

func TestLoadDualEndSplitsForwardAndReverse(t *testing.T) {
	index := "#index_F\tindex_R\ttype\nBC01\tRC01\tsampleA\nBC02\t\tsampleB\n"
	cat, err := Load([]byte(testDB), []byte(index))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cat.ForwardPatterns()) != 2 {
		t.Errorf("forward patterns = %d, want 2", len(cat.ForwardPatterns()))
	}
	if len(cat.ReversePatterns()) != 1 {
		t.Errorf("reverse patterns = %d, want 1", len(cat.ReversePatterns()))
	}
	if label, ok := cat.SampleLabel("BC01", "RC01"); !ok || label != "sampleA" {
		t.Errorf("SampleLabel(BC01, RC01) = (%q, %v), want (sampleA, true)", label, ok)
	}
	if label, ok := cat.SampleLabel("BC02", NoEnd); !ok || label != "sampleB" {
		t.Errorf("SampleLabel(BC02, none) = (%q, %v), want (sampleB, true)", label, ok)
	}
	if _, ok := cat.SampleLabel("BC01", NoEnd); !ok {
		t.Error("SampleLabel(BC01, none) should resolve via the forward-only fallback entry")
	}
}

func TestLoadSingleEndOnlyWhenReverseColumnBlank(t *testing.T) {
	index := "#index_F\tindex_R\ttype\nBC01\t\tsampleA\nBC02\t\tsampleB\n"
	cat, err := Load([]byte(testDB), []byte(index))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cat.ReversePatterns()) != 0 {
		t.Errorf("reverse patterns = %d, want 0", len(cat.ReversePatterns()))
	}
}

func TestLoadRejectsIndexReferencingUnknownPattern(t *testing.T) {
	index := "#index_F\tindex_R\ttype\nMISSING\t\tsampleA\n"
	_, err := Load([]byte(testDB), []byte(index))
	if err == nil {
		t.Fatal("Load: expected an error for an index row referencing an unknown pattern")
	}
	le, ok := err.(*LoadError)
	if !ok || le.Kind != "missing-pattern" {
		t.Errorf("err = %v, want a LoadError of kind missing-pattern", err)
	}
}

func TestLoadRejectsDuplicatePatternName(t *testing.T) {
	db := testDB + "BC01\tGGGGGGGGGG\n"
	_, err := Load([]byte(db), []byte("#index_F\tindex_R\ttype\nBC01\t\tsampleA\n"))
	if err == nil {
		t.Fatal("Load: expected an error for a duplicate pattern name")
	}
	le, ok := err.(*LoadError)
	if !ok || le.Kind != "duplicate-pattern" {
		t.Errorf("err = %v, want a LoadError of kind duplicate-pattern", err)
	}
}

func TestLoadRejectsMalformedDatabaseLine(t *testing.T) {
	_, err := Load([]byte("BC01\n"), []byte("#index_F\tindex_R\ttype\n"))
	if err == nil {
		t.Fatal("Load: expected an error for a database line missing the bases column")
	}
}

func TestLoadRejectsInvalidBases(t *testing.T) {
	_, err := Load([]byte("BC01\tACGTXYZ\n"), []byte("#index_F\tindex_R\ttype\nBC01\t\tsampleA\n"))
	if err == nil {
		t.Fatal("Load: expected an error for non-ACGTN bases")
	}
}

func TestLoadIgnoresPatternNotReferencedByIndex(t *testing.T) {
	cat, err := Load([]byte(testDB), []byte("#index_F\tindex_R\ttype\nBC01\t\tsampleA\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, p := range cat.ForwardPatterns() {
		if p.Name == "BC02" || p.Name == "RC01" {
			t.Errorf("unreferenced pattern %q should not appear in the forward set", p.Name)
		}
	}
}
