package window

import "testing"

func TestExtract(t *testing.T) {
	tests := []struct {
		name        string
		seqLen      int
		spec        Spec
		wantLeft    Bounds
		wantRight   Bounds
	}{
		{"ample room", 100, Spec{10, 10}, Bounds{0, 10}, Bounds{90, 100}},
		{"overlapping windows", 15, Spec{10, 10}, Bounds{0, 10}, Bounds{5, 15}},
		{"zero windows disable matching", 50, Spec{0, 0}, Bounds{0, 0}, Bounds{50, 50}},
		{"windows larger than sequence", 5, Spec{10, 10}, Bounds{0, 5}, Bounds{0, 5}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			left, right := Extract(tc.seqLen, tc.spec)
			if left != tc.wantLeft {
				t.Errorf("left = %+v, want %+v", left, tc.wantLeft)
			}
			if right != tc.wantRight {
				t.Errorf("right = %+v, want %+v", right, tc.wantRight)
			}
		})
	}
}

func TestTooShort(t *testing.T) {
	if !TooShort(50, 100) {
		t.Errorf("50 < 100 should be too short")
	}
	if TooShort(100, 100) {
		t.Errorf("100 >= 100 should not be too short")
	}
}
