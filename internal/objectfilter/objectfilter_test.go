package objectfilter

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func det(name string, conf float64) Detection {
	return Detection{ClassName: name, Confidence: conf}
}

func TestApplyConfidenceGates(t *testing.T) {
	f := NewFilter(DefaultConfig())

	sig := f.Apply([]Detection{
		det("person", 0.45),     // passes person gate
		det("person", 0.35),     // below person gate
		det("cell phone", 0.55), // passes general gate
		det("book", 0.45),       // below general gate
	})

	if sig.PersonCount != 1 {
		t.Fatalf("person count = %d, want 1", sig.PersonCount)
	}
	if diff := cmp.Diff([]string{"phone"}, sig.Labels()); diff != "" {
		t.Fatalf("forbidden items mismatch (-want +got):\n%s", diff)
	}
	if len(sig.Accepted) != 2 {
		t.Fatalf("accepted = %d detections, want 2", len(sig.Accepted))
	}
}

func TestApplyCanonicalAliases(t *testing.T) {
	f := NewFilter(DefaultConfig())

	sig := f.Apply([]Detection{
		det("Cell Phone", 0.9),
		det("phone", 0.8),
		det("LAPTOP", 0.7),
	})

	// Aliases map onto the canonical label; every detection still counts.
	want := []string{"phone", "phone", "laptop"}
	if diff := cmp.Diff(want, sig.Labels()); diff != "" {
		t.Fatalf("forbidden items mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyRepeatedClassCountsPerDetection(t *testing.T) {
	f := NewFilter(DefaultConfig())

	sig := f.Apply([]Detection{
		det("cell phone", 0.9),
		det("cell phone", 0.8),
	})

	// Two phones in view are two separate violations, each carrying its
	// own detection evidence.
	want := []ForbiddenItem{
		{Label: "phone", Confidence: 0.9},
		{Label: "phone", Confidence: 0.8},
	}
	if diff := cmp.Diff(want, sig.ForbiddenItems); diff != "" {
		t.Fatalf("forbidden items mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyMultiplePersons(t *testing.T) {
	f := NewFilter(DefaultConfig())

	sig := f.Apply([]Detection{
		det("person", 0.9),
		det("person", 0.41),
	})
	if !sig.MultiplePersons() {
		t.Fatal("expected multiple persons")
	}
	if sig.HasForbidden() {
		t.Fatal("no forbidden items were present")
	}
}

func TestApplyEmptyInput(t *testing.T) {
	f := NewFilter(DefaultConfig())
	sig := f.Apply(nil)

	if sig.PersonCount != 0 || sig.HasForbidden() || len(sig.Accepted) != 0 {
		t.Fatalf("empty input produced non-empty signal: %+v", sig)
	}
	// Slices are non-nil so JSON encodes them as empty arrays.
	if sig.ForbiddenItems == nil || sig.Accepted == nil {
		t.Fatal("signal slices should be initialised")
	}
}

func TestApplyNonForbiddenClassesAccepted(t *testing.T) {
	f := NewFilter(DefaultConfig())
	sig := f.Apply([]Detection{det("bottle", 0.9), det("chair", 0.6)})

	if sig.HasForbidden() {
		t.Fatalf("bottle and chair are not forbidden: %v", sig.ForbiddenItems)
	}
	if len(sig.Accepted) != 2 {
		t.Fatalf("accepted = %d detections, want 2", len(sig.Accepted))
	}
}
