package textnorm

import (
	"reflect"
	"testing"
)

func TestNormalizeLowercasesAndDeduplicates(t *testing.T) {
	set := Normalize("Budget  budget PLAN\nplan")
	if len(set) != 2 {
		t.Fatalf("expected 2 distinct words, got %d", len(set))
	}
	if !set.Contains("budget") || !set.Contains("plan") {
		t.Fatalf("missing expected words in %v", set)
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	if got := Normalize("   \t\n"); len(got) != 0 {
		t.Fatalf("expected empty set, got %v", got)
	}
}

func TestOverlapIsOrderIndependent(t *testing.T) {
	a := Normalize("q3 report final")
	b := Normalize("final q3 budget")
	if Overlap(a, b) != Overlap(b, a) {
		t.Fatal("overlap must be symmetric")
	}
	if got := Overlap(a, b); got != 2 {
		t.Fatalf("expected overlap 2, got %d", got)
	}
}

func TestOverlapDisjointSets(t *testing.T) {
	if got := Overlap(Normalize("alpha beta"), Normalize("gamma delta")); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestSharedWordsDeterministicOrder(t *testing.T) {
	a := Normalize("zebra apple mango")
	b := Normalize("mango zebra kiwi apple")
	want := []string{"apple", "mango", "zebra"}
	for i := 0; i < 20; i++ {
		if got := SharedWords(a, b); !reflect.DeepEqual(got, want) {
			t.Fatalf("iteration %d: got %v, want %v", i, got, want)
		}
	}
}
