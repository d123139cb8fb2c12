package utils

import (
	"math"
	"testing"
)

func TestFingerprint_StableForEqualMaps(t *testing.T) {
	a := map[string]any{"title": "Run", "done": false, "score": 3}
	b := map[string]any{"score": 3, "done": false, "title": "Run"}

	fpA, err := Fingerprint(a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fpB, err := Fingerprint(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if fpA != fpB {
		t.Fatalf("expected equal fingerprints, got %s and %s", fpA, fpB)
	}
	if len(fpA) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(fpA))
	}
}

func TestFingerprint_DiffersOnContent(t *testing.T) {
	fpA, _ := Fingerprint(map[string]any{"score": 3})
	fpB, _ := Fingerprint(map[string]any{"score": 4})

	if fpA == fpB {
		t.Fatal("expected different fingerprints for different content")
	}
}

func TestFingerprint_UnencodableValue(t *testing.T) {
	if _, err := Fingerprint(math.NaN()); err == nil {
		t.Fatal("expected error for NaN")
	}
}
