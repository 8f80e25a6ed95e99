package ids

import (
	"testing"
	"time"
)

func TestGenerate(t *testing.T) {
	id := Generate("buy milk", DefaultLength)

	if len(id) != DefaultLength {
		t.Fatalf("expected ID length %d, got %d: %q", DefaultLength, len(id), id)
	}

	for _, c := range id {
		if !((c >= 'a' && c <= 'z') || (c >= '2' && c <= '7')) {
			t.Errorf("ID contains invalid character %q: %q", c, id)
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	if Generate("buy milk", 10) != Generate("buy milk", 10) {
		t.Error("same inputs should produce same ID")
	}
	if Generate("buy milk", 10) == Generate("walk dog", 10) {
		t.Error("different inputs should produce different IDs")
	}
}

func TestGenerate_NonPositiveLength(t *testing.T) {
	if got := Generate("buy milk", 0); got != "" {
		t.Fatalf("expected empty ID, got %q", got)
	}
}

func TestGenerateWithTimestamp(t *testing.T) {
	timestamp := time.Date(2024, 3, 2, 9, 12, 0, 0, time.UTC)

	id1 := GenerateWithTimestamp("buy milk", timestamp, 8)
	id2 := GenerateWithTimestamp("buy milk", timestamp.In(time.FixedZone("x", 3600)), 8)
	if id1 != id2 {
		t.Errorf("same instant should produce same ID: got %q and %q", id1, id2)
	}

	id3 := GenerateWithTimestamp("buy milk", timestamp.Add(time.Nanosecond), 8)
	if id1 == id3 {
		t.Error("different timestamps should produce different IDs")
	}
}
