package ui

import "testing"

func TestWrapText(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		width  int
		spaces int
		want   string
	}{
		{"fits", "Buy milk", 20, 0, "Buy milk"},
		{"wraps at word boundaries", "walk the dog today", 10, 0, "walk the\ndog today"},
		{"indents wrapped lines", "walk the dog today", 12, 2, "  walk the\n  dog today"},
		{"no width only indents", "walk the dog", 0, 4, "    walk the dog"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WrapText(tt.text, tt.width, tt.spaces); got != tt.want {
				t.Fatalf("WrapText() = %q, want %q", got, tt.want)
			}
		})
	}
}
