package services

import (
	"testing"

	"github.com/acmclub/certhub/internal/types"
)

func TestPlacePlaceholderScalesWithHeight(t *testing.T) {
	spec := types.PlaceholderSpec{X: 50, Y: 45, FontSize: 24, Alignment: "center"}

	p := placePlaceholder(spec, 2000, 1000)

	if p.X != 1000 {
		t.Fatalf("X: want=%v got=%v", 1000.0, p.X)
	}
	if p.Y != 450 {
		t.Fatalf("Y: want=%v got=%v", 450.0, p.Y)
	}
	// 24 authored against a 500px reference, doubled at 1000px.
	if p.FontSize != 48 {
		t.Fatalf("FontSize: want=%v got=%v", 48.0, p.FontSize)
	}
}

func TestPlacePlaceholderMinimumFontSize(t *testing.T) {
	spec := types.PlaceholderSpec{X: 0, Y: 0, FontSize: 1}

	p := placePlaceholder(spec, 100, 50)

	if p.FontSize != 1 {
		t.Fatalf("FontSize floor: want=%v got=%v", 1.0, p.FontSize)
	}
}

func TestPlacePlaceholderStaysInBounds(t *testing.T) {
	w, h := 1600, 900
	for x := 0.0; x <= 100; x += 12.5 {
		for y := 0.0; y <= 100; y += 12.5 {
			p := placePlaceholder(types.PlaceholderSpec{X: x, Y: y, FontSize: 16}, w, h)
			if p.X < 0 || p.X > float64(w) {
				t.Fatalf("X out of bounds at x=%v: got=%v", x, p.X)
			}
			if p.Y < 0 || p.Y > float64(h) {
				t.Fatalf("Y out of bounds at y=%v: got=%v", y, p.Y)
			}
		}
	}
}

func TestAlignmentAnchor(t *testing.T) {
	cases := []struct {
		alignment string
		want      float64
	}{
		{"left", 0},
		{"center", 0.5},
		{"right", 1},
		{"", 0.5},
		{"justify", 0.5},
	}
	for _, tc := range cases {
		if got := alignmentAnchor(tc.alignment); got != tc.want {
			t.Fatalf("alignmentAnchor(%q): want=%v got=%v", tc.alignment, tc.want, got)
		}
	}
}
