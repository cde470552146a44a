package tui

import (
	"strings"
	"testing"
)

func TestBuildBarFillsFraction(t *testing.T) {
	bar := buildBar(0.5, 10)
	if len(bar) != 10 {
		t.Fatalf("expected 10 cells, got %d", len(bar))
	}
	for i, item := range bar {
		want := barPendingStyle.Render(barEmpty)
		if i < 5 {
			want = barFilledStyle.Render(barFull)
		}
		if item.s != want {
			t.Fatalf("unexpected cell %d: %q", i, item.s)
		}
	}
}

func TestBuildBarClamps(t *testing.T) {
	for _, frac := range []float64{-1, 2} {
		bar := buildBar(frac, 4)
		want := barPendingStyle.Render(barEmpty)
		if frac > 1 {
			want = barFilledStyle.Render(barFull)
		}
		for _, item := range bar {
			if item.s != want {
				t.Fatalf("fraction %v not clamped: %q", frac, item.s)
			}
		}
	}
	if buildBar(0.5, 0) != nil {
		t.Fatalf("expected empty bar for zero width")
	}
}

func TestWrapStyledRunesBreaksAtSpaces(t *testing.T) {
	runes := buildStyledText("sound file missing", footerStyle)
	out := wrapStyledRunes(runes, 11)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", out)
	}
	if lines[0] != renderStyledRunes(buildStyledText("sound file", footerStyle)) {
		t.Fatalf("unexpected first line %q", lines[0])
	}
}

func TestWrapStyledRunesHardBreaksLongWords(t *testing.T) {
	runes := buildStyledText("abcdefgh", footerStyle)
	out := wrapStyledRunes(runes, 3)
	if got := strings.Count(out, "\n"); got != 2 {
		t.Fatalf("expected 2 breaks, got %d in %q", got, out)
	}
}

func TestBuildStyledTextWideRunes(t *testing.T) {
	runes := buildStyledText("瞑想", footerStyle)
	if lineWidthOf(runes) != 4 {
		t.Fatalf("expected display width 4, got %d", lineWidthOf(runes))
	}
}
