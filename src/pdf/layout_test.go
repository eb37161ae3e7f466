package pdf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap_FitsMaxWidth(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog while the lazy dog " +
		"sleeps through the whole affair without stirring once"
	maxWidth := 180.0

	lines := Wrap(text, maxWidth, Helvetica, 10)
	require.NotEmpty(t, lines)

	for i, line := range lines {
		assert.LessOrEqual(t, line.Width, maxWidth, "line %d too wide: %q", i, line.Text)
		assert.InDelta(t, Helvetica.TextWidth(line.Text, 10), line.Width, 1e-9)
	}

	// No words are lost or reordered.
	var rejoined []string
	for _, line := range lines {
		rejoined = append(rejoined, line.Text)
	}
	assert.Equal(t, strings.Fields(text), strings.Fields(strings.Join(rejoined, " ")))
}

func TestWrap_NormalizesWhitespace(t *testing.T) {
	lines := Wrap("alpha\t beta\n\ngamma   delta", 10000, Helvetica, 10)
	require.Len(t, lines, 1)
	assert.Equal(t, "alpha beta gamma delta", lines[0].Text)
}

func TestWrap_ShortTextSingleLine(t *testing.T) {
	lines := Wrap("fits comfortably", 500, Helvetica, 10)
	require.Len(t, lines, 1)
	assert.Equal(t, "fits comfortably", lines[0].Text)
}

func TestWrap_Stable(t *testing.T) {
	// Re-wrapping already-wrapped lines at the same width changes nothing.
	text := "a paragraph long enough to break across a handful of lines at this measure"
	lines := Wrap(text, 150, Helvetica, 10)
	require.Greater(t, len(lines), 1)

	for i, line := range lines {
		again := Wrap(line.Text, 150, Helvetica, 10)
		require.Len(t, again, 1, "line %d split on re-wrap", i)
		assert.Equal(t, line.Text, again[0].Text)
		assert.InDelta(t, line.Width, again[0].Width, 1e-9)
	}
}

func TestWrap_EmptyText(t *testing.T) {
	assert.Nil(t, Wrap("", 100, Helvetica, 10))
	assert.Nil(t, Wrap("   \n\t ", 100, Helvetica, 10))
}

func TestWrap_OversizedWordGetsOwnLine(t *testing.T) {
	long := strings.Repeat("m", 60)
	lines := Wrap("short "+long+" tail", 50, Helvetica, 10)
	require.Len(t, lines, 3)
	assert.Equal(t, "short", lines[0].Text)
	assert.Equal(t, long, lines[1].Text)
	assert.Equal(t, "tail", lines[2].Text)
	// The oversized word is kept whole even though it overflows.
	assert.Greater(t, lines[1].Width, 50.0)
}

func TestWrap_GreedyPacking(t *testing.T) {
	// Each line holds as many words as fit: adding the first word of the
	// next line would push it past maxWidth.
	text := "one two three four five six seven eight nine ten eleven twelve"
	maxWidth := 120.0
	lines := Wrap(text, maxWidth, Helvetica, 12)
	require.Greater(t, len(lines), 1)

	spaceWidth := Helvetica.TextWidth(" ", 12)
	for i := 0; i < len(lines)-1; i++ {
		firstNext := strings.Fields(lines[i+1].Text)[0]
		overflow := lines[i].Width + spaceWidth + Helvetica.TextWidth(firstNext, 12)
		assert.Greater(t, overflow, maxWidth, "line %d had room for %q", i, firstNext)
	}
}

func TestJustify_FillsMaxWidth(t *testing.T) {
	maxWidth := 200.0
	lines := Wrap("a steady stream of words to be spread across the measure", maxWidth, Helvetica, 10)
	require.Greater(t, len(lines), 1)

	for i, line := range lines[:len(lines)-1] {
		placements := Justify(line, maxWidth, Helvetica, 10)
		words := strings.Fields(line.Text)
		require.Len(t, placements, len(words))

		assert.Zero(t, placements[0].X, "line %d first word not at x=0", i)

		last := placements[len(placements)-1]
		rightEdge := last.X + Helvetica.TextWidth(last.Word, 10)
		assert.InDelta(t, maxWidth, rightEdge, 1e-6, "line %d right edge", i)

		// Gaps are equal across the line.
		if len(placements) > 2 {
			gap0 := placements[1].X - (placements[0].X + Helvetica.TextWidth(placements[0].Word, 10))
			for j := 1; j < len(placements)-1; j++ {
				gap := placements[j+1].X - (placements[j].X + Helvetica.TextWidth(placements[j].Word, 10))
				assert.InDelta(t, gap0, gap, 1e-9, "line %d gap %d", i, j)
			}
		}
	}
}

func TestJustify_SingleWordStaysLeft(t *testing.T) {
	line := Line{Text: "alone", Width: Helvetica.TextWidth("alone", 10)}
	placements := Justify(line, 300, Helvetica, 10)
	require.Len(t, placements, 1)
	assert.Equal(t, "alone", placements[0].Word)
	assert.Zero(t, placements[0].X)
}

func TestTextWidth_ProportionalToSize(t *testing.T) {
	w10 := Helvetica.TextWidth("Measure", 10)
	w20 := Helvetica.TextWidth("Measure", 20)
	assert.InDelta(t, w10*2, w20, 1e-9)

	// Bold glyphs are wider than regular ones.
	assert.Greater(t, HelveticaBold.TextWidth("Measure", 10), w10)
}
