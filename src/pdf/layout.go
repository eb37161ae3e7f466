package pdf

import "strings"

// Line is one wrapped line of a paragraph. Width is the natural (unjustified)
// width of Text at the wrap font and size.
type Line struct {
	Text  string
	Width float64
}

// WordPlacement is a word with its x offset from the column's left edge, as
// produced by Justify.
type WordPlacement struct {
	Word string
	X    float64
}

// Wrap greedily breaks text into lines no wider than maxWidth. Whitespace is
// normalized first, so any run of spaces, tabs or newlines counts as a single
// word separator. A single word wider than maxWidth is placed alone on its
// own line rather than split.
func Wrap(text string, maxWidth float64, font Font, size float64) []Line {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	spaceWidth := font.TextWidth(" ", size)

	var lines []Line
	current := words[0]
	currentWidth := font.TextWidth(words[0], size)

	for _, word := range words[1:] {
		wordWidth := font.TextWidth(word, size)
		if currentWidth+spaceWidth+wordWidth <= maxWidth {
			current += " " + word
			currentWidth += spaceWidth + wordWidth
			continue
		}
		lines = append(lines, Line{Text: current, Width: currentWidth})
		current = word
		currentWidth = wordWidth
	}
	lines = append(lines, Line{Text: current, Width: currentWidth})
	return lines
}

// Justify distributes the slack between line's natural width and maxWidth
// equally across the inter-word gaps, so the first word starts at x=0 and the
// right edge of the last word lands exactly on maxWidth. A one-word line is
// returned unjustified at x=0; callers skip Justify entirely for the last
// line of a paragraph.
func Justify(line Line, maxWidth float64, font Font, size float64) []WordPlacement {
	words := strings.Fields(line.Text)
	if len(words) == 0 {
		return nil
	}
	if len(words) == 1 {
		return []WordPlacement{{Word: words[0], X: 0}}
	}

	naturalSpace := font.TextWidth(" ", size)
	extra := (maxWidth - line.Width) / float64(len(words)-1)
	gap := naturalSpace + extra

	placements := make([]WordPlacement, 0, len(words))
	x := 0.0
	for _, word := range words {
		placements = append(placements, WordPlacement{Word: word, X: x})
		x += font.TextWidth(word, size) + gap
	}
	return placements
}
