// Package pdf renders paginated documents as PDF 1.4 byte streams with no
// external layout dependency: text measurement, word wrap, justification,
// page flow and table drawing are all done through explicit coordinate
// bookkeeping in PDF points (1 point = 1/72 inch).
package pdf

// Font selects one of the two embedded base-14 faces. Both are Type1 fonts
// every PDF viewer ships, so no font program is embedded in the file.
type Font int

const (
	Helvetica Font = iota
	HelveticaBold
)

const numFonts = 2

// resourceName is the name the font is registered under in each page's
// resource dictionary.
func (f Font) resourceName() string {
	if f == HelveticaBold {
		return "F2"
	}
	return "F1"
}

func (f Font) baseName() string {
	if f == HelveticaBold {
		return "Helvetica-Bold"
	}
	return "Helvetica"
}

// Glyph advance widths in 1/1000 em for the printable ASCII range (32..126),
// taken from the Adobe AFM metrics. Characters outside the range fall back
// to the width of a lowercase letter, which keeps wrap decisions sane for
// the occasional accented Latin-1 character without carrying the full table.
var helveticaWidths = [95]int{
	278, 278, 355, 556, 556, 889, 667, 191, 333, 333, 389, 584, 278, 333,
	278, 278, 556, 556, 556, 556, 556, 556, 556, 556, 556, 556, 278, 278,
	584, 584, 584, 556, 1015, 667, 667, 722, 722, 667, 611, 778, 722, 278,
	500, 667, 556, 833, 722, 778, 667, 778, 722, 667, 611, 722, 667, 944,
	667, 667, 611, 278, 278, 278, 469, 556, 333, 556, 556, 500, 556, 556,
	278, 556, 556, 222, 222, 500, 222, 833, 556, 556, 556, 556, 333, 500,
	278, 556, 500, 722, 500, 500, 500, 334, 260, 334, 584,
}

var helveticaBoldWidths = [95]int{
	278, 333, 474, 556, 556, 889, 722, 238, 333, 333, 389, 584, 278, 333,
	278, 278, 556, 556, 556, 556, 556, 556, 556, 556, 556, 556, 333, 333,
	584, 584, 584, 611, 975, 722, 722, 722, 722, 667, 611, 778, 722, 278,
	556, 722, 611, 833, 722, 778, 667, 778, 722, 667, 611, 722, 667, 944,
	667, 667, 611, 333, 278, 333, 584, 556, 333, 556, 611, 556, 611, 556,
	333, 611, 611, 278, 278, 556, 278, 889, 611, 611, 611, 611, 389, 556,
	333, 611, 556, 778, 556, 556, 500, 389, 280, 389, 584,
}

const fallbackWidth = 556

// TextWidth measures s at the given size, in points.
func (f Font) TextWidth(s string, size float64) float64 {
	widths := &helveticaWidths
	if f == HelveticaBold {
		widths = &helveticaBoldWidths
	}
	units := 0
	for _, r := range s {
		if r >= 32 && r <= 126 {
			units += widths[r-32]
		} else {
			units += fallbackWidth
		}
	}
	return float64(units) * size / 1000
}
