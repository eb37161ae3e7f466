package pdf

// Geometry fixes the page size and margins for a flow. All values are points.
type Geometry struct {
	PageWidth    float64
	PageHeight   float64
	MarginLeft   float64
	MarginRight  float64
	MarginTop    float64
	MarginBottom float64
}

// A4 geometry with 54pt (19mm) margins.
func A4() Geometry {
	return Geometry{
		PageWidth:    595.28,
		PageHeight:   841.89,
		MarginLeft:   54,
		MarginRight:  54,
		MarginTop:    54,
		MarginBottom: 54,
	}
}

// PageFlow owns the vertical cursor for a document being composed. Call sites
// never touch a raw y value: every drop goes through Advance, which inserts a
// page break first when the next content unit would not fit. Chrome (letterhead,
// footer) is redrawn on every page the flow opens.
type PageFlow struct {
	doc     *Document
	geom    Geometry
	chrome  func(p *Page, geom Geometry)
	page    *Page
	cursorY float64
}

// NewPageFlow starts a flow on doc and opens the first page. chrome may be
// nil for undecorated documents.
func NewPageFlow(doc *Document, geom Geometry, chrome func(p *Page, geom Geometry)) *PageFlow {
	pf := &PageFlow{doc: doc, geom: geom, chrome: chrome}
	pf.NewPage()
	return pf
}

// NewPage unconditionally opens a fresh page, redraws chrome and resets the
// cursor to the top margin. Cover pages and forced section breaks call this
// directly, bypassing the overflow check.
func (pf *PageFlow) NewPage() {
	pf.page = pf.doc.AddPage(pf.geom.PageWidth, pf.geom.PageHeight)
	pf.cursorY = pf.geom.PageHeight - pf.geom.MarginTop
	if pf.chrome != nil {
		pf.chrome(pf.page, pf.geom)
	}
}

// EnsureSpace opens a new page if fewer than h points remain above the bottom
// margin. It reports whether a break happened. The check runs before each
// atomic content unit, never mid-unit, so units are never split across pages.
func (pf *PageFlow) EnsureSpace(h float64) bool {
	if pf.cursorY-h < pf.geom.MarginBottom {
		pf.NewPage()
		return true
	}
	return false
}

// Advance drops the cursor by h, breaking to a new page first if h does not
// fit.
func (pf *PageFlow) Advance(h float64) {
	pf.EnsureSpace(h)
	pf.cursorY -= h
}

// Page returns the page currently being drawn on.
func (pf *PageFlow) Page() *Page {
	return pf.page
}

// Y returns the current baseline position.
func (pf *PageFlow) Y() float64 {
	return pf.cursorY
}

// ContentWidth is the usable width between the side margins.
func (pf *PageFlow) ContentWidth() float64 {
	return pf.geom.PageWidth - pf.geom.MarginLeft - pf.geom.MarginRight
}

// ContentLeft is the x position of the left margin.
func (pf *PageFlow) ContentLeft() float64 {
	return pf.geom.MarginLeft
}

// DrawText wraps text into the content width and draws it line by line,
// advancing by lineSpacing per line. When justified is true every line except
// the paragraph's last is stretched to fill the column exactly.
func (pf *PageFlow) DrawText(text string, font Font, size, lineSpacing float64, justified bool) {
	pf.DrawTextWidth(text, pf.geom.MarginLeft, pf.ContentWidth(), font, size, lineSpacing, justified)
}

// DrawTextWidth is DrawText constrained to an arbitrary column.
func (pf *PageFlow) DrawTextWidth(text string, x, width float64, font Font, size, lineSpacing float64, justified bool) {
	lines := Wrap(text, width, font, size)
	for i, line := range lines {
		pf.Advance(lineSpacing)
		last := i == len(lines)-1
		if justified && !last {
			for _, wp := range Justify(line, width, font, size) {
				pf.page.Text(x+wp.X, pf.cursorY, font, size, wp.Word)
			}
		} else {
			pf.page.Text(x, pf.cursorY, font, size, line.Text)
		}
	}
}

// DrawTextCentered draws a single line centered between the margins.
func (pf *PageFlow) DrawTextCentered(text string, font Font, size, lineSpacing float64) {
	pf.Advance(lineSpacing)
	w := font.TextWidth(text, size)
	x := pf.geom.MarginLeft + (pf.ContentWidth()-w)/2
	pf.page.Text(x, pf.cursorY, font, size, text)
}

// DrawTextRight draws a single line flush against the right margin.
func (pf *PageFlow) DrawTextRight(text string, font Font, size, lineSpacing float64) {
	pf.Advance(lineSpacing)
	w := font.TextWidth(text, size)
	x := pf.geom.PageWidth - pf.geom.MarginRight - w
	pf.page.Text(x, pf.cursorY, font, size, text)
}
