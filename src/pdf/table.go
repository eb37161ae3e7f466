package pdf

// Align positions cell text inside its column.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Column is one fixed-width table column. Widths are absolute points; there
// is no auto-fit.
type Column struct {
	Width  float64
	Header string
	Align  Align
}

// TableOptions tune fonts, spacing and shading for one DrawTable call.
type TableOptions struct {
	FontSize    float64
	LineSpacing float64
	CellPadding float64
	HeaderFill  *RGB // nil leaves the header row unshaded
	RowFill     *RGB // applied to alternate body rows when set
}

// DefaultTableOptions returns the spacing used by the quotation documents.
func DefaultTableOptions() TableOptions {
	lightGrey := RGB{0.85, 0.85, 0.85}
	return TableOptions{
		FontSize:    9,
		LineSpacing: 11,
		CellPadding: 4,
		HeaderFill:  &lightGrey,
	}
}

// DrawTable draws a full-grid table at the current cursor, advancing row by
// row. Cell text is wrapped within the cell width; the tallest cell sets the
// row height. The page-break check runs per row, so a row never straddles
// two pages. A value that still cannot fit (a single word wider than its
// column) renders past the cell border rather than failing the generation.
func (pf *PageFlow) DrawTable(x float64, cols []Column, rows [][]string, opts TableOptions) {
	if len(cols) == 0 {
		return
	}
	if opts.FontSize == 0 {
		opts = DefaultTableOptions()
	}

	headers := make([]string, len(cols))
	hasHeader := false
	for i, c := range cols {
		headers[i] = c.Header
		if c.Header != "" {
			hasHeader = true
		}
	}
	if hasHeader {
		pf.drawTableRow(x, cols, headers, HelveticaBold, opts, opts.HeaderFill)
	}
	for i, row := range rows {
		var fill *RGB
		if opts.RowFill != nil && i%2 == 1 {
			fill = opts.RowFill
		}
		pf.drawTableRow(x, cols, row, Helvetica, opts, fill)
	}
}

func (pf *PageFlow) drawTableRow(x float64, cols []Column, cells []string, font Font, opts TableOptions, fill *RGB) {
	wrapped := make([][]Line, len(cols))
	maxLines := 1
	for i := range cols {
		text := ""
		if i < len(cells) {
			text = cells[i]
		}
		wrapped[i] = Wrap(text, cols[i].Width-2*opts.CellPadding, font, opts.FontSize)
		if len(wrapped[i]) > maxLines {
			maxLines = len(wrapped[i])
		}
	}
	rowHeight := float64(maxLines)*opts.LineSpacing + 2*opts.CellPadding

	pf.EnsureSpace(rowHeight)
	top := pf.cursorY
	bottom := top - rowHeight
	page := pf.page

	if fill != nil {
		page.SetFillColor(*fill)
		totalWidth := 0.0
		for _, c := range cols {
			totalWidth += c.Width
		}
		page.FillRect(x, bottom, totalWidth, rowHeight)
		page.SetFillColor(Black)
	}

	cellX := x
	for i, col := range cols {
		page.Rect(cellX, bottom, col.Width, rowHeight)

		lineY := top - opts.CellPadding - opts.LineSpacing + (opts.LineSpacing-opts.FontSize)/2
		for _, line := range wrapped[i] {
			textX := cellX + opts.CellPadding
			switch col.Align {
			case AlignCenter:
				textX = cellX + (col.Width-line.Width)/2
			case AlignRight:
				textX = cellX + col.Width - opts.CellPadding - line.Width
			}
			page.Text(textX, lineY, font, opts.FontSize, line.Text)
			lineY -= opts.LineSpacing
		}
		cellX += col.Width
	}

	pf.cursorY = bottom
}
