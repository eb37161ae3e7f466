package pdf

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"
)

const pdfVersion = "1.4"

// RGB is a device RGB color with components in [0, 1].
type RGB struct {
	R, G, B float64
}

var (
	Black = RGB{0, 0, 0}
	White = RGB{1, 1, 1}
)

// Info is the document metadata written to the PDF Info dictionary.
type Info struct {
	Title    string
	Author   string
	Subject  string
	Producer string
}

// image is a registered JPEG XObject shared by all pages.
type image struct {
	name   string
	data   []byte
	width  int
	height int
}

// Document collects pages and registered images, then serializes the whole
// file in one pass. One Document is built per generation request and
// discarded after Bytes; it holds no cross-request state.
type Document struct {
	info     Info
	compress bool
	pages    []*Page
	images   []image
}

// Page owns a content stream under construction. All drawing methods append
// PDF operators; coordinates are in points with the origin at the bottom-left
// corner of the page.
type Page struct {
	width  float64
	height float64
	buf    strings.Builder
}

// NewDocument returns an empty document with compressed content streams.
func NewDocument(info Info) *Document {
	return &Document{info: info, compress: true}
}

// NewUncompressedDocument skips zlib compression; useful when inspecting the
// raw content stream in tests.
func NewUncompressedDocument(info Info) *Document {
	return &Document{info: info}
}

// AddPage appends a new blank page of the given size and returns it.
func (d *Document) AddPage(width, height float64) *Page {
	p := &Page{width: width, height: height}
	d.pages = append(d.pages, p)
	return p
}

// PageCount returns the number of pages added so far.
func (d *Document) PageCount() int {
	return len(d.pages)
}

// ErrNotJPEG is returned when image data fails JPEG header parsing.
var ErrNotJPEG = errors.New("image data is not a baseline JPEG")

// RegisterJPEG registers raw JPEG bytes as a shared image XObject and returns
// the name pages use to draw it, plus the pixel dimensions read from the SOF
// marker.
func (d *Document) RegisterJPEG(data []byte) (name string, width, height int, err error) {
	width, height, err = jpegDimensions(data)
	if err != nil {
		return "", 0, 0, err
	}
	name = fmt.Sprintf("Im%d", len(d.images)+1)
	d.images = append(d.images, image{name: name, data: data, width: width, height: height})
	return name, width, height, nil
}

// jpegDimensions walks the JPEG marker segments looking for a start-of-frame
// header carrying the pixel size.
func jpegDimensions(data []byte) (int, int, error) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return 0, 0, ErrNotJPEG
	}
	i := 2
	for i+4 <= len(data) {
		if data[i] != 0xFF {
			return 0, 0, ErrNotJPEG
		}
		marker := data[i+1]
		// SOF0..SOF3: baseline and progressive frames.
		if marker >= 0xC0 && marker <= 0xC3 {
			if i+9 > len(data) {
				return 0, 0, ErrNotJPEG
			}
			h := int(binary.BigEndian.Uint16(data[i+5:]))
			w := int(binary.BigEndian.Uint16(data[i+7:]))
			return w, h, nil
		}
		segLen := int(binary.BigEndian.Uint16(data[i+2:]))
		i += 2 + segLen
	}
	return 0, 0, ErrNotJPEG
}

// --- Page drawing primitives ---

// SetFillColor sets the non-stroking color for subsequent text and fills.
func (p *Page) SetFillColor(c RGB) {
	fmt.Fprintf(&p.buf, "%.3f %.3f %.3f rg\n", c.R, c.G, c.B)
}

// SetStrokeColor sets the stroking color for subsequent lines and borders.
func (p *Page) SetStrokeColor(c RGB) {
	fmt.Fprintf(&p.buf, "%.3f %.3f %.3f RG\n", c.R, c.G, c.B)
}

// SetLineWidth sets the stroke width in points.
func (p *Page) SetLineWidth(w float64) {
	fmt.Fprintf(&p.buf, "%.2f w\n", w)
}

// Text draws s with its baseline at (x, y).
func (p *Page) Text(x, y float64, font Font, size float64, s string) {
	p.buf.WriteString("BT\n")
	fmt.Fprintf(&p.buf, "/%s %.2f Tf\n", font.resourceName(), size)
	fmt.Fprintf(&p.buf, "%.2f %.2f Td\n", x, y)
	fmt.Fprintf(&p.buf, "(%s) Tj\n", escapeString(s))
	p.buf.WriteString("ET\n")
}

// Line strokes a straight line between two points.
func (p *Page) Line(x1, y1, x2, y2 float64) {
	fmt.Fprintf(&p.buf, "%.2f %.2f m\n%.2f %.2f l\nS\n", x1, y1, x2, y2)
}

// Rect strokes a rectangle with bottom-left corner at (x, y).
func (p *Page) Rect(x, y, w, h float64) {
	fmt.Fprintf(&p.buf, "%.2f %.2f %.2f %.2f re S\n", x, y, w, h)
}

// FillRect fills a rectangle with the current fill color.
func (p *Page) FillRect(x, y, w, h float64) {
	fmt.Fprintf(&p.buf, "%.2f %.2f %.2f %.2f re f\n", x, y, w, h)
}

// Image draws a registered image XObject scaled into the given box.
func (p *Page) Image(name string, x, y, w, h float64) {
	fmt.Fprintf(&p.buf, "q\n%.2f 0 0 %.2f %.2f %.2f cm\n/%s Do\nQ\n", w, h, x, y, name)
}

func escapeString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "(", "\\(")
	s = strings.ReplaceAll(s, ")", "\\)")
	return s
}

// --- Serialization ---

// Object layout: 1 catalog, 2 page tree, 3..4 fonts, then one object per
// image, then a stream+page pair per page, Info dictionary last.
func (d *Document) Bytes() []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("%%PDF-%s\n", pdfVersion))
	buf.WriteString("%\xE2\xE3\xCF\xD3\n")

	imageBase := 2 + numFonts              // first image object number - 1
	pageBase := imageBase + len(d.images)  // first stream object number - 1
	firstPageObj := pageBase + 2           // object number of page 1's dict
	infoObj := pageBase + 2*len(d.pages) + 1

	kids := make([]string, 0, len(d.pages))
	for i := range d.pages {
		kids = append(kids, fmt.Sprintf("%d 0 R", firstPageObj+2*i))
	}

	objects := make([]string, 0, infoObj)
	objects = append(objects, "<< /Type /Catalog\n/Pages 2 0 R\n>>")
	objects = append(objects, fmt.Sprintf("<< /Type /Pages\n/Kids [%s]\n/Count %d\n>>",
		strings.Join(kids, " "), len(d.pages)))
	for _, f := range []Font{Helvetica, HelveticaBold} {
		objects = append(objects, fmt.Sprintf(
			"<< /Type /Font\n/Subtype /Type1\n/BaseFont /%s\n/Encoding /WinAnsiEncoding\n>>", f.baseName()))
	}
	for _, img := range d.images {
		objects = append(objects, fmt.Sprintf(
			"<< /Type /XObject\n/Subtype /Image\n/Width %d\n/Height %d\n/ColorSpace /DeviceRGB\n/BitsPerComponent 8\n/Filter /DCTDecode\n/Length %d\n>>\nstream\n%sendstream",
			img.width, img.height, len(img.data), img.data))
	}

	resources := d.resourceDict()
	for _, p := range d.pages {
		streamObjNum := len(objects) + 1
		objects = append(objects, d.contentStreamObject(p.buf.String()))
		objects = append(objects, fmt.Sprintf(
			"<< /Type /Page\n/Parent 2 0 R\n/MediaBox [0 0 %.2f %.2f]\n/Contents %d 0 R\n/Resources %s\n>>",
			p.width, p.height, streamObjNum, resources))
	}
	objects = append(objects, d.infoDict())

	xref := make([]int, len(objects))
	for i, obj := range objects {
		xref[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xrefPos := buf.Len()
	buf.WriteString("xref\n")
	fmt.Fprintf(&buf, "0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, pos := range xref {
		fmt.Fprintf(&buf, "%010d 00000 n \n", pos)
	}

	buf.WriteString("trailer\n")
	fmt.Fprintf(&buf, "<< /Size %d\n/Root 1 0 R\n/Info %d 0 R\n>>", len(objects)+1, infoObj)
	buf.WriteString("\nstartxref\n")
	fmt.Fprintf(&buf, "%d\n", xrefPos)
	buf.WriteString("%%EOF\n")

	return buf.Bytes()
}

func (d *Document) resourceDict() string {
	var sb strings.Builder
	sb.WriteString("<< /Font << /F1 3 0 R /F2 4 0 R >>")
	if len(d.images) > 0 {
		sb.WriteString(" /XObject <<")
		for i, img := range d.images {
			fmt.Fprintf(&sb, " /%s %d 0 R", img.name, 2+numFonts+i+1)
		}
		sb.WriteString(" >>")
	}
	sb.WriteString(" >>")
	return sb.String()
}

func (d *Document) contentStreamObject(content string) string {
	var streamData []byte
	var filter string
	if d.compress {
		var zbuf bytes.Buffer
		zw := zlib.NewWriter(&zbuf)
		zw.Write([]byte(content))
		zw.Close()
		streamData = zbuf.Bytes()
		filter = "/Filter /FlateDecode\n"
	} else {
		streamData = []byte(content)
	}
	return fmt.Sprintf("<< /Length %d\n%s>>\nstream\n%sendstream", len(streamData), filter, streamData)
}

func (d *Document) infoDict() string {
	var sb strings.Builder
	sb.WriteString("<<\n")
	if d.info.Title != "" {
		fmt.Fprintf(&sb, "/Title (%s)\n", escapeString(d.info.Title))
	}
	if d.info.Author != "" {
		fmt.Fprintf(&sb, "/Author (%s)\n", escapeString(d.info.Author))
	}
	if d.info.Subject != "" {
		fmt.Fprintf(&sb, "/Subject (%s)\n", escapeString(d.info.Subject))
	}
	if d.info.Producer != "" {
		fmt.Fprintf(&sb, "/Producer (%s)\n", escapeString(d.info.Producer))
	}
	now := time.Now().UTC().Format("D:20060102150405Z")
	fmt.Fprintf(&sb, "/CreationDate (%s)\n/ModDate (%s)\n", now, now)
	sb.WriteString(">>")
	return sb.String()
}
