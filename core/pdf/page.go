package pdf

import "bytes"

// Page geometry, in PDF user units (1/72 inch). Letter size.
const (
	PageWidth   = 612
	PageHeight  = 792
	Margin      = 64
	DefaultGap  = 18
	DefaultSize = 12
)

type Font string

const (
	FontRegular Font = "F1"
	FontBold    Font = "F2"
)

var baseFonts = map[Font]string{
	FontRegular: "Helvetica",
	FontBold:    "Helvetica-Bold",
}

// Line is one text placement. Zero values select the defaults:
// FontRegular, DefaultSize, and DefaultGap below the previous line.
type Line struct {
	Text string
	Font Font
	Size float64
	Gap  float64
}

// Content renders the content stream placing `lines` top to bottom from the top margin.
func Content(lines []Line) []byte {
	var buf bytes.Buffer
	y := float64(PageHeight - Margin)
	for i, line := range lines {
		if i > 0 {
			gap := line.Gap
			if gap == 0 {
				gap = DefaultGap
			}
			y -= gap
		}
		font := line.Font
		if font == "" {
			font = FontRegular
		}
		size := line.Size
		if size == 0 {
			size = DefaultSize
		}

		buf.WriteString("BT\n/")
		buf.WriteString(string(font))
		buf.WriteByte(' ')
		buf.WriteString(formatNum(size))
		buf.WriteString(" Tf\n1 0 0 1 ")
		buf.WriteString(formatNum(Margin))
		buf.WriteByte(' ')
		buf.WriteString(formatNum(y))
		buf.WriteString(" Tm\n(")
		buf.Write(EncodeText(line.Text))
		buf.WriteString(") Tj\nET\n")
	}
	return buf.Bytes()
}

// Encode builds a single-page document showing `lines`.
// Objects: 1 catalog, 2 page tree, 3 page, 4 content stream, 5 regular font, 6 bold font.
func Encode(lines []Line) ([]byte, error) {
	w := NewWriter()
	catalog, pages, page, content := w.Alloc(), w.Alloc(), w.Alloc(), w.Alloc()
	regular, bold := w.Alloc(), w.Alloc()

	objects := []struct {
		num  int
		body string
	}{
		{catalog, "<< /Type /Catalog /Pages " + Ref(pages) + " >>"},
		{pages, "<< /Type /Pages /Count 1 /Kids [" + Ref(page) + "] >>"},
		{page, "<< /Type /Page /Parent " + Ref(pages) +
			" /MediaBox [0 0 " + formatNum(PageWidth) + " " + formatNum(PageHeight) + "]" +
			" /Contents " + Ref(content) +
			" /Resources << /Font << /" + string(FontRegular) + " " + Ref(regular) +
			" /" + string(FontBold) + " " + Ref(bold) + " >> >> >>"},
	}
	for _, obj := range objects {
		if err := w.Object(obj.num, obj.body); err != nil {
			return nil, err
		}
	}
	if err := w.Stream(content, Content(lines)); err != nil {
		return nil, err
	}
	if err := w.Object(regular, fontDict(FontRegular)); err != nil {
		return nil, err
	}
	if err := w.Object(bold, fontDict(FontBold)); err != nil {
		return nil, err
	}
	return w.Finish(catalog)
}

func fontDict(f Font) string {
	return "<< /Type /Font /Subtype /Type1 /BaseFont /" + baseFonts[f] + " /Encoding /WinAnsiEncoding >>"
}
