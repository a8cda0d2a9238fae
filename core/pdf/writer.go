// Package pdf writes minimal single-page PDF 1.4 documents made of positioned text lines.
//
// Only the two standard Helvetica faces are used, so no font program is embedded and
// any conforming viewer can render the result. There is no wrapping nor pagination:
// lines that do not fit the page are clipped by the viewer.
package pdf

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

var header = []byte("%PDF-1.4\n%\xE2\xE3\xCF\xD3\n")

// Writer serializes indirect objects in one pass and keeps the byte offset of each of them,
// so the cross-reference table can be emitted last.
type Writer struct {
	buf     bytes.Buffer
	offsets []int // offsets[n-1] is the offset of object n; -1 until written
}

func NewWriter() *Writer {
	w := new(Writer)
	w.buf.Write(header)
	return w
}

// Alloc reserves the next object number, so that objects can reference each other before being written.
func (w *Writer) Alloc() int {
	w.offsets = append(w.offsets, -1)
	return len(w.offsets)
}

// Object writes object `num` with the given dictionary (or any other direct object) as body.
func (w *Writer) Object(num int, body string) error {
	if err := w.begin(num); err != nil {
		return err
	}
	fmt.Fprintf(&w.buf, "%d 0 obj %s endobj\n", num, body)
	return nil
}

// Stream writes object `num` as a stream whose /Length is the exact byte length of `content`.
func (w *Writer) Stream(num int, content []byte) error {
	if err := w.begin(num); err != nil {
		return err
	}
	fmt.Fprintf(&w.buf, "%d 0 obj << /Length %d >>\nstream\n", num, len(content))
	w.buf.Write(content)
	w.buf.WriteString("\nendstream\nendobj\n")
	return nil
}

func (w *Writer) begin(num int) error {
	if num < 1 || num > len(w.offsets) {
		return errors.Errorf("pdf: object %d was not allocated", num)
	}
	if w.offsets[num-1] >= 0 {
		return errors.Errorf("pdf: object %d written twice", num)
	}
	w.offsets[num-1] = w.buf.Len()
	return nil
}

// Finish appends the cross-reference table and the trailer pointing at `root`, and returns the document.
// The Writer must not be used afterwards.
func (w *Writer) Finish(root int) ([]byte, error) {
	for i, off := range w.offsets {
		if off < 0 {
			return nil, errors.Errorf("pdf: object %d allocated but never written", i+1)
		}
	}
	if root < 1 || root > len(w.offsets) {
		return nil, errors.Errorf("pdf: root object %d does not exist", root)
	}

	startxref := w.buf.Len()
	size := len(w.offsets) + 1
	fmt.Fprintf(&w.buf, "xref\n0 %d\n0000000000 65535 f \n", size)
	for _, off := range w.offsets {
		fmt.Fprintf(&w.buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&w.buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF", size, root, startxref)
	return w.buf.Bytes(), nil
}

// Ref renders an indirect reference to object `num`.
func Ref(num int) string {
	return strconv.Itoa(num) + " 0 R"
}
