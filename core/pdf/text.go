package pdf

import (
	"strconv"

	"golang.org/x/text/encoding/charmap"
)

// EncodeText converts `s` to WinAnsi (Windows-1252) bytes for use in a string literal.
// Runes outside of WinAnsi become '?'. Backslashes and parentheses are escaped.
func EncodeText(s string) []byte {
	out := make([]byte, 0, len(s)+8)
	for _, r := range s {
		b, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			b = '?'
		}
		switch b {
		case '\\', '(', ')':
			out = append(out, '\\', b)
		default:
			out = append(out, b)
		}
	}
	return out
}

func formatNum(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
