package student

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrEmptyRoster = errors.New("no data provided")

	headerAliases = map[string]string{
		"first":      "first_name",
		"firstname":  "first_name",
		"first name": "first_name",
		"first_name": "first_name",
		"last":       "last_name",
		"lastname":   "last_name",
		"last name":  "last_name",
		"last_name":  "last_name",
		"email":      "email",
		"grade":      "grade",
		"homeroom":   "homeroom",
	}
	requiredHeaders = []string{"first_name", "last_name"}
)

// RowError reports a roster row that could not be imported. Row is 1-based and counts the header.
type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// Roster is the result of parsing a CSV (or TSV) class list.
type Roster struct {
	Students []NewStudent `json:"students"`
	Errors   []RowError   `json:"errors"`
}

// ParseRoster reads a delimited roster. The delimiter is sniffed from the header line (tab or comma).
// Rows with neither name are ignored; rows with only one name are reported in Roster.Errors.
func ParseRoster(r io.Reader) (Roster, error) {
	br := bufio.NewReader(r)
	firstLine, err := br.Peek(4096)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return Roster{}, errors.Wrap(err, "reading roster")
	}
	if strings.TrimSpace(string(firstLine)) == "" {
		return Roster{}, ErrEmptyRoster
	}

	reader := csv.NewReader(br)
	reader.Comma = sniffDelimiter(string(firstLine))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return Roster{}, errors.Wrap(err, "reading roster header")
	}
	cols := normalizeHeaders(headers)
	for _, h := range requiredHeaders {
		if _, ok := cols[h]; !ok {
			return Roster{}, fmt.Errorf("missing required column: %q", h)
		}
	}

	roster := Roster{Students: make([]NewStudent, 0)}
	for row := 2; ; row++ {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return Roster{}, errors.Wrapf(err, "reading roster row %d", row)
		}

		get := func(name string) string {
			idx, ok := cols[name]
			if !ok || idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}

		first, last := get("first_name"), get("last_name")
		if first == "" && last == "" {
			continue
		}
		if first == "" || last == "" {
			roster.Errors = append(roster.Errors, RowError{Row: row, Error: "first and last name are required"})
			continue
		}
		roster.Students = append(roster.Students, NewStudent{
			FirstName: first,
			LastName:  last,
			Email:     get("email"),
			Grade:     get("grade"),
			Homeroom:  get("homeroom"),
		})
	}
	return roster, nil
}

func sniffDelimiter(text string) rune {
	line := text
	if i := strings.IndexAny(text, "\r\n"); i >= 0 {
		line = text[:i]
	}
	if strings.Count(line, "\t") > strings.Count(line, ",") {
		return '\t'
	}
	return ','
}

func normalizeHeaders(headers []string) map[string]int {
	result := make(map[string]int, len(headers))
	for idx, header := range headers {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header, "\ufeff")))
		if alias, ok := headerAliases[key]; ok {
			key = alias
		}
		if _, exists := result[key]; !exists {
			result[key] = idx
		}
	}
	return result
}
