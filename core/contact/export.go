package contact

import (
	"encoding/csv"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/educonnect/core/student"
)

const (
	ExportContentType = "text/csv; charset=utf-8"

	exportDateLayout  = "Jan 2, 2006"
	exportTimeLayout  = "15:04"
	exportISOLayout   = "2006-01-02T15:04:05.000Z"
	exportStampLayout = "2006-01-02-15-04-05"
)

var (
	exportHeader = []string{
		"student_name", "date", "time", "occurred_at_iso", "method", "reason", "subject", "summary",
	}
	unsafeFilenameChars = regexp.MustCompile(`[^\w.,-]+`)
)

// WriteCSV writes `contacts` as CSV with a header line. Dates and times are rendered in `loc`.
func WriteCSV(w io.Writer, contacts []Contact, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		return errors.Wrap(err, "writing csv header")
	}
	for _, c := range contacts {
		name := ""
		if c.Student != nil {
			name = c.Student.LastName + ", " + c.Student.FirstName
		}
		at := c.OccurredAt.In(loc)
		record := []string{
			name,
			at.Format(exportDateLayout),
			at.Format(exportTimeLayout),
			c.OccurredAt.UTC().Format(exportISOLayout),
			string(c.Method),
			string(c.Category),
			c.Subject,
			c.Summary,
		}
		if err := writer.Write(record); err != nil {
			return errors.Wrapf(err, "writing contact %s", c.ID)
		}
	}
	writer.Flush()
	return errors.Wrap(writer.Error(), "flushing csv")
}

// ExportFilename names the export of a filtered history,
// eg. "contacts_name-ada_method-phone_2024-01-03-15-00-00.csv".
func ExportFilename(filter RecentFilter, now time.Time) string {
	parts := []string{"contacts"}
	for _, p := range []struct{ key, value string }{
		{"name", filter.Student},
		{"reason", filter.Reason},
		{"method", filter.Method},
	} {
		if v := filenamePart(p.value); v != "" {
			parts = append(parts, p.key+"-"+v)
		}
	}
	parts = append(parts, now.UTC().Format(exportStampLayout))
	return strings.Join(parts, "_") + ".csv"
}

// StudentExportFilename names the export of one student's contacts, eg. "contacts_Lovelace_Ada_2024-01-03-15-00-00.csv".
func StudentExportFilename(s student.Student, now time.Time) string {
	parts := []string{"contacts", filenamePart(s.LastName), filenamePart(s.FirstName), now.UTC().Format(exportStampLayout)}
	return strings.Join(parts, "_") + ".csv"
}

func filenamePart(s string) string {
	s = strings.Join(strings.Fields(s), "_")
	return strings.Trim(unsafeFilenameChars.ReplaceAllString(s, "_"), "_")
}
