package report

import (
	"bufio"
	"io"
	"strings"
	"time"

	"github.com/celerix-dev/certify-one/pkg/schema"
	"github.com/pkg/errors"
)

var csvHeader = []string{
	"Employee Name", "Role", "Department", "Training Type",
	"Training Name", "Status", "Category", "Date",
}

// WriteCSV writes one row per record. Every cell is double-quoted, embedded
// quotes are doubled and rows end with a bare newline.
func WriteCSV(w io.Writer, records []schema.Record) error {
	bw := bufio.NewWriter(w)
	writeRow(bw, csvHeader)
	for _, rec := range records {
		b := rec.Common()
		date := rec.PrimaryDate()
		if date == "" {
			date = "N/A"
		}
		writeRow(bw, []string{
			b.EmployeeName,
			b.Role,
			b.Department,
			string(rec.Kind()),
			rec.Title(),
			string(b.Status),
			b.Category,
			date,
		})
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, "write csv")
	}
	return nil
}

func writeRow(w *bufio.Writer, cells []string) {
	for i, cell := range cells {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteByte('"')
		w.WriteString(strings.ReplaceAll(cell, `"`, `""`))
		w.WriteByte('"')
	}
	w.WriteByte('\n')
}

// ExportFilename names an export by its UTC date.
func ExportFilename(now time.Time) string {
	return "training_records_" + now.UTC().Format("2006-01-02") + ".csv"
}
