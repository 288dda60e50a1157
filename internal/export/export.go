// Package export renders the task collection for use outside the app.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/nibzard/todo-go/internal/persist"
	"github.com/nibzard/todo-go/internal/todo"
)

// Formats lists the supported export formats.
var Formats = []string{"json", "yaml", "csv", "pdf"}

// Export renders tasks in the named format.
func Export(tasks []todo.Task, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "json":
		return persist.JSONCodec{}.Encode(tasks)
	case "yaml", "yml":
		return persist.YAMLCodec{}.Encode(tasks)
	case "csv":
		return exportCSV(tasks)
	case "pdf":
		return exportPDF(tasks)
	default:
		return nil, fmt.Errorf("unknown format %q, must be one of: %s", format, strings.Join(Formats, ", "))
	}
}

// CSVHeader is the first row of a CSV export.
var CSVHeader = []string{"id", "title", "description", "completed"}

func exportCSV(tasks []todo.Task) ([]byte, error) {
	var b bytes.Buffer
	w := csv.NewWriter(&b)
	if err := w.Write(CSVHeader); err != nil {
		return nil, err
	}
	for _, t := range tasks {
		if err := w.Write([]string{t.ID, t.Title, t.Description, fmt.Sprint(t.Completed)}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return b.Bytes(), nil
}

func exportPDF(tasks []todo.Task) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Tasks", true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(40, 10, "Tasks")
	pdf.Ln(10)

	pending, completed := todo.CountByState(tasks)
	pdf.SetFont("Arial", "", 9)
	pdf.Cell(40, 6, fmt.Sprintf("%d pending, %d completed", pending, completed))
	pdf.Ln(10)

	for _, t := range tasks {
		mark := "[ ]"
		if t.Completed {
			mark = "[x]"
		}
		pdf.SetFont("Arial", "", 11)
		pdf.MultiCell(0, 6, tr(mark+" "+t.Title), "0", "L", false)
		if t.Description != "" {
			pdf.SetFont("Arial", "I", 9)
			pdf.SetX(pdf.GetX() + 8)
			pdf.MultiCell(0, 5, tr(t.Description), "0", "L", false)
		}
		pdf.Ln(1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
