// Package export renders report tables into downloadable files.
package export

import (
	"fmt"
	"strings"
)

// Format identifies an export encoding.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// ParseFormat normalises a user supplied format.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "text/csv; charset=utf-8"
}

// Table is an ordered grid of cells. Every row should have len(Headers) cells;
// short rows are padded with blanks.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// Renderer encodes a table.
type Renderer interface {
	Render(t Table) ([]byte, error)
}

// File is a rendered export ready to be served.
type File struct {
	Name        string
	ContentType string
	Payload     []byte
}

// Render encodes t in the given format.
func Render(format Format, t Table) ([]byte, error) {
	switch format {
	case FormatCSV:
		return NewCSVExporter().Render(t)
	case FormatPDF:
		return NewPDFExporter().Render(t)
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
