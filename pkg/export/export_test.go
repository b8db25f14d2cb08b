package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() Table {
	return Table{
		Title:   "Physics X-A",
		Headers: []string{"Name", "Attendance", "Exam"},
		Rows: [][]string{
			{"Ana, Putri", "09/10 (90%)", "88%"},
			{"Budi"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" PDF ")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)
	assert.Equal(t, "application/pdf", f.ContentType())

	_, err = ParseFormat("xlsx")
	assert.Error(t, err)
}

func TestCSVExporterQuotesAndPads(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleTable())
	require.NoError(t, err)
	assert.Equal(t, "Name,Attendance,Exam\n\"Ana, Putri\",09/10 (90%),88%\nBudi,,\n", string(out))
}

func TestPDFExporterProducesDocument(t *testing.T) {
	table := sampleTable()
	for i := 0; i < 60; i++ {
		table.Rows = append(table.Rows, []string{"Student", "01/01 (100%)", "70%"})
	}
	out, err := Render(FormatPDF, table)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderRejectsEmptyHeaders(t *testing.T) {
	_, err := Render(FormatCSV, Table{})
	assert.Error(t, err)
	_, err = Render(Format("doc"), sampleTable())
	assert.Error(t, err)
}
