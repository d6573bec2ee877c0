package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rosterTable() Table {
	return Table{
		Title:    "CS101 Introduction to Programming",
		Subtitle: "Fall 2026",
		Columns:  []string{"Student ID", "Name", "Email", "Status"},
		Rows: [][]string{
			{"S-001", "Ada Lovelace", "ada@univ.test", "enrolled"},
			{"S-002", "Alan Turing", "alan@univ.test", "completed"},
		},
	}
}

func TestRenderCSV(t *testing.T) {
	out, err := RenderCSV(rosterTable())
	require.NoError(t, err)
	expected := "Student ID,Name,Email,Status\nS-001,Ada Lovelace,ada@univ.test,enrolled\nS-002,Alan Turing,alan@univ.test,completed\n"
	assert.Equal(t, expected, string(out))
}

func TestRenderCSVRejectsRaggedRows(t *testing.T) {
	table := rosterTable()
	table.Rows = append(table.Rows, []string{"only-one"})
	_, err := RenderCSV(table)
	assert.Error(t, err)
}

func TestRenderPDF(t *testing.T) {
	out, err := RenderPDF(rosterTable())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderPDFRequiresColumns(t *testing.T) {
	_, err := RenderPDF(Table{})
	assert.Error(t, err)
}

func TestColumnWidthsFitPage(t *testing.T) {
	widths := columnWidths(rosterTable())
	total := 0.0
	for _, w := range widths {
		total += w
	}
	assert.InDelta(t, pageWidth, total, 0.5)
}
