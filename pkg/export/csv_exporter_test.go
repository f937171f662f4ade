package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterKeepsColumnOrder(t *testing.T) {
	exporter := NewCSVExporter()

	payload, err := exporter.Render(Dataset{
		Columns: []string{"Title", "Status", "Grade"},
		Rows: [][]string{
			{"Worksheet", "PENDING", ""},
			{"Midterm", "COMPLETED", "95.00"},
		},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Title,Status,Grade", lines[0])
	assert.Equal(t, "Worksheet,PENDING,", lines[1])
	assert.Equal(t, "Midterm,COMPLETED,95.00", lines[2])
}

func TestCSVExporterPadsShortRows(t *testing.T) {
	exporter := NewCSVExporter()

	payload, err := exporter.Render(Dataset{
		Columns: []string{"Title", "Status"},
		Rows:    [][]string{{"Worksheet"}},
	})
	require.NoError(t, err)
	assert.Contains(t, string(payload), "Worksheet,")
}

func TestCSVExporterRequiresColumns(t *testing.T) {
	exporter := NewCSVExporter()

	_, err := exporter.Render(Dataset{})
	require.Error(t, err)
}
