package export

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sample() Dataset {
	return Dataset{
		Headers: []string{"Name", "Student ID", "Status"},
		Rows: [][]string{
			{"Amy", "A-1", "active"},
			{"Émile, Jr.", "E-7", "banned until 2026-10-22"},
		},
	}
}

func TestCSVRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sample(), "")
	require.NoError(t, err)
	assert.Equal(t, "Name,Student ID,Status\nAmy,A-1,active\n\"Émile, Jr.\",E-7,banned until 2026-10-22\n", string(out))
}

func TestRenderRejectsRaggedRows(t *testing.T) {
	data := sample()
	data.Rows = append(data.Rows, []string{"only one"})

	_, err := NewCSVExporter().Render(data, "")
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(data, "Roster")
	assert.Error(t, err)
	_, err = NewCSVExporter().Render(Dataset{}, "")
	assert.Error(t, err)
}

func TestPDFRenderPaginates(t *testing.T) {
	data := sample()
	for i := 0; i < 120; i++ {
		data.Rows = append(data.Rows, []string{fmt.Sprintf("Student %d", i), fmt.Sprintf("S-%d", i), "active"})
	}
	exporter := NewPDFExporter()
	exporter.now = func() time.Time { return time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC) }

	out, err := exporter.Render(data, "Student roster")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Equal(t, "application/pdf", exporter.ContentType())
}

func TestXLSXRenderRoundTrips(t *testing.T) {
	out, err := NewXLSXExporter().Render(sample(), "")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Roster")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Name", "Student ID", "Status"}, rows[0])
	assert.Equal(t, "Émile, Jr.", rows[2][0])
}
