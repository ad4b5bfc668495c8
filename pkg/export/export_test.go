package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRender(t *testing.T) {
	data := Dataset{
		Headers: []string{"Student", "Note", "Delta"},
		Rows: [][]string{
			{"Asha", "=HYPERLINK(\"x\")", "-2"},
			{"Ravi, K", "@cmd"},
		},
	}
	out, err := NewCSV().Render(data)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Student,Note,Delta", lines[0])
	assert.Equal(t, `Asha,"'=HYPERLINK(""x"")",-2`, lines[1])
	assert.Equal(t, `"Ravi, K",'@cmd,`, lines[2])
}

func TestNeutralizeFormula(t *testing.T) {
	cases := map[string]string{
		"":       "",
		"plain":  "plain",
		"-12.5":  "-12.5",
		"-":      "'-",
		"-1+1":   "'-1+1",
		"+SUM()": "'+SUM()",
	}
	for in, want := range cases {
		assert.Equal(t, want, neutralizeFormula(in), in)
	}
}

func TestRenderRequiresColumns(t *testing.T) {
	_, err := NewCSV().Render(Dataset{})
	assert.ErrorIs(t, err, ErrNoColumns)
	_, err = NewPDF().Render(Dataset{})
	assert.ErrorIs(t, err, ErrNoColumns)
}

func TestPDFRender(t *testing.T) {
	rows := make([][]string, 0, 80)
	for i := 0; i < 80; i++ {
		rows = append(rows, []string{"Student", "3", "1"})
	}
	out, err := NewPDF().Render(Dataset{
		Title:          "Attendance Report CSE-A",
		Headers:        []string{"Name", "Present", "Absent"},
		Rows:           rows,
		GeneratedAt:    time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC),
		NumericColumns: map[int]bool{1: true, 2: true},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
	assert.Equal(t, "pdf", NewPDF().Extension())
}

func TestColumnWidthsFillUsableWidth(t *testing.T) {
	data := Dataset{Headers: []string{"ID", "A much longer student name"}, Rows: [][]string{{"1"}}}
	widths := columnWidths(data, 190)
	require.Len(t, widths, 2)
	assert.InDelta(t, 190, widths[0]+widths[1], 0.001)
	assert.Greater(t, widths[1], widths[0])
}
