package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReportFormat(t *testing.T) {
	assert.True(t, ReportFormatCSV.Valid())
	assert.True(t, ReportFormatPDF.Valid())
	assert.False(t, ReportFormat("xlsx").Valid())

	assert.Equal(t, "application/pdf", ReportFormatPDF.MediaType())
	assert.Equal(t, "text/csv", ReportFormatCSV.MediaType())
	assert.Equal(t, "application/octet-stream", ReportFormat("").MediaType())
}

func TestReportStatusTerminal(t *testing.T) {
	assert.True(t, ReportStatusFinished.Terminal())
	assert.True(t, ReportStatusFailed.Terminal())
	assert.False(t, ReportStatusQueued.Terminal())
	assert.False(t, ReportStatusProcessing.Terminal())
}
