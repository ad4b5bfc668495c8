package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-api/internal/models"
)

func TestComplaintFilter(t *testing.T) {
	filter, err := complaintFilter([]string{"pending_admin", " Resolved "}, "admin", 20)
	require.NoError(t, err)
	assert.Equal(t, []models.ComplaintStatus{models.ComplaintStatusPendingAdmin, models.ComplaintStatusResolved}, filter.Statuses)
	require.NotNil(t, filter.Owner)
	assert.Equal(t, models.RoleAdmin, *filter.Owner)
	assert.Equal(t, 20, filter.Limit)
}

func TestComplaintFilterRejectsUnknownValues(t *testing.T) {
	_, err := complaintFilter([]string{"closed"}, "", 10)
	require.Error(t, err)

	_, err = complaintFilter(nil, "dean", 10)
	require.Error(t, err)
}

func TestCommandTree(t *testing.T) {
	registerCommands()
	for _, path := range [][]string{{"migrate"}, {"seed"}, {"users", "list"}, {"complaints", "list"}} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}
