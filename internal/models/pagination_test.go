package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageNormalized(t *testing.T) {
	assert.Equal(t, Page{Limit: DefaultPageSize}, Page{}.Normalized())
	assert.Equal(t, Page{Limit: MaxPageSize, Offset: 400}, Page{Limit: 5000, Offset: 400}.Normalized())
	assert.Equal(t, Page{Limit: 10}, Page{Limit: 10, Offset: -3}.Normalized())
}
