package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValuesColumns(t *testing.T) {
	cols, err := Values{"value": "x", "name": "y", "id": "1"}.Columns(TableFields)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "value"}, cols)
}

func TestValuesColumns_Errors(t *testing.T) {
	_, err := Values{}.Columns(TableFields)
	assert.ErrorIs(t, err, ErrEmptyValues)

	_, err = Values{"name": "x"}.Columns(Table("users"))
	assert.ErrorIs(t, err, ErrUnknownTable)

	_, err = Values{"name; DROP TABLE files": "x"}.Columns(TableFiles)
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestPrimaryKey(t *testing.T) {
	assert.Equal(t, "id", PrimaryKey(TableProjects))
	assert.Equal(t, "token", PrimaryKey(TableShares))
	assert.Equal(t, "token", PrimaryKey(TableViewShares))
	assert.Equal(t, "token", PrimaryKey(TableUploadRequests))
}
