package psqlbuilder

import (
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelect_UsesDollarPlaceholders(t *testing.T) {
	query, args, err := Select("id").
		From("reservations").
		Where(squirrel.Eq{"facility_id": 1, "status": "active"}).
		ToSql()

	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM reservations WHERE facility_id = $1 AND status = $2", query)
	assert.Equal(t, []interface{}{1, "active"}, args)
}
