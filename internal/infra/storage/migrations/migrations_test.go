package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFiles(t *testing.T) {
	files, err := Files()
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, "0001_init.sql", files[0])

	b, err := fs.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(b), "uq_reservations_user_slot_date")
	assert.Contains(t, string(b), "WHERE status = 'active'")
}
