package knowledge

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite" // SQLite driver
)

func TestInitSchemaIsIdempotentAndUsable(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, InitSchema(db))
	require.NoError(t, InitSchema(db)) // safe to call twice

	_, err = db.Exec(`INSERT INTO nodes (id, session_id, type, level, status, description)
		VALUES ('n1', 's1', 'component', 'l1', 'active', 'a node')`)
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM nodes_fts WHERE nodes_fts MATCH 'node'`).Scan(&count))
	assert.Equal(t, 1, count)
}
