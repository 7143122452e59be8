package dbx

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func upsertDocument(ctx context.Context, db DBTX, path, data string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO documents (path, data) VALUES (?, ?)
		ON CONFLICT(path) DO UPDATE SET data = excluded.data`, path, data)
	return err
}

func countDocuments(t *testing.T, db DBTX) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM documents`).Scan(&n))
	return n
}

func TestDBTX_SameCodeRunsOnDBAndTx(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE documents (path TEXT PRIMARY KEY, data BLOB)`)
	require.NoError(t, err)

	require.NoError(t, upsertDocument(ctx, db, "cache/anime.json", "[]"))
	require.Equal(t, 1, countDocuments(t, db))

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, upsertDocument(ctx, tx, "queue/pending.json", "[]"))
	require.Equal(t, 2, countDocuments(t, tx))
	require.NoError(t, tx.Rollback())

	require.Equal(t, 1, countDocuments(t, db), "rolled back write must not be visible")

	rows, err := db.QueryContext(ctx, `SELECT path FROM documents`)
	require.NoError(t, err)
	defer rows.Close()
	require.True(t, rows.Next())
	var p string
	require.NoError(t, rows.Scan(&p))
	require.Equal(t, "cache/anime.json", p)
}
