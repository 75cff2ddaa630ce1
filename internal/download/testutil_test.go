package download

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/vmunix/nzzel/internal/migrations"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.Apply(db))
	return db
}

// insertTestDownload adds a record in the given status and returns it.
func insertTestDownload(t *testing.T, store *Store, jobID, title string, status Status) *Download {
	t.Helper()
	d := &Download{
		JobID:    jobID,
		VideoID:  "vid-" + jobID,
		Title:    title,
		URL:      "https://example.com/watch?v=" + jobID,
		Quality:  "best",
		Format:   "mkv",
		Filename: title + ".mkv",
		Status:   status,
	}
	require.NoError(t, store.Add(d))
	return d
}
