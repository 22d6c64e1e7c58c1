package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "burrowdns.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestQueryLog_InsertAndRead(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	entry := QueryLogEntry{
		AskedAt:    time.Now(),
		Client:     "192.0.2.10",
		QName:      "example.com",
		QType:      "A",
		Rcode:      "NOERROR",
		Source:     "recursive",
		DurationMs: 42,
	}
	require.NoError(t, db.InsertQueryLog(ctx, entry))

	entries, err := db.RecentQueries(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "example.com", entries[0].QName)
	assert.Equal(t, "A", entries[0].QType)
	assert.Equal(t, "NOERROR", entries[0].Rcode)
	assert.Equal(t, "recursive", entries[0].Source)
	assert.Equal(t, int64(42), entries[0].DurationMs)
}

func TestQueryLog_RecentOrder(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for _, name := range []string{"one.test", "two.test", "three.test"} {
		require.NoError(t, db.InsertQueryLog(ctx, QueryLogEntry{
			AskedAt: time.Now(), Client: "c", QName: name,
			QType: "A", Rcode: "NOERROR", Source: "forward",
		}))
	}

	entries, err := db.RecentQueries(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "three.test", entries[0].QName)
	assert.Equal(t, "two.test", entries[1].QName)
}

func TestQueryLog_Prune(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for i := range 10 {
		require.NoError(t, db.InsertQueryLog(ctx, QueryLogEntry{
			AskedAt: time.Now(), Client: "c", QName: "q",
			QType: "A", Rcode: "NOERROR", Source: "forward",
			DurationMs: int64(i),
		}))
	}

	require.NoError(t, db.PruneQueryLog(ctx, 4))

	n, err := db.CountQueries(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	// The surviving rows are the newest ones.
	entries, err := db.RecentQueries(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, int64(9), entries[0].DurationMs)
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "burrowdns.db")

	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.InsertQueryLog(context.Background(), QueryLogEntry{
		AskedAt: time.Now(), Client: "c", QName: "persist.test",
		QType: "A", Rcode: "NOERROR", Source: "forward",
	}))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	n, err := db.CountQueries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
