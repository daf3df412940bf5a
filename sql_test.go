package capped

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "capped.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT, tags TEXT, data BLOB)`)
	require.NoError(t, err)
	return db
}

func TestSQL_RoundTrip(t *testing.T) {
	db := openTestDB(t)

	name, err := TryString("alpha", 8)
	require.NoError(t, err)
	tags, err := TrySlice([]string{"x", "y"}, 4)
	require.NoError(t, err)
	data, err := TryBlob([]byte{1, 2, 3}, 4)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO items (id, name, tags, data) VALUES (1, ?, ?, ?)`, name, tags, data)
	require.NoError(t, err)

	gotName := EmptyString(8)
	gotTags := EmptySlice[string](4)
	gotData := EmptyBlob(4)
	err = db.QueryRow(`SELECT name, tags, data FROM items WHERE id = 1`).Scan(&gotName, &gotTags, &gotData)
	require.NoError(t, err)

	assert.Equal(t, "alpha", gotName.Inner())
	assert.Equal(t, []string{"x", "y"}, gotTags.Inner())
	assert.Equal(t, []byte{1, 2, 3}, gotData.Inner())
}

func TestSQL_ScanRejectsOversize(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Exec(`INSERT INTO items (id, name) VALUES (1, 'a much longer name')`)
	require.NoError(t, err)

	got := EmptyString(4)
	err = db.QueryRow(`SELECT name FROM items WHERE id = 1`).Scan(&got)
	require.Error(t, err)

	capErr, ok := AsCapacityError(err)
	require.True(t, ok)
	assert.Equal(t, 18, capErr.Attempted)
	assert.Equal(t, 4, capErr.Limit)
	assert.True(t, got.IsEmpty())
}

func TestSQL_ScanNull(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Exec(`INSERT INTO items (id) VALUES (1)`)
	require.NoError(t, err)

	name := EmptyString(4)
	tags := EmptySlice[string](2)
	err = db.QueryRow(`SELECT name, tags FROM items WHERE id = 1`).Scan(&name, &tags)
	require.NoError(t, err)
	assert.True(t, name.IsEmpty())
	assert.True(t, tags.IsEmpty())
}

func TestScan_UnsupportedSource(t *testing.T) {
	v := EmptyString(4)
	err := v.Scan(int64(7))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot scan int64")
}
