package database

import (
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "test.db")}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNew_RequiresPath(t *testing.T) {
	_, err := New(Config{}, zap.NewNop())
	assert.Error(t, err)
}

func TestNew_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data", "app.db")
	db, err := New(Config{Path: path}, zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, path)
}

func TestDSN(t *testing.T) {
	dsn := DSN("/tmp/x.db")
	assert.Contains(t, dsn, "_txlock=immediate")
	assert.Contains(t, dsn, "_foreign_keys=on")
	assert.Contains(t, dsn, "_journal_mode=WAL")
}

func TestRunMigrations_Embedded(t *testing.T) {
	db := openTestDB(t)
	m := NewMigrator(db, zap.NewNop())

	ran, err := m.RunMigrations()
	require.NoError(t, err)
	assert.Equal(t, 1, ran)

	for _, table := range []string{"tenants", "users", "categories", "expenses", "approval_events"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		assert.NoError(t, err, table)
	}

	// Second run is a no-op
	ran, err = m.RunMigrations()
	require.NoError(t, err)
	assert.Zero(t, ran)
}

func TestApprovalEventsAreAppendOnly(t *testing.T) {
	db := openTestDB(t)
	_, err := NewMigrator(db, zap.NewNop()).RunMigrations()
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO tenants (id, name, slug, invite_code, created_at) VALUES ('t1', 'Acme', 'acme', '123456', CURRENT_TIMESTAMP)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO approval_events (id, tenant_id, expense_id, actor_id, actor_name, action, created_at)
		VALUES ('e1', 't1', 'x1', 'u1', 'U1', 'SUBMITTED', CURRENT_TIMESTAMP)`)
	require.NoError(t, err)

	_, err = db.Exec(`UPDATE approval_events SET comment = 'edited' WHERE id = 'e1'`)
	assert.ErrorContains(t, err, "append-only")
	_, err = db.Exec(`DELETE FROM approval_events WHERE id = 'e1'`)
	assert.ErrorContains(t, err, "append-only")
}

func TestRunMigrations_OrderAndFailures(t *testing.T) {
	db := openTestDB(t)
	source := fstest.MapFS{
		"002_add_index.sql": {Data: []byte(`CREATE INDEX idx_things_name ON things(name);`)},
		"001_things.sql":    {Data: []byte(`CREATE TABLE things (name TEXT);`)},
		"README.md":         {Data: []byte(`ignored`)},
	}

	ran, err := NewMigratorFS(db, source, zap.NewNop()).RunMigrations()
	require.NoError(t, err)
	assert.Equal(t, 2, ran)

	var name string
	require.NoError(t, db.QueryRow(`SELECT name FROM schema_migrations WHERE version = 1`).Scan(&name))
	assert.Equal(t, "things", name)

	bad := fstest.MapFS{"003_broken.sql": {Data: []byte(`CREATE TABLE (;`)}}
	_, err = NewMigratorFS(db, bad, zap.NewNop()).RunMigrations()
	assert.Error(t, err)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&n))
	assert.Equal(t, 2, n, "failed migration is not recorded")
}

func TestRunMigrations_BadFilename(t *testing.T) {
	db := openTestDB(t)
	source := fstest.MapFS{"initial.sql": {Data: []byte(`SELECT 1;`)}}
	_, err := NewMigratorFS(db, source, zap.NewNop()).RunMigrations()
	assert.ErrorContains(t, err, "invalid migration filename")
}
