// Package sqlitetest opens migrated sqlite databases for tests.
package sqlitetest

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/legal-approval/migrations"
	"github.com/garyjia/legal-approval/pkg/database"
)

// Open creates a file-backed database under t.TempDir with every migration applied.
// The database is closed when the test ends.
func Open(t testing.TB) *database.DB {
	t.Helper()

	db, err := database.New(database.Config{
		Path:         filepath.Join(t.TempDir(), "legal.db"),
		MaxOpenConns: 4,
		BusyTimeout:  10 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = database.NewMigrator(db, zap.NewNop()).Run(migrations.FS)
	require.NoError(t, err)

	return db
}
