// Package storetest provides migrated throwaway databases for tests.
package storetest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/efren319/GovFunds/internal/store"
)

// NewSQLite returns a migrated SQLite database in t.TempDir, closed on cleanup.
func NewSQLite(t testing.TB) *store.DB {
	t.Helper()

	db, err := store.OpenSQLite(filepath.Join(t.TempDir(), "govfunds.db"), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, db.Migrate(zap.NewNop()))

	t.Cleanup(func() { _ = db.Close() })
	return db
}
