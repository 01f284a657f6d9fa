package migrate

import (
	"io/fs"
	"strings"
	"testing"

	migrationsFS "github.com/Miraines/MoonyAndStarry/session-service/scripts/db/migrations"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/require"
)

func TestMigrationsSource(t *testing.T) {
	src, err := iofs.New(migrationsFS.FS, ".")
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	require.Equal(t, uint(1), first)

	up, _, err := src.ReadUp(first)
	require.NoError(t, err)
	defer up.Close()
}

func TestUsersMigrationHasUniqueEmail(t *testing.T) {
	b, err := fs.ReadFile(migrationsFS.FS, "000001_create_users.up.sql")
	require.NoError(t, err)
	require.True(t, strings.Contains(string(b), "UNIQUE INDEX IF NOT EXISTS idx_users_email"))
}
