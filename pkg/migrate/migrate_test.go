package migrate

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/angelmondragon/lottodesk-backend/pkg/db/models"
)

func TestMigrationDirIsValid(t *testing.T) {
	require.NoError(t, ValidateDir(embeddedDir))
	require.NoError(t, ValidateEmbedded())
}

func TestValidateDirRejectsBadFiles(t *testing.T) {
	cases := map[string]string{
		"bad_name.sql":                "-- +goose Up\n-- +goose Down\n",
		"20260101000000_no_down.sql":  "-- +goose Up\nSELECT 1;\n",
		"20260101000000_reversed.sql": "-- +goose Down\n-- +goose Up\n",
	}
	for name, body := range cases {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
		assert.Error(t, ValidateDir(dir), name)
	}
	assert.Error(t, ValidateDir(""))
}

func TestEmbeddedMigrationsCreateEveryModelTable(t *testing.T) {
	files, err := fs.Glob(Migrations, embeddedDir+"/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	var all strings.Builder
	for _, name := range files {
		data, err := fs.ReadFile(Migrations, name)
		require.NoError(t, err)
		all.Write(data)
	}
	content := all.String()

	for _, model := range models.All() {
		tabler, ok := model.(schema.Tabler)
		require.True(t, ok, "%T has no table name", model)
		table := tabler.TableName()
		assert.Contains(t, content, "CREATE TABLE IF NOT EXISTS "+table+" (", table)
		assert.Contains(t, content, "DROP TABLE IF EXISTS "+table+";", table)
	}
}

func TestAutoMigrateCreatesTablesOnSQLite(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:automigrate?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, AutoMigrate(context.Background(), conn))
	for _, model := range models.All() {
		assert.True(t, conn.Migrator().HasTable(model), "%T", model)
	}
}

func TestAutoMigrateRequiresConnection(t *testing.T) {
	assert.Error(t, AutoMigrate(context.Background(), nil))
}

func TestCreateSQLMigrationSanitizesName(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Winner Notes!")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "_add_winner_notes.sql"))
	require.NoError(t, ValidateDir(dir))

	_, err = CreateSQLMigration(dir, "")
	assert.Error(t, err)
}

func TestCreateSQLMigrationTableSkeleton(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "create draw_results")
	require.NoError(t, err)

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS draw_results (")
	assert.Contains(t, string(body), "DROP TABLE IF EXISTS draw_results;")
	require.NoError(t, ValidateDir(dir))
}
