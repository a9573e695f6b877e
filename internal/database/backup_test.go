package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"oncestock/internal/config"
	"oncestock/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerformBackup(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "inventario.db")
	backupDir := filepath.Join(tempDir, "backups")

	logger := zerolog.Nop()
	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)

	require.NoError(t, db.CreateProduct(context.Background(), &models.Product{Code: "B1", Name: "backup me"}))
	require.NoError(t, db.Close())

	svc := NewBackupService(dbPath, config.BackupConfig{
		Enabled:     true,
		StoragePath: backupDir,
	}, &logger)

	require.NoError(t, svc.PerformBackup())

	entries, err := os.ReadDir(backupDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// The snapshot must itself be a usable database with the data in it.
	restored, err := NewDB(filepath.Join(backupDir, entries[0].Name()), &logger)
	require.NoError(t, err)
	defer restored.Close()

	product, err := restored.GetProductByCode(context.Background(), "B1")
	require.NoError(t, err)
	assert.Equal(t, "backup me", product.Name)
}

func TestCleanupOldBackups(t *testing.T) {
	tempDir := t.TempDir()

	oldFile := filepath.Join(tempDir, "inventario_old.db")
	require.NoError(t, os.WriteFile(oldFile, []byte("stale"), 0o644))
	past := time.Now().AddDate(0, 0, -10)
	require.NoError(t, os.Chtimes(oldFile, past, past))

	freshFile := filepath.Join(tempDir, "inventario_new.db")
	require.NoError(t, os.WriteFile(freshFile, []byte("fresh"), 0o644))

	logger := zerolog.Nop()
	svc := NewBackupService("unused.db", config.BackupConfig{
		Enabled:       true,
		RetentionDays: 7,
		StoragePath:   tempDir,
	}, &logger)

	svc.CleanupOldBackups()

	assert.NoFileExists(t, oldFile)
	assert.FileExists(t, freshFile)
}
