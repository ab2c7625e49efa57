package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalReportStore_Save(t *testing.T) {
	tempDir := t.TempDir()
	store := NewLocalReportStore(tempDir, zap.NewNop())
	ctx := context.Background()

	t.Run("creates parent directories", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "cm_lot/report.xlsx", []byte("xlsx")))
		assert.FileExists(t, filepath.Join(tempDir, "cm_lot", "report.xlsx"))
	})

	t.Run("overwrites existing report", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "cm_lot/same.xlsx", []byte("original")))
		require.NoError(t, store.Save(ctx, "cm_lot/same.xlsx", []byte("updated")))

		content, err := os.ReadFile(filepath.Join(tempDir, "cm_lot", "same.xlsx"))
		require.NoError(t, err)
		assert.Equal(t, []byte("updated"), content)
	})

	t.Run("rejects path traversal", func(t *testing.T) {
		err := store.Save(ctx, "../escape.xlsx", []byte("x"))
		assert.Error(t, err)
		assert.NoFileExists(t, filepath.Join(filepath.Dir(tempDir), "escape.xlsx"))
	})
}

func TestLocalReportStore_ReadAndList(t *testing.T) {
	store := NewLocalReportStore(t.TempDir(), zap.NewNop())
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "pack_lot/b.xlsx", []byte("b")))
	require.NoError(t, store.Save(ctx, "pack_lot/a.xlsx", []byte("a")))
	require.NoError(t, store.Save(ctx, "pack_lot/nested/c.xlsx", []byte("c")))

	names, err := store.List(ctx, "pack_lot")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.xlsx", "b.xlsx"}, names)

	content, err := store.Read(ctx, "pack_lot/a.xlsx")
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), content)

	missing, err := store.List(ctx, "cm_lot")
	require.NoError(t, err)
	assert.Empty(t, missing)

	_, err = store.Read(ctx, "pack_lot/none.xlsx")
	assert.Error(t, err)
}
