// ABOUTME: Tests for copying visits between storage backends
// ABOUTME: Covers empty sources, dry runs, forced replacement with backup and unreadable sources
package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/onsite/models"
)

func openPair(t *testing.T) (*BadgerBackend, *SQLiteBackend) {
	t.Helper()
	dir := t.TempDir()
	src, err := OpenBadger(filepath.Join(dir, "visits"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })
	dst, err := OpenSQLite(filepath.Join(dir, "onsite.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = dst.Close() })
	return src, dst
}

func TestMigrateCopiesVisits(t *testing.T) {
	src, dst := openPair(t)
	store := NewVisitStore(src, nil)
	v := models.NewVisit(time.Now())
	v.CustomerName = "Acme"
	require.NoError(t, store.Save(v))

	result, err := Migrate(src, dst, MigrateOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Visits)
	assert.Empty(t, result.BackupKey)

	got, err := NewVisitStore(dst, nil).Get(v.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.CustomerName)
}

func TestMigrateEmptySource(t *testing.T) {
	src, dst := openPair(t)
	result, err := Migrate(src, dst, MigrateOptions{})
	require.NoError(t, err)
	assert.True(t, result.NothingToDo)
}

func TestMigrateDryRunWritesNothing(t *testing.T) {
	src, dst := openPair(t)
	require.NoError(t, NewVisitStore(src, nil).Save(models.NewVisit(time.Now())))

	result, err := Migrate(src, dst, MigrateOptions{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Visits)

	_, err = dst.Get([]byte(VisitsKey))
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestMigrateNeedsForceAndBacksUp(t *testing.T) {
	src, dst := openPair(t)
	require.NoError(t, NewVisitStore(src, nil).Save(models.NewVisit(time.Now())))
	old := models.NewVisit(time.Now())
	old.CustomerName = "Old"
	require.NoError(t, NewVisitStore(dst, nil).Save(old))

	result, err := Migrate(src, dst, MigrateOptions{})
	require.Error(t, err)
	assert.Equal(t, 1, result.Replaced)

	stamp := time.Date(2025, 5, 1, 12, 30, 0, 0, time.UTC)
	result, err = Migrate(src, dst, MigrateOptions{Force: true, Now: func() time.Time { return stamp }})
	require.NoError(t, err)
	assert.Equal(t, VisitsKey+".backup.20250501-123000", result.BackupKey)

	backup, err := dst.Get([]byte(result.BackupKey))
	require.NoError(t, err)
	assert.Contains(t, string(backup), `"customer_name":"Old"`)

	_, err = NewVisitStore(dst, nil).Get(old.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMigrateRejectsUnreadableSource(t *testing.T) {
	src, dst := openPair(t)
	require.NoError(t, src.Set([]byte(VisitsKey), []byte("{not json")))

	_, err := Migrate(src, dst, MigrateOptions{})
	assert.Error(t, err)

	_, err = dst.Get([]byte(VisitsKey))
	assert.ErrorIs(t, err, ErrKeyNotFound)
}
