package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"reassignment-service/internal/models"
)

func setupLockDB(t *testing.T) LockRepository {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.ImportLock{}))
	return NewLockRepository(db)
}

func TestAcquireIsMutuallyExclusive(t *testing.T) {
	locks := setupLockDB(t)
	ctx := context.Background()

	first, err := locks.Acquire(ctx, "run-a", time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	// A different holder fails softly while the lock is live.
	second, err := locks.Acquire(ctx, "run-b", time.Minute)
	require.NoError(t, err)
	assert.False(t, second)

	// After release the second holder gets in.
	released, err := locks.Release(ctx, "run-a")
	require.NoError(t, err)
	assert.True(t, released)

	second, err = locks.Acquire(ctx, "run-b", time.Minute)
	require.NoError(t, err)
	assert.True(t, second)
}

func TestAcquireTakesOverExpiredLock(t *testing.T) {
	locks := setupLockDB(t)
	ctx := context.Background()

	acquired, err := locks.Acquire(ctx, "run-a", -time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)

	// The TTL guard in Acquire replaces a non-positive TTL with the default,
	// so force expiry directly.
	lockRepo := locks.(*lockRepository)
	require.NoError(t, lockRepo.db.Model(&models.ImportLock{}).
		Where("id = ?", models.ImportLockID).
		Update("expires_at", time.Now().Add(-time.Minute)).Error)

	acquired, err = locks.Acquire(ctx, "run-b", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)

	lock, err := locks.Current(ctx)
	require.NoError(t, err)
	require.NotNil(t, lock)
	assert.Equal(t, "run-b", lock.Holder)
}

func TestReacquireBySameHolderExtends(t *testing.T) {
	locks := setupLockDB(t)
	ctx := context.Background()

	_, err := locks.Acquire(ctx, "run-a", time.Minute)
	require.NoError(t, err)
	before, err := locks.Current(ctx)
	require.NoError(t, err)

	acquired, err := locks.Acquire(ctx, "run-a", time.Hour)
	require.NoError(t, err)
	assert.True(t, acquired)

	after, err := locks.Current(ctx)
	require.NoError(t, err)
	assert.True(t, after.ExpiresAt.After(before.ExpiresAt))
}

func TestReleaseByForeignHolderNoOps(t *testing.T) {
	locks := setupLockDB(t)
	ctx := context.Background()

	_, err := locks.Acquire(ctx, "run-a", time.Minute)
	require.NoError(t, err)

	released, err := locks.Release(ctx, "run-b")
	require.NoError(t, err)
	assert.False(t, released)

	held, err := locks.IsHeld(ctx)
	require.NoError(t, err)
	assert.True(t, held)
}

func TestReleaseAbsentLockNoOps(t *testing.T) {
	locks := setupLockDB(t)

	released, err := locks.Release(context.Background(), "run-a")
	require.NoError(t, err)
	assert.False(t, released)
}

func TestIsHeldIgnoresExpiredLock(t *testing.T) {
	locks := setupLockDB(t)
	ctx := context.Background()

	_, err := locks.Acquire(ctx, "run-a", time.Minute)
	require.NoError(t, err)

	lockRepo := locks.(*lockRepository)
	require.NoError(t, lockRepo.db.Model(&models.ImportLock{}).
		Where("id = ?", models.ImportLockID).
		Update("expires_at", time.Now().Add(-time.Second)).Error)

	held, err := locks.IsHeld(ctx)
	require.NoError(t, err)
	assert.False(t, held)
}
