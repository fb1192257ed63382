package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"reassignment-service/internal/models"
)

// LockRepository implements the advisory import-lock protocol over a single
// store row. Acquire fails softly; Release no-ops on an absent or foreign
// lock. The lock is cooperative: nothing in the store enforces it.
type LockRepository interface {
	// Acquire returns true if the holder now owns the lock, false if a
	// non-expired lock is held by someone else. Never returns an error for
	// plain contention.
	Acquire(ctx context.Context, holder string, ttl time.Duration) (bool, error)
	// Release returns true if the holder's lock was released, false if the
	// lock is absent or held by a different holder.
	Release(ctx context.Context, holder string) (bool, error)
	// Current returns the lock row, or nil when none exists.
	Current(ctx context.Context) (*models.ImportLock, error)
	// IsHeld reports whether a non-expired lock exists right now.
	IsHeld(ctx context.Context) (bool, error)
}

type lockRepository struct {
	db *gorm.DB
}

func NewLockRepository(db *gorm.DB) LockRepository {
	return &lockRepository{db: db}
}

func (r *lockRepository) Acquire(ctx context.Context, holder string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = models.DefaultLockTTL
	}
	now := time.Now()
	acquired := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lock models.ImportLock
		err := tx.Where("id = ?", models.ImportLockID).First(&lock).Error
		if err == nil {
			if !lock.Expired(now) && lock.Holder != holder {
				return nil
			}
			// Expired, or re-acquisition by the same holder: take it over.
			lock.Holder = holder
			lock.AcquiredAt = now
			lock.ExpiresAt = now.Add(ttl)
			if err := tx.Save(&lock).Error; err != nil {
				return err
			}
			acquired = true
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		lock = models.ImportLock{
			ID:         models.ImportLockID,
			Holder:     holder,
			AcquiredAt: now,
			ExpiresAt:  now.Add(ttl),
		}
		if err := tx.Create(&lock).Error; err != nil {
			// A concurrent acquirer won the insert race.
			return nil
		}
		acquired = true
		return nil
	})

	return acquired, err
}

func (r *lockRepository) Release(ctx context.Context, holder string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND holder = ?", models.ImportLockID, holder).
		Delete(&models.ImportLock{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *lockRepository) Current(ctx context.Context) (*models.ImportLock, error) {
	var lock models.ImportLock
	err := r.db.WithContext(ctx).Where("id = ?", models.ImportLockID).First(&lock).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lock, nil
}

func (r *lockRepository) IsHeld(ctx context.Context) (bool, error) {
	lock, err := r.Current(ctx)
	if err != nil {
		return false, err
	}
	return lock != nil && !lock.Expired(time.Now()), nil
}
