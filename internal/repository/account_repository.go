package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"reassignment-service/internal/models"
)

// AccountRepository is the store surface the import/export pipeline needs for
// accounts and their revenue rows.
type AccountRepository interface {
	// FetchPage returns a stable name-ordered page of accounts.
	FetchPage(ctx context.Context, offset, limit int) ([]models.Account, error)
	// FetchPageWithRevenue is FetchPage with the 1:1 revenue row preloaded.
	FetchPageWithRevenue(ctx context.Context, offset, limit int) ([]models.Account, error)
	// UpsertBatch writes accounts, updating on name conflict.
	UpsertBatch(ctx context.Context, accounts []models.Account) error
	// InsertBatch writes accounts, skipping rows whose name already exists.
	InsertBatch(ctx context.Context, accounts []models.Account) error
	UpsertRevenues(ctx context.Context, revenues []models.AccountRevenue) error
	InsertRevenues(ctx context.Context, revenues []models.AccountRevenue) error
	// DeleteAllRevenues must run before DeleteAll (FK order).
	DeleteAllRevenues(ctx context.Context) error
	DeleteAll(ctx context.Context) error
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) FetchPage(ctx context.Context, offset, limit int) ([]models.Account, error) {
	var accounts []models.Account
	err := r.db.WithContext(ctx).
		Order("name").
		Offset(offset).Limit(limit).
		Find(&accounts).Error
	return accounts, err
}

func (r *accountRepository) FetchPageWithRevenue(ctx context.Context, offset, limit int) ([]models.Account, error) {
	var accounts []models.Account
	err := r.db.WithContext(ctx).
		Preload("Revenue").
		Order("name").
		Offset(offset).Limit(limit).
		Find(&accounts).Error
	return accounts, err
}

func (r *accountRepository) UpsertBatch(ctx context.Context, accounts []models.Account) error {
	if len(accounts) == 0 {
		return nil
	}
	now := time.Now()
	for i := range accounts {
		accounts[i].UpdatedAt = now
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"industry", "size", "tier", "account_type",
			"state", "city", "country", "latitude", "longitude",
			"current_division", "updated_at",
		}),
	}).Create(&accounts).Error
}

func (r *accountRepository) InsertBatch(ctx context.Context, accounts []models.Account) error {
	if len(accounts) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&accounts).Error
}

func (r *accountRepository) UpsertRevenues(ctx context.Context, revenues []models.AccountRevenue) error {
	if len(revenues) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"revenue_esg", "revenue_gdt", "revenue_gvc", "revenue_msg_us",
		}),
	}).Create(&revenues).Error
}

func (r *accountRepository) InsertRevenues(ctx context.Context, revenues []models.AccountRevenue) error {
	if len(revenues) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}},
		DoNothing: true,
	}).Create(&revenues).Error
}

func (r *accountRepository) DeleteAllRevenues(ctx context.Context) error {
	return r.db.WithContext(ctx).Where("1 = 1").Delete(&models.AccountRevenue{}).Error
}

func (r *accountRepository) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Where("1 = 1").Delete(&models.Account{}).Error
}
