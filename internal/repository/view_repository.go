package repository

import (
	"context"

	"gorm.io/gorm"
)

// ViewRepository refreshes the derived materialized views the dashboard reads
// (per-division book rollups, seller workload summaries). The store owns the
// refresh function; the service just calls it after bulk writes.
type ViewRepository interface {
	RefreshDerivedViews(ctx context.Context) error
}

type viewRepository struct {
	db *gorm.DB
}

func NewViewRepository(db *gorm.DB) ViewRepository {
	return &viewRepository{db: db}
}

func (r *viewRepository) RefreshDerivedViews(ctx context.Context) error {
	return r.db.WithContext(ctx).Exec("SELECT refresh_book_views()").Error
}
