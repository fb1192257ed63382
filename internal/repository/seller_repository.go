package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"reassignment-service/internal/models"
)

// SellerChat is the chat-history side table owned by another part of the
// dashboard. The import pipeline only copies it aside around a destructive
// seller rebuild; it is keyed by seller name, not by seller ID.
type SellerChat struct {
	ID         string      `gorm:"primaryKey"`
	SellerName string      `gorm:"not null;index"`
	Payload    models.JSON `gorm:"type:jsonb"`
	CreatedAt  time.Time
}

func (SellerChat) TableName() string {
	return "seller_chats"
}

// SellerRepository is the store surface for sellers, including the
// best-effort chat-history backup/restore around a replace run.
type SellerRepository interface {
	FetchPage(ctx context.Context, offset, limit int) ([]models.Seller, error)
	UpsertBatch(ctx context.Context, sellers []models.Seller) error
	InsertBatch(ctx context.Context, sellers []models.Seller) error
	DeleteAll(ctx context.Context) error
	// DetachManagers nulls every seller's manager reference. Run before a
	// manager rebuild so the old manager rows can be deleted.
	DetachManagers(ctx context.Context) error

	// BackupChatHistory copies seller_chats rows aside, keyed by seller name.
	// Returns the number of rows preserved.
	BackupChatHistory(ctx context.Context) (int, error)
	// RestoreChatHistory re-inserts backed-up chats for sellers that exist
	// again after the rebuild, then clears the backup. Returns rows restored.
	RestoreChatHistory(ctx context.Context) (int, error)
}

type sellerRepository struct {
	db *gorm.DB
}

func NewSellerRepository(db *gorm.DB) SellerRepository {
	return &sellerRepository{db: db}
}

func (r *sellerRepository) FetchPage(ctx context.Context, offset, limit int) ([]models.Seller, error) {
	var sellers []models.Seller
	err := r.db.WithContext(ctx).
		Order("name").
		Offset(offset).Limit(limit).
		Find(&sellers).Error
	return sellers, err
}

func (r *sellerRepository) UpsertBatch(ctx context.Context, sellers []models.Seller) error {
	if len(sellers) == 0 {
		return nil
	}
	now := time.Now()
	for i := range sellers {
		sellers[i].UpdatedAt = now
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"division", "size", "city", "state", "country",
			"hire_date", "tenure_months", "seniority",
			"manager_id", "book_finalized", "updated_at",
		}),
	}).Create(&sellers).Error
}

func (r *sellerRepository) InsertBatch(ctx context.Context, sellers []models.Seller) error {
	if len(sellers) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&sellers).Error
}

func (r *sellerRepository) DetachManagers(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Model(&models.Seller{}).
		Where("manager_id IS NOT NULL").
		Update("manager_id", nil).Error
}

func (r *sellerRepository) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Where("1 = 1").Delete(&models.Seller{}).Error
}

func (r *sellerRepository) BackupChatHistory(ctx context.Context) (int, error) {
	var chats []SellerChat
	if err := r.db.WithContext(ctx).Find(&chats).Error; err != nil {
		return 0, err
	}
	if len(chats) == 0 {
		return 0, nil
	}

	if err := r.db.WithContext(ctx).Where("1 = 1").Delete(&models.SellerChatBackup{}).Error; err != nil {
		return 0, err
	}

	backups := make([]models.SellerChatBackup, 0, len(chats))
	for _, chat := range chats {
		backups = append(backups, models.SellerChatBackup{
			SellerName: chat.SellerName,
			Payload:    chat.Payload,
		})
	}
	if err := r.db.WithContext(ctx).CreateInBatches(backups, 500).Error; err != nil {
		return 0, err
	}
	return len(backups), nil
}

func (r *sellerRepository) RestoreChatHistory(ctx context.Context) (int, error) {
	var backups []models.SellerChatBackup
	err := r.db.WithContext(ctx).
		Where("seller_name IN (?)", r.db.Model(&models.Seller{}).Select("name")).
		Find(&backups).Error
	if err != nil {
		return 0, err
	}

	restored := 0
	for _, b := range backups {
		chat := SellerChat{
			ID:         b.ID.String(),
			SellerName: b.SellerName,
			Payload:    b.Payload,
		}
		if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&chat).Error; err != nil {
			continue
		}
		restored++
	}

	if err := r.db.WithContext(ctx).Where("1 = 1").Delete(&models.SellerChatBackup{}).Error; err != nil {
		return restored, err
	}
	return restored, nil
}
