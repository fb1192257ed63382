package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"reassignment-service/internal/models"
)

// RelationshipRepository covers the three join tables of the pipeline:
// active relationships, original-relationship snapshots, and manager-team
// assignments. Active rows and snapshots are kept disjoint by the importer;
// this layer just writes where it is told.
type RelationshipRepository interface {
	FetchActivePage(ctx context.Context, offset, limit int) ([]models.Relationship, error)
	FetchSnapshotPage(ctx context.Context, offset, limit int) ([]models.OriginalRelationship, error)
	FetchTeamPage(ctx context.Context, offset, limit int) ([]models.ManagerTeam, error)

	UpsertActiveBatch(ctx context.Context, rels []models.Relationship) error
	InsertActiveBatch(ctx context.Context, rels []models.Relationship) error
	UpsertSnapshotBatch(ctx context.Context, snaps []models.OriginalRelationship) error
	InsertSnapshotBatch(ctx context.Context, snaps []models.OriginalRelationship) error
	UpsertTeamBatch(ctx context.Context, teams []models.ManagerTeam) error
	InsertTeamBatch(ctx context.Context, teams []models.ManagerTeam) error

	DeleteAllActive(ctx context.Context) error
	DeleteAllSnapshots(ctx context.Context) error
	DeleteAllTeams(ctx context.Context) error
}

type relationshipRepository struct {
	db *gorm.DB
}

func NewRelationshipRepository(db *gorm.DB) RelationshipRepository {
	return &relationshipRepository{db: db}
}

func (r *relationshipRepository) FetchActivePage(ctx context.Context, offset, limit int) ([]models.Relationship, error) {
	var rels []models.Relationship
	err := r.db.WithContext(ctx).
		Order("account_id, seller_id").
		Offset(offset).Limit(limit).
		Find(&rels).Error
	return rels, err
}

func (r *relationshipRepository) FetchSnapshotPage(ctx context.Context, offset, limit int) ([]models.OriginalRelationship, error) {
	var snaps []models.OriginalRelationship
	err := r.db.WithContext(ctx).
		Order("account_id, seller_id").
		Offset(offset).Limit(limit).
		Find(&snaps).Error
	return snaps, err
}

func (r *relationshipRepository) FetchTeamPage(ctx context.Context, offset, limit int) ([]models.ManagerTeam, error) {
	var teams []models.ManagerTeam
	err := r.db.WithContext(ctx).
		Order("seller_id, manager_id").
		Offset(offset).Limit(limit).
		Find(&teams).Error
	return teams, err
}

func (r *relationshipRepository) UpsertActiveBatch(ctx context.Context, rels []models.Relationship) error {
	if len(rels) == 0 {
		return nil
	}
	now := time.Now()
	for i := range rels {
		rels[i].UpdatedAt = now
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}, {Name: "seller_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(&rels).Error
}

func (r *relationshipRepository) InsertActiveBatch(ctx context.Context, rels []models.Relationship) error {
	if len(rels) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}, {Name: "seller_id"}},
		DoNothing: true,
	}).Create(&rels).Error
}

func (r *relationshipRepository) UpsertSnapshotBatch(ctx context.Context, snaps []models.OriginalRelationship) error {
	if len(snaps) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}, {Name: "seller_id"}},
		DoNothing: true,
	}).Create(&snaps).Error
}

func (r *relationshipRepository) InsertSnapshotBatch(ctx context.Context, snaps []models.OriginalRelationship) error {
	return r.UpsertSnapshotBatch(ctx, snaps)
}

func (r *relationshipRepository) UpsertTeamBatch(ctx context.Context, teams []models.ManagerTeam) error {
	if len(teams) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "seller_id"}, {Name: "manager_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_primary"}),
	}).Create(&teams).Error
}

func (r *relationshipRepository) InsertTeamBatch(ctx context.Context, teams []models.ManagerTeam) error {
	if len(teams) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "seller_id"}, {Name: "manager_id"}},
		DoNothing: true,
	}).Create(&teams).Error
}

func (r *relationshipRepository) DeleteAllActive(ctx context.Context) error {
	return r.db.WithContext(ctx).Where("1 = 1").Delete(&models.Relationship{}).Error
}

func (r *relationshipRepository) DeleteAllSnapshots(ctx context.Context) error {
	return r.db.WithContext(ctx).Where("1 = 1").Delete(&models.OriginalRelationship{}).Error
}

func (r *relationshipRepository) DeleteAllTeams(ctx context.Context) error {
	return r.db.WithContext(ctx).Where("1 = 1").Delete(&models.ManagerTeam{}).Error
}
