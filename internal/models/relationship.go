package models

import (
	"time"

	"github.com/google/uuid"
)

// RelationshipStatus classifies an account-seller relationship during a
// reassignment cycle.
type RelationshipStatus string

const (
	// StatusOriginal marks the pre-reassignment baseline. Rows with this
	// status are recorded in original_relationships, never in the active
	// relationships table.
	StatusOriginal      RelationshipStatus = "original"
	StatusMustKeep      RelationshipStatus = "must_keep"
	StatusForDiscussion RelationshipStatus = "for_discussion"
	StatusToBePeeled    RelationshipStatus = "to_be_peeled"

	// Legacy assignment-mode statuses, accepted only when the import runs
	// with the legacy status set enabled.
	StatusAssigned      RelationshipStatus = "assigned"
	StatusUnassigned    RelationshipStatus = "unassigned"
	StatusPendingReview RelationshipStatus = "pending_review"
)

// ActiveStatuses is the status set accepted for active relationships in the
// incremental "status" import mode.
var ActiveStatuses = []RelationshipStatus{StatusMustKeep, StatusForDiscussion, StatusToBePeeled}

// LegacyStatuses extends ActiveStatuses for the legacy assignment mode.
var LegacyStatuses = append([]RelationshipStatus{StatusAssigned, StatusUnassigned, StatusPendingReview}, ActiveStatuses...)

// IsSnapshotStatus reports whether a workbook status value routes the row to
// the original-relationship snapshot table. An empty cell means "original".
func IsSnapshotStatus(s RelationshipStatus) bool {
	return s == "" || s == StatusOriginal
}

// IsActiveStatus reports whether s is valid for the active relationship table.
func IsActiveStatus(s RelationshipStatus, legacy bool) bool {
	set := ActiveStatuses
	if legacy {
		set = LegacyStatuses
	}
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}

// Relationship is an actively managed account-seller assignment.
// Composite key (account, seller).
type Relationship struct {
	AccountID uuid.UUID          `json:"accountId" gorm:"type:uuid;primaryKey"`
	SellerID  uuid.UUID          `json:"sellerId" gorm:"type:uuid;primaryKey"`
	Status    RelationshipStatus `json:"status" gorm:"not null"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OriginalRelationship records the pre-reassignment baseline for an
// account-seller pair. Disjoint from Relationship by construction: a row is
// written to exactly one of the two tables.
type OriginalRelationship struct {
	AccountID uuid.UUID `json:"accountId" gorm:"type:uuid;primaryKey"`
	SellerID  uuid.UUID `json:"sellerId" gorm:"type:uuid;primaryKey"`

	CreatedAt time.Time `json:"createdAt"`
}

func (OriginalRelationship) TableName() string {
	return "original_relationships"
}

// ManagerTeam assigns a seller to a manager's team. A seller may appear under
// several managers; IsPrimary is caller-supplied and defaults to true.
type ManagerTeam struct {
	SellerID  uuid.UUID `json:"sellerId" gorm:"type:uuid;primaryKey"`
	ManagerID uuid.UUID `json:"managerId" gorm:"type:uuid;primaryKey"`
	IsPrimary bool      `json:"isPrimary" gorm:"not null;default:true"`

	CreatedAt time.Time `json:"createdAt"`
}

func (ManagerTeam) TableName() string {
	return "manager_teams"
}
