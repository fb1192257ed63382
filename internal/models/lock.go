package models

import "time"

// ImportLockID is the fixed key of the singleton import lock record.
const ImportLockID = "book_import"

// DefaultLockTTL bounds how long a crashed import can block the refresh job.
const DefaultLockTTL = 30 * time.Minute

// ImportLock is an advisory mutual-exclusion record. At most one non-expired
// lock exists at a time; the periodic view-refresh job checks it and stands
// down while an import holds it.
type ImportLock struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	Holder     string    `json:"holder" gorm:"not null"`
	AcquiredAt time.Time `json:"acquiredAt" gorm:"not null"`
	ExpiresAt  time.Time `json:"expiresAt" gorm:"not null"`
}

// Expired reports whether the lock's TTL has lapsed.
func (l *ImportLock) Expired(now time.Time) bool {
	return now.After(l.ExpiresAt)
}
