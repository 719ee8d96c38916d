package models

import "time"

// Ban represents an active ban of a pseudonymous submitter.
// Both UserHash and CaseID carry unique indexes: a user holds at most one
// active ban, and a case id is never shared between two live bans. Those
// indexes are what the moderation engine relies on to detect re-ban races.
type Ban struct {
	// ID is the internal row id, distinct from the human-facing CaseID.
	ID uint `gorm:"primaryKey" json:"id"`
	// UserHash is the pseudonymous handle of the banned user.
	UserHash string `gorm:"type:varchar(128);not null;uniqueIndex" json:"user_hash"`
	// CaseID is the short numeric identifier moderators reference the ban by.
	CaseID string `gorm:"type:varchar(16);not null;uniqueIndex" json:"case_id"`
	// BannedAt is when the ban was recorded.
	BannedAt time.Time `gorm:"autoCreateTime" json:"banned_at"`
	// BannedBy is the moderator who applied the ban, when known.
	BannedBy string `gorm:"type:varchar(64)" json:"banned_by,omitempty"`
	// Reason is the free-text justification supplied by the moderator.
	Reason string `gorm:"type:text" json:"reason,omitempty"`
}
