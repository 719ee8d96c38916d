package models

import "time"

// Submission review states. A submission starts pending and moves at most
// once, to exactly one of the terminal states.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusDenied   = "denied"
)

// Submission is one anonymous reply awaiting moderation. Rows are never
// deleted; the terminal status plus the reviewer fields form the audit trail.
type Submission struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// UserHash links the submission to its pseudonymous author. There is no
	// foreign key to bans on purpose: the link is resolved at read time.
	UserHash string `gorm:"type:varchar(128);not null;index" json:"user_hash"`
	// Text is the submitted content.
	Text string `gorm:"type:text;not null" json:"text"`
	// ChannelID identifies the public channel the reply targets.
	ChannelID string `gorm:"type:varchar(64);not null" json:"channel_id"`
	// ThreadTS is the platform reference of the thread being replied to.
	ThreadTS string `gorm:"type:varchar(64);not null" json:"thread_ts"`
	// Status is one of StatusPending, StatusApproved, StatusDenied.
	Status string `gorm:"type:varchar(20);not null" json:"status"`
	// ReviewedBy is the moderator who took the decision.
	ReviewedBy string `gorm:"type:varchar(64)" json:"reviewed_by,omitempty"`
	// ReviewedAt is when the decision landed.
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
	// PostedTS is the platform reference of the published message. Set only
	// on approval.
	PostedTS  string    `gorm:"type:varchar(64)" json:"posted_ts,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
