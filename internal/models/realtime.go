package models

import "time"

// Event types carried over the moderation feed.
const (
	EventSubmissionPending  = "submission_pending"
	EventSubmissionApproved = "submission_approved"
	EventSubmissionDenied   = "submission_denied"
	EventUserBanned         = "user_banned"
	EventUserRebanned       = "user_rebanned"
	EventUserUnbanned       = "user_unbanned"
)

// ModerationEvent is broadcast to connected dashboard clients whenever the
// engine commits a state change.
type ModerationEvent struct {
	Type         string    `json:"type"`
	SubmissionID uint      `json:"submission_id,omitempty"`
	UserHash     string    `json:"user_hash,omitempty"`
	CaseID       string    `json:"case_id,omitempty"`
	Moderator    string    `json:"moderator,omitempty"`
	At           time.Time `json:"at"`
}
