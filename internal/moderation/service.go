// Package moderation implements the review pipeline for anonymous
// submissions: intake, approve/deny decisions, and the ban lifecycle.
// It owns every mutation of the ban and submission stores; transports
// (bot, admin API, CLI) only call into it.
package moderation

import (
	"errors"
	"log"
	"strconv"
	"time"

	"honestbox/backend/internal/config"
	"honestbox/backend/internal/identity"
	"honestbox/backend/internal/models"
	"honestbox/backend/internal/storage"
)

// Service handles the business logic of moderation.
type Service struct {
	Storage   storage.Storage
	Allocator *CaseAllocator
}

// NewService creates a new moderation service.
func NewService(s storage.Storage) *Service {
	return &Service{
		Storage:   s,
		Allocator: NewCaseAllocator(s),
	}
}

// BanResult describes a completed ban action.
type BanResult struct {
	CaseID string
	// ReBanned is true when an existing ban was replaced rather than a
	// first ban created, so downstream notification can differ.
	ReBanned bool
}

// Submit runs intake for one anonymous reply. A banned handle is rejected
// without creating a record: sub comes back nil and ban carries the active
// ban. For accepted submissions, ban reports the handle's ban status as of
// just after the insert — the transport shows it as a reviewer warning, it
// never blocks retroactively.
func (s *Service) Submit(handle, text, channelID, threadTS string) (sub *models.Submission, ban *models.Ban, err error) {
	if err = validateHandle(handle); err != nil {
		return nil, nil, err
	}

	ban, err = s.Storage.GetBanByHash(handle)
	if err != nil {
		return nil, nil, err
	}
	if ban != nil {
		return nil, ban, nil
	}

	sub = &models.Submission{
		UserHash:  handle,
		Text:      text,
		ChannelID: channelID,
		ThreadTS:  threadTS,
		Status:    models.StatusPending,
	}
	if err = s.Storage.CreateSubmission(sub); err != nil {
		return nil, nil, err
	}

	// Re-read so a ban landing between the check and the insert still
	// shows up as a warning on the review card.
	ban, err = s.Storage.GetBanByHash(handle)
	if err != nil {
		log.Printf("WARN: Failed to re-read ban status for %s: %v", handle, err)
		ban = nil
	}

	s.publish(models.ModerationEvent{
		Type:         models.EventSubmissionPending,
		SubmissionID: sub.ID,
		UserHash:     handle,
	})
	return sub, ban, nil
}

// Approve records an approve decision. The caller publishes the content
// first and passes the resulting reference as postedTS. An absent or
// already-reviewed submission is a silent no-op (applied = false); the
// conditional update in the store closes the window where two decisions
// pass the pending check at once.
func (s *Service) Approve(id uint, reviewer, postedTS string) (applied bool, err error) {
	sub, err := s.Storage.GetSubmission(id)
	if err != nil {
		return false, err
	}
	if sub == nil || sub.Status != models.StatusPending {
		return false, nil
	}
	applied, err = s.Storage.MarkApproved(id, reviewer, postedTS)
	if err != nil {
		return false, err
	}
	if applied {
		s.publish(models.ModerationEvent{
			Type:         models.EventSubmissionApproved,
			SubmissionID: id,
			UserHash:     sub.UserHash,
			Moderator:    reviewer,
		})
	}
	return applied, nil
}

// Deny records a deny decision under the same no-op rules as Approve.
func (s *Service) Deny(id uint, reviewer string) (applied bool, err error) {
	sub, err := s.Storage.GetSubmission(id)
	if err != nil {
		return false, err
	}
	if sub == nil || sub.Status != models.StatusPending {
		return false, nil
	}
	applied, err = s.Storage.MarkDenied(id, reviewer)
	if err != nil {
		return false, err
	}
	if applied {
		s.publish(models.ModerationEvent{
			Type:         models.EventSubmissionDenied,
			SubmissionID: id,
			UserHash:     sub.UserHash,
			Moderator:    reviewer,
		})
	}
	return applied, nil
}

// Ban places handle under a new ban and returns its case id. When a ban
// already exists the old record is replaced — deleted and re-inserted
// under a fresh case id with the new reason — and the result is flagged as
// a re-ban. The replace is deliberately not transactional: conflicts occur
// at human moderator rate and the unique index keeps at most one active
// ban per handle however the race falls.
func (s *Service) Ban(handle, moderator, reason string) (*BanResult, error) {
	if err := validateHandle(handle); err != nil {
		return nil, err
	}

	caseID, err := s.insertBan(handle, moderator, reason)
	if err == nil {
		s.publish(models.ModerationEvent{
			Type:      models.EventUserBanned,
			UserHash:  handle,
			CaseID:    caseID,
			Moderator: moderator,
		})
		return &BanResult{CaseID: caseID}, nil
	}
	if !errors.Is(err, storage.ErrBanExists) {
		return nil, err
	}

	// Conflict. Either the handle is already banned (replace it) or the
	// allocator lost the case-id race to a concurrent ban (just retry).
	existing, lookupErr := s.Storage.GetBanByHash(handle)
	if lookupErr != nil {
		return nil, lookupErr
	}
	reban := existing != nil
	if reban {
		if _, err := s.Storage.DeleteBanByHash(handle); err != nil {
			return nil, err
		}
	}

	caseID, err = s.insertBan(handle, moderator, reason)
	if err != nil {
		return nil, err
	}

	eventType := models.EventUserBanned
	if reban {
		eventType = models.EventUserRebanned
	}
	s.publish(models.ModerationEvent{
		Type:      eventType,
		UserHash:  handle,
		CaseID:    caseID,
		Moderator: moderator,
	})
	return &BanResult{CaseID: caseID, ReBanned: reban}, nil
}

// BanForSubmission bans the author of the given submission and, when that
// submission is still pending, denies it as part of the same logical
// operation so a stale review card cannot approve it later. The cascade
// deny is a secondary effect: its failure is logged and the committed ban
// stands. An unknown submission id is a no-op returning nil.
func (s *Service) BanForSubmission(id uint, moderator, reason string) (*BanResult, error) {
	sub, err := s.Storage.GetSubmission(id)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, nil
	}

	res, err := s.Ban(sub.UserHash, moderator, reason)
	if err != nil {
		return nil, err
	}

	if sub.Status == models.StatusPending {
		if _, derr := s.Deny(id, moderator); derr != nil {
			log.Printf("ERROR: Cascade deny failed for submission %d after ban case %s: %v", id, res.CaseID, derr)
		}
	}
	return res, nil
}

// Unban lifts the ban on a handle. Returns false when no ban existed;
// repeated calls are no-ops.
func (s *Service) Unban(handle string) (bool, error) {
	if err := validateHandle(handle); err != nil {
		return false, err
	}
	removed, err := s.Storage.DeleteBanByHash(handle)
	if err != nil {
		return false, err
	}
	if removed {
		s.publish(models.ModerationEvent{
			Type:     models.EventUserUnbanned,
			UserHash: handle,
		})
	}
	return removed, nil
}

// UnbanByCase lifts a ban by its case id and returns the removed record,
// or nil when no such ban exists (including on repeated calls).
func (s *Service) UnbanByCase(caseID string) (*models.Ban, error) {
	if err := validateCaseID(caseID); err != nil {
		return nil, err
	}
	ban, err := s.Storage.DeleteBanByCaseID(caseID)
	if err != nil {
		return nil, err
	}
	if ban != nil {
		s.publish(models.ModerationEvent{
			Type:     models.EventUserUnbanned,
			UserHash: ban.UserHash,
			CaseID:   ban.CaseID,
		})
	}
	return ban, nil
}

// GetBan returns the active ban for a handle, or nil.
func (s *Service) GetBan(handle string) (*models.Ban, error) {
	if err := validateHandle(handle); err != nil {
		return nil, err
	}
	return s.Storage.GetBanByHash(handle)
}

// GetBanByCase returns the ban holding caseID, or nil.
func (s *Service) GetBanByCase(caseID string) (*models.Ban, error) {
	if err := validateCaseID(caseID); err != nil {
		return nil, err
	}
	return s.Storage.GetBanByCaseID(caseID)
}

// GetSubmission returns a submission by id, or nil.
func (s *Service) GetSubmission(id uint) (*models.Submission, error) {
	return s.Storage.GetSubmission(id)
}

// ListBans returns all active bans in creation order.
func (s *Service) ListBans() ([]models.Ban, error) {
	return s.Storage.ListBans()
}

// insertBan allocates a case id and writes the record. storage.ErrBanExists
// passes through for the caller to branch on.
func (s *Service) insertBan(handle, moderator, reason string) (string, error) {
	caseID, err := s.Allocator.Allocate()
	if err != nil {
		return "", err
	}
	ban := &models.Ban{
		UserHash: handle,
		CaseID:   caseID,
		BannedBy: moderator,
		Reason:   reason,
	}
	if err := s.Storage.SaveBan(ban); err != nil {
		return "", err
	}
	return caseID, nil
}

// publish sends a feed event. Best effort: the state change is already
// committed, so a publish failure is logged, never propagated.
func (s *Service) publish(event models.ModerationEvent) {
	event.At = time.Now()
	if err := s.Storage.PublishEvent(event); err != nil {
		log.Printf("WARN: Failed to publish moderation event %s: %v", event.Type, err)
	}
}

func validateHandle(handle string) error {
	if !identity.IsHandle(handle) {
		return &ValidationError{Field: "handle", Value: handle}
	}
	return nil
}

func validateCaseID(caseID string) error {
	if len(caseID) < config.CaseIDMinDigits || len(caseID) > config.CaseIDMaxDigits {
		return &ValidationError{Field: "case id", Value: caseID}
	}
	if caseID[0] == '0' {
		return &ValidationError{Field: "case id", Value: caseID}
	}
	if _, err := strconv.ParseUint(caseID, 10, 64); err != nil {
		return &ValidationError{Field: "case id", Value: caseID}
	}
	return nil
}
