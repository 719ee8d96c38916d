// Package storage persists bans and submissions in PostgreSQL and keeps a
// Redis fast path for ban checks plus the Pub/Sub channel that feeds the
// live moderation feed. It holds no business logic: uniqueness and the
// single-transition rule for submissions are enforced here as plain set
// semantics, and every decision to mutate lives in internal/moderation.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"honestbox/backend/internal/models"
)

// EventChannel is the Redis Pub/Sub channel carrying moderation events.
const EventChannel = "moderation:events"

const banKeyPrefix = "ban:"

// ErrBanExists is returned by SaveBan when the user hash or the case id is
// already taken. Detection relies on the unique indexes at insert time, not
// on a prior read, so two racing inserts still resolve to exactly one winner.
var ErrBanExists = errors.New("storage: ban already exists")

// Storage is the persistence boundary the moderation engine works against.
type Storage interface {
	SaveBan(ban *models.Ban) error
	GetBanByHash(hash string) (*models.Ban, error)
	GetBanByCaseID(caseID string) (*models.Ban, error)
	DeleteBanByHash(hash string) (bool, error)
	DeleteBanByCaseID(caseID string) (*models.Ban, error)
	ListBans() ([]models.Ban, error)
	IsBanned(hash string) (bool, error)

	CreateSubmission(sub *models.Submission) error
	GetSubmission(id uint) (*models.Submission, error)
	MarkApproved(id uint, reviewer, postedTS string) (bool, error)
	MarkDenied(id uint, reviewer string) (bool, error)

	PublishEvent(event models.ModerationEvent) error
}

// Service implements Storage on top of gorm and an optional Redis client.
// A nil Redis client disables the fast path and event publishing, which is
// how the admin CLI runs.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

// SaveBan inserts a new ban record. The unique indexes on user_hash and
// case_id are the authority here: a duplicate on either comes back as
// ErrBanExists for the engine to branch on.
func (s *Service) SaveBan(ban *models.Ban) error {
	err := s.DB.Create(ban).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrBanExists
	}
	if err != nil {
		return err
	}
	s.setBanFlag(ban.UserHash, ban.CaseID)
	return nil
}

// GetBanByHash returns the active ban for a handle, or nil without error
// when the handle is not banned.
func (s *Service) GetBanByHash(hash string) (*models.Ban, error) {
	var ban models.Ban
	err := s.DB.Where("user_hash = ?", hash).First(&ban).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ban, nil
}

// GetBanByCaseID returns the ban holding caseID, or nil without error.
func (s *Service) GetBanByCaseID(caseID string) (*models.Ban, error) {
	var ban models.Ban
	err := s.DB.Where("case_id = ?", caseID).First(&ban).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ban, nil
}

// DeleteBanByHash removes the ban for a handle. It reports whether a row
// was actually removed, so repeated unbans read as no-ops.
func (s *Service) DeleteBanByHash(hash string) (bool, error) {
	res := s.DB.Where("user_hash = ?", hash).Delete(&models.Ban{})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	s.clearBanFlag(hash)
	return true, nil
}

// DeleteBanByCaseID removes the ban holding caseID and returns the removed
// record for downstream notification, or nil when no such ban exists. If a
// concurrent delete wins the race the result is nil as well.
func (s *Service) DeleteBanByCaseID(caseID string) (*models.Ban, error) {
	ban, err := s.GetBanByCaseID(caseID)
	if err != nil || ban == nil {
		return nil, err
	}
	res := s.DB.Where("case_id = ?", caseID).Delete(&models.Ban{})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	s.clearBanFlag(ban.UserHash)
	return ban, nil
}

// ListBans returns all active bans in creation order.
func (s *Service) ListBans() ([]models.Ban, error) {
	var bans []models.Ban
	if err := s.DB.Order("id asc").Find(&bans).Error; err != nil {
		return nil, err
	}
	return bans, nil
}

// IsBanned is the fast-path ban check used at intake. It consults the
// Redis flag first and falls back to the database on a miss, because the
// flags are a cache, not the source of truth.
func (s *Service) IsBanned(hash string) (bool, error) {
	if s.Redis != nil {
		_, err := s.Redis.Get(s.Ctx, banKeyPrefix+hash).Result()
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, redis.Nil) {
			log.Printf("WARN: Redis ban check failed for %s, falling back to DB: %v", hash, err)
		}
	}
	ban, err := s.GetBanByHash(hash)
	if err != nil {
		return false, err
	}
	return ban != nil, nil
}

// CreateSubmission inserts a new submission. Status defaults to pending.
func (s *Service) CreateSubmission(sub *models.Submission) error {
	if sub.Status == "" {
		sub.Status = models.StatusPending
	}
	result := s.DB.Create(sub)
	if result.Error != nil {
		log.Printf("ERROR: Failed to save submission for channel %s: %v", sub.ChannelID, result.Error)
		return result.Error
	}
	return nil
}

// GetSubmission returns the submission with the given id, or nil without
// error when it does not exist.
func (s *Service) GetSubmission(id uint) (*models.Submission, error) {
	var sub models.Submission
	err := s.DB.First(&sub, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// MarkApproved moves a submission to approved in a single conditional
// update guarded by the current status. Zero rows affected means another
// decision already landed; the caller treats that as a silent no-op.
func (s *Service) MarkApproved(id uint, reviewer, postedTS string) (bool, error) {
	now := time.Now()
	res := s.DB.Model(&models.Submission{}).
		Where("id = ? AND status = ?", id, models.StatusPending).
		Updates(map[string]interface{}{
			"status":      models.StatusApproved,
			"reviewed_by": reviewer,
			"reviewed_at": now,
			"posted_ts":   postedTS,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkDenied moves a submission to denied under the same conditional
// update rule as MarkApproved.
func (s *Service) MarkDenied(id uint, reviewer string) (bool, error) {
	now := time.Now()
	res := s.DB.Model(&models.Submission{}).
		Where("id = ? AND status = ?", id, models.StatusPending).
		Updates(map[string]interface{}{
			"status":      models.StatusDenied,
			"reviewed_by": reviewer,
			"reviewed_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// PublishEvent pushes a moderation event onto the Redis Pub/Sub channel
// consumed by the feed hub. With no Redis configured it is a no-op.
func (s *Service) PublishEvent(event models.ModerationEvent) error {
	if s.Redis == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.Redis.Publish(s.Ctx, EventChannel, payload).Err()
}

// setBanFlag caches the ban marker for a handle. Best effort: the flag is
// only a fast path and IsBanned falls back to the database.
func (s *Service) setBanFlag(hash, caseID string) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Set(s.Ctx, banKeyPrefix+hash, caseID, 0).Err(); err != nil {
		log.Printf("WARN: Failed to cache ban flag for %s: %v", hash, err)
	}
}

func (s *Service) clearBanFlag(hash string) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(s.Ctx, banKeyPrefix+hash).Err(); err != nil {
		log.Printf("WARN: Failed to clear ban flag for %s: %v", hash, err)
	}
}
