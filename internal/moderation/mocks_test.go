package moderation_test

import (
	"github.com/stretchr/testify/mock"

	"honestbox/backend/internal/models"
)

// MockStorage is a mock implementation of the storage.Storage interface.
// It uses testify/mock to allow flexible expectation setting in tests.
type MockStorage struct {
	mock.Mock
}

// Ban operations
func (m *MockStorage) SaveBan(ban *models.Ban) error {
	args := m.Called(ban)
	return args.Error(0)
}

func (m *MockStorage) GetBanByHash(hash string) (*models.Ban, error) {
	args := m.Called(hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ban), args.Error(1)
}

func (m *MockStorage) GetBanByCaseID(caseID string) (*models.Ban, error) {
	args := m.Called(caseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ban), args.Error(1)
}

func (m *MockStorage) DeleteBanByHash(hash string) (bool, error) {
	args := m.Called(hash)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) DeleteBanByCaseID(caseID string) (*models.Ban, error) {
	args := m.Called(caseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ban), args.Error(1)
}

func (m *MockStorage) ListBans() ([]models.Ban, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Ban), args.Error(1)
}

func (m *MockStorage) IsBanned(hash string) (bool, error) {
	args := m.Called(hash)
	return args.Bool(0), args.Error(1)
}

// Submission operations
func (m *MockStorage) CreateSubmission(sub *models.Submission) error {
	args := m.Called(sub)
	return args.Error(0)
}

func (m *MockStorage) GetSubmission(id uint) (*models.Submission, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Submission), args.Error(1)
}

func (m *MockStorage) MarkApproved(id uint, reviewer, postedTS string) (bool, error) {
	args := m.Called(id, reviewer, postedTS)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) MarkDenied(id uint, reviewer string) (bool, error) {
	args := m.Called(id, reviewer)
	return args.Bool(0), args.Error(1)
}

// Event operations
func (m *MockStorage) PublishEvent(event models.ModerationEvent) error {
	args := m.Called(event)
	return args.Error(0)
}
