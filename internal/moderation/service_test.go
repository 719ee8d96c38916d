package moderation_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"honestbox/backend/internal/models"
	"honestbox/backend/internal/moderation"
	"honestbox/backend/internal/storage"
)

const testHandle = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func TestSubmit_AcceptsUnbannedHandle(t *testing.T) {
	// Arrange
	storageMock := new(MockStorage)
	storageMock.On("GetBanByHash", testHandle).Return(nil, nil)
	storageMock.On("CreateSubmission", mock.AnythingOfType("*models.Submission")).Return(nil)
	storageMock.On("PublishEvent", mock.AnythingOfType("models.ModerationEvent")).Return(nil)

	engine := moderation.NewService(storageMock)

	// Act
	sub, ban, err := engine.Submit(testHandle, "hello", "C100", "1620.0001")

	// Assert
	assert.NoError(t, err)
	assert.NotNil(t, sub)
	assert.Nil(t, ban)
	assert.Equal(t, models.StatusPending, sub.Status)
	assert.Equal(t, testHandle, sub.UserHash)
	storageMock.AssertCalled(t, "CreateSubmission", mock.AnythingOfType("*models.Submission"))
}

func TestSubmit_RejectsBannedHandle(t *testing.T) {
	// Arrange
	existing := &models.Ban{UserHash: testHandle, CaseID: "1234"}
	storageMock := new(MockStorage)
	storageMock.On("GetBanByHash", testHandle).Return(existing, nil)

	engine := moderation.NewService(storageMock)

	// Act
	sub, ban, err := engine.Submit(testHandle, "hello", "C100", "1620.0001")

	// Assert
	assert.NoError(t, err)
	assert.Nil(t, sub)
	assert.Equal(t, existing, ban)
	storageMock.AssertNotCalled(t, "CreateSubmission", mock.Anything)
}

func TestSubmit_RejectsMalformedHandle(t *testing.T) {
	engine := moderation.NewService(new(MockStorage))

	_, _, err := engine.Submit("not-a-handle", "hello", "C100", "1620.0001")

	var verr *moderation.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestSubmit_AnnotatesBanLandedDuringIntake(t *testing.T) {
	// Arrange: no ban at the pre-check, a ban on the re-read.
	landed := &models.Ban{UserHash: testHandle, CaseID: "1234"}
	storageMock := new(MockStorage)
	storageMock.On("GetBanByHash", testHandle).Return(nil, nil).Once()
	storageMock.On("GetBanByHash", testHandle).Return(landed, nil).Once()
	storageMock.On("CreateSubmission", mock.AnythingOfType("*models.Submission")).Return(nil)
	storageMock.On("PublishEvent", mock.AnythingOfType("models.ModerationEvent")).Return(nil)

	engine := moderation.NewService(storageMock)

	// Act
	sub, ban, err := engine.Submit(testHandle, "hello", "C100", "1620.0001")

	// Assert: the submission stands, the ban rides along as a warning.
	assert.NoError(t, err)
	assert.NotNil(t, sub)
	assert.Equal(t, landed, ban)
}

func TestApprove_RecordsDecision(t *testing.T) {
	// Arrange
	pending := &models.Submission{ID: 7, UserHash: testHandle, Status: models.StatusPending}
	storageMock := new(MockStorage)
	storageMock.On("GetSubmission", uint(7)).Return(pending, nil)
	storageMock.On("MarkApproved", uint(7), "mod-1", "1620.0042").Return(true, nil)
	storageMock.On("PublishEvent", mock.AnythingOfType("models.ModerationEvent")).Return(nil)

	engine := moderation.NewService(storageMock)

	// Act
	applied, err := engine.Approve(7, "mod-1", "1620.0042")

	// Assert
	assert.NoError(t, err)
	assert.True(t, applied)
	storageMock.AssertCalled(t, "MarkApproved", uint(7), "mod-1", "1620.0042")
}

func TestApprove_NoOpWhenAlreadyReviewed(t *testing.T) {
	reviewed := &models.Submission{ID: 7, Status: models.StatusDenied}
	storageMock := new(MockStorage)
	storageMock.On("GetSubmission", uint(7)).Return(reviewed, nil)

	engine := moderation.NewService(storageMock)

	applied, err := engine.Approve(7, "mod-1", "1620.0042")

	assert.NoError(t, err)
	assert.False(t, applied)
	storageMock.AssertNotCalled(t, "MarkApproved", mock.Anything, mock.Anything, mock.Anything)
}

func TestApprove_NoOpWhenSubmissionAbsent(t *testing.T) {
	storageMock := new(MockStorage)
	storageMock.On("GetSubmission", uint(99)).Return(nil, nil)

	engine := moderation.NewService(storageMock)

	applied, err := engine.Approve(99, "mod-1", "1620.0042")

	assert.NoError(t, err)
	assert.False(t, applied)
}

func TestApprove_LosesConditionalUpdateRace(t *testing.T) {
	// The pending read passes but another decision commits first, so the
	// conditional update touches zero rows.
	pending := &models.Submission{ID: 7, UserHash: testHandle, Status: models.StatusPending}
	storageMock := new(MockStorage)
	storageMock.On("GetSubmission", uint(7)).Return(pending, nil)
	storageMock.On("MarkApproved", uint(7), "mod-1", "1620.0042").Return(false, nil)

	engine := moderation.NewService(storageMock)

	applied, err := engine.Approve(7, "mod-1", "1620.0042")

	assert.NoError(t, err)
	assert.False(t, applied)
	storageMock.AssertNotCalled(t, "PublishEvent", mock.Anything)
}

func TestDeny_RecordsDecision(t *testing.T) {
	pending := &models.Submission{ID: 8, UserHash: testHandle, Status: models.StatusPending}
	storageMock := new(MockStorage)
	storageMock.On("GetSubmission", uint(8)).Return(pending, nil)
	storageMock.On("MarkDenied", uint(8), "mod-1").Return(true, nil)
	storageMock.On("PublishEvent", mock.AnythingOfType("models.ModerationEvent")).Return(nil)

	engine := moderation.NewService(storageMock)

	applied, err := engine.Deny(8, "mod-1")

	assert.NoError(t, err)
	assert.True(t, applied)
}

func TestBan_FirstBanAllocatesCaseID(t *testing.T) {
	// Arrange
	storageMock := new(MockStorage)
	storageMock.On("GetBanByCaseID", mock.AnythingOfType("string")).Return(nil, nil)
	storageMock.On("SaveBan", mock.AnythingOfType("*models.Ban")).Return(nil)
	storageMock.On("PublishEvent", mock.AnythingOfType("models.ModerationEvent")).Return(nil)

	engine := moderation.NewService(storageMock)

	// Act
	res, err := engine.Ban(testHandle, "mod-1", "spam")

	// Assert
	assert.NoError(t, err)
	assert.False(t, res.ReBanned)
	assert.Len(t, res.CaseID, 4)
	storageMock.AssertNotCalled(t, "DeleteBanByHash", mock.Anything)
}

func TestBan_ReplacesExistingBan(t *testing.T) {
	// Arrange: the insert hits the unique index on user_hash, the lookup
	// confirms an existing ban, so the engine replaces it.
	existing := &models.Ban{UserHash: testHandle, CaseID: "1234", Reason: "old"}
	storageMock := new(MockStorage)
	storageMock.On("GetBanByCaseID", mock.AnythingOfType("string")).Return(nil, nil)
	storageMock.On("SaveBan", mock.AnythingOfType("*models.Ban")).Return(storage.ErrBanExists).Once()
	storageMock.On("SaveBan", mock.AnythingOfType("*models.Ban")).Return(nil).Once()
	storageMock.On("GetBanByHash", testHandle).Return(existing, nil)
	storageMock.On("DeleteBanByHash", testHandle).Return(true, nil)
	storageMock.On("PublishEvent", mock.AnythingOfType("models.ModerationEvent")).Return(nil)

	engine := moderation.NewService(storageMock)

	// Act
	res, err := engine.Ban(testHandle, "mod-2", "worse spam")

	// Assert
	assert.NoError(t, err)
	assert.True(t, res.ReBanned)
	assert.NotEmpty(t, res.CaseID)
	storageMock.AssertCalled(t, "DeleteBanByHash", testHandle)
}

func TestBan_RetriesOnCaseIDCollision(t *testing.T) {
	// Arrange: the insert conflicts but the handle is not banned, meaning a
	// concurrent ban grabbed the same case id. The engine retries without
	// deleting anything and the result is not a re-ban.
	storageMock := new(MockStorage)
	storageMock.On("GetBanByCaseID", mock.AnythingOfType("string")).Return(nil, nil)
	storageMock.On("SaveBan", mock.AnythingOfType("*models.Ban")).Return(storage.ErrBanExists).Once()
	storageMock.On("SaveBan", mock.AnythingOfType("*models.Ban")).Return(nil).Once()
	storageMock.On("GetBanByHash", testHandle).Return(nil, nil)
	storageMock.On("PublishEvent", mock.AnythingOfType("models.ModerationEvent")).Return(nil)

	engine := moderation.NewService(storageMock)

	// Act
	res, err := engine.Ban(testHandle, "mod-1", "spam")

	// Assert
	assert.NoError(t, err)
	assert.False(t, res.ReBanned)
	storageMock.AssertNotCalled(t, "DeleteBanByHash", mock.Anything)
}

func TestBanForSubmission_CascadesDeny(t *testing.T) {
	// Arrange
	pending := &models.Submission{ID: 9, UserHash: testHandle, Status: models.StatusPending}
	storageMock := new(MockStorage)
	storageMock.On("GetSubmission", uint(9)).Return(pending, nil)
	storageMock.On("GetBanByCaseID", mock.AnythingOfType("string")).Return(nil, nil)
	storageMock.On("SaveBan", mock.AnythingOfType("*models.Ban")).Return(nil)
	storageMock.On("MarkDenied", uint(9), "mod-1").Return(true, nil)
	storageMock.On("PublishEvent", mock.AnythingOfType("models.ModerationEvent")).Return(nil)

	engine := moderation.NewService(storageMock)

	// Act
	res, err := engine.BanForSubmission(9, "mod-1", "spam")

	// Assert
	assert.NoError(t, err)
	assert.NotNil(t, res)
	storageMock.AssertCalled(t, "MarkDenied", uint(9), "mod-1")
}

func TestBanForSubmission_NoOpWhenSubmissionAbsent(t *testing.T) {
	storageMock := new(MockStorage)
	storageMock.On("GetSubmission", uint(99)).Return(nil, nil)

	engine := moderation.NewService(storageMock)

	res, err := engine.BanForSubmission(99, "mod-1", "spam")

	assert.NoError(t, err)
	assert.Nil(t, res)
	storageMock.AssertNotCalled(t, "SaveBan", mock.Anything)
}

func TestBanForSubmission_SkipsDenyWhenAlreadyReviewed(t *testing.T) {
	approved := &models.Submission{ID: 9, UserHash: testHandle, Status: models.StatusApproved}
	storageMock := new(MockStorage)
	storageMock.On("GetSubmission", uint(9)).Return(approved, nil)
	storageMock.On("GetBanByCaseID", mock.AnythingOfType("string")).Return(nil, nil)
	storageMock.On("SaveBan", mock.AnythingOfType("*models.Ban")).Return(nil)
	storageMock.On("PublishEvent", mock.AnythingOfType("models.ModerationEvent")).Return(nil)

	engine := moderation.NewService(storageMock)

	res, err := engine.BanForSubmission(9, "mod-1", "spam")

	assert.NoError(t, err)
	assert.NotNil(t, res)
	storageMock.AssertNotCalled(t, "MarkDenied", mock.Anything, mock.Anything)
}

func TestUnban_IsIdempotent(t *testing.T) {
	storageMock := new(MockStorage)
	storageMock.On("DeleteBanByHash", testHandle).Return(true, nil).Once()
	storageMock.On("DeleteBanByHash", testHandle).Return(false, nil).Once()
	storageMock.On("PublishEvent", mock.AnythingOfType("models.ModerationEvent")).Return(nil)

	engine := moderation.NewService(storageMock)

	removed, err := engine.Unban(testHandle)
	assert.NoError(t, err)
	assert.True(t, removed)

	removed, err = engine.Unban(testHandle)
	assert.NoError(t, err)
	assert.False(t, removed)
	storageMock.AssertNumberOfCalls(t, "PublishEvent", 1)
}

func TestUnbanByCase_ReturnsRemovedBan(t *testing.T) {
	removed := &models.Ban{UserHash: testHandle, CaseID: "1234"}
	storageMock := new(MockStorage)
	storageMock.On("DeleteBanByCaseID", "1234").Return(removed, nil).Once()
	storageMock.On("DeleteBanByCaseID", "1234").Return(nil, nil).Once()
	storageMock.On("PublishEvent", mock.AnythingOfType("models.ModerationEvent")).Return(nil)

	engine := moderation.NewService(storageMock)

	ban, err := engine.UnbanByCase("1234")
	assert.NoError(t, err)
	assert.Equal(t, removed, ban)

	ban, err = engine.UnbanByCase("1234")
	assert.NoError(t, err)
	assert.Nil(t, ban)
}

func TestUnbanByCase_RejectsMalformedCaseID(t *testing.T) {
	engine := moderation.NewService(new(MockStorage))

	cases := []string{"", "12", "0999", "12a4", strings.Repeat("9", 9)}
	for _, caseID := range cases {
		_, err := engine.UnbanByCase(caseID)
		var verr *moderation.ValidationError
		assert.ErrorAs(t, err, &verr, "case id %q", caseID)
	}
}
