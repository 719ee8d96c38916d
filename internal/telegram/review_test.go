package telegram

import (
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"

	"honestbox/backend/internal/models"
)

func TestModeratorName(t *testing.T) {
	assert.Equal(t, "unknown", moderatorName(nil))
	assert.Equal(t, "@reviewer", moderatorName(&tgbotapi.User{ID: 42, UserName: "reviewer"}))
	assert.Equal(t, "42", moderatorName(&tgbotapi.User{ID: 42}))
}

func TestFormatBanList(t *testing.T) {
	when := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	bans := []models.Ban{
		{UserHash: "aaaa", CaseID: "1234", BannedAt: when, BannedBy: "@mod", Reason: "spam"},
		{UserHash: "bbbb", CaseID: "5678", BannedAt: when},
	}

	out := formatBanList(bans, 0)

	assert.Contains(t, out, "1. aaaa")
	assert.Contains(t, out, "Case #1234")
	assert.Contains(t, out, "Banned: 2026-03-14")
	assert.Contains(t, out, "By: @mod")
	assert.Contains(t, out, "Reason: spam")
	// Blank audit fields render as placeholders rather than empty strings.
	assert.Contains(t, out, "2. bbbb")
	assert.Contains(t, out, "By: Unknown")
	assert.Contains(t, out, "Reason: N/A")
}

func TestFormatBanList_NumbersFromOffset(t *testing.T) {
	bans := []models.Ban{{UserHash: "cccc", CaseID: "9012"}}

	out := formatBanList(bans, 20)

	assert.Contains(t, out, "21. cccc")
}
