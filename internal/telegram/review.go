package telegram

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"honestbox/backend/internal/config"
	"honestbox/backend/internal/identity"
	"honestbox/backend/internal/models"
	"honestbox/backend/internal/moderation"
)

// Callback data is "<action>:<submission id>".
const (
	actionApprove = "approve"
	actionDeny    = "deny"
	actionBan     = "ban"
)

// postReviewCard sends a pending submission into the moderator chat with
// the decision buttons. A ban on the submitting handle is shown as a
// warning, never hidden: intake before a ban is still reviewable.
func (s *BotService) postReviewCard(sub *models.Submission, ban *models.Ban) {
	var b strings.Builder
	b.WriteString(s.text("review_new"))
	b.WriteString("\n\n")
	b.WriteString(sub.Text)
	b.WriteString("\n\n")
	b.WriteString(s.text("review_pending"))
	if ban != nil {
		b.WriteString("\n")
		fmt.Fprintf(&b, s.text("review_ban_warning"), ban.BannedBy, ban.Reason)
	}
	b.WriteString("\n")
	b.WriteString(sub.UserHash)

	idArg := strconv.FormatUint(uint64(sub.ID), 10)
	rows := []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("Approve", actionApprove+":"+idArg),
		tgbotapi.NewInlineKeyboardButtonData("Deny", actionDeny+":"+idArg),
	}
	if len(s.AdminIDs) > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardButtonData("Ban User", actionBan+":"+idArg))
	}

	msg := tgbotapi.NewMessage(s.ReviewChatID, b.String())
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(rows...))
	if _, err := s.BotAPI.Send(msg); err != nil {
		log.Printf("ERROR: Failed to post review card for submission %d: %v", sub.ID, err)
	}
}

// handleCallbackQuery dispatches review card button presses.
func (s *BotService) handleCallbackQuery(cq *tgbotapi.CallbackQuery) {
	// Always answer, so the button stops showing the loading state.
	if _, err := s.BotAPI.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		log.Printf("Failed to answer callback query: %v", err)
	}

	action, idStr, ok := strings.Cut(cq.Data, ":")
	if !ok {
		return
	}
	id64, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		return
	}
	id := uint(id64)

	switch action {
	case actionApprove:
		s.handleApprove(cq, id)
	case actionDeny:
		s.handleDeny(cq, id)
	case actionBan:
		s.handleBanButton(cq, id)
	}
}

// handleApprove publishes the content into the public thread first, then
// records the decision with the resulting message id as the posted
// reference. A publish failure means no decision is recorded at all.
func (s *BotService) handleApprove(cq *tgbotapi.CallbackQuery, id uint) {
	sub, err := s.Engine.GetSubmission(id)
	if err != nil {
		log.Printf("ERROR: Failed to load submission %d: %v", id, err)
		return
	}
	if sub == nil || sub.Status != models.StatusPending {
		s.reply(s.ReviewChatID, s.text("review_already_handled"))
		return
	}

	post := tgbotapi.NewMessage(s.PublicChatID, sub.Text)
	if threadID, err := strconv.Atoi(sub.ThreadTS); err == nil {
		post.ReplyToMessageID = threadID
	}
	sent, err := s.BotAPI.Send(post)
	if err != nil {
		log.Printf("ERROR: Failed to publish submission %d: %v", id, err)
		s.reply(s.ReviewChatID, s.text("publish_failed"))
		return
	}

	reviewer := moderatorName(cq.From)
	applied, err := s.Engine.Approve(id, reviewer, strconv.Itoa(sent.MessageID))
	if err != nil {
		log.Printf("ERROR: Failed to record approval of submission %d: %v", id, err)
		return
	}
	if !applied {
		// Another decision won the race after our pending check; the
		// published message stays, matching the committed record only if
		// that decision was also an approve. Worth surfacing in logs.
		log.Printf("WARN: Approval of submission %d lost a decision race", id)
	}

	s.updateReviewCard(cq, sub, fmt.Sprintf(s.text("review_approved"), reviewer))
}

// handleDeny records a deny decision.
func (s *BotService) handleDeny(cq *tgbotapi.CallbackQuery, id uint) {
	sub, err := s.Engine.GetSubmission(id)
	if err != nil {
		log.Printf("ERROR: Failed to load submission %d: %v", id, err)
		return
	}
	if sub == nil || sub.Status != models.StatusPending {
		s.reply(s.ReviewChatID, s.text("review_already_handled"))
		return
	}

	reviewer := moderatorName(cq.From)
	if _, err := s.Engine.Deny(id, reviewer); err != nil {
		log.Printf("ERROR: Failed to record denial of submission %d: %v", id, err)
		return
	}
	s.updateReviewCard(cq, sub, fmt.Sprintf(s.text("review_denied"), reviewer))
}

// handleBanButton starts the ban dialogue: only admins may ban, and the
// actual ban waits for a reason message from the same moderator.
func (s *BotService) handleBanButton(cq *tgbotapi.CallbackQuery, id uint) {
	if !s.isAdmin(cq.From.ID) {
		s.reply(s.ReviewChatID, s.text("not_admin"))
		return
	}
	s.banPrompts[cq.From.ID] = &banPrompt{SubmissionID: id}
	s.reply(s.ReviewChatID, fmt.Sprintf("%s %s", moderatorName(cq.From), s.text("ban_reason_prompt")))
}

// handleReviewChatMessage picks up ban reasons and admin commands posted
// in the moderator chat.
func (s *BotService) handleReviewChatMessage(msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	if msg.IsCommand() {
		s.handleAdminCommand(msg)
		return
	}

	prompt, ok := s.banPrompts[msg.From.ID]
	if !ok || msg.Text == "" {
		return
	}
	delete(s.banPrompts, msg.From.ID)

	moderator := moderatorName(msg.From)
	res, err := s.Engine.BanForSubmission(prompt.SubmissionID, moderator, msg.Text)
	if err != nil {
		log.Printf("ERROR: Ban via review card failed for submission %d: %v", prompt.SubmissionID, err)
		s.reply(s.ReviewChatID, s.text("ban_failed"))
		return
	}
	if res == nil {
		s.reply(s.ReviewChatID, s.text("review_already_handled"))
		return
	}
	s.announceBan(s.ReviewChatID, res)
}

// handleAdminCommand implements /ban, /unban, /unbancase and /listbans.
func (s *BotService) handleAdminCommand(msg *tgbotapi.Message) {
	if !s.isAdmin(msg.From.ID) {
		s.reply(msg.Chat.ID, s.text("not_admin"))
		return
	}

	chatID := msg.Chat.ID
	moderator := moderatorName(msg.From)
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "ban":
		hash, reason, _ := strings.Cut(args, " ")
		if !identity.IsHandle(hash) {
			s.reply(chatID, s.text("usage_ban"))
			return
		}
		reason = strings.TrimSpace(reason)
		if reason == "" {
			reason = "No reason"
		}
		res, err := s.Engine.Ban(hash, moderator, reason)
		if err != nil {
			log.Printf("ERROR: /ban failed: %v", err)
			s.reply(chatID, s.text("ban_failed"))
			return
		}
		s.announceBan(chatID, res)

	case "unban":
		if !identity.IsHandle(args) {
			s.reply(chatID, s.text("usage_unban"))
			return
		}
		removed, err := s.Engine.Unban(args)
		if err != nil {
			log.Printf("ERROR: /unban failed: %v", err)
			return
		}
		if removed {
			s.reply(chatID, s.text("unban_ok"))
		} else {
			s.reply(chatID, s.text("unban_miss"))
		}

	case "unbancase":
		ban, err := s.Engine.UnbanByCase(args)
		if err != nil {
			var verr *moderation.ValidationError
			if errors.As(err, &verr) {
				s.reply(chatID, s.text("usage_unbancase"))
				return
			}
			log.Printf("ERROR: /unbancase failed: %v", err)
			return
		}
		if ban != nil {
			s.reply(chatID, fmt.Sprintf(s.text("unban_case_ok"), ban.CaseID))
		} else {
			s.reply(chatID, s.text("unban_case_miss"))
		}

	case "listbans":
		s.handleListBans(chatID)
	}
}

// announceBan reports a completed ban, distinguishing first bans from
// replacements.
func (s *BotService) announceBan(chatID int64, res *moderation.BanResult) {
	if res.ReBanned {
		s.reply(chatID, fmt.Sprintf(s.text("reban_ok"), res.CaseID))
	} else {
		s.reply(chatID, fmt.Sprintf(s.text("ban_ok"), res.CaseID))
	}
}

// handleListBans prints all active bans in chunks that stay under the
// message size limit.
func (s *BotService) handleListBans(chatID int64) {
	bans, err := s.Engine.ListBans()
	if err != nil {
		log.Printf("ERROR: /listbans failed: %v", err)
		return
	}
	if len(bans) == 0 {
		s.reply(chatID, s.text("listbans_empty"))
		return
	}

	header := fmt.Sprintf(s.text("listbans_header"), len(bans))
	for start := 0; start < len(bans); start += config.ListBansChunkSize {
		end := start + config.ListBansChunkSize
		if end > len(bans) {
			end = len(bans)
		}
		s.reply(chatID, header+"\n\n"+formatBanList(bans[start:end], start))
		header = s.text("listbans_continued")
	}
}

// formatBanList renders one chunk of the ban listing, numbering entries
// from offset.
func formatBanList(bans []models.Ban, offset int) string {
	var b strings.Builder
	for i, ban := range bans {
		bannedBy := ban.BannedBy
		if bannedBy == "" {
			bannedBy = "Unknown"
		}
		reason := ban.Reason
		if reason == "" {
			reason = "N/A"
		}
		fmt.Fprintf(&b, "%d. %s\n   Case #%s | Banned: %s\n   By: %s\n   Reason: %s\n\n",
			offset+i+1, ban.UserHash, ban.CaseID, ban.BannedAt.Format("2006-01-02"), bannedBy, reason)
	}
	return strings.TrimRight(b.String(), "\n")
}

// updateReviewCard rewrites the card after a decision, dropping the
// buttons so stale actions are impossible from the UI side too.
func (s *BotService) updateReviewCard(cq *tgbotapi.CallbackQuery, sub *models.Submission, outcome string) {
	if cq.Message == nil {
		return
	}
	text := fmt.Sprintf("%s\n\n%s\n\n%s\n%s", s.text("review_new"), sub.Text, outcome, sub.UserHash)
	edit := tgbotapi.NewEditMessageText(cq.Message.Chat.ID, cq.Message.MessageID, text)
	if _, err := s.BotAPI.Send(edit); err != nil {
		log.Printf("ERROR: Failed to update review card for submission %d: %v", sub.ID, err)
	}
}
