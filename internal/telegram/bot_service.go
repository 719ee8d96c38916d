// Package telegram runs the review-channel transport: it accepts
// anonymous replies over DM, shows moderators a review card with
// approve/deny/ban controls, and publishes approved content back into the
// public discussion. All moderation state lives behind the engine; this
// package only translates Telegram updates into engine calls.
package telegram

import (
	"log"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"honestbox/backend/internal/identity"
	"honestbox/backend/internal/localization"
	"honestbox/backend/internal/moderation"
	"honestbox/backend/internal/storage"
)

const (
	StateWaitingForReply = "waiting_for_reply"
)

// banPrompt tracks a moderator who pressed Ban and owes us a reason.
type banPrompt struct {
	SubmissionID uint
}

// BotService is responsible for receiving Telegram updates and routing
// them to the moderation engine.
type BotService struct {
	BotAPI    *tgbotapi.BotAPI
	Engine    *moderation.Service
	Storage   storage.Storage
	Hasher    *identity.Hasher
	Localizer *localization.Localizer

	// ReviewChatID is the moderator chat receiving review cards.
	ReviewChatID int64
	// PublicChatID is the discussion group approved replies are posted to.
	PublicChatID int64
	// AdminIDs are the Telegram user ids allowed to ban and unban.
	AdminIDs map[int64]bool

	userStates   map[int64]string
	threadBuffer map[int64]string
	banPrompts   map[int64]*banPrompt
}

// NewBotService creates a new BotService instance.
func NewBotService(token string, engine *moderation.Service, s storage.Storage, hasher *identity.Hasher,
	reviewChatID, publicChatID int64, adminIDs []int64) (*BotService, error) {

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	bot.Debug = false
	log.Printf("Authorized on account %s", bot.Self.UserName)

	localizer, err := localization.NewLocalizer()
	if err != nil {
		return nil, err
	}

	admins := make(map[int64]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}

	return &BotService{
		BotAPI:       bot,
		Engine:       engine,
		Storage:      s,
		Hasher:       hasher,
		Localizer:    localizer,
		ReviewChatID: reviewChatID,
		PublicChatID: publicChatID,
		AdminIDs:     admins,
		userStates:   make(map[int64]string),
		threadBuffer: make(map[int64]string),
		banPrompts:   make(map[int64]*banPrompt),
	}, nil
}

// Run is the main loop for receiving Telegram updates.
func (s *BotService) Run() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := s.BotAPI.GetUpdatesChan(u)

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			s.handleCallbackQuery(update.CallbackQuery)
		case update.Message != nil:
			if update.Message.Chat.ID == s.ReviewChatID {
				s.handleReviewChatMessage(update.Message)
			} else if update.Message.Chat.IsPrivate() {
				s.handlePrivateMessage(update.Message)
			}
		}
	}
}

// handlePrivateMessage routes DMs: thread selection via forward, then the
// reply text itself.
func (s *BotService) handlePrivateMessage(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			s.reply(chatID, s.text("start_instructions"))
		case "ban", "unban", "unbancase", "listbans":
			// Admins may also drive moderation from their own DM.
			s.handleAdminCommand(msg)
		default:
			s.reply(chatID, s.text("start_instructions"))
		}
		return
	}

	if msg.ForwardFromMessageID != 0 {
		s.handleThreadSelection(msg)
		return
	}

	if s.userStates[chatID] == StateWaitingForReply {
		s.handleSubmission(msg)
		return
	}

	s.reply(chatID, s.text("need_thread"))
}

// handleThreadSelection records which thread the user wants to reply to.
// Banned users are turned away here already, before they type anything.
func (s *BotService) handleThreadSelection(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	handle := s.Hasher.Hash(strconv.FormatInt(msg.From.ID, 10))

	banned, err := s.Storage.IsBanned(handle)
	if err != nil {
		log.Printf("ERROR: Ban pre-check failed for %s: %v", handle, err)
		return
	}
	if banned {
		s.reply(chatID, s.text("banned_notice"))
		return
	}

	s.threadBuffer[chatID] = strconv.Itoa(msg.ForwardFromMessageID)
	s.userStates[chatID] = StateWaitingForReply
	s.reply(chatID, s.text("thread_selected"))
}

// handleSubmission runs intake for the reply text and posts the review
// card on success.
func (s *BotService) handleSubmission(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	threadTS, ok := s.threadBuffer[chatID]
	if !ok || msg.Text == "" {
		s.reply(chatID, s.text("need_thread"))
		return
	}

	handle := s.Hasher.Hash(strconv.FormatInt(msg.From.ID, 10))
	channelID := strconv.FormatInt(s.PublicChatID, 10)

	sub, ban, err := s.Engine.Submit(handle, msg.Text, channelID, threadTS)
	if err != nil {
		log.Printf("ERROR: Intake failed for %s: %v", handle, err)
		return
	}
	if sub == nil {
		// Rejected: the handle picked up a ban since the pre-check.
		s.reply(chatID, s.text("banned_notice"))
		return
	}

	delete(s.userStates, chatID)
	delete(s.threadBuffer, chatID)
	s.reply(chatID, s.text("submission_received"))
	s.postReviewCard(sub, ban)
}

// reply sends a plain text message and logs delivery failures.
func (s *BotService) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := s.BotAPI.Send(msg); err != nil {
		log.Printf("ERROR: Failed to send Telegram message to %d: %v", chatID, err)
	}
}

// text resolves a catalog key. Moderator copy is English-only for now.
func (s *BotService) text(key string) string {
	return s.Localizer.GetString("en", key)
}

func (s *BotService) isAdmin(userID int64) bool {
	return s.AdminIDs[userID]
}

// moderatorName renders a reviewer reference for audit fields and cards.
func moderatorName(u *tgbotapi.User) string {
	if u == nil {
		return "unknown"
	}
	if u.UserName != "" {
		return "@" + u.UserName
	}
	return strconv.FormatInt(u.ID, 10)
}
