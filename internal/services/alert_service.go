package services

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// AlertService — best-effort уведомления в ops-чат. Ошибки только логируем,
// основную операцию они не валят.
type AlertService interface {
	AdminAccountCreated(email string)
	OTPLockout(email string)
}

type telegramAlertService struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramAlertService — nil-сервис при пустом токене, вызовы станут no-op.
func NewTelegramAlertService(botToken string, chatID int64) AlertService {
	if botToken == "" || chatID == 0 {
		return &telegramAlertService{}
	}
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		log.Printf("[alerts][init] telegram bot unavailable: %v", err)
		return &telegramAlertService{}
	}
	return &telegramAlertService{bot: bot, chatID: chatID}
}

func (s *telegramAlertService) send(text string) {
	if s == nil || s.bot == nil || s.chatID == 0 {
		return
	}
	msg := tgbotapi.NewMessage(s.chatID, text)
	if _, err := s.bot.Send(msg); err != nil {
		log.Printf("[alerts][send] failed: %v", err)
	}
}

func (s *telegramAlertService) AdminAccountCreated(email string) {
	s.send(fmt.Sprintf("New admin account created: %s (awaiting OTP verification)", email))
}

func (s *telegramAlertService) OTPLockout(email string) {
	s.send(fmt.Sprintf("OTP attempt limit reached for %s, code expired", email))
}
