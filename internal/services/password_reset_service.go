package services

import (
	"fmt"
	"log"
	"strings"
	"time"

	"deeptech/internal/repositories"
	"deeptech/internal/utils"
)

const resetTokenTTL = 1 * time.Hour

type PasswordResetService interface {
	RequestReset(email string) error
	ResetPassword(token, newPassword string) error
}

type passwordResetService struct {
	accounts repositories.AccountRepository
	repo     repositories.PasswordResetRepository
	emails   EmailService
	auth     AuthService
}

func NewPasswordResetService(accounts repositories.AccountRepository, repo repositories.PasswordResetRepository, emails EmailService, auth AuthService) PasswordResetService {
	return &passwordResetService{
		accounts: accounts,
		repo:     repo,
		emails:   emails,
		auth:     auth,
	}
}

func (s *passwordResetService) RequestReset(email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	a, err := s.accounts.GetByEmail(email)
	if err != nil || a == nil {
		// don't leak existence
		log.Printf("[password-reset] request for %q: account not found or error: %v", email, err)
		return nil
	}
	if !a.HasSetPassword {
		// сбрасывать нечего; тот же ответ наружу
		log.Printf("[password-reset] request for %q: password never set", email)
		return nil
	}

	token, err := utils.NewResetToken(32)
	if err != nil {
		return err
	}
	expires := time.Now().Add(resetTokenTTL)
	if _, err := s.repo.Create(a.ID, token, expires); err != nil {
		return err
	}

	if s.emails != nil {
		if err := s.emails.SendPasswordResetEmail(a.Email, token); err != nil {
			log.Printf("[password-reset] failed to send email to %s: %v", a.Email, err)
		}
	}
	return nil
}

func (s *passwordResetService) ResetPassword(token, newPassword string) error {
	token = strings.TrimSpace(token)
	newPassword = strings.TrimSpace(newPassword)
	if token == "" || newPassword == "" {
		return fmt.Errorf("token and password are required")
	}
	if len(newPassword) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}

	pr, err := s.repo.GetByToken(token)
	if err != nil {
		return err
	}
	if pr == nil || pr.UsedAt != nil || time.Now().After(pr.ExpiresAt) {
		return ErrResetTokenInvalid
	}

	// гасим токен до записи пароля: второй конкурентный confirm отваливается
	used, err := s.repo.MarkUsed(pr.ID)
	if err != nil {
		return err
	}
	if !used {
		return ErrResetTokenInvalid
	}

	hash, err := s.auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.accounts.UpdatePasswordHash(pr.AccountID, hash)
}
