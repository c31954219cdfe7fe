package services

import (
	"fmt"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/google/uuid"
)

type EmailService interface {
	SendVerificationLink(email, fullName string, accountID uuid.UUID) error
	SendVerificationCode(email, fullName, code string) error
	SendPasswordResetEmail(email, token string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	from        string
	baseURL     string
	sendTimeout time.Duration
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail, baseURL string, sendTimeout time.Duration) EmailService {
	dialer := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword)
	return &emailService{
		dialer:      dialer,
		from:        fromEmail,
		baseURL:     baseURL,
		sendTimeout: sendTimeout,
	}
}

// sendWithTimeout — отправка не должна держать state transition дольше таймаута.
// DialAndSend не принимает контекст, поэтому ждём его в горутине.
func (s *emailService) sendWithTimeout(m *gomail.Message) error {
	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(m)
	}()
	select {
	case err := <-done:
		return err
	case <-time.After(s.sendTimeout):
		return fmt.Errorf("email send timed out after %s", s.sendTimeout)
	}
}

func (s *emailService) SendVerificationLink(email, fullName string, accountID uuid.UUID) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Verify your Deep Tech account")

	link := fmt.Sprintf("%s/auth/verifyDTusermail/%s?email=%s", s.baseURL, accountID, email)
	body := fmt.Sprintf(`
		<h2>Welcome to Deep Tech, %s!</h2>
		<p>Please confirm your email address by following the link below:</p>
		<p><a href="%s">Verify my email</a></p>
		<p>If you did not create this account, you can ignore this email.</p>
		<p>Best regards,<br>The Deep Tech Team</p>
	`, fullName, link)

	m.SetBody("text/html", body)

	if err := s.sendWithTimeout(m); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}

func (s *emailService) SendVerificationCode(email, fullName, code string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Your Deep Tech verification code")

	body := fmt.Sprintf(`
		<h2>Hello, %s!</h2>
		<p>Your one-time verification code:</p>
		<h1>%s</h1>
		<p>The code expires in 15 minutes. Do not share it with anyone.</p>
	`, fullName, code)

	m.SetBody("text/html", body)

	if err := s.sendWithTimeout(m); err != nil {
		return fmt.Errorf("failed to send verification code: %w", err)
	}
	return nil
}

func (s *emailService) SendPasswordResetEmail(email, token string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Password reset request")

	body := fmt.Sprintf(`
		<h3>Password reset requested</h3>
		<p>We received a request to reset the password for your account.</p>
		<p>Use the following token to reset your password: <strong>%s</strong></p>
		<p>If you did not request this change, you can ignore this email.</p>
	`, token)

	m.SetBody("text/html", body)

	if err := s.sendWithTimeout(m); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	return nil
}
