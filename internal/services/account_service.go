package services

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"deeptech/internal/authz"
	"deeptech/internal/models"
	"deeptech/internal/repositories"
	"deeptech/internal/utils"
)

// Настройки безопасности (можно вынести в конфиг при желании)
const (
	maxResendsPerWindow = 3
	resendWindow        = 10 * time.Minute
	maxConfirmAttempts  = 5
	defaultCodeTTL      = 15 * time.Minute
)

type AccountService interface {
	// CreateDTUser / CreateAdmin возвращают emailSent: неудачная отправка
	// письма не валит создание (если не включён require_delivery).
	CreateDTUser(req *models.CreateDTUserRequest) (*models.Account, bool, error)
	CreateAdmin(req *models.CreateAdminRequest) (*models.Account, bool, error)

	// already=true — аккаунт уже был верифицирован, повтор не ошибка.
	VerifyEmailLink(accountID uuid.UUID, email string) (already bool, err error)
	VerifyOTP(email, code string) (already bool, err error)

	SetupPassword(accountID uuid.UUID, email, password, confirmPassword string) error
	Login(email, password string) (*models.Account, string, error)
	ResendVerification(email string) (already bool, emailSent bool, err error)
	ResetPassword(accountID uuid.UUID, oldPassword, newPassword, confirmNewPassword string) error

	SubmitAnnotatorApplication(accountID uuid.UUID) error
	UpdateAnnotatorStatus(accountID uuid.UUID, status string) error
	UpdateMicroTaskerStatus(accountID uuid.UUID, status string) error

	GetByID(id uuid.UUID) (*models.Account, error)
	List(limit, offset int) ([]*models.Account, error)
	GetCount() (int, error)
}

type AccountServiceConfig struct {
	AdminKey            string
	AdminEmailDomain    string
	AdminEmailAllowlist []string
	CodeTTL             time.Duration
	RequireDelivery     bool
}

type accountService struct {
	accounts repositories.AccountRepository
	codes    repositories.VerificationCodeRepository
	auth     AuthService
	emails   EmailService
	alerts   AlertService
	cfg      AccountServiceConfig
}

func NewAccountService(
	accounts repositories.AccountRepository,
	codes repositories.VerificationCodeRepository,
	auth AuthService,
	emails EmailService,
	alerts AlertService,
	cfg AccountServiceConfig,
) AccountService {
	if cfg.CodeTTL <= 0 {
		cfg.CodeTTL = defaultCodeTTL
	}
	return &accountService{
		accounts: accounts,
		codes:    codes,
		auth:     auth,
		emails:   emails,
		alerts:   alerts,
		cfg:      cfg,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// ================== СОЗДАНИЕ ==================

func (s *accountService) CreateDTUser(req *models.CreateDTUserRequest) (*models.Account, bool, error) {
	email := normalizeEmail(req.Email)
	fullName := strings.TrimSpace(req.FullName)
	if email == "" || fullName == "" {
		return nil, false, fmt.Errorf("email and fullName are required")
	}

	existing, err := s.accounts.GetByEmail(email)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return nil, false, ErrEmailTaken
	}

	a := &models.Account{
		Email:    email,
		FullName: fullName,
		Role:     models.RoleAnnotator,
	}
	if err := s.accounts.Create(a); err != nil {
		if isUniqueViolation(err) {
			return nil, false, ErrEmailTaken
		}
		return nil, false, err
	}

	emailSent, err := s.issueAndNotify(a)
	if err != nil {
		return nil, false, err
	}
	return a, emailSent, nil
}

func (s *accountService) CreateAdmin(req *models.CreateAdminRequest) (*models.Account, bool, error) {
	if subtle.ConstantTimeCompare([]byte(req.AdminKey), []byte(s.cfg.AdminKey)) != 1 {
		return nil, false, ErrAdminKeyInvalid
	}

	email := normalizeEmail(req.Email)
	fullName := strings.TrimSpace(req.FullName)
	if email == "" || fullName == "" {
		return nil, false, fmt.Errorf("email and fullName are required")
	}
	// политика проверяется до любых side effects: ни аккаунта, ни OTP
	if !authz.AdminEmailAllowed(email, s.cfg.AdminEmailDomain, s.cfg.AdminEmailAllowlist) {
		return nil, false, ErrAdminEmailPolicy
	}

	existing, err := s.accounts.GetByEmail(email)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return nil, false, ErrEmailTaken
	}

	a := &models.Account{
		Email:    email,
		FullName: fullName,
		Role:     models.RoleAdmin,
	}
	if err := s.accounts.Create(a); err != nil {
		if isUniqueViolation(err) {
			return nil, false, ErrEmailTaken
		}
		return nil, false, err
	}

	emailSent, err := s.issueAndNotify(a)
	if err != nil {
		return nil, false, err
	}
	if s.alerts != nil {
		s.alerts.AdminAccountCreated(a.Email)
	}
	return a, emailSent, nil
}

// issueAndNotify — новый код (каждая выдача гасит предыдущий) + письмо.
// Аннотатору уходит ссылка, админу — сам код.
func (s *accountService) issueAndNotify(a *models.Account) (bool, error) {
	code, err := utils.NewOTP()
	if err != nil {
		return false, err
	}
	codeHash, err := s.auth.HashPassword(code)
	if err != nil {
		return false, fmt.Errorf("hash verification code: %w", err)
	}
	sentAt := time.Now()
	if _, err := s.codes.Issue(a.Email, codeHash, sentAt, sentAt.Add(s.cfg.CodeTTL)); err != nil {
		return false, err
	}

	var sendErr error
	if s.emails != nil {
		if a.Role == models.RoleAdmin {
			sendErr = s.emails.SendVerificationCode(a.Email, a.FullName, code)
		} else {
			sendErr = s.emails.SendVerificationLink(a.Email, a.FullName, a.ID)
		}
	}
	if sendErr != nil {
		log.Printf("[account][notify] warning: failed to send verification email to %s: %v", a.Email, sendErr)
		if s.cfg.RequireDelivery {
			if delErr := s.accounts.Delete(a.ID); delErr != nil {
				log.Printf("[account][notify] rollback failed for %s: %v", a.Email, delErr)
			}
			return false, fmt.Errorf("verification email delivery failed: %w", sendErr)
		}
		return false, nil
	}
	return true, nil
}

// ================== ВЕРИФИКАЦИЯ ==================

func (s *accountService) VerifyEmailLink(accountID uuid.UUID, email string) (bool, error) {
	a, err := s.accounts.GetByID(accountID)
	if err != nil {
		return false, err
	}
	if a == nil {
		return false, ErrNotFound
	}
	if normalizeEmail(email) != a.Email {
		return false, ErrEmailMismatch
	}
	if a.IsEmailVerified {
		return true, nil
	}

	changed, err := s.accounts.MarkEmailVerified(a.ID)
	if err != nil {
		return false, err
	}
	if !changed {
		// гонка двух переходов по ссылке: кто-то успел раньше
		return true, nil
	}
	if err := s.codes.ConsumeAllForEmail(a.Email); err != nil {
		log.Printf("[account][verify-link] failed to consume codes for %s: %v", a.Email, err)
	}
	log.Printf("[account][verify-link] OK id=%s", a.ID)
	return false, nil
}

func (s *accountService) VerifyOTP(email, code string) (bool, error) {
	email = normalizeEmail(email)
	a, err := s.accounts.GetByEmail(email)
	if err != nil {
		return false, err
	}
	if a == nil {
		return false, ErrNotFound
	}
	if a.IsEmailVerified {
		return true, nil
	}

	v, err := s.codes.GetActiveByEmail(email)
	if err != nil {
		return false, err
	}
	if v == nil {
		return false, ErrCodeNotFound
	}
	// TTL проверяем на чтении: истёкший код не валидирует никогда
	if time.Now().After(v.ExpiresAt) {
		return false, ErrCodeExpired
	}

	if !s.auth.CheckPassword(v.CodeHash, strings.TrimSpace(code)) {
		attempts, incErr := s.codes.IncrementAttempts(v.ID)
		if incErr != nil {
			return false, incErr
		}
		if attempts >= maxConfirmAttempts {
			_ = s.codes.ExpireNow(v.ID)
			if s.alerts != nil {
				s.alerts.OTPLockout(email)
			}
			return false, ErrTooManyAttempts
		}
		return false, ErrCodeMismatch
	}

	consumed, err := s.codes.Consume(v.ID)
	if err != nil {
		return false, err
	}
	if !consumed {
		// параллельный вызов успел погасить код; если аккаунт уже
		// верифицирован — это идемпотентный повтор, иначе код истёк
		fresh, err := s.accounts.GetByID(a.ID)
		if err != nil {
			return false, err
		}
		if fresh != nil && fresh.IsEmailVerified {
			return true, nil
		}
		return false, ErrCodeExpired
	}

	if _, err := s.accounts.MarkEmailVerified(a.ID); err != nil {
		return false, err
	}
	log.Printf("[account][verify-otp] OK email=%s", email)
	return false, nil
}

func (s *accountService) ResendVerification(email string) (bool, bool, error) {
	email = normalizeEmail(email)
	a, err := s.accounts.GetByEmail(email)
	if err != nil {
		return false, false, err
	}
	if a == nil {
		return false, false, ErrNotFound
	}
	if a.IsEmailVerified {
		// no-op, повтор не ошибка
		return true, false, nil
	}

	// Троттлинг отправок: не чаще 3/10мин
	since := time.Now().Add(-resendWindow)
	cnt, err := s.codes.CountRecentSends(email, since)
	if err != nil {
		return false, false, err
	}
	if cnt >= maxResendsPerWindow {
		return false, false, ErrResendThrottled
	}

	emailSent, err := s.issueAndNotify(a)
	if err != nil {
		return false, false, err
	}
	return false, emailSent, nil
}

// ================== ПАРОЛЬ ==================

func (s *accountService) SetupPassword(accountID uuid.UUID, email, password, confirmPassword string) error {
	a, err := s.accounts.GetByID(accountID)
	if err != nil {
		return err
	}
	if a == nil {
		return ErrNotFound
	}
	if normalizeEmail(email) != a.Email {
		return ErrEmailMismatch
	}
	if !a.IsEmailVerified {
		return ErrUnverified
	}
	if password != confirmPassword {
		return ErrPasswordMismatch
	}
	if a.HasSetPassword {
		return ErrPasswordAlreadySet
	}

	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return err
	}
	ok, err := s.accounts.SetPassword(a.ID, hash)
	if err != nil {
		return err
	}
	if !ok {
		// гонка: условный UPDATE не прошёл, пароль уже установлен
		return ErrPasswordAlreadySet
	}
	log.Printf("[account][setup-password] OK id=%s", a.ID)
	return nil
}

func (s *accountService) Login(email, password string) (*models.Account, string, error) {
	email = normalizeEmail(email)
	a, err := s.accounts.GetByEmail(email)
	if err != nil {
		return nil, "", err
	}
	if a == nil {
		// «нет такого email» и «неверный пароль» неразличимы снаружи
		return nil, "", ErrInvalidCredentials
	}
	if !a.IsEmailVerified {
		// фоновый resend: блокированный логин не должен ждать SMTP
		go func(addr string) {
			if _, _, err := s.ResendVerification(addr); err != nil {
				log.Printf("[auth][login] auto-resend for %s failed: %v", addr, err)
			}
		}(a.Email)
		return nil, "", ErrUnverified
	}
	if !a.HasSetPassword {
		// аккаунт возвращаем: хендлеру нужен userId для setupPassword
		return a, "", ErrPasswordNotSet
	}
	if !s.auth.CheckPassword(a.PasswordHash, strings.TrimSpace(password)) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.auth.IssueToken(a)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	log.Printf("[auth][login] success id=%s role=%s", a.ID, a.Role)
	return a, token, nil
}

func (s *accountService) ResetPassword(accountID uuid.UUID, oldPassword, newPassword, confirmNewPassword string) error {
	a, err := s.accounts.GetByID(accountID)
	if err != nil {
		return err
	}
	if a == nil {
		return ErrNotFound
	}
	if newPassword != confirmNewPassword {
		return ErrPasswordMismatch
	}
	if newPassword == oldPassword {
		return ErrSamePassword
	}
	if !a.HasSetPassword || !s.auth.CheckPassword(a.PasswordHash, oldPassword) {
		return ErrInvalidCredentials
	}

	hash, err := s.auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.accounts.UpdatePasswordHash(a.ID, hash); err != nil {
		return err
	}
	log.Printf("[account][reset-password] OK id=%s", a.ID)
	return nil
}

// ================== СТАТУСЫ ==================

func (s *accountService) SubmitAnnotatorApplication(accountID uuid.UUID) error {
	a, err := s.accounts.GetByID(accountID)
	if err != nil {
		return err
	}
	if a == nil {
		return ErrNotFound
	}
	if !canTransition(a.AnnotatorStatus, models.StatusSubmitted, AnnotatorTransitions) {
		return ErrBadTransition
	}
	return s.accounts.UpdateAnnotatorStatus(a.ID, models.StatusSubmitted)
}

func (s *accountService) UpdateAnnotatorStatus(accountID uuid.UUID, status string) error {
	a, err := s.accounts.GetByID(accountID)
	if err != nil {
		return err
	}
	if a == nil {
		return ErrNotFound
	}
	if !canTransition(a.AnnotatorStatus, status, AnnotatorTransitions) {
		return ErrBadTransition
	}
	return s.accounts.UpdateAnnotatorStatus(a.ID, status)
}

func (s *accountService) UpdateMicroTaskerStatus(accountID uuid.UUID, status string) error {
	a, err := s.accounts.GetByID(accountID)
	if err != nil {
		return err
	}
	if a == nil {
		return ErrNotFound
	}
	if !canTransition(a.MicroTaskerStatus, status, MicroTaskerTransitions) {
		return ErrBadTransition
	}
	return s.accounts.UpdateMicroTaskerStatus(a.ID, status)
}

// ================== ЧТЕНИЕ ==================

func (s *accountService) GetByID(id uuid.UUID) (*models.Account, error) {
	return s.accounts.GetByID(id)
}

func (s *accountService) List(limit, offset int) ([]*models.Account, error) {
	return s.accounts.List(limit, offset)
}

func (s *accountService) GetCount() (int, error) {
	return s.accounts.GetCount()
}
