// Package testhelpers — in-memory реализации репозиториев и рекордеры
// для юнит- и HTTP-тестов. В продакшен-коде не используется.
package testhelpers

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"deeptech/internal/models"
)

var ErrSendFailed = errors.New("smtp unavailable")

// ---- accounts ----

type MemAccounts struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*models.Account
}

func NewMemAccounts() *MemAccounts {
	return &MemAccounts{byID: map[uuid.UUID]*models.Account{}}
}

func (f *MemAccounts) Create(a *models.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, x := range f.byID {
		if x.Email == a.Email {
			return &pq.Error{Code: "23505"}
		}
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.AnnotatorStatus == "" {
		a.AnnotatorStatus = models.StatusPending
	}
	if a.MicroTaskerStatus == "" {
		a.MicroTaskerStatus = models.StatusPending
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	f.byID[a.ID] = &cp
	return nil
}

func (f *MemAccounts) GetByID(id uuid.UUID) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (f *MemAccounts) GetByEmail(email string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byID {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *MemAccounts) List(limit, offset int) ([]*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []*models.Account
	for _, a := range f.byID {
		cp := *a
		res = append(res, &cp)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	if offset >= len(res) {
		return nil, nil
	}
	res = res[offset:]
	if limit < len(res) {
		res = res[:limit]
	}
	return res, nil
}

func (f *MemAccounts) GetCount() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID), nil
}

func (f *MemAccounts) Delete(id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, id)
	return nil
}

func (f *MemAccounts) MarkEmailVerified(id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok || a.IsEmailVerified {
		return false, nil
	}
	a.IsEmailVerified = true
	a.UpdatedAt = time.Now()
	return true, nil
}

func (f *MemAccounts) SetPassword(id uuid.UUID, hash string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok || a.HasSetPassword {
		return false, nil
	}
	a.PasswordHash = hash
	a.HasSetPassword = true
	a.UpdatedAt = time.Now()
	return true, nil
}

func (f *MemAccounts) UpdatePasswordHash(id uuid.UUID, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.byID[id]; ok {
		a.PasswordHash = hash
		a.UpdatedAt = time.Now()
	}
	return nil
}

func (f *MemAccounts) UpdateAnnotatorStatus(id uuid.UUID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.byID[id]; ok {
		a.AnnotatorStatus = status
		a.UpdatedAt = time.Now()
	}
	return nil
}

func (f *MemAccounts) UpdateMicroTaskerStatus(id uuid.UUID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.byID[id]; ok {
		a.MicroTaskerStatus = status
		a.UpdatedAt = time.Now()
	}
	return nil
}

// ---- verification codes ----

type MemCodes struct {
	mu   sync.Mutex
	recs []*models.VerificationCode
}

func NewMemCodes() *MemCodes { return &MemCodes{} }

func (f *MemCodes) Issue(email, codeHash string, sentAt, expiresAt time.Time) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.recs {
		if v.Email == email && !v.Consumed {
			v.Consumed = true
		}
	}
	v := &models.VerificationCode{
		ID:        uuid.New(),
		Email:     email,
		CodeHash:  codeHash,
		SentAt:    sentAt,
		ExpiresAt: expiresAt,
	}
	f.recs = append(f.recs, v)
	return v.ID, nil
}

func (f *MemCodes) GetActiveByEmail(email string) (*models.VerificationCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *models.VerificationCode
	for _, v := range f.recs {
		if v.Email == email && !v.Consumed {
			if latest == nil || v.SentAt.After(latest.SentAt) {
				latest = v
			}
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (f *MemCodes) Consume(id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.recs {
		if v.ID == id && !v.Consumed && v.ExpiresAt.After(time.Now()) {
			v.Consumed = true
			return true, nil
		}
	}
	return false, nil
}

func (f *MemCodes) ConsumeAllForEmail(email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.recs {
		if v.Email == email {
			v.Consumed = true
		}
	}
	return nil
}

func (f *MemCodes) IncrementAttempts(id uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.recs {
		if v.ID == id {
			v.Attempts++
			return v.Attempts, nil
		}
	}
	return 0, nil
}

func (f *MemCodes) ExpireNow(id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.recs {
		if v.ID == id {
			v.ExpiresAt = time.Now().Add(-time.Second)
		}
	}
	return nil
}

func (f *MemCodes) CountRecentSends(email string, since time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, v := range f.recs {
		if v.Email == email && !v.SentAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// ActiveCount — сколько непогашенных кодов сейчас у email.
func (f *MemCodes) ActiveCount(email string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, v := range f.recs {
		if v.Email == email && !v.Consumed {
			n++
		}
	}
	return n
}

// ExpireActive — сдвигает TTL активных кодов в прошлое.
func (f *MemCodes) ExpireActive(email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.recs {
		if v.Email == email && !v.Consumed {
			v.ExpiresAt = time.Now().Add(-time.Minute)
		}
	}
}

// ---- password resets ----

type MemResets struct {
	mu   sync.Mutex
	recs []*models.PasswordReset
}

func NewMemResets() *MemResets { return &MemResets{} }

func (f *MemResets) Create(accountID uuid.UUID, token string, expiresAt time.Time) (*models.PasswordReset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pr := &models.PasswordReset{
		ID:        uuid.New(),
		AccountID: accountID,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	f.recs = append(f.recs, pr)
	return pr, nil
}

func (f *MemResets) GetByToken(token string) (*models.PasswordReset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, pr := range f.recs {
		if pr.Token == token {
			cp := *pr
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *MemResets) MarkUsed(id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, pr := range f.recs {
		if pr.ID == id && pr.UsedAt == nil {
			now := time.Now()
			pr.UsedAt = &now
			return true, nil
		}
	}
	return false, nil
}

func (f *MemResets) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.recs)
}

func (f *MemResets) ExpireAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, pr := range f.recs {
		pr.ExpiresAt = time.Now().Add(-time.Minute)
	}
}

// ---- рекордеры нотификаций ----

// EmailRecorder пишет последний код/токен по адресу, умеет имитировать сбой SMTP.
type EmailRecorder struct {
	mu        sync.Mutex
	lastCode  map[string]string
	lastToken map[string]string
	links     int
	failNext  bool
}

func NewEmailRecorder() *EmailRecorder {
	return &EmailRecorder{lastCode: map[string]string{}, lastToken: map[string]string{}}
}

func (f *EmailRecorder) SendVerificationLink(email, fullName string, accountID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return ErrSendFailed
	}
	f.links++
	return nil
}

func (f *EmailRecorder) SendVerificationCode(email, fullName, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return ErrSendFailed
	}
	f.lastCode[email] = code
	return nil
}

func (f *EmailRecorder) SendPasswordResetEmail(email, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastToken[email] = token
	return nil
}

func (f *EmailRecorder) FailNext() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext = true
}

func (f *EmailRecorder) CodeFor(email string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastCode[email]
}

func (f *EmailRecorder) TokenFor(email string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastToken[email]
}

func (f *EmailRecorder) Links() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.links
}

type AlertRecorder struct {
	mu       sync.Mutex
	admins   int
	lockouts int
}

func (f *AlertRecorder) AdminAccountCreated(string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.admins++
}

func (f *AlertRecorder) OTPLockout(string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lockouts++
}

func (f *AlertRecorder) Admins() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.admins
}

func (f *AlertRecorder) Lockouts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lockouts
}
