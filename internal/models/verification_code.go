package models

import (
	"time"

	"github.com/google/uuid"
)

// VerificationCode — отдельная запись на каждую отправку кода.
// Храним только bcrypt-хэш кода (CodeHash), TTL и счётчик попыток.
// Активной (consumed=false, не истёкшей) может быть максимум одна на email.
type VerificationCode struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	CodeHash  string    `json:"-"`
	SentAt    time.Time `json:"sentAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	Consumed  bool      `json:"consumed"`
	Attempts  int       `json:"attempts"`
}
