package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"deeptech/internal/models"
)

type VerificationCodeRepository interface {
	// Issue гасит все активные коды email и создаёт новый — одной транзакцией.
	Issue(email, codeHash string, sentAt, expiresAt time.Time) (uuid.UUID, error)
	GetActiveByEmail(email string) (*models.VerificationCode, error)
	// Consume — атомарный check-and-set: true только у того вызова,
	// который реально погасил код.
	Consume(id uuid.UUID) (bool, error)
	ConsumeAllForEmail(email string) error
	IncrementAttempts(id uuid.UUID) (int, error)
	ExpireNow(id uuid.UUID) error
	CountRecentSends(email string, since time.Time) (int, error)
}

type verificationCodeRepository struct {
	DB *sql.DB
}

func NewVerificationCodeRepository(db *sql.DB) VerificationCodeRepository {
	return &verificationCodeRepository{DB: db}
}

func (r *verificationCodeRepository) Issue(email, codeHash string, sentAt, expiresAt time.Time) (uuid.UUID, error) {
	tx, err := r.DB.Begin()
	if err != nil {
		return uuid.Nil, fmt.Errorf("verification_code issue begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`UPDATE verification_codes SET consumed = TRUE WHERE email = $1 AND consumed = FALSE`,
		email,
	); err != nil {
		return uuid.Nil, fmt.Errorf("verification_code invalidate prior: %w", err)
	}

	id := uuid.New()
	const q = `
		INSERT INTO verification_codes (id, email, code_hash, sent_at, expires_at, consumed, attempts)
		VALUES ($1, $2, $3, $4, $5, FALSE, 0)
	`
	if _, err := tx.Exec(q, id, email, codeHash, sentAt, expiresAt); err != nil {
		return uuid.Nil, fmt.Errorf("verification_code create: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("verification_code issue commit: %w", err)
	}
	return id, nil
}

// GetActiveByEmail — последний непогашенный код. Истёкший тоже возвращаем:
// TTL сервис проверяет на чтении и отвечает «код истёк», а не «кода нет».
func (r *verificationCodeRepository) GetActiveByEmail(email string) (*models.VerificationCode, error) {
	const q = `
		SELECT id, email, code_hash, sent_at, expires_at, consumed, attempts
		FROM verification_codes
		WHERE email = $1 AND consumed = FALSE
		ORDER BY sent_at DESC
		LIMIT 1
	`
	row := r.DB.QueryRow(q, email)
	var v models.VerificationCode
	if err := row.Scan(&v.ID, &v.Email, &v.CodeHash, &v.SentAt, &v.ExpiresAt, &v.Consumed, &v.Attempts); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("verification_code active: %w", err)
	}
	return &v, nil
}

func (r *verificationCodeRepository) Consume(id uuid.UUID) (bool, error) {
	const q = `
		UPDATE verification_codes
		SET consumed = TRUE
		WHERE id = $1 AND consumed = FALSE AND expires_at > NOW()
	`
	res, err := r.DB.Exec(q, id)
	if err != nil {
		return false, fmt.Errorf("verification_code consume: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *verificationCodeRepository) ConsumeAllForEmail(email string) error {
	_, err := r.DB.Exec(
		`UPDATE verification_codes SET consumed = TRUE WHERE email = $1 AND consumed = FALSE`,
		email,
	)
	return err
}

func (r *verificationCodeRepository) IncrementAttempts(id uuid.UUID) (int, error) {
	const q = `
		UPDATE verification_codes
		SET attempts = attempts + 1
		WHERE id = $1
		RETURNING attempts
	`
	var attempts int
	if err := r.DB.QueryRow(q, id).Scan(&attempts); err != nil {
		return 0, fmt.Errorf("verification_code increment attempts: %w", err)
	}
	return attempts, nil
}

func (r *verificationCodeRepository) ExpireNow(id uuid.UUID) error {
	_, err := r.DB.Exec(`UPDATE verification_codes SET expires_at = NOW() WHERE id = $1`, id)
	return err
}

func (r *verificationCodeRepository) CountRecentSends(email string, since time.Time) (int, error) {
	const q = `
		SELECT COUNT(*)
		FROM verification_codes
		WHERE email = $1 AND sent_at >= $2
	`
	var c int
	if err := r.DB.QueryRow(q, email, since).Scan(&c); err != nil {
		return 0, fmt.Errorf("verification_code count recent: %w", err)
	}
	return c, nil
}
