package repositories

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"deeptech/internal/models"
)

type PasswordResetRepository interface {
	Create(accountID uuid.UUID, token string, expiresAt time.Time) (*models.PasswordReset, error)
	GetByToken(token string) (*models.PasswordReset, error)
	// MarkUsed — true только у вызова, который реально погасил токен.
	MarkUsed(id uuid.UUID) (bool, error)
}

type passwordResetRepository struct {
	DB *sql.DB
}

func NewPasswordResetRepository(db *sql.DB) PasswordResetRepository {
	return &passwordResetRepository{DB: db}
}

func (r *passwordResetRepository) Create(accountID uuid.UUID, token string, expiresAt time.Time) (*models.PasswordReset, error) {
	const q = `
		INSERT INTO password_resets (id, account_id, token, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	pr := &models.PasswordReset{ID: uuid.New(), AccountID: accountID, Token: token, ExpiresAt: expiresAt}
	if err := r.DB.QueryRow(q, pr.ID, accountID, token, expiresAt).Scan(&pr.CreatedAt); err != nil {
		return nil, err
	}
	return pr, nil
}

func (r *passwordResetRepository) GetByToken(token string) (*models.PasswordReset, error) {
	const q = `
		SELECT id, account_id, token, expires_at, used_at, created_at
		FROM password_resets
		WHERE token = $1
	`
	pr := &models.PasswordReset{}
	var usedAt sql.NullTime
	if err := r.DB.QueryRow(q, token).Scan(&pr.ID, &pr.AccountID, &pr.Token, &pr.ExpiresAt, &usedAt, &pr.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if usedAt.Valid {
		pr.UsedAt = &usedAt.Time
	}
	return pr, nil
}

func (r *passwordResetRepository) MarkUsed(id uuid.UUID) (bool, error) {
	const q = `
		UPDATE password_resets SET used_at = NOW() WHERE id = $1 AND used_at IS NULL
	`
	res, err := r.DB.Exec(q, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
