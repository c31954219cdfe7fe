package repositories

import (
	"database/sql"

	"github.com/google/uuid"

	"deeptech/internal/models"
)

type AccountRepository interface {
	Create(a *models.Account) error
	GetByID(id uuid.UUID) (*models.Account, error)
	GetByEmail(email string) (*models.Account, error)
	List(limit, offset int) ([]*models.Account, error)
	GetCount() (int, error)
	Delete(id uuid.UUID) error

	// lifecycle — условные апдейты, атомарные на уровне БД
	MarkEmailVerified(id uuid.UUID) (bool, error)
	SetPassword(id uuid.UUID, hash string) (bool, error)
	UpdatePasswordHash(id uuid.UUID, hash string) error

	UpdateAnnotatorStatus(id uuid.UUID, status string) error
	UpdateMicroTaskerStatus(id uuid.UUID, status string) error
}

type accountRepository struct {
	DB *sql.DB
}

func NewAccountRepository(db *sql.DB) AccountRepository {
	return &accountRepository{DB: db}
}

const accountColumns = `
	id, email, full_name, password_hash, role,
	is_email_verified, has_set_password,
	annotator_status, micro_tasker_status,
	created_at, updated_at
`

func (r *accountRepository) Create(a *models.Account) error {
	const q = `
		INSERT INTO accounts (
			id, email, full_name, password_hash, role,
			is_email_verified, has_set_password,
			annotator_status, micro_tasker_status
		)
		VALUES ($1,$2,$3,NULLIF($4,''),$5,FALSE,FALSE,$6,$7)
		RETURNING created_at, updated_at
	`
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.AnnotatorStatus == "" {
		a.AnnotatorStatus = models.StatusPending
	}
	if a.MicroTaskerStatus == "" {
		a.MicroTaskerStatus = models.StatusPending
	}
	return r.DB.QueryRow(q,
		a.ID,
		a.Email,
		a.FullName,
		a.PasswordHash,
		a.Role,
		a.AnnotatorStatus,
		a.MicroTaskerStatus,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	a := &models.Account{}
	var passwordHash sql.NullString
	err := row.Scan(
		&a.ID, &a.Email, &a.FullName, &passwordHash, &a.Role,
		&a.IsEmailVerified, &a.HasSetPassword,
		&a.AnnotatorStatus, &a.MicroTaskerStatus,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if passwordHash.Valid {
		a.PasswordHash = passwordHash.String
	}
	return a, nil
}

func (r *accountRepository) GetByID(id uuid.UUID) (*models.Account, error) {
	const q = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(r.DB.QueryRow(q, id))
}

func (r *accountRepository) GetByEmail(email string) (*models.Account, error) {
	const q = `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return scanAccount(r.DB.QueryRow(q, email))
}

func (r *accountRepository) List(limit, offset int) ([]*models.Account, error) {
	const q = `
		SELECT ` + accountColumns + `
		FROM accounts
		ORDER BY created_at
		LIMIT $1 OFFSET $2
	`
	rows, err := r.DB.Query(q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*models.Account
	for rows.Next() {
		a := &models.Account{}
		var passwordHash sql.NullString
		if err := rows.Scan(
			&a.ID, &a.Email, &a.FullName, &passwordHash, &a.Role,
			&a.IsEmailVerified, &a.HasSetPassword,
			&a.AnnotatorStatus, &a.MicroTaskerStatus,
			&a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if passwordHash.Valid {
			a.PasswordHash = passwordHash.String
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

func (r *accountRepository) Delete(id uuid.UUID) error {
	_, err := r.DB.Exec(`DELETE FROM accounts WHERE id = $1`, id)
	return err
}

func (r *accountRepository) GetCount() (int, error) {
	var c int
	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM accounts`).Scan(&c); err != nil {
		return 0, err
	}
	return c, nil
}

// MarkEmailVerified — true, если флаг реально переключили этим вызовом.
func (r *accountRepository) MarkEmailVerified(id uuid.UUID) (bool, error) {
	const q = `
		UPDATE accounts
		SET is_email_verified = TRUE, updated_at = NOW()
		WHERE id = $1 AND is_email_verified = FALSE
	`
	res, err := r.DB.Exec(q, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// SetPassword — ровно один раз: условие has_set_password=FALSE в самом UPDATE,
// гонка двух setupPassword не даст две записи.
func (r *accountRepository) SetPassword(id uuid.UUID, hash string) (bool, error) {
	const q = `
		UPDATE accounts
		SET password_hash = $2, has_set_password = TRUE, updated_at = NOW()
		WHERE id = $1 AND has_set_password = FALSE
	`
	res, err := r.DB.Exec(q, id, hash)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *accountRepository) UpdatePasswordHash(id uuid.UUID, hash string) error {
	const q = `
		UPDATE accounts
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.DB.Exec(q, id, hash)
	return err
}

func (r *accountRepository) UpdateAnnotatorStatus(id uuid.UUID, status string) error {
	const q = `
		UPDATE accounts
		SET annotator_status = $2, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.DB.Exec(q, id, status)
	return err
}

func (r *accountRepository) UpdateMicroTaskerStatus(id uuid.UUID, status string) error {
	const q = `
		UPDATE accounts
		SET micro_tasker_status = $2, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.DB.Exec(q, id, status)
	return err
}
