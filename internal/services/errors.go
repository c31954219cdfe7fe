package services

import "errors"

// Доменные ошибки жизненного цикла аккаунта. Хендлеры мапят их на HTTP-статусы,
// наружу уходит единый конверт {"success":false,"message":...}.
var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrNotFound           = errors.New("account not found")
	ErrCodeNotFound       = errors.New("verification code not found")
	ErrCodeExpired        = errors.New("verification code expired")
	ErrCodeMismatch       = errors.New("verification code mismatch")
	ErrEmailMismatch      = errors.New("email does not match account")
	ErrTooManyAttempts    = errors.New("too many attempts")
	ErrResendThrottled    = errors.New("resend throttled")
	ErrUnverified         = errors.New("email not verified")
	ErrPasswordNotSet     = errors.New("password not set")
	ErrPasswordAlreadySet = errors.New("password already set")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrSamePassword       = errors.New("new password must differ from the old one")
	ErrAdminKeyInvalid    = errors.New("invalid admin key")
	ErrAdminEmailPolicy   = errors.New("email not allowed for admin accounts")
	ErrBadTransition      = errors.New("status transition not allowed")
	ErrResetTokenInvalid  = errors.New("invalid or expired token")
)
