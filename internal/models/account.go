package models

import (
	"time"

	"github.com/google/uuid"
)

// Роли аккаунтов. Админ дополнительно проходит OTP-верификацию.
const (
	RoleAnnotator = "annotator"
	RoleAdmin     = "admin"
)

// Статусы рабочих треков (annotator / micro-tasker). Треки независимые.
const (
	StatusPending   = "pending"
	StatusSubmitted = "submitted"
	StatusVerified  = "verified"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
)

type Account struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	PasswordHash string    `json:"-"` // не отдаём наружу
	Role         string    `json:"role"`

	IsEmailVerified bool `json:"isEmailVerified"`
	HasSetPassword  bool `json:"hasSetPassword"`

	AnnotatorStatus   string `json:"annotatorStatus"`
	MicroTaskerStatus string `json:"microTaskerStatus"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CreateDTUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"fullName" binding:"required"`
}

type CreateAdminRequest struct {
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"fullName" binding:"required"`
	AdminKey string `json:"adminKey" binding:"required"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	// клиенты шлют либо otp, либо verificationCode — принимаем оба
	OTP              string `json:"otp"`
	VerificationCode string `json:"verificationCode"`
}

func (r *VerifyOTPRequest) Code() string {
	if r.OTP != "" {
		return r.OTP
	}
	return r.VerificationCode
}

type SetupPasswordRequest struct {
	UserID          string `json:"userId" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ResendVerificationRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	OldPassword        string `json:"oldPassword" binding:"required"`
	NewPassword        string `json:"newPassword" binding:"required,min=6"`
	ConfirmNewPassword string `json:"confirmNewPassword" binding:"required"`
}

type RequestPasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ConfirmPasswordResetRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
