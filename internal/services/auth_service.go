package services

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"deeptech/internal/middleware"
	"deeptech/internal/models"
)

type AuthService interface {
	HashPassword(plain string) (string, error)
	// CheckPassword — bcrypt, сравнение за константное время.
	CheckPassword(hash, plain string) bool
	IssueToken(a *models.Account) (string, error)
}

type authService struct {
	jwtKey   []byte
	tokenTTL time.Duration
}

func NewAuthService(jwtKey []byte, tokenTTL time.Duration) AuthService {
	return &authService{jwtKey: jwtKey, tokenTTL: tokenTTL}
}

func (s *authService) HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *authService) CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

func (s *authService) IssueToken(a *models.Account) (string, error) {
	now := time.Now()
	claims := &middleware.Claims{
		AccountID: a.ID.String(),
		Email:     a.Email,
		FullName:  a.FullName,
		Role:      a.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtKey)
}
