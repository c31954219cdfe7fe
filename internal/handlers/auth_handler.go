package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"deeptech/internal/models"
	"deeptech/internal/services"
)

type AuthHandler struct {
	accounts services.AccountService
	resets   services.PasswordResetService
}

func NewAuthHandler(accounts services.AccountService, resets services.PasswordResetService) *AuthHandler {
	return &AuthHandler{accounts: accounts, resets: resets}
}

// @Summary      Create DTUser account
// @Description  Registers an annotator account and emails a verification link
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.CreateDTUserRequest  true  "Account data"
// @Success      201   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]interface{}
// @Router       /auth/createDTuser [post]
func (h *AuthHandler) CreateDTUser(c *gin.Context) {
	var req models.CreateDTUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	a, emailSent, err := h.accounts.CreateDTUser(&req)
	if err != nil {
		failDomain(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":   true,
		"message":   "Account created, please verify your email",
		"emailSent": emailSent,
		"data":      a,
	})
}

// @Summary      Verify email by link
// @Tags         Auth
// @Produce      json
// @Param        id     path   string  true  "Account ID"
// @Param        email  query  string  true  "Account email"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Router       /auth/verifyDTusermail/{id} [get]
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid account id")
		return
	}
	email := c.Query("email")
	if strings.TrimSpace(email) == "" {
		fail(c, http.StatusBadRequest, "email is required")
		return
	}

	already, err := h.accounts.VerifyEmailLink(id, email)
	if err != nil {
		failDomain(c, err)
		return
	}
	msg := "Email verified"
	if already {
		msg = "Email already verified"
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": msg})
}

// @Summary      Set initial password
// @Description  One-time password setup after email verification
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.SetupPasswordRequest  true  "Password data"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]interface{}
// @Router       /auth/setupPassword [post]
func (h *AuthHandler) SetupPassword(c *gin.Context) {
	var req models.SetupPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	id, err := uuid.Parse(req.UserID)
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid userId")
		return
	}

	if err := h.accounts.SetupPassword(id, req.Email, req.Password, req.ConfirmPassword); err != nil {
		failDomain(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password set"})
}

// @Summary      DTUser login
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.LoginRequest  true  "Credentials"
// @Success      200   {object}  map[string]interface{}
// @Failure      401   {object}  map[string]interface{}
// @Router       /auth/dtUserLogin [post]
func (h *AuthHandler) Login(c *gin.Context) {
	login(c, h.accounts, models.RoleAnnotator)
}

// @Summary      Resend verification email
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.ResendVerificationRequest  true  "Email"
// @Success      200   {object}  map[string]interface{}
// @Failure      404   {object}  map[string]interface{}
// @Router       /auth/resendVerificationEmail [post]
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req models.ResendVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	already, emailSent, err := h.accounts.ResendVerification(req.Email)
	if err != nil {
		failDomain(c, err)
		return
	}
	msg := "Verification email sent"
	if already {
		msg = "Email already verified"
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": msg, "emailSent": emailSent})
}

// @Summary      Change password
// @Description  Requires the current password; new password must differ
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      models.ResetPasswordRequest  true  "Passwords"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]interface{}
// @Failure      401   {object}  map[string]interface{}
// @Router       /auth/dtUserResetPassword [patch]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	id, ok := accountIDFromCtx(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.accounts.ResetPassword(id, req.OldPassword, req.NewPassword, req.ConfirmNewPassword); err != nil {
		failDomain(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password updated"})
}

// @Summary      Request password reset token
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.RequestPasswordResetRequest  true  "Email"
// @Success      200   {object}  map[string]interface{}
// @Router       /auth/requestPasswordReset [post]
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req models.RequestPasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.resets.RequestReset(req.Email); err != nil {
		failDomain(c, err)
		return
	}
	// ответ одинаковый, существует аккаунт или нет
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "If that account exists, a reset email has been sent"})
}

// @Summary      Confirm password reset
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.ConfirmPasswordResetRequest  true  "Token and new password"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]interface{}
// @Router       /auth/confirmPasswordReset [post]
func (h *AuthHandler) ConfirmPasswordReset(c *gin.Context) {
	var req models.ConfirmPasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.resets.ResetPassword(req.Token, req.NewPassword); err != nil {
		if err == services.ErrResetTokenInvalid {
			failDomain(c, err)
			return
		}
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password updated"})
}

// @Summary      Submit annotator application
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Router       /auth/submitAnnotatorApplication [post]
func (h *AuthHandler) SubmitAnnotatorApplication(c *gin.Context) {
	id, ok := accountIDFromCtx(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.accounts.SubmitAnnotatorApplication(id); err != nil {
		failDomain(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Application submitted"})
}

// login — общий для DTUser и админа. requiredRole отсекает попытку зайти
// чужим маршрутом; наружу это неотличимо от неверных кредов.
func login(c *gin.Context, accounts services.AccountService, requiredRole string) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	a, token, err := accounts.Login(req.Email, req.Password)
	if err != nil {
		if err == services.ErrPasswordNotSet && a != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success":               false,
				"message":               "Password setup required",
				"passwordSetupRequired": true,
				"userId":                a.ID,
			})
			return
		}
		if err == services.ErrUnverified {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Email not verified, verification email resent",
			})
			return
		}
		failDomain(c, err)
		return
	}
	if requiredRole != "" && a.Role != requiredRole {
		fail(c, http.StatusUnauthorized, services.ErrInvalidCredentials.Error())
		return
	}

	// token дублируется в data — старые клиенты читают его из конверта
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"token":   token,
		"data": gin.H{
			"token":   token,
			"account": a,
		},
	})
}
