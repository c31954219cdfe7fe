package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"deeptech/internal/models"
	"deeptech/internal/services"
)

type AdminHandler struct {
	accounts services.AccountService
}

func NewAdminHandler(accounts services.AccountService) *AdminHandler {
	return &AdminHandler{accounts: accounts}
}

// @Summary      Create admin account
// @Description  Requires the admin key; email must be on the reserved domain or allow-list.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        body  body      models.CreateAdminRequest  true  "Admin data"
// @Success      201   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]interface{}
// @Router       /admin/create [post]
func (h *AdminHandler) Create(c *gin.Context) {
	var req models.CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	a, emailSent, err := h.accounts.CreateAdmin(&req)
	if err != nil {
		failDomain(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":   true,
		"message":   "Admin account created, verification code sent",
		"emailSent": emailSent,
		"data":      a,
	})
}

// @Summary      Verify admin OTP
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        body  body      models.VerifyOTPRequest  true  "Email and code"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]interface{}
// @Failure      404   {object}  map[string]interface{}
// @Router       /admin/verify-otp [post]
func (h *AdminHandler) VerifyOTP(c *gin.Context) {
	var req models.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	code := strings.TrimSpace(req.Code())
	if code == "" {
		fail(c, http.StatusBadRequest, "otp is required")
		return
	}

	already, err := h.accounts.VerifyOTP(req.Email, code)
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

// @Summary      Admin login
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        body  body      models.LoginRequest  true  "Credentials"
// @Success      200   {object}  map[string]interface{}
// @Failure      401   {object}  map[string]interface{}
// @Router       /admin/login [post]
func (h *AdminHandler) Login(c *gin.Context) {
	login(c, h.accounts, models.RoleAdmin)
}

// @Summary      List accounts
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Param        limit   query  int  false  "Page size"
// @Param        offset  query  int  false  "Offset"
// @Success      200  {object}  map[string]interface{}
// @Router       /admin/accounts [get]
func (h *AdminHandler) ListAccounts(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 200 {
		limit = 50
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	accounts, err := h.accounts.List(limit, offset)
	if err != nil {
		failDomain(c, err)
		return
	}
	total, err := h.accounts.GetCount()
	if err != nil {
		failDomain(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": accounts, "total": total})
}

// @Summary      Get account
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Account ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Router       /admin/accounts/{id} [get]
func (h *AdminHandler) GetAccount(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid account id")
		return
	}
	a, err := h.accounts.GetByID(id)
	if err != nil {
		failDomain(c, err)
		return
	}
	if a == nil {
		fail(c, http.StatusNotFound, services.ErrNotFound.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": a})
}

// @Summary      Update annotator status
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                     true  "Account ID"
// @Param        body  body  models.UpdateStatusRequest  true  "Target status"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Router       /admin/accounts/{id}/annotator-status [patch]
func (h *AdminHandler) UpdateAnnotatorStatus(c *gin.Context) {
	h.updateStatus(c, h.accounts.UpdateAnnotatorStatus)
}

// @Summary      Update micro-tasker status
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                     true  "Account ID"
// @Param        body  body  models.UpdateStatusRequest  true  "Target status"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Router       /admin/accounts/{id}/micro-tasker-status [patch]
func (h *AdminHandler) UpdateMicroTaskerStatus(c *gin.Context) {
	h.updateStatus(c, h.accounts.UpdateMicroTaskerStatus)
}

func (h *AdminHandler) updateStatus(c *gin.Context, apply func(uuid.UUID, string) error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid account id")
		return
	}
	var req models.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := apply(id, req.Status); err != nil {
		failDomain(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Status updated"})
}
