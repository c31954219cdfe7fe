package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deeptech/internal/handlers"
	"deeptech/internal/routes"
	"deeptech/internal/services"
	"deeptech/internal/testhelpers"
)

type testServer struct {
	router *gin.Engine
	codes  *testhelpers.MemCodes
	emails *testhelpers.EmailRecorder
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	accounts := testhelpers.NewMemAccounts()
	codes := testhelpers.NewMemCodes()
	resets := testhelpers.NewMemResets()
	emails := testhelpers.NewEmailRecorder()
	alerts := &testhelpers.AlertRecorder{}

	jwtKey := []byte("test-secret")
	auth := services.NewAuthService(jwtKey, time.Hour)
	accountSvc := services.NewAccountService(accounts, codes, auth, emails, alerts, services.AccountServiceConfig{
		AdminKey:         "sekret",
		AdminEmailDomain: "@deeptech.example",
		CodeTTL:          15 * time.Minute,
	})
	resetSvc := services.NewPasswordResetService(accounts, resets, emails, auth)

	router := routes.SetupRoutes(
		gin.New(),
		handlers.NewAuthHandler(accountSvc, resetSvc),
		handlers.NewAdminHandler(accountSvc),
		jwtKey,
	)
	return &testServer{router: router, codes: codes, emails: emails}
}

func (ts *testServer) do(t *testing.T, method, path string, body any, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	var resp map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

// register проводит аккаунт через create → verify → setupPassword и
// возвращает его id.
func (ts *testServer) register(t *testing.T, email, password string) string {
	t.Helper()
	w, resp := ts.do(t, http.MethodPost, "/auth/createDTuser", gin.H{"email": email, "fullName": "Ann Otator"}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := resp["data"].(map[string]any)["id"].(string)

	w, _ = ts.do(t, http.MethodGet, fmt.Sprintf("/auth/verifyDTusermail/%s?email=%s", id, email), nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = ts.do(t, http.MethodPost, "/auth/setupPassword", gin.H{
		"userId": id, "email": email, "password": password, "confirmPassword": password,
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return id
}

func TestHTTPSignupVerifySetupLogin(t *testing.T) {
	ts := newTestServer(t)

	w, resp := ts.do(t, http.MethodPost, "/auth/createDTuser", gin.H{"email": "a@x.com", "fullName": "Ann"}, "")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, resp["success"])
	data := resp["data"].(map[string]any)
	id := data["id"].(string)
	assert.Equal(t, "a@x.com", data["email"])
	// хеш пароля не должен утекать в JSON
	_, leaked := data["passwordHash"]
	assert.False(t, leaked)

	// дубликат
	w, resp = ts.do(t, http.MethodPost, "/auth/createDTuser", gin.H{"email": "a@x.com", "fullName": "Dup"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, resp["success"])
	assert.NotEmpty(t, resp["message"])

	// login до верификации
	w, resp = ts.do(t, http.MethodPost, "/auth/dtUserLogin", gin.H{"email": "a@x.com", "password": "P1secret"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, false, resp["success"])

	// верификация по ссылке
	w, _ = ts.do(t, http.MethodGet, "/auth/verifyDTusermail/"+id+"?email=a@x.com", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	// login до установки пароля — 401 с подсказкой
	w, resp = ts.do(t, http.MethodPost, "/auth/dtUserLogin", gin.H{"email": "a@x.com", "password": "P1secret"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, true, resp["passwordSetupRequired"])
	assert.Equal(t, id, resp["userId"])

	// установка пароля
	w, _ = ts.do(t, http.MethodPost, "/auth/setupPassword", gin.H{
		"userId": id, "email": "a@x.com", "password": "P1secret", "confirmPassword": "P1secret",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// повторная установка — 400
	w, _ = ts.do(t, http.MethodPost, "/auth/setupPassword", gin.H{
		"userId": id, "email": "a@x.com", "password": "other1", "confirmPassword": "other1",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// login
	w, resp = ts.do(t, http.MethodPost, "/auth/dtUserLogin", gin.H{"email": "a@x.com", "password": "P1secret"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, resp["token"])
	inner := resp["data"].(map[string]any)
	assert.Equal(t, resp["token"], inner["token"])

	// неверный пароль
	w, resp = ts.do(t, http.MethodPost, "/auth/dtUserLogin", gin.H{"email": "a@x.com", "password": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, false, resp["success"])
}

func TestHTTPValidationErrors(t *testing.T) {
	ts := newTestServer(t)

	// кривой JSON и пустые обязательные поля — единый конверт ошибки
	w, resp := ts.do(t, http.MethodPost, "/auth/createDTuser", gin.H{"email": "not-an-email"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, resp["success"])

	w, _ = ts.do(t, http.MethodGet, "/auth/verifyDTusermail/not-a-uuid?email=a@x.com", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = ts.do(t, http.MethodGet, "/auth/verifyDTusermail/7c9e6679-7425-40de-944b-e07fc1f90ae7", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// несуществующий аккаунт
	w, _ = ts.do(t, http.MethodGet, "/auth/verifyDTusermail/7c9e6679-7425-40de-944b-e07fc1f90ae7?email=a@x.com", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = ts.do(t, http.MethodPost, "/auth/resendVerificationEmail", gin.H{"email": "ghost@x.com"}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHTTPChangePasswordRequiresToken(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "a@x.com", "P1secret")

	body := gin.H{"oldPassword": "P1secret", "newPassword": "P2secret", "confirmNewPassword": "P2secret"}

	// без токена
	w, _ := ts.do(t, http.MethodPatch, "/auth/dtUserResetPassword", body, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// с мусорным токеном
	w, _ = ts.do(t, http.MethodPatch, "/auth/dtUserResetPassword", body, "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	_, resp := ts.do(t, http.MethodPost, "/auth/dtUserLogin", gin.H{"email": "a@x.com", "password": "P1secret"}, "")
	token := resp["token"].(string)

	w, _ = ts.do(t, http.MethodPatch, "/auth/dtUserResetPassword", body, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// старый пароль больше не работает
	w, _ = ts.do(t, http.MethodPost, "/auth/dtUserLogin", gin.H{"email": "a@x.com", "password": "P1secret"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = ts.do(t, http.MethodPost, "/auth/dtUserLogin", gin.H{"email": "a@x.com", "password": "P2secret"}, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHTTPForgotPasswordFlow(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "a@x.com", "P1secret")

	// существует аккаунт или нет — один и тот же ответ
	w, _ := ts.do(t, http.MethodPost, "/auth/requestPasswordReset", gin.H{"email": "ghost@x.com"}, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = ts.do(t, http.MethodPost, "/auth/requestPasswordReset", gin.H{"email": "a@x.com"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	token := ts.emails.TokenFor("a@x.com")
	require.NotEmpty(t, token)

	w, _ = ts.do(t, http.MethodPost, "/auth/confirmPasswordReset", gin.H{"token": token, "newPassword": "P2secret"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// токен одноразовый
	w, _ = ts.do(t, http.MethodPost, "/auth/confirmPasswordReset", gin.H{"token": token, "newPassword": "P3secret"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = ts.do(t, http.MethodPost, "/auth/dtUserLogin", gin.H{"email": "a@x.com", "password": "P2secret"}, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHTTPSubmitAnnotatorApplication(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "a@x.com", "P1secret")

	_, resp := ts.do(t, http.MethodPost, "/auth/dtUserLogin", gin.H{"email": "a@x.com", "password": "P1secret"}, "")
	token := resp["token"].(string)

	w, _ := ts.do(t, http.MethodPost, "/auth/submitAnnotatorApplication", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// из submitted повторный submit запрещён
	w, _ = ts.do(t, http.MethodPost, "/auth/submitAnnotatorApplication", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
