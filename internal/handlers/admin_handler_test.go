package handlers_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// registerAdmin проводит админа через create → verify-otp → setupPassword
// и возвращает JWT.
func (ts *testServer) registerAdmin(t *testing.T, email, password string) string {
	t.Helper()
	w, resp := ts.do(t, http.MethodPost, "/admin/create", gin.H{
		"email": email, "fullName": "Boss", "adminKey": "sekret",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := resp["data"].(map[string]any)["id"].(string)

	code := ts.emails.CodeFor(email)
	require.Len(t, code, 6)
	w, _ = ts.do(t, http.MethodPost, "/admin/verify-otp", gin.H{"email": email, "otp": code}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = ts.do(t, http.MethodPost, "/auth/setupPassword", gin.H{
		"userId": id, "email": email, "password": password, "confirmPassword": password,
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, resp = ts.do(t, http.MethodPost, "/admin/login", gin.H{"email": email, "password": password}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return resp["token"].(string)
}

func TestHTTPAdminCreatePolicy(t *testing.T) {
	ts := newTestServer(t)

	// неверный ключ
	w, resp := ts.do(t, http.MethodPost, "/admin/create", gin.H{
		"email": "boss@deeptech.example", "fullName": "Boss", "adminKey": "wrong",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, resp["success"])

	// чужой домен
	w, _ = ts.do(t, http.MethodPost, "/admin/create", gin.H{
		"email": "boss@gmail.com", "fullName": "Boss", "adminKey": "sekret",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = ts.do(t, http.MethodPost, "/admin/create", gin.H{
		"email": "boss@deeptech.example", "fullName": "Boss", "adminKey": "sekret",
	}, "")
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestHTTPAdminOTPVerification(t *testing.T) {
	ts := newTestServer(t)

	w, _ := ts.do(t, http.MethodPost, "/admin/create", gin.H{
		"email": "boss@deeptech.example", "fullName": "Boss", "adminKey": "sekret",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code)
	code := ts.emails.CodeFor("boss@deeptech.example")

	// без кода — 400
	w, _ = ts.do(t, http.MethodPost, "/admin/verify-otp", gin.H{"email": "boss@deeptech.example"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// неверный код — 400
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	w, _ = ts.do(t, http.MethodPost, "/admin/verify-otp", gin.H{"email": "boss@deeptech.example", "otp": wrong}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// поле verificationCode тоже принимается
	w, _ = ts.do(t, http.MethodPost, "/admin/verify-otp", gin.H{
		"email": "boss@deeptech.example", "verificationCode": code,
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// повтор — идемпотентный 200
	w, resp := ts.do(t, http.MethodPost, "/admin/verify-otp", gin.H{"email": "boss@deeptech.example", "otp": code}, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["success"])
}

func TestHTTPAdminRoutesAreRoleGated(t *testing.T) {
	ts := newTestServer(t)
	annID := ts.register(t, "a@x.com", "P1secret")
	adminToken := ts.registerAdmin(t, "boss@deeptech.example", "Adm1secret")

	_, resp := ts.do(t, http.MethodPost, "/auth/dtUserLogin", gin.H{"email": "a@x.com", "password": "P1secret"}, "")
	annToken := resp["token"].(string)

	// аннотатор не админ
	w, _ := ts.do(t, http.MethodGet, "/admin/accounts", nil, annToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// и не может зайти через админский login
	w, _ = ts.do(t, http.MethodPost, "/admin/login", gin.H{"email": "a@x.com", "password": "P1secret"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// листинг под админом
	w, resp = ts.do(t, http.MethodGet, "/admin/accounts?limit=10", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 2, resp["total"])

	w, resp = ts.do(t, http.MethodGet, "/admin/accounts/"+annID, nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a@x.com", resp["data"].(map[string]any)["email"])

	w, _ = ts.do(t, http.MethodGet, "/admin/accounts/7c9e6679-7425-40de-944b-e07fc1f90ae7", nil, adminToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHTTPAdminStatusUpdates(t *testing.T) {
	ts := newTestServer(t)
	annID := ts.register(t, "a@x.com", "P1secret")
	adminToken := ts.registerAdmin(t, "boss@deeptech.example", "Adm1secret")

	// прыжок pending → approved запрещён
	w, _ := ts.do(t, http.MethodPatch, "/admin/accounts/"+annID+"/annotator-status", gin.H{"status": "approved"}, adminToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for _, status := range []string{"submitted", "verified", "approved"} {
		w, _ = ts.do(t, http.MethodPatch, "/admin/accounts/"+annID+"/annotator-status", gin.H{"status": status}, adminToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	// треки независимы
	w, resp := ts.do(t, http.MethodGet, "/admin/accounts/"+annID, nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	data := resp["data"].(map[string]any)
	assert.Equal(t, "approved", data["annotatorStatus"])
	assert.Equal(t, "pending", data["microTaskerStatus"])

	w, _ = ts.do(t, http.MethodPatch, "/admin/accounts/"+annID+"/micro-tasker-status", gin.H{"status": "submitted"}, adminToken)
	assert.Equal(t, http.StatusOK, w.Code)

	// неизвестный статус
	w, _ = ts.do(t, http.MethodPatch, "/admin/accounts/"+annID+"/micro-tasker-status", gin.H{"status": "banana"}, adminToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
