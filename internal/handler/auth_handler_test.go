package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makeyourchoice/electives-api/internal/models"
	appErrors "github.com/makeyourchoice/electives-api/pkg/errors"
)

type authServiceMock struct {
	requestErr  error
	verifyResp  *models.LoginResponse
	verifyErr   error
	refreshResp *models.RefreshTokenResponse
	refreshErr  error
	logoutErr   error

	lastVerifyReq models.VerifyCodeRequest
	logoutEmail   string
	logoutToken   string
}

func (m *authServiceMock) RequestCode(ctx context.Context, req models.RequestCodeRequest) error {
	return m.requestErr
}

func (m *authServiceMock) VerifyCode(ctx context.Context, req models.VerifyCodeRequest) (*models.LoginResponse, error) {
	m.lastVerifyReq = req
	return m.verifyResp, m.verifyErr
}

func (m *authServiceMock) RefreshToken(ctx context.Context, req models.RefreshTokenRequest) (*models.RefreshTokenResponse, error) {
	return m.refreshResp, m.refreshErr
}

func (m *authServiceMock) Logout(ctx context.Context, email, refreshToken string) error {
	m.logoutEmail = email
	m.logoutToken = refreshToken
	return m.logoutErr
}

func TestAuthHandlerRequestCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(&authServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/auth/request-code", bytes.NewBufferString(`{"email":"s.ivanov@innopolis.university"}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.RequestCode(c)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAuthHandlerRequestCodeForeignDomain(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(&authServiceMock{requestErr: appErrors.ErrEmailNotAllowed})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/auth/request-code", bytes.NewBufferString(`{"email":"someone@gmail.com"}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.RequestCode(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuthHandlerVerifyCodeCapturesClient(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &authServiceMock{
		verifyResp: &models.LoginResponse{AccessToken: "token"},
	}
	handler := NewAuthHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/auth/verify-code", bytes.NewBufferString(`{"email":"s.ivanov@innopolis.university","code":"123456"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "test-agent")
	c.Request = req

	handler.VerifyCode(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "test-agent", mockSvc.lastVerifyReq.UserAgent)

	var envelope struct {
		Data models.LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "token", envelope.Data.AccessToken)
}

func TestAuthHandlerVerifyCodeInvalid(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(&authServiceMock{verifyErr: appErrors.ErrInvalidCode})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/auth/verify-code", bytes.NewBufferString(`{"email":"s.ivanov@innopolis.university","code":"000000"}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.VerifyCode(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandlerLogout(t *testing.T) {
	mockSvc := &authServiceMock{}
	handler := NewAuthHandler(mockSvc)

	w := httptest.NewRecorder()
	c := studentContext(t, w)
	req, _ := http.NewRequest(http.MethodPost, "/auth/logout", bytes.NewBufferString(`{"refresh_token":"rt-1"}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Logout(c)
	// Status is buffered until something writes; flush it so the recorder
	// sees the code the way the engine would send it.
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "s.ivanov@innopolis.university", mockSvc.logoutEmail)
	assert.Equal(t, "rt-1", mockSvc.logoutToken)
}

func TestAuthHandlerMe(t *testing.T) {
	handler := NewAuthHandler(&authServiceMock{})

	w := httptest.NewRecorder()
	c := studentContext(t, w)
	req, _ := http.NewRequest(http.MethodGet, "/auth/me", nil)
	c.Request = req

	handler.Me(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.UserInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "s.ivanov@innopolis.university", envelope.Data.Email)
	assert.Equal(t, models.RoleStudent, envelope.Data.Role)
}

func TestAuthHandlerMeWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(&authServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/auth/me", nil)
	c.Request = req

	handler.Me(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
