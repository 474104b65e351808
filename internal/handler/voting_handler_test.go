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

	"github.com/makeyourchoice/electives-api/internal/middleware"
	"github.com/makeyourchoice/electives-api/internal/models"
	"github.com/makeyourchoice/electives-api/internal/service"
	appErrors "github.com/makeyourchoice/electives-api/pkg/errors"
)

type votingServiceMock struct {
	submitErr    error
	latestResp   *models.PriorityRecord
	latestErr    error
	listResp     []models.PriorityRecord
	listErr      error
	logResp      []models.PriorityLogEntry
	logErr       error
	deadlineResp *models.DeadlineStatus
	deadlineErr  error

	submitCalled bool
	lastEmail    string
	lastReq      service.SubmitPrioritiesRequest
	lastFilter   models.PriorityLogFilter
}

func (m *votingServiceMock) Submit(ctx context.Context, email string, req service.SubmitPrioritiesRequest) error {
	m.submitCalled = true
	m.lastEmail = email
	m.lastReq = req
	return m.submitErr
}

func (m *votingServiceMock) Latest(ctx context.Context, email string) (*models.PriorityRecord, error) {
	m.lastEmail = email
	return m.latestResp, m.latestErr
}

func (m *votingServiceMock) ListLatest(ctx context.Context) ([]models.PriorityRecord, error) {
	return m.listResp, m.listErr
}

func (m *votingServiceMock) ListLog(ctx context.Context, filter models.PriorityLogFilter) ([]models.PriorityLogEntry, *models.Pagination, error) {
	m.lastFilter = filter
	return m.logResp, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: len(m.logResp)}, m.logErr
}

func (m *votingServiceMock) Deadline(ctx context.Context, email string) (*models.DeadlineStatus, error) {
	m.lastEmail = email
	return m.deadlineResp, m.deadlineErr
}

func studentContext(t *testing.T, w *httptest.ResponseRecorder) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(w)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{Email: "s.ivanov@innopolis.university", Role: models.RoleStudent})
	return c
}

func TestVotingHandlerSubmit(t *testing.T) {
	mockSvc := &votingServiceMock{}
	handler := NewVotingHandler(mockSvc, nil)

	payload, _ := json.Marshal(service.SubmitPrioritiesRequest{
		Type:       models.CourseTypeTech,
		Selections: []string{"Machine Learning", "Compilers"},
	})
	w := httptest.NewRecorder()
	c := studentContext(t, w)
	req, _ := http.NewRequest(http.MethodPost, "/priorities", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Submit(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.submitCalled)
	assert.Equal(t, "s.ivanov@innopolis.university", mockSvc.lastEmail)
	assert.Len(t, mockSvc.lastReq.Selections, 2)
}

func TestVotingHandlerSubmitWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &votingServiceMock{}
	handler := NewVotingHandler(mockSvc, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/priorities", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Submit(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, mockSvc.submitCalled)
}

func TestVotingHandlerSubmitInvalidBody(t *testing.T) {
	mockSvc := &votingServiceMock{}
	handler := NewVotingHandler(mockSvc, nil)

	w := httptest.NewRecorder()
	c := studentContext(t, w)
	req, _ := http.NewRequest(http.MethodPost, "/priorities", bytes.NewBufferString(`{"type":"tech"`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Submit(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mockSvc.submitCalled)
}

func TestVotingHandlerSubmitServiceError(t *testing.T) {
	mockSvc := &votingServiceMock{submitErr: appErrors.ErrDeadlinePassed}
	handler := NewVotingHandler(mockSvc, nil)

	payload, _ := json.Marshal(service.SubmitPrioritiesRequest{
		Type:       models.CourseTypeTech,
		Selections: []string{"Machine Learning"},
	})
	w := httptest.NewRecorder()
	c := studentContext(t, w)
	req, _ := http.NewRequest(http.MethodPost, "/priorities", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Submit(c)
	require.Equal(t, http.StatusForbidden, w.Code)

	var envelope struct {
		Error *appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrDeadlinePassed.Code, envelope.Error.Code)
}

func TestVotingHandlerLatest(t *testing.T) {
	mockSvc := &votingServiceMock{
		latestResp: &models.PriorityRecord{Email: "s.ivanov@innopolis.university", Tech: []string{"ML"}},
	}
	handler := NewVotingHandler(mockSvc, nil)

	w := httptest.NewRecorder()
	c := studentContext(t, w)
	req, _ := http.NewRequest(http.MethodGet, "/priorities/latest", nil)
	c.Request = req

	handler.Latest(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "s.ivanov@innopolis.university", mockSvc.lastEmail)
}

func TestVotingHandlerListLogParsesFilter(t *testing.T) {
	mockSvc := &votingServiceMock{}
	handler := NewVotingHandler(mockSvc, nil)

	w := httptest.NewRecorder()
	c := studentContext(t, w)
	req, _ := http.NewRequest(http.MethodGet, "/priorities/log?email=a.petrov@innopolis.university&type=hum&page=2&limit=10", nil)
	c.Request = req

	handler.ListLog(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a.petrov@innopolis.university", mockSvc.lastFilter.Email)
	assert.Equal(t, models.CourseTypeHum, mockSvc.lastFilter.Type)
	assert.Equal(t, 2, mockSvc.lastFilter.Page)
	assert.Equal(t, 10, mockSvc.lastFilter.PageSize)
}
