package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makeyourchoice/electives-api/internal/models"
	"github.com/makeyourchoice/electives-api/internal/service"
)

type catalogueServiceMock struct {
	listResp    []models.Course
	listErr     error
	visibleResp []models.Course
	visibleErr  error
	getResp     *models.Course
	getErr      error

	lastFilter  models.CourseFilter
	lastType    models.CourseType
	listCalled  bool
	visibleCall bool
}

func (m *catalogueServiceMock) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	m.listCalled = true
	m.lastFilter = filter
	return m.listResp, &models.Pagination{Page: 1, PageSize: 50, TotalCount: len(m.listResp)}, m.listErr
}

func (m *catalogueServiceMock) VisibleCourses(ctx context.Context, student *models.Student, semester *models.Semester, courseType models.CourseType) ([]models.Course, error) {
	m.visibleCall = true
	m.lastType = courseType
	return m.visibleResp, m.visibleErr
}

func (m *catalogueServiceMock) Get(ctx context.Context, id string) (*models.Course, error) {
	return m.getResp, m.getErr
}

func (m *catalogueServiceMock) Create(ctx context.Context, req service.CreateCourseRequest) (*models.Course, error) {
	return &models.Course{Title: req.Title}, nil
}

func (m *catalogueServiceMock) Update(ctx context.Context, id string, req service.UpdateCourseRequest) (*models.Course, error) {
	return &models.Course{ID: id}, nil
}

func (m *catalogueServiceMock) Archive(ctx context.Context, id string) error   { return nil }
func (m *catalogueServiceMock) Unarchive(ctx context.Context, id string) error { return nil }
func (m *catalogueServiceMock) Delete(ctx context.Context, id string) error    { return nil }

type eligibilityServiceMock struct {
	resp *service.Eligibility
	err  error
}

func (m *eligibilityServiceMock) Check(ctx context.Context, email string) (*service.Eligibility, error) {
	return m.resp, m.err
}

func TestCourseHandlerListParsesFilter(t *testing.T) {
	mockSvc := &catalogueServiceMock{}
	handler := NewCourseHandler(mockSvc, &eligibilityServiceMock{})

	w := httptest.NewRecorder()
	c := studentContext(t, w)
	req, _ := http.NewRequest(http.MethodGet, "/courses?type=tech&program=B24-DSAI&year=2&includeArchived=true&page=3", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.listCalled)
	assert.Equal(t, models.CourseTypeTech, mockSvc.lastFilter.Type)
	assert.Equal(t, "B24-DSAI", mockSvc.lastFilter.Program)
	assert.Equal(t, 2, mockSvc.lastFilter.Year)
	assert.True(t, mockSvc.lastFilter.IncludeArchived)
	assert.Equal(t, 3, mockSvc.lastFilter.Page)
}

func TestCourseHandlerListVisible(t *testing.T) {
	mockSvc := &catalogueServiceMock{
		visibleResp: []models.Course{{Title: "Machine Learning"}},
	}
	eligibility := &eligibilityServiceMock{
		resp: &service.Eligibility{
			Eligible: true,
			Student:  &models.Student{Email: "s.ivanov@innopolis.university", StudentGroup: "B24-DSAI", Year: 2},
			Semester: &models.Semester{ID: "sem-1", IsActive: true},
		},
	}
	handler := NewCourseHandler(mockSvc, eligibility)

	w := httptest.NewRecorder()
	c := studentContext(t, w)
	req, _ := http.NewRequest(http.MethodGet, "/courses/available?type=hum", nil)
	c.Request = req

	handler.ListVisible(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.visibleCall)
	assert.Equal(t, models.CourseTypeHum, mockSvc.lastType)

	var envelope struct {
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, true, envelope.Meta["eligible"])
}

func TestCourseHandlerListVisibleIneligible(t *testing.T) {
	mockSvc := &catalogueServiceMock{}
	eligibility := &eligibilityServiceMock{
		resp: &service.Eligibility{Eligible: false, Reason: "no active semester"},
	}
	handler := NewCourseHandler(mockSvc, eligibility)

	w := httptest.NewRecorder()
	c := studentContext(t, w)
	req, _ := http.NewRequest(http.MethodGet, "/courses/available?type=tech", nil)
	c.Request = req

	handler.ListVisible(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, mockSvc.visibleCall)

	var envelope struct {
		Data []models.Course        `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Empty(t, envelope.Data)
	assert.Equal(t, false, envelope.Meta["eligible"])
	assert.Equal(t, "no active semester", envelope.Meta["reason"])
}

func TestCourseHandlerListVisibleRejectsBadType(t *testing.T) {
	handler := NewCourseHandler(&catalogueServiceMock{}, &eligibilityServiceMock{})

	w := httptest.NewRecorder()
	c := studentContext(t, w)
	req, _ := http.NewRequest(http.MethodGet, "/courses/available?type=sports", nil)
	c.Request = req

	handler.ListVisible(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCourseHandlerListVisibleWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCourseHandler(&catalogueServiceMock{}, &eligibilityServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/courses/available", nil)
	c.Request = req

	handler.ListVisible(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
