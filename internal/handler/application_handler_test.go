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

	"github.com/Ashu-Jha004/sportsv2-sub003/internal/dto"
	"github.com/Ashu-Jha004/sportsv2-sub003/internal/middleware"
	"github.com/Ashu-Jha004/sportsv2-sub003/internal/models"
	appErrors "github.com/Ashu-Jha004/sportsv2-sub003/pkg/errors"
)

type applicationServiceMock struct {
	submitResp    *models.Application
	submitErr     error
	claimResp     *models.Application
	claimErr      error
	approveResp   *models.Application
	approveErr    error
	rejectResp    *models.Application
	rejectErr     error
	getResp       *models.Application
	getErr        error
	listResp      []models.Application
	listErr       error
	lastRejectReq dto.RejectApplicationRequest
	lastQuery     dto.ApplicationQuery
	claimedID     string
}

func (m *applicationServiceMock) Submit(ctx context.Context, req dto.SubmitApplicationRequest, actor *models.JWTClaims) (*models.Application, error) {
	return m.submitResp, m.submitErr
}

func (m *applicationServiceMock) Claim(ctx context.Context, id string, actor *models.JWTClaims) (*models.Application, error) {
	m.claimedID = id
	return m.claimResp, m.claimErr
}

func (m *applicationServiceMock) Approve(ctx context.Context, id string, req dto.ApproveApplicationRequest, actor *models.JWTClaims) (*models.Application, error) {
	return m.approveResp, m.approveErr
}

func (m *applicationServiceMock) Reject(ctx context.Context, id string, req dto.RejectApplicationRequest, actor *models.JWTClaims) (*models.Application, error) {
	m.lastRejectReq = req
	return m.rejectResp, m.rejectErr
}

func (m *applicationServiceMock) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Application, error) {
	return m.getResp, m.getErr
}

func (m *applicationServiceMock) List(ctx context.Context, query dto.ApplicationQuery, actor *models.JWTClaims) ([]models.Application, error) {
	m.lastQuery = query
	return m.listResp, m.listErr
}

func testClaims(roles ...models.AthleteRole) *models.JWTClaims {
	return &models.JWTClaims{AthleteID: "ath-1", Roles: roles}
}

func TestApplicationHandlerSubmit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &applicationServiceMock{
		submitResp: &models.Application{ID: "app-1", Status: models.ApplicationStatusPending},
	}
	handler := NewApplicationHandler(mockSvc)

	payload, _ := json.Marshal(dto.SubmitApplicationRequest{
		WorkEmail:       "work@example.com",
		Expertise:       "strength coaching",
		ExperienceYears: 5,
		Location:        "Pune",
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/applications", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, testClaims(models.RoleAthlete))

	handler.Submit(c)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestApplicationHandlerSubmitInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewApplicationHandler(&applicationServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/applications", bytes.NewBufferString(`{"workEmail":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, testClaims(models.RoleAthlete))

	handler.Submit(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApplicationHandlerSubmitUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewApplicationHandler(&applicationServiceMock{})

	payload, _ := json.Marshal(dto.SubmitApplicationRequest{WorkEmail: "work@example.com"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/applications", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Submit(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestApplicationHandlerClaimConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &applicationServiceMock{claimErr: appErrors.ErrConflict}
	handler := NewApplicationHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/applications/app-1/claim", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "app-1"}}
	c.Set(middleware.ContextUserKey, testClaims(models.RoleModerator))

	handler.Claim(c)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "app-1", mockSvc.claimedID)
}

func TestApplicationHandlerApproveEmptyBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &applicationServiceMock{
		approveResp: &models.Application{ID: "app-1", Status: models.ApplicationStatusApproved},
	}
	handler := NewApplicationHandler(mockSvc)

	// Approval notes are optional; no body at all is fine.
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/applications/app-1/approve", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "app-1"}}
	c.Set(middleware.ContextUserKey, testClaims(models.RoleModerator))

	handler.Approve(c)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestApplicationHandlerReject(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &applicationServiceMock{
		rejectResp: &models.Application{ID: "app-1", Status: models.ApplicationStatusRejected},
	}
	handler := NewApplicationHandler(mockSvc)

	cooldown := 14
	payload, _ := json.Marshal(dto.RejectApplicationRequest{Reason: "insufficient experience", CooldownDays: &cooldown})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/applications/app-1/reject", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "app-1"}}
	c.Set(middleware.ContextUserKey, testClaims(models.RoleModerator))

	handler.Reject(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mockSvc.lastRejectReq.CooldownDays)
	assert.Equal(t, 14, *mockSvc.lastRejectReq.CooldownDays)
}

func TestApplicationHandlerListFilters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &applicationServiceMock{
		listResp: []models.Application{{ID: "app-1"}},
	}
	handler := NewApplicationHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/applications?status=PENDING&limit=10", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, testClaims(models.RoleModerator))

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "PENDING", mockSvc.lastQuery.Status)
	assert.Equal(t, 10, mockSvc.lastQuery.Limit)
}
