package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ashu-Jha004/sportsv2-sub003/internal/dto"
	"github.com/Ashu-Jha004/sportsv2-sub003/internal/models"
	appErrors "github.com/Ashu-Jha004/sportsv2-sub003/pkg/errors"
	"github.com/Ashu-Jha004/sportsv2-sub003/pkg/response"
)

type teamService interface {
	Submit(ctx context.Context, req dto.SubmitTeamApplicationRequest, actor *models.JWTClaims) (*models.TeamFormationApplication, error)
	Approve(ctx context.Context, id string, req dto.ReviewTeamApplicationRequest, actor *models.JWTClaims) (*dto.TeamApprovalResult, error)
	Reject(ctx context.Context, id string, req dto.ReviewTeamApplicationRequest, actor *models.JWTClaims) (*models.TeamFormationApplication, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.TeamFormationApplication, error)
	List(ctx context.Context, query dto.TeamApplicationQuery, actor *models.JWTClaims) ([]models.TeamFormationApplication, error)
}

// TeamHandler exposes REST endpoints for the team formation workflow.
type TeamHandler struct {
	service teamService
}

// NewTeamHandler constructs the handler.
func NewTeamHandler(service teamService) *TeamHandler {
	return &TeamHandler{service: service}
}

// Submit godoc
// @Summary Submit a team formation application
// @Tags Teams
// @Accept json
// @Produce json
// @Param payload body dto.SubmitTeamApplicationRequest true "Team application payload"
// @Success 201 {object} response.Envelope
// @Router /team-applications [post]
func (h *TeamHandler) Submit(c *gin.Context) {
	var req dto.SubmitTeamApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid team application payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	application, err := h.service.Submit(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, application, nil)
}

// Approve godoc
// @Summary Approve a team formation application
// @Tags Teams
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.ReviewTeamApplicationRequest false "Reviewer note"
// @Success 200 {object} response.Envelope
// @Router /team-applications/{id}/approve [post]
func (h *TeamHandler) Approve(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ReviewTeamApplicationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid review payload"))
			return
		}
	}
	result, err := h.service.Approve(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Reject godoc
// @Summary Reject a team formation application
// @Tags Teams
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.ReviewTeamApplicationRequest false "Reviewer note"
// @Success 200 {object} response.Envelope
// @Router /team-applications/{id}/reject [post]
func (h *TeamHandler) Reject(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ReviewTeamApplicationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid review payload"))
			return
		}
	}
	application, err := h.service.Reject(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, application, nil)
}

// Get godoc
// @Summary Get team application detail
// @Tags Teams
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /team-applications/{id} [get]
func (h *TeamHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	application, err := h.service.Get(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, application, nil)
}

// List godoc
// @Summary List team applications
// @Tags Teams
// @Produce json
// @Param status query string false "Status filter"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} response.Envelope
// @Router /team-applications [get]
func (h *TeamHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var query dto.TeamApplicationQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	applications, err := h.service.List(c.Request.Context(), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, applications, nil)
}
