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

type evaluationService interface {
	Create(ctx context.Context, req dto.CreateEvaluationRequest, actor *models.JWTClaims) (*models.PhysicalEvaluationRequest, error)
	Accept(ctx context.Context, id string, req dto.AcceptEvaluationRequest, actor *models.JWTClaims) (*models.PhysicalEvaluationRequest, error)
	Reject(ctx context.Context, id string, actor *models.JWTClaims) (*models.PhysicalEvaluationRequest, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.PhysicalEvaluationRequest, error)
	ListForGuide(ctx context.Context, query dto.EvaluationQuery, actor *models.JWTClaims) ([]models.PhysicalEvaluationRequest, error)
	ListForAthlete(ctx context.Context, query dto.EvaluationQuery, actor *models.JWTClaims) ([]models.PhysicalEvaluationRequest, error)
}

// EvaluationHandler exposes REST endpoints for physical evaluation
// requests between athletes and guides.
type EvaluationHandler struct {
	service evaluationService
}

// NewEvaluationHandler constructs the handler.
func NewEvaluationHandler(service evaluationService) *EvaluationHandler {
	return &EvaluationHandler{service: service}
}

// Create godoc
// @Summary Request a physical evaluation from a guide
// @Tags Evaluations
// @Accept json
// @Produce json
// @Param payload body dto.CreateEvaluationRequest true "Evaluation request payload"
// @Success 201 {object} response.Envelope
// @Router /evaluations [post]
func (h *EvaluationHandler) Create(c *gin.Context) {
	var req dto.CreateEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid evaluation payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	request, err := h.service.Create(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, request, nil)
}

// Accept godoc
// @Summary Accept an evaluation request
// @Tags Evaluations
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.AcceptEvaluationRequest false "Schedule overrides"
// @Success 200 {object} response.Envelope
// @Router /evaluations/{id}/accept [post]
func (h *EvaluationHandler) Accept(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.AcceptEvaluationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid accept payload"))
			return
		}
	}
	request, err := h.service.Accept(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Reject godoc
// @Summary Reject an evaluation request
// @Tags Evaluations
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /evaluations/{id}/reject [post]
func (h *EvaluationHandler) Reject(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	request, err := h.service.Reject(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Get godoc
// @Summary Get evaluation request detail
// @Tags Evaluations
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /evaluations/{id} [get]
func (h *EvaluationHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	request, err := h.service.Get(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// ListIncoming godoc
// @Summary List evaluation requests addressed to the calling guide
// @Tags Evaluations
// @Produce json
// @Param status query string false "Status filter"
// @Success 200 {object} response.Envelope
// @Router /evaluations/incoming [get]
func (h *EvaluationHandler) ListIncoming(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var query dto.EvaluationQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	requests, err := h.service.ListForGuide(c.Request.Context(), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// ListOutgoing godoc
// @Summary List evaluation requests sent by the calling athlete
// @Tags Evaluations
// @Produce json
// @Param status query string false "Status filter"
// @Success 200 {object} response.Envelope
// @Router /evaluations/outgoing [get]
func (h *EvaluationHandler) ListOutgoing(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var query dto.EvaluationQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	requests, err := h.service.ListForAthlete(c.Request.Context(), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}
