package handler

import (
	"errors"
	"net/http"

	"go-fanout/internal/api/dto"
	"go-fanout/internal/core/ports"
	"go-fanout/internal/domain"
	"go-fanout/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InvocationHandler struct {
	service service.InvocationService
	repo    ports.InvocationRepository
}

// NewInvocationHandler builds the handler. repo may be nil, in which case
// the ledger endpoints answer 503.
func NewInvocationHandler(svc service.InvocationService, repo ports.InvocationRepository) *InvocationHandler {
	return &InvocationHandler{service: svc, repo: repo}
}

// Invoke runs one task record taken from the request body and answers with
// the resulting record.
func (h *InvocationHandler) Invoke(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	outcome, err := h.service.Invoke(c.Request.Context(), body)
	if err != nil {
		kind, _ := domain.KindOf(err)
		c.JSON(StatusFor(err), dto.ErrorResponse{Kind: string(kind), Error: err.Error()})
		return
	}

	c.Header("X-Invocation-Id", outcome.InvocationID.String())
	c.Header("X-Invocation-Mode", string(outcome.Mode))
	c.Data(http.StatusOK, "application/json", outcome.Record)
}

func (h *InvocationHandler) GetInvocation(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "invocation ledger is not configured"})
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	inv, err := h.repo.FindByID(c.Request.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "invocation not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.NewInvocationResponse(inv))
}

func (h *InvocationHandler) ListInvocations(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "invocation ledger is not configured"})
		return
	}
	var q dto.ListInvocationsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	invs, err := h.repo.ListByTask(c.Request.Context(), q.Task, q.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	resp := make([]dto.InvocationResponse, len(invs))
	for i := range invs {
		resp[i] = dto.NewInvocationResponse(&invs[i])
	}
	c.JSON(http.StatusOK, resp)
}

// StatusFor maps an invocation error to an HTTP status.
func StatusFor(err error) int {
	kind, ok := domain.KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch kind {
	case domain.KindMalformedRecord, domain.KindMissingInput:
		return http.StatusBadRequest
	case domain.KindMissingChildOutput:
		return http.StatusConflict
	case domain.KindUnreadableFile:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
