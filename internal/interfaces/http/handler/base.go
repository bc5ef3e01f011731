package handler

import (
	"errors"
	"net/http"

	"github.com/erp/fulfillment/internal/application/authz"
	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/erp/fulfillment/internal/infrastructure/logger"
	"github.com/erp/fulfillment/internal/interfaces/http/dto"
	"github.com/erp/fulfillment/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BaseHandler carries the response envelope and binding helpers every
// handler embeds
type BaseHandler struct{}

func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error writes the error envelope with an explicit status and code
func (h *BaseHandler) Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, dto.NewErrorResponse(code, message, middleware.GetRequestID(c)))
}

func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

func (h *BaseHandler) ValidationError(c *gin.Context, details []dto.ValidationDetail) {
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse("Request validation failed", middleware.GetRequestID(c), details))
}

// bind runs a gin binder; validator failures become per-field details,
// anything else (malformed JSON, wrong types) a plain 400
func (h *BaseHandler) bind(c *gin.Context, err error, what string) bool {
	if err == nil {
		return true
	}
	if details := middleware.ValidationDetails(err); len(details) > 0 {
		h.ValidationError(c, details)
	} else {
		h.BadRequest(c, "Invalid "+what)
	}
	return false
}

func (h *BaseHandler) BindJSON(c *gin.Context, req any) bool {
	return h.bind(c, c.ShouldBindJSON(req), "request body")
}

func (h *BaseHandler) BindQuery(c *gin.Context, req any) bool {
	return h.bind(c, c.ShouldBindQuery(req), "query parameters")
}

// ParseUUIDParam reads a path parameter, answering 400 when it is not a UUID
func (h *BaseHandler) ParseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// RequireTenant answers 401 unless the caller's principal names a tenant
func (h *BaseHandler) RequireTenant(c *gin.Context) (uuid.UUID, bool) {
	p, ok := authz.FromContext(c.Request.Context())
	if !ok || p.TenantID == uuid.Nil {
		h.Unauthorized(c, "Authentication required")
		return uuid.Nil, false
	}
	return p.TenantID, true
}

// HandleError maps a DomainError onto its status and code. Any other error is
// logged and surfaces as INTERNAL_ERROR without its text.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	var de *shared.DomainError
	if !errors.As(err, &de) {
		logger.L(c.Request.Context()).Error("Unhandled request error", zap.String("route", c.FullPath()), zap.Error(err))
		h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
		return
	}

	code := dto.NormalizeErrorCode(de.Code)
	resp := dto.NewErrorResponse(code, de.Message, middleware.GetRequestID(c))
	resp.Error.Details = de.Details
	c.JSON(dto.GetHTTPStatus(code), resp)
}
