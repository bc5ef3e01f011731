package handler

import (
	"context"

	"github.com/erp/fulfillment/internal/application/event"
	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OutboxAdmin is what the dead-letter endpoints need from the outbox
type OutboxAdmin interface {
	ListDeadLetters(ctx context.Context, filter event.DeadLetterFilter) (*shared.Paginated[event.OutboxEntryResponse], error)
	GetEntry(ctx context.Context, id uuid.UUID) (*event.OutboxEntryResponse, error)
	Requeue(ctx context.Context, id uuid.UUID) (*event.OutboxEntryResponse, error)
	RequeueAll(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (*event.OutboxStatsResponse, error)
}

type OutboxHandler struct {
	BaseHandler
	outbox OutboxAdmin
}

func NewOutboxHandler(outbox OutboxAdmin) *OutboxHandler {
	return &OutboxHandler{outbox: outbox}
}

type RequeueAllResponse struct {
	Count int64 `json:"count"`
}

// ListDeadLetters godoc
// @ID           listOutboxDeadLetters
// @Summary      List dead letters
// @Tags         outbox
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]event.OutboxEntryResponse,meta=dto.Meta}
// @Failure      403 {object} dto.Response
// @Security     BearerAuth
// @Router       /admin/outbox/dead [get]
func (h *OutboxHandler) ListDeadLetters(c *gin.Context) {
	var filter event.DeadLetterFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	page, err := h.outbox.ListDeadLetters(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetEntry godoc
// @ID           getOutboxEntry
// @Summary      Get an outbox entry
// @Tags         outbox
// @Produce      json
// @Param        id path string true "Outbox entry ID" format(uuid)
// @Success      200 {object} dto.Response{data=event.OutboxEntryResponse}
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /admin/outbox/{id} [get]
func (h *OutboxHandler) GetEntry(c *gin.Context) {
	h.withEntryID(c, h.outbox.GetEntry)
}

// Requeue godoc
// @ID           requeueOutboxEntry
// @Summary      Requeue a dead letter
// @Description  Only DEAD entries can be requeued; any other status answers 409
// @Tags         outbox
// @Produce      json
// @Param        id path string true "Outbox entry ID" format(uuid)
// @Success      200 {object} dto.Response{data=event.OutboxEntryResponse}
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /admin/outbox/{id}/retry [post]
func (h *OutboxHandler) Requeue(c *gin.Context) {
	h.withEntryID(c, h.outbox.Requeue)
}

func (h *OutboxHandler) withEntryID(c *gin.Context, fn func(context.Context, uuid.UUID) (*event.OutboxEntryResponse, error)) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	entry, err := fn(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// RequeueAll godoc
// @ID           requeueAllOutboxDeadLetters
// @Summary      Requeue every dead letter
// @Tags         outbox
// @Produce      json
// @Success      200 {object} dto.Response{data=RequeueAllResponse}
// @Security     BearerAuth
// @Router       /admin/outbox/dead/retry-all [post]
func (h *OutboxHandler) RequeueAll(c *gin.Context) {
	n, err := h.outbox.RequeueAll(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, RequeueAllResponse{Count: n})
}

// Stats godoc
// @ID           getOutboxStats
// @Summary      Count outbox entries per status
// @Tags         outbox
// @Produce      json
// @Success      200 {object} dto.Response{data=event.OutboxStatsResponse}
// @Security     BearerAuth
// @Router       /admin/outbox/stats [get]
func (h *OutboxHandler) Stats(c *gin.Context) {
	stats, err := h.outbox.Stats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}
