package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AymenENSI/Secure-Entry/internal/actuate"
	"github.com/AymenENSI/Secure-Entry/internal/approval"
	"github.com/AymenENSI/Secure-Entry/internal/models"
	"github.com/AymenENSI/Secure-Entry/pkg/dto"
)

// ApprovalStore is the slice of the pending store the intake needs.
type ApprovalStore interface {
	Resolve(id string) (approval.PendingRequest, error)
	Pending() []approval.PendingRequest
	Get(id string) (approval.PendingRequest, bool)
}

// Actuator publishes actuation commands.
type Actuator interface {
	Publish(cmd actuate.Command) error
}

// EventSink receives audit events; implementations swallow failures.
type EventSink interface {
	Record(ctx context.Context, ev models.AccessEvent)
}

// ObjectGetter fetches stored audit images.
type ObjectGetter interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
}

type ApprovalHandler struct {
	store    ApprovalStore
	actuator Actuator
	events   EventSink
	images   ObjectGetter
}

func NewApprovalHandler(store ApprovalStore, actuator Actuator, events EventSink, images ObjectGetter) *ApprovalHandler {
	return &ApprovalHandler{store: store, actuator: actuator, events: events, images: images}
}

// Approve resolves a pending request and triggers the requested
// actuation. Duplicate deliveries and unknown ids get an error response
// and no side effects, so the endpoint is safe against webhook retries.
func (h *ApprovalHandler) Approve(c *gin.Context) {
	var req dto.ApproveRequest
	if err := c.ShouldBind(&req); err != nil || req.ID == "" {
		c.JSON(http.StatusBadRequest, dto.ApproveResponse{Status: "error", Msg: "id is required"})
		return
	}

	// Validate the action before touching the store: a bad action must
	// not consume the pending request.
	cmd, err := actuate.ParseAction(req.Action)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ApproveResponse{Status: "error", Msg: "unknown action"})
		return
	}

	pending, err := h.store.Resolve(req.ID)
	if err != nil {
		if errors.Is(err, approval.ErrNotPending) {
			c.JSON(http.StatusBadRequest, dto.ApproveResponse{Status: "error", Msg: "unknown id"})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ApproveResponse{Status: "error", Msg: err.Error()})
		return
	}

	// Publish failure is logged inside the actuator; the approval
	// itself already succeeded.
	_ = h.actuator.Publish(cmd)

	h.events.Record(c.Request.Context(), models.AccessEvent{
		CameraID:    pending.CameraID,
		Decision:    models.DecisionResolved,
		PendingID:   pending.ID,
		Action:      req.Action,
		SnapshotKey: pending.ImageRef,
	})

	c.JSON(http.StatusOK, dto.ApproveResponse{Status: "ok"})
}

// ListPending returns all outstanding approvals.
func (h *ApprovalHandler) ListPending(c *gin.Context) {
	pending := h.store.Pending()

	resp := make([]dto.PendingResponse, 0, len(pending))
	for _, p := range pending {
		r := dto.PendingResponse{
			ID:        p.ID,
			CameraID:  p.CameraID,
			CreatedAt: p.CreatedAt.Format(time.RFC3339),
		}
		if p.ImageRef != "" {
			r.ImageURL = "/v1/pending/" + p.ID + "/image"
		}
		resp = append(resp, r)
	}

	c.JSON(http.StatusOK, dto.PendingListResponse{Pending: resp, Total: len(resp)})
}

// PendingImage proxies the saved unknown-face image so the approver can
// see who is at the door. Resolved and expired requests are gone from
// the store but their snapshots live on under the deterministic key, so
// audit-log links keep working after the decision.
func (h *ApprovalHandler) PendingImage(c *gin.Context) {
	id := c.Param("id")

	key := models.SnapshotKey(id)
	if req, ok := h.store.Get(id); ok && req.ImageRef != "" {
		key = req.ImageRef
	}

	data, err := h.images.GetObject(c.Request.Context(), key)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
		return
	}

	c.Data(http.StatusOK, "image/jpeg", data)
}
