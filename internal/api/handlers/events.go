package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AymenENSI/Secure-Entry/internal/models"
	"github.com/AymenENSI/Secure-Entry/pkg/dto"
)

// EventLister reads the access-event audit log.
type EventLister interface {
	ListEvents(ctx context.Context, cameraID string, limit int) ([]models.AccessEvent, error)
}

type EventHandler struct {
	db EventLister
}

func NewEventHandler(db EventLister) *EventHandler {
	return &EventHandler{db: db}
}

// List returns recent audit entries, newest first.
func (h *EventHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	events, err := h.db.ListEvents(c.Request.Context(), c.Query("camera"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.EventResponse, 0, len(events))
	for _, ev := range events {
		r := dto.EventResponse{
			ID:           ev.ID.String(),
			CameraID:     ev.CameraID,
			Decision:     ev.Decision,
			IdentityName: ev.IdentityName,
			PendingID:    ev.PendingID,
			Action:       ev.Action,
			CreatedAt:    ev.CreatedAt.Format(time.RFC3339),
		}
		if ev.SnapshotKey != "" && ev.PendingID != "" {
			r.SnapshotURL = "/v1/pending/" + ev.PendingID + "/image"
		}
		resp = append(resp, r)
	}

	c.JSON(http.StatusOK, dto.EventListResponse{Events: resp, Total: len(resp)})
}
