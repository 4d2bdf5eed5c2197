// Package engine implements the authorization decision pipeline: an
// inbound camera image becomes, per detected face, either an immediate
// door actuation or a pending approval handed to a human.
package engine

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/AymenENSI/Secure-Entry/internal/actuate"
	"github.com/AymenENSI/Secure-Entry/internal/approval"
	"github.com/AymenENSI/Secure-Entry/internal/models"
	"github.com/AymenENSI/Secure-Entry/internal/observability"
	"github.com/AymenENSI/Secure-Entry/internal/registry"
	"github.com/AymenENSI/Secure-Entry/pkg/dto"
)

type DecisionKind string

const (
	DecisionAuthorized DecisionKind = "authorized"
	DecisionDeferred   DecisionKind = "deferred"
)

// Decision is the per-face outcome of processing one image event.
type Decision struct {
	Kind      DecisionKind
	Identity  registry.Identity // set when Kind is DecisionAuthorized
	PendingID string            // set when Kind is DecisionDeferred
}

// Encoder extracts face embeddings from raw image bytes.
type Encoder interface {
	Encode(imageData []byte) ([][]float32, error)
}

// Actuator publishes actuation commands.
type Actuator interface {
	Publish(cmd actuate.Command) error
}

// Notifier alerts the human approver about an unknown face.
type Notifier interface {
	UnknownFace(ctx context.Context, pendingID, cameraID string) error
}

// ImageStore keeps audit copies of unknown-face images.
type ImageStore interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
}

// EventSink receives audit events. Implementations must swallow their
// own failures; the pipeline never blocks on audit.
type EventSink interface {
	Record(ctx context.Context, ev models.AccessEvent)
}

type Engine struct {
	encoder   Encoder
	registry  *registry.Registry
	store     *approval.Store
	actuator  Actuator
	notifier  Notifier
	images    ImageStore
	events    EventSink
	tolerance float64
}

func New(
	encoder Encoder,
	reg *registry.Registry,
	store *approval.Store,
	actuator Actuator,
	notifier Notifier,
	images ImageStore,
	events EventSink,
	tolerance float64,
) *Engine {
	return &Engine{
		encoder:   encoder,
		registry:  reg,
		store:     store,
		actuator:  actuator,
		notifier:  notifier,
		images:    images,
		events:    events,
		tolerance: tolerance,
	}
}

// HandleEvent processes one inbound image event from the bus.
// A malformed payload is an error the caller logs and drops; it never
// aborts the ingestion loop.
func (e *Engine) HandleEvent(ctx context.Context, ev dto.ImageEvent) error {
	imageData, err := base64.StdEncoding.DecodeString(ev.ImageBase64)
	if err != nil {
		return fmt.Errorf("decode image payload from %s: %w", ev.Camera, err)
	}

	_, err = e.Decide(ctx, imageData, ev.Camera)
	return err
}

// Decide runs the pipeline for one image and returns one decision per
// detected face. Zero detected faces is a no-op, not an error.
func (e *Engine) Decide(ctx context.Context, imageData []byte, cameraID string) ([]Decision, error) {
	observability.ImagesProcessed.WithLabelValues(cameraID).Inc()

	embeddings, err := e.encoder.Encode(imageData)
	if err != nil {
		return nil, fmt.Errorf("encode image from %s: %w", cameraID, err)
	}
	if len(embeddings) == 0 {
		slog.Debug("no faces in image", "camera", cameraID)
		return nil, nil
	}

	observability.FacesDetected.WithLabelValues(cameraID).Add(float64(len(embeddings)))
	slog.Info("faces detected", "camera", cameraID, "count", len(embeddings))

	decisions := make([]Decision, 0, len(embeddings))
	for _, embedding := range embeddings {
		if identity, ok := e.registry.Match(embedding, e.tolerance); ok {
			decisions = append(decisions, e.authorize(ctx, identity, cameraID, embedding))
		} else {
			decisions = append(decisions, e.deferToHuman(ctx, cameraID, imageData, embedding))
		}
	}

	return decisions, nil
}

func (e *Engine) authorize(ctx context.Context, identity registry.Identity, cameraID string, embedding []float32) Decision {
	slog.Info("face authorized", "camera", cameraID, "identity", identity.Name)
	observability.FacesAuthorized.WithLabelValues(cameraID).Inc()

	// Publish failure is a warning, never a rollback: the match stands.
	_ = e.actuator.Publish(actuate.Command{Target: actuate.TargetDoor})

	e.events.Record(ctx, models.AccessEvent{
		CameraID:     cameraID,
		Decision:     models.DecisionAuthorized,
		IdentityName: identity.Name,
		Embedding:    embedding,
	})

	return Decision{Kind: DecisionAuthorized, Identity: identity}
}

func (e *Engine) deferToHuman(ctx context.Context, cameraID string, imageData []byte, embedding []float32) Decision {
	req := e.store.Create(cameraID)
	observability.ApprovalsDeferred.WithLabelValues(cameraID).Inc()

	// Courtesy save for audit. Best-effort: losing the snapshot does
	// not invalidate the pending request.
	snapshotKey := models.SnapshotKey(req.ID)
	if err := e.images.PutObject(ctx, snapshotKey, imageData, "image/jpeg"); err != nil {
		slog.Warn("save unknown-face image", "id", req.ID, "error", err)
		snapshotKey = ""
	} else {
		e.store.AttachImage(req.ID, snapshotKey)
	}

	if err := e.notifier.UnknownFace(ctx, req.ID, cameraID); err != nil {
		slog.Warn("notify approver", "id", req.ID, "error", err)
	}

	slog.Info("unknown face deferred to approver", "camera", cameraID, "id", req.ID)

	e.events.Record(ctx, models.AccessEvent{
		CameraID:    cameraID,
		Decision:    models.DecisionDeferred,
		PendingID:   req.ID,
		SnapshotKey: snapshotKey,
		Embedding:   embedding,
	})

	return Decision{Kind: DecisionDeferred, PendingID: req.ID}
}
