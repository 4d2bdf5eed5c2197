package engine_test

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/AymenENSI/Secure-Entry/internal/actuate"
	"github.com/AymenENSI/Secure-Entry/internal/approval"
	"github.com/AymenENSI/Secure-Entry/internal/engine"
	"github.com/AymenENSI/Secure-Entry/internal/models"
	"github.com/AymenENSI/Secure-Entry/internal/registry"
	"github.com/AymenENSI/Secure-Entry/pkg/dto"
)

type fakeEncoder struct {
	embeddings [][]float32
	err        error
}

func (f *fakeEncoder) Encode([]byte) ([][]float32, error) {
	return f.embeddings, f.err
}

type fakeActuator struct {
	mu       sync.Mutex
	commands []actuate.Command
	err      error
}

func (f *fakeActuator) Publish(cmd actuate.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, cmd)
	return f.err
}

func (f *fakeActuator) published() []actuate.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]actuate.Command(nil), f.commands...)
}

type fakeNotifier struct {
	mu         sync.Mutex
	pendingIDs []string
	cameras    []string
	err        error
}

func (f *fakeNotifier) UnknownFace(_ context.Context, pendingID, cameraID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pendingIDs = append(f.pendingIDs, pendingID)
	f.cameras = append(f.cameras, cameraID)
	return f.err
}

type fakeImageStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func (f *fakeImageStore) PutObject(_ context.Context, key string, data []byte, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects == nil {
		f.objects = make(map[string][]byte)
	}
	f.objects[key] = data
	return nil
}

type fakeSink struct {
	mu     sync.Mutex
	events []models.AccessEvent
}

func (f *fakeSink) Record(_ context.Context, ev models.AccessEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

func (f *fakeSink) recorded() []models.AccessEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.AccessEvent(nil), f.events...)
}

type deps struct {
	encoder  *fakeEncoder
	store    *approval.Store
	actuator *fakeActuator
	notifier *fakeNotifier
	images   *fakeImageStore
	sink     *fakeSink
}

func newTestEngine(enc *fakeEncoder, reg *registry.Registry) (*engine.Engine, *deps) {
	d := &deps{
		encoder:  enc,
		store:    approval.NewStore(5 * time.Minute),
		actuator: &fakeActuator{},
		notifier: &fakeNotifier{},
		images:   &fakeImageStore{},
		sink:     &fakeSink{},
	}
	eng := engine.New(enc, reg, d.store, d.actuator, d.notifier, d.images, d.sink, 0.5)
	return eng, d
}

func aliceRegistry() *registry.Registry {
	r := registry.New()
	r.Add("alice", []float32{1, 0, 0})
	return r
}

func TestDecide_KnownFaceOpensDoor(t *testing.T) {
	enc := &fakeEncoder{embeddings: [][]float32{{1, 0, 0}}}
	eng, d := newTestEngine(enc, aliceRegistry())

	decisions, err := eng.Decide(context.Background(), []byte("img"), "cam-1")
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if len(decisions) != 1 {
		t.Fatalf("expected 1 decision, got %d", len(decisions))
	}
	if decisions[0].Kind != engine.DecisionAuthorized {
		t.Fatalf("expected authorized, got %s", decisions[0].Kind)
	}
	if decisions[0].Identity.Name != "alice" {
		t.Errorf("expected identity alice, got %s", decisions[0].Identity.Name)
	}

	cmds := d.actuator.published()
	if len(cmds) != 1 || cmds[0].Payload() != "OPEN_DOOR" {
		t.Fatalf("expected one OPEN_DOOR command, got %v", cmds)
	}
	if n := len(d.store.Pending()); n != 0 {
		t.Errorf("authorized face must not create pending entries, got %d", n)
	}
	if n := len(d.notifier.pendingIDs); n != 0 {
		t.Errorf("authorized face must not notify, got %d notifications", n)
	}

	events := d.sink.recorded()
	if len(events) != 1 || events[0].Decision != models.DecisionAuthorized {
		t.Fatalf("expected one authorized audit event, got %+v", events)
	}
}

func TestDecide_UnknownFaceDefersToHuman(t *testing.T) {
	enc := &fakeEncoder{embeddings: [][]float32{{0, 1, 0}}}
	eng, d := newTestEngine(enc, aliceRegistry())

	decisions, err := eng.Decide(context.Background(), []byte("raw-jpeg"), "cam-1")
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if len(decisions) != 1 || decisions[0].Kind != engine.DecisionDeferred {
		t.Fatalf("expected one deferred decision, got %+v", decisions)
	}

	pendingID := decisions[0].PendingID
	if pendingID == "" {
		t.Fatal("deferred decision carries no pending id")
	}

	pending := d.store.Pending()
	if len(pending) != 1 || pending[0].ID != pendingID {
		t.Fatalf("expected one pending entry with id %s, got %+v", pendingID, pending)
	}

	if len(d.notifier.pendingIDs) != 1 || d.notifier.pendingIDs[0] != pendingID {
		t.Fatalf("notifier did not receive the pending id: %v", d.notifier.pendingIDs)
	}
	if d.notifier.cameras[0] != "cam-1" {
		t.Errorf("notifier got camera %q, want cam-1", d.notifier.cameras[0])
	}

	key := "unknown/" + pendingID + ".jpg"
	if string(d.images.objects[key]) != "raw-jpeg" {
		t.Errorf("audit image not saved under %s", key)
	}

	if len(d.actuator.published()) != 0 {
		t.Error("unknown face must not actuate anything")
	}
}

func TestDecide_NoFacesIsNoOp(t *testing.T) {
	enc := &fakeEncoder{embeddings: nil}
	eng, d := newTestEngine(enc, aliceRegistry())

	decisions, err := eng.Decide(context.Background(), []byte("img"), "cam-1")
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if len(decisions) != 0 {
		t.Fatalf("expected no decisions, got %d", len(decisions))
	}
	if len(d.actuator.published()) != 0 || len(d.sink.recorded()) != 0 {
		t.Error("no-face image must have no side effects")
	}
}

func TestDecide_MixedFaces(t *testing.T) {
	enc := &fakeEncoder{embeddings: [][]float32{{1, 0, 0}, {0, 1, 0}}}
	eng, d := newTestEngine(enc, aliceRegistry())

	decisions, err := eng.Decide(context.Background(), []byte("img"), "cam-1")
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if len(decisions) != 2 {
		t.Fatalf("expected 2 decisions, got %d", len(decisions))
	}
	if decisions[0].Kind != engine.DecisionAuthorized || decisions[1].Kind != engine.DecisionDeferred {
		t.Fatalf("expected authorized then deferred, got %s then %s", decisions[0].Kind, decisions[1].Kind)
	}
	if len(d.store.Pending()) != 1 {
		t.Errorf("expected 1 pending entry, got %d", len(d.store.Pending()))
	}
}

func TestDecide_NotifyFailureKeepsRequestPending(t *testing.T) {
	enc := &fakeEncoder{embeddings: [][]float32{{0, 1, 0}}}
	eng, d := newTestEngine(enc, aliceRegistry())
	d.notifier.err = errors.New("gateway down")

	decisions, err := eng.Decide(context.Background(), []byte("img"), "cam-1")
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if len(decisions) != 1 || decisions[0].Kind != engine.DecisionDeferred {
		t.Fatalf("expected a deferred decision, got %+v", decisions)
	}

	// The request must still be resolvable even though the approver was
	// never told about it.
	if _, err := d.store.Resolve(decisions[0].PendingID); err != nil {
		t.Fatalf("pending request lost after notify failure: %v", err)
	}
}

func TestDecide_ImageSaveFailureKeepsRequestPending(t *testing.T) {
	enc := &fakeEncoder{embeddings: [][]float32{{0, 1, 0}}}
	eng, d := newTestEngine(enc, aliceRegistry())
	d.images.err = errors.New("storage down")

	decisions, err := eng.Decide(context.Background(), []byte("img"), "cam-1")
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	req, ok := d.store.Get(decisions[0].PendingID)
	if !ok {
		t.Fatal("pending request lost after image save failure")
	}
	if req.ImageRef != "" {
		t.Errorf("image ref should be empty after a failed save, got %q", req.ImageRef)
	}
}

func TestHandleEvent_MalformedPayload(t *testing.T) {
	enc := &fakeEncoder{}
	eng, _ := newTestEngine(enc, aliceRegistry())

	err := eng.HandleEvent(context.Background(), dto.ImageEvent{
		Camera:      "cam-1",
		ImageBase64: "not base64!!!",
	})
	if err == nil {
		t.Fatal("expected an error for a malformed payload")
	}
}

func TestHandleEvent_DecodesBase64(t *testing.T) {
	enc := &fakeEncoder{embeddings: [][]float32{{1, 0, 0}}}
	eng, d := newTestEngine(enc, aliceRegistry())

	err := eng.HandleEvent(context.Background(), dto.ImageEvent{
		Camera:      "cam-1",
		ImageBase64: base64.StdEncoding.EncodeToString([]byte("jpeg-bytes")),
	})
	if err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(d.actuator.published()) != 1 {
		t.Fatal("expected the decoded image to flow through to an actuation")
	}
}
