package actuate

import (
	"errors"
	"testing"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		action  string
		target  Target
		payload string
		wantErr bool
	}{
		{"open_door", TargetDoor, "OPEN_DOOR", false},
		{"open_locker", TargetLocker, "OPEN_LOCKER", false},
		{"open_window", "", "", true},
		{"OPEN_DOOR", "", "", true},
		{"", "", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.action, func(t *testing.T) {
			cmd, err := ParseAction(tc.action)
			if tc.wantErr {
				if !errors.Is(err, ErrUnknownAction) {
					t.Fatalf("expected ErrUnknownAction, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAction(%q): %v", tc.action, err)
			}
			if cmd.Target != tc.target {
				t.Errorf("target = %q; want %q", cmd.Target, tc.target)
			}
			if cmd.Payload() != tc.payload {
				t.Errorf("payload = %q; want %q", cmd.Payload(), tc.payload)
			}
		})
	}
}

type captureBus struct {
	subjects []string
	payloads []string
	err      error
}

func (b *captureBus) PublishCommand(subject string, payload []byte) error {
	b.subjects = append(b.subjects, subject)
	b.payloads = append(b.payloads, string(payload))
	return b.err
}

func TestPublisher_RoutesBySubject(t *testing.T) {
	bus := &captureBus{}
	p := NewPublisher(bus, "camera.command", "locker.command")

	if err := p.Publish(Command{Target: TargetDoor}); err != nil {
		t.Fatalf("Publish door: %v", err)
	}
	if err := p.Publish(Command{Target: TargetLocker}); err != nil {
		t.Fatalf("Publish locker: %v", err)
	}

	if bus.subjects[0] != "camera.command" || bus.payloads[0] != "OPEN_DOOR" {
		t.Errorf("door command misrouted: %s %s", bus.subjects[0], bus.payloads[0])
	}
	if bus.subjects[1] != "locker.command" || bus.payloads[1] != "OPEN_LOCKER" {
		t.Errorf("locker command misrouted: %s %s", bus.subjects[1], bus.payloads[1])
	}
}

func TestPublisher_SurfacesBusError(t *testing.T) {
	bus := &captureBus{err: errors.New("bus down")}
	p := NewPublisher(bus, "camera.command", "locker.command")

	if err := p.Publish(Command{Target: TargetDoor}); err == nil {
		t.Fatal("expected an error when the bus publish fails")
	}
}
