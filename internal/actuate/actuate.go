// Package actuate translates authorization decisions into the plain
// string commands the physical actuators listen for.
package actuate

import (
	"errors"
	"fmt"
	"log/slog"
)

// Target is the physical device a command is addressed to.
type Target string

const (
	TargetDoor   Target = "door"
	TargetLocker Target = "locker"
)

// Command is an ephemeral actuation instruction.
type Command struct {
	Target Target
}

// Payload returns the wire payload the actuator firmware expects.
func (c Command) Payload() string {
	if c.Target == TargetLocker {
		return "OPEN_LOCKER"
	}
	return "OPEN_DOOR"
}

// ErrUnknownAction is returned for approval actions outside the
// recognized set.
var ErrUnknownAction = errors.New("actuate: unknown action")

// ParseAction maps an approval action string to a command.
func ParseAction(action string) (Command, error) {
	switch action {
	case "open_door":
		return Command{Target: TargetDoor}, nil
	case "open_locker":
		return Command{Target: TargetLocker}, nil
	}
	return Command{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
}

// CommandBus publishes raw command payloads to a subject.
type CommandBus interface {
	PublishCommand(subject string, payload []byte) error
}

// Publisher is a stateless façade over the message bus. Publishing is
// fire-and-forget; the actuator missing a command is an operational
// concern, not ours.
type Publisher struct {
	bus           CommandBus
	cameraSubject string
	lockerSubject string
}

func NewPublisher(bus CommandBus, cameraSubject, lockerSubject string) *Publisher {
	return &Publisher{
		bus:           bus,
		cameraSubject: cameraSubject,
		lockerSubject: lockerSubject,
	}
}

// Publish sends the command to the subject matching its target.
// Failures are logged and returned as non-fatal warnings; callers must
// not abort their pipeline on them.
func (p *Publisher) Publish(cmd Command) error {
	subject := p.cameraSubject
	if cmd.Target == TargetLocker {
		subject = p.lockerSubject
	}

	if err := p.bus.PublishCommand(subject, []byte(cmd.Payload())); err != nil {
		slog.Warn("publish actuation command", "subject", subject, "payload", cmd.Payload(), "error", err)
		return fmt.Errorf("publish %s to %s: %w", cmd.Payload(), subject, err)
	}

	slog.Info("published actuation command", "subject", subject, "payload", cmd.Payload())
	return nil
}
