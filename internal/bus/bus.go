// Package bus wraps the NATS connection used for camera image ingestion
// and actuation command delivery. Image events arrive on a JetStream
// work queue so a burst of captures survives a short worker stall;
// actuation commands go out over core NATS, fire-and-forget.
package bus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	ImagesStreamName = "CAMERA_IMAGES"
)

type MessageHandler func(ctx context.Context, msg jetstream.Msg) error

type Conn struct {
	nc           *nats.Conn
	js           jetstream.JetStream
	imageSubject string
}

func Connect(natsURL, imageSubject string) (*Conn, error) {
	nc, err := nats.Connect(natsURL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}

	return &Conn{nc: nc, js: js, imageSubject: imageSubject}, nil
}

// EnsureStream creates the image-event stream if it doesn't exist.
// Retries up to 30 times (1s apart) to handle NATS startup delay.
func (c *Conn) EnsureStream(ctx context.Context) error {
	cfg := jetstream.StreamConfig{
		Name:        ImagesStreamName,
		Subjects:    []string{c.imageSubject},
		Retention:   jetstream.WorkQueuePolicy,
		MaxAge:      5 * time.Minute,
		MaxMsgs:     10000,
		MaxBytes:    1 * 1024 * 1024 * 1024, // 1GB
		Storage:     jetstream.FileStorage,
		Discard:     jetstream.DiscardOld,
		Description: "Camera image events awaiting authorization decisions",
	}

	const maxAttempts = 30
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		opCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		_, err := c.js.CreateOrUpdateStream(opCtx, cfg)
		cancel()
		if err == nil {
			slog.Info("ensured NATS stream", "name", cfg.Name)
			return nil
		}
		if attempt == maxAttempts {
			return fmt.Errorf("create stream %s: %w (after %d attempts)", cfg.Name, err, maxAttempts)
		}
		slog.Warn("ensure NATS stream (retrying...)", "name", cfg.Name, "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(1 * time.Second):
		}
	}
	return nil
}

// ConsumeImages starts consuming camera image events.
// workerCount determines how many goroutines process messages concurrently.
func (c *Conn) ConsumeImages(ctx context.Context, consumerName string, handler MessageHandler, workerCount int) error {
	stream, err := c.js.Stream(ctx, ImagesStreamName)
	if err != nil {
		return fmt.Errorf("get stream %s: %w", ImagesStreamName, err)
	}

	cons, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Name:          consumerName,
		Durable:       consumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       30 * time.Second,
		MaxDeliver:    3,
		FilterSubject: c.imageSubject,
	})
	if err != nil {
		return fmt.Errorf("create consumer %s: %w", consumerName, err)
	}

	msgCh := make(chan jetstream.Msg, workerCount*2)

	go func() {
		for {
			select {
			case <-ctx.Done():
				close(msgCh)
				return
			default:
			}

			batch, err := cons.Fetch(workerCount, jetstream.FetchMaxWait(5*time.Second))
			if err != nil {
				if ctx.Err() != nil {
					close(msgCh)
					return
				}
				slog.Warn("fetch image events error", "error", err)
				time.Sleep(time.Second)
				continue
			}

			for msg := range batch.Messages() {
				select {
				case msgCh <- msg:
				case <-ctx.Done():
					close(msgCh)
					return
				}
			}
		}
	}()

	for i := 0; i < workerCount; i++ {
		go func(workerID int) {
			for msg := range msgCh {
				if err := handler(ctx, msg); err != nil {
					slog.Error("process image event error", "worker", workerID, "error", err, "subject", msg.Subject())
					_ = msg.Nak()
				} else {
					_ = msg.Ack()
				}
			}
		}(i)
	}

	slog.Info("image consumer started", "consumer", consumerName, "workers", workerCount)
	return nil
}

// PublishCommand publishes an actuation command via core NATS.
// The actuator only cares about the latest command, so there is no
// point persisting these in a stream.
func (c *Conn) PublishCommand(subject string, payload []byte) error {
	return c.nc.Publish(subject, payload)
}

func (c *Conn) Ping() error {
	if !c.nc.IsConnected() {
		return fmt.Errorf("nats not connected")
	}
	return nil
}

func (c *Conn) Close() {
	c.nc.Close()
}
