// Package notify sends out-of-band alerts to the human approver.
// Delivery is best-effort: a lost notification never invalidates the
// pending request it refers to.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/AymenENSI/Secure-Entry/internal/config"
)

// Dispatcher posts WhatsApp messages through an HTTP gateway.
type Dispatcher struct {
	client     *http.Client
	gatewayURL string
	token      string
	from       string
	recipient  string
}

func NewDispatcher(cfg config.NotifyConfig) *Dispatcher {
	return &Dispatcher{
		client:     &http.Client{Timeout: 10 * time.Second},
		gatewayURL: cfg.GatewayURL,
		token:      cfg.Token,
		from:       cfg.From,
		recipient:  cfg.Recipient,
	}
}

type gatewayMessage struct {
	From string `json:"from"`
	To   string `json:"to"`
	Body string `json:"body"`
}

// UnknownFace alerts the approver that an unidentified person was seen,
// including the pending id they need to approve the request.
func (d *Dispatcher) UnknownFace(ctx context.Context, pendingID, cameraID string) error {
	body := fmt.Sprintf(
		"Visage inconnu détecté (caméra %s). ID: %s. Répondez via l'application pour autoriser l'ouverture.",
		cameraID, pendingID,
	)
	return d.send(ctx, body)
}

func (d *Dispatcher) send(ctx context.Context, body string) error {
	if d.gatewayURL == "" {
		slog.Warn("notification gateway not configured, dropping message")
		return nil
	}

	payload, err := json.Marshal(gatewayMessage{From: d.from, To: d.recipient, Body: body})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.gatewayURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if d.token != "" {
		req.Header.Set("Authorization", "Bearer "+d.token)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification gateway returned %d", resp.StatusCode)
	}

	slog.Info("notification sent", "to", d.recipient)
	return nil
}
