// Package notify posts trade lifecycle events to an optional webhook.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Webhook posts JSON events to a single URL. An empty URL disables the
// notifier; Send becomes a no-op so callers never have to branch.
type Webhook struct {
	url    string
	client *http.Client
}

func NewWebhook(url string) *Webhook {
	return &Webhook{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether a webhook URL is configured.
func (w *Webhook) Enabled() bool { return w.url != "" }

// Send posts one event. Delivery failures are logged and returned but must
// never interrupt the trading cycle; callers ignore the error by convention.
func (w *Webhook) Send(event, text string) error {
	if !w.Enabled() {
		return nil
	}

	payload := map[string]string{
		"event":     event,
		"text":      text,
		"timestamp": time.Now().Format(time.RFC3339),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := w.client.Post(w.url, "application/json", bytes.NewBuffer(body))
	if err != nil {
		log.Printf("[NOTIFY] Webhook delivery failed: %v", err)
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		err := fmt.Errorf("webhook returned status %d", resp.StatusCode)
		log.Printf("[NOTIFY] %v", err)
		return err
	}
	return nil
}
