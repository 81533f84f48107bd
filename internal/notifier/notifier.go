package notifier

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Notifier delivers formatted alert text to a chat channel.
type Notifier interface {
	Send(text string) error
	Name() string
}

// SendWithRetry sends through any Notifier with exponential backoff.
func SendWithRetry(ctx context.Context, n Notifier, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if err := n.Send(text); err != nil {
			lastErr = err
			backoff := time.Duration(1<<uint(i)) * time.Second
			log.Printf("[WARN] %s send failed (attempt %d/%d): %v, retrying in %v", n.Name(), i+1, maxRetries+1, err, backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				continue
			}
		}
		return nil
	}
	return fmt.Errorf("all %d retries exhausted: %w", maxRetries+1, lastErr)
}

// MultiNotifier fans a message out to every configured channel.
type MultiNotifier struct {
	Channels []Notifier
}

func (m *MultiNotifier) Name() string { return "multi" }

// Send delivers to every channel, returning the last error seen so a
// single dead channel doesn't silence the rest.
func (m *MultiNotifier) Send(text string) error {
	var lastErr error
	for _, ch := range m.Channels {
		if err := ch.Send(text); err != nil {
			log.Printf("[ERROR] %s send failed: %v", ch.Name(), err)
			lastErr = err
		}
	}
	return lastErr
}
