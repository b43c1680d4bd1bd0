package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gazette/internal/config"
)

const userAgent = "gazette/1.0"

// Event identifies a pipeline milestone worth notifying about.
type Event string

const (
	EventRunStarted        Event = "run_started"
	EventDocumentPublished Event = "document_published"
	EventDocumentFailed    Event = "document_failed"
	EventRunCompleted      Event = "run_completed"
	EventError             Event = "error"
	EventTest              Event = "test"
)

// Payload carries event-specific fields into the message formatter.
type Payload map[string]string

// Service is the notification surface exposed to the pipeline.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		enabled:  cfg.Notifications,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  config.Notifications
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if !n.eventEnabled(event) {
		return nil
	}
	data, ok := format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, data)
}

func (n *ntfyService) eventEnabled(event Event) bool {
	switch event {
	case EventRunStarted:
		return n.enabled.RunStarted
	case EventDocumentPublished:
		return n.enabled.DocumentPublished
	case EventDocumentFailed:
		return n.enabled.DocumentFailed
	case EventRunCompleted:
		return n.enabled.RunCompleted
	case EventError:
		return n.enabled.Errors
	case EventTest:
		return true
	default:
		return false
	}
}

func format(event Event, payload Payload) (message, bool) {
	get := func(key string) string { return strings.TrimSpace(payload[key]) }

	switch event {
	case EventRunStarted:
		return message{
			title: "Gazette - Run Started",
			body:  fmt.Sprintf("Found %s new documents", orUnknown(get("count"))),
			tags:  []string{"gazette", "run", "started"},
		}, true
	case EventDocumentPublished:
		body := fmt.Sprintf("Published: %s", orUnknown(get("title")))
		if dests := get("destinations"); dests != "" {
			body = fmt.Sprintf("%s\nDestinations: %s", body, dests)
		}
		return message{
			title: "Gazette - Published",
			body:  body,
			tags:  []string{"gazette", "document", "published"},
		}, true
	case EventDocumentFailed:
		return message{
			title:    "Gazette - Publish Failed",
			body:     fmt.Sprintf("Every destination failed for: %s", orUnknown(get("title"))),
			tags:     []string{"gazette", "document", "failed"},
			priority: "high",
		}, true
	case EventRunCompleted:
		published := orZero(get("published"))
		failed := orZero(get("failed"))
		duration := get("duration")
		if duration == "" {
			duration = "0s"
		}
		title := "Gazette - Run Complete"
		if failed != "0" {
			title = "Gazette - Run Complete (with errors)"
		}
		return message{
			title: title,
			body:  fmt.Sprintf("%s published, %s failed in %s", published, failed, duration),
			tags:  []string{"gazette", "run", "completed"},
		}, true
	case EventError:
		var builder strings.Builder
		builder.WriteString("Error")
		if label := get("context"); label != "" {
			builder.WriteString(" with ")
			builder.WriteString(label)
		}
		builder.WriteString(": ")
		if text := get("error"); text != "" {
			builder.WriteString(text)
		} else {
			builder.WriteString("unknown")
		}
		return message{
			title:    "Gazette - Error",
			body:     builder.String(),
			tags:     []string{"gazette", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "Gazette - Test",
			body:     "Notification system test",
			tags:     []string{"gazette", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func orUnknown(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

func orZero(value string) string {
	if value == "" {
		return "0"
	}
	return value
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }

// NewNop returns a Service that drops every event. Useful for tests and for
// callers that have no notifier wired.
func NewNop() Service { return noopService{} }
