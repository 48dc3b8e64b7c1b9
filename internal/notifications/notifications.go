package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"spectrocheck/internal/config"
)

// Service delivers user-facing notifications about check outcomes.
type Service interface {
	NotifyUpscaleDetected(ctx context.Context, file, reason string) error
	NotifyCheckError(ctx context.Context, file, reason string) error
	TestNotification(ctx context.Context) error
}

type ntfyService struct {
	topicURL string
	failures bool
	errors   bool
	client   *http.Client
}

// NewService builds a Service from configuration. An empty topic yields a
// no-op service so callers never need to nil-check.
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
		topicURL: topic,
		failures: cfg.Notifications.Failures,
		errors:   cfg.Notifications.Errors,
		client:   &http.Client{Timeout: timeout},
	}
}

func (s *ntfyService) NotifyUpscaleDetected(ctx context.Context, file, reason string) error {
	if !s.failures {
		return nil
	}
	message := fmt.Sprintf("Possible upscale: %s\n%s", file, reason)
	return s.publish(ctx, "Upscale detected", message, "warning")
}

func (s *ntfyService) NotifyCheckError(ctx context.Context, file, reason string) error {
	if !s.errors {
		return nil
	}
	message := fmt.Sprintf("Check failed for %s\n%s", file, reason)
	return s.publish(ctx, "Check error", message, "rotating_light")
}

func (s *ntfyService) TestNotification(ctx context.Context) error {
	return s.publish(ctx, "Test notification", "Notifications are configured correctly.", "white_check_mark")
}

func (s *ntfyService) publish(ctx context.Context, title, message, tags string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.topicURL, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Title", title)
	req.Header.Set("Tags", tags)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification rejected: %s", resp.Status)
	}
	return nil
}

type noopService struct{}

func (noopService) NotifyUpscaleDetected(context.Context, string, string) error { return nil }
func (noopService) NotifyCheckError(context.Context, string, string) error      { return nil }
func (noopService) TestNotification(context.Context) error                      { return nil }

// NewNoop returns a Service that discards everything. Useful in tests.
func NewNoop() Service { return noopService{} }
