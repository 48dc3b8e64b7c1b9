package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"spectrocheck/internal/config"
	"spectrocheck/internal/notifications"
)

type recordedRequest struct {
	title string
	tags  string
	body  string
}

func newRecordingServer(t *testing.T, requests *[]recordedRequest) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		*requests = append(*requests, recordedRequest{
			title: r.Header.Get("Title"),
			tags:  r.Header.Get("Tags"),
			body:  string(body),
		})
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server
}

func serviceFor(url string, failures, errors bool) notifications.Service {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = url
	cfg.Notifications.Failures = failures
	cfg.Notifications.Errors = errors
	return notifications.NewService(&cfg)
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyUpscaleDetected(context.Background(), "a.mp3", "reason"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNotifyUpscaleDetectedPublishes(t *testing.T) {
	var requests []recordedRequest
	server := newRecordingServer(t, &requests)
	svc := serviceFor(server.URL, true, true)

	if err := svc.NotifyUpscaleDetected(context.Background(), "track.mp3", "Actual bitrate 128 kbps below declared 320 kbps"); err != nil {
		t.Fatalf("NotifyUpscaleDetected: %v", err)
	}
	if len(requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(requests))
	}
	req := requests[0]
	if req.title != "Upscale detected" {
		t.Fatalf("unexpected title %q", req.title)
	}
	if req.tags != "warning" {
		t.Fatalf("unexpected tags %q", req.tags)
	}
	if !strings.Contains(req.body, "track.mp3") {
		t.Fatalf("expected file name in body, got %q", req.body)
	}
}

func TestNotifyUpscaleDetectedHonorsFailuresFlag(t *testing.T) {
	var requests []recordedRequest
	server := newRecordingServer(t, &requests)
	svc := serviceFor(server.URL, false, true)

	if err := svc.NotifyUpscaleDetected(context.Background(), "track.mp3", "reason"); err != nil {
		t.Fatalf("NotifyUpscaleDetected: %v", err)
	}
	if len(requests) != 0 {
		t.Fatalf("expected no requests when failures disabled, got %d", len(requests))
	}
}

func TestNotifyCheckErrorHonorsErrorsFlag(t *testing.T) {
	var requests []recordedRequest
	server := newRecordingServer(t, &requests)
	svc := serviceFor(server.URL, true, false)

	if err := svc.NotifyCheckError(context.Background(), "track.mp3", "ffprobe exploded"); err != nil {
		t.Fatalf("NotifyCheckError: %v", err)
	}
	if len(requests) != 0 {
		t.Fatalf("expected no requests when errors disabled, got %d", len(requests))
	}
}

func TestTestNotificationAlwaysPublishes(t *testing.T) {
	var requests []recordedRequest
	server := newRecordingServer(t, &requests)
	svc := serviceFor(server.URL, false, false)

	if err := svc.TestNotification(context.Background()); err != nil {
		t.Fatalf("TestNotification: %v", err)
	}
	if len(requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(requests))
	}
	if requests[0].tags != "white_check_mark" {
		t.Fatalf("unexpected tags %q", requests[0].tags)
	}
}

func TestPublishRejectsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	t.Cleanup(server.Close)
	svc := serviceFor(server.URL, true, true)

	err := svc.NotifyCheckError(context.Background(), "track.mp3", "reason")
	if err == nil || !strings.Contains(err.Error(), "notification rejected") {
		t.Fatalf("expected rejection error, got %v", err)
	}
}
