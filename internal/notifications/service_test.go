package notifications_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"slidereel/internal/config"
	"slidereel/internal/notifications"
	"slidereel/internal/services"
)

type recordingSender struct {
	body, to, subject string
}

func (r *recordingSender) Send(_ context.Context, body, to, subject string) error {
	r.body, r.to, r.subject = body, to, subject
	return nil
}

func TestNewServiceReturnsNoopWithoutToken(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg, nil)
	if err := svc.NotifyFailed(context.Background(), notifications.Failure{ID: "x", To: "a@b.c"}); err != nil {
		t.Fatalf("expected noop to return nil, got %v", err)
	}
}

func TestCompletionEmailBody(t *testing.T) {
	sender := &recordingSender{}
	svc := notifications.NewEmailService(sender, nil)

	err := svc.NotifyCompleted(context.Background(), notifications.Completion{
		ID:          "ab12cd34",
		Name:        "Lesson 1",
		To:          "teacher@example.com",
		FullURL:     "https://bucket.s3.us-east-1.amazonaws.com/videos/full.mp4",
		ShortURL:    "https://bucket.s3.us-east-1.amazonaws.com/videos/short.mp4",
		Uploaded:    true,
		Images:      3,
		Audios:      3,
		RequestedAt: time.Date(2024, 10, 15, 10, 0, 0, 0, time.UTC),
		Elapsed:     150 * time.Second,
	})
	if err != nil {
		t.Fatalf("NotifyCompleted: %v", err)
	}
	if sender.subject != "Course Generation Complete ab12cd34" {
		t.Fatalf("unexpected subject %q", sender.subject)
	}
	if sender.to != "teacher@example.com" {
		t.Fatalf("unexpected recipient %q", sender.to)
	}
	for _, want := range []string{
		"Course videos are ready:",
		"ID ab12cd34 Lesson 1",
		`<a href="https://bucket.s3.us-east-1.amazonaws.com/videos/full.mp4">`,
		"Images items 3. Audio items 3.",
		"Tue, 15 Oct 2024 10:00:00 GMT",
		"150 seconds (2.5 minutes)",
	} {
		if !strings.Contains(sender.body, want) {
			t.Fatalf("body missing %q:\n%s", want, sender.body)
		}
	}
}

func TestCompletionEmailWithoutUpload(t *testing.T) {
	sender := &recordingSender{}
	svc := notifications.NewEmailService(sender, nil)
	if err := svc.NotifyCompleted(context.Background(), notifications.Completion{
		ID:          "id",
		To:          "x@example.com",
		FullKey:     "videos/full.mp4",
		ShortKey:    "videos/short.mp4",
		UploadError: "access denied",
	}); err != nil {
		t.Fatalf("NotifyCompleted: %v", err)
	}
	if strings.Contains(sender.body, "<a href") {
		t.Fatalf("expected no links when not uploaded:\n%s", sender.body)
	}
	if !strings.Contains(sender.body, "Videos were not uploaded: access denied.") {
		t.Fatalf("expected upload error in body:\n%s", sender.body)
	}
}

func TestFailureEmailEscapesMessage(t *testing.T) {
	sender := &recordingSender{}
	svc := notifications.NewEmailService(sender, nil)
	if err := svc.NotifyFailed(context.Background(), notifications.Failure{
		ID:   "id1",
		Name: "Lesson",
		To:   "x@example.com",
		Err:  errors.New("bad <input>"),
	}); err != nil {
		t.Fatalf("NotifyFailed: %v", err)
	}
	if sender.subject != "Course Generation ERROR" {
		t.Fatalf("unexpected subject %q", sender.subject)
	}
	if !strings.Contains(sender.body, "Some error happened. ID id1. Video &#34;Lesson&#34;") &&
		!strings.Contains(sender.body, `Some error happened. ID id1. Video "Lesson"`) {
		t.Fatalf("unexpected failure heading:\n%s", sender.body)
	}
	if !strings.Contains(sender.body, "bad &lt;input&gt;") {
		t.Fatalf("expected escaped error message:\n%s", sender.body)
	}
}

func TestPostmarkSenderRetriesOnce(t *testing.T) {
	var calls atomic.Int32
	var got map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Postmark-Server-Token") != "token" {
			t.Errorf("missing server token header")
		}
		if calls.Add(1) == 1 {
			http.Error(w, "try later", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := notifications.NewPostmarkSender(server.URL, "token", "noreply@example.com", server.Client())
	sender.Backoff = 0
	if err := sender.Send(context.Background(), "<p>hi</p>", "to@example.com", "Subject"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls.Load())
	}
	if got["From"] != "noreply@example.com" || got["To"] != "to@example.com" || got["HtmlBody"] != "<p>hi</p>" {
		t.Fatalf("unexpected payload %v", got)
	}
}

func TestPostmarkSenderGivesUp(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	sender := notifications.NewPostmarkSender(server.URL, "token", "from@example.com", server.Client())
	sender.Backoff = 0
	err := sender.Send(context.Background(), "body", "to@example.com", "s")
	if !errors.Is(err, services.ErrNotification) {
		t.Fatalf("expected ErrNotification, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected one retry, got %d calls", calls.Load())
	}
}
