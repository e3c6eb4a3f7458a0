package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"slidereel/internal/config"
	"slidereel/internal/logging"
)

// Completion describes a finished job for the success email.
type Completion struct {
	ID          string
	Name        string
	To          string
	FullURL     string
	ShortURL    string
	FullKey     string
	ShortKey    string
	Uploaded    bool
	UploadError string
	Images      int
	Audios      int
	RequestedAt time.Time
	Elapsed     time.Duration
}

// Failure describes a job that did not produce videos.
type Failure struct {
	ID   string
	Name string
	To   string
	Err  error
}

// Service is the notification surface used by the queue.
type Service interface {
	NotifyCompleted(ctx context.Context, c Completion) error
	NotifyFailed(ctx context.Context, f Failure) error
	TestNotification(ctx context.Context, to string) error
}

// NewService builds a Postmark-backed service. When no server token is
// configured a noop implementation is returned.
func NewService(cfg *config.Config, logger *slog.Logger) Service {
	if cfg == nil || strings.TrimSpace(cfg.Notifications.PostmarkToken) == "" {
		return noopService{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	sender := NewPostmarkSender(
		cfg.Notifications.APIURL,
		cfg.Notifications.PostmarkToken,
		cfg.Notifications.From,
		&http.Client{Timeout: timeout},
	)
	sender.Retries = cfg.Notifications.Retries
	return NewEmailService(sender, logger)
}

// NewEmailService renders job emails and hands them to sender.
func NewEmailService(sender Sender, logger *slog.Logger) Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &emailService{sender: sender, logger: logging.NewComponentLogger(logger, "notifications")}
}

type emailService struct {
	sender Sender
	logger *slog.Logger
}

func (s *emailService) NotifyCompleted(ctx context.Context, c Completion) error {
	body, err := renderCompletion(c)
	if err != nil {
		return err
	}
	s.logger.Info("sending completion email", logging.String("to", c.To), logging.String(logging.FieldJobID, c.ID))
	return s.sender.Send(ctx, body, c.To, "Course Generation Complete "+c.ID)
}

func (s *emailService) NotifyFailed(ctx context.Context, f Failure) error {
	body, err := renderFailure(f)
	if err != nil {
		return err
	}
	s.logger.Info("sending failure email", logging.String("to", f.To), logging.String(logging.FieldJobID, f.ID))
	return s.sender.Send(ctx, body, f.To, "Course Generation ERROR")
}

func (s *emailService) TestNotification(ctx context.Context, to string) error {
	return s.sender.Send(ctx, "<html><body><strong>slidereel notification test</strong></body></html>", to, "slidereel test")
}

type noopService struct{}

func (noopService) NotifyCompleted(context.Context, Completion) error { return nil }
func (noopService) NotifyFailed(context.Context, Failure) error       { return nil }
func (noopService) TestNotification(context.Context, string) error    { return nil }

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

func formatElapsed(d time.Duration) string {
	seconds := d.Seconds()
	return fmt.Sprintf("%g seconds (%g minutes)", roundTo(seconds, 0), roundTo(seconds/60, 1))
}
