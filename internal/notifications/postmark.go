package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"slidereel/internal/services"
)

const userAgent = "slidereel/1.0"

// Sender delivers one rendered HTML email.
type Sender interface {
	Send(ctx context.Context, htmlBody, to, subject string) error
}

// PostmarkSender posts messages to the Postmark email API.
type PostmarkSender struct {
	APIURL  string
	Token   string
	From    string
	Retries int
	Backoff time.Duration
	client  *http.Client
}

// NewPostmarkSender constructs a sender. A nil client uses http.DefaultClient.
func NewPostmarkSender(apiURL, token, from string, client *http.Client) *PostmarkSender {
	if client == nil {
		client = http.DefaultClient
	}
	return &PostmarkSender{
		APIURL:  apiURL,
		Token:   token,
		From:    from,
		Retries: 1,
		Backoff: 500 * time.Millisecond,
		client:  client,
	}
}

type postmarkMessage struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
}

// Send attempts delivery 1+Retries times.
func (p *PostmarkSender) Send(ctx context.Context, htmlBody, to, subject string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return services.Wrap(services.ErrNotification, "notify", "send email", "no recipient address", nil)
	}
	payload, err := json.Marshal(postmarkMessage{From: p.From, To: to, Subject: subject, HtmlBody: htmlBody})
	if err != nil {
		return fmt.Errorf("encode postmark message: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= max(p.Retries, 0); attempt++ {
		if attempt > 0 && p.Backoff > 0 {
			select {
			case <-ctx.Done():
				return services.Wrap(services.ErrNotification, "notify", "send email", "", ctx.Err())
			case <-time.After(p.Backoff):
			}
		}
		if lastErr = p.post(ctx, payload); lastErr == nil {
			return nil
		}
	}
	return services.Wrap(services.ErrNotification, "notify", "send email",
		fmt.Sprintf("postmark delivery to %s failed", to), lastErr)
}

func (p *PostmarkSender) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.APIURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build postmark request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Postmark-Server-Token", p.Token)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("send postmark request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("postmark returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
