package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Client talks to a running daemon over HTTP.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient builds a client for bind, which may be a host:port pair or a
// full URL. An empty token disables the Authorization header.
func NewClient(bind, token string) *Client {
	base := strings.TrimRight(strings.TrimSpace(bind), "/")
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &Client{
		baseURL: base,
		token:   strings.TrimSpace(token),
		http:    &http.Client{Timeout: 5 * time.Minute},
	}
}

// UploadOptions mirrors the optional upload form fields.
type UploadOptions struct {
	To         string
	SkipUpload bool
	LowRes     bool
	NoEmail    bool
}

// Upload submits the archive at path and returns the assigned job id.
func (c *Client) Upload(ctx context.Context, path string, opts UploadOptions) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	fields := [][2]string{
		{FieldTo, opts.To},
		{FieldSkipS3, strconv.FormatBool(opts.SkipUpload)},
		{FieldIs720p, strconv.FormatBool(opts.LowRes)},
		{FieldNoEmail, strconv.FormatBool(opts.NoEmail)},
	}
	for _, f := range fields {
		if err := form.WriteField(f[0], f[1]); err != nil {
			return "", fmt.Errorf("write form field %s: %w", f[0], err)
		}
	}
	part, err := form.CreateFormFile(FieldFile, filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("copy archive: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("close form: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/video/upload", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	var resp UploadResponse
	if err := c.do(req, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// IsBusy reports whether the daemon is currently generating a job.
func (c *Client) IsBusy(ctx context.Context) (bool, error) {
	var resp BusyResponse
	if err := c.get(ctx, "/video/is-busy", &resp); err != nil {
		return false, err
	}
	return resp.Status, nil
}

// Status returns the status string for id.
func (c *Client) Status(ctx context.Context, id string) (string, error) {
	var resp StatusResponse
	if err := c.get(ctx, "/video/status?id="+url.QueryEscape(id), &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// StatusAll returns every known job.
func (c *Client) StatusAll(ctx context.Context) ([]JobStatus, error) {
	var resp StatusAllResponse
	if err := c.get(ctx, "/video/status-all", &resp); err != nil {
		return nil, err
	}
	return resp.Statuses, nil
}

// Health returns the daemon runtime summary.
func (c *Client) Health(ctx context.Context) (DaemonStatus, error) {
	var resp DaemonStatus
	err := c.get(ctx, "/health", &resp)
	return resp, err
}

// Ping checks that the daemon answers.
func (c *Client) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/ping", nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// TestNotification asks the daemon to email to.
func (c *Client) TestNotification(ctx context.Context, to string) (TestNotifyResponse, error) {
	payload, err := json.Marshal(TestNotifyRequest{To: to})
	if err != nil {
		return TestNotifyResponse{}, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/notify/test", bytes.NewReader(payload))
	if err != nil {
		return TestNotifyResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	var resp TestNotifyResponse
	err = c.do(req, &resp)
	return resp, err
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+DefaultPrefix+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("daemon returned %d", e.Code)
	}
	return fmt.Sprintf("daemon returned %d: %s", e.Code, e.Message)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("connect to daemon: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload ErrorResponse
		if json.Unmarshal(data, &payload) != nil || payload.Message == "" {
			payload.Message = strings.TrimSpace(string(data))
		}
		return &StatusError{Code: resp.StatusCode, Message: payload.Message}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// IsStatus reports whether err is a StatusError carrying code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}
