package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
)

var completionTemplate = template.Must(template.New("completion").Parse(
	`<html><body><strong>Course videos are ready:</strong><br><br>ID {{.ID}} {{.Name}}<br><br>` +
		`{{if .Uploaded}}Full video <a href="{{.FullURL}}">{{.FullURL}}</a><br>Short video <a href="{{.ShortURL}}">{{.ShortURL}}</a>` +
		`{{else}}Full video {{.FullKey}}<br>Short video {{.ShortKey}}<br>Videos were not uploaded{{with .UploadError}}: {{.}}{{end}}.{{end}}` +
		`<br><br>Images items {{.Images}}. Audio items {{.Audios}}.<br><br>` +
		`Generation requested at {{.RequestedLocal}} ({{.RequestedUTC}}).<br>The video was generating {{.Elapsed}}</body></html>`))

var failureTemplate = template.Must(template.New("failure").Parse(
	`<html><body><strong>Some error happened. ID {{.ID}}. Video "{{.Name}}"</strong><br><br>Error: {{.Message}}</body></html>`))

func renderCompletion(c Completion) (string, error) {
	view := struct {
		Completion
		RequestedLocal string
		RequestedUTC   string
		Elapsed        string
	}{
		Completion:     c,
		RequestedLocal: c.RequestedAt.Local().Format("1/2/2006, 3:04:05 PM"),
		RequestedUTC:   c.RequestedAt.UTC().Format(http.TimeFormat),
		Elapsed:        formatElapsed(c.Elapsed),
	}
	var buf bytes.Buffer
	if err := completionTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render completion email: %w", err)
	}
	return buf.String(), nil
}

func renderFailure(f Failure) (string, error) {
	message := "unknown error"
	if f.Err != nil {
		message = f.Err.Error()
	}
	view := struct {
		ID, Name, Message string
	}{f.ID, f.Name, message}
	var buf bytes.Buffer
	if err := failureTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render failure email: %w", err)
	}
	return buf.String(), nil
}
