package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestClientUploadSendsFormFields(t *testing.T) {
	var got map[string]string
	var fileName, fileBody, auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/video/upload" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		auth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		got = map[string]string{}
		for _, key := range []string{FieldTo, FieldSkipS3, FieldIs720p, FieldNoEmail} {
			got[key] = r.FormValue(key)
		}
		file, header, err := r.FormFile(FieldFile)
		if err == nil {
			data, _ := io.ReadAll(file)
			fileBody = string(data)
			fileName = header.Filename
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(UploadResponse{ID: "abc12345"})
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "course.zip")
	if err := os.WriteFile(path, []byte("zip-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	client := NewClient(srv.URL, "tok")
	id, err := client.Upload(context.Background(), path, UploadOptions{To: "a@example.com", LowRes: true})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if id != "abc12345" {
		t.Fatalf("unexpected id %q", id)
	}
	if auth != "Bearer tok" {
		t.Fatalf("unexpected auth header %q", auth)
	}
	want := map[string]string{FieldTo: "a@example.com", FieldSkipS3: "false", FieldIs720p: "true", FieldNoEmail: "false"}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("field %s = %q, want %q", k, got[k], v)
		}
	}
	if fileName != "course.zip" || fileBody != "zip-bytes" {
		t.Fatalf("unexpected file %q %q", fileName, fileBody)
	}
}

func TestClientSurfacesErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Message: "File was not provided"})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").Status(context.Background(), "x")
	if !IsStatus(err, http.StatusBadRequest) {
		t.Fatalf("expected 400 status error, got %v", err)
	}
	if err.Error() != "daemon returned 400: File was not provided" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestNewClientAddsScheme(t *testing.T) {
	c := NewClient("127.0.0.1:7610/", "")
	if c.baseURL != "http://127.0.0.1:7610" {
		t.Fatalf("unexpected base url %q", c.baseURL)
	}
}
