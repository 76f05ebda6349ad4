package cloudinary

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(baseURL string) *Client {
	return &Client{
		httpClient: http.DefaultClient,
		baseURL:    baseURL,
		cloudName:  "testcloud",
		apiKey:     "key",
		apiSecret:  "shh",
	}
}

func TestSignIsDeterministicAndSorted(t *testing.T) {
	t.Parallel()

	client := newTestClient("http://unused")
	a := client.sign(map[string]string{"timestamp": "100", "folder": "elden-ring"})
	b := client.sign(map[string]string{"folder": "elden-ring", "timestamp": "100"})
	if a != b {
		t.Fatalf("signature should not depend on map order: %s vs %s", a, b)
	}
	if len(a) != 40 {
		t.Fatalf("expected sha1 hex signature, got %q", a)
	}
}

func TestUploadParsesResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/image/upload") {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if r.FormValue("folder") != "elden-ring" {
			t.Errorf("expected folder field, got %q", r.FormValue("folder"))
		}
		if r.FormValue("signature") == "" {
			t.Error("expected signature field")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"public_id":"elden-ring/cover","secure_url":"https://res.example/cover.png","format":"png","resource_type":"image","bytes":1234,"width":800,"height":600}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.Upload(context.Background(), UploadParams{
		Folder:   "elden-ring",
		FileName: "cover.png",
		Body:     strings.NewReader("fake-bytes"),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if result.PublicID != "elden-ring/cover" {
		t.Fatalf("unexpected public id %q", result.PublicID)
	}
	if result.Width != 800 || result.Height != 600 {
		t.Fatalf("unexpected dimensions %dx%d", result.Width, result.Height)
	}
}

func TestDestroyNotFound(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":"not found"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	err := client.Destroy(context.Background(), "missing/asset", "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteFolderNotEmpty(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("unexpected method %s", r.Method)
		}
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	err := client.DeleteFolder(context.Background(), "elden-ring")
	if !errors.Is(err, ErrFolderNotEmpty) {
		t.Fatalf("expected ErrFolderNotEmpty, got %v", err)
	}
}

func TestListSubFolders(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, pass, ok := r.BasicAuth(); !ok || user != "key" || pass != "shh" {
			t.Error("expected basic auth credentials")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"folders":[{"name":"elden-ring","path":"games/elden-ring"},{"name":"hades","path":"games/hades"}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	folders, err := client.ListSubFolders(context.Background(), "games")
	if err != nil {
		t.Fatalf("list sub folders: %v", err)
	}
	if len(folders) != 2 || folders[0] != "games/elden-ring" || folders[1] != "games/hades" {
		t.Fatalf("unexpected folders %v", folders)
	}
}
