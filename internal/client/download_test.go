package client

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
)

// TestFilenameFromDisposition covers the RFC 5987 extended-value form the
// backend emits, including non-ASCII names
func TestFilenameFromDisposition(t *testing.T) {
	testCases := []struct {
		name   string
		header string
		want   string
	}{
		{
			name:   "ascii name",
			header: "attachment; filename*=UTF-8''result.zip",
			want:   "result.zip",
		},
		{
			name:   "percent-encoded japanese name",
			header: "attachment; filename*=UTF-8''%E3%83%86%E3%82%B9%E3%83%88%E4%BB%95%E6%A7%98%E6%9B%B8.zip",
			want:   "テスト仕様書.zip",
		},
		{
			name:   "plus sign survives decoding",
			header: "attachment; filename*=UTF-8''a+b.zip",
			want:   "a+b.zip",
		},
		{
			name:   "missing header falls back",
			header: "",
			want:   DefaultResultFilename,
		},
		{
			name:   "plain filename parameter falls back",
			header: `attachment; filename="result.zip"`,
			want:   DefaultResultFilename,
		},
		{
			name:   "malformed percent encoding falls back",
			header: "attachment; filename*=UTF-8''%ZZ.zip",
			want:   DefaultResultFilename,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := FilenameFromDisposition(tc.header)
			if got != tc.want {
				t.Errorf("FilenameFromDisposition(%q) = %q, want %q", tc.header, got, tc.want)
			}
		})
	}
}

func TestDownload(t *testing.T) {
	body := []byte("zip-bytes")
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/download/job-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", "attachment; filename*=UTF-8''%E3%83%86%E3%82%B9%E3%83%88%E4%BB%95%E6%A7%98%E6%9B%B8.zip")
		w.Write(body)
	}))
	defer srv.Close()

	result, err := c.Download(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("Download() error: %v", err)
	}
	if result.Filename != "テスト仕様書.zip" {
		t.Errorf("Filename = %q", result.Filename)
	}
	if !bytes.Equal(result.Data, body) {
		t.Errorf("Data = %q, want %q", result.Data, body)
	}
}

func TestDownloadErrorSurfacesBody(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"result not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := c.Download(context.Background(), "missing")
	if err == nil {
		t.Fatal("Download() expected error")
	}
}

func TestSaveTo(t *testing.T) {
	dir := t.TempDir()
	result := &DownloadResult{Filename: "テスト仕様書.zip", Data: []byte("content")}

	path, err := result.SaveTo(dir)
	if err != nil {
		t.Fatalf("SaveTo() error: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("SaveTo() wrote outside dir: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read saved file: %v", err)
	}
	if string(data) != "content" {
		t.Errorf("saved content = %q", data)
	}
}

// SaveTo must not let a server-supplied name escape the target directory.
func TestSaveToStripsPathComponents(t *testing.T) {
	dir := t.TempDir()
	result := &DownloadResult{Filename: "../escape.zip", Data: []byte("x")}

	path, err := result.SaveTo(dir)
	if err != nil {
		t.Fatalf("SaveTo() error: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("SaveTo() escaped the output directory: %s", path)
	}
}
