package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/takumi/specgen/internal/config"
	"github.com/takumi/specgen/internal/domain"
	"github.com/takumi/specgen/internal/logger"
	"github.com/takumi/specgen/internal/pipeline"
	"github.com/takumi/specgen/internal/repository"
	"github.com/takumi/specgen/internal/storage"
)

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	db, err := repository.InitDB(&config.DatabaseConfig{
		Driver:       "sqlite",
		Path:         filepath.Join(t.TempDir(), "test.db"),
		AutoMigrate:  true,
		MaxIdleConns: 1,
		MaxOpenConns: 1,
	})
	if err != nil {
		t.Fatalf("failed to initialize database: %v", err)
	}

	repo := repository.NewJobRepository(db)
	store := storage.NewFSStorage(t.TempDir())

	runner := pipeline.NewRunner(repo, store, &config.PipelineConfig{
		StageDuration: time.Millisecond,
		Model:         "claude-haiku-4-5",
	}, nil)

	return SetupRouter(repo, store, runner, &config.ServerConfig{Mode: "test"}, logger.New(nil))
}

func multipartBody(t *testing.T, files map[string][]string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for field, names := range files {
		for _, name := range names {
			fw, err := mw.CreateFormFile(field, name)
			if err != nil {
				t.Fatalf("failed to create form file: %v", err)
			}
			fw.Write([]byte("content of " + name))
		}
	}
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func doRequest(router *gin.Engine, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func submitJob(t *testing.T, router *gin.Engine) string {
	t.Helper()

	body, contentType := multipartBody(t,
		map[string][]string{"documentFiles": {"design.xlsx"}},
		map[string]string{"granularity": "simple"},
	)
	w := doRequest(router, http.MethodPost, "/api/upload", body, contentType)
	if w.Code != http.StatusAccepted {
		t.Fatalf("upload returned %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("upload response is not JSON: %v", err)
	}
	if resp.ID == "" {
		t.Fatal("upload response has no id")
	}
	return resp.ID
}

func waitForCompletion(t *testing.T, router *gin.Engine, id string) domain.StatusResponse {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		w := doRequest(router, http.MethodGet, "/api/status/"+id, nil, "")
		if w.Code != http.StatusOK {
			t.Fatalf("status returned %d: %s", w.Code, w.Body.String())
		}
		var status domain.StatusResponse
		if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
			t.Fatalf("status response is not JSON: %v", err)
		}
		if status.RuntimeStatus.IsTerminal() {
			return status
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job did not reach a terminal state")
	return domain.StatusResponse{}
}

func TestUploadToDownloadFlow(t *testing.T) {
	router := setupTestRouter(t)

	id := submitJob(t, router)
	status := waitForCompletion(t, router, id)

	if status.RuntimeStatus != domain.StatusCompleted {
		t.Fatalf("job finished as %s", status.RuntimeStatus)
	}
	if status.Output == nil || status.Output.Filename != pipeline.NormalResultFilename {
		t.Fatalf("output = %+v", status.Output)
	}
	if status.CreatedTime == "" || status.LastUpdatedTime == "" {
		t.Errorf("timestamps missing: %+v", status)
	}

	w := doRequest(router, http.MethodGet, "/api/download/"+id, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("download returned %d: %s", w.Code, w.Body.String())
	}
	disposition := w.Header().Get("Content-Disposition")
	if !strings.Contains(disposition, "filename*=UTF-8''") {
		t.Errorf("Content-Disposition = %q, want RFC 5987 form", disposition)
	}
	if !strings.HasPrefix(w.Body.String(), "PK") {
		t.Error("download body is not a zip archive")
	}
}

func TestStatusReportsProgressSnapshot(t *testing.T) {
	router := setupTestRouter(t)

	id := submitJob(t, router)
	status := waitForCompletion(t, router, id)

	if status.CustomStatus == nil {
		t.Fatal("customStatus missing")
	}
	if status.CustomStatus.Stage != domain.StageCompleted {
		t.Errorf("final stage = %s, want completed", status.CustomStatus.Stage)
	}
	if status.CustomStatus.Progress != 100 {
		t.Errorf("final progress = %d, want 100", status.CustomStatus.Progress)
	}
	if status.CustomStatus.Timestamp == "" {
		t.Error("snapshot timestamp missing")
	}
}

func TestListResultsAndDelete(t *testing.T) {
	router := setupTestRouter(t)

	id := submitJob(t, router)
	waitForCompletion(t, router, id)

	w := doRequest(router, http.MethodGet, "/api/list-results", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("list-results returned %d", w.Code)
	}
	var entries []domain.HistoryEntry
	if err := json.Unmarshal(w.Body.Bytes(), &entries); err != nil {
		t.Fatalf("list-results response is not JSON: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("list-results returned %d entries, want 1", len(entries))
	}
	entry := entries[0]
	if entry.InstanceID != id {
		t.Errorf("entry id = %s, want %s", entry.InstanceID, id)
	}
	if entry.Filename != pipeline.NormalResultFilename {
		t.Errorf("entry filename = %s", entry.Filename)
	}
	if entry.SeqNumber != "1" {
		t.Errorf("entry seq = %s, want 1", entry.SeqNumber)
	}
	if entry.TokenStats == nil || entry.TokenStats.TotalInputTokens <= 0 {
		t.Errorf("entry token stats = %+v", entry.TokenStats)
	}

	w = doRequest(router, http.MethodDelete, "/api/delete/"+id, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete returned %d: %s", w.Code, w.Body.String())
	}

	// Deleting again reports not found.
	w = doRequest(router, http.MethodDelete, "/api/delete/"+id, nil, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete returned %d, want 404", w.Code)
	}

	// The record is gone from status and download too.
	w = doRequest(router, http.MethodGet, "/api/status/"+id, nil, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status after delete returned %d, want 404", w.Code)
	}
	w = doRequest(router, http.MethodGet, "/api/download/"+id, nil, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("download after delete returned %d, want 404", w.Code)
	}
}

func TestUploadRejectsEmptySubmission(t *testing.T) {
	router := setupTestRouter(t)

	body, contentType := multipartBody(t, nil, map[string]string{"granularity": "simple"})
	w := doRequest(router, http.MethodPost, "/api/upload", body, contentType)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("upload returned %d, want 400", w.Code)
	}
	// Error bodies are plain text so clients can surface them verbatim.
	if strings.TrimSpace(w.Body.String()) == "" {
		t.Error("error body is empty")
	}
}

func TestUploadRejectsUnknownGranularity(t *testing.T) {
	router := setupTestRouter(t)

	body, contentType := multipartBody(t,
		map[string][]string{"documentFiles": {"design.xlsx"}},
		map[string]string{"granularity": "extreme"},
	)
	w := doRequest(router, http.MethodPost, "/api/upload", body, contentType)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("upload returned %d, want 400", w.Code)
	}
}

func TestUploadDiffRequiresPreviousArtifacts(t *testing.T) {
	router := setupTestRouter(t)

	testCases := []struct {
		name  string
		files map[string][]string
	}{
		{
			name:  "no new files",
			files: map[string][]string{},
		},
		{
			name:  "missing old structured document",
			files: map[string][]string{"newExcelFiles": {"new.xlsx"}},
		},
		{
			name: "missing old test specification",
			files: map[string][]string{
				"newExcelFiles":   {"new.xlsx"},
				"oldStructuredMd": {"structured.md"},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			body, contentType := multipartBody(t, tc.files, nil)
			w := doRequest(router, http.MethodPost, "/api/upload_diff", body, contentType)
			if w.Code != http.StatusBadRequest {
				t.Errorf("upload_diff returned %d, want 400", w.Code)
			}
		})
	}
}

func TestUploadDiffFlow(t *testing.T) {
	router := setupTestRouter(t)

	body, contentType := multipartBody(t,
		map[string][]string{
			"newExcelFiles":   {"new.xlsx"},
			"oldStructuredMd": {"structured.md"},
			"oldTestSpecMd":   {"test_spec.md"},
		},
		map[string]string{"granularity": "detailed"},
	)
	w := doRequest(router, http.MethodPost, "/api/upload_diff", body, contentType)
	if w.Code != http.StatusAccepted {
		t.Fatalf("upload_diff returned %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("upload_diff response is not JSON: %v", err)
	}

	status := waitForCompletion(t, router, resp.ID)
	if status.RuntimeStatus != domain.StatusCompleted {
		t.Fatalf("diff job finished as %s", status.RuntimeStatus)
	}
	if status.Output == nil || status.Output.Filename != pipeline.DiffResultFilename {
		t.Errorf("diff output = %+v", status.Output)
	}
}

func TestStatusUnknownJob(t *testing.T) {
	router := setupTestRouter(t)

	w := doRequest(router, http.MethodGet, "/api/status/nope", nil, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status returned %d, want 404", w.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("error response is not JSON: %v", err)
	}
	if resp["error"] != "job not found" {
		t.Errorf("error = %q", resp["error"])
	}
}

func TestHealth(t *testing.T) {
	router := setupTestRouter(t)

	w := doRequest(router, http.MethodGet, "/health", nil, "")
	if w.Code != http.StatusOK {
		t.Errorf("health returned %d", w.Code)
	}
}
