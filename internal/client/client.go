package client

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/takumi/specgen/internal/domain"
)

// Upload is one file selected for submission.
type Upload struct {
	Filename string
	Content  io.Reader
}

// NormalSubmission is the input of the normal generation mode: one or more
// design-document spreadsheets.
type NormalSubmission struct {
	DocumentFiles []Upload
	Granularity   domain.Granularity
}

// DiffSubmission is the input of the diff generation mode: the new design
// documents plus the two artifacts of a previous run.
type DiffSubmission struct {
	NewExcelFiles   []Upload
	OldStructuredMd *Upload
	OldTestSpecMd   *Upload
	Granularity     domain.Granularity
}

// Config holds API client configuration. No request timeout is set by
// default: a generation job download can legitimately take a long time,
// and the polling loop has its own failure cap.
type Config struct {
	BaseURL string
}

// Client talks to the generation backend over HTTP. All methods catch
// network-boundary errors and return them as values; nothing panics.
type Client struct {
	http    *resty.Client
	baseURL string
}

// New creates a new API client.
func New(cfg *Config) *Client {
	http := resty.New()
	http.SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/"))

	return &Client{
		http:    http,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
	}
}

// Submit validates and posts a normal-mode submission, returning the
// instance id issued by the backend. Validation failures are reported
// before any network call is made.
func (c *Client) Submit(ctx context.Context, sub *NormalSubmission) (string, error) {
	if err := validateNormal(sub); err != nil {
		return "", err
	}

	req := c.http.R().SetContext(ctx)
	for _, f := range sub.DocumentFiles {
		req.SetFileReader("documentFiles", f.Filename, f.Content)
	}
	req.SetFormData(map[string]string{"granularity": granularityOrDefault(sub.Granularity)})

	var out domain.SubmitResponse
	resp, err := req.SetResult(&out).Post("/upload")
	if err != nil {
		return "", fmt.Errorf("failed to reach server: %w", err)
	}
	if !resp.IsSuccess() {
		return "", fmt.Errorf("upload failed: %s", responseText(resp))
	}
	if out.JobID() == "" {
		return "", fmt.Errorf("upload response did not contain a job id")
	}

	return out.JobID(), nil
}

// SubmitDiff validates and posts a diff-mode submission. The three input
// slots are validated independently and in a fixed order; the first
// missing slot aborts submission with a slot-specific error.
func (c *Client) SubmitDiff(ctx context.Context, sub *DiffSubmission) (string, error) {
	if err := validateDiff(sub); err != nil {
		return "", err
	}

	req := c.http.R().SetContext(ctx)
	for _, f := range sub.NewExcelFiles {
		req.SetFileReader("newExcelFiles", f.Filename, f.Content)
	}
	req.SetFileReader("oldStructuredMd", sub.OldStructuredMd.Filename, sub.OldStructuredMd.Content)
	req.SetFileReader("oldTestSpecMd", sub.OldTestSpecMd.Filename, sub.OldTestSpecMd.Content)
	req.SetFormData(map[string]string{"granularity": granularityOrDefault(sub.Granularity)})

	var out domain.SubmitResponse
	resp, err := req.SetResult(&out).Post("/upload_diff")
	if err != nil {
		return "", fmt.Errorf("failed to reach server: %w", err)
	}
	if !resp.IsSuccess() {
		return "", fmt.Errorf("upload failed: %s", responseText(resp))
	}
	if out.JobID() == "" {
		return "", fmt.Errorf("upload response did not contain a job id")
	}

	return out.JobID(), nil
}

// Status fetches the current state of a job.
func (c *Client) Status(ctx context.Context, jobID string) (*domain.StatusResponse, error) {
	var out domain.StatusResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/status/" + jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to reach server: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("status check failed: server returned %d", resp.StatusCode())
	}

	return &out, nil
}

// ListResults fetches the full history collection. The backend sends the
// whole set at once; there is no incremental loading.
func (c *Client) ListResults(ctx context.Context) ([]domain.HistoryEntry, error) {
	var out []domain.HistoryEntry
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/list-results")
	if err != nil {
		return nil, fmt.Errorf("failed to reach server: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("history fetch failed: server returned %d", resp.StatusCode())
	}

	return out, nil
}

// Delete removes a stored result by its instance id.
func (c *Client) Delete(ctx context.Context, jobID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		Delete("/delete/" + jobID)
	if err != nil {
		return fmt.Errorf("failed to reach server: %w", err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("delete failed: server returned %d", resp.StatusCode())
	}

	return nil
}

func granularityOrDefault(g domain.Granularity) string {
	if g == "" {
		return string(domain.GranularitySimple)
	}
	return string(g)
}

// responseText surfaces the response body as the error message, falling
// back to the status code when the body is empty.
func responseText(resp *resty.Response) string {
	body := strings.TrimSpace(string(resp.Body()))
	if body == "" {
		return fmt.Sprintf("server returned %d", resp.StatusCode())
	}
	return body
}
