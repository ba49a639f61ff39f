package client

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
)

// DefaultResultFilename is used when the backend does not name the
// artifact via Content-Disposition.
const DefaultResultFilename = "result.zip"

// DownloadResult is a fetched artifact bundle.
type DownloadResult struct {
	Filename string
	Data     []byte
}

// dispositionPattern matches the RFC 5987 extended-value form the backend
// emits: attachment; filename*=UTF-8''<percent-encoded-name>
var dispositionPattern = regexp.MustCompile(`filename\*=UTF-8''([^;]+)`)

// Download fetches the result bundle for a completed job. The save
// filename comes from the Content-Disposition header, percent-decoded;
// an absent or malformed header falls back to DefaultResultFilename.
func (c *Client) Download(ctx context.Context, jobID string) (*DownloadResult, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get("/download/" + jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to reach server: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("download failed: %s", responseText(resp))
	}

	filename := FilenameFromDisposition(resp.Header().Get("Content-Disposition"))

	return &DownloadResult{
		Filename: filename,
		Data:     resp.Body(),
	}, nil
}

// FilenameFromDisposition extracts and percent-decodes the artifact name
// from a Content-Disposition header value. Returns DefaultResultFilename
// when the header is absent, does not match, or fails to decode.
func FilenameFromDisposition(header string) string {
	m := dispositionPattern.FindStringSubmatch(header)
	if m == nil {
		return DefaultResultFilename
	}
	decoded, err := url.PathUnescape(m[1])
	if err != nil {
		return DefaultResultFilename
	}
	return decoded
}

// SaveTo writes the artifact into dir under its resolved filename and
// returns the full path written.
func (d *DownloadResult) SaveTo(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, filepath.Base(d.Filename))
	if err := os.WriteFile(path, d.Data, 0644); err != nil {
		return "", fmt.Errorf("failed to write result file: %w", err)
	}

	return path, nil
}
