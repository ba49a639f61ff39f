package commands

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestOpenUpload(t *testing.T) {
	path := writeTempFile(t, "design.xlsx", "cells")

	opened, err := openUpload(path)
	require.NoError(t, err)
	defer opened.close()

	// The multipart filename must be the base name, not the full path.
	assert.Equal(t, "design.xlsx", opened.upload.Filename)

	data, err := io.ReadAll(opened.upload.Content)
	require.NoError(t, err)
	assert.Equal(t, "cells", string(data))
}

func TestOpenUploadMissingFile(t *testing.T) {
	_, err := openUpload(filepath.Join(t.TempDir(), "nope.xlsx"))
	assert.Error(t, err)
}

func TestOpenUploadEmptyPath(t *testing.T) {
	_, err := openUpload("")
	assert.Error(t, err)
}

func TestOpenUploadsClosesOnFailure(t *testing.T) {
	good := writeTempFile(t, "a.xlsx", "a")
	missing := filepath.Join(t.TempDir(), "missing.xlsx")

	_, _, err := openUploads([]string{good, missing})
	assert.Error(t, err)

	files, closeAll, err := openUploads([]string{good})
	require.NoError(t, err)
	defer closeAll()
	assert.Len(t, files, 1)
}
