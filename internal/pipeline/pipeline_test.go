package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/takumi/specgen/internal/config"
	"github.com/takumi/specgen/internal/domain"
	"github.com/takumi/specgen/internal/storage"
)

// fakeJobStore records every repository call and signals when the job
// reaches a terminal state.
type fakeJobStore struct {
	mu       sync.Mutex
	stages   []string
	progress []int

	completedFilename string
	completedBlob     string
	completedSize     int64
	inputTokens       int64
	outputTokens      int64
	model             string
	failedLog         string

	done chan struct{}
}

func newFakeJobStore() *fakeJobStore {
	return &fakeJobStore{done: make(chan struct{})}
}

func (f *fakeJobStore) UpdateProgress(ctx context.Context, instanceID, stage, message string, progress int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stages = append(f.stages, stage)
	f.progress = append(f.progress, progress)
	return nil
}

func (f *fakeJobStore) Complete(ctx context.Context, instanceID, filename, blobName string, size, inputTokens, outputTokens int64, model string) error {
	f.mu.Lock()
	f.completedFilename = filename
	f.completedBlob = blobName
	f.completedSize = size
	f.inputTokens = inputTokens
	f.outputTokens = outputTokens
	f.model = model
	f.mu.Unlock()
	close(f.done)
	return nil
}

func (f *fakeJobStore) Fail(ctx context.Context, instanceID, errorLog string) error {
	f.mu.Lock()
	f.failedLog = errorLog
	f.mu.Unlock()
	close(f.done)
	return nil
}

func (f *fakeJobStore) wait(t *testing.T) {
	t.Helper()
	select {
	case <-f.done:
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not reach a terminal state")
	}
}

func testRunner(t *testing.T, store *fakeJobStore) (*Runner, *storage.FSStorage) {
	t.Helper()
	fs := storage.NewFSStorage(t.TempDir())
	if err := fs.EnsureBucket(context.Background()); err != nil {
		t.Fatalf("EnsureBucket() error: %v", err)
	}
	cfg := &config.PipelineConfig{StageDuration: time.Millisecond, Model: "claude-haiku-4-5"}
	return NewRunner(store, fs, cfg, nil), fs
}

func bundleNames(t *testing.T, data []byte) []string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("result is not a zip: %v", err)
	}
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

func TestRunnerNormalMode(t *testing.T) {
	store := newFakeJobStore()
	runner, fs := testRunner(t, store)

	runner.Launch(&Job{
		InstanceID:  "job-1",
		Mode:        domain.ModeNormal,
		Granularity: domain.GranularitySimple,
		Files: []InputFile{
			{Filename: "payment_design.xlsx", BlobKey: "uploads/job-1/input/file_0_payment_design.xlsx", Size: 8000},
		},
	})
	store.wait(t)

	store.mu.Lock()
	defer store.mu.Unlock()

	if store.failedLog != "" {
		t.Fatalf("pipeline failed: %s", store.failedLog)
	}

	wantStages := []string{
		domain.StageStructuring,
		domain.StagePerspectives,
		domain.StageTestSpec,
		domain.StageConverting,
	}
	if len(store.stages) != len(wantStages) {
		t.Fatalf("stages = %v, want %v", store.stages, wantStages)
	}
	for i, stage := range wantStages {
		if store.stages[i] != stage {
			t.Errorf("stages[%d] = %s, want %s", i, store.stages[i], stage)
		}
	}
	for i := 1; i < len(store.progress); i++ {
		if store.progress[i] <= store.progress[i-1] {
			t.Errorf("progress is not monotonic: %v", store.progress)
		}
	}

	if store.completedFilename != NormalResultFilename {
		t.Errorf("result filename = %s, want %s", store.completedFilename, NormalResultFilename)
	}
	if store.completedBlob != "results/job-1/"+NormalResultFilename {
		t.Errorf("result blob = %s", store.completedBlob)
	}
	if store.model != "claude-haiku-4-5" {
		t.Errorf("model = %s", store.model)
	}
	if store.inputTokens <= 0 || store.outputTokens <= 0 {
		t.Errorf("token usage = %d/%d, want positive", store.inputTokens, store.outputTokens)
	}

	// The stored bundle names its artifacts after the single input file.
	reader, err := fs.Download(context.Background(), store.completedBlob)
	if err != nil {
		t.Fatalf("failed to open stored bundle: %v", err)
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("failed to read stored bundle: %v", err)
	}
	if int64(len(data)) != store.completedSize {
		t.Errorf("stored size %d, recorded %d", len(data), store.completedSize)
	}

	names := bundleNames(t, data)
	if len(names) != 4 {
		t.Fatalf("bundle has %d entries, want 4: %v", len(names), names)
	}
	for _, name := range names {
		if !strings.HasPrefix(name, "payment_design") {
			t.Errorf("artifact %s not named after input file", name)
		}
	}
}

func TestRunnerDiffMode(t *testing.T) {
	store := newFakeJobStore()
	runner, _ := testRunner(t, store)

	runner.Launch(&Job{
		InstanceID:  "job-2",
		Mode:        domain.ModeDiff,
		Granularity: domain.GranularityDetailed,
		Files: []InputFile{
			{Filename: "a.xlsx", Size: 4000},
			{Filename: "b.xlsx", Size: 4000},
		},
		OldStructuredKey: "uploads/job-2/previous/structured.md",
		OldTestSpecKey:   "uploads/job-2/previous/test_spec.md",
	})
	store.wait(t)

	store.mu.Lock()
	defer store.mu.Unlock()

	wantStages := []string{
		domain.StageStructuring,
		domain.StageDiff,
		domain.StagePerspectives,
		domain.StageTestSpec,
		domain.StageConverting,
	}
	if len(store.stages) != len(wantStages) {
		t.Fatalf("stages = %v, want %v", store.stages, wantStages)
	}
	for i, stage := range wantStages {
		if store.stages[i] != stage {
			t.Errorf("stages[%d] = %s, want %s", i, store.stages[i], stage)
		}
	}

	if store.completedFilename != DiffResultFilename {
		t.Errorf("result filename = %s, want %s", store.completedFilename, DiffResultFilename)
	}

	// Detailed granularity doubles the simulated output volume.
	if store.outputTokens != store.inputTokens {
		t.Errorf("detailed output tokens = %d, want %d", store.outputTokens, store.inputTokens)
	}
}

func TestBuildBundleFallbackBaseName(t *testing.T) {
	store := newFakeJobStore()
	runner, _ := testRunner(t, store)

	data, filename, err := runner.buildBundle(&Job{
		InstanceID: "job-3",
		Mode:       domain.ModeNormal,
		Files: []InputFile{
			{Filename: "a.xlsx"},
			{Filename: "b.xlsx"},
		},
	})
	if err != nil {
		t.Fatalf("buildBundle() error: %v", err)
	}
	if filename != NormalResultFilename {
		t.Errorf("filename = %s", filename)
	}

	for _, name := range bundleNames(t, data) {
		if !strings.HasPrefix(name, fallbackBaseName) {
			t.Errorf("artifact %s should use the fallback base name", name)
		}
	}
}
