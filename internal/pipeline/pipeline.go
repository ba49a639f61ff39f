// Package pipeline simulates the production generation pipeline for the
// local development backend. It reproduces the observable contract only:
// the staged progress snapshots the orchestrator would publish and a
// downloadable result bundle. No document parsing or language-model call
// happens here.
package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/takumi/specgen/internal/config"
	"github.com/takumi/specgen/internal/domain"
	"github.com/takumi/specgen/internal/logger"
	"github.com/takumi/specgen/internal/storage"
)

// Result bundle names match what the production pipeline emits.
const (
	NormalResultFilename = "テスト仕様書.zip"
	DiffResultFilename   = "テスト仕様書_差分版.zip"

	// fallbackBaseName names the artifacts inside the bundle when the
	// submission carried more than one document.
	fallbackBaseName = "設計書"
)

// JobStore is the slice of the repository the runner needs.
type JobStore interface {
	UpdateProgress(ctx context.Context, instanceID, stage, message string, progress int) error
	Complete(ctx context.Context, instanceID, filename, blobName string, size, inputTokens, outputTokens int64, model string) error
	Fail(ctx context.Context, instanceID, errorLog string) error
}

// InputFile references one uploaded document.
type InputFile struct {
	Filename string
	BlobKey  string
	Size     int64
}

// Job is a submission accepted by the upload endpoints.
type Job struct {
	InstanceID       string
	Mode             domain.Mode
	Granularity      domain.Granularity
	Files            []InputFile
	OldStructuredKey string
	OldTestSpecKey   string
}

type stage struct {
	name     string
	message  string
	progress int
}

// Runner drives simulated jobs to completion in the background.
type Runner struct {
	jobs  JobStore
	store storage.ObjectStorage
	cfg   *config.PipelineConfig
	log   *logger.Logger
}

// NewRunner creates a pipeline runner.
func NewRunner(jobs JobStore, store storage.ObjectStorage, cfg *config.PipelineConfig, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.GetDefault()
	}
	return &Runner{jobs: jobs, store: store, cfg: cfg, log: log}
}

// Launch starts the job in a background goroutine and returns immediately,
// mirroring the production starter's behavior of responding before any
// processing happens.
func (r *Runner) Launch(job *Job) {
	go r.run(context.Background(), job)
}

func (r *Runner) run(ctx context.Context, job *Job) {
	log := r.log.WithFields(logger.Fields{
		logger.FieldJobID: job.InstanceID,
		logger.FieldMode:  string(job.Mode),
	})
	log.Info("Pipeline started")

	for _, st := range r.stages(job.Mode) {
		r.updateProgress(ctx, job.InstanceID, st)
		if !r.sleep(ctx) {
			return
		}
	}

	data, filename, err := r.buildBundle(job)
	if err != nil {
		log.WithError(err).Error("Pipeline failed")
		r.fail(ctx, job.InstanceID, err)
		return
	}

	blobKey := "results/" + job.InstanceID + "/" + filename
	if err := r.store.Upload(ctx, blobKey, bytes.NewReader(data), int64(len(data)), "application/zip"); err != nil {
		log.WithError(err).Error("Failed to store result bundle")
		r.fail(ctx, job.InstanceID, err)
		return
	}

	inputTokens, outputTokens := r.simulateTokens(job)
	err = r.jobs.Complete(ctx, job.InstanceID, filename, blobKey, int64(len(data)), inputTokens, outputTokens, r.cfg.Model)
	if err != nil {
		log.WithError(err).Error("Failed to finalize job")
		return
	}

	log.WithFields(logger.Fields{
		logger.FieldSize: len(data),
	}).Info("Pipeline completed")
}

// stages returns the progress sequence for the mode. Diff mode inserts
// the difference-detection stage after structuring.
func (r *Runner) stages(mode domain.Mode) []stage {
	if mode == domain.ModeDiff {
		return []stage{
			{domain.StageStructuring, "Structuring design documents...", 10},
			{domain.StageDiff, "Detecting differences against the previous version...", 30},
			{domain.StagePerspectives, "Extracting test perspectives...", 50},
			{domain.StageTestSpec, "Generating test specification...", 75},
			{domain.StageConverting, "Converting artifacts...", 90},
		}
	}
	return []stage{
		{domain.StageStructuring, "Structuring design documents...", 10},
		{domain.StagePerspectives, "Extracting test perspectives...", 45},
		{domain.StageTestSpec, "Generating test specification...", 70},
		{domain.StageConverting, "Converting artifacts...", 90},
	}
}

// updateProgress writes a snapshot. A failed update is logged and the
// pipeline continues; progress is best-effort.
func (r *Runner) updateProgress(ctx context.Context, instanceID string, st stage) {
	if err := r.jobs.UpdateProgress(ctx, instanceID, st.name, st.message, st.progress); err != nil {
		r.log.WithError(err).WithFields(logger.Fields{
			logger.FieldJobID: instanceID,
			logger.FieldStage: st.name,
		}).Warn("Failed to update progress")
	}
}

func (r *Runner) sleep(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(r.cfg.StageDuration):
		return true
	}
}

func (r *Runner) fail(ctx context.Context, instanceID string, cause error) {
	if err := r.jobs.Fail(ctx, instanceID, cause.Error()); err != nil {
		r.log.WithError(err).WithField(logger.FieldJobID, instanceID).Error("Failed to mark job failed")
	}
}

// buildBundle assembles the result zip: the structured document, the test
// perspectives, and the test specification in markdown and CSV form.
func (r *Runner) buildBundle(job *Job) ([]byte, string, error) {
	base := fallbackBaseName
	if len(job.Files) == 1 {
		name := job.Files[0].Filename
		base = strings.TrimSuffix(name, path.Ext(name))
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	artifacts := []struct {
		name    string
		content string
	}{
		{base + "_構造化設計書.md", r.structuredDoc(job)},
		{base + "_テスト観点.md", r.perspectivesDoc(job)},
		{base + "_テスト仕様書.md", r.testSpecDoc(job)},
		{base + "_テスト仕様書.csv", r.testSpecCSV(job)},
	}
	for _, a := range artifacts {
		w, err := zw.Create(a.name)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create bundle entry: %w", err)
		}
		if _, err := w.Write([]byte(a.content)); err != nil {
			return nil, "", fmt.Errorf("failed to write bundle entry: %w", err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize bundle: %w", err)
	}

	filename := NormalResultFilename
	if job.Mode == domain.ModeDiff {
		filename = DiffResultFilename
	}
	return buf.Bytes(), filename, nil
}

func (r *Runner) structuredDoc(job *Job) string {
	var b strings.Builder
	b.WriteString("# Structured design document (simulated)\n\n")
	for _, f := range job.Files {
		fmt.Fprintf(&b, "- %s (%d bytes)\n", f.Filename, f.Size)
	}
	if job.Mode == domain.ModeDiff {
		b.WriteString("\nCompared against previous structured document and test specification.\n")
	}
	return b.String()
}

func (r *Runner) perspectivesDoc(job *Job) string {
	return fmt.Sprintf("# Test perspectives (simulated)\n\nGranularity: %s\nDocuments: %d\n",
		job.Granularity, len(job.Files))
}

func (r *Runner) testSpecDoc(job *Job) string {
	var b strings.Builder
	b.WriteString("# Test specification (simulated)\n\n")
	b.WriteString("| No | Perspective | Procedure | Expected |\n|---|---|---|---|\n")
	for i, f := range job.Files {
		fmt.Fprintf(&b, "| %d | input handling | open %s | document loads |\n", i+1, f.Filename)
	}
	return b.String()
}

func (r *Runner) testSpecCSV(job *Job) string {
	var b strings.Builder
	b.WriteString("no,perspective,procedure,expected\n")
	for i, f := range job.Files {
		fmt.Fprintf(&b, "%d,input handling,open %s,document loads\n", i+1, f.Filename)
	}
	return b.String()
}

// simulateTokens derives plausible token usage from the input volume so
// the history view has something realistic to price.
func (r *Runner) simulateTokens(job *Job) (int64, int64) {
	var totalBytes int64
	for _, f := range job.Files {
		totalBytes += f.Size
	}
	inputTokens := totalBytes / 4
	if inputTokens < 1000 {
		inputTokens = 1000
	}
	outputTokens := inputTokens / 2
	if job.Granularity == domain.GranularityDetailed {
		outputTokens = inputTokens
	}
	return inputTokens, outputTokens
}
