package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/takumi/specgen/internal/client"
	"github.com/takumi/specgen/internal/domain"
	"github.com/urfave/cli/v3"
)

// SubmitAction uploads design documents and starts a generation job.
func SubmitAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(cmd.String("config"), cmd.String("server"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	granularity := domain.Granularity(cmd.String("granularity"))
	switch granularity {
	case "", domain.GranularitySimple, domain.GranularityDetailed:
	default:
		return fmt.Errorf("granularity must be simple or detailed")
	}

	files, closeAll, err := openUploads(cmd.StringSlice("file"))
	if err != nil {
		return err
	}
	defer closeAll()

	var jobID string
	if cmd.Bool("diff") {
		jobID, err = submitDiff(ctx, appCtx, cmd, files, granularity)
	} else {
		jobID, err = appCtx.Client.Submit(ctx, &client.NormalSubmission{
			DocumentFiles: files,
			Granularity:   granularity,
		})
	}
	if err != nil {
		return err
	}

	fmt.Printf("Job accepted: %s\n", jobID)

	if cmd.Bool("watch") {
		return watchJob(ctx, appCtx, jobID, outputDir(cmd, appCtx))
	}

	fmt.Printf("Check progress with: specgen status --id %s\n", jobID)
	return nil
}

func submitDiff(ctx context.Context, appCtx *AppContext, cmd *cli.Command, files []client.Upload, granularity domain.Granularity) (string, error) {
	oldStructured, err := openUpload(cmd.String("old-structured"))
	if err != nil {
		return "", fmt.Errorf("previous structured document: %w", err)
	}
	defer oldStructured.close()

	oldTestSpec, err := openUpload(cmd.String("old-test-spec"))
	if err != nil {
		return "", fmt.Errorf("previous test specification: %w", err)
	}
	defer oldTestSpec.close()

	return appCtx.Client.SubmitDiff(ctx, &client.DiffSubmission{
		NewExcelFiles:   files,
		OldStructuredMd: oldStructured.upload,
		OldTestSpecMd:   oldTestSpec.upload,
		Granularity:     granularity,
	})
}

type openedUpload struct {
	upload *client.Upload
	close  func()
}

func openUpload(path string) (*openedUpload, error) {
	if path == "" {
		return nil, fmt.Errorf("file path is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return &openedUpload{
		upload: &client.Upload{Filename: filepath.Base(path), Content: f},
		close:  func() { f.Close() },
	}, nil
}

func openUploads(paths []string) ([]client.Upload, func(), error) {
	var files []client.Upload
	var closers []func()
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	for _, path := range paths {
		opened, err := openUpload(path)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		files = append(files, *opened.upload)
		closers = append(closers, opened.close)
	}

	return files, closeAll, nil
}

func outputDir(cmd *cli.Command, appCtx *AppContext) string {
	if dir := cmd.String("output"); dir != "" {
		return dir
	}
	return appCtx.Config.Client.OutputDir
}
