package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/takumi/specgen/internal/domain"
	"github.com/takumi/specgen/internal/poller"
	"github.com/urfave/cli/v3"
)

// WatchAction follows a running job until it reaches a terminal state and
// downloads the result on completion.
func WatchAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(cmd.String("config"), cmd.String("server"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	return watchJob(ctx, appCtx, cmd.String("id"), outputDir(cmd, appCtx))
}

// watchJob runs one polling session to its terminal state. Completed jobs
// are downloaded into dir; failed and aborted sessions return an error so
// the process exits non-zero.
func watchJob(ctx context.Context, appCtx *AppContext, jobID, dir string) error {
	session := poller.NewSession(appCtx.Client, newConsoleReporter(os.Stdout), &poller.Config{
		Interval:    appCtx.Config.Client.PollInterval,
		MaxFailures: appCtx.Config.Client.PollMaxFailures,
	}, appCtx.Logger)

	session.Start(ctx, jobID)
	final, err := session.Wait(ctx)
	if err != nil {
		return err
	}

	if final.RuntimeStatus != domain.StatusCompleted {
		return fmt.Errorf("generation did not complete: status is %s", final.RuntimeStatus)
	}

	result, err := appCtx.Client.Download(ctx, jobID)
	if err != nil {
		return err
	}
	path, err := result.SaveTo(dir)
	if err != nil {
		return err
	}

	fmt.Printf("Saved result to %s\n", path)
	return nil
}
