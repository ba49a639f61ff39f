package commands

import (
	"context"
	"fmt"

	"github.com/takumi/specgen/internal/domain"
	"github.com/takumi/specgen/internal/history"
	"github.com/urfave/cli/v3"
)

// StatusAction fetches and prints the current state of a job.
func StatusAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(cmd.String("config"), cmd.String("server"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	status, err := appCtx.Client.Status(ctx, cmd.String("id"))
	if err != nil {
		return err
	}

	fmt.Printf("Job:     %s\n", status.InstanceID)
	fmt.Printf("Status:  %s\n", status.RuntimeStatus)
	if status.CustomStatus != nil {
		fmt.Printf("Stage:   %s\n", status.CustomStatus.Render())
	}
	if status.CreatedTime != "" {
		fmt.Printf("Started: %s\n", history.FormatTimestamp(status.CreatedTime))
	}
	if status.LastUpdatedTime != "" {
		fmt.Printf("Updated: %s\n", history.FormatTimestamp(status.LastUpdatedTime))
	}
	if status.RuntimeStatus == domain.StatusCompleted && status.Output != nil {
		fmt.Printf("Result:  %s\n", status.Output.Filename)
		fmt.Printf("Download with: specgen download --id %s\n", status.InstanceID)
	}

	return nil
}
