package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// DownloadAction fetches a result bundle and writes it to disk under the
// name the server sends.
func DownloadAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(cmd.String("config"), cmd.String("server"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	result, err := appCtx.Client.Download(ctx, cmd.String("id"))
	if err != nil {
		return err
	}

	path, err := result.SaveTo(outputDir(cmd, appCtx))
	if err != nil {
		return err
	}

	fmt.Printf("Saved result to %s\n", path)
	return nil
}
