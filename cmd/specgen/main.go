package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/takumi/specgen/cmd/specgen/commands"
	"github.com/urfave/cli/v3"
)

// commonFlags are shared by every command.
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Usage: "config file path",
		},
		&cli.StringFlag{
			Name:  "server",
			Usage: "backend base URL (overrides configuration)",
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "specgen",
		Usage: "Generate test specifications from design documents",
		Commands: []*cli.Command{
			{
				Name:  "submit",
				Usage: "Upload design documents and start a generation job",
				Flags: append(commonFlags(),
					&cli.StringSliceFlag{
						Name:     "file",
						Usage:    "design document to upload (repeatable)",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "granularity",
						Usage: "test specification granularity (simple/detailed)",
						Value: "simple",
					},
					&cli.BoolFlag{
						Name:  "diff",
						Usage: "diff mode: generate against a previous run",
					},
					&cli.StringFlag{
						Name:  "old-structured",
						Usage: "structured document from the previous run (diff mode)",
					},
					&cli.StringFlag{
						Name:  "old-test-spec",
						Usage: "test specification from the previous run (diff mode)",
					},
					&cli.BoolFlag{
						Name:  "watch",
						Usage: "follow progress and download the result on completion",
					},
					&cli.StringFlag{
						Name:  "output",
						Usage: "output directory for the downloaded result",
					},
				),
				Action: commands.SubmitAction,
			},
			{
				Name:  "status",
				Usage: "Show the current state of a job",
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:     "id",
						Usage:    "job instance id",
						Required: true,
					},
				),
				Action: commands.StatusAction,
			},
			{
				Name:  "watch",
				Usage: "Follow a running job and download the result on completion",
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:     "id",
						Usage:    "job instance id",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "output",
						Usage: "output directory for the downloaded result",
					},
				),
				Action: commands.WatchAction,
			},
			{
				Name:  "download",
				Usage: "Download the result of a completed job",
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:     "id",
						Usage:    "job instance id",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "output",
						Usage: "output directory for the downloaded result",
					},
				),
				Action: commands.DownloadAction,
			},
			{
				Name:  "history",
				Usage: "Manage past generation results",
				Commands: []*cli.Command{
					{
						Name:  "list",
						Usage: "List past generation results",
						Flags: append(commonFlags(),
							&cli.IntFlag{
								Name:  "page",
								Usage: "page to display",
								Value: 1,
							},
							&cli.IntFlag{
								Name:  "page-size",
								Usage: "entries per page",
							},
						),
						Action: commands.HistoryListAction,
					},
					{
						Name:  "download",
						Usage: "Download a past generation result",
						Flags: append(commonFlags(),
							&cli.StringFlag{
								Name:     "id",
								Usage:    "job instance id",
								Required: true,
							},
							&cli.StringFlag{
								Name:  "output",
								Usage: "output directory for the downloaded result",
							},
						),
						Action: commands.DownloadAction,
					},
					{
						Name:  "delete",
						Usage: "Delete a stored generation result",
						Flags: append(commonFlags(),
							&cli.StringFlag{
								Name:     "id",
								Usage:    "job instance id",
								Required: true,
							},
							&cli.BoolFlag{
								Name:  "yes",
								Usage: "skip the confirmation prompt",
							},
						),
						Action: commands.HistoryDeleteAction,
					},
				},
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
