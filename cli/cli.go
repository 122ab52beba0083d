package cli

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"ctrl.dev/mpcd/settings"
)

func Handle() {
	shouldExit := true
	cmd := &cli.Command{
		Commands: []*cli.Command{
			{
				Name:    "settings",
				Aliases: []string{"s"},
				Usage:   "Edit controller settings interactively",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					interactive()
					return nil
				},
			},
			{
				Name:    "monitor",
				Aliases: []string{"m"},
				Usage:   "Watch the live cycle status of a running mpcd instance",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Address of the mpcd status server",
						Value: settings.Settings.StatusListen,
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return monitor(cmd.String("addr"))
				},
			},
		},
		Name:  "Mpcd",
		Usage: "Start an instance of mpcd",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "listen",
				Usage: "Overrides the telemetry listen address from settings",
			},
			&cli.StringFlag{
				Name:  "status-listen",
				Usage: "Overrides the status server address from settings",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if addr := cmd.String("listen"); addr != "" {
				settings.Settings.Listen = addr
			}
			if addr := cmd.String("status-listen"); addr != "" {
				settings.Settings.StatusListen = addr
			}
			shouldExit = false
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}

	if shouldExit {
		os.Exit(0)
	}
}
