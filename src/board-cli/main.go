package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/jack-barr3tt/commute-board/src/common/utils"
)

func main() {
	utils.InitLogger()
	defer utils.SyncLogger()
	logger := utils.NamedLogger("board-cli")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:  "board",
		Usage: "Prints the next journeys of every configured commute",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api",
				Value:   "http://localhost:3000",
				Usage:   "base URL of the board http api",
				EnvVars: []string{"BOARD_API"},
			},
			&cli.StringSliceFlag{
				Name:  "query",
				Usage: "named query to show, repeatable (default: every configured source)",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: 30 * time.Second,
				Usage: "how long to wait for every query to resolve",
			},
			&cli.DurationFlag{
				Name:  "watch",
				Usage: "refresh the board at this interval instead of exiting",
			},
			&cli.BoolFlag{
				Name:  "invalidate",
				Usage: "drop the server's cached journeys before fetching",
			},
			&cli.StringFlag{
				Name:    "formula",
				Value:   "total",
				Usage:   "delay formula, total or wrapped",
				EnvVars: []string{"DELAY_FORMULA"},
			},
			&cli.StringFlag{
				Name:    "timezone",
				Value:   "Europe/Berlin",
				Usage:   "zone the board times are shown in",
				EnvVars: []string{"BOARD_TIMEZONE"},
			},
			&cli.StringFlag{
				Name:    "sources",
				Usage:   "sources file naming the default queries",
				EnvVars: []string{"SOURCES_FILE"},
			},
		},
		Action: func(c *cli.Context) error {
			opts, err := optionsFromCLI(c)
			if err != nil {
				return err
			}
			return run(c.Context, c.App.Writer, opts, logger)
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.Fatalw("board failed", "error", err)
	}
}
