package api

import (
	"context"

	"github.com/Cybercom1973/taglaget/pkg/config"
	"github.com/Cybercom1973/taglaget/pkg/dataaggregator"
	"github.com/Cybercom1973/taglaget/pkg/dataaggregator/global"
	"github.com/Cybercom1973/taglaget/pkg/database"
	"github.com/Cybercom1973/taglaget/pkg/elastic_client"
	"github.com/Cybercom1973/taglaget/pkg/realtime/tracker"
	"github.com/Cybercom1973/taglaget/pkg/redis_client"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "web-api",
		Usage: "Provides the train tracking web API",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run web api server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Value: ":8080",
						Usage: "listen target for the web server",
					},
				},
				Action: func(c *cli.Context) error {
					cfg, err := config.Load()
					if err != nil {
						return err
					}

					if err := redis_client.Connect(); err != nil {
						return err
					}
					if err := database.Connect(); err != nil {
						return err
					}
					if err := elastic_client.Connect(false); err != nil {
						return err
					}

					global.Setup(cfg)

					ctx, cancel := context.WithCancel(context.Background())
					defer cancel()

					sinks, err := tracker.SetupSinks(ctx)
					if err != nil {
						return err
					}

					manager := tracker.NewTrackerManager(tracker.TrackerConfig(cfg), &dataaggregator.GlobalAggregator, cfg.Tracker.IdleTimeout, sinks...)
					go manager.Run(ctx)

					log.Info().Str("listen", c.String("listen")).Msg("Starting web API")

					return SetupServer(c.String("listen"), manager, cfg)
				},
			},
		},
	}
}
