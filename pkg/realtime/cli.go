package realtime

import (
	"os"
	"time"

	"github.com/Cybercom1973/taglaget/pkg/archiver"
	"github.com/Cybercom1973/taglaget/pkg/database"
	"github.com/Cybercom1973/taglaget/pkg/realtime/tracker"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "realtime",
		Usage: "Realtime train tracking",
		Subcommands: []*cli.Command{
			tracker.RegisterCLI(),
			{
				Name:  "archive",
				Usage: "bundle train snapshots that have stopped changing and remove them from the database",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "output-directory",
						Value: os.TempDir(),
						Usage: "directory to write the bundle into",
					},
					&cli.DurationFlag{
						Name:  "max-age",
						Value: 12 * time.Hour,
						Usage: "archive snapshots not modified for this long",
					},
				},
				Action: func(c *cli.Context) error {
					if err := database.Connect(); err != nil {
						return err
					}

					archive := archiver.Archiver{
						Collection:      database.GetCollection(database.RealtimeTrainsCollection),
						OutputDirectory: c.String("output-directory"),
						MaxAge:          c.Duration("max-age"),
					}

					count, err := archive.Perform(c.Context)
					if err != nil {
						return err
					}

					log.Info().Int("count", count).Msg("Archive complete")

					return nil
				},
			},
		},
	}
}
