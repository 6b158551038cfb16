package tracker

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Cybercom1973/taglaget/pkg/config"
	"github.com/Cybercom1973/taglaget/pkg/dataaggregator"
	"github.com/Cybercom1973/taglaget/pkg/dataaggregator/global"
	"github.com/Cybercom1973/taglaget/pkg/database"
	"github.com/Cybercom1973/taglaget/pkg/elastic_client"
	"github.com/Cybercom1973/taglaget/pkg/realtime/railutils"
	"github.com/Cybercom1973/taglaget/pkg/realtime/trainroute"
	"github.com/Cybercom1973/taglaget/pkg/redis_client"
	"github.com/Cybercom1973/taglaget/pkg/util"
	"github.com/kr/pretty"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	trainFlags := []cli.Flag{
		&cli.StringFlag{
			Name:     "train",
			Usage:    "advertised train ident to track",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "date",
			Usage: "run date as YYYY-MM-DD, defaults to today",
		},
	}

	return &cli.Command{
		Name:  "tracker",
		Usage: "Reconstruct train routes and track their position",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run a tracker for a single train",
				Flags: trainFlags,
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

					runDate, err := ParseRunDate(c.String("date"), cfg)
					if err != nil {
						return err
					}

					ctx, cancel := context.WithCancel(context.Background())
					defer cancel()

					sinks, err := SetupSinks(ctx)
					if err != nil {
						return err
					}

					trainTracker := NewTrainTracker(c.String("train"), runDate, TrackerConfig(cfg), &dataaggregator.GlobalAggregator, sinks...)
					go trainTracker.Run(ctx)

					signals := make(chan os.Signal, 1)
					signal.Notify(signals, syscall.SIGINT)
					defer signal.Stop(signals)

					<-signals // wait for signal
					go func() {
						<-signals // hard exit on second signal (in case shutdown gets stuck)
						os.Exit(1)
					}()

					cancel()
					elastic_client.WaitUntilQueueEmpty()

					return nil
				},
			},
			{
				Name:  "route",
				Usage: "run one refresh cycle and print the result",
				Flags: trainFlags,
				Action: func(c *cli.Context) error {
					cfg, err := config.Load()
					if err != nil {
						return err
					}

					global.Setup(cfg)

					runDate, err := ParseRunDate(c.String("date"), cfg)
					if err != nil {
						return err
					}

					trainTracker := NewTrainTracker(c.String("train"), runDate, TrackerConfig(cfg), &dataaggregator.GlobalAggregator)

					snapshot, err := trainTracker.Refresh(c.Context)
					if snapshot == nil {
						return err
					}

					pretty.Println(snapshot)

					return nil
				},
			},
		},
	}
}

// TrackerConfig maps the loaded configuration onto tracker settings
func TrackerConfig(cfg config.Config) Config {
	return Config{
		RefreshRate: cfg.Tracker.RefreshRate,
		Classifier: trainroute.ClassifierConfig{
			FreshnessWindow:        cfg.Tracker.FreshnessWindow,
			UnknownDirectionPolicy: trainroute.UnknownDirectionPolicy(cfg.Tracker.UnknownDirectionPolicy),
		},
	}
}

// SetupSinks builds a sink for every service connection that has been set up
func SetupSinks(ctx context.Context) ([]SnapshotSink, error) {
	var sinks []SnapshotSink

	if redis_client.QueueConnection != nil {
		eventsQueue, err := redis_client.QueueConnection.OpenQueue(redis_client.EventsQueue)
		if err != nil {
			return nil, err
		}

		sinks = append(sinks, &EventSink{Queue: eventsQueue})
	}

	if database.Enabled() {
		archiveQueue := railutils.NewBatchProcessingQueue(database.GetCollection(database.RealtimeTrainsCollection), 5*time.Second)
		go archiveQueue.Process(ctx)

		sinks = append(sinks, &ArchiveSink{Queue: archiveQueue})
	}

	if elastic_client.Enabled() {
		sinks = append(sinks, &StatsSink{})
	}

	log.Info().Int("sinks", len(sinks)).Msg("Snapshot sinks configured")

	return sinks, nil
}

// ParseRunDate reads a YYYY-MM-DD date in the configured time zone, falling
// back to the current day there.
func ParseRunDate(value string, cfg config.Config) (time.Time, error) {
	location := cfg.Location()

	if value == "" {
		return util.RunDate(time.Now(), location), nil
	}

	runDate, err := time.ParseInLocation(time.DateOnly, value, location)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid run date %q: %w", value, err)
	}

	return runDate, nil
}
