package events

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Cybercom1973/taglaget/pkg/consumer"
	"github.com/Cybercom1973/taglaget/pkg/elastic_client"
	"github.com/Cybercom1973/taglaget/pkg/redis_client"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "Provides the train events consumer",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "consume and log train events",
				Action: func(c *cli.Context) error {
					if err := redis_client.Connect(); err != nil {
						return err
					}
					if err := elastic_client.Connect(false); err != nil {
						return err
					}

					redisConsumer := consumer.RedisConsumer{
						QueueName:       QueueName,
						NumberConsumers: 5,
						BatchSize:       20,
						Timeout:         2 * time.Second,
						Consumer:        NewEventsBatchConsumer(),
					}
					go redisConsumer.Setup()

					signals := make(chan os.Signal, 1)
					signal.Notify(signals, syscall.SIGINT)
					defer signal.Stop(signals)

					<-signals // wait for signal
					go func() {
						<-signals // hard exit on second signal (in case shutdown gets stuck)
						os.Exit(1)
					}()

					<-redis_client.QueueConnection.StopAllConsuming() // wait for all Consume() calls to finish
					elastic_client.WaitUntilQueueEmpty()

					return nil
				},
			},
		},
	}
}
