package consumer

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Cybercom1973/taglaget/pkg/redis_client"
	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog/log"
)

const DefaultStatsListen = ":3333"

// RedisConsumer runs a pool of batch consumers against one rmq queue and
// serves queue stats and a health check next to them
type RedisConsumer struct {
	QueueName string

	NumberConsumers int
	BatchSize       int

	Timeout time.Duration

	Consumer rmq.BatchConsumer

	StatsListen string
}

// Setup starts the consumers and then blocks serving the stats endpoints
func (c *RedisConsumer) Setup() {
	if _, err := c.StartConsumers(redis_client.QueueConnection); err != nil {
		log.Fatal().Err(err).Str("queue", c.QueueName).Msg("Failed to start consumers")
	}

	if err := c.serveStats(); err != nil {
		log.Error().Err(err).Msg("Stats server stopped")
	}
}

func (c *RedisConsumer) StartConsumers(connection rmq.Connection) (rmq.Queue, error) {
	log.Info().Str("queue", c.QueueName).Int("consumers", c.NumberConsumers).Msg("Starting consumers")

	queue, err := connection.OpenQueue(c.QueueName)
	if err != nil {
		return nil, err
	}
	if err := queue.StartConsuming(int64(c.NumberConsumers*c.BatchSize), 1*time.Second); err != nil {
		return nil, err
	}

	for i := 0; i < c.NumberConsumers; i++ {
		tag := fmt.Sprintf("%s-%d", c.QueueName, i)

		if _, err := queue.AddBatchConsumer(tag, int64(c.BatchSize), c.Timeout, c.Consumer); err != nil {
			return nil, err
		}
	}

	return queue, nil
}

func (c *RedisConsumer) serveStats() error {
	listen := c.StatsListen
	if listen == "" {
		listen = DefaultStatsListen
	}

	endpoint := fmt.Sprintf("/%s/stats", c.QueueName)

	mux := http.NewServeMux()
	mux.Handle(endpoint, NewStatsHandler(redis_client.QueueConnection))
	mux.Handle("/health", NewHealthHandler())

	log.Info().Msgf("Stats server listening on http://localhost%s%s", listen, endpoint)

	return http.ListenAndServe(listen, mux)
}
