// Package redis_client holds the shared redis connection. The station name
// cache and the events queue between the tracker and the events consumer
// both run on it.
package redis_client

import (
	"context"
	"strconv"

	"github.com/Cybercom1973/taglaget/pkg/util"
	"github.com/adjust/rmq/v5"
	"github.com/redis/go-redis/v9"
)

var Client *redis.Client
var QueueConnection rmq.Connection

// EventsQueue carries position changes from the tracker sinks to the events
// consumer
const EventsQueue = "events-queue"

const defaultConnectionAddress = "localhost:6379"
const defaultConnectionPassword = ""
const defaultDatabase = 0

func Connect() error {
	address := defaultConnectionAddress
	password := defaultConnectionPassword
	database := defaultDatabase

	env := util.GetEnvironmentVariables()

	if env["TAGLAGET_REDIS_ADDRESS"] != "" {
		address = env["TAGLAGET_REDIS_ADDRESS"]
	}

	if env["TAGLAGET_REDIS_PASSWORD"] != "" {
		password = env["TAGLAGET_REDIS_PASSWORD"]
	}

	if env["TAGLAGET_REDIS_DATABASE"] != "" {
		if n, err := strconv.Atoi(env["TAGLAGET_REDIS_DATABASE"]); err == nil {
			database = n
		} else {
			return err
		}
	}

	return ConnectWithOptions(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       database,
	})
}

// ConnectWithOptions sets up the shared client and queue connection against
// an explicit server, which is how tests point at an in-memory redis.
func ConnectWithOptions(options *redis.Options) error {
	Client = redis.NewClient(options)

	statusCmd := Client.Ping(context.Background())
	err := statusCmd.Err()
	if err != nil {
		return err
	}

	QueueConnection, err = rmq.OpenConnectionWithRedisClient("taglaget", Client, nil)

	if err != nil {
		return err
	}

	return nil
}
