package consumer

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Cybercom1973/taglaget/pkg/redis_client"
	"github.com/adjust/rmq/v5"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingConsumer struct {
	batches chan int
}

func (c *countingConsumer) Consume(batch rmq.Deliveries) {
	for _, delivery := range batch {
		delivery.Ack()
	}

	c.batches <- len(batch)
}

func TestRedisConsumer(t *testing.T) {
	server := miniredis.RunT(t)
	require.NoError(t, redis_client.ConnectWithOptions(&redis.Options{Addr: server.Addr()}))

	counting := &countingConsumer{batches: make(chan int, 10)}
	redisConsumer := RedisConsumer{
		QueueName:       "test-queue",
		NumberConsumers: 1,
		BatchSize:       5,
		Timeout:         50 * time.Millisecond,
		Consumer:        counting,
	}

	queue, err := redisConsumer.StartConsumers(redis_client.QueueConnection)
	require.NoError(t, err)
	defer func() { <-redis_client.QueueConnection.StopAllConsuming() }()

	require.NoError(t, queue.PublishBytes([]byte("one"), []byte("two")))

	consumed := 0
	deadline := time.After(5 * time.Second)
	for consumed < 2 {
		select {
		case count := <-counting.batches:
			consumed += count
		case <-deadline:
			t.Fatalf("consumed %d of 2 deliveries", consumed)
		}
	}

	assert.Equal(t, 2, consumed)
}

func TestHealthHandler(t *testing.T) {
	server := miniredis.RunT(t)
	require.NoError(t, redis_client.ConnectWithOptions(&redis.Options{Addr: server.Addr()}))

	recorder := httptest.NewRecorder()
	NewHealthHandler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "OK", recorder.Body.String())

	server.Close()

	recorder = httptest.NewRecorder()
	NewHealthHandler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
}
