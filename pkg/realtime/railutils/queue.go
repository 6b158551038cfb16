package railutils

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BulkWriter is satisfied by *mongo.Collection
type BulkWriter interface {
	BulkWrite(ctx context.Context, models []mongo.WriteModel, opts ...*options.BulkWriteOptions) (*mongo.BulkWriteResult, error)
}

// QueueItem is a write waiting for the next flush. Items sharing a non-empty
// Key collapse into the one with the highest Version within a batch.
type QueueItem struct {
	Key     string
	Version int64
	Model   mongo.WriteModel
}

type BatchProcessingQueue struct {
	Collection BulkWriter
	Timeout    time.Duration
	Items      chan QueueItem
}

func NewBatchProcessingQueue(collection BulkWriter, timeout time.Duration) *BatchProcessingQueue {
	return &BatchProcessingQueue{
		Collection: collection,
		Timeout:    timeout,
		Items:      make(chan QueueItem, 1000),
	}
}

func (b *BatchProcessingQueue) Add(item mongo.WriteModel) {
	b.Items <- QueueItem{Model: item}
}

// AddKeyed queues a write that supersedes any lower versioned write with the
// same key still waiting in the queue.
func (b *BatchProcessingQueue) AddKeyed(key string, version int64, item mongo.WriteModel) {
	b.Items <- QueueItem{Key: key, Version: version, Model: item}
}

// Process writes queued items every Timeout until ctx is done, then writes
// whatever is left.
func (b *BatchProcessingQueue) Process(ctx context.Context) {
	ticker := time.NewTicker(b.Timeout)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.flush(context.Background())
			return
		case <-ticker.C:
			b.flush(ctx)
		}
	}
}

func (b *BatchProcessingQueue) flush(ctx context.Context) int {
	batchItems := []mongo.WriteModel{}
	keyed := map[string]int{}
	versions := map[string]int64{}

	running := true
	for running {
		select {
		case i := <-b.Items:
			if i.Key == "" {
				batchItems = append(batchItems, i.Model)
				continue
			}

			index, exists := keyed[i.Key]
			if !exists {
				keyed[i.Key] = len(batchItems)
				versions[i.Key] = i.Version
				batchItems = append(batchItems, i.Model)
			} else if i.Version >= versions[i.Key] {
				versions[i.Key] = i.Version
				batchItems[index] = i.Model
			}
		default:
			running = false
		}
	}

	if len(batchItems) == 0 {
		return 0
	}

	log.Debug().Int("Length", len(batchItems)).Msg("Bulk write")
	_, err := b.Collection.BulkWrite(ctx, batchItems, options.BulkWrite().SetOrdered(false))
	if err != nil {
		log.Error().Err(err).Msg("Failed to bulk write train snapshots")
	}

	return len(batchItems)
}
