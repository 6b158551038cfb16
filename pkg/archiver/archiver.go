package archiver

import (
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/Cybercom1973/taglaget/pkg/ctdf"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SnapshotCollection is the part of a mongo collection the archiver needs
type SnapshotCollection interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

// Archiver moves snapshots that have not changed for MaxAge out of the
// realtime collection into a compressed bundle on disk
type Archiver struct {
	Collection      SnapshotCollection
	OutputDirectory string
	MaxAge          time.Duration

	Now func() time.Time
}

func (a *Archiver) Perform(ctx context.Context) (int, error) {
	currentTime := time.Now()
	if a.Now != nil {
		currentTime = a.Now()
	}
	cutOffTime := currentTime.Add(-a.MaxAge)

	log.Info().
		Str("directory", a.OutputDirectory).
		Time("cutoff", cutOffTime).
		Msg("Archiving train snapshots")

	searchFilter := bson.M{"modificationdatetime": bson.M{"$lt": cutOffTime}}

	cursor, err := a.Collection.Find(ctx, searchFilter)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	bundleFilename := path.Join(a.OutputDirectory, fmt.Sprintf("%s.tar.zst", currentTime.UTC().Format("20060102T150405Z")))
	bundleFile, err := os.Create(bundleFilename)
	if err != nil {
		return 0, err
	}
	defer bundleFile.Close()

	bundle, err := NewBundleWriter(bundleFile, currentTime)
	if err != nil {
		return 0, err
	}

	for cursor.Next(ctx) {
		var snapshot ctdf.TrainSnapshot
		if err := cursor.Decode(&snapshot); err != nil {
			log.Error().Err(err).Msg("Failed to decode TrainSnapshot")
			continue
		}

		if err := bundle.Add(ctdf.NewArchivedTrain(&snapshot)); err != nil {
			bundle.Close()
			return bundle.Count, err
		}
	}
	if err := cursor.Err(); err != nil {
		bundle.Close()
		return bundle.Count, err
	}

	if err := bundle.Close(); err != nil {
		return bundle.Count, err
	}
	if err := bundleFile.Sync(); err != nil {
		return bundle.Count, err
	}

	log.Info().Int("count", bundle.Count).Str("file", bundleFilename).Msg("Archive bundle written")

	deleteResult, err := a.Collection.DeleteMany(ctx, searchFilter)
	if err != nil {
		return bundle.Count, err
	}

	log.Info().Int64("deleted", deleteResult.DeletedCount).Msg("Archived snapshots removed")

	return bundle.Count, nil
}
