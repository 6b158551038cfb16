package database

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const RealtimeTrainsCollection = "realtime_trains"
const StationsCollection = "stations"

func createIndexes() {
	createRealtimeIndexes()
	createStationsIndexes()
}

func createRealtimeIndexes() {
	realtimeTrainsCollection := GetCollection(RealtimeTrainsCollection)
	_, err := realtimeTrainsCollection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "primaryidentifier", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "trainident", Value: 1},
				{Key: "rundate", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "route.nodes.signature", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "modificationdatetime", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(24 * 3600),
		},
	}, options.CreateIndexes())
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}
}

func createStationsIndexes() {
	stationsCollection := GetCollection(StationsCollection)
	_, err := stationsCollection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "signature", Value: 1}},
		},
	}, options.CreateIndexes())
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}
}
