package database

import (
	"context"
	"time"

	"github.com/Cybercom1973/taglaget/pkg/util"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoInstance struct {
	Client   *mongo.Client
	Database *mongo.Database
}

var MongoGlobalInstance *MongoInstance

const defaultMongoConnectionString = "mongodb://localhost:27017/"
const defaultMongoDatabase = "taglaget"

func Connect() error {
	return ConnectMongoDB()
}

func ConnectMongoDB() error {
	connectionString := defaultMongoConnectionString
	dbName := defaultMongoDatabase

	env := util.GetEnvironmentVariables()

	if env["TAGLAGET_MONGODB_CONNECTION"] != "" {
		connectionString = env["TAGLAGET_MONGODB_CONNECTION"]
	}

	if env["TAGLAGET_MONGODB_DATABASE"] != "" {
		dbName = env["TAGLAGET_MONGODB_DATABASE"]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(connectionString))
	if err != nil {
		return err
	}

	MongoGlobalInstance = &MongoInstance{
		Client:   client,
		Database: client.Database(dbName),
	}

	err = client.Ping(ctx, nil)
	if err != nil {
		return err
	}

	createIndexes()

	return nil
}

// Enabled reports whether a MongoDB connection has been set up
func Enabled() bool {
	return MongoGlobalInstance != nil
}

func GetCollection(collectionName string) *mongo.Collection {
	return MongoGlobalInstance.Database.Collection(collectionName)
}
