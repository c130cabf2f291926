package models

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var Validate = validator.New()

const DefaultDbName = "eventdb"

type MongodbRepo struct {
	mongodbClient *mongo.Client
	dbName        string
}

func MongodbNewRepo(mongodbClient *mongo.Client, dbName string) *MongodbRepo {
	if dbName == "" {
		dbName = DefaultDbName
	}
	return &MongodbRepo{
		mongodbClient: mongodbClient,
		dbName:        dbName,
	}
}

func (mdb *MongodbRepo) GetCollection(colName string) (*mongo.Collection, error) {
	if mdb.mongodbClient == nil {
		return nil, fmt.Errorf("mongodb client is not initialized")
	}
	return mdb.mongodbClient.Database(mdb.dbName).Collection(colName), nil
}

// EnsureIndexes creates the indexes the event and log queries rely on.
func (mdb *MongodbRepo) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		EventsColName: {
			{Keys: bson.D{{Key: "profiles", Value: 1}, {Key: "startUTC", Value: 1}}},
			{Keys: bson.D{{Key: "startUTC", Value: 1}}},
		},
		EventLogsColName: {
			{Keys: bson.D{{Key: "eventId", Value: 1}, {Key: "timestampUTC", Value: -1}}},
		},
		ProfilesColName: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetSparse(true)},
		},
	}
	for colName, models := range indexes {
		col, err := mdb.GetCollection(colName)
		if err != nil {
			return err
		}
		if _, err := col.Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", colName, err)
		}
	}
	return nil
}

// storeError classifies a driver error.
func storeError(msg string, err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return NotFound(msg)
	case mongo.IsDuplicateKeyError(err):
		return Conflict("duplicate key", err)
	default:
		return ServerError(msg, err)
	}
}

func pageBounds(page, limit int) (skip int64, lim int64) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}
	return int64((page - 1) * limit), int64(limit)
}
