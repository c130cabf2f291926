package models

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

func (mdb *MongodbRepo) SaveEventLog(ctx context.Context, entry *ChangeLogEntry) (*ChangeLogEntry, error) {
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	entry.BeforeCreate()

	col, err := mdb.GetCollection(EventLogsColName)
	if err != nil {
		return nil, ServerError("failed to save change log entry", err)
	}
	if _, err := col.InsertOne(ctx, entry); err != nil {
		return nil, storeError("failed to save change log entry", err)
	}
	return entry, nil
}

func (mdb *MongodbRepo) FindLogsByEvent(ctx context.Context, eventID primitive.ObjectID, page, limit int) ([]*ChangeLogEntry, int64, error) {
	col, err := mdb.GetCollection(EventLogsColName)
	if err != nil {
		return nil, 0, ServerError("failed to list change log", err)
	}

	filter := bson.M{"eventId": eventID}
	skip, lim := pageBounds(page, limit)

	var (
		entries []*ChangeLogEntry
		total   int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		opts := options.Find().
			SetSort(bson.D{{Key: "timestampUTC", Value: -1}, {Key: "_id", Value: -1}}).
			SetSkip(skip).
			SetLimit(lim)
		cursor, err := col.Find(gctx, filter, opts)
		if err != nil {
			return fmt.Errorf("error finding change log: %w", err)
		}
		defer cursor.Close(gctx)

		entries = make([]*ChangeLogEntry, 0, lim)
		return cursor.All(gctx, &entries)
	})
	g.Go(func() error {
		n, err := col.CountDocuments(gctx, filter)
		if err != nil {
			return fmt.Errorf("error counting change log: %w", err)
		}
		total = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, ServerError("failed to list change log", err)
	}
	return entries, total, nil
}
