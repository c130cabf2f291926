package models

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

func (mdb *MongodbRepo) SaveEvent(ctx context.Context, event *Event) (*Event, error) {
	if event.ID.IsZero() {
		return nil, InvalidInput("event id is required")
	}
	col, err := mdb.GetCollection(EventsColName)
	if err != nil {
		return nil, ServerError("failed to save event", err)
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := col.ReplaceOne(ctx, bson.M{"_id": event.ID}, event, opts); err != nil {
		return nil, storeError("failed to save event", err)
	}
	return event, nil
}

func (mdb *MongodbRepo) FindEventByID(ctx context.Context, id primitive.ObjectID) (*Event, error) {
	col, err := mdb.GetCollection(EventsColName)
	if err != nil {
		return nil, ServerError("failed to find event", err)
	}

	var event Event
	if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&event); err != nil {
		return nil, storeError("event not found", err)
	}
	return &event, nil
}

func eventQuery(filter EventFilter) bson.M {
	q := bson.M{"profiles": filter.ProfileID}
	switch {
	case filter.From != nil && filter.To != nil:
		// overlap
		q["startUTC"] = bson.M{"$lte": *filter.To}
		q["endUTC"] = bson.M{"$gte": *filter.From}
	case filter.From != nil:
		q["endUTC"] = bson.M{"$gte": *filter.From}
	case filter.To != nil:
		q["startUTC"] = bson.M{"$lte": *filter.To}
	}
	if !filter.IncludeDeleted {
		q["meta."+MetaDeleted] = bson.M{"$ne": true}
	}
	return q
}

func (mdb *MongodbRepo) ListEvents(ctx context.Context, filter EventFilter) ([]*Event, int64, error) {
	col, err := mdb.GetCollection(EventsColName)
	if err != nil {
		return nil, 0, ServerError("failed to list events", err)
	}

	q := eventQuery(filter)
	skip, limit := pageBounds(filter.Page, filter.Limit)

	var (
		events []*Event
		total  int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		opts := options.Find().
			SetSort(bson.D{{Key: "startUTC", Value: 1}}).
			SetSkip(skip).
			SetLimit(limit)
		cursor, err := col.Find(gctx, q, opts)
		if err != nil {
			return fmt.Errorf("error finding events: %w", err)
		}
		defer cursor.Close(gctx)

		events = make([]*Event, 0, limit)
		for cursor.Next(gctx) {
			var event Event
			if err := cursor.Decode(&event); err != nil {
				return fmt.Errorf("error decoding event: %w", err)
			}
			events = append(events, &event)
		}
		return cursor.Err()
	})
	g.Go(func() error {
		n, err := col.CountDocuments(gctx, q)
		if err != nil {
			return fmt.Errorf("error counting events: %w", err)
		}
		total = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, ServerError("failed to list events", err)
	}
	return events, total, nil
}
