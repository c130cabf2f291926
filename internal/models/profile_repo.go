package models

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

func (mdb *MongodbRepo) CreateProfile(ctx context.Context, profile *Profile) (*Profile, error) {
	col, err := mdb.GetCollection(ProfilesColName)
	if err != nil {
		return nil, ServerError("failed to create profile", err)
	}
	if _, err := col.InsertOne(ctx, profile); err != nil {
		return nil, storeError("failed to create profile", err)
	}
	return profile, nil
}

func (mdb *MongodbRepo) FindProfileByID(ctx context.Context, id primitive.ObjectID) (*Profile, error) {
	return mdb.findProfile(ctx, bson.M{"_id": id})
}

func (mdb *MongodbRepo) FindProfileByEmail(ctx context.Context, email string) (*Profile, error) {
	return mdb.findProfile(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (mdb *MongodbRepo) findProfile(ctx context.Context, filter bson.M) (*Profile, error) {
	col, err := mdb.GetCollection(ProfilesColName)
	if err != nil {
		return nil, ServerError("failed to find profile", err)
	}
	var profile Profile
	if err := col.FindOne(ctx, filter).Decode(&profile); err != nil {
		return nil, storeError("profile not found", err)
	}
	return &profile, nil
}

func (mdb *MongodbRepo) FindProfilesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*Profile, error) {
	if len(ids) == 0 {
		return []*Profile{}, nil
	}
	col, err := mdb.GetCollection(ProfilesColName)
	if err != nil {
		return nil, ServerError("failed to find profiles", err)
	}
	cursor, err := col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, ServerError("failed to find profiles", err)
	}
	profiles := []*Profile{}
	if err := cursor.All(ctx, &profiles); err != nil {
		return nil, ServerError("failed to decode profiles", err)
	}
	return profiles, nil
}

func (mdb *MongodbRepo) CountExisting(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	col, err := mdb.GetCollection(ProfilesColName)
	if err != nil {
		return 0, ServerError("failed to count profiles", err)
	}
	n, err := col.CountDocuments(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, ServerError("failed to count profiles", err)
	}
	return n, nil
}

func (mdb *MongodbRepo) UpdateProfile(ctx context.Context, id primitive.ObjectID, fields map[string]interface{}) (*Profile, error) {
	if len(fields) == 0 {
		return nil, InvalidInput("no fields to update")
	}
	col, err := mdb.GetCollection(ProfilesColName)
	if err != nil {
		return nil, ServerError("failed to update profile", err)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated Profile
	err = col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, opts).Decode(&updated)
	if err != nil {
		return nil, storeError("profile not found", err)
	}
	return &updated, nil
}

func (mdb *MongodbRepo) ListProfiles(ctx context.Context, q string, page, limit int) ([]*Profile, int64, error) {
	col, err := mdb.GetCollection(ProfilesColName)
	if err != nil {
		return nil, 0, ServerError("failed to list profiles", err)
	}

	filter := bson.M{}
	if q = strings.TrimSpace(q); q != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"email": pattern},
		}
	}
	skip, lim := pageBounds(page, limit)

	var (
		profiles []*Profile
		total    int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}}).SetSkip(skip).SetLimit(lim)
		cursor, err := col.Find(gctx, filter, opts)
		if err != nil {
			return fmt.Errorf("error finding profiles: %w", err)
		}
		profiles = []*Profile{}
		return cursor.All(gctx, &profiles)
	})
	g.Go(func() error {
		n, err := col.CountDocuments(gctx, filter)
		total = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, ServerError("failed to list profiles", err)
	}
	return profiles, total, nil
}
