package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestEventQuery(t *testing.T) {
	profile := primitive.NewObjectID()
	from := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC)
	notDeleted := bson.M{"$ne": true}

	cases := []struct {
		name   string
		filter EventFilter
		want   bson.M
	}{
		{
			name:   "profile only",
			filter: EventFilter{ProfileID: profile},
			want:   bson.M{"profiles": profile, "meta.deleted": notDeleted},
		},
		{
			name:   "window overlap",
			filter: EventFilter{ProfileID: profile, From: &from, To: &to},
			want: bson.M{
				"profiles":     profile,
				"startUTC":     bson.M{"$lte": to},
				"endUTC":       bson.M{"$gte": from},
				"meta.deleted": notDeleted,
			},
		},
		{
			name:   "from only",
			filter: EventFilter{ProfileID: profile, From: &from},
			want:   bson.M{"profiles": profile, "endUTC": bson.M{"$gte": from}, "meta.deleted": notDeleted},
		},
		{
			name:   "to only",
			filter: EventFilter{ProfileID: profile, To: &to},
			want:   bson.M{"profiles": profile, "startUTC": bson.M{"$lte": to}, "meta.deleted": notDeleted},
		},
		{
			name:   "include deleted",
			filter: EventFilter{ProfileID: profile, From: &from, IncludeDeleted: true},
			want:   bson.M{"profiles": profile, "endUTC": bson.M{"$gte": from}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, eventQuery(tc.filter))
		})
	}
}
