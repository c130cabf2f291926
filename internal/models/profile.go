package models

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ProfilesColName = "profiles"

	RoleAdmin = "admin"
	RoleUser  = "user"
)

type Profile struct {
	ID           primitive.ObjectID     `bson:"_id" json:"id"`
	Name         string                 `bson:"name" json:"name" validate:"required"`
	Email        string                 `bson:"email,omitempty" json:"email,omitempty" validate:"omitempty,email"`
	Role         string                 `bson:"role" json:"role" validate:"omitempty,oneof=admin user"`
	Timezone     string                 `bson:"timezone,omitempty" json:"timezone,omitempty"`
	Meta         map[string]interface{} `bson:"meta" json:"meta"`
	CreatedAtUTC time.Time              `bson:"createdAtUTC" json:"createdAtUTC"`
	UpdatedAtUTC time.Time              `bson:"updatedAtUTC" json:"updatedAtUTC"`
}

func (p *Profile) BeforeCreate(now time.Time) {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.Role == "" {
		p.Role = RoleUser
	}
	if p.Meta == nil {
		p.Meta = map[string]interface{}{}
	}
	p.CreatedAtUTC = now
	p.UpdatedAtUTC = now
}

func (p *Profile) Summary() ProfileSummary {
	return ProfileSummary{
		ID:       p.ID,
		Name:     p.Name,
		Timezone: p.Timezone,
		Email:    p.Email,
		Role:     p.Role,
	}
}

// ProfileSummary is the subset of a profile embedded in event responses.
type ProfileSummary struct {
	ID       primitive.ObjectID `json:"id"`
	Name     string             `json:"name"`
	Timezone string             `json:"timezone,omitempty"`
	Email    string             `json:"email,omitempty"`
	Role     string             `json:"role"`
}

// Actor is who performs an operation, as established by the auth layer.
type Actor struct {
	ID       primitive.ObjectID
	Role     string
	Timezone string
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// ProfileUpdatableFields are the keys a PATCH may set.
var ProfileUpdatableFields = []string{"name", "timezone", "email", "role", "meta"}

type ProfileRepo interface {
	CreateProfile(ctx context.Context, profile *Profile) (*Profile, error)
	FindProfileByID(ctx context.Context, id primitive.ObjectID) (*Profile, error)
	FindProfileByEmail(ctx context.Context, email string) (*Profile, error)
	FindProfilesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*Profile, error)
	CountExisting(ctx context.Context, ids []primitive.ObjectID) (int64, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, fields map[string]interface{}) (*Profile, error)
	ListProfiles(ctx context.Context, q string, page, limit int) ([]*Profile, int64, error)
}

type EventRepo interface {
	// SaveEvent inserts the event or replaces the stored document with the
	// same id. It is the only write path and is atomic per document.
	SaveEvent(ctx context.Context, event *Event) (*Event, error)
	FindEventByID(ctx context.Context, id primitive.ObjectID) (*Event, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]*Event, int64, error)
}

type EventLogRepo interface {
	SaveEventLog(ctx context.Context, entry *ChangeLogEntry) (*ChangeLogEntry, error)
	// FindLogsByEvent returns one page of entries, newest first.
	FindLogsByEvent(ctx context.Context, eventID primitive.ObjectID, page, limit int) ([]*ChangeLogEntry, int64, error)
}

// ParseObjectIDs converts hex ids, preserving order and duplicates.
func ParseObjectIDs(raw []string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, s := range raw {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			return nil, InvalidInput("invalid profile id %q", s)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// DistinctObjectIDs drops repeated ids, keeping first occurrences.
func DistinctObjectIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

type CreateProfileInput struct {
	Name     string                 `json:"name" validate:"required"`
	Email    string                 `json:"email" validate:"omitempty,email"`
	Role     string                 `json:"role" validate:"omitempty,oneof=admin user"`
	Timezone string                 `json:"timezone"`
	Meta     map[string]interface{} `json:"meta"`
}

// LoginInput identifies a profile by email or, for development, by id.
type LoginInput struct {
	Email     string `json:"email" validate:"omitempty,email"`
	ProfileID string `json:"profileId" validate:"omitempty,mongodb"`
}

type LoginResult struct {
	Token   string         `json:"token"`
	Profile ProfileSummary `json:"profile"`
}
