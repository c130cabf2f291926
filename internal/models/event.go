package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	EventsColName = "events"

	// MetaDeleted is the meta key that marks a soft-deleted event.
	MetaDeleted = "deleted"
)

// EventMeta is the open extension bag of an event. Updates replace it
// wholesale; only soft delete merges into it.
type EventMeta map[string]interface{}

func (m EventMeta) Deleted() bool {
	deleted, _ := m[MetaDeleted].(bool)
	return deleted
}

// Clone copies the top level of the bag. Nested values are shared, which is
// fine because nothing mutates them in place.
func (m EventMeta) Clone() EventMeta {
	out := make(EventMeta, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type Event struct {
	ID          primitive.ObjectID   `bson:"_id" json:"id"`
	Title       string               `bson:"title" json:"title"`
	Description string               `bson:"description" json:"description"`
	Profiles    []primitive.ObjectID `bson:"profiles" json:"profiles"`

	// EventTimezone is the IANA zone StartLocal/EndLocal were entered in.
	EventTimezone string    `bson:"eventTimezone" json:"eventTimezone"`
	StartUTC      time.Time `bson:"startUTC" json:"startUTC"`
	EndUTC        time.Time `bson:"endUTC" json:"endUTC"`
	StartLocal    *string   `bson:"startLocal" json:"startLocal"`
	EndLocal      *string   `bson:"endLocal" json:"endLocal"`

	CreatedBy         primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	CreatedAtUTC      time.Time          `bson:"createdAtUTC" json:"createdAtUTC"`
	CreatedAtLocal    *string            `bson:"createdAtLocal" json:"createdAtLocal"`
	CreatedByTimezone *string            `bson:"createdByTimezone" json:"createdByTimezone"`

	UpdatedBy         *primitive.ObjectID `bson:"updatedBy" json:"updatedBy"`
	UpdatedAtUTC      *time.Time          `bson:"updatedAtUTC" json:"updatedAtUTC"`
	UpdatedAtLocal    *string             `bson:"updatedAtLocal" json:"updatedAtLocal"`
	UpdatedByTimezone *string             `bson:"updatedByTimezone" json:"updatedByTimezone"`

	Meta EventMeta `bson:"meta" json:"meta"`
}

func (e *Event) BeforeCreate() {
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	if e.Meta == nil {
		e.Meta = EventMeta{}
	}
}

// CheckInvariants is run before every write of an event.
func (e *Event) CheckInvariants() error {
	if len(e.Profiles) == 0 {
		return InvalidInput("event must be assigned to at least one profile")
	}
	if e.EventTimezone == "" {
		return InvalidInput("event timezone (IANA) is required")
	}
	if e.StartUTC.IsZero() || e.EndUTC.IsZero() {
		return InvalidInput("start and end are required")
	}
	if e.EndUTC.Before(e.StartUTC) {
		return InvalidInput("end must be >= start")
	}
	return nil
}

func (e *Event) IsAssigned(profileID primitive.ObjectID) bool {
	for _, id := range e.Profiles {
		if id == profileID {
			return true
		}
	}
	return false
}

func (e *Event) IsDeleted() bool {
	return e.Meta.Deleted()
}

// Clone returns a deep enough copy to serve as the "before" snapshot of an
// update: every field the update path can replace is copied.
func (e *Event) Clone() *Event {
	out := *e
	out.Profiles = append([]primitive.ObjectID(nil), e.Profiles...)
	if e.Meta != nil {
		out.Meta = e.Meta.Clone()
	}
	out.StartLocal = cloneString(e.StartLocal)
	out.EndLocal = cloneString(e.EndLocal)
	out.CreatedAtLocal = cloneString(e.CreatedAtLocal)
	out.CreatedByTimezone = cloneString(e.CreatedByTimezone)
	out.UpdatedAtLocal = cloneString(e.UpdatedAtLocal)
	out.UpdatedByTimezone = cloneString(e.UpdatedByTimezone)
	if e.UpdatedBy != nil {
		id := *e.UpdatedBy
		out.UpdatedBy = &id
	}
	if e.UpdatedAtUTC != nil {
		t := *e.UpdatedAtUTC
		out.UpdatedAtUTC = &t
	}
	return &out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// StringPtr returns nil for "" so optional fields serialise as null.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// CreateEventInput is the create payload. Times come either as local strings
// plus EventTimezone or as ISO instants.
type CreateEventInput struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Profiles      []string `json:"profiles" validate:"required,min=1,dive,mongodb"`
	EventTimezone string   `json:"eventTimezone"`
	StartLocal    string   `json:"startLocal" validate:"omitempty,datetime=2006-01-02T15:04"`
	EndLocal      string   `json:"endLocal" validate:"omitempty,datetime=2006-01-02T15:04"`
	StartISO      string   `json:"startISO"`
	EndISO        string   `json:"endISO"`
}

// EventUpdate is a partial update: nil fields are left untouched.
type EventUpdate struct {
	Title         *string    `json:"title"`
	Description   *string    `json:"description"`
	Profiles      *[]string  `json:"profiles"`
	Meta          *EventMeta `json:"meta"`
	EventTimezone *string    `json:"eventTimezone"`
	StartLocal    *string    `json:"startLocal"`
	EndLocal      *string    `json:"endLocal"`
	StartISO      *string    `json:"startISO"`
	EndISO        *string    `json:"endISO"`
	Note          string     `json:"note"`
}

type EventFilter struct {
	ProfileID      primitive.ObjectID
	From           *time.Time
	To             *time.Time
	IncludeDeleted bool
	Page           int
	Limit          int
}

type DeleteResult struct {
	ID      primitive.ObjectID `json:"id"`
	Deleted bool               `json:"deleted"`
}

// EventDetail is an event with its profile references resolved and its
// times rendered for one viewer.
type EventDetail struct {
	*Event
	Profiles       []ProfileSummary `json:"profiles"`
	CreatedBy      *ProfileSummary  `json:"createdBy"`
	UpdatedBy      *ProfileSummary  `json:"updatedBy"`
	ViewerTimezone string           `json:"viewerTimezone,omitempty"`
	StartViewer    string           `json:"startViewer,omitempty"`
	EndViewer      string           `json:"endViewer,omitempty"`
}
