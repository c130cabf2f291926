package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const EventLogsColName = "event_logs"

// Change is one audited field. Before and After hold the field values as
// they were on the event, not their serialised form.
type Change struct {
	Field  string      `bson:"field" json:"field"`
	Before interface{} `bson:"before" json:"before"`
	After  interface{} `bson:"after" json:"after"`
}

// ChangeLogEntry is written once per update that changed at least one
// tracked field and is never modified afterwards.
type ChangeLogEntry struct {
	ID                primitive.ObjectID `bson:"_id" json:"id"`
	EventID           primitive.ObjectID `bson:"eventId" json:"eventId"`
	ChangedBy         primitive.ObjectID `bson:"changedBy" json:"changedBy"`
	TimestampUTC      time.Time          `bson:"timestampUTC" json:"timestampUTC"`
	TimestampLocal    *string            `bson:"timestampLocal" json:"timestampLocal"`
	ChangedByTimezone *string            `bson:"changedByTimezone" json:"changedByTimezone"`
	Changes           []Change           `bson:"changes" json:"changes"`
	Note              string             `bson:"note" json:"note"`
}

func (l *ChangeLogEntry) BeforeCreate() {
	if l.ID.IsZero() {
		l.ID = primitive.NewObjectID()
	}
}

func (l *ChangeLogEntry) Validate() error {
	if l.EventID.IsZero() {
		return InvalidInput("change log entry needs an event")
	}
	if l.ChangedBy.IsZero() {
		return InvalidInput("change log entry needs an actor")
	}
	if len(l.Changes) == 0 {
		return InvalidInput("change log entry changes must be non-empty")
	}
	return nil
}

// NewChangeLogEntry builds the audit entry for one update of event.
func NewChangeLogEntry(event *Event, actorID primitive.ObjectID, at time.Time, tz string, changes []Change, note string) *ChangeLogEntry {
	return &ChangeLogEntry{
		EventID:           event.ID,
		ChangedBy:         actorID,
		TimestampUTC:      at,
		ChangedByTimezone: StringPtr(tz),
		Changes:           changes,
		Note:              note,
	}
}
