package models

import (
	"bytes"
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TrackedFields is the audited field set, in the order changes are reported.
// Anything else on an event (local strings, stamps) is never diffed.
var TrackedFields = []string{
	"title",
	"description",
	"profiles",
	"eventTimezone",
	"startUTC",
	"endUTC",
	"meta",
}

// DiffEvents compares the tracked fields of two snapshots of the same event.
// Values are compared by their canonical JSON form, so profiles are equal
// only when they hold the same ids in the same order. An empty result means
// no log entry must be written.
func DiffEvents(before, after *Event) []Change {
	var changes []Change
	for _, field := range TrackedFields {
		b := trackedValue(before, field)
		a := trackedValue(after, field)
		if !sameValue(b, a) {
			changes = append(changes, Change{Field: field, Before: b, After: a})
		}
	}
	return changes
}

func trackedValue(e *Event, field string) interface{} {
	if e == nil {
		return nil
	}
	switch field {
	case "title":
		return e.Title
	case "description":
		return e.Description
	case "profiles":
		if e.Profiles == nil {
			return []primitive.ObjectID{}
		}
		return append([]primitive.ObjectID(nil), e.Profiles...)
	case "eventTimezone":
		return e.EventTimezone
	case "startUTC":
		return utcValue(e.StartUTC)
	case "endUTC":
		return utcValue(e.EndUTC)
	case "meta":
		if e.Meta == nil {
			return EventMeta{}
		}
		return e.Meta.Clone()
	}
	return nil
}

func utcValue(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

func sameValue(a, b interface{}) bool {
	ca, errA := json.Marshal(a)
	cb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		// unserialisable values are reported as changed
		return false
	}
	return bytes.Equal(ca, cb)
}
