package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/joshua-takyi/tzevents/internal/metrics"
	"github.com/joshua-takyi/tzevents/internal/models"
	"github.com/joshua-takyi/tzevents/internal/timeutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventService owns event creation, updates and soft deletion, and writes
// the change log. It holds no per-event state: every call reads the event,
// computes, and writes it back. Concurrent updates to one event are
// last-write-wins.
type EventService struct {
	events   models.EventRepo
	logs     models.EventLogRepo
	profiles models.ProfileRepo
	logger   *slog.Logger
	now      func() time.Time
}

func NewEventService(events models.EventRepo, logs models.EventLogRepo, profiles models.ProfileRepo, logger *slog.Logger) *EventService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventService{
		events:   events,
		logs:     logs,
		profiles: profiles,
		logger:   logger,
		now:      time.Now,
	}
}

// SetClock replaces the time source used for audit stamps.
func (es *EventService) SetClock(now func() time.Time) {
	es.now = now
}

func (es *EventService) clock() time.Time {
	return es.now().UTC().Truncate(time.Millisecond)
}

// nextStamp returns a mutation time strictly after the event's last stamp,
// so change log entries for one event never share a timestamp.
func (es *EventService) nextStamp(event *models.Event) time.Time {
	now := es.clock()
	last := event.CreatedAtUTC
	if event.UpdatedAtUTC != nil && event.UpdatedAtUTC.After(last) {
		last = *event.UpdatedAtUTC
	}
	if !now.After(last) {
		return last.Add(time.Millisecond)
	}
	return now
}

func invalidTime(err error) error {
	if errors.Is(err, timeutil.ErrInvalidTime) {
		return models.InvalidInput("%s", strings.TrimPrefix(err.Error(), timeutil.ErrInvalidTime.Error()+": "))
	}
	return err
}

// ensureProfilesExist checks every referenced profile exists. Repeated ids
// are counted once.
func (es *EventService) ensureProfilesExist(ctx context.Context, ids []primitive.ObjectID) error {
	distinct := models.DistinctObjectIDs(ids)
	n, err := es.profiles.CountExisting(ctx, distinct)
	if err != nil {
		return err
	}
	if n != int64(len(distinct)) {
		return models.NotFound("one or more profiles not found")
	}
	return nil
}

func (es *EventService) parseProfiles(ctx context.Context, raw []string) ([]primitive.ObjectID, error) {
	if len(raw) == 0 {
		return nil, models.InvalidInput("profiles required")
	}
	ids, err := models.ParseObjectIDs(raw)
	if err != nil {
		return nil, err
	}
	if err := es.ensureProfilesExist(ctx, ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// resolveLocalTimes converts a start/end pair entered in tz.
func resolveLocalTimes(startLocal, endLocal, tz string) (time.Time, time.Time, error) {
	start, err := timeutil.LocalToUTC(startLocal, tz)
	if err != nil {
		return time.Time{}, time.Time{}, invalidTime(err)
	}
	end, err := timeutil.LocalToUTC(endLocal, tz)
	if err != nil {
		return time.Time{}, time.Time{}, invalidTime(err)
	}
	return start, end, nil
}

func resolveISOTimes(startISO, endISO string) (time.Time, time.Time, error) {
	start, err := timeutil.ISOToUTC(startISO)
	if err != nil {
		return time.Time{}, time.Time{}, invalidTime(err)
	}
	end, err := timeutil.ISOToUTC(endISO)
	if err != nil {
		return time.Time{}, time.Time{}, invalidTime(err)
	}
	return start, end, nil
}

func (es *EventService) CreateEvent(ctx context.Context, actor models.Actor, input *models.CreateEventInput) (*models.Event, error) {
	if input == nil || len(input.Profiles) == 0 {
		return nil, models.InvalidInput("profiles required")
	}
	if err := models.Validate.Struct(input); err != nil {
		return nil, models.InvalidInput("invalid event data provided: %v", err)
	}

	profileIDs, err := es.parseProfiles(ctx, input.Profiles)
	if err != nil {
		return nil, err
	}

	event := &models.Event{
		Title:         strings.TrimSpace(input.Title),
		Description:   input.Description,
		Profiles:      profileIDs,
		EventTimezone: strings.TrimSpace(input.EventTimezone),
		CreatedBy:     actor.ID,
	}

	switch {
	case input.StartLocal != "" && input.EndLocal != "" && event.EventTimezone != "":
		event.StartUTC, event.EndUTC, err = resolveLocalTimes(input.StartLocal, input.EndLocal, event.EventTimezone)
		event.StartLocal = models.StringPtr(input.StartLocal)
		event.EndLocal = models.StringPtr(input.EndLocal)
	case input.StartISO != "" && input.EndISO != "":
		event.StartUTC, event.EndUTC, err = resolveISOTimes(input.StartISO, input.EndISO)
	default:
		return nil, models.InvalidInput("invalid date input")
	}
	if err != nil {
		return nil, err
	}
	if event.EndUTC.Before(event.StartUTC) {
		return nil, models.InvalidInput("end must be >= start")
	}

	now := es.clock()
	tz := timeutil.ResolveTimezone(actor.Timezone, event.EventTimezone)
	event.CreatedAtUTC = now
	event.CreatedAtLocal = timeutil.LocalStamp(now, tz)
	event.CreatedByTimezone = models.StringPtr(tz)
	event.BeforeCreate()

	if err := event.CheckInvariants(); err != nil {
		return nil, err
	}
	saved, err := es.events.SaveEvent(ctx, event)
	if err != nil {
		return nil, err
	}
	metrics.EventMutations.WithLabelValues("create").Inc()
	return saved, nil
}

func (es *EventService) GetEvent(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	if id.IsZero() {
		return nil, models.InvalidInput("invalid event ID")
	}
	return es.events.FindEventByID(ctx, id)
}

func (es *EventService) ListEvents(ctx context.Context, filter models.EventFilter) ([]*models.Event, int64, error) {
	if filter.ProfileID.IsZero() {
		return nil, 0, models.InvalidInput("profileId is required")
	}
	if filter.Page < 1 || filter.Limit < 1 {
		return nil, 0, models.InvalidInput("invalid page or limit")
	}
	return es.events.ListEvents(ctx, filter)
}

// applyTimes re-derives the event times from an update. Local strings win
// when the full (startLocal, endLocal, eventTimezone) triple is present; an
// ISO pair only moves the instants and leaves the local representation as
// it was. Anything else leaves the times alone.
func applyTimes(event *models.Event, upd *models.EventUpdate) error {
	hasLocal := nonEmpty(upd.StartLocal) && nonEmpty(upd.EndLocal)
	hasISO := nonEmpty(upd.StartISO) && nonEmpty(upd.EndISO)

	switch {
	case hasLocal && nonEmpty(upd.EventTimezone):
		tz := strings.TrimSpace(*upd.EventTimezone)
		start, end, err := resolveLocalTimes(*upd.StartLocal, *upd.EndLocal, tz)
		if err != nil {
			return err
		}
		event.StartUTC, event.EndUTC = start, end
		event.StartLocal = models.StringPtr(*upd.StartLocal)
		event.EndLocal = models.StringPtr(*upd.EndLocal)
		event.EventTimezone = tz
	case hasISO:
		start, end, err := resolveISOTimes(*upd.StartISO, *upd.EndISO)
		if err != nil {
			return err
		}
		event.StartUTC, event.EndUTC = start, end
	}
	return nil
}

func nonEmpty(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

// UpdateEvent applies a partial update and records a change log entry when
// a tracked field changed. The caller is expected to have authorised actor.
// A failed log write does not fail the update: the event is already saved.
func (es *EventService) UpdateEvent(ctx context.Context, eventID primitive.ObjectID, actor models.Actor, upd *models.EventUpdate) (*models.Event, error) {
	if upd == nil {
		upd = &models.EventUpdate{}
	}
	event, err := es.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	before := event.Clone()

	if err := applyTimes(event, upd); err != nil {
		return nil, err
	}
	if upd.Title != nil {
		event.Title = strings.TrimSpace(*upd.Title)
	}
	if upd.Description != nil {
		event.Description = *upd.Description
	}
	if upd.Profiles != nil {
		ids, err := es.parseProfiles(ctx, *upd.Profiles)
		if err != nil {
			return nil, err
		}
		event.Profiles = ids
	}
	if upd.Meta != nil {
		event.Meta = upd.Meta.Clone()
	}
	if err := event.CheckInvariants(); err != nil {
		return nil, err
	}

	now := es.nextStamp(before)
	tz := timeutil.ResolveTimezone(actor.Timezone, event.EventTimezone)
	stampUpdate(event, actor.ID, now, tz)

	saved, err := es.events.SaveEvent(ctx, event)
	if err != nil {
		return nil, err
	}
	metrics.EventMutations.WithLabelValues("update").Inc()

	es.recordChanges(ctx, before, saved, actor, now, upd.Note)
	return saved, nil
}

func stampUpdate(event *models.Event, actorID primitive.ObjectID, now time.Time, tz string) {
	event.UpdatedBy = &actorID
	event.UpdatedAtUTC = &now
	event.UpdatedAtLocal = timeutil.LocalStamp(now, tz)
	event.UpdatedByTimezone = models.StringPtr(tz)
}

// recordChanges diffs the two snapshots and persists one entry when
// anything tracked changed.
func (es *EventService) recordChanges(ctx context.Context, before, after *models.Event, actor models.Actor, now time.Time, note string) *models.ChangeLogEntry {
	changes := models.DiffEvents(before, after)
	if len(changes) == 0 {
		return nil
	}

	tz := timeutil.ResolveTimezone(actor.Timezone, after.EventTimezone)
	entry := models.NewChangeLogEntry(after, actor.ID, now, tz, changes, note)
	entry.TimestampLocal = timeutil.LocalStamp(now, tz)
	saved, err := es.logs.SaveEventLog(ctx, entry)
	if err != nil {
		metrics.ChangeLogWriteFailures.Inc()
		es.logger.Error("Failed to write change log entry",
			"event_id", after.ID.Hex(),
			"actor_id", actor.ID.Hex(),
			"fields", len(changes),
			"error", err,
		)
		return nil
	}
	metrics.ChangeLogEntries.Inc()
	return saved
}

// SoftDeleteEvent flags the event as deleted. It is not diffed and leaves
// the change log untouched.
func (es *EventService) SoftDeleteEvent(ctx context.Context, eventID primitive.ObjectID, actor models.Actor) (*models.DeleteResult, error) {
	event, err := es.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if event.Meta == nil {
		event.Meta = models.EventMeta{}
	}
	now := es.nextStamp(event)
	event.Meta[models.MetaDeleted] = true

	stampUpdate(event, actor.ID, now, timeutil.ResolveTimezone(actor.Timezone, event.EventTimezone))

	if _, err := es.events.SaveEvent(ctx, event); err != nil {
		return nil, err
	}
	metrics.EventMutations.WithLabelValues("delete").Inc()
	return &models.DeleteResult{ID: event.ID, Deleted: true}, nil
}

// Describe resolves profile references and renders the event times in the
// viewer's timezone, falling back to the event's own zone.
func (es *EventService) Describe(ctx context.Context, event *models.Event, viewerTimezone string) (*models.EventDetail, error) {
	ids := append([]primitive.ObjectID{}, event.Profiles...)
	ids = append(ids, event.CreatedBy)
	if event.UpdatedBy != nil {
		ids = append(ids, *event.UpdatedBy)
	}
	found, err := es.profiles.FindProfilesByIDs(ctx, models.DistinctObjectIDs(ids))
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]*models.Profile, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}

	detail := &models.EventDetail{Event: event, Profiles: []models.ProfileSummary{}}
	for _, id := range event.Profiles {
		if p, ok := byID[id]; ok {
			detail.Profiles = append(detail.Profiles, p.Summary())
		}
	}
	if p, ok := byID[event.CreatedBy]; ok {
		s := p.Summary()
		detail.CreatedBy = &s
	}
	if event.UpdatedBy != nil {
		if p, ok := byID[*event.UpdatedBy]; ok {
			s := p.Summary()
			detail.UpdatedBy = &s
		}
	}

	tz := timeutil.ResolveTimezone(viewerTimezone, event.EventTimezone)
	detail.ViewerTimezone = tz
	detail.StartViewer = timeutil.UTCToLocalString(event.StartUTC, tz, timeutil.OffsetLayout)
	detail.EndViewer = timeutil.UTCToLocalString(event.EndUTC, tz, timeutil.OffsetLayout)
	return detail, nil
}
