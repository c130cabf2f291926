package models

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepo keeps profiles, events and change logs in process memory. It is
// used by tests and by STORAGE_DRIVER=memory. Reads and writes copy
// documents so callers never share state with the store, matching the
// document semantics of the Mongo repository.
type MemoryRepo struct {
	mu       sync.RWMutex
	profiles map[primitive.ObjectID]*Profile
	events   map[primitive.ObjectID]*Event
	logs     []*ChangeLogEntry
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		profiles: make(map[primitive.ObjectID]*Profile),
		events:   make(map[primitive.ObjectID]*Event),
	}
}

func copyProfile(p *Profile) *Profile {
	out := *p
	if p.Meta != nil {
		out.Meta = make(map[string]interface{}, len(p.Meta))
		for k, v := range p.Meta {
			out.Meta[k] = v
		}
	}
	return &out
}

func (m *MemoryRepo) CreateProfile(ctx context.Context, profile *Profile) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.profiles[profile.ID]; exists {
		return nil, Conflict("duplicate key", nil)
	}
	m.profiles[profile.ID] = copyProfile(profile)
	return profile, nil
}

func (m *MemoryRepo) FindProfileByID(ctx context.Context, id primitive.ObjectID) (*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, NotFound("profile not found")
	}
	return copyProfile(p), nil
}

func (m *MemoryRepo) FindProfileByEmail(ctx context.Context, email string) (*Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.profiles {
		if p.Email != "" && p.Email == email {
			return copyProfile(p), nil
		}
	}
	return nil, NotFound("profile not found")
}

func (m *MemoryRepo) FindProfilesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*Profile{}
	for _, id := range DistinctObjectIDs(ids) {
		if p, ok := m.profiles[id]; ok {
			out = append(out, copyProfile(p))
		}
	}
	return out, nil
}

func (m *MemoryRepo) CountExisting(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, id := range DistinctObjectIDs(ids) {
		if _, ok := m.profiles[id]; ok {
			n++
		}
	}
	return n, nil
}

func (m *MemoryRepo) UpdateProfile(ctx context.Context, id primitive.ObjectID, fields map[string]interface{}) (*Profile, error) {
	if len(fields) == 0 {
		return nil, InvalidInput("no fields to update")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, NotFound("profile not found")
	}
	updated := copyProfile(p)
	applyProfileFields(updated, fields)
	m.profiles[id] = updated
	return copyProfile(updated), nil
}

func (m *MemoryRepo) ListProfiles(ctx context.Context, q string, page, limit int) ([]*Profile, int64, error) {
	q = strings.ToLower(strings.TrimSpace(q))
	m.mu.RLock()
	matched := []*Profile{}
	for _, p := range m.profiles {
		if q == "" || strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Email), q) {
			matched = append(matched, copyProfile(p))
		}
	}
	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
	return paginate(matched, page, limit), int64(len(matched)), nil
}

func (m *MemoryRepo) SaveEvent(ctx context.Context, event *Event) (*Event, error) {
	if event.ID.IsZero() {
		return nil, InvalidInput("event id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[event.ID] = event.Clone()
	return event, nil
}

func (m *MemoryRepo) FindEventByID(ctx context.Context, id primitive.ObjectID) (*Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.events[id]
	if !ok {
		return nil, NotFound("event not found")
	}
	return e.Clone(), nil
}

func (m *MemoryRepo) ListEvents(ctx context.Context, filter EventFilter) ([]*Event, int64, error) {
	m.mu.RLock()
	matched := []*Event{}
	for _, e := range m.events {
		if !e.IsAssigned(filter.ProfileID) {
			continue
		}
		if !filter.IncludeDeleted && e.IsDeleted() {
			continue
		}
		if filter.To != nil && e.StartUTC.After(*filter.To) {
			continue
		}
		if filter.From != nil && e.EndUTC.Before(*filter.From) {
			continue
		}
		matched = append(matched, e.Clone())
	}
	m.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].StartUTC.Before(matched[j].StartUTC) })
	return paginate(matched, filter.Page, filter.Limit), int64(len(matched)), nil
}

func (m *MemoryRepo) SaveEventLog(ctx context.Context, entry *ChangeLogEntry) (*ChangeLogEntry, error) {
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	entry.BeforeCreate()
	stored := *entry
	stored.Changes = append([]Change(nil), entry.Changes...)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, &stored)
	return entry, nil
}

func (m *MemoryRepo) FindLogsByEvent(ctx context.Context, eventID primitive.ObjectID, page, limit int) ([]*ChangeLogEntry, int64, error) {
	m.mu.RLock()
	matched := []*ChangeLogEntry{}
	// newest writes first so equal timestamps keep reverse insertion order
	for i := len(m.logs) - 1; i >= 0; i-- {
		if m.logs[i].EventID == eventID {
			entry := *m.logs[i]
			matched = append(matched, &entry)
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].TimestampUTC.After(matched[j].TimestampUTC) })
	return paginate(matched, page, limit), int64(len(matched)), nil
}

func paginate[T any](items []T, page, limit int) []T {
	skip, lim := pageBounds(page, limit)
	if skip >= int64(len(items)) {
		return []T{}
	}
	end := skip + lim
	if end > int64(len(items)) {
		end = int64(len(items))
	}
	return items[skip:end]
}

func applyProfileFields(p *Profile, fields map[string]interface{}) {
	for key, value := range fields {
		switch key {
		case "name":
			p.Name, _ = value.(string)
		case "email":
			p.Email, _ = value.(string)
		case "role":
			p.Role, _ = value.(string)
		case "timezone":
			p.Timezone, _ = value.(string)
		case "meta":
			if meta, ok := value.(map[string]interface{}); ok {
				p.Meta = meta
			}
		case "updatedAtUTC":
			if t, ok := value.(time.Time); ok {
				p.UpdatedAtUTC = t
			}
		}
	}
}
