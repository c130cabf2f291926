package models

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MemoryRepoSuite struct {
	suite.Suite
	repo *MemoryRepo
	ctx  context.Context
}

func TestMemoryRepoSuite(t *testing.T) {
	suite.Run(t, new(MemoryRepoSuite))
}

func (s *MemoryRepoSuite) SetupTest() {
	s.repo = NewMemoryRepo()
	s.ctx = context.Background()
}

func (s *MemoryRepoSuite) newProfile(name, email string) *Profile {
	p := &Profile{Name: name, Email: email}
	p.BeforeCreate(time.Now().UTC())
	_, err := s.repo.CreateProfile(s.ctx, p)
	s.Require().NoError(err)
	return p
}

func (s *MemoryRepoSuite) newEvent(profile primitive.ObjectID, start time.Time, d time.Duration) *Event {
	e := &Event{
		Profiles:      []primitive.ObjectID{profile},
		EventTimezone: "UTC",
		StartUTC:      start,
		EndUTC:        start.Add(d),
		CreatedBy:     profile,
		CreatedAtUTC:  time.Now().UTC(),
	}
	e.BeforeCreate()
	_, err := s.repo.SaveEvent(s.ctx, e)
	s.Require().NoError(err)
	return e
}

func (s *MemoryRepoSuite) TestProfiles() {
	s.Run("finds by id and email", func() {
		p := s.newProfile("Ada", "ada@example.com")

		found, err := s.repo.FindProfileByID(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal("Ada", found.Name)
		s.Equal(RoleUser, found.Role)

		found, err = s.repo.FindProfileByEmail(s.ctx, " ADA@example.com ")
		s.Require().NoError(err)
		s.Equal(p.ID, found.ID)
	})

	s.Run("returns NotFound for unknown id", func() {
		_, err := s.repo.FindProfileByID(s.ctx, primitive.NewObjectID())
		s.True(IsKind(err, KindNotFound))
	})

	s.Run("counts distinct existing ids", func() {
		a := s.newProfile("A", "")
		b := s.newProfile("B", "")
		n, err := s.repo.CountExisting(s.ctx, []primitive.ObjectID{a.ID, b.ID, a.ID, primitive.NewObjectID()})
		s.Require().NoError(err)
		s.Equal(int64(2), n)
	})

	s.Run("updates selected fields", func() {
		p := s.newProfile("Grace", "grace@example.com")
		updated, err := s.repo.UpdateProfile(s.ctx, p.ID, map[string]interface{}{"timezone": "Europe/London"})
		s.Require().NoError(err)
		s.Equal("Europe/London", updated.Timezone)
		s.Equal("Grace", updated.Name)
	})

	s.Run("searches name and email case-insensitively", func() {
		s.newProfile("Zed Searchable", "zed@example.com")
		items, total, err := s.repo.ListProfiles(s.ctx, "searchABLE", 1, 10)
		s.Require().NoError(err)
		s.Equal(int64(1), total)
		s.Len(items, 1)
	})
}

func (s *MemoryRepoSuite) TestEvents() {
	owner := s.newProfile("Owner", "")
	base := time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)

	early := s.newEvent(owner.ID, base, time.Hour)
	late := s.newEvent(owner.ID, base.Add(48*time.Hour), time.Hour)
	deleted := s.newEvent(owner.ID, base.Add(time.Hour), time.Hour)
	deleted.Meta = EventMeta{MetaDeleted: true}
	_, err := s.repo.SaveEvent(s.ctx, deleted)
	s.Require().NoError(err)

	s.Run("stored copies are isolated from callers", func() {
		early.Title = "mutated after save"
		found, err := s.repo.FindEventByID(s.ctx, early.ID)
		s.Require().NoError(err)
		s.Empty(found.Title)
	})

	s.Run("lists by start ascending and hides deleted", func() {
		items, total, err := s.repo.ListEvents(s.ctx, EventFilter{ProfileID: owner.ID, Page: 1, Limit: 10})
		s.Require().NoError(err)
		s.Equal(int64(2), total)
		s.Require().Len(items, 2)
		s.Equal(early.ID, items[0].ID)
		s.Equal(late.ID, items[1].ID)
	})

	s.Run("includes deleted on request", func() {
		_, total, err := s.repo.ListEvents(s.ctx, EventFilter{ProfileID: owner.ID, IncludeDeleted: true, Page: 1, Limit: 10})
		s.Require().NoError(err)
		s.Equal(int64(3), total)
	})

	s.Run("filters by overlap", func() {
		from := base.Add(30 * time.Minute)
		to := base.Add(24 * time.Hour)
		items, _, err := s.repo.ListEvents(s.ctx, EventFilter{ProfileID: owner.ID, From: &from, To: &to, Page: 1, Limit: 10})
		s.Require().NoError(err)
		s.Require().Len(items, 1)
		s.Equal(early.ID, items[0].ID)
	})

	s.Run("paginates", func() {
		items, total, err := s.repo.ListEvents(s.ctx, EventFilter{ProfileID: owner.ID, Page: 2, Limit: 1})
		s.Require().NoError(err)
		s.Equal(int64(2), total)
		s.Require().Len(items, 1)
		s.Equal(late.ID, items[0].ID)
	})
}

func (s *MemoryRepoSuite) TestLogs() {
	eventID := primitive.NewObjectID()
	actor := primitive.NewObjectID()
	base := time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_, err := s.repo.SaveEventLog(s.ctx, &ChangeLogEntry{
			EventID:      eventID,
			ChangedBy:    actor,
			TimestampUTC: base.Add(time.Duration(i) * time.Minute),
			Changes:      []Change{{Field: "title", Before: i, After: i + 1}},
		})
		s.Require().NoError(err)
	}

	s.Run("rejects empty changes", func() {
		_, err := s.repo.SaveEventLog(s.ctx, &ChangeLogEntry{EventID: eventID, ChangedBy: actor})
		s.True(IsKind(err, KindInvalidInput))
	})

	s.Run("returns newest first", func() {
		items, total, err := s.repo.FindLogsByEvent(s.ctx, eventID, 1, 10)
		s.Require().NoError(err)
		s.Equal(int64(3), total)
		s.Require().Len(items, 3)
		s.True(items[0].TimestampUTC.After(items[1].TimestampUTC))
		s.True(items[1].TimestampUTC.After(items[2].TimestampUTC))
	})

	s.Run("scopes by event", func() {
		_, total, err := s.repo.FindLogsByEvent(s.ctx, primitive.NewObjectID(), 1, 10)
		s.Require().NoError(err)
		s.Zero(total)
	})
}
