package services

import (
	"context"
	"testing"
	"time"

	"github.com/joshua-takyi/tzevents/internal/helpers"
	"github.com/joshua-takyi/tzevents/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "test_secret"

func newProfileService(t *testing.T) (*ProfileService, *models.MemoryRepo) {
	t.Helper()
	repo := models.NewMemoryRepo()
	return NewProfileService(repo, testSecret, time.Hour), repo
}

func TestCreateProfile(t *testing.T) {
	ctx := context.Background()
	svc, repo := newProfileService(t)

	p, err := svc.CreateProfile(ctx, &models.CreateProfileInput{Name: " Ada ", Email: "Ada@Example.com", Timezone: "Europe/London"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", p.Name)
	assert.Equal(t, "ada@example.com", p.Email)
	assert.Equal(t, models.RoleUser, p.Role)
	assert.False(t, p.ID.IsZero())

	stored, err := repo.FindProfileByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, p.ID, stored.ID)

	_, err = svc.CreateProfile(ctx, &models.CreateProfileInput{Email: "x@example.com"})
	assert.Equal(t, models.KindInvalidInput, models.KindOf(err))

	_, err = svc.CreateProfile(ctx, &models.CreateProfileInput{Name: "X", Role: "owner"})
	assert.Equal(t, models.KindInvalidInput, models.KindOf(err))
}

func TestUpdateProfilePermissions(t *testing.T) {
	ctx := context.Background()
	svc, _ := newProfileService(t)

	user, err := svc.CreateProfile(ctx, &models.CreateProfileInput{Name: "User"})
	require.NoError(t, err)
	other, err := svc.CreateProfile(ctx, &models.CreateProfileInput{Name: "Other"})
	require.NoError(t, err)
	admin, err := svc.CreateProfile(ctx, &models.CreateProfileInput{Name: "Admin", Role: models.RoleAdmin})
	require.NoError(t, err)

	self := models.Actor{ID: user.ID, Role: user.Role}
	root := models.Actor{ID: admin.ID, Role: admin.Role}

	updated, err := svc.UpdateProfile(ctx, self, user.ID, map[string]interface{}{"timezone": "Asia/Tokyo", "ignored": true})
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tokyo", updated.Timezone)
	assert.True(t, updated.UpdatedAtUTC.After(user.UpdatedAtUTC) || updated.UpdatedAtUTC.Equal(user.UpdatedAtUTC))

	_, err = svc.UpdateProfile(ctx, self, other.ID, map[string]interface{}{"name": "Hacked"})
	assert.Equal(t, models.KindForbidden, models.KindOf(err))

	_, err = svc.UpdateProfile(ctx, self, user.ID, map[string]interface{}{"role": models.RoleAdmin})
	assert.Equal(t, models.KindForbidden, models.KindOf(err))

	promoted, err := svc.UpdateProfile(ctx, root, other.ID, map[string]interface{}{"role": models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, promoted.Role)

	_, err = svc.UpdateProfile(ctx, root, other.ID, map[string]interface{}{"email": "not-an-email"})
	assert.Equal(t, models.KindInvalidInput, models.KindOf(err))

	_, err = svc.UpdateProfile(ctx, root, other.ID, map[string]interface{}{"unknown": 1})
	assert.Equal(t, models.KindInvalidInput, models.KindOf(err))

	_, err = svc.UpdateProfile(ctx, root, primitive.NewObjectID(), map[string]interface{}{"name": "Ghost"})
	assert.Equal(t, models.KindNotFound, models.KindOf(err))
}

func TestLoginAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc, repo := newProfileService(t)

	p, err := svc.CreateProfile(ctx, &models.CreateProfileInput{Name: "Ada", Email: "ada@example.com", Timezone: "Europe/London"})
	require.NoError(t, err)

	t.Run("by email", func(t *testing.T) {
		res, err := svc.Login(ctx, &models.LoginInput{Email: "ada@example.com"})
		require.NoError(t, err)
		assert.NotEmpty(t, res.Token)
		assert.Equal(t, p.ID, res.Profile.ID)

		claims, err := helpers.ValidateToken([]byte(testSecret), res.Token)
		require.NoError(t, err)
		assert.Equal(t, p.ID.Hex(), claims.Subject)
		assert.Equal(t, models.RoleUser, claims.Role)
		assert.Equal(t, "Europe/London", claims.Timezone)
	})

	t.Run("by profile id", func(t *testing.T) {
		res, err := svc.Login(ctx, &models.LoginInput{ProfileID: p.ID.Hex()})
		require.NoError(t, err)
		assert.Equal(t, "Ada", res.Profile.Name)
	})

	t.Run("rejections", func(t *testing.T) {
		_, err := svc.Login(ctx, &models.LoginInput{})
		assert.Equal(t, models.KindInvalidInput, models.KindOf(err))

		_, err = svc.Login(ctx, &models.LoginInput{Email: "nobody@example.com"})
		assert.Equal(t, models.KindUnauthorized, models.KindOf(err))

		_, err = svc.Login(ctx, &models.LoginInput{ProfileID: "xyz"})
		assert.Equal(t, models.KindInvalidInput, models.KindOf(err))
	})

	t.Run("authenticate reloads the profile", func(t *testing.T) {
		res, err := svc.Login(ctx, &models.LoginInput{Email: "ada@example.com"})
		require.NoError(t, err)

		_, err = repo.UpdateProfile(ctx, p.ID, map[string]interface{}{"role": models.RoleAdmin, "timezone": "Asia/Tokyo"})
		require.NoError(t, err)

		claims, err := svc.Authenticate(ctx, res.Token)
		require.NoError(t, err)
		assert.True(t, claims.IsAdmin())
		assert.Equal(t, "Asia/Tokyo", claims.Timezone)
		assert.True(t, claims.IsOwner(p.ID.Hex()))
	})

	t.Run("cleared timezone is not taken from the token", func(t *testing.T) {
		tokyo, err := svc.CreateProfile(ctx, &models.CreateProfileInput{Name: "Kenji", Timezone: "Asia/Tokyo"})
		require.NoError(t, err)
		res, err := svc.Login(ctx, &models.LoginInput{ProfileID: tokyo.ID.Hex()})
		require.NoError(t, err)

		_, err = repo.UpdateProfile(ctx, tokyo.ID, map[string]interface{}{"timezone": ""})
		require.NoError(t, err)

		claims, err := svc.Authenticate(ctx, res.Token)
		require.NoError(t, err)
		assert.Empty(t, claims.Timezone)
		assert.Equal(t, "Asia/Tokyo", claims.CustomClaims.Timezone)
	})

	t.Run("authenticate rejects bad tokens", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "garbage")
		assert.Equal(t, models.KindUnauthorized, models.KindOf(err))

		foreign, err := helpers.IssueToken([]byte("other"), p.ID.Hex(), "admin", "", time.Hour)
		require.NoError(t, err)
		_, err = svc.Authenticate(ctx, foreign)
		assert.Equal(t, models.KindUnauthorized, models.KindOf(err))

		ghost, err := helpers.IssueToken([]byte(testSecret), primitive.NewObjectID().Hex(), "admin", "", time.Hour)
		require.NoError(t, err)
		_, err = svc.Authenticate(ctx, ghost)
		assert.Equal(t, models.KindUnauthorized, models.KindOf(err))

		expired, err := helpers.IssueToken([]byte(testSecret), p.ID.Hex(), "user", "", -time.Minute)
		require.NoError(t, err)
		_, err = svc.Authenticate(ctx, expired)
		assert.Equal(t, models.KindUnauthorized, models.KindOf(err))
	})
}

func TestListLogsForEvent(t *testing.T) {
	ctx := context.Background()
	repo := models.NewMemoryRepo()
	svc := NewLogService(repo)
	eventID := primitive.NewObjectID()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := repo.SaveEventLog(ctx, &models.ChangeLogEntry{
			EventID:      eventID,
			ChangedBy:    primitive.NewObjectID(),
			TimestampUTC: base.Add(time.Duration(i) * time.Minute),
			Changes:      []models.Change{{Field: "title", Before: i, After: i + 1}},
		})
		require.NoError(t, err)
	}

	items, total, err := svc.ListLogsForEvent(ctx, eventID, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, items, 2)
	assert.Equal(t, base.Add(2*time.Minute), items[0].TimestampUTC)

	_, _, err = svc.ListLogsForEvent(ctx, primitive.NilObjectID, 1, 10)
	assert.Equal(t, models.KindInvalidInput, models.KindOf(err))
}
