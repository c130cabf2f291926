package services

import (
	"context"
	"strings"
	"time"

	"github.com/joshua-takyi/tzevents/internal/helpers"
	"github.com/joshua-takyi/tzevents/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProfileService struct {
	profileRepo models.ProfileRepo
	jwtSecret   []byte
	tokenTTL    time.Duration
}

func NewProfileService(profileRepo models.ProfileRepo, jwtSecret string, tokenTTL time.Duration) *ProfileService {
	return &ProfileService{
		profileRepo: profileRepo,
		jwtSecret:   []byte(jwtSecret),
		tokenTTL:    tokenTTL,
	}
}

func (ps *ProfileService) CreateProfile(ctx context.Context, input *models.CreateProfileInput) (*models.Profile, error) {
	if err := models.Validate.Struct(input); err != nil {
		return nil, models.InvalidInput("invalid profile data provided: %v", err)
	}

	profile := &models.Profile{
		Name:     strings.TrimSpace(input.Name),
		Email:    strings.ToLower(strings.TrimSpace(input.Email)),
		Role:     input.Role,
		Timezone: strings.TrimSpace(input.Timezone),
		Meta:     input.Meta,
	}
	profile.BeforeCreate(time.Now().UTC().Truncate(time.Millisecond))

	return ps.profileRepo.CreateProfile(ctx, profile)
}

func (ps *ProfileService) GetProfile(ctx context.Context, id primitive.ObjectID) (*models.Profile, error) {
	if id.IsZero() {
		return nil, models.InvalidInput("invalid profile ID")
	}
	return ps.profileRepo.FindProfileByID(ctx, id)
}

func (ps *ProfileService) ListProfiles(ctx context.Context, q string, page, limit int) ([]*models.Profile, int64, error) {
	if page < 1 || limit < 1 {
		return nil, 0, models.InvalidInput("invalid page or limit")
	}
	return ps.profileRepo.ListProfiles(ctx, strings.TrimSpace(q), page, limit)
}

// UpdateProfile applies the allowed keys of fields. Profiles may edit
// themselves; only admins may edit others or change a role.
func (ps *ProfileService) UpdateProfile(ctx context.Context, actor models.Actor, id primitive.ObjectID, fields map[string]interface{}) (*models.Profile, error) {
	if id.IsZero() {
		return nil, models.InvalidInput("invalid profile ID")
	}
	if !actor.IsAdmin() && actor.ID != id {
		return nil, models.Forbidden("not allowed to update this profile")
	}

	updates := make(map[string]interface{})
	for _, key := range models.ProfileUpdatableFields {
		value, ok := fields[key]
		if !ok {
			continue
		}
		switch key {
		case "name":
			name, ok := value.(string)
			if !ok || strings.TrimSpace(name) == "" {
				return nil, models.InvalidInput("name must be a non-empty string")
			}
			value = strings.TrimSpace(name)
		case "email":
			email, ok := value.(string)
			if !ok {
				return nil, models.InvalidInput("email must be a string")
			}
			email = strings.ToLower(strings.TrimSpace(email))
			if err := models.Validate.Var(email, "omitempty,email"); err != nil {
				return nil, models.InvalidInput("invalid email format")
			}
			value = email
		case "role":
			if !actor.IsAdmin() {
				return nil, models.Forbidden("only admins can change roles")
			}
			role, _ := value.(string)
			if role != models.RoleAdmin && role != models.RoleUser {
				return nil, models.InvalidInput("role must be admin or user")
			}
		case "timezone":
			tz, ok := value.(string)
			if !ok {
				return nil, models.InvalidInput("timezone must be a string")
			}
			value = strings.TrimSpace(tz)
		case "meta":
			if _, ok := value.(map[string]interface{}); !ok {
				return nil, models.InvalidInput("meta must be an object")
			}
		}
		updates[key] = value
	}
	if len(updates) == 0 {
		return nil, models.InvalidInput("no fields to update")
	}
	updates["updatedAtUTC"] = time.Now().UTC().Truncate(time.Millisecond)

	return ps.profileRepo.UpdateProfile(ctx, id, updates)
}

// Login issues an access token for the profile identified by profileId or
// email. There is no password step.
func (ps *ProfileService) Login(ctx context.Context, input *models.LoginInput) (*models.LoginResult, error) {
	if input == nil || (input.Email == "" && input.ProfileID == "") {
		return nil, models.InvalidInput("email or profileId required")
	}
	if err := models.Validate.Struct(input); err != nil {
		return nil, models.InvalidInput("invalid login data provided: %v", err)
	}

	var (
		profile *models.Profile
		err     error
	)
	if input.ProfileID != "" {
		id, _ := primitive.ObjectIDFromHex(input.ProfileID)
		profile, err = ps.profileRepo.FindProfileByID(ctx, id)
	} else {
		profile, err = ps.profileRepo.FindProfileByEmail(ctx, input.Email)
	}
	if err != nil {
		if models.IsKind(err, models.KindNotFound) {
			return nil, models.Unauthorized("invalid credentials")
		}
		return nil, err
	}

	token, err := helpers.IssueToken(ps.jwtSecret, profile.ID.Hex(), profile.Role, profile.Timezone, ps.tokenTTL)
	if err != nil {
		return nil, models.ServerError("failed to issue token", err)
	}
	return &models.LoginResult{Token: token, Profile: profile.Summary()}, nil
}

// Authenticate resolves a token to the current state of its profile.
func (ps *ProfileService) Authenticate(ctx context.Context, token string) (*helpers.EnhancedClaims, error) {
	claims, err := helpers.ValidateToken(ps.jwtSecret, token)
	if err != nil {
		return nil, models.Unauthorized("invalid or expired token")
	}
	id, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return nil, models.Unauthorized("invalid token payload")
	}
	profile, err := ps.profileRepo.FindProfileByID(ctx, id)
	if err != nil {
		if models.IsKind(err, models.KindNotFound) {
			return nil, models.Unauthorized("profile not found")
		}
		return nil, err
	}

	role := profile.Role
	if role == "" {
		role = claims.Role
	}
	return &helpers.EnhancedClaims{
		CustomClaims: claims,
		UserID:       profile.ID.Hex(),
		Role:         role,
		Timezone:     profile.Timezone,
		Email:        profile.Email,
		Name:         profile.Name,
	}, nil
}

func (ps *ProfileService) TokenTTL() time.Duration {
	return ps.tokenTTL
}
