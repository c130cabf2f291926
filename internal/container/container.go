package container

import (
	"log/slog"

	"github.com/joshua-takyi/tzevents/internal/config"
	"github.com/joshua-takyi/tzevents/internal/models"
	"github.com/joshua-takyi/tzevents/internal/services"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	MongoDBClient *mongo.Client
	RedisClient   *redis.Client

	ProfileService *services.ProfileService
	EventService   *services.EventService
	LogService     *services.LogService
}

// Stores groups the repositories the services run on.
type Stores struct {
	Profiles models.ProfileRepo
	Events   models.EventRepo
	Logs     models.EventLogRepo
}

// MongoStores backs every repository with one database.
func MongoStores(client *mongo.Client, dbName string) (Stores, *models.MongodbRepo) {
	repo := models.MongodbNewRepo(client, dbName)
	return Stores{Profiles: repo, Events: repo, Logs: repo}, repo
}

func MemoryStores() Stores {
	repo := models.NewMemoryRepo()
	return Stores{Profiles: repo, Events: repo, Logs: repo}
}

// NewContainer wires services over stores. When redisClient is set, profile
// lookups by id go through the cache.
func NewContainer(cfg *config.Config, logger *slog.Logger, stores Stores, mongoDBClient *mongo.Client, redisClient *redis.Client) *Container {
	profiles := stores.Profiles
	if redisClient != nil {
		profiles = models.NewCachedProfileRepo(profiles, models.NewRedisProfileCache(redisClient, cfg.ProfileCacheTTL))
	}

	return &Container{
		Config:         cfg,
		Logger:         logger,
		MongoDBClient:  mongoDBClient,
		RedisClient:    redisClient,
		ProfileService: services.NewProfileService(profiles, cfg.JWTSecret, cfg.JWTTTL),
		EventService:   services.NewEventService(stores.Events, stores.Logs, profiles, logger),
		LogService:     services.NewLogService(stores.Logs),
	}
}
