package services

import (
	"context"

	"github.com/joshua-takyi/tzevents/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type LogService struct {
	logRepo models.EventLogRepo
}

func NewLogService(logRepo models.EventLogRepo) *LogService {
	return &LogService{
		logRepo: logRepo,
	}
}

// ListLogsForEvent returns one page of the event's change log, newest
// first. Whether the caller may see the event is checked by the handler.
func (ls *LogService) ListLogsForEvent(ctx context.Context, eventID primitive.ObjectID, page, limit int) ([]*models.ChangeLogEntry, int64, error) {
	if eventID.IsZero() {
		return nil, 0, models.InvalidInput("invalid event ID")
	}
	if page < 1 || limit < 1 {
		return nil, 0, models.InvalidInput("invalid page or limit")
	}
	return ls.logRepo.FindLogsByEvent(ctx, eventID, page, limit)
}
