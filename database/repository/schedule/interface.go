package scheduleRepo

import (
	"context"

	"meetbot/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// BusyIntervalRepository stores participants' busy intervals. It satisfies
// availability.Store and availability.Writer.
type BusyIntervalRepository interface {
	GetBusyIntervals(ctx context.Context, participant, date string) ([]models.BusyInterval, error)
	AddBusyIntervals(ctx context.Context, participant, date string, intervals []models.BusyInterval, source string) error
	DeleteBySource(ctx context.Context, participant, source string) (int64, error)
	EnsureIndexes() error
}

type mongoBusyRepo struct {
	coll *mongo.Collection
}

func NewMongoBusyRepo(db *mongo.Database) BusyIntervalRepository {
	return &mongoBusyRepo{
		coll: db.Collection("busy_intervals"),
	}
}
