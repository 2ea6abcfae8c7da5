package meetingRepo

import (
	"context"

	"meetbot/models"

	"go.mongodb.org/mongo-driver/mongo"
)

type MeetingRepository interface {
	Create(ctx context.Context, meeting models.FinalizedMeeting) (string, error)
	GetByID(ctx context.Context, id string) (*models.FinalizedMeeting, error)
	ListByOrganizer(ctx context.Context, organizer string) ([]models.FinalizedMeeting, error)
	EnsureIndexes() error
}

type mongoMeetingRepo struct {
	coll *mongo.Collection
}

// NewMongoMeetingRepo returns a MeetingRepository backed by the "meetings" collection of db.
func NewMongoMeetingRepo(db *mongo.Database) MeetingRepository {
	return &mongoMeetingRepo{
		coll: db.Collection("meetings"),
	}
}
