package meetingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"meetbot/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrMeetingNotFound = errors.New("meeting not found")

// Create inserts a finalized meeting and returns its ID. Inserting the same ID
// twice is not an error, so a redelivered submission stays a single record.
func (r *mongoMeetingRepo) Create(ctx context.Context, meeting models.FinalizedMeeting) (string, error) {
	if meeting.ID == "" {
		meeting.ID = uuid.New().String()
	}
	if meeting.CreatedAt.IsZero() {
		meeting.CreatedAt = time.Now()
	}

	_, err := r.coll.InsertOne(ctx, meeting)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return meeting.ID, nil
		}
		return "", fmt.Errorf("failed to insert meeting: %w", err)
	}
	return meeting.ID, nil
}

// GetByID returns a meeting by its ID.
func (r *mongoMeetingRepo) GetByID(ctx context.Context, id string) (*models.FinalizedMeeting, error) {
	var meeting models.FinalizedMeeting
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&meeting)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrMeetingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &meeting, nil
}

// ListByOrganizer returns the meetings organized by an identity, earliest first.
func (r *mongoMeetingRepo) ListByOrganizer(ctx context.Context, organizer string) ([]models.FinalizedMeeting, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"organizer": organizer}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var meetings []models.FinalizedMeeting
	if err := cursor.All(ctx, &meetings); err != nil {
		return nil, err
	}
	return meetings, nil
}

// EnsureIndexes creates the indexes on the meetings collection.
func (r *mongoMeetingRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		{
			Keys:    bson.D{{Key: "organizer", Value: 1}, {Key: "start", Value: 1}},
			Options: options.Index().SetName("organizer_start_idx"),
		},
		{
			Keys:    bson.D{{Key: "participantEmails", Value: 1}},
			Options: options.Index().SetName("participant_idx"),
		},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create meeting indexes: %w", err)
	}
	return nil
}
