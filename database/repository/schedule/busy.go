package scheduleRepo

import (
	"context"
	"fmt"
	"time"

	"meetbot/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const queryTimeout = 5 * time.Second

// GetBusyIntervals returns participant's busy intervals on date ordered by start.
// No documents means the participant is free all day.
func (r *mongoBusyRepo) GetBusyIntervals(ctx context.Context, participant, date string) ([]models.BusyInterval, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	filter := bson.M{"participant": participant, "date": date}
	opts := options.Find().
		SetSort(bson.D{{Key: "start", Value: 1}}).
		SetProjection(bson.M{"start": 1, "end": 1, "_id": 0})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query busy intervals: %w", err)
	}
	defer cursor.Close(ctx)

	var intervals []models.BusyInterval
	if err := cursor.All(ctx, &intervals); err != nil {
		return nil, fmt.Errorf("failed to decode busy intervals: %w", err)
	}
	return intervals, nil
}

// AddBusyIntervals inserts intervals for participant on date, tagged with source.
func (r *mongoBusyRepo) AddBusyIntervals(ctx context.Context, participant, date string, intervals []models.BusyInterval, source string) error {
	if len(intervals) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	now := time.Now()
	docs := make([]interface{}, 0, len(intervals))
	for _, iv := range intervals {
		docs = append(docs, models.BusyIntervalRecord{
			ID:          uuid.New().String(),
			Participant: participant,
			Date:        date,
			Start:       iv.Start,
			End:         iv.End,
			Source:      source,
			CreatedAt:   now,
		})
	}

	if _, err := r.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert busy intervals: %w", err)
	}
	return nil
}

// DeleteBySource removes every interval of participant imported from source, so a
// calendar can be re-imported without duplicating entries.
func (r *mongoBusyRepo) DeleteBySource(ctx context.Context, participant, source string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, bson.M{"participant": participant, "source": source})
	if err != nil {
		return 0, fmt.Errorf("failed to delete busy intervals: %w", err)
	}
	return res.DeletedCount, nil
}

// EnsureIndexes creates the indexes on the busy_intervals collection.
func (r *mongoBusyRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		// Primary lookup: one participant on one date.
		{
			Keys:    bson.D{{Key: "participant", Value: 1}, {Key: "date", Value: 1}, {Key: "start", Value: 1}},
			Options: options.Index().SetName("participant_date_start_idx"),
		},
		{
			Keys:    bson.D{{Key: "participant", Value: 1}, {Key: "source", Value: 1}},
			Options: options.Index().SetName("participant_source_idx"),
		},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create busy interval indexes: %w", err)
	}
	return nil
}
