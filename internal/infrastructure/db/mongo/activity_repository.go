package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hamudihigo-collab/aidcore/internal/core/domain"
	"github.com/hamudihigo-collab/aidcore/internal/core/ports"
)

const collectionActivity = "case_activity"

type activityDocument struct {
	CaseID     int64             `bson:"case_id"`
	CaseNumber string            `bson:"case_number"`
	ActorID    int64             `bson:"actor_id"`
	ActorRole  string            `bson:"actor_role"`
	Action     string            `bson:"action"`
	OccurredAt time.Time         `bson:"occurred_at"`
	RecordedAt time.Time         `bson:"recorded_at"`
	Metadata   map[string]string `bson:"metadata,omitempty"`
}

// ActivityRepository implements ports.ActivityRepository on the case_activity
// collection. Documents are only ever inserted.
type ActivityRepository struct {
	col *mongo.Collection
}

var _ ports.ActivityRepository = (*ActivityRepository)(nil)

func NewActivityRepository(db *mongo.Database) *ActivityRepository {
	return &ActivityRepository{col: db.Collection(collectionActivity)}
}

// EnsureIndexes creates the (case_id, occurred_at desc) index used by
// ListByCase. Safe to call on every start.
func (r *ActivityRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "case_id", Value: 1}, {Key: "occurred_at", Value: -1}},
		Options: options.Index().SetName("case_id_occurred_at"),
	})
	if err != nil {
		return fmt.Errorf("create activity index: %w", err)
	}
	return nil
}

// Record appends event to the trail.
func (r *ActivityRepository) Record(ctx context.Context, event domain.ActivityEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := activityDocument{
		CaseID:     event.CaseID,
		CaseNumber: event.CaseNumber,
		ActorID:    event.ActorID,
		ActorRole:  string(event.ActorRole),
		Action:     string(event.Action),
		OccurredAt: event.OccurredAt.UTC(),
		RecordedAt: time.Now().UTC(),
		Metadata:   event.Metadata,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// ListByCase returns up to limit events for caseID, newest first.
func (r *ActivityRepository) ListByCase(ctx context.Context, caseID int64, limit int) ([]domain.ActivityEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "occurred_at", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := r.col.Find(ctx, bson.M{"case_id": caseID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find activity: %w", err)
	}

	var docs []activityDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode activity: %w", err)
	}

	events := make([]domain.ActivityEvent, 0, len(docs))
	for _, d := range docs {
		events = append(events, domain.ActivityEvent{
			CaseID:     d.CaseID,
			CaseNumber: d.CaseNumber,
			ActorID:    d.ActorID,
			ActorRole:  domain.Role(d.ActorRole),
			Action:     domain.ActivityAction(d.Action),
			OccurredAt: d.OccurredAt,
			Metadata:   d.Metadata,
		})
	}
	return events, nil
}
