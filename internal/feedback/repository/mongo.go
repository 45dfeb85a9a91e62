package repository

import (
	"context"

	"github.com/inkbloom/inkbloom/internal/content"
	"github.com/inkbloom/inkbloom/internal/feedback"
	"github.com/inkbloom/inkbloom/internal/models"
	"go.mongodb.org/mongo-driver/bson"
)

// MongoRepo implements Repository on the FEEDBACK collection. Indexes are
// created by database.EnsureIndexes.
type MongoRepo struct {
	repo content.Repository
}

func NewMongoRepo(repo content.Repository) *MongoRepo {
	return &MongoRepo{repo: repo}
}

func (m *MongoRepo) Create(ctx context.Context, f *feedback.Feedback) error {
	return m.repo.Insert(ctx, models.FeedbackCollection, f)
}

func (m *MongoRepo) List(ctx context.Context, limit int64) ([]feedback.Feedback, error) {
	out := []feedback.Feedback{}
	opts := content.FindOptions{Sort: bson.D{{Key: "_id", Value: -1}}, Limit: limit}
	if err := m.repo.FindMany(ctx, models.FeedbackCollection, bson.M{}, opts, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *MongoRepo) ListForUser(ctx context.Context, userID string) ([]feedback.Feedback, error) {
	out := []feedback.Feedback{}
	opts := content.FindOptions{Sort: bson.D{{Key: "_id", Value: -1}}}
	if err := m.repo.FindMany(ctx, models.FeedbackCollection, bson.M{"user_id": userID}, opts, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *MongoRepo) DeleteForUser(ctx context.Context, userID string) (int64, error) {
	return m.repo.Delete(ctx, models.FeedbackCollection, bson.M{"user_id": userID})
}
