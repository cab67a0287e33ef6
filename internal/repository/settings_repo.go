package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/eduwang/tmssr-250809/internal/model"
)

// SettingsRepo handles the feedback toggle document
type SettingsRepo interface {
	GetFeedback(ctx context.Context) (*model.FeedbackSettings, error)
	SetFeedback(ctx context.Context, enabled bool) error
}

type settingsRepo struct {
	collection *mongo.Collection
}

// NewSettingsRepo creates a new settings repository
func NewSettingsRepo(db *mongo.Database) SettingsRepo {
	return &settingsRepo{
		collection: db.Collection("settings"),
	}
}

func (r *settingsRepo) GetFeedback(ctx context.Context) (*model.FeedbackSettings, error) {
	var settings model.FeedbackSettings
	err := r.collection.FindOne(ctx, bson.M{"_id": model.FeedbackSettingsDocID}).Decode(&settings)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *settingsRepo) SetFeedback(ctx context.Context, enabled bool) error {
	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": model.FeedbackSettingsDocID},
		bson.M{"$set": bson.M{"enabled": enabled}},
		opts)
	return err
}
