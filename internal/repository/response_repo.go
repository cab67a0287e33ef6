package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/eduwang/tmssr-250809/internal/model"
)

// ResponseRepo handles MongoDB operations for learner submissions.
// Documents are append-only: Create inserts exactly once and there is no
// update path.
type ResponseRepo interface {
	Create(ctx context.Context, response *model.Response) error
	GetByID(ctx context.Context, id string) (*model.Response, error)
	ListAll(ctx context.Context) ([]model.Response, error)
	ListByUserScenario(ctx context.Context, uid, scenarioID string) ([]model.Response, error)
	Delete(ctx context.Context, id string) error
}

type responseRepo struct {
	collection *mongo.Collection
}

// NewResponseRepo creates a new response repository
func NewResponseRepo(db *mongo.Database) ResponseRepo {
	return &responseRepo{
		collection: db.Collection("responses"),
	}
}

func (r *responseRepo) Create(ctx context.Context, response *model.Response) error {
	_, err := r.collection.InsertOne(ctx, response)
	return err
}

func (r *responseRepo) GetByID(ctx context.Context, id string) (*model.Response, error) {
	var response model.Response
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&response)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// ListAll is the single bulk fetch the aggregator works from; the result is
// treated as an immutable snapshot for one render pass.
func (r *responseRepo) ListAll(ctx context.Context) ([]model.Response, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var responses []model.Response
	if err := cursor.All(ctx, &responses); err != nil {
		return nil, err
	}
	return responses, nil
}

func (r *responseRepo) ListByUserScenario(ctx context.Context, uid, scenarioID string) ([]model.Response, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"uid": uid, "scenarioId": scenarioID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var responses []model.Response
	if err := cursor.All(ctx, &responses); err != nil {
		return nil, err
	}
	return responses, nil
}

func (r *responseRepo) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
