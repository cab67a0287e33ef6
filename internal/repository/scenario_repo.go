package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/eduwang/tmssr-250809/internal/model"
)

// ScenarioRepo handles MongoDB operations for scenarios and the
// active-scenario pointer document
type ScenarioRepo interface {
	List(ctx context.Context) ([]*model.Scenario, error)
	GetByID(ctx context.Context, id string) (*model.Scenario, error)
	Save(ctx context.Context, scenario *model.Scenario) error
	Delete(ctx context.Context, id string) error
	GetConfig(ctx context.Context) (*model.ScenarioConfig, error)
	SetSelected(ctx context.Context, scenarioID string) error
}

type scenarioRepo struct {
	collection *mongo.Collection
}

// NewScenarioRepo creates a new scenario repository
func NewScenarioRepo(db *mongo.Database) ScenarioRepo {
	return &scenarioRepo{
		collection: db.Collection("scenarios"),
	}
}

func (r *scenarioRepo) List(ctx context.Context) ([]*model.Scenario, error) {
	// the config pointer lives in the same collection and is never a scenario
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$ne": model.ConfigDocID}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var scenarios []*model.Scenario
	if err := cursor.All(ctx, &scenarios); err != nil {
		return nil, err
	}
	return scenarios, nil
}

func (r *scenarioRepo) GetByID(ctx context.Context, id string) (*model.Scenario, error) {
	if id == model.ConfigDocID {
		return nil, nil
	}

	var scenario model.Scenario
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&scenario)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &scenario, nil
}

func (r *scenarioRepo) Save(ctx context.Context, scenario *model.Scenario) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": scenario.ID}, scenario, opts)
	return err
}

func (r *scenarioRepo) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *scenarioRepo) GetConfig(ctx context.Context) (*model.ScenarioConfig, error) {
	var cfg model.ScenarioConfig
	err := r.collection.FindOne(ctx, bson.M{"_id": model.ConfigDocID}).Decode(&cfg)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *scenarioRepo) SetSelected(ctx context.Context, scenarioID string) error {
	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": model.ConfigDocID},
		bson.M{"$set": bson.M{"selectedScenarioId": scenarioID}},
		opts)
	return err
}
