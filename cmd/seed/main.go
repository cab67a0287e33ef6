package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/eduwang/tmssr-250809/internal/model"
)

func main() {
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}
	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "lessonplay"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(dbName)
	scenarioColl := db.Collection("scenarios")
	settingsColl := db.Collection("settings")

	scenario := model.Scenario{
		ID:           fmt.Sprintf("scenario_%d", time.Now().UnixMilli()),
		Title:        "분수의 덧셈 오개념",
		ScenarioText: "한 학생이 1/2 + 1/3을 계산하면서 분자끼리, 분모끼리 더해 2/5라고 답했습니다. 교사로서 학생의 사고를 이끌어내고 오개념을 다루는 대화를 이어가 보세요.",
		StarterConversation: []model.ChatEntry{
			{Speaker: "학생", Message: "선생님, 1/2 더하기 1/3은 2/5예요."},
			{Speaker: "학생", Message: "위에 있는 수끼리 더하고 아래 있는 수끼리 더했어요."},
		},
	}

	if _, err := scenarioColl.InsertOne(ctx, scenario); err != nil {
		log.Fatalf("Failed to insert scenario: %v", err)
	}

	// Point the active-scenario config at the seeded scenario
	opts := options.Update().SetUpsert(true)
	if _, err := scenarioColl.UpdateOne(ctx,
		bson.M{"_id": model.ConfigDocID},
		bson.M{"$set": bson.M{"selectedScenarioId": scenario.ID}},
		opts); err != nil {
		log.Fatalf("Failed to select scenario: %v", err)
	}

	// Feedback starts disabled; the admin toggles it from the dashboard
	if _, err := settingsColl.UpdateOne(ctx,
		bson.M{"_id": model.FeedbackSettingsDocID},
		bson.M{"$set": bson.M{"enabled": false}},
		opts); err != nil {
		log.Fatalf("Failed to write feedback settings: %v", err)
	}

	fmt.Printf("Seeded scenario '%s' (%s) and selected it\n", scenario.Title, scenario.ID)
}
