package model

// ChatEntry is one line of a scenario's starter conversation
type ChatEntry struct {
	Speaker string `json:"speaker" bson:"speaker"`
	Message string `json:"message" bson:"message"`
}

// Scenario is an admin-authored prompt plus seed dialogue
type Scenario struct {
	ID                  string      `json:"id" bson:"_id"`
	Title               string      `json:"title" bson:"title"`
	ScenarioText        string      `json:"scenarioText" bson:"scenarioText"`
	StarterConversation []ChatEntry `json:"starterConversation" bson:"starterConversation"`
}

// ScenarioConfig is the single config document in the scenarios collection.
// It points at the currently active scenario and is never itself a scenario.
type ScenarioConfig struct {
	ID                 string `json:"-" bson:"_id"`
	SelectedScenarioID string `json:"selectedScenarioId" bson:"selectedScenarioId"`
}

// ConfigDocID is the reserved id of the active-scenario pointer document
const ConfigDocID = "config"
