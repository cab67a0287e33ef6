package model

// FeedbackSettings is the single toggle document controlling whether
// feedback generation is exposed to learners at all.
type FeedbackSettings struct {
	ID      string `json:"-" bson:"_id"`
	Enabled bool   `json:"enabled" bson:"enabled"`
}

// FeedbackSettingsDocID is the reserved id of the toggle document
const FeedbackSettingsDocID = "feedback"
