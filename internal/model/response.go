package model

import (
	"strings"
	"time"
)

// ResponseKind discriminates learner submissions
type ResponseKind string

const (
	// KindConversation is a plain transcript submission
	KindConversation ResponseKind = "conversation"
	// KindFeedback is a transcript submitted together with generated feedback
	KindFeedback ResponseKind = "feedback"
)

// ConvEntry is one line of a submitted transcript. Seed lines carry
// isUser=false and always precede learner lines in array order.
type ConvEntry struct {
	Speaker string `json:"speaker" bson:"speaker"`
	Message string `json:"message" bson:"message"`
	IsUser  bool   `json:"isUser" bson:"isUser"`
}

// Response is one learner submission. IDs follow the
// <uid>_<activity>_<epoch-millis> convention, so uniqueness is by
// construction. Activity 2 historically wrote updatedAt instead of
// createdAt; both fields are kept and resolved at load.
type Response struct {
	ID           string       `json:"id" bson:"_id"`
	UID          string       `json:"uid" bson:"uid"`
	DisplayName  string       `json:"displayName" bson:"displayName"`
	Email        string       `json:"email" bson:"email"`
	ScenarioID   string       `json:"scenarioId" bson:"scenarioId"`
	CreatedAt    *time.Time   `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
	UpdatedAt    *time.Time   `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
	Type         ResponseKind `json:"type,omitempty" bson:"type,omitempty"`
	Conversation []ConvEntry  `json:"conversation" bson:"conversation"`
	Feedback     string       `json:"feedback,omitempty" bson:"feedback,omitempty"`
}

// activity markers embedded in legacy document ids, longest first so that
// "lessonPlayFeedback" is never matched as "lessonPlay"
var idMarkers = []struct {
	marker string
	kind   ResponseKind
}{
	{"lessonPlayFeedback", KindFeedback},
	{"lessonPlay", KindConversation},
	{"page2", KindFeedback},
	{"page1", KindConversation},
}

// Kind classifies a response. The explicit type field wins; otherwise the
// document id is scanned for an activity marker. The second return is false
// when neither path classifies the document.
func (r *Response) Kind() (ResponseKind, bool) {
	switch r.Type {
	case KindConversation, KindFeedback:
		return r.Type, true
	}
	for _, m := range idMarkers {
		if strings.Contains(r.ID, m.marker) {
			return m.kind, true
		}
	}
	return "", false
}

// Timestamp resolves the nominal creation time: createdAt, else updatedAt,
// else the supplied fallback (the aggregation wall clock, never persisted).
func (r *Response) Timestamp(fallback time.Time) time.Time {
	if r.CreatedAt != nil {
		return *r.CreatedAt
	}
	if r.UpdatedAt != nil {
		return *r.UpdatedAt
	}
	return fallback
}
