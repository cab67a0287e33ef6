package aggregate

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduwang/tmssr-250809/internal/model"
)

func ts(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func doc(uid, name, kind string, at *time.Time) model.Response {
	var millis int64
	if at != nil {
		millis = at.UnixMilli()
	}
	return model.Response{
		ID:           fmt.Sprintf("%s_%s_%d", uid, kind, millis),
		UID:          uid,
		DisplayName:  name,
		Email:        uid + "@example.com",
		ScenarioID:   "scenario_1",
		CreatedAt:    at,
		Conversation: []model.ConvEntry{{Speaker: "T", Message: "hi", IsUser: false}},
	}
}

func TestDisplayDateFixedOffset(t *testing.T) {
	// 2024-03-01T16:30Z is already 2024-03-02 in UTC+9
	at := ts("2024-03-01T16:30:00Z")
	assert.Equal(t, "2024-03-02", DisplayDate(*at))
	// deriving twice from the same instant is identical
	assert.Equal(t, DisplayDate(*at), DisplayDate(*at))

	// an instant expressed in another zone buckets the same
	other := at.In(time.FixedZone("UTC-5", -5*60*60))
	assert.Equal(t, "2024-03-02", DisplayDate(other))
}

func TestLoadClassification(t *testing.T) {
	now := time.Now()
	docs := []model.Response{
		doc("u1", "Alice", "lessonPlay", ts("2024-03-01T01:00:00Z")),
		doc("u1", "Alice", "lessonPlayFeedback", ts("2024-03-01T02:00:00Z")),
		{ID: "weird-doc-without-marker", UID: "u2", ScenarioID: "scenario_1"},
		{ID: "u3_page1_17000", UID: "", ScenarioID: ""}, // no uid, no scenario
	}
	// explicit type field wins over the id marker
	docs[0].Type = model.KindFeedback

	snap := Load(docs, now)
	require.Equal(t, 2, snap.Len())

	res := snap.Filter(Query{UserID: AllUsers, AllDates: true, IncludeFeedback: true})
	require.Len(t, res, 2)
	for _, e := range res {
		assert.Equal(t, model.KindFeedback, e.Kind)
	}
}

func TestLoadLegacyIDMarkers(t *testing.T) {
	docs := []model.Response{
		{ID: "u1_page1_1", UID: "u1", ScenarioID: "s"},
		{ID: "u1_page2_2", UID: "u1", ScenarioID: "s"},
		{ID: "u1_lessonPlay_3", UID: "u1", ScenarioID: "s"},
		{ID: "u1_lessonPlayFeedback_4", UID: "u1", ScenarioID: "s"},
	}
	snap := Load(docs, time.Now())
	all := snap.Filter(Query{UserID: AllUsers, AllDates: true, IncludeFeedback: true})
	require.Len(t, all, 4)

	kinds := map[string]model.ResponseKind{}
	for _, e := range all {
		kinds[e.Doc.ID] = e.Kind
	}
	assert.Equal(t, model.KindConversation, kinds["u1_page1_1"])
	assert.Equal(t, model.KindFeedback, kinds["u1_page2_2"])
	assert.Equal(t, model.KindConversation, kinds["u1_lessonPlay_3"])
	assert.Equal(t, model.KindFeedback, kinds["u1_lessonPlayFeedback_4"])
}

func TestTimestampFallbackChain(t *testing.T) {
	now := ts("2024-05-05T00:00:00Z")
	created := ts("2024-05-01T00:00:00Z")
	updated := ts("2024-05-02T00:00:00Z")

	both := model.Response{CreatedAt: created, UpdatedAt: updated}
	assert.True(t, both.Timestamp(*now).Equal(*created))

	onlyUpdated := model.Response{UpdatedAt: updated}
	assert.True(t, onlyUpdated.Timestamp(*now).Equal(*updated))

	neither := model.Response{}
	assert.True(t, neither.Timestamp(*now).Equal(*now))
}

func TestFilterExcludesFeedbackByDefault(t *testing.T) {
	docs := []model.Response{
		doc("u1", "Alice", "lessonPlay", ts("2024-03-01T01:00:00Z")),
		doc("u1", "Alice", "lessonPlayFeedback", ts("2024-03-01T02:00:00Z")),
		doc("u2", "Bob", "lessonPlayFeedback", ts("2024-03-01T03:00:00Z")),
	}
	snap := Load(docs, time.Now())

	res := snap.Filter(Query{UserID: AllUsers, AllDates: true, IncludeFeedback: false})
	require.Len(t, res, 1)
	assert.Equal(t, model.KindConversation, res[0].Kind)

	res = snap.Filter(Query{UserID: AllUsers, AllDates: true, IncludeFeedback: true})
	assert.Len(t, res, 3)
}

func TestFilterByUser(t *testing.T) {
	docs := []model.Response{
		doc("u1", "Alice", "lessonPlay", ts("2024-03-01T01:00:00Z")),
		doc("u2", "Bob", "lessonPlay", ts("2024-03-01T02:00:00Z")),
		doc("u1", "Alice", "lessonPlay", ts("2024-03-02T01:00:00Z")),
	}
	snap := Load(docs, time.Now())

	res := snap.Filter(Query{UserID: "u1", AllDates: true})
	require.Len(t, res, 2)
	for _, e := range res {
		assert.Equal(t, "u1", e.Doc.UID)
	}
}

func TestFilterByScenario(t *testing.T) {
	a := doc("u1", "Alice", "lessonPlay", ts("2024-03-01T01:00:00Z"))
	b := doc("u1", "Alice", "lessonPlay", ts("2024-03-01T02:00:00Z"))
	b.ID = "u1_lessonPlay_other"
	b.ScenarioID = "scenario_2"
	snap := Load([]model.Response{a, b}, time.Now())

	res := snap.Filter(Query{UserID: AllUsers, ScenarioID: "scenario_2", AllDates: true})
	require.Len(t, res, 1)
	assert.Equal(t, "scenario_2", res[0].Doc.ScenarioID)

	// empty scenario id means no restriction
	res = snap.Filter(Query{UserID: AllUsers, AllDates: true})
	assert.Len(t, res, 2)
}

func TestFilterNoDatesSelectedFailsClosed(t *testing.T) {
	docs := []model.Response{
		doc("u1", "Alice", "lessonPlay", ts("2024-03-01T01:00:00Z")),
	}
	snap := Load(docs, time.Now())

	res := snap.Filter(Query{UserID: AllUsers, AllDates: false})
	assert.Empty(t, res)
}

func TestFilterByDateSet(t *testing.T) {
	docs := []model.Response{
		doc("u1", "Alice", "lessonPlay", ts("2024-03-01T01:00:00Z")), // 03-01
		doc("u1", "Alice", "lessonPlay", ts("2024-03-02T01:00:00Z")), // 03-02
		doc("u1", "Alice", "lessonPlay", ts("2024-03-03T01:00:00Z")), // 03-03
	}
	snap := Load(docs, time.Now())

	res := snap.Filter(Query{UserID: AllUsers, Dates: []string{"2024-03-01", "2024-03-03"}})
	require.Len(t, res, 2)
	assert.Equal(t, "2024-03-03", res[0].DisplayDate)
	assert.Equal(t, "2024-03-01", res[1].DisplayDate)
}

func TestSortOrder(t *testing.T) {
	docs := []model.Response{
		doc("u2", "Bob", "lessonPlay", ts("2024-03-01T01:00:00Z")),
		doc("u1", "Alice", "lessonPlay", ts("2024-03-02T01:00:00Z")),
		doc("u1", "Alice", "lessonPlay", ts("2024-03-01T05:00:00Z")),
		doc("u1", "Alice", "lessonPlay", ts("2024-03-01T02:00:00Z")),
	}
	snap := Load(docs, time.Now())
	res := snap.Filter(Query{UserID: AllUsers, AllDates: true})
	require.Len(t, res, 4)

	// newest date first
	assert.Equal(t, "2024-03-02", res[0].DisplayDate)
	// within 03-01: Alice before Bob, Alice's later instant first
	assert.Equal(t, "Alice", res[1].Doc.DisplayName)
	assert.True(t, res[1].At.After(res[2].At))
	assert.Equal(t, "Bob", res[3].Doc.DisplayName)
}

func TestSortFullTieKeepsLoadOrder(t *testing.T) {
	at := ts("2024-03-01T01:00:00Z")
	a := doc("u1", "Alice", "lessonPlay", at)
	a.ID = "u1_lessonPlay_first"
	b := doc("u1", "Alice", "lessonPlay", at)
	b.ID = "u1_lessonPlay_second"
	snap := Load([]model.Response{a, b}, time.Now())

	res := snap.Filter(Query{UserID: AllUsers, AllDates: true})
	require.Len(t, res, 2)
	assert.Equal(t, "u1_lessonPlay_first", res[0].Doc.ID)
	assert.Equal(t, "u1_lessonPlay_second", res[1].Doc.ID)
}

func TestUserIndexFirstSeenWins(t *testing.T) {
	a := doc("u1", "Alice", "lessonPlay", ts("2024-03-01T01:00:00Z"))
	b := doc("u1", "Alicia", "lessonPlay", ts("2024-03-01T02:00:00Z"))
	b.ID = "u1_lessonPlay_renamed"
	snap := Load([]model.Response{a, b}, time.Now())

	users := snap.Users()
	require.Len(t, users, 1)
	assert.Equal(t, "Alice", users[0].DisplayName)
}

func TestNarrowUsersAndReselect(t *testing.T) {
	docs := []model.Response{
		doc("u2", "Bob", "lessonPlay", ts("2024-03-01T01:00:00Z")),
		doc("u1", "Alice", "lessonPlay", ts("2024-03-02T01:00:00Z")),
	}
	snap := Load(docs, time.Now())

	res := snap.Filter(Query{UserID: AllUsers, Dates: []string{"2024-03-02"}})
	narrowed := snap.NarrowUsers(res)
	require.Len(t, narrowed, 1)
	assert.Equal(t, "u1", narrowed[0].UID)

	// u2 fell out of the narrowed set, selector resets
	assert.Equal(t, AllUsers, ReselectUser("u2", narrowed))
	assert.Equal(t, "u1", ReselectUser("u1", narrowed))
	assert.Equal(t, AllUsers, ReselectUser("", narrowed))
}

func TestEndToEndInterleaving(t *testing.T) {
	at := func(h int) *time.Time { return ts(fmt.Sprintf("2024-03-01T%02d:00:00Z", h)) }
	docs := []model.Response{
		doc("u1", "Alice", "lessonPlay", at(1)),
		doc("u1", "Alice", "lessonPlayFeedback", at(2)),
		doc("u2", "Bob", "lessonPlay", at(3)),
		doc("u2", "Bob", "lessonPlayFeedback", at(4)),
	}
	snap := Load(docs, time.Now())

	res := snap.Filter(Query{UserID: AllUsers, AllDates: true, IncludeFeedback: true})
	require.Len(t, res, 4)

	// Alice's documents first (name ascending), each user's own newest first
	assert.Equal(t, "Alice", res[0].Doc.DisplayName)
	assert.Equal(t, model.KindFeedback, res[0].Kind)
	assert.Equal(t, model.KindConversation, res[1].Kind)
	assert.Equal(t, "Bob", res[2].Doc.DisplayName)
	assert.Equal(t, model.KindFeedback, res[2].Kind)
	assert.Equal(t, model.KindConversation, res[3].Kind)
}

func TestDatesNewestFirst(t *testing.T) {
	docs := []model.Response{
		doc("u1", "Alice", "lessonPlay", ts("2024-03-01T01:00:00Z")),
		doc("u1", "Alice", "lessonPlay", ts("2024-03-03T01:00:00Z")),
		doc("u1", "Alice", "lessonPlay", ts("2024-03-02T01:00:00Z")),
	}
	snap := Load(docs, time.Now())
	assert.Equal(t, []string{"2024-03-03", "2024-03-02", "2024-03-01"}, snap.Dates())
}
