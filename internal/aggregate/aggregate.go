// Package aggregate builds filterable views over learner response documents:
// classification, display-date bucketing, user/date indexes and the
// deterministic sort used by the admin dashboard.
package aggregate

import (
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/eduwang/tmssr-250809/internal/model"
)

// AllUsers is the user-selector sentinel meaning no user restriction
const AllUsers = "all"

// displayZone is the fixed civil-time convention for date bucketing.
// Dates are always derived by offset arithmetic in this one place; locale
// formatting must never be used for grouping.
var displayZone = time.FixedZone("UTC+9", 9*60*60)

// Entry is one classified response with its load-time derived fields.
// DisplayDate and At are computed exactly once and reused for grouping,
// sorting and display.
type Entry struct {
	Doc         model.Response
	Kind        model.ResponseKind
	At          time.Time
	DisplayDate string
	order       int
}

// User is one distinct contributor in a snapshot
type User struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// Snapshot is an immutable view over one bulk load of the response
// collection. All filter and index operations assume the snapshot does not
// change for the duration of a render pass.
type Snapshot struct {
	entries []Entry
	users   []User          // first-seen order
	userIdx map[string]User // uid -> identity, first seen wins
	dates   []string        // distinct display dates, descending
}

// Load classifies every document and derives its display date once.
// Documents that classify under neither the type field nor the id marker
// convention, or that lack both a uid and a scenario reference, are
// excluded from every index. now is the last-resort timestamp fallback.
func Load(docs []model.Response, now time.Time) *Snapshot {
	s := &Snapshot{userIdx: make(map[string]User)}
	dateSet := make(map[string]struct{})

	for _, d := range docs {
		kind, ok := d.Kind()
		if !ok {
			continue
		}
		if d.UID == "" && d.ScenarioID == "" {
			continue
		}

		at := d.Timestamp(now)
		e := Entry{
			Doc:         d,
			Kind:        kind,
			At:          at,
			DisplayDate: DisplayDate(at),
			order:       len(s.entries),
		}
		s.entries = append(s.entries, e)

		if d.UID != "" {
			if _, seen := s.userIdx[d.UID]; !seen {
				u := User{UID: d.UID, DisplayName: d.DisplayName, Email: d.Email}
				if u.DisplayName == "" {
					u.DisplayName = d.UID
				}
				s.userIdx[d.UID] = u
				s.users = append(s.users, u)
			}
		}
		dateSet[e.DisplayDate] = struct{}{}
	}

	for date := range dateSet {
		s.dates = append(s.dates, date)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(s.dates)))

	return s
}

// DisplayDate formats an instant as YYYY-MM-DD in the fixed display zone
func DisplayDate(t time.Time) string {
	return t.In(displayZone).Format("2006-01-02")
}

// FormatTimestamp formats a full instant in the display zone, for result
// headers and exports. Shares the zone with DisplayDate so a document never
// shows a clock time from one day and groups under another.
func FormatTimestamp(t time.Time) string {
	return t.In(displayZone).Format("2006-01-02 15:04:05")
}

// Users returns the distinct contributors in first-seen load order
func (s *Snapshot) Users() []User {
	out := make([]User, len(s.users))
	copy(out, s.users)
	return out
}

// Dates returns the distinct display dates, newest first
func (s *Snapshot) Dates() []string {
	out := make([]string, len(s.dates))
	copy(out, s.dates)
	return out
}

// Len reports how many documents survived classification
func (s *Snapshot) Len() int {
	return len(s.entries)
}

// Query is one filter invocation against a snapshot
type Query struct {
	UserID          string   // a uid, or AllUsers
	ScenarioID      string   // empty means no scenario restriction
	Dates           []string // selected display dates
	AllDates        bool     // overrides Dates when true
	IncludeFeedback bool     // admit feedback-kind documents
}

// Filter returns the matching entries in display order: display date
// descending, then owner display name ascending under locale collation,
// then creation instant descending. Full ties keep load order.
//
// Selecting zero dates with the all-dates sentinel off yields an empty
// result, never the full set.
func (s *Snapshot) Filter(q Query) []Entry {
	if !q.AllDates && len(q.Dates) == 0 {
		return nil
	}
	dateSet := make(map[string]struct{}, len(q.Dates))
	for _, d := range q.Dates {
		dateSet[d] = struct{}{}
	}

	var out []Entry
	for _, e := range s.entries {
		if q.ScenarioID != "" && e.Doc.ScenarioID != q.ScenarioID {
			continue
		}
		if !q.AllDates {
			if _, ok := dateSet[e.DisplayDate]; !ok {
				continue
			}
		}
		if q.UserID != AllUsers && q.UserID != "" && e.Doc.UID != q.UserID {
			continue
		}
		if e.Kind == model.KindFeedback && !q.IncludeFeedback {
			continue
		}
		out = append(out, e)
	}

	s.sortEntries(out)
	return out
}

// sortEntries applies the three-key display order in place
func (s *Snapshot) sortEntries(entries []Entry) {
	coll := collate.New(language.Korean)
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.DisplayDate != b.DisplayDate {
			return a.DisplayDate > b.DisplayDate
		}
		an, bn := s.displayName(a.Doc.UID), s.displayName(b.Doc.UID)
		if c := coll.CompareString(an, bn); c != 0 {
			return c < 0
		}
		if !a.At.Equal(b.At) {
			return a.At.After(b.At)
		}
		return a.order < b.order
	})
}

func (s *Snapshot) displayName(uid string) string {
	if u, ok := s.userIdx[uid]; ok {
		return u.DisplayName
	}
	return uid
}

// NarrowUsers recomputes the user-selector population from a filtered
// result: exactly the distinct uids present, sorted by display name.
func (s *Snapshot) NarrowUsers(entries []Entry) []User {
	seen := make(map[string]struct{})
	var out []User
	for _, e := range entries {
		uid := e.Doc.UID
		if uid == "" {
			continue
		}
		if _, ok := seen[uid]; ok {
			continue
		}
		seen[uid] = struct{}{}
		if u, ok := s.userIdx[uid]; ok {
			out = append(out, u)
		} else {
			out = append(out, User{UID: uid, DisplayName: uid})
		}
	}
	coll := collate.New(language.Korean)
	sort.SliceStable(out, func(i, j int) bool {
		return coll.CompareString(out[i].DisplayName, out[j].DisplayName) < 0
	})
	return out
}

// ReselectUser keeps the prior selection when it survives narrowing and
// falls back to the all-users sentinel otherwise.
func ReselectUser(prev string, narrowed []User) string {
	if prev == "" || prev == AllUsers {
		return AllUsers
	}
	for _, u := range narrowed {
		if u.UID == prev {
			return prev
		}
	}
	return AllUsers
}
