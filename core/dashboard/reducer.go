package dashboard

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/trezcool/educonnect/core"
	"github.com/trezcool/educonnect/core/contact"
)

// maxSeen bounds the applied event IDs remembered for deduplication.
const maxSeen = 512

type Summary struct {
	TotalStudents    int               `json:"total_students"`
	TotalContacts    int               `json:"total_contacts"`
	ContactsThisWeek int               `json:"contacts_this_week"`
	Recent           []contact.Contact `json:"recent"`
}

// State is an owner's dashboard Summary, kept current by Apply.
// A State is never modified in place: Apply returns a new one.
type State struct {
	Summary
	OwnerID   string    `json:"-"`
	WeekStart time.Time `json:"week_start"`
	seen      []string  // applied event IDs, oldest first
}

// NewState returns the State of `sum`. The recent contacts and the `applied` event IDs are considered
// applied already, so their events replayed by the bus are ignored.
func NewState(ownerID string, weekStart time.Time, sum Summary, applied ...string) State {
	s := State{Summary: sum, OwnerID: ownerID, WeekStart: weekStart}
	if s.Recent == nil {
		s.Recent = []contact.Contact{}
	}
	for _, id := range applied {
		s.seen = withSeen(s.seen, id)
	}
	for _, c := range sum.Recent {
		s.seen = withSeen(s.seen, c.ID)
	}
	return s
}

// Apply returns the state after `evt` and whether it changed.
// Events of other owners, unknown or malformed events and already applied events are ignored.
func Apply(s State, evt core.Event) (State, bool) {
	if evt.ID == "" || evt.OwnerID != s.OwnerID || s.applied(evt.ID) {
		return s, false
	}

	switch evt.Name {
	case core.EventStudentCreated:
		s.TotalStudents++
	case core.EventContactCreated:
		var c contact.Contact
		if err := json.Unmarshal(evt.Payload, &c); err != nil {
			return s, false
		}
		if c.ID == "" || c.Method == "" || c.OccurredAt.IsZero() || (c.OwnerID != "" && c.OwnerID != s.OwnerID) {
			return s, false
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = evt.OccurredAt
		}
		s.TotalContacts++
		if !c.OccurredAt.Before(s.WeekStart) {
			s.ContactsThisWeek++
		}
		s.Recent = withRecent(s.Recent, c)
	default:
		return s, false
	}

	s.seen = withSeen(s.seen, evt.ID)
	return s, true
}

func (s State) applied(id string) bool {
	for _, seen := range s.seen {
		if seen == id {
			return true
		}
	}
	return false
}

// withRecent returns a copy of `recent` including `c`, newest first by creation time, at most contact.MaxRecent long.
func withRecent(recent []contact.Contact, c contact.Contact) []contact.Contact {
	next := make([]contact.Contact, 0, len(recent)+1)
	next = append(next, c)
	for _, r := range recent {
		if r.ID != c.ID {
			next = append(next, r)
		}
	}
	sort.SliceStable(next, func(i, j int) bool {
		return next[i].CreatedAt.After(next[j].CreatedAt)
	})
	if len(next) > contact.MaxRecent {
		next = next[:contact.MaxRecent]
	}
	return next
}

func withSeen(seen []string, id string) []string {
	start := 0
	if len(seen) >= maxSeen {
		start = len(seen) - maxSeen + 1
	}
	next := make([]string, 0, len(seen)-start+1)
	next = append(next, seen[start:]...)
	return append(next, id)
}
