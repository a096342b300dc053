package aggregator

import (
	"sort"
	"time"

	"gemstore/api/models"
)

// Session is the set of events sharing one session id, ordered by timestamp.
type Session struct {
	ID     string
	Events []models.Event
}

// GroupSessions partitions events by session id. Sessions are returned in the
// order their first event appears in the input; each session's events are
// sorted by timestamp, keeping input order for equal timestamps. The input
// slice is not modified.
func GroupSessions(events []models.Event) []Session {
	index := make(map[string]int)
	var sessions []Session
	for _, e := range events {
		i, ok := index[e.SessionID]
		if !ok {
			i = len(sessions)
			index[e.SessionID] = i
			sessions = append(sessions, Session{ID: e.SessionID})
		}
		sessions[i].Events = append(sessions[i].Events, e)
	}
	for i := range sessions {
		evs := sessions[i].Events
		sort.SliceStable(evs, func(a, b int) bool {
			return evs[a].Timestamp.Before(evs[b].Timestamp)
		})
	}
	return sessions
}

// Start returns the earliest known timestamp in the session.
func (s Session) Start() time.Time {
	for _, e := range s.Events {
		if !e.Timestamp.IsZero() {
			return e.Timestamp
		}
	}
	return time.Time{}
}

// End returns the latest known timestamp in the session.
func (s Session) End() time.Time {
	if len(s.Events) == 0 {
		return time.Time{}
	}
	return s.Events[len(s.Events)-1].Timestamp
}

// Duration is End minus Start. Sessions with fewer than two events, or whose
// events carry no usable timestamps, last zero.
func (s Session) Duration() time.Duration {
	if len(s.Events) < 2 {
		return 0
	}
	start, end := s.Start(), s.End()
	if start.IsZero() || end.IsZero() {
		return 0
	}
	return end.Sub(start)
}

// Count returns how many of the session's events have the given type.
func (s Session) Count(eventType string) int {
	n := 0
	for _, e := range s.Events {
		if e.EventType == eventType {
			n++
		}
	}
	return n
}

// FirstEventOfType returns the first event of the given type in a
// timestamp-sorted event list.
func FirstEventOfType(sorted []models.Event, eventType string) (models.Event, bool) {
	for _, e := range sorted {
		if e.EventType == eventType {
			return e, true
		}
	}
	return models.Event{}, false
}
