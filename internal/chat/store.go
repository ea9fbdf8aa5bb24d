package chat

import (
	"sort"
	"sync"
)

// Store holds the ordered in-memory message list for one open conversation.
// Messages are unique by id and kept ascending by created_at. Two sources
// feed it: a history fetch (Replace) and realtime arrivals (Merge).
type Store struct {
	mu      sync.Mutex
	groupID string
	msgs    []Message
	seen    map[string]struct{}
}

// NewStore creates an empty store scoped to the given conversation.
func NewStore(groupID string) *Store {
	return &Store{
		groupID: groupID,
		seen:    make(map[string]struct{}),
	}
}

// GroupID returns the conversation this store is scoped to.
func (s *Store) GroupID() string {
	return s.groupID
}

// Replace discards the current list and installs the fetch result.
// Switching conversations never merges lists; the prior one is gone.
func (s *Store) Replace(msgs []Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.msgs = make([]Message, 0, len(msgs))
	s.seen = make(map[string]struct{}, len(msgs))
	for _, m := range msgs {
		if _, dup := s.seen[m.ID]; dup {
			continue
		}
		s.seen[m.ID] = struct{}{}
		s.msgs = append(s.msgs, m)
	}
	s.sortLocked()
}

// Merge adds one arriving message. It reports false without touching the
// list when the id is already present (the REST send response and the
// websocket echo deliver the same logical message twice) or when the message
// belongs to a different conversation.
func (s *Store) Merge(m Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.GroupID != s.groupID {
		return false
	}
	if _, dup := s.seen[m.ID]; dup {
		return false
	}

	s.seen[m.ID] = struct{}{}
	s.msgs = append(s.msgs, m)
	s.sortLocked()
	return true
}

// Messages returns a copy of the current ordered list.
func (s *Store) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Message, len(s.msgs))
	copy(out, s.msgs)
	return out
}

// Len returns the number of messages held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

// sortLocked re-sorts ascending by created_at. Stable, so messages with
// equal timestamps keep their relative arrival order.
func (s *Store) sortLocked() {
	sort.SliceStable(s.msgs, func(i, j int) bool {
		return s.msgs[i].CreatedAt.Before(s.msgs[j].CreatedAt)
	})
}
