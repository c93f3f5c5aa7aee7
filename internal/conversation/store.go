// Package conversation provides the bounded per-chat history used to
// condition generative backend calls.
package conversation

import (
	"fmt"
	"sync"
)

// Roles for conversation turns, mirroring the backend's content roles.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

const (
	// retainedTurns is how many existing turns survive an append.
	retainedTurns = 8
	// maxTurns is the hard ceiling after an append (retained + 2 new).
	maxTurns = retainedTurns + 2
)

// Turn is a single exchange entry in a conversation context.
type Turn struct {
	Role string
	Text string
}

// ChatKey derives the context key for a chat. Group members each get an
// independent context so the backend never mixes their histories.
func ChatKey(chatID, sender string, isGroup bool) string {
	if isGroup {
		return fmt.Sprintf("%s-%s", chatID, sender)
	}
	return chatID
}

// Store keeps a bounded, in-memory conversation context per chat key.
// Contexts live for the process lifetime and are never persisted.
type Store struct {
	mu       sync.RWMutex
	contexts map[string][]Turn
}

// NewStore creates an empty conversation context store.
func NewStore() *Store {
	return &Store{contexts: make(map[string][]Turn)}
}

// Get returns a copy of the stored context for the chat key, empty if absent.
func (s *Store) Get(key string) []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.contexts[key]
	if len(turns) == 0 {
		return nil
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

// Append records one user/model exchange for the chat key. The existing
// context is truncated to its most recent turns first, so the stored
// context never exceeds maxTurns entries and the oldest exchanges are
// dropped in chronological order.
func (s *Store) Append(key, userText, modelText string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := s.contexts[key]
	if len(turns) > retainedTurns {
		turns = turns[len(turns)-retainedTurns:]
	}

	updated := make([]Turn, 0, len(turns)+2)
	updated = append(updated, turns...)
	updated = append(updated,
		Turn{Role: RoleUser, Text: userText},
		Turn{Role: RoleModel, Text: modelText},
	)
	s.contexts[key] = updated
}

// Len reports the number of turns stored for a chat key.
func (s *Store) Len(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.contexts[key])
}
