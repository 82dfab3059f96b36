// Package history models a learner's conversation as an ordered, append-only
// sequence of turns and renders the bounded context window sent to the advice
// backend.
package history

import (
	"strings"
	"time"

	"github.com/magicbus/mentorbridge/internal/storage"
)

// Speaker identifies who produced a turn.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// DefaultWindowSize is the number of recent turns included in the context
// sent to the advice backend.
const DefaultWindowSize = 6

// NoPriorMessages is the context string used when a transcript is empty.
const NoPriorMessages = "No prior messages."

// Turn is one conversation entry. Turns are never mutated or reordered after
// append.
type Turn struct {
	Speaker   Speaker
	Text      string
	Timestamp time.Time
}

// FromMessages converts persisted rows into turns, preserving order.
func FromMessages(msgs []storage.Message) []Turn {
	turns := make([]Turn, len(msgs))
	for i, m := range msgs {
		speaker := SpeakerAssistant
		if m.Role == string(SpeakerUser) {
			speaker = SpeakerUser
		}
		turns[i] = Turn{Speaker: speaker, Text: m.Content, Timestamp: m.CreatedAt}
	}
	return turns
}

// Window renders the last maxTurns entries as a labeled transcript, one
// "User: ..." or "Assistant: ..." line per turn joined by newlines. An empty
// transcript yields NoPriorMessages. The caller passes the running in-memory
// transcript including the turn just produced, so the current utterance is
// part of the context for its own request.
func Window(turns []Turn, maxTurns int) string {
	if len(turns) == 0 {
		return NoPriorMessages
	}
	if maxTurns > 0 && len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}

	lines := make([]string, len(turns))
	for i, turn := range turns {
		label := "Assistant"
		if turn.Speaker == SpeakerUser {
			label = "User"
		}
		lines[i] = label + ": " + turn.Text
	}
	return strings.Join(lines, "\n")
}
