// Package session orchestrates one learner's conversation: profile merging,
// durable history, advice requests, and reply rendering.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/magicbus/mentorbridge/internal/dataset"
	"github.com/magicbus/mentorbridge/internal/history"
	"github.com/magicbus/mentorbridge/internal/profile"
	"github.com/magicbus/mentorbridge/internal/render"
	"github.com/magicbus/mentorbridge/internal/storage"
)

// Greeting opens every fresh session transcript.
const Greeting = "Mentor copilot is ready. Ask a question."

// RoadmapPrompt is the canned message sent when a learner asks for a full
// roadmap instead of typing a question.
const RoadmapPrompt = "Generate a full mentor-ready roadmap for this learner."

// Store is the persistence surface a session needs.
type Store interface {
	SaveProfile(p storage.Profile) error
	GetProfile(learnerName string) (storage.Profile, error)
	AppendMessage(m storage.Message) error
	GetMessages(learnerName string) ([]storage.Message, error)
}

// Datasource looks up reference dataset records.
type Datasource interface {
	FindByName(ctx context.Context, name string) (dataset.Record, bool)
}

// Advisor requests advice from the backend.
type Advisor interface {
	RequestAdvice(ctx context.Context, p profile.Profile, userMessage string, turns []history.Turn, roadmap bool) (string, error)
}

// Reply is the outcome of one successful chat turn.
type Reply struct {
	Text     string           `json:"text"`
	Segments []render.Segment `json:"segments"`
}

// Session is the per-learner conversation state. Methods are safe for
// concurrent use: a mutex serializes chat turns and edit updates, so
// simultaneous requests for the same learner interleave instead of
// corrupting the transcript.
type Session struct {
	ID   string
	Name string

	mu         sync.Mutex
	edits      profile.Edits
	transcript []history.Turn

	store    Store
	data     Datasource
	advisor  Advisor
	renderer *render.Renderer
}

// New creates a session for the given learner. An empty name is allowed;
// anonymous sessions chat without durable history or profile rows.
func New(name string, store Store, data Datasource, advisor Advisor, renderer *render.Renderer) *Session {
	return &Session{
		ID:       uuid.NewString(),
		Name:     name,
		store:    store,
		data:     data,
		advisor:  advisor,
		renderer: renderer,
		transcript: []history.Turn{
			{Speaker: history.SpeakerAssistant, Text: Greeting},
		},
	}
}

// Resume loads the learner's persisted transcript on top of the greeting so a
// returning learner keeps their context window.
func (s *Session) Resume(ctx context.Context) error {
	if s.Name == "" {
		return nil
	}
	msgs, err := s.store.GetMessages(s.Name)
	if err != nil {
		return fmt.Errorf("loading history for %s: %w", s.Name, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = append(s.transcript, history.FromMessages(msgs)...)
	return nil
}

// Transcript returns a copy of the in-memory turns.
func (s *Session) Transcript() []history.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]history.Turn, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// Edits returns the current live edits.
func (s *Session) Edits() profile.Edits {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.edits
}

// SetEdits replaces the live edits wholesale, as when a learner saves the
// whole sidebar form at once.
func (s *Session) SetEdits(e profile.Edits) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edits = e
}

// UpdateEdits applies fn under the session lock so single-field
// read-modify-write updates stay atomic.
func (s *Session) UpdateEdits(fn func(*profile.Edits)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.edits)
}

// EffectiveProfile resolves the learner's current merged profile from live
// edits, the persisted row, and the reference dataset.
func (s *Session) EffectiveProfile(ctx context.Context) profile.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.effectiveProfile(ctx)
}

// effectiveProfile is EffectiveProfile without the lock, for callers that
// already hold it.
func (s *Session) effectiveProfile(ctx context.Context) profile.Profile {
	// A read failure degrades to dataset defaults rather than blocking the
	// chat turn.
	var persisted *storage.Profile
	if s.Name != "" {
		if row, err := s.store.GetProfile(s.Name); err == nil {
			persisted = &row
		}
	}

	var rec *dataset.Record
	if s.Name != "" {
		if r, ok := s.data.FindByName(ctx, s.Name); ok {
			rec = &r
		}
	}

	return profile.ResolveEffective(s.Name, s.edits, persisted, rec)
}

// SendMessage runs one chat turn: the user turn is appended and persisted,
// the profile snapshot is saved, and the advisor is called with the windowed
// context including the new turn. On success the assistant turn is appended,
// persisted, and rendered. On failure the user turn stays in the transcript
// so a retry carries it as context.
func (s *Session) SendMessage(ctx context.Context, text string, roadmap bool) (Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transcript = append(s.transcript, history.Turn{Speaker: history.SpeakerUser, Text: text})
	if err := s.persistTurn(history.SpeakerUser, text); err != nil {
		return Reply{}, err
	}

	p := s.effectiveProfile(ctx)
	if err := s.saveSnapshot(p); err != nil {
		return Reply{}, err
	}

	advice, err := s.advisor.RequestAdvice(ctx, p, text, s.transcript, roadmap)
	if err != nil {
		return Reply{}, err
	}

	s.transcript = append(s.transcript, history.Turn{Speaker: history.SpeakerAssistant, Text: advice})
	if err := s.persistTurn(history.SpeakerAssistant, advice); err != nil {
		return Reply{}, err
	}

	return Reply{Text: advice, Segments: s.renderer.Split(advice)}, nil
}

// RequestRoadmap sends the canned roadmap prompt as a chat turn.
func (s *Session) RequestRoadmap(ctx context.Context) (Reply, error) {
	return s.SendMessage(ctx, RoadmapPrompt, true)
}

// SaveProfile persists the current effective profile without a chat turn,
// used when a learner saves sidebar edits explicitly.
func (s *Session) SaveProfile(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveSnapshot(s.effectiveProfile(ctx))
}

func (s *Session) saveSnapshot(p profile.Profile) error {
	if s.Name == "" {
		return nil
	}
	if err := s.store.SaveProfile(p.Row()); err != nil {
		return fmt.Errorf("saving profile for %s: %w", s.Name, err)
	}
	return nil
}

func (s *Session) persistTurn(speaker history.Speaker, text string) error {
	if s.Name == "" {
		return nil
	}
	err := s.store.AppendMessage(storage.Message{
		LearnerName: s.Name,
		Role:        string(speaker),
		Content:     text,
	})
	if err != nil {
		return fmt.Errorf("saving %s turn for %s: %w", speaker, s.Name, err)
	}
	return nil
}

// Manager hands out one session per learner name, creating and resuming on
// first use.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	store    Store
	data     Datasource
	advisor  Advisor
	renderer *render.Renderer
}

func NewManager(store Store, data Datasource, advisor Advisor) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		store:    store,
		data:     data,
		advisor:  advisor,
		renderer: render.NewRenderer(),
	}
}

// Get returns the session for the named learner, resuming persisted history
// on first access.
func (m *Manager) Get(ctx context.Context, name string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[name]; ok {
		return s, nil
	}
	s := New(name, m.store, m.data, m.advisor, m.renderer)
	if err := s.Resume(ctx); err != nil {
		return nil, err
	}
	m.sessions[name] = s
	return s, nil
}
