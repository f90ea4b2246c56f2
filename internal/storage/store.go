package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"research-chatter/internal/logging"
)

const (
	DefaultStateKey   = "ai_education_research"
	DefaultSessionKey = "research_session"
)

// Store owns the research records and their single persistence slot.
// Every mutation rewrites the whole state; write failures are logged, never returned.
type Store struct {
	mu sync.Mutex
	// sessionMu guards token creation; it is never held together with mu.
	sessionMu sync.Mutex

	slot       Slot
	session    Slot
	stateKey   string
	sessionKey string

	logger       *zap.Logger
	now          func() time.Time
	uuidSessions bool

	state  State
	lastID int64
}

type Option func(*Store)

func WithLogger(l *zap.Logger) Option { return func(s *Store) { s.logger = logging.OrNop(l) } }

func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

func WithKeys(stateKey, sessionKey string) Option {
	return func(s *Store) {
		if stateKey != "" {
			s.stateKey = stateKey
		}
		if sessionKey != "" {
			s.sessionKey = sessionKey
		}
	}
}

// WithUUIDSessions appends a random suffix to generated session tokens.
func WithUUIDSessions(on bool) Option { return func(s *Store) { s.uuidSessions = on } }

// NewStore creates an empty store. Call Load to rehydrate persisted state.
func NewStore(persistent, session Slot, opts ...Option) *Store {
	s := &Store{
		slot:       persistent,
		session:    session,
		stateKey:   DefaultStateKey,
		sessionKey: DefaultSessionKey,
		logger:     zap.NewNop(),
		now:        time.Now,
		state:      emptyState(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func emptyState() State {
	return State{Conversations: []ConversationRecord{}, Surveys: []SurveyRecord{}}
}

// Load replaces the in-memory state with the persisted one.
// A missing slot yields an empty state; malformed data is discarded with a warning.
// Only a failure to read the slot is returned.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = emptyState()
	s.lastID = 0

	raw, ok, err := s.slot.Get(ctx, s.stateKey)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}

	var st State
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		s.logger.Warn("discarding malformed persisted state, starting fresh",
			zap.String("key", s.stateKey), zap.Error(err))
		return nil
	}
	if st.Conversations == nil {
		st.Conversations = []ConversationRecord{}
	}
	if st.Surveys == nil {
		st.Surveys = []SurveyRecord{}
	}
	for i := range st.Surveys {
		if st.Surveys[i].Responses == nil {
			st.Surveys[i].Responses = map[string]int{}
		}
	}
	st.Participants = distinctFaculty(st.Surveys)
	s.state = st

	for _, c := range st.Conversations {
		s.lastID = max(s.lastID, c.ID)
	}
	for _, sv := range st.Surveys {
		s.lastID = max(s.lastID, sv.ID)
	}
	s.logger.Debug("state loaded",
		zap.Int("conversations", len(st.Conversations)),
		zap.Int("surveys", len(st.Surveys)))
	return nil
}

// Persist writes the whole state to the slot.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx)
}

func (s *Store) persistLocked(ctx context.Context) error {
	b, err := json.Marshal(s.state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := s.slot.Set(ctx, s.stateKey, string(b)); err != nil {
		return fmt.Errorf("persist state: %w", err)
	}
	return nil
}

func (s *Store) persistOrLog(ctx context.Context) {
	if err := s.persistLocked(ctx); err != nil {
		s.logger.Error("failed to persist state", zap.Error(err))
	}
}

// nextID returns a millisecond timestamp id, bumped past the previous id on collision.
func (s *Store) nextID(at time.Time) int64 {
	id := at.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

func (s *Store) stamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// AppendConversation records one exchange under the current session.
func (s *Store) AppendConversation(ctx context.Context, userText, botText string) ConversationRecord {
	session := s.SessionID(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	at := s.stamp()
	rec := ConversationRecord{
		ID:        s.nextID(at),
		User:      userText,
		Bot:       botText,
		Timestamp: NewTimestamp(at),
		Session:   session,
	}
	s.state.Conversations = append(s.state.Conversations, rec)
	s.state.Chats++
	s.persistOrLog(ctx)
	return rec
}

// AppendSurvey records a questionnaire. A blank faculty id is replaced by a
// pseudo-anonymous one.
func (s *Store) AppendSurvey(ctx context.Context, in SurveyInput) SurveyRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	at := s.stamp()
	id := s.nextID(at)
	facultyID := strings.TrimSpace(in.FacultyID)
	if facultyID == "" {
		facultyID = "anonymous_" + strconv.FormatInt(id, 10)
	}
	rec := SurveyRecord{
		ID:         id,
		FacultyID:  facultyID,
		Experience: in.Experience,
		Responses:  cloneResponses(in.Responses),
		Feedback:   in.Feedback,
		Timestamp:  NewTimestamp(at),
	}
	s.state.Surveys = append(s.state.Surveys, rec)
	s.state.Participants = distinctFaculty(s.state.Surveys)
	s.persistOrLog(ctx)

	out := rec
	out.Responses = cloneResponses(rec.Responses)
	return out
}

// SessionID returns the token for the current session, creating it on first use.
// Concurrent first calls agree on one token.
func (s *Store) SessionID(ctx context.Context) string {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	if v, ok, err := s.session.Get(ctx, s.sessionKey); err != nil {
		s.logger.Warn("session slot read failed", zap.Error(err))
	} else if ok && v != "" {
		return v
	}

	token := "session_" + strconv.FormatInt(s.now().UnixMilli(), 10)
	if s.uuidSessions {
		token += "_" + uuid.NewString()[:8]
	}
	if err := s.session.Set(ctx, s.sessionKey, token); err != nil {
		s.logger.Warn("session slot write failed", zap.Error(err))
	}
	return token
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Reset drops every record and persists the empty state.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = emptyState()
	return s.persistLocked(ctx)
}
