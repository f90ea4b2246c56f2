package history

import (
	"sync"
	"time"
)

const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// Greeting opens every fresh transcript.
const Greeting = "مرحباً! أنا المساعد الذكي للتعليم الإلكتروني. كيف يمكنني مساعدتك اليوم في مجال التعليم الأكاديمي؟"

type Message struct {
	Role    string
	Content string
	At      time.Time
}

// Manager keeps the visible chat transcript of each session. Clearing a
// transcript does not touch stored conversation records.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string][]Message
	now      func() time.Time
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[string][]Message), now: time.Now}
}

// Reset clears a session and leaves only the greeting.
func (m *Manager) Reset(session string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session] = []Message{{Role: RoleBot, Content: Greeting, At: m.now()}}
}

func (m *Manager) AppendUser(session, content string) {
	m.append(session, Message{Role: RoleUser, Content: content})
}

func (m *Manager) AppendBot(session, content string) {
	m.append(session, Message{Role: RoleBot, Content: content})
}

func (m *Manager) append(session string, msg Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[session]; !ok {
		m.sessions[session] = []Message{{Role: RoleBot, Content: Greeting, At: m.now()}}
	}
	msg.At = m.now()
	m.sessions[session] = append(m.sessions[session], msg)
}

// Get returns a copy of the session transcript, greeting first.
func (m *Manager) Get(session string) []Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	es, ok := m.sessions[session]
	if !ok {
		return []Message{{Role: RoleBot, Content: Greeting, At: m.now()}}
	}
	out := make([]Message, len(es))
	copy(out, es)
	return out
}
