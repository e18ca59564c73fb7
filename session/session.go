// session/session.go
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wfunc/arena/network"
)

// Session binds one connection to a player identity and, while joined, an
// arena name.
type Session struct {
	ID         string
	Conn       network.Connection
	PlayerID   uuid.UUID
	PlayerName string
	ArenaName  string
	CreatedAt  time.Time
	LastActive time.Time
	mutex      sync.RWMutex
}

func NewSession(id string, conn network.Connection) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Conn:       conn,
		CreatedAt:  now,
		LastActive: now,
	}
}

func (s *Session) Send(msgID uint16, data []byte) error {
	s.LastActive = time.Now()
	return s.Conn.Send(msgID, data)
}

func (s *Session) GetID() string {
	return s.ID
}

// BindPlayer associates the session with a stable player identity.
func (s *Session) BindPlayer(id uuid.UUID, name string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.PlayerID = id
	s.PlayerName = name
}

func (s *Session) SetArena(name string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.ArenaName = name
}

func (s *Session) Arena() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.ArenaName
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Manager tracks live sessions.
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[session.ID] = session
}

func (m *Manager) Remove(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

// GetByArena returns every session currently joined to the named arena.
func (m *Manager) GetByArena(arenaName string) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var result []*Session
	for _, session := range m.sessions {
		if session.Arena() == arenaName {
			result = append(result, session)
		}
	}
	return result
}

// GetByPlayerID returns the sessions bound to a player identity.
func (m *Manager) GetByPlayerID(playerID uuid.UUID) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var result []*Session
	for _, session := range m.sessions {
		if session.PlayerID == playerID {
			result = append(result, session)
		}
	}
	return result
}
