// broadcast/broadcast.go
package broadcast

import (
	"github.com/wfunc/arena/network"
	"github.com/wfunc/arena/session"
)

// ArenaBroadcaster fans arena messages out to every session joined to that
// arena. It implements the core's arena.Broadcaster interface.
type ArenaBroadcaster struct {
	sessionManager *session.Manager
}

func NewArenaBroadcaster(sessionManager *session.Manager) *ArenaBroadcaster {
	return &ArenaBroadcaster{sessionManager: sessionManager}
}

// Broadcast implements arena.Broadcaster.
func (b *ArenaBroadcaster) Broadcast(arenaName, message string) {
	for _, s := range b.sessionManager.GetByArena(arenaName) {
		if err := s.Send(network.MsgTypeAnnounce, []byte(message)); err != nil {
			// A dead connection is cleaned up by its own read loop.
			continue
		}
	}
}

// SendToPlayer delivers a message to one player's sessions.
func (b *ArenaBroadcaster) SendToPlayer(s *session.Session, message string) error {
	return s.Send(network.MsgTypeAnnounce, []byte(message))
}
