// server/server.go
package server

import (
	"encoding/json"
	"net/http"
	"net/rpc"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/arena/arena"
	"github.com/wfunc/arena/logger"
	"github.com/wfunc/arena/network"
	arenarpc "github.com/wfunc/arena/rpc"
	"github.com/wfunc/arena/services"
	"github.com/wfunc/arena/session"
	"github.com/wfunc/arena/workflow"
)

// heartbeatInterval is how often clients are expected to ping. The read
// deadline sits at twice this.
const heartbeatInterval = 30 * time.Second

// GameServer accepts websocket connections and dispatches match commands into
// the workflow manager. It owns no match state itself.
type GameServer struct {
	addr           string
	upgrader       websocket.Upgrader
	flow           *workflow.Manager
	players        *arena.Registry
	sessionManager *session.Manager
	statsService   *services.StatsService
	rpcServer      *arenarpc.Server
	monitor        interface{ ObserveJoinLatency(time.Duration) }
	mutex          sync.Mutex
	shutdownChan   chan struct{}
}

func NewGameServer(addr, rpcAddr string, flow *workflow.Manager, players *arena.Registry,
	sessions *session.Manager, stats *services.StatsService) *GameServer {

	s := &GameServer{
		addr:           addr,
		flow:           flow,
		players:        players,
		sessionManager: sessions,
		statsService:   stats,
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	rpcServer, err := arenarpc.NewServer(rpcAddr)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer

	adminService := arenarpc.NewAdminService(flow, stats)
	rpc.Register(adminService)

	return s
}

// SetLatencyObserver lets the monitor time join handling.
func (s *GameServer) SetLatencyObserver(o interface{ ObserveJoinLatency(time.Duration) }) {
	s.monitor = o
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()

	http.HandleFunc("/ws", s.handleWebSocket)
	logger.Log.Infof("Arena server listening on %s", s.addr)
	return http.ListenAndServe(s.addr, nil)
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	s.rpcServer.Stop()
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessionManager.Add(sess)

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.handleDisconnect(sess)
		s.sessionManager.Remove(sess.GetID())
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			s.handlePacket(sess, packet)
		}
	}
}

// handleDisconnect treats a dropped connection like an explicit leave.
func (s *GameServer) handleDisconnect(sess *session.Session) {
	p, a := s.resolve(sess)
	if p == nil || a == nil {
		return
	}
	if err := s.flow.HandleLeave(a, p); err != nil {
		logger.Log.Debugf("Session %s: leave on disconnect: %v", sess.GetID(), err)
	}
}

func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		sess.LastActive = time.Now()
		sess.Conn.SetHeartbeat(heartbeatInterval)
	case network.MsgTypeJoinArena:
		s.handleJoin(sess, packet)
	case network.MsgTypeLeaveArena:
		s.handleLeave(sess, packet)
	case network.MsgTypeSpectate:
		s.handleSpectate(sess, packet)
	case network.MsgTypeReady:
		s.handleReady(sess, packet)
	case network.MsgTypeChat:
		s.handleChat(sess, packet)
	case network.MsgTypeArenaList:
		s.handleArenaList(sess)
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
	}
}

func (s *GameServer) handleJoin(sess *session.Session, packet *network.Packet) {
	var req map[string]string
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, "bad request")
		return
	}

	a, exists := s.flow.Arenas().Get(req["arena"])
	if !exists {
		s.sendError(sess, "unknown arena")
		return
	}

	playerName := req["name"]
	if playerName == "" {
		playerName = sess.GetID()
	}
	playerID := playerIdentity(req["player_id"], playerName)
	p := s.players.Lookup(playerID, playerName)
	sess.BindPlayer(playerID, playerName)

	started := time.Now()
	if err := s.flow.HandleJoin(a, p, req["team"]); err != nil {
		s.sendError(sess, err.Error())
		return
	}
	if s.monitor != nil {
		s.monitor.ObserveJoinLatency(time.Since(started))
	}
	sess.SetArena(a.Name())

	logger.Log.Infof("Session %s joined arena %s as %s", sess.GetID(), a.Name(), playerName)

	resp := map[string]string{"arena": a.Name(), "phase": a.Phase().String()}
	data, _ := json.Marshal(resp)
	sess.Send(network.MsgTypeJoinArena, data)
}

func (s *GameServer) handleLeave(sess *session.Session, packet *network.Packet) {
	p, a := s.resolve(sess)
	if p == nil || a == nil {
		s.sendError(sess, "not in an arena")
		return
	}
	if err := s.flow.HandleLeave(a, p); err != nil {
		s.sendError(sess, err.Error())
		return
	}
	sess.SetArena("")
	sess.Send(network.MsgTypeLeaveArena, []byte(`{"ok":true}`))
}

func (s *GameServer) handleSpectate(sess *session.Session, packet *network.Packet) {
	var req map[string]string
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, "bad request")
		return
	}

	a, exists := s.flow.Arenas().Get(req["arena"])
	if !exists {
		s.sendError(sess, "unknown arena")
		return
	}

	playerName := req["name"]
	if playerName == "" {
		playerName = sess.GetID()
	}
	playerID := playerIdentity(req["player_id"], playerName)
	p := s.players.Lookup(playerID, playerName)
	sess.BindPlayer(playerID, playerName)

	if err := s.flow.HandleSpectate(a, p); err != nil {
		s.sendError(sess, err.Error())
		return
	}
	sess.SetArena(a.Name())
	sess.Send(network.MsgTypeSpectate, []byte(`{"ok":true}`))
}

func (s *GameServer) handleReady(sess *session.Session, packet *network.Packet) {
	p, a := s.resolve(sess)
	if p == nil || a == nil {
		s.sendError(sess, "not in an arena")
		return
	}

	var req map[string]string
	if len(packet.Data) > 0 {
		if err := json.Unmarshal(packet.Data, &req); err != nil {
			s.sendError(sess, "bad request")
			return
		}
	}

	if err := s.flow.HandleReady(a, p, req["class"]); err != nil {
		s.sendError(sess, err.Error())
		return
	}
	sess.Send(network.MsgTypeReady, []byte(`{"ok":true}`))
}

func (s *GameServer) handleChat(sess *session.Session, packet *network.Packet) {
	p, a := s.resolve(sess)
	if p == nil || a == nil {
		return
	}

	var req map[string]string
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		return
	}
	a.Broadcast(p.Name() + ": " + req["text"])
}

func (s *GameServer) handleArenaList(sess *session.Session) {
	type entry struct {
		Name    string `json:"name"`
		Phase   string `json:"phase"`
		Players int    `json:"players"`
		Locked  bool   `json:"locked"`
	}

	var list []entry
	for _, a := range s.flow.Arenas().List() {
		list = append(list, entry{
			Name:    a.Name(),
			Phase:   a.Phase().String(),
			Players: a.PlayerCount(),
			Locked:  a.IsLocked(),
		})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })

	data, _ := json.Marshal(list)
	sess.Send(network.MsgTypeArenaList, data)
}

// resolve maps a session back to its player and arena.
func (s *GameServer) resolve(sess *session.Session) (*arena.Player, *arena.Arena) {
	if sess.Arena() == "" {
		return nil, nil
	}
	a, exists := s.flow.Arenas().Get(sess.Arena())
	if !exists {
		return nil, nil
	}
	p, exists := s.players.Get(sess.PlayerID)
	if !exists {
		return nil, nil
	}
	return p, a
}

func (s *GameServer) sendError(sess *session.Session, message string) {
	data, _ := json.Marshal(map[string]string{"error": message})
	sess.Send(network.MsgTypeError, data)
}

// playerIdentity parses the client-supplied player id, falling back to a
// name-derived id so reconnects keep their statistics.
func playerIdentity(raw, name string) uuid.UUID {
	if id, err := uuid.Parse(raw); err == nil {
		return id
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name))
}
