package rpc

import (
	"fmt"
	"net"
	"net/rpc"

	"github.com/wfunc/arena/logger"
	"github.com/wfunc/arena/services"
	"github.com/wfunc/arena/workflow"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
}

// NewServer creates a new RPC server.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// AdminService exposes operator commands over net/rpc. Methods follow the
// net/rpc signature rules: exported, pointer reply, error return.
type AdminService struct {
	flow  *workflow.Manager
	stats *services.StatsService
}

func NewAdminService(flow *workflow.Manager, stats *services.StatsService) *AdminService {
	return &AdminService{flow: flow, stats: stats}
}

type ListArenasArgs struct{}

type ArenaInfo struct {
	Name    string
	Phase   string
	Players int
	Locked  bool
	Goal    string
}

type ListArenasReply struct {
	Arenas []ArenaInfo
}

func (as *AdminService) ListArenas(args *ListArenasArgs, reply *ListArenasReply) error {
	for _, a := range as.flow.Arenas().List() {
		info := ArenaInfo{
			Name:    a.Name(),
			Phase:   a.Phase().String(),
			Players: a.PlayerCount(),
			Locked:  a.IsLocked(),
		}
		if g := a.Goal(); g != nil {
			info.Goal = g.Name()
		}
		reply.Arenas = append(reply.Arenas, info)
	}
	return nil
}

type GetPlayerStatsArgs struct {
	PlayerID string
	Arena    string
}

type GetPlayerStatsReply struct {
	Kills  int
	Deaths int
	Wins   int
	Losses int
	Damage int
}

func (as *AdminService) GetPlayerStats(args *GetPlayerStatsArgs, reply *GetPlayerStatsReply) error {
	stats, err := as.stats.PlayerStats(args.PlayerID, args.Arena)
	if err != nil {
		return err
	}
	reply.Kills = stats.Kills
	reply.Deaths = stats.Deaths
	reply.Wins = stats.Wins
	reply.Losses = stats.Losses
	reply.Damage = stats.Damage
	return nil
}

type ForceEndArgs struct {
	Arena string
}

type ForceEndReply struct {
	Ended bool
}

// ForceEnd triggers the end sequence for a running match. Ended reports false
// when an end was already in flight.
func (as *AdminService) ForceEnd(args *ForceEndArgs, reply *ForceEndReply) error {
	a, exists := as.flow.Arenas().Get(args.Arena)
	if !exists {
		return fmt.Errorf("unknown arena: %s", args.Arena)
	}
	reply.Ended = as.flow.HandleEnd(a, true)
	return nil
}

type ForceResetArgs struct {
	Arena string
}

type ForceResetReply struct{}

// ForceReset aborts the arena unconditionally and returns it to idle.
func (as *AdminService) ForceReset(args *ForceResetArgs, reply *ForceResetReply) error {
	a, exists := as.flow.Arenas().Get(args.Arena)
	if !exists {
		return fmt.Errorf("unknown arena: %s", args.Arena)
	}
	as.flow.ForceReset(a)
	return nil
}
