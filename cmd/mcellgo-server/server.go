package main

import (
	"sync"
	"time"

	"github.com/nrazek/mcellgo/internal/kernel"
	"github.com/nrazek/mcellgo/internal/notify"
	"github.com/nrazek/mcellgo/internal/simctl"
)

// Server is the HTTP+WebSocket control plane: one simctl.Manager hosting any
// number of named partitions, one shared NotificationManager fanning their
// snapshots/reactions out to registered notifiers. Grounded on achemdb's
// cmd/achemdb-server/server.go Server struct, generalized from one
// environment field to the manager this module already has.
type Server struct {
	mu                 sync.RWMutex
	manager            *simctl.Manager
	notifierMgr        *notify.NotificationManager
	wsNotifier         *notify.WebSocketNotifier
	snapshotEveryTicks int
	tickCounts         map[string]int
	logger             *Logger
}

// NewServer creates a Server with its own manager and notification manager,
// and a WebSocket notifier pre-registered under the id "live" so /ws always
// has somewhere to attach.
func NewServer(logger *Logger) *Server {
	nm := notify.NewNotificationManager()
	ws := notify.NewWebSocketNotifier("live")
	_ = nm.RegisterNotifier(ws)

	return &Server{
		manager:     simctl.NewManager(),
		notifierMgr: nm,
		wsNotifier:  ws,
		tickCounts:  make(map[string]int),
		logger:      logger,
	}
}

// SetSnapshotEveryTicks sets how often (in ticks) an auto-running partition
// pushes a snapshot notification; 0 disables periodic notification.
func (s *Server) SetSnapshotEveryTicks(ticks int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshotEveryTicks = ticks
}

// notifyStep counts one elapsed tick for id and, once snapshotEveryTicks
// have accumulated, pushes a snapshot notification and resets the count.
func (s *Server) notifyStep(id string) {
	s.mu.Lock()
	every := s.snapshotEveryTicks
	if every <= 0 {
		s.mu.Unlock()
		return
	}
	s.tickCounts[id]++
	n := s.tickCounts[id]
	if n < every {
		s.mu.Unlock()
		return
	}
	s.tickCounts[id] = 0
	s.mu.Unlock()

	run, ok := s.manager.Get(id)
	if !ok {
		return
	}
	snap := run.Snapshot()
	event := notify.NewSnapshotEvent(snap, time.Now())
	s.notifierMgr.Enqueue(event, []string{s.wsNotifier.ID()})
}

func (s *Server) onRunError(id string, err error) {
	s.logger.Errorf("partition run failed: id=%s error=%v", id, err)
}

func (s *Server) buildLogger() kernel.Logger {
	return s.logger
}
