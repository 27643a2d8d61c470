package api

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"boardsync/board"
	"boardsync/reminder"
)

// session pairs one owner's board engine with its reminder scheduler. The
// scheduler reads the engine's snapshot and lives exactly as long as the
// session.
type session struct {
	engine    *board.Engine
	scheduler *reminder.Scheduler
}

// Sessions lazily creates one session per authenticated owner and tears all
// of them down on Close.
type Sessions struct {
	store    board.Store
	ledger   reminder.Ledger
	notifier reminder.Notifier
	logger   *log.Logger

	mu     sync.Mutex
	byID   map[string]*session
	closed bool
}

// NewSessions creates the session registry.
func NewSessions(store board.Store, ledger reminder.Ledger, notifier reminder.Notifier, logger *log.Logger) *Sessions {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Sessions{
		store:    store,
		ledger:   ledger,
		notifier: notifier,
		logger:   logger,
		byID:     make(map[string]*session),
	}
}

// engineFor returns the owner's engine, building the session and starting
// its reminder scheduler on first use.
func (s *Sessions) engineFor(owner string) *board.Engine {
	sess := s.sessionFor(owner)
	if sess == nil {
		return nil
	}
	return sess.engine
}

func (s *Sessions) sessionFor(owner string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	if sess, ok := s.byID[owner]; ok {
		return sess
	}
	engine := board.NewEngine(s.store, owner, s.logger)
	sess := &session{engine: engine}
	sess.scheduler = reminder.NewScheduler(reminder.Config{
		Owner:    owner,
		Tasks:    engine.Snapshot,
		Ledger:   s.ledger,
		Notifier: s.notifier,
		Logger:   s.logger,
	})
	sess.scheduler.Start(context.Background())
	s.byID[owner] = sess
	s.logger.WithField("owner", owner).Info("board session started")
	return sess
}

// Close stops every session's reminder scheduler. No reminder tick runs
// after Close returns.
func (s *Sessions) Close() {
	s.mu.Lock()
	s.closed = true
	sessions := make([]*session, 0, len(s.byID))
	for _, sess := range s.byID {
		sessions = append(sessions, sess)
	}
	s.byID = map[string]*session{}
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.scheduler.Stop()
	}
}
