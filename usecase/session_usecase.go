package usecase

import (
	"context"
	"sync"
	"time"

	"vault/domain/repository"
	"vault/infrastructure/logger"

	"github.com/google/uuid"
)

// Session is one browser's page state.
type Session struct {
	ID         string
	Controller *ViewController

	cancel   context.CancelFunc
	lastSeen time.Time
}

type SessionListener func(sessionID string, state ViewState)

// ISessionUsecase hands out one ViewController per browser session.
type ISessionUsecase interface {
	// Acquire returns the session for id, creating a new one (with a new id)
	// when id is empty or unknown. created reports whether it is fresh and
	// still needs its Mounted event.
	Acquire(id string) (sess *Session, created bool)
	Lookup(id string) (*Session, bool)
	Sweep() int
	RunJanitor(ctx context.Context, interval time.Duration) error
	Len() int
	Close()
}

type SessionUsecase struct {
	ctx     context.Context
	gateway repository.IVideoGateway
	ttl     time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	listener SessionListener
	inUse    func(sessionID string) bool
}

// NewSessionUsecase creates the session registry. Controller loops run until
// ctx is cancelled, their session is swept, or Close is called.
func NewSessionUsecase(ctx context.Context, gateway repository.IVideoGateway, ttl time.Duration) *SessionUsecase {
	return &SessionUsecase{
		ctx:      ctx,
		gateway:  gateway,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// WithBroadcaster sets a listener notified on every state change of every session (fluent)
func (u *SessionUsecase) WithBroadcaster(fn SessionListener) *SessionUsecase {
	u.mu.Lock()
	u.listener = fn
	u.mu.Unlock()
	return u
}

// WithKeepAlive sets a check that keeps a session alive past its TTL while it
// reports true, e.g. while a page holds an event stream open (fluent)
func (u *SessionUsecase) WithKeepAlive(inUse func(sessionID string) bool) *SessionUsecase {
	u.mu.Lock()
	u.inUse = inUse
	u.mu.Unlock()
	return u
}

// WithClock overrides time.Now for expiry checks (fluent)
func (u *SessionUsecase) WithClock(now func() time.Time) *SessionUsecase {
	u.mu.Lock()
	u.now = now
	u.mu.Unlock()
	return u
}

func (u *SessionUsecase) Acquire(id string) (*Session, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if sess, ok := u.sessions[id]; ok && id != "" {
		sess.lastSeen = u.now()
		return sess, false
	}

	sess := u.newSessionLocked()
	u.sessions[sess.ID] = sess
	logger.GetLogger().WithField("session_id", sess.ID).Debug("Session created")
	return sess, true
}

func (u *SessionUsecase) newSessionLocked() *Session {
	ctx, cancel := context.WithCancel(u.ctx)
	ctrl := NewViewController(u.gateway)
	sess := &Session{
		ID:         uuid.NewString(),
		Controller: ctrl,
		cancel:     cancel,
		lastSeen:   u.now(),
	}
	if listener := u.listener; listener != nil {
		id := sess.ID
		ctrl.OnChange(func(s ViewState) { listener(id, s) })
	}
	go func() {
		_ = ctrl.Run(ctx)
	}()
	return sess
}

func (u *SessionUsecase) Lookup(id string) (*Session, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	sess, ok := u.sessions[id]
	if ok {
		sess.lastSeen = u.now()
	}
	return sess, ok
}

func (u *SessionUsecase) Len() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.sessions)
}

// Sweep stops and forgets sessions idle for longer than the TTL.
func (u *SessionUsecase) Sweep() int {
	u.mu.Lock()
	defer u.mu.Unlock()

	now := u.now()
	cutoff := now.Add(-u.ttl)
	evicted := 0
	for id, sess := range u.sessions {
		if !sess.lastSeen.Before(cutoff) {
			continue
		}
		if u.inUse != nil && u.inUse(id) {
			sess.lastSeen = now
			continue
		}
		sess.cancel()
		delete(u.sessions, id)
		evicted++
	}
	if evicted > 0 {
		logger.GetLogger().WithField("evicted", evicted).WithField("remaining", len(u.sessions)).Info("Expired sessions swept")
	}
	return evicted
}

// RunJanitor sweeps on every tick until ctx is done.
func (u *SessionUsecase) RunJanitor(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			u.Sweep()
		}
	}
}

func (u *SessionUsecase) Close() {
	u.mu.Lock()
	defer u.mu.Unlock()
	for id, sess := range u.sessions {
		sess.cancel()
		delete(u.sessions, id)
	}
}
