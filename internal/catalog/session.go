package catalog

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Session wraps exactly one live connection pool. It is never mutated after
// it becomes active: reconnecting builds a new Session and closes this one,
// so in-flight calls against it fail cleanly instead of touching the new one.
type Session struct {
	ID            uuid.UUID
	Descriptor    Descriptor
	EngineVersion string
	ServerVersion string
	OpenedAt      time.Time

	db        *sql.DB
	stop      chan struct{}
	closeOnce sync.Once
	inflight  atomic.Int64 // calls holding or waiting for a pooled connection
}

func newSession(d Descriptor, db *sql.DB) *Session {
	return &Session{
		ID:         uuid.New(),
		Descriptor: d,
		OpenedAt:   time.Now(),
		db:         db,
		stop:       make(chan struct{}),
	}
}

// close stops the health monitor and releases the pool. Safe to call twice.
func (s *Session) close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stop)
		err = s.db.Close()
	})
	return err
}

// monitor pings the session every interval until it is closed or a ping
// fails, in which case onLost is called once. Ticks are skipped while calls
// are in flight: the pool may be fully checked out, and a running call
// proves the session alive better than a ping would.
func (s *Session) monitor(interval, timeout time.Duration, onLost func(*Session, error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if s.inflight.Load() > 0 {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			err := s.db.PingContext(ctx)
			cancel()
			// A call that started during the ping may have taken the only
			// connection; running out of time waiting for it is not a loss.
			if err != nil && errors.Is(err, context.DeadlineExceeded) && s.inflight.Load() > 0 {
				continue
			}
			if err != nil {
				select {
				case <-s.stop:
				default:
					onLost(s, err)
				}
				return
			}
		}
	}
}
