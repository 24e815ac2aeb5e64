// Package catalog is the Catalog Client: it owns the single live database
// session, enforces per-call timeouts, and runs the introspection queries a
// Dialect supplies.
//
// Usage:
//
//	c, err := catalog.New(catalog.DefaultConfig(), catalog.WithLogger(log))
//	if err != nil { ... }
//	defer c.Close()
//
//	if _, err := c.Connect(ctx, desc); err != nil { ... }
//	schemas, err := c.ListSchemas(ctx)
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/koustreak/erdview/internal/errs"
	"github.com/koustreak/erdview/internal/logger"
)

// Opener opens a connection pool. It exists so tests can hand back a mock.
type Opener func(driverName, dsn string) (*sql.DB, error)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client's logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l.Component("catalog") }
}

// WithOpener replaces sql.Open.
func WithOpener(o Opener) Option {
	return func(c *Client) { c.open = o }
}

// WithDialect bypasses the registry lookup for cfg.Driver.
func WithDialect(d Dialect) Option {
	return func(c *Client) { c.dialect = d }
}

// Client is the Catalog Client. It is safe for concurrent use; Connect and
// Disconnect are serialized with each other.
type Client struct {
	cfg     Config
	dialect Dialect
	open    Opener
	log     *logger.Logger
	notify  *notifier

	lifecycle sync.Mutex // serializes Connect / Disconnect

	mu             sync.RWMutex
	session        *Session
	state          State
	lastErr        error
	needsReconnect bool
	attempts       int
}

// New creates a disconnected client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Client{
		cfg:    cfg,
		open:   sql.Open,
		log:    logger.Nop(),
		notify: newNotifier(),
		state:  StateDisconnected,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.dialect == nil {
		d, err := Lookup(cfg.Driver)
		if err != nil {
			return nil, err
		}
		c.dialect = d
	}
	return c, nil
}

// Dialect returns the engine dialect the client was built with.
func (c *Client) Dialect() Dialect {
	return c.dialect
}

// Connect tears down any existing session and opens a new one for d.
// Teardown errors of the old session are logged and otherwise ignored.
func (c *Client) Connect(ctx context.Context, d Descriptor) (*ConnectResult, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.mu.Lock()
	old := c.session
	c.session = nil
	c.state = StateConnecting
	if old != nil || c.lastErr != nil {
		c.attempts++
	}
	attempts := c.attempts
	c.mu.Unlock()

	log := c.log.With().Str("target", d.Redacted()).Logger()

	if old != nil {
		if err := old.close(); err != nil {
			log.With().Err(err).Str("session", old.ID.String()).Logger().Debug("closing previous session failed")
		}
	}
	if c.cfg.MaxReconnectAttempts > 0 && attempts > c.cfg.MaxReconnectAttempts {
		log.WarnWith("reconnect attempts exceed configured maximum", nil, map[string]interface{}{
			"attempts": attempts,
			"max":      c.cfg.MaxReconnectAttempts,
		})
	}

	dsn, err := c.dialect.DSN(d, c.cfg)
	if err != nil {
		return nil, c.connectFailed(err)
	}
	db, err := c.open(c.dialect.DriverName(), dsn)
	if err != nil {
		return nil, c.connectFailed(errs.Wrap(errs.ErrKindConnectionFailed, "failed to open connection", err))
	}
	db.SetMaxOpenConns(c.cfg.MaxConns)
	db.SetMaxIdleConns(c.cfg.MaxConns)

	cctx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
	defer cancel()

	var raw string
	if err := db.QueryRowContext(cctx, c.dialect.VersionQuery()).Scan(&raw); err != nil {
		_ = db.Close()
		mapped := c.dialect.MapError(err, "liveness probe failed")
		if !errs.IsPermissionDenied(mapped) {
			mapped.Kind = errs.ErrKindConnectionFailed
		}
		return nil, c.connectFailed(mapped)
	}

	sess := newSession(d, db)
	sess.EngineVersion = raw
	sess.ServerVersion = c.dialect.ParseVersion(raw)

	c.mu.Lock()
	c.session = sess
	c.state = StateConnected
	c.lastErr = nil
	c.needsReconnect = false
	c.attempts = 0
	c.mu.Unlock()

	if c.cfg.HealthCheckInterval > 0 {
		go sess.monitor(c.cfg.HealthCheckInterval, c.cfg.ConnectTimeout, c.sessionLost)
	}

	log.With().Str("session", sess.ID.String()).Str("server_version", sess.ServerVersion).Logger().Info("connected")
	c.notify.publish(StatusEvent{Connected: true, SessionID: sess.ID.String()})

	return &ConnectResult{
		SessionID:     sess.ID.String(),
		EngineVersion: sess.EngineVersion,
		ServerVersion: sess.ServerVersion,
	}, nil
}

func (c *Client) connectFailed(err error) error {
	c.mu.Lock()
	c.state = StateError
	c.lastErr = err
	c.mu.Unlock()

	c.log.With().Err(err).Logger().Error("connect failed")
	c.notify.publish(StatusEvent{Connected: false, Error: err.Error()})
	return err
}

// sessionLost handles an asynchronous failure of sess. Events from a session
// that has already been replaced are ignored.
func (c *Client) sessionLost(sess *Session, cause error) {
	c.mu.Lock()
	if c.session != sess {
		c.mu.Unlock()
		return
	}
	c.session = nil
	c.state = StateDisconnected
	c.lastErr = errs.Wrap(errs.ErrKindConnectionFailed, "connection lost", cause)
	lost := c.lastErr
	c.mu.Unlock()

	_ = sess.close()
	c.log.With().Err(cause).Str("session", sess.ID.String()).Logger().Warn("session lost")
	c.notify.publish(StatusEvent{Connected: false, SessionID: sess.ID.String(), Error: lost.Error()})
}

// Disconnect closes the current session. It is a no-op when none is open.
func (c *Client) Disconnect(_ context.Context) error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.mu.Lock()
	sess := c.session
	c.session = nil
	c.state = StateDisconnected
	c.needsReconnect = false
	c.mu.Unlock()

	if sess == nil {
		return nil
	}
	if err := sess.close(); err != nil {
		c.log.With().Err(err).Logger().Debug("closing session failed")
	}
	c.log.With().Str("session", sess.ID.String()).Logger().Info("disconnected")
	c.notify.publish(StatusEvent{Connected: false, SessionID: sess.ID.String()})
	return nil
}

// Close disconnects. It exists so Client can be deferred like any resource.
func (c *Client) Close() error {
	return c.Disconnect(context.Background())
}

// Connected reports whether a session is open.
func (c *Client) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session != nil
}

// Status returns a snapshot of the client state.
func (c *Client) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	st := Status{
		State:             c.state,
		Connected:         c.session != nil,
		NeedsReconnect:    c.needsReconnect,
		ReconnectAttempts: c.attempts,
	}
	if c.lastErr != nil {
		st.LastError = c.lastErr.Error()
	}
	if s := c.session; s != nil {
		st.SessionID = s.ID.String()
		st.Database = s.Descriptor.Database
		st.EngineVersion = s.ServerVersion
		st.ConnectedAt = s.OpenedAt
	}
	return st
}

// Subscribe registers l for status changes. Calling the returned function
// stops delivery; no event reaches l after it returns.
func (c *Client) Subscribe(l Listener) (unsubscribe func()) {
	return c.notify.subscribe(l)
}

func (c *Client) active() (*Session, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return nil, errs.New(errs.ErrKindNotConnected, "database not connected")
	}
	return c.session, nil
}

// do runs fn on a connection of the active session. The query timeout starts
// once the connection is held, so time spent queued behind other calls on
// the pool never counts as a timeout; waiting is bounded by ctx alone.
func (c *Client) do(ctx context.Context, op string, fn func(context.Context, *sql.Conn) error) error {
	sess, err := c.active()
	if err != nil {
		return err
	}

	sess.inflight.Add(1)
	defer sess.inflight.Add(-1)

	conn, err := sess.db.Conn(ctx)
	if err != nil {
		return c.dialect.MapError(err, op)
	}
	defer func() { _ = conn.Close() }()

	qctx, cancel := context.WithTimeout(ctx, c.cfg.QueryTimeout)
	defer cancel()

	err = fn(qctx, conn)
	if err == nil {
		return nil
	}

	if ctx.Err() == nil && errors.Is(qctx.Err(), context.DeadlineExceeded) {
		c.mu.Lock()
		if c.session == sess {
			c.needsReconnect = true
		}
		c.mu.Unlock()
		c.log.With().Str("op", op).Dur("timeout", c.cfg.QueryTimeout).Logger().Warn("query timed out; reconnect recommended")
		return errs.Wrap(errs.ErrKindTimeout, fmt.Sprintf("query timed out after %s", c.cfg.QueryTimeout), err)
	}

	var e *errs.Error
	if errors.As(err, &e) {
		return err
	}
	return c.dialect.MapError(err, op)
}

// ListSchemas returns the non-system schemas, ordered by name.
func (c *Client) ListSchemas(ctx context.Context) ([]SchemaInfo, error) {
	var out []SchemaInfo
	err := c.do(ctx, "failed to list schemas", func(ctx context.Context, conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, c.dialect.SchemasQuery())
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var s SchemaInfo
			if err := rows.Scan(&s.Name, &s.TableCount); err != nil {
				return err
			}
			out = append(out, s)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListTables returns the base tables of schema.
func (c *Client) ListTables(ctx context.Context, schema string) ([]TableSummary, error) {
	var out []TableSummary
	err := c.do(ctx, fmt.Sprintf("failed to list tables of %q", schema), func(ctx context.Context, conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, c.dialect.TablesQuery(), schema)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var t TableSummary
			if err := rows.Scan(&t.Name, &t.ColumnCount, &t.Description); err != nil {
				return err
			}
			out = append(out, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetColumns returns the columns of schema.table in ordinal order.
func (c *Client) GetColumns(ctx context.Context, schema, table string) ([]ColumnRow, error) {
	var out []ColumnRow
	err := c.do(ctx, fmt.Sprintf("failed to get columns of %s.%s", schema, table), func(ctx context.Context, conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, c.dialect.ColumnsQuery(), schema, table)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var col ColumnRow
			if err := rows.Scan(
				&col.Name,
				&col.DataType,
				&col.IsNullable,
				&col.Default,
				&col.MaxLength,
				&col.Description,
				&col.IsPrimaryKey,
				&col.IsForeignKey,
			); err != nil {
				return err
			}
			out = append(out, col)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetForeignKeys returns one row per referencing column of schema.table.
func (c *Client) GetForeignKeys(ctx context.Context, schema, table string) ([]ForeignKeyRow, error) {
	var out []ForeignKeyRow
	err := c.do(ctx, fmt.Sprintf("failed to get foreign keys of %s.%s", schema, table), func(ctx context.Context, conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, c.dialect.ForeignKeysQuery(), schema, table)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var fk ForeignKeyRow
			if err := rows.Scan(
				&fk.ConstraintName,
				&fk.Schema,
				&fk.Table,
				&fk.Column,
				&fk.ForeignSchema,
				&fk.ForeignTable,
				&fk.ForeignColumn,
			); err != nil {
				return err
			}
			out = append(out, fk)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RunQuery executes an arbitrary statement and returns every row.
// Engine errors keep their diagnostics (position, detail, hint, code).
func (c *Client) RunQuery(ctx context.Context, query string) (*QueryResult, error) {
	if query == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "query is empty")
	}
	var res *QueryResult
	err := c.do(ctx, "query failed", func(ctx context.Context, conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query)
		if err != nil {
			return err
		}
		data, fields, err := scanRows(rows)
		if err != nil {
			return err
		}
		res = &QueryResult{Rows: data, RowCount: len(data), Fields: fields}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
