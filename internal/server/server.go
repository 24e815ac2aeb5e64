// Package server exposes the catalog client and the diagram service as a
// JSON HTTP API with a server-sent event stream for connection status.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/koustreak/erdview/internal/catalog"
	"github.com/koustreak/erdview/internal/diagram"
	"github.com/koustreak/erdview/internal/graph"
	"github.com/koustreak/erdview/internal/logger"
)

// Catalog is the part of the catalog client the API drives.
type Catalog interface {
	Connect(ctx context.Context, d catalog.Descriptor) (*catalog.ConnectResult, error)
	Disconnect(ctx context.Context) error
	Status() catalog.Status
	Subscribe(l catalog.Listener) (unsubscribe func())

	ListSchemas(ctx context.Context) ([]catalog.SchemaInfo, error)
	ListTables(ctx context.Context, schema string) ([]catalog.TableSummary, error)
	GetColumns(ctx context.Context, schema, table string) ([]catalog.ColumnRow, error)
	GetForeignKeys(ctx context.Context, schema, table string) ([]catalog.ForeignKeyRow, error)
	RunQuery(ctx context.Context, query string) (*catalog.QueryResult, error)
}

// Diagrams produces and searches ERDs.
type Diagrams interface {
	Visualize(ctx context.Context, desc *catalog.Descriptor) (*diagram.Diagram, error)
	Search(query string) ([]graph.Node, error)
}

var (
	_ Catalog  = (*catalog.Client)(nil)
	_ Diagrams = (*diagram.Service)(nil)
)

// Config holds what the server needs.
type Config struct {
	Addr     string
	Catalog  Catalog
	Diagrams Diagrams
	Logger   *logger.Logger

	// ShutdownTimeout bounds graceful shutdown. Zero means 5s.
	ShutdownTimeout time.Duration

	// KeepAlive is the interval between SSE comments on idle streams. Zero means 25s.
	KeepAlive time.Duration
}

// Server is the HTTP boundary.
type Server struct {
	addr            string
	catalog         Catalog
	diagrams        Diagrams
	log             *logger.Logger
	shutdownTimeout time.Duration
	keepAlive       time.Duration
}

// New creates a server instance.
func New(cfg Config) *Server {
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{
		addr:            cfg.Addr,
		catalog:         cfg.Catalog,
		diagrams:        cfg.Diagrams,
		log:             log.Component("server"),
		shutdownTimeout: cfg.ShutdownTimeout,
		keepAlive:       cfg.KeepAlive,
	}
	if s.shutdownTimeout <= 0 {
		s.shutdownTimeout = 5 * time.Second
	}
	if s.keepAlive <= 0 {
		s.keepAlive = 25 * time.Second
	}
	return s
}

// Handler returns the router with all routes and middleware installed.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		s.requestLogger,
		middleware.Recoverer,
	)

	r.Route("/api", func(r chi.Router) {
		r.Post("/connect", s.handleConnect)
		r.Post("/disconnect", s.handleDisconnect)
		r.Get("/status", s.handleStatus)
		r.Get("/events", s.handleEvents)

		r.Route("/schemas", func(r chi.Router) {
			r.Get("/", s.handleSchemas)
			r.Get("/{schema}/tables", s.handleTables)
			r.Get("/{schema}/tables/{table}/columns", s.handleColumns)
			r.Get("/{schema}/tables/{table}/relations", s.handleRelations)
		})

		r.Post("/query", s.handleQuery)
		r.Post("/visualize", s.handleVisualize)
		r.Get("/diagram/search", s.handleSearch)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, envelope{"success": false, "error": "route not found"})
	})
	return r
}

// Serve starts the server and blocks until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.log.With().Str("addr", ln.Addr().String()).Logger().Info("http server listening")

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		s.log.Debug("shutting down http server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
