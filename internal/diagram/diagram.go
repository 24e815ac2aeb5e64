// Package diagram runs the full visualization pass (assemble, build, lay out)
// and encodes the result for export.
package diagram

import (
	"context"
	"sync"
	"time"

	"github.com/koustreak/erdview/internal/catalog"
	"github.com/koustreak/erdview/internal/errs"
	"github.com/koustreak/erdview/internal/graph"
	"github.com/koustreak/erdview/internal/layout"
	"github.com/koustreak/erdview/internal/logger"
	"github.com/koustreak/erdview/internal/schema"
)

// Diagram is one laid-out ERD and what the assembler had to leave out.
type Diagram struct {
	Graph       *graph.Graph   `json:"graph" yaml:"graph"`
	Report      *schema.Report `json:"report" yaml:"report"`
	GeneratedAt time.Time      `json:"generatedAt" yaml:"generatedAt"`
}

// Service produces diagrams from a catalog and remembers the latest one.
// It is safe for concurrent use.
type Service struct {
	catalog   schema.Catalog
	assembler *schema.Assembler
	engine    *layout.Engine
	log       *logger.Logger
	now       func() time.Time

	mu   sync.RWMutex
	last *Diagram
}

// NewService wires a service. log may be nil.
func NewService(cat schema.Catalog, asm *schema.Assembler, eng *layout.Engine, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		catalog:   cat,
		assembler: asm,
		engine:    eng,
		log:       log.Component("diagram"),
		now:       time.Now,
	}
}

// Visualize assembles the schema model, builds the graph and lays it out.
// With a descriptor a new session is opened first; with nil the current
// session is used. Assembly failures are returned as-is.
func (s *Service) Visualize(ctx context.Context, desc *catalog.Descriptor) (*Diagram, error) {
	start := s.now()

	model, report, err := s.assembler.Assemble(ctx, s.catalog, desc)
	if err != nil {
		s.log.ErrorWith("visualization failed", err, nil)
		return nil, err
	}

	g := graph.Build(model)
	opts := s.engine.Options()
	g.Resize(opts.NodeWidth, opts.NodeHeight)

	laid, err := s.engine.Layout(g)
	if err != nil {
		return nil, err
	}

	d := &Diagram{Graph: laid, Report: report, GeneratedAt: s.now().UTC()}

	s.mu.Lock()
	s.last = d
	s.mu.Unlock()

	s.log.InfoWith("diagram generated", map[string]interface{}{
		"nodes":    len(laid.Nodes),
		"edges":    len(laid.Edges),
		"duration": s.now().Sub(start).String(),
	})
	return d, nil
}

// Last returns the most recent diagram, if any.
func (s *Service) Last() (*Diagram, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.last != nil
}

// Search matches query against the nodes of the latest diagram.
func (s *Service) Search(query string) ([]graph.Node, error) {
	d, ok := s.Last()
	if !ok {
		return nil, errs.New(errs.ErrKindNotFound, "no diagram has been generated yet")
	}
	return graph.Search(d.Graph, query), nil
}
