package schema

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/koustreak/erdview/internal/catalog"
	"github.com/koustreak/erdview/internal/errs"
	"github.com/koustreak/erdview/internal/logger"
)

// DefaultConcurrency bounds how many tables are introspected at once.
const DefaultConcurrency = 4

// Assembler turns catalog rows into a Model.
type Assembler struct {
	concurrency int
	log         *logger.Logger
}

// NewAssembler returns an assembler. concurrency < 1 uses DefaultConcurrency.
func NewAssembler(concurrency int, log *logger.Logger) *Assembler {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Assembler{concurrency: concurrency, log: log.Component("assembler")}
}

// Assemble introspects the whole database behind cat.
//
// With a descriptor, a fresh session is opened first; with nil, the existing
// session is used. Only a connect failure, a missing session, a failed
// ListSchemas, or cancellation of ctx fail the pass. Everything else is
// skipped or degraded and recorded in the Report.
func (a *Assembler) Assemble(ctx context.Context, cat Catalog, desc *catalog.Descriptor) (*Model, *Report, error) {
	if desc != nil {
		if _, err := cat.Connect(ctx, *desc); err != nil {
			return nil, nil, err
		}
	} else if !cat.Connected() {
		return nil, nil, errs.New(errs.ErrKindNotConnected, "database not connected")
	}

	schemas, err := cat.ListSchemas(ctx)
	if err != nil {
		return nil, nil, err
	}

	model := &Model{Tables: []Table{}}
	report := &Report{}

	for _, s := range schemas {
		if err := ctx.Err(); err != nil {
			return nil, nil, fmt.Errorf("assemble: %w", err)
		}

		tables, err := cat.ListTables(ctx, s.Name)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, fmt.Errorf("assemble: %w", ctx.Err())
			}
			a.log.With().Err(err).Str("schema", s.Name).Logger().Warn("skipping schema")
			report.SkippedSchemas = append(report.SkippedSchemas, Skip{Schema: s.Name, Reason: err.Error()})
			continue
		}

		results := make([]tableResult, len(tables))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(a.concurrency)
		for i, t := range tables {
			g.Go(func() error {
				results[i] = a.assembleTable(gctx, cat, s.Name, t)
				return nil
			})
		}
		_ = g.Wait()

		if err := ctx.Err(); err != nil {
			return nil, nil, fmt.Errorf("assemble: %w", err)
		}

		for _, r := range results {
			if r.skip != nil {
				report.SkippedTables = append(report.SkippedTables, *r.skip)
				continue
			}
			if r.degraded != nil {
				report.DegradedTables = append(report.DegradedTables, *r.degraded)
			}
			report.UnmatchedForeignKeys = append(report.UnmatchedForeignKeys, r.unmatched...)
			model.Tables = append(model.Tables, r.table)
		}
	}

	a.log.InfoWith("schema assembled", map[string]interface{}{
		"schemas":    len(schemas),
		"tables":     len(model.Tables),
		"references": model.ReferenceCount(),
		"clean":      report.Clean(),
	})
	return model, report, nil
}

type tableResult struct {
	table     Table
	skip      *Skip
	degraded  *Skip
	unmatched []UnmatchedForeignKey
}

// assembleTable fetches columns and foreign keys as a joined pair and merges
// them. A column failure skips the table; a foreign-key failure keeps it
// without references.
func (a *Assembler) assembleTable(ctx context.Context, cat Catalog, schemaName string, t catalog.TableSummary) tableResult {
	var (
		cols   []catalog.ColumnRow
		fks    []catalog.ForeignKeyRow
		colErr error
		fkErr  error
		pair   errgroup.Group
	)
	pair.Go(func() error {
		cols, colErr = cat.GetColumns(ctx, schemaName, t.Name)
		return nil
	})
	pair.Go(func() error {
		fks, fkErr = cat.GetForeignKeys(ctx, schemaName, t.Name)
		return nil
	})
	_ = pair.Wait()

	log := a.log.With().Str("schema", schemaName).Str("table", t.Name).Logger()

	if colErr != nil {
		log.With().Err(colErr).Logger().Warn("skipping table")
		return tableResult{skip: &Skip{Schema: schemaName, Table: t.Name, Reason: colErr.Error()}}
	}

	res := tableResult{table: Table{
		Schema:      schemaName,
		Name:        t.Name,
		Description: t.Description,
		Columns:     make([]Column, len(cols)),
	}}

	index := make(map[string]int, len(cols))
	for i, c := range cols {
		index[c.Name] = i
		res.table.Columns[i] = Column{
			Name:         c.Name,
			DataType:     c.DataType,
			IsNullable:   c.IsNullable,
			IsPrimaryKey: c.IsPrimaryKey,
			IsForeignKey: c.IsForeignKey,
			Default:      c.Default,
			MaxLength:    c.MaxLength,
			Description:  c.Description,
		}
	}

	if fkErr != nil {
		log.With().Err(fkErr).Logger().Warn("foreign keys unavailable; keeping table without references")
		res.degraded = &Skip{Schema: schemaName, Table: t.Name, Reason: fkErr.Error()}
		return res
	}

	for _, fk := range fks {
		i, ok := index[fk.Column]
		if !ok {
			target := QualifiedName(fk.ForeignSchema, fk.ForeignTable)
			log.WarnWith("dropping foreign key on unknown column", nil, map[string]interface{}{
				"column":     fk.Column,
				"constraint": fk.ConstraintName,
				"target":     target,
			})
			res.unmatched = append(res.unmatched, UnmatchedForeignKey{
				Schema:     schemaName,
				Table:      t.Name,
				Column:     fk.Column,
				Constraint: fk.ConstraintName,
				Target:     target,
			})
			continue
		}
		col := &res.table.Columns[i]
		if col.References != nil {
			// A column in several constraints keeps the first one.
			continue
		}
		col.IsForeignKey = true
		col.References = &Reference{
			Schema:     fk.ForeignSchema,
			Table:      fk.ForeignTable,
			Column:     fk.ForeignColumn,
			Constraint: fk.ConstraintName,
		}
	}
	return res
}
