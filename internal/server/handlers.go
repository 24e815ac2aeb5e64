package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/koustreak/erdview/internal/catalog"
	"github.com/koustreak/erdview/internal/diagram"
	"github.com/koustreak/erdview/internal/logger"
)

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var d catalog.Descriptor
	if err := decode(r, &d); err != nil {
		fail(w, r, err)
		return
	}

	res, err := s.catalog.Connect(r.Context(), d)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"success":       true,
		"sessionId":     res.SessionID,
		"version":       res.EngineVersion,
		"serverVersion": res.ServerVersion,
	})
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.Disconnect(r.Context()); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	ok(w, "status", s.catalog.Status())
}

func (s *Server) handleSchemas(w http.ResponseWriter, r *http.Request) {
	schemas, err := s.catalog.ListSchemas(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, "schemas", schemas)
}

func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	tables, err := s.catalog.ListTables(r.Context(), chi.URLParam(r, "schema"))
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, "tables", tables)
}

func (s *Server) handleColumns(w http.ResponseWriter, r *http.Request) {
	cols, err := s.catalog.GetColumns(r.Context(), chi.URLParam(r, "schema"), chi.URLParam(r, "table"))
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, "structure", cols)
}

func (s *Server) handleRelations(w http.ResponseWriter, r *http.Request) {
	fks, err := s.catalog.GetForeignKeys(r.Context(), chi.URLParam(r, "schema"), chi.URLParam(r, "table"))
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, "relations", fks)
}

type queryRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, err)
		return
	}

	res, err := s.catalog.RunQuery(r.Context(), req.Query)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"success":  true,
		"rows":     res.Rows,
		"rowCount": res.RowCount,
		"fields":   res.Fields,
	})
}

// visualizeRequest optionally names a database; without one the current
// session is used.
type visualizeRequest struct {
	Connection *catalog.Descriptor `json:"connection,omitempty"`
}

// handleVisualize returns the diagram as a JSON envelope, or encoded as YAML
// or Mermaid when ?format= asks for it.
func (s *Server) handleVisualize(w http.ResponseWriter, r *http.Request) {
	var req visualizeRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	format, err := diagram.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		fail(w, r, err)
		return
	}

	d, err := s.diagrams.Visualize(r.Context(), req.Connection)
	if err != nil {
		fail(w, r, err)
		return
	}

	if format == diagram.FormatJSON {
		ok(w, "diagram", d)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	if err := diagram.Encode(w, d, format); err != nil {
		logger.FromContext(r.Context()).ErrorWith("encode diagram", err, map[string]interface{}{"format": string(format)})
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	nodes, err := s.diagrams.Search(r.URL.Query().Get("q"))
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, "nodes", nodes)
}
