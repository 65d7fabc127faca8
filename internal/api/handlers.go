package api

import (
	"encoding/json"
	"net/http"

	"github.com/sprite-ai/specgate/internal/diff"
	"github.com/sprite-ai/specgate/internal/document"
	"github.com/sprite-ai/specgate/internal/impact"
	"github.com/sprite-ai/specgate/internal/inventory"
	"github.com/sprite-ai/specgate/internal/report"
	"github.com/sprite-ai/specgate/internal/specdiff"
)

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Inventory ---

type inventoryRequest struct {
	Document json.RawMessage `json:"document"`
}

type inventoryResponse struct {
	Inventory *inventory.MessageInventory `json:"inventory"`
	Summary   inventory.Summary           `json:"summary"`
}

func (s *Server) handleInventory(w http.ResponseWriter, r *http.Request) {
	var req inventoryRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	doc, ok := s.parseDocument(w, "document", req.Document)
	if !ok {
		return
	}

	inv, err := s.opts.Parser.Parse(doc, "")
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "parsing inventory: "+err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, inventoryResponse{Inventory: inv, Summary: inv.Summary()})
}

// --- Compare ---

type compareRequest struct {
	OldDocument json.RawMessage `json:"old_document"`
	NewDocument json.RawMessage `json:"new_document"`
	OldVersion  string          `json:"old_version,omitempty"`
	NewVersion  string          `json:"new_version,omitempty"`
	Vendor      string          `json:"vendor,omitempty"`
	Model       string          `json:"model,omitempty"`
	// Approval is evaluated as it would be on an update.
	Approval string `json:"approval,omitempty"`
}

type compareResponse struct {
	Outcome specdiff.Outcome   `json:"outcome"`
	Diff    *specdiff.SpecDiff `json:"diff"`
	Report  string             `json:"report"`
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	oldDoc, ok := s.parseDocument(w, "old_document", req.OldDocument)
	if !ok {
		return
	}
	newDoc, ok := s.parseDocument(w, "new_document", req.NewDocument)
	if !ok {
		return
	}
	if req.OldVersion == "" {
		req.OldVersion = "old"
	}
	if req.NewVersion == "" {
		req.NewVersion = "new"
	}

	det := specdiff.NewDetector(s.opts.Parser, specdiff.WithStrategy(s.opts.Strategy), specdiff.WithLogger(s.log))
	d, err := det.Compare(
		specdiff.Snapshot{Version: req.OldVersion, Document: oldDoc},
		specdiff.Snapshot{Version: req.NewVersion, Document: newDoc},
		"",
	)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "comparing: "+err.Error())
		return
	}

	_, content := s.reports.Render(d, report.Device{Vendor: req.Vendor, Model: req.Model})
	s.writeJSON(w, http.StatusOK, compareResponse{
		Outcome: specdiff.Gate(d, req.Approval),
		Diff:    d,
		Report:  content,
	})
}

// --- Classify ---

type classifyRequest struct {
	Kind       string `json:"kind,omitempty"`
	OldContent string `json:"old_content,omitempty"`
	NewContent string `json:"new_content,omitempty"`
	BlockType  string `json:"block_type,omitempty"`
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if req.OldContent == "" && req.NewContent == "" {
		s.writeError(w, http.StatusBadRequest, "old_content or new_content is required")
		return
	}

	kind := impact.Modified
	switch {
	case req.Kind != "":
		var err error
		if kind, err = impact.ParseKind(req.Kind); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	case req.OldContent == "":
		kind = impact.Added
	case req.NewContent == "":
		kind = impact.Removed
	}
	if req.BlockType == "" {
		req.BlockType = document.BlockText
	}

	s.writeJSON(w, http.StatusOK, impact.Classify(kind, req.OldContent, req.NewContent, req.BlockType))
}

// --- Check ---

type checkRequest struct {
	Diff string `json:"diff"`
}

type diffStatsJSON struct {
	Files   int `json:"files"`
	Added   int `json:"added"`
	Deleted int `json:"deleted"`
}

type checkResponse struct {
	Stats    diffStatsJSON            `json:"stats"`
	Decision specdiff.RebuildDecision `json:"decision"`
	Changes  []specdiff.BlockChange   `json:"changes"`
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if req.Diff == "" {
		s.writeError(w, http.StatusBadRequest, "diff is required")
		return
	}

	ps, err := diff.ParsePatch(req.Diff)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	changes := specdiff.Classify(ps.Deltas())
	nFiles, added, deleted := ps.Stats()

	s.writeJSON(w, http.StatusOK, checkResponse{
		Stats:    diffStatsJSON{Files: nFiles, Added: added, Deleted: deleted},
		Decision: specdiff.Decide(changes, nil, nil),
		Changes:  changes,
	})
}

func (s *Server) parseDocument(w http.ResponseWriter, field string, raw json.RawMessage) (*document.Document, bool) {
	if len(raw) == 0 {
		s.writeError(w, http.StatusBadRequest, field+" is required")
		return nil, false
	}
	doc, err := document.Parse(raw)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, field+": "+err.Error())
		return nil, false
	}
	return doc, true
}
