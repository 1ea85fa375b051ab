package server

import (
	"encoding/json"
	"image/png"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"anglegrid/pkg/grid"
	"anglegrid/pkg/navigation"
	"anglegrid/pkg/visualization"
)

// CellInfo describes a presented cell.
type CellInfo struct {
	Index  int `json:"index"`
	A      int `json:"a"`
	B      int `json:"b"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Status reports build progress.
type Status struct {
	Records    int    `json:"records"`
	Rendered   int    `json:"rendered"`
	Collisions int    `json:"collisions"`
	Keys       int    `json:"keys"`
	Done       bool   `json:"done"`
	Error      string `json:"error,omitempty"`
}

// NavigateResponse answers one slider event.
type NavigateResponse struct {
	Alpha  float64                   `json:"alpha"`
	Beta   float64                   `json:"beta"`
	Found  bool                      `json:"found"`
	Cell   *CellInfo                 `json:"cell,omitempty"`
	Scroll *navigation.ScrollOptions `json:"scroll,omitempty"`
}

// navHost records what the controller asked for during one slider event.
type navHost struct {
	cell *grid.Cell
	opts navigation.ScrollOptions
}

func (h *navHost) ScrollIntoView(cell *grid.Cell, opts navigation.ScrollOptions) {
	h.cell = cell
	h.opts = opts
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, s.sliders); err != nil {
		s.logger.Error("render page", "error", err)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.stateMu.RLock()
	done, buildErr := s.done, s.buildErr
	s.stateMu.RUnlock()

	stats := s.renderer.Stats()
	st := Status{
		Records:    s.ds.Shape().N,
		Rendered:   stats.Rendered,
		Collisions: stats.Collisions,
		Keys:       s.index.Len(),
		Done:       done,
	}
	if buildErr != nil {
		st.Error = buildErr.Error()
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.summary)
}

func (s *Server) handleCells(w http.ResponseWriter, r *http.Request) {
	from := 0
	if v := r.URL.Query().Get("from"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "invalid from", http.StatusBadRequest)
			return
		}
		from = n
	}

	shape := s.ds.Shape()
	cells := s.sheet.Cells(from)
	infos := make([]CellInfo, len(cells))
	for i, cell := range cells {
		infos[i] = CellInfo{Index: cell.Index, A: cell.A, B: cell.B, Width: shape.Width, Height: shape.Height}
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleCellImage(w http.ResponseWriter, r *http.Request) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "invalid cell index", http.StatusBadRequest)
		return
	}
	cell, ok := s.sheet.Cell(i)
	if !ok {
		http.NotFound(w, r)
		return
	}
	img, err := visualization.CellImage(cell)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if err := png.Encode(w, img); err != nil {
		s.logger.Warn("encode cell", "index", i, "error", err)
	}
}

// handleNavigate answers one slider event. The page sends both raw slider
// values and names the one that moved, so every page navigates from its
// own sliders.
func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	alpha, err := strconv.ParseFloat(q.Get("alpha"), 64)
	if err != nil {
		http.Error(w, "invalid alpha", http.StatusBadRequest)
		return
	}
	beta, err := strconv.ParseFloat(q.Get("beta"), 64)
	if err != nil {
		http.Error(w, "invalid beta", http.StatusBadRequest)
		return
	}

	// the page shows its own labels
	host := &navHost{}
	controller := navigation.New(s.index, host, nil, alpha, beta)
	switch q.Get("changed") {
	case "alpha":
		controller.OnAlphaChange(alpha)
	case "beta":
		controller.OnBetaChange(beta)
	default:
		http.Error(w, "changed must be alpha or beta", http.StatusBadRequest)
		return
	}

	alpha, beta = controller.Values()
	resp := NavigateResponse{Alpha: alpha, Beta: beta}
	if host.cell != nil {
		shape := s.ds.Shape()
		resp.Found = true
		resp.Cell = &CellInfo{Index: host.cell.Index, A: host.cell.A, B: host.cell.B, Width: shape.Width, Height: shape.Height}
		resp.Scroll = &host.opts
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
