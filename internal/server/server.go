package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"

	"github.com/testing5586/lynker-match/internal/chart"
	"github.com/testing5586/lynker-match/internal/database"
	"github.com/testing5586/lynker-match/internal/leaderboard"
	"github.com/testing5586/lynker-match/internal/match"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New()

// Server exposes the match and leaderboard APIs plus HTML chart pages.
type Server struct {
	db      *database.DB
	weights leaderboard.WeightVersion
	pages   map[string]*template.Template
	mux     *http.ServeMux
}

// New creates a new Server.
func New(db *database.DB, weights leaderboard.WeightVersion) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown": renderMarkdown,
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}

	// Parse base template first
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// For each page template, clone the base and parse the page into the clone.
	// This gives each page its own {{define "content"}} and {{define "title"}}.
	pageNames := []string{"index.html", "chart.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		_, err = clone.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{db: db, weights: weights, pages: pages, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	// Static files
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	// Routes
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/chart/", s.handleChart)
	s.mux.HandleFunc("/charts", s.handleIngest)
	s.mux.HandleFunc("/match", s.handleMatch)
	s.mux.HandleFunc("/leaderboard/top", s.handleLeaderboardTop)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	charts, err := s.db.ListCharts()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "index.html", map[string]any{
		"Charts": charts,
	})
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/chart/")
	if id == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	rec, err := s.db.GetChart(id)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if rec == nil {
		http.NotFound(w, r)
		return
	}

	raw := chart.RawExtraction{}
	if rec.Raw != nil {
		raw = *rec.Raw
	}
	report := chart.BuildEnvelope(raw, rec.Chart).MarkdownReport()

	s.render(w, "chart.html", map[string]any{
		"Record": rec,
		"Report": report,
	})
}

// ingestRequest is the POST /charts body: an already-normalized chart
// with its owner and precomputed pattern label.
type ingestRequest struct {
	UserID  string                `json:"user_id"`
	Pattern string                `json:"pattern"`
	Chart   chart.NormalizedChart `json:"chart"`
	Raw     *chart.RawExtraction  `json:"raw,omitempty"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
		return
	}

	if req.Pattern != "" {
		req.Chart.Pattern = req.Pattern
	}
	if req.Chart.SchemaVersion == "" {
		req.Chart.SchemaVersion = chart.SchemaVersion
	}
	// Recompute the balance so stored charts are always consistent with
	// their pillars, whatever the client sent.
	req.Chart.ElementBalance = chart.ComputeBalance(req.Chart.Pillars)

	rec := database.ChartRecord{
		ID:    uuid.NewString(),
		Chart: req.Chart,
		Raw:   req.Raw,
	}
	if req.UserID != "" {
		rec.UserID = &req.UserID
	}

	if err := s.db.InsertChart(rec); err != nil {
		log.Printf("inserting chart: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"id": rec.ID})
}

// matchResponse is the GET /match payload.
type matchResponse struct {
	Results      []match.Result `json:"results"`
	CriteriaText string         `json:"criteria_text"`
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	chartID := r.URL.Query().Get("chart_id")
	mode := r.URL.Query().Get("mode")

	tier := match.NewTierState()
	if mode != "" {
		c, ok := match.CriterionFromKey(mode)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": fmt.Sprintf("unknown mode %q", mode)})
			return
		}
		tier = match.TierStateAt(c)
	}

	rec, err := s.db.GetChart(chartID)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if rec == nil {
		// Unknown chart is not an error: empty results with an explanation.
		writeJSON(w, http.StatusOK, matchResponse{
			Results:      []match.Result{},
			CriteriaText: fmt.Sprintf("未找到命盘 %s", chartID),
		})
		return
	}

	records, err := s.db.GetCandidates(chartID)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	candidates := make([]match.Candidate, len(records))
	for i, c := range records {
		candidates[i] = match.Candidate{ID: c.ID, Chart: c.Chart}
	}

	results := match.Evaluate(rec.Chart, candidates, tier.Active())
	if results == nil {
		results = []match.Result{}
	}

	writeJSON(w, http.StatusOK, matchResponse{
		Results:      results,
		CriteriaText: tier.CriteriaText(),
	})
}

func (s *Server) handleLeaderboardTop(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid limit"})
			return
		}
		limit = n
	}

	engine := leaderboard.EngineBazi
	if v := r.URL.Query().Get("engine"); v != "" {
		e, ok := leaderboard.ParseEngine(v)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": fmt.Sprintf("unknown engine %q", v)})
			return
		}
		engine = e
	}

	stats, err := s.db.GetMatchStats(string(engine))
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	users := make([]leaderboard.UserStats, len(stats))
	for i, st := range stats {
		users[i] = leaderboard.UserStats{
			UserID:        st.UserID,
			MatchCount:    st.MatchCount,
			VerifiedCount: st.VerifiedCount,
		}
	}

	board := leaderboard.Top(users, engine, limit, s.weights)
	if board.Entries == nil {
		board.Entries = []leaderboard.Entry{}
	}

	writeJSON(w, http.StatusOK, board)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encoding response: %v", err)
	}
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Printf("Template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("Error rendering template %s: %v", name, err)
	}
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// Serve starts the HTTP server on the given port.
func Serve(db *database.DB, weights leaderboard.WeightVersion, port int) error {
	srv, err := New(db, weights)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
