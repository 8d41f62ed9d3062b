// ABOUTME: Web UI server with embedded templates
// ABOUTME: Read-only recap browser with search, visit pages and PDF downloads
package web

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/harperreed/onsite/drive"
	"github.com/harperreed/onsite/export"
	"github.com/harperreed/onsite/models"
	"github.com/harperreed/onsite/visit"
)

//go:embed templates/*
var templatesFS embed.FS

type Server struct {
	store     visit.Store
	ws        *visit.Workspace
	templates *template.Template
	logger    *log.Logger
}

func NewServer(store visit.Store, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.Default()
	}

	funcMap := template.FuncMap{
		"date": func(t time.Time) string {
			return t.Local().Format("Jan 2, 2006")
		},
		"driveURL": drive.FileURL,
		"plain":    export.CleanMarkdown,
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Server{
		store:     store,
		ws:        visit.NewWorkspace(visit.Config{Store: store, Logger: logger}),
		templates: tmpl,
		logger:    logger,
	}, nil
}

// Handler routes the recap pages.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRecaps)
	mux.HandleFunc("GET /drafts", s.handleDrafts)
	mux.HandleFunc("GET /visits/{id}", s.handleVisit)
	mux.HandleFunc("GET /visits/{id}/pdf", s.handlePDF)
	return mux
}

func (s *Server) Start(addr string) error {
	s.logger.Info("starting web server", "url", "http://"+displayAddr(addr))
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return server.ListenAndServe()
}

func displayAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}

func (s *Server) handleRecaps(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	visits, err := s.ws.Repository(query)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := map[string]interface{}{
		"Visits":          visits,
		"Query":           query,
		"Title":           "Visit Recaps",
		"ContentTemplate": "recaps-content",
	}

	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) handleDrafts(w http.ResponseWriter, r *http.Request) {
	visits, err := s.ws.Drafts()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := map[string]interface{}{
		"Visits":          visits,
		"Title":           "Drafts",
		"ContentTemplate": "drafts-content",
	}

	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) handleVisit(w http.ResponseWriter, r *http.Request) {
	v, ok := s.lookup(w, r)
	if !ok {
		return
	}

	type AnswerView struct {
		Title string
		Text  string
		Audio bool
	}

	var answers []AnswerView
	for _, p := range v.Prompts {
		if !p.Answered() {
			continue
		}
		answers = append(answers, AnswerView{Title: p.Title, Text: p.Content(), Audio: p.Audio != nil})
	}

	tags := make([]string, 0, len(v.Tags))
	for _, t := range v.Tags {
		tags = append(tags, t.Label())
	}
	products := make([]string, 0, len(v.SellingOpportunities))
	for _, o := range v.SellingOpportunities {
		products = append(products, o.Info().Label)
	}

	data := map[string]interface{}{
		"Visit":           v,
		"Name":            visitName(v),
		"Health":          v.HealthScore.Label(),
		"Answers":         answers,
		"Tags":            tags,
		"Products":        products,
		"Title":           visitName(v),
		"ContentTemplate": "visit-content",
	}

	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) handlePDF(w http.ResponseWriter, r *http.Request) {
	v, ok := s.lookup(w, r)
	if !ok {
		return
	}

	data, err := export.Bytes(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", export.MIMEType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(v, time.Now())))
	if _, err := w.Write(data); err != nil {
		s.logger.Warn("error writing response", "err", err)
	}
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*models.Visit, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid visit ID", http.StatusBadRequest)
		return nil, false
	}

	v, err := s.store.Get(id)
	if err != nil {
		http.Error(w, "Visit not found", http.StatusNotFound)
		return nil, false
	}
	return v, true
}

func (s *Server) renderTemplate(w http.ResponseWriter, name string, data interface{}) {
	// layout.html picks the content block named by ContentTemplate
	err := s.templates.ExecuteTemplate(w, name, data)
	if err != nil {
		s.logger.Error("template error", "template", name, "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func visitName(v *models.Visit) string {
	if v.CustomerName == "" {
		return "Untitled visit"
	}
	return v.CustomerName
}
