package server

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/TobiSchelling/storedash/internal/cache"
	"github.com/TobiSchelling/storedash/internal/dashboard"
	"github.com/TobiSchelling/storedash/internal/dataset"
	"github.com/TobiSchelling/storedash/internal/export"
	"github.com/TobiSchelling/storedash/internal/logger"
	"github.com/TobiSchelling/storedash/internal/query"
	"github.com/TobiSchelling/storedash/internal/session"
	"github.com/TobiSchelling/storedash/internal/table"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New()

const sessionCookie = "storedash_session"

// Feedback outcomes passed to the page after a redirect.
const (
	flashSaved   = "saved"
	flashDeleted = "deleted"
	flashNothing = "nothing"
	flashEmpty   = "empty"
	flashTooLong = "toolong"
)

// Options configure a Server.
type Options struct {
	Source     dataset.Source
	Dashboard  dashboard.Options
	Intro      string
	SessionTTL time.Duration
	Logger     *logger.Logger
	// Cache defaults to a fresh enrichment cache.
	Cache *cache.Enrichment
}

// Server is the HTTP dashboard.
type Server struct {
	source   dataset.Source
	data     *cache.Enrichment
	opts     dashboard.Options
	intro    string
	sessions *session.Store
	log      *logger.Logger
	pages    map[string]*template.Template
	mux      *http.ServeMux
	now      func() time.Time
}

// New creates a Server. The source is enriched once up front so ingestion
// errors surface before the server starts listening.
func New(o Options) (*Server, error) {
	if o.Logger == nil {
		o.Logger = logger.Nop()
	}
	if o.Cache == nil {
		o.Cache = cache.NewEnrichment(nil)
	}
	if o.Dashboard.TopN <= 0 {
		o.Dashboard.TopN = 10
	}
	if _, err := o.Cache.Get(o.Source); err != nil {
		return nil, err
	}

	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// Each page gets its own clone of the base so it can define "content".
	pageNames := []string{"index.html", "error.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		if _, err := clone.ParseFS(templateFS, "templates/"+name); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{
		source:   o.Source,
		data:     o.Cache,
		opts:     o.Dashboard,
		intro:    o.Intro,
		sessions: session.NewStore(o.SessionTTL),
		log:      o.Logger,
		pages:    pages,
		mux:      http.NewServeMux(),
		now:      time.Now,
	}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

func (s *Server) routes() {
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/api/view", s.handleViewJSON)
	s.mux.HandleFunc("/download/states.csv", s.handleStatesCSV)
	s.mux.HandleFunc("/download/orders/{file}", s.handleOrderCSV)
	s.mux.HandleFunc("/download/feedback.csv", s.handleFeedbackCSV)
	s.mux.HandleFunc("/feedback", s.handleSaveFeedback)
	s.mux.HandleFunc("/feedback/delete-last", s.handleDeleteFeedback)
}

func (s *Server) dataset() (*dataset.Dataset, error) {
	return s.data.Get(s.source)
}

// session returns the caller's feedback session and refreshes its cookie.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *session.Session {
	var id string
	if c, err := r.Cookie(sessionCookie); err == nil {
		id = c.Value
	}
	sess := s.sessions.Get(id)
	if sess.ID != id {
		s.log.Debug("new feedback session", "session_id", sess.ID)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

// build runs the dashboard for the request's query string.
func (s *Server) build(r *http.Request) (*dataset.Dataset, dashboard.Params, *dashboard.View, error) {
	ds, err := s.dataset()
	if err != nil {
		return nil, dashboard.Params{}, nil, err
	}
	params, notices := dashboard.ParseParams(r.URL.Query(), ds)
	view, err := dashboard.Build(ds, params, s.opts)
	if err != nil {
		return nil, dashboard.Params{}, nil, err
	}
	view.Notices = append(notices, view.Notices...)
	return ds, params, view, nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	sess := s.session(w, r)
	ds, params, view, err := s.build(r)
	if err != nil {
		s.fail(w, err)
		return
	}

	data := map[string]any{
		"Source":      s.source.Name,
		"Intro":       s.intro,
		"View":        view,
		"Params":      params,
		"Query":       params.Values().Encode(),
		"TimeViews":   timeViewOptions(),
		"Feedback":    sess.Table(),
		"FeedbackMax": session.MaxFeedbackLength,
		"Flash":       flashMessage(r.URL.Query().Get("fb")),
		"Today":       s.now().Format(dataset.DateLayout),
		"Columns":     ds.Columns(),
		"TopN":        s.opts.TopN,
	}
	if view.Lookup != nil && view.Lookup.Found {
		a, err := export.CSV("matched_data.csv", view.Lookup.Table)
		if err != nil {
			s.fail(w, err)
			return
		}
		// data: links are not trusted by html/template unless typed.
		data["LookupURI"] = template.URL(a.DataURI()) //nolint: gosec
		data["LookupFile"] = a.Filename
	}
	s.render(w, "index.html", data)
}

func (s *Server) handleViewJSON(w http.ResponseWriter, r *http.Request) {
	_, _, view, err := s.build(r)
	if err != nil {
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": dataset.Describe(err)})
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ds, err := s.dataset()
	if err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error", "error": err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "orders": ds.Len(), "sessions": s.sessions.Len()})
}

func (s *Server) handleStatesCSV(w http.ResponseWriter, r *http.Request) {
	ds, err := s.dataset()
	if err != nil {
		s.fail(w, err)
		return
	}
	t, err := dashboard.StatesTable(ds)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.download(w, "states.csv", t)
}

func (s *Server) handleOrderCSV(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(r.PathValue("file"), ".csv")
	ds, err := s.dataset()
	if err != nil {
		s.fail(w, err)
		return
	}
	t, err := dashboard.OrderTable(ds, id)
	if errors.Is(err, query.ErrOrderNotFound) {
		http.Error(w, "Order ID not found in the database!", http.StatusNotFound)
		return
	}
	if err != nil {
		s.fail(w, err)
		return
	}
	s.download(w, "matched_data.csv", t)
}

func (s *Server) handleFeedbackCSV(w http.ResponseWriter, r *http.Request) {
	s.download(w, "feedback.csv", s.session(w, r).Table())
}

func (s *Server) handleSaveFeedback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	sess := s.session(w, r)
	now := s.now()

	date := now
	if v := strings.TrimSpace(r.FormValue("feedback_date")); v != "" {
		if d, err := time.Parse(dataset.DateLayout, v); err == nil {
			date = d
		}
	}

	flash := flashSaved
	if _, err := sess.Add(date, r.FormValue("feedback_text"), now); err != nil {
		flash = flashEmpty
		if errors.Is(err, session.ErrFeedbackTooLong) {
			flash = flashTooLong
		}
	} else {
		s.log.Info("feedback saved", "session_id", sess.ID, "entries", len(sess.Entries()))
	}
	s.redirectBack(w, r, flash)
}

func (s *Server) handleDeleteFeedback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	flash := flashNothing
	if s.session(w, r).RemoveLast() {
		flash = flashDeleted
	}
	s.redirectBack(w, r, flash)
}

// redirectBack returns to the dashboard with the state the form was posted
// from.
func (s *Server) redirectBack(w http.ResponseWriter, r *http.Request, flash string) {
	q, _ := url.ParseQuery(r.FormValue("return"))
	if q == nil {
		q = url.Values{}
	}
	q.Set("fb", flash)
	http.Redirect(w, r, "/?"+q.Encode()+"#feedback", http.StatusFound)
}

func (s *Server) download(w http.ResponseWriter, filename string, t table.Table) {
	a, err := export.CSV(filename, t)
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", a.MediaType+"; charset=utf-8")
	w.Header().Set("Content-Disposition", a.ContentDisposition())
	w.Write(a.Data)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encoding json", "error", err)
	}
}

// fail renders an error page. Ingestion errors get an actionable message.
func (s *Server) fail(w http.ResponseWriter, err error) {
	s.log.Error("request failed", "error", err)
	s.renderStatus(w, http.StatusInternalServerError, "error.html", map[string]any{"Message": dataset.Describe(err)})
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	s.renderStatus(w, http.StatusOK, name, data)
}

func (s *Server) renderStatus(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		s.log.Error("template not found", "template", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Buffered so a template error can still answer with a 500.
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		s.log.Error("rendering template", "template", name, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

func flashMessage(code string) string {
	switch code {
	case flashSaved:
		return "Thank you for your feedback!"
	case flashDeleted:
		return "Last feedback deleted!"
	case flashNothing:
		return "There is no feedback to delete."
	case flashEmpty:
		return "Feedback text is empty."
	case flashTooLong:
		return fmt.Sprintf("Feedback is limited to %d characters.", session.MaxFeedbackLength)
	}
	return ""
}

// Serve starts the HTTP server on the given port and shuts it down when
// ctx is cancelled.
func Serve(ctx context.Context, o Options, port int) error {
	s, err := New(o)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	httpServer := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- httpServer.ListenAndServe() }()
	s.log.Info("server listening", "url", "http://"+addr, "source", o.Source.Name)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("shutting down")
		return httpServer.Shutdown(shutdownCtx)
	}
}
