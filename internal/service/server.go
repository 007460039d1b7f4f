package service

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"pagefreeze/snap"
)

const indexHTML = `<!DOCTYPE html>
<html><body>
<h1>pagefreeze</h1>
<form action="/snapshot" method="get">
<h3>Freeze a page</h3>
URL: <input name="url" size="60"><br>
<label><input type="checkbox" name="scripts" value="keep"> keep scripts</label><br>
<label><input type="checkbox" name="styles" value="keep"> keep original styles</label><br>
<label><input type="checkbox" name="relay" value="1"> relay cross-origin fetches through the page</label><br>
<label><input type="checkbox" name="policy" value="1"> add restrictive policy tag</label><br>
<button type="submit">Snapshot</button>
</form>
</body></html>`

// Capturer runs one capture against a live page. *capture.Session satisfies
// it; tests plug in stubs.
type Capturer interface {
	Capture(ctx context.Context, target string, opts snap.Options, withShot bool) (*snap.Result, []byte, error)
}

// Server exposes the HTTP surface that triggers captures.
type Server struct {
	cfg      Config
	mux      *http.ServeMux
	handler  http.Handler
	capturer Capturer
	exports  *ExportStore
	profiles *siteProfileStore
	logger   *log.Logger
	clock    func() time.Time
}

// New wires a server around a capturer.
func New(cfg Config, capturer Capturer) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = defaultOutputDir
	}
	s := &Server{
		cfg:      cfg,
		mux:      http.NewServeMux(),
		capturer: capturer,
		exports:  NewExportStore(cfg.OutputDir),
		profiles: newSiteProfileStore(cfg.SitesDir),
		logger:   cfg.Logger,
		clock:    cfg.Clock,
	}
	s.mux.HandleFunc("/", s.handleRoot)
	s.mux.HandleFunc("/snapshot", s.handleSnapshot)
	s.mux.HandleFunc("/ping", s.handlePing)
	s.handler = withLogging(s.logger, s.mux)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, "pong")
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	target := strings.TrimSpace(r.URL.Query().Get("url"))
	if target == "" {
		http.Error(w, "missing url parameter", http.StatusBadRequest)
		return
	}
	if !strings.Contains(target, "://") {
		target = "https://" + target
	}

	opts := s.optionsFor(target, r)
	started := s.clock()
	result, _, err := s.capturer.Capture(r.Context(), target, opts, false)
	if err != nil {
		s.logger.Printf("SNAP %s failed: %v", target, err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	s.logger.Printf("SNAP %s ok in %s warnings=%d bytes=%d",
		target, s.clock().Sub(started), len(result.Warnings), len(result.DocumentText))
	for _, warn := range result.Warnings {
		s.logger.Printf("SNAP warning: %s", warn.Message)
	}

	name := result.Title
	if name == "" {
		name = target
	}
	if saveTo, err := s.exports.Save(result.DocumentText, name); err != nil {
		s.logger.Printf("SNAP export: %v", err)
	} else {
		s.logger.Printf("SNAP saved %s", saveTo)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", snap.SanitizeFileName(name)+".html"))
	w.Header().Set("X-Snapshot-Warnings", fmt.Sprintf("%d", len(result.Warnings)))
	fmt.Fprint(w, result.DocumentText)
}

func (s *Server) optionsFor(target string, r *http.Request) snap.Options {
	opts := s.profiles.Find(target).Apply(s.cfg.DefaultOptions)
	q := r.URL.Query()
	if q.Get("scripts") == "keep" {
		opts.RemoveScripts = false
	}
	if q.Get("styles") == "keep" {
		opts.RemoveOriginalStyles = false
	}
	switch q.Get("relay") {
	case "1", "true", "yes":
		opts.UseRelay = true
	case "0", "false", "no":
		opts.UseRelay = false
	}
	switch q.Get("policy") {
	case "1", "true", "yes":
		opts.AddPolicy = true
	case "0", "false", "no":
		opts.AddPolicy = false
	}
	return opts
}
