// Package api serves the Jaga Pohon web app: login, dashboard, map, tree
// records and the JSON API behind them.
package api

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/PakBOSS-007/Jaga-pohon/internal/geolocate"
	"github.com/PakBOSS-007/Jaga-pohon/internal/ingest"
	"github.com/PakBOSS-007/Jaga-pohon/internal/store"
	"github.com/PakBOSS-007/Jaga-pohon/internal/vision"
)

//go:embed templates/*
var templateFS embed.FS

type Server struct {
	store    *store.Store
	importer *ingest.Importer
	analyzer vision.Analyzer   // nil when no API key is configured
	locator  geolocate.Locator // nil disables the geolocation fallback
	port     string
	loc      *time.Location
	password string
	sessions *sessions
	tmpl     *template.Template
}

type Config struct {
	Port     string
	Password string
	Location *time.Location
	Analyzer vision.Analyzer
	Locator  geolocate.Locator
}

func NewServer(st *store.Store, cfg Config) *Server {
	funcs := template.FuncMap{
		"upper": strings.ToUpper,
	}
	tmpl := template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))

	var importer *ingest.Importer
	if cfg.Analyzer != nil {
		importer = ingest.NewImporter(st, cfg.Analyzer, cfg.Locator)
	}

	return &Server{
		store:    st,
		importer: importer,
		analyzer: cfg.Analyzer,
		locator:  cfg.Locator,
		port:     cfg.Port,
		loc:      cfg.Location,
		password: cfg.Password,
		sessions: newSessions(),
		tmpl:     tmpl,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.requirePage(s.handleIndex))
	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/logout", s.handleLogout)
	mux.HandleFunc("/map", s.requirePage(s.handleMap))
	mux.HandleFunc("/trees/", s.requirePage(s.handleTreePage))
	mux.HandleFunc("/report.pdf", s.requirePage(s.handleReportPDF))
	mux.HandleFunc("/api/trees", s.requireAPI(s.handleAPITrees))
	mux.HandleFunc("/api/trees/", s.requireAPI(s.handleAPITree))
	mux.HandleFunc("/api/summary", s.requireAPI(s.handleAPISummary))
	mux.HandleFunc("/api/analyze", s.requireAPI(s.handleAPIAnalyze))
	mux.HandleFunc("/api/import", s.requireAPI(s.handleAPIImport))
	mux.HandleFunc("/api/import/runs", s.requireAPI(s.handleAPIImportRuns))
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    ":" + s.port,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
