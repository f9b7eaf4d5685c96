package api

import (
	"encoding/json"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PakBOSS-007/Jaga-pohon/internal/models"
)

type loginData struct {
	Error string
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if s.isAuthenticated(r) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		s.render(w, "login.html", loginData{})

	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		if !s.checkPassword(r.PostFormValue("password")) {
			log.Printf("api: failed login from %s", r.RemoteAddr)
			w.WriteHeader(http.StatusUnauthorized)
			s.render(w, "login.html", loginData{Error: "Wrong password."})
			return
		}

		token, err := s.sessions.create()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		setSessionCookie(w, token, time.Now().Add(sessionTTL))
		http.Redirect(w, r, "/", http.StatusSeeOther)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		s.sessions.revoke(c.Value)
	}
	setSessionCookie(w, "", time.Unix(0, 0))
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// indexData feeds the dashboard: summary cards plus the full tree list,
// newest first.
type indexData struct {
	Summary       *models.InventorySummary
	Trees         []models.TreeRecord
	ImportEnabled bool
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	summary, err := s.store.Summary()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	trees, err := s.store.ListTrees()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.render(w, "index.html", indexData{
		Summary:       summary,
		Trees:         trees,
		ImportEnabled: s.importer != nil,
	})
}

type mapData struct {
	Summary    *models.InventorySummary
	MarkerJSON template.JS
}

type mapMarker struct {
	ID        int64   `json:"id"`
	Species   string  `json:"species"`
	Condition string  `json:"condition"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	summary, err := s.store.Summary()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	trees, err := s.store.ListTrees()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	markers := make([]mapMarker, 0, len(trees))
	for _, tr := range trees {
		if !tr.Latitude.Valid || !tr.Longitude.Valid {
			continue
		}
		markers = append(markers, mapMarker{
			ID:        tr.ID,
			Species:   tr.Species,
			Condition: string(tr.Condition),
			Latitude:  tr.Latitude.Float64,
			Longitude: tr.Longitude.Float64,
		})
	}
	markerJSON, err := json.Marshal(markers)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.render(w, "map.html", mapData{
		Summary:    summary,
		MarkerJSON: template.JS(markerJSON),
	})
}

type treePageData struct {
	Tree     *models.TreeRecord
	HasPhoto bool
}

// handleTreePage serves /trees/{id} and /trees/{id}/photo.
func (s *Server) handleTreePage(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/trees/")
	idStr, suffix, _ := strings.Cut(rest, "/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if suffix == "photo" {
		s.serveTreePhoto(w, r, id)
		return
	}
	if suffix != "" {
		http.NotFound(w, r)
		return
	}

	tree, err := s.store.GetTree(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if tree == nil {
		http.NotFound(w, r)
		return
	}

	photo, err := s.store.GetTreePhoto(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.render(w, "tree.html", treePageData{Tree: tree, HasPhoto: len(photo) > 0})
}

func (s *Server) serveTreePhoto(w http.ResponseWriter, r *http.Request, id int64) {
	photo, err := s.store.GetTreePhoto(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(photo) == 0 {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(photo)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if _, err := s.store.CountTrees(); err != nil {
		status = "degraded: " + err.Error()
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("template %s: %v", name, err)
	}
}
