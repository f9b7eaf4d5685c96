package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PakBOSS-007/Jaga-pohon/internal/models"
)

// treeInput is the writable subset of a tree record. Derived metrics are
// never accepted from clients; the store recomputes them on every write.
type treeInput struct {
	Species   string   `json:"species"`
	DBHCm     float64  `json:"dbh_cm"`
	HeightM   float64  `json:"height_m"`
	Condition string   `json:"condition"`
	Proximity string   `json:"proximity"`
	Notes     string   `json:"notes"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (in *treeInput) validate() error {
	if strings.TrimSpace(in.Species) == "" {
		return errors.New("species is required")
	}
	if in.DBHCm <= 0 {
		return errors.New("dbh_cm must be positive")
	}
	if in.HeightM <= 0 {
		return errors.New("height_m must be positive")
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return errors.New("latitude and longitude must be given together")
	}
	return nil
}

func (in *treeInput) apply(tr *models.TreeRecord) {
	tr.Species = strings.TrimSpace(in.Species)
	tr.DBHCm = in.DBHCm
	tr.HeightM = in.HeightM
	tr.Condition = models.ParseCondition(in.Condition)
	tr.Proximity = models.ParseProximity(in.Proximity)
	tr.Notes = strings.TrimSpace(in.Notes)
	if in.Latitude != nil && in.Longitude != nil {
		tr.Latitude = sql.NullFloat64{Float64: *in.Latitude, Valid: true}
		tr.Longitude = sql.NullFloat64{Float64: *in.Longitude, Valid: true}
	} else {
		tr.Latitude = sql.NullFloat64{}
		tr.Longitude = sql.NullFloat64{}
	}
}

// handleAPITrees serves GET (list) and POST (create) on /api/trees.
func (s *Server) handleAPITrees(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		trees, err := s.store.ListTrees()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if trees == nil {
			trees = []models.TreeRecord{}
		}
		writeJSON(w, http.StatusOK, trees)

	case http.MethodPost:
		var in treeInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := in.validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		tr := &models.TreeRecord{RecordedAt: time.Now().In(s.loc)}
		in.apply(tr)
		if err := s.store.InsertTree(tr); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, tr)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleAPITree serves GET and PUT on /api/trees/{id}.
func (s *Server) handleAPITree(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/trees/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "bad tree id", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		tree, err := s.store.GetTree(id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if tree == nil {
			http.Error(w, "tree not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, tree)

	case http.MethodPut:
		var in treeInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := in.validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		tree, err := s.store.GetTree(id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if tree == nil {
			http.Error(w, "tree not found", http.StatusNotFound)
			return
		}

		in.apply(tree)
		if err := s.store.UpdateTree(tree); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				http.Error(w, "tree not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, tree)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.store.Summary()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type importRunView struct {
	ID         int64     `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt string    `json:"finished_at,omitempty"`
	Source     string    `json:"source"`
	FileCount  int64     `json:"file_count"`
	Processed  int64     `json:"processed"`
	Successes  int64     `json:"successes"`
	Failures   int64     `json:"failures"`
	Success    bool      `json:"success"`
}

func (s *Server) handleAPIImportRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.GetRecentImportRuns(20)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	views := make([]importRunView, 0, len(runs))
	for _, run := range runs {
		v := importRunView{
			ID:        run.ID,
			StartedAt: run.StartedAt,
			Source:    run.Source,
			FileCount: run.FileCount.Int64,
			Processed: run.Processed.Int64,
			Successes: run.Successes.Int64,
			Failures:  run.Failures.Int64,
			Success:   run.Success,
		}
		if run.FinishedAt.Valid {
			v.FinishedAt = run.FinishedAt.Time.Format(time.RFC3339)
		}
		views = append(views, v)
	}
	writeJSON(w, http.StatusOK, views)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: encode response: %v", err)
	}
}
