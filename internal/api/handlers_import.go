package api

import (
	"io"
	"log"
	"net/http"
	"time"

	"github.com/PakBOSS-007/Jaga-pohon/internal/ingest"
	"github.com/PakBOSS-007/Jaga-pohon/internal/report"
)

// maxUploadBytes bounds one multipart upload. Field photos are compressed
// client-side rarely, so allow generous originals.
const maxUploadBytes = 100 << 20

// handleAPIAnalyze analyzes a single uploaded photo without saving it,
// so the surveyor can review the suggestion before adding the record.
func (s *Server) handleAPIAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.analyzer == nil {
		http.Error(w, "photo analysis not configured", http.StatusServiceUnavailable)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, _, err := r.FormFile("photo")
	if err != nil {
		http.Error(w, "missing photo: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	photo, err := ingest.CompressPhoto(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	analysis, err := s.analyzer.Analyze(r.Context(), photo, r.FormValue("notes"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

type importResponse struct {
	RunID     int64           `json:"run_id"`
	Processed int             `json:"processed"`
	Successes int             `json:"successes"`
	Failures  []importFailure `json:"failures"`
}

type importFailure struct {
	FileName string `json:"file_name"`
	Error    string `json:"error"`
}

// handleAPIImport runs a bulk import over all photos in the multipart
// request. Files are processed one at a time in upload order; the response
// reports per-file outcomes.
func (s *Server) handleAPIImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.importer == nil {
		http.Error(w, "photo import not configured", http.StatusServiceUnavailable)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "bad multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	var files []ingest.File
	for _, fh := range r.MultipartForm.File["photos"] {
		f, err := fh.Open()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		files = append(files, ingest.File{Name: fh.Filename, Data: data})
	}
	if len(files) == 0 {
		http.Error(w, "no photos uploaded", http.StatusBadRequest)
		return
	}

	prog, err := s.importer.Run(r.Context(), "upload", files)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := importResponse{
		RunID:     prog.RunID,
		Processed: prog.Processed,
		Successes: prog.Successes,
		Failures:  make([]importFailure, 0, len(prog.Failures)),
	}
	for _, f := range prog.Failures {
		resp.Failures = append(resp.Failures, importFailure{FileName: f.FileName, Error: f.ErrorMessage})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReportPDF(w http.ResponseWriter, r *http.Request) {
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

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="jagapohon-report.pdf"`)
	if err := report.WritePDF(w, summary, trees, time.Now().In(s.loc)); err != nil {
		log.Printf("api: write report: %v", err)
	}
}
