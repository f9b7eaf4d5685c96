// Package ingest turns raw tree photos into inventory records. Bulk imports
// run strictly sequentially: one photo is fully processed before the next
// starts, and a failed photo never aborts the rest of the batch.
package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/PakBOSS-007/Jaga-pohon/internal/geolocate"
	"github.com/PakBOSS-007/Jaga-pohon/internal/metrics"
	"github.com/PakBOSS-007/Jaga-pohon/internal/models"
	"github.com/PakBOSS-007/Jaga-pohon/internal/store"
	"github.com/PakBOSS-007/Jaga-pohon/internal/vision"
)

// File is one photo handed to the importer.
type File struct {
	Name string
	Data []byte
}

// Progress reports the outcome of a bulk import. Processed always equals
// the number of files handed in; Successes plus len(Failures) equals
// Processed.
type Progress struct {
	RunID     int64
	Processed int
	Successes int
	Failures  []models.ImportFailure
}

// Importer runs bulk photo imports against the inventory store.
type Importer struct {
	store    *store.Store
	analyzer vision.Analyzer
	locator  geolocate.Locator
}

func NewImporter(st *store.Store, analyzer vision.Analyzer, locator geolocate.Locator) *Importer {
	return &Importer{
		store:    st,
		analyzer: analyzer,
		locator:  locator,
	}
}

// Run imports the given photos in order. Each file is compressed, analyzed
// by the vision model, geolocated if the analysis carried no coordinates,
// and inserted as a tree record. A failure at any step records the file in
// the failure list and moves on to the next file. Cancellation is checked
// between files, never mid-file, so a record is either fully imported or
// not at all.
func (im *Importer) Run(ctx context.Context, source string, files []File) (*Progress, error) {
	run, err := im.store.StartImportRun(source, len(files))
	if err != nil {
		return nil, fmt.Errorf("start import run: %w", err)
	}

	prog := &Progress{RunID: run.ID}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			run.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
			break
		}

		prog.Processed++
		if err := im.importOne(ctx, f); err != nil {
			log.Printf("import: %s: %v", f.Name, err)
			metrics.ImportFailures.Inc()
			fail := models.ImportFailure{
				RunID:        run.ID,
				FileName:     f.Name,
				ErrorMessage: err.Error(),
			}
			prog.Failures = append(prog.Failures, fail)
			if dbErr := im.store.InsertImportFailure(run.ID, f.Name, err.Error()); dbErr != nil {
				log.Printf("import: record failure for %s: %v", f.Name, dbErr)
			}
			continue
		}
		prog.Successes++
		metrics.TreesImported.Inc()
	}

	run.Processed = sql.NullInt64{Int64: int64(prog.Processed), Valid: true}
	run.Successes = sql.NullInt64{Int64: int64(prog.Successes), Valid: true}
	run.Failures = sql.NullInt64{Int64: int64(len(prog.Failures)), Valid: true}
	run.Success = prog.Processed == len(files) && len(prog.Failures) == 0
	if err := im.store.CompleteImportRun(run); err != nil {
		log.Printf("import: complete run %d: %v", run.ID, err)
	}

	log.Printf("import: run %d done, %d processed, %d ok, %d failed",
		run.ID, prog.Processed, prog.Successes, len(prog.Failures))
	return prog, nil
}

func (im *Importer) importOne(ctx context.Context, f File) error {
	photo, err := CompressPhoto(f.Data)
	if err != nil {
		return err
	}

	analysis, err := im.analyzer.Analyze(ctx, photo, "")
	if err != nil {
		return err
	}

	tr := &models.TreeRecord{
		Species:    analysis.Species,
		DBHCm:      analysis.DBHCm,
		HeightM:    analysis.HeightM,
		Condition:  analysis.Condition,
		Proximity:  models.ProximityNone,
		Notes:      analysis.Notes,
		Photo:      photo,
		RecordedAt: time.Now().UTC(),
	}

	if analysis.Latitude != nil && analysis.Longitude != nil {
		tr.Latitude = sql.NullFloat64{Float64: *analysis.Latitude, Valid: true}
		tr.Longitude = sql.NullFloat64{Float64: *analysis.Longitude, Valid: true}
	} else if im.locator != nil {
		lat, lon, err := im.locator.Locate(ctx)
		if err != nil {
			return fmt.Errorf("geolocate fallback: %w", err)
		}
		tr.Latitude = sql.NullFloat64{Float64: lat, Valid: true}
		tr.Longitude = sql.NullFloat64{Float64: lon, Valid: true}
	}

	if err := im.store.InsertTree(tr); err != nil {
		return fmt.Errorf("insert tree: %w", err)
	}
	return nil
}
