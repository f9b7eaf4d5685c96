package ingest

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/PakBOSS-007/Jaga-pohon/internal/models"
	"github.com/PakBOSS-007/Jaga-pohon/internal/store"
	"github.com/PakBOSS-007/Jaga-pohon/internal/vision"
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	st := store.New(db, time.UTC)
	if err := st.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return st
}

// testJPEG encodes a small solid-color JPEG of the given size.
func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 40, G: 120, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode test jpeg: %v", err)
	}
	return buf.Bytes()
}

// fakeAnalyzer returns canned analyses keyed by call order. An entry with
// err set simulates a vision failure for that photo.
type fakeAnalyzer struct {
	calls   int
	results []fakeResult
}

type fakeResult struct {
	analysis *vision.TreeAnalysis
	err      error
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, imageJPEG []byte, notes string) (*vision.TreeAnalysis, error) {
	if f.calls >= len(f.results) {
		return nil, fmt.Errorf("unexpected call %d", f.calls)
	}
	r := f.results[f.calls]
	f.calls++
	return r.analysis, r.err
}

type fakeLocator struct {
	lat, lon float64
	err      error
	calls    int
}

func (f *fakeLocator) Locate(ctx context.Context) (float64, float64, error) {
	f.calls++
	return f.lat, f.lon, f.err
}

func healthyAnalysis(species string) *vision.TreeAnalysis {
	return &vision.TreeAnalysis{
		Species:   species,
		Condition: models.ConditionHealthy,
		DBHCm:     35,
		HeightM:   12,
	}
}

func TestRun_AllSucceed(t *testing.T) {
	st := setupTestStore(t)
	analyzer := &fakeAnalyzer{results: []fakeResult{
		{analysis: healthyAnalysis("Samanea saman")},
		{analysis: healthyAnalysis("Ficus benjamina")},
	}}
	locator := &fakeLocator{lat: -6.2, lon: 106.8}
	im := NewImporter(st, analyzer, locator)

	photo := testJPEG(t, 64, 64)
	prog, err := im.Run(context.Background(), "cli", []File{
		{Name: "a.jpg", Data: photo},
		{Name: "b.jpg", Data: photo},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if prog.Processed != 2 || prog.Successes != 2 || len(prog.Failures) != 0 {
		t.Fatalf("progress = %d/%d/%d, want 2/2/0", prog.Processed, prog.Successes, len(prog.Failures))
	}

	trees, err := st.ListTrees()
	if err != nil {
		t.Fatalf("ListTrees: %v", err)
	}
	if len(trees) != 2 {
		t.Fatalf("tree count = %d, want 2", len(trees))
	}
	// Sequential order: the last imported file lists first.
	if trees[0].Species != "Ficus benjamina" || trees[1].Species != "Samanea saman" {
		t.Errorf("unexpected order: %q then %q", trees[0].Species, trees[1].Species)
	}
	if !trees[0].Latitude.Valid || trees[0].Latitude.Float64 != -6.2 {
		t.Errorf("Latitude = %+v, want geolocation fallback -6.2", trees[0].Latitude)
	}
	if trees[0].Carbon.CO2Kg <= 0 {
		t.Errorf("CO2Kg = %v, want derived metrics on imported tree", trees[0].Carbon.CO2Kg)
	}
}

func TestRun_FailureDoesNotAbortBatch(t *testing.T) {
	st := setupTestStore(t)
	analyzer := &fakeAnalyzer{results: []fakeResult{
		{analysis: healthyAnalysis("Samanea saman")},
		{err: errors.New("no tree recognized in photo")},
		{analysis: healthyAnalysis("Mangifera indica")},
	}}
	im := NewImporter(st, analyzer, &fakeLocator{lat: 1, lon: 2})

	photo := testJPEG(t, 64, 64)
	prog, err := im.Run(context.Background(), "upload", []File{
		{Name: "a.jpg", Data: photo},
		{Name: "b.jpg", Data: photo},
		{Name: "c.jpg", Data: photo},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if prog.Processed != 3 {
		t.Errorf("Processed = %d, want 3 (every file is attempted)", prog.Processed)
	}
	if prog.Successes != 2 || len(prog.Failures) != 1 {
		t.Fatalf("successes/failures = %d/%d, want 2/1", prog.Successes, len(prog.Failures))
	}
	if prog.Successes+len(prog.Failures) != prog.Processed {
		t.Error("successes + failures must equal processed")
	}
	if prog.Failures[0].FileName != "b.jpg" {
		t.Errorf("failed file = %q, want b.jpg", prog.Failures[0].FileName)
	}

	failures, err := st.GetImportFailures(prog.RunID)
	if err != nil {
		t.Fatalf("GetImportFailures: %v", err)
	}
	if len(failures) != 1 || failures[0].FileName != "b.jpg" {
		t.Errorf("persisted failures = %+v, want one for b.jpg", failures)
	}
}

func TestRun_GeolocateFailureFailsItem(t *testing.T) {
	st := setupTestStore(t)
	analyzer := &fakeAnalyzer{results: []fakeResult{
		{analysis: healthyAnalysis("Samanea saman")},
	}}
	im := NewImporter(st, analyzer, &fakeLocator{err: errors.New("service unavailable")})

	prog, err := im.Run(context.Background(), "cli", []File{
		{Name: "a.jpg", Data: testJPEG(t, 64, 64)},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if prog.Successes != 0 || len(prog.Failures) != 1 {
		t.Fatalf("successes/failures = %d/%d, want 0/1", prog.Successes, len(prog.Failures))
	}

	n, err := st.CountTrees()
	if err != nil {
		t.Fatalf("CountTrees: %v", err)
	}
	if n != 0 {
		t.Errorf("tree count = %d, want 0 (failed item must not insert)", n)
	}
}

func TestRun_AnalysisCoordinatesSkipGeolocation(t *testing.T) {
	st := setupTestStore(t)
	lat, lon := -6.9, 107.6
	a := healthyAnalysis("Swietenia macrophylla")
	a.Latitude, a.Longitude = &lat, &lon
	analyzer := &fakeAnalyzer{results: []fakeResult{{analysis: a}}}
	locator := &fakeLocator{lat: 0, lon: 0}
	im := NewImporter(st, analyzer, locator)

	prog, err := im.Run(context.Background(), "cli", []File{
		{Name: "a.jpg", Data: testJPEG(t, 64, 64)},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if prog.Successes != 1 {
		t.Fatalf("successes = %d, want 1", prog.Successes)
	}
	if locator.calls != 0 {
		t.Errorf("locator called %d times, want 0 when analysis carries coordinates", locator.calls)
	}

	trees, _ := st.ListTrees()
	if trees[0].Latitude.Float64 != lat || trees[0].Longitude.Float64 != lon {
		t.Errorf("coordinates = %v/%v, want %v/%v", trees[0].Latitude.Float64, trees[0].Longitude.Float64, lat, lon)
	}
}

func TestRun_UndecodablePhotoFailsItem(t *testing.T) {
	st := setupTestStore(t)
	analyzer := &fakeAnalyzer{}
	im := NewImporter(st, analyzer, &fakeLocator{lat: 1, lon: 2})

	prog, err := im.Run(context.Background(), "upload", []File{
		{Name: "notes.txt", Data: []byte("not an image")},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(prog.Failures) != 1 {
		t.Fatalf("failures = %d, want 1", len(prog.Failures))
	}
	if analyzer.calls != 0 {
		t.Error("analyzer must not be called for an undecodable photo")
	}
}

func TestRun_RecordsAudit(t *testing.T) {
	st := setupTestStore(t)
	analyzer := &fakeAnalyzer{results: []fakeResult{
		{analysis: healthyAnalysis("Delonix regia")},
	}}
	im := NewImporter(st, analyzer, &fakeLocator{lat: 1, lon: 2})

	if _, err := im.Run(context.Background(), "upload", []File{
		{Name: "a.jpg", Data: testJPEG(t, 64, 64)},
	}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	runs, err := st.GetRecentImportRuns(5)
	if err != nil {
		t.Fatalf("GetRecentImportRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("run count = %d, want 1", len(runs))
	}
	r := runs[0]
	if !r.Success {
		t.Error("run should be marked successful")
	}
	if !r.FinishedAt.Valid {
		t.Error("FinishedAt should be set")
	}
	if r.Processed.Int64 != 1 || r.Successes.Int64 != 1 || r.Failures.Int64 != 0 {
		t.Errorf("counters = %d/%d/%d, want 1/1/0", r.Processed.Int64, r.Successes.Int64, r.Failures.Int64)
	}
}

func TestCompressPhoto_DownscalesLargeImages(t *testing.T) {
	big := testJPEG(t, 2048, 1536)

	out, err := CompressPhoto(big)
	if err != nil {
		t.Fatalf("CompressPhoto: %v", err)
	}
	img, format, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("format = %q, want jpeg", format)
	}
	b := img.Bounds()
	if b.Dx() > maxPhotoDim || b.Dy() > maxPhotoDim {
		t.Errorf("output %dx%d exceeds %d", b.Dx(), b.Dy(), maxPhotoDim)
	}
	if b.Dx() != 1024 {
		t.Errorf("width = %d, want 1024 (aspect preserved from 2048x1536)", b.Dx())
	}
}

func TestCompressPhoto_SmallImageKeptAtSize(t *testing.T) {
	small := testJPEG(t, 200, 100)

	out, err := CompressPhoto(small)
	if err != nil {
		t.Fatalf("CompressPhoto: %v", err)
	}
	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if img.Bounds().Dx() != 200 || img.Bounds().Dy() != 100 {
		t.Errorf("size = %dx%d, want 200x100 unchanged", img.Bounds().Dx(), img.Bounds().Dy())
	}
}
