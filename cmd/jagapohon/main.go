package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
	_ "modernc.org/sqlite"

	"github.com/PakBOSS-007/Jaga-pohon/internal/api"
	"github.com/PakBOSS-007/Jaga-pohon/internal/geolocate"
	"github.com/PakBOSS-007/Jaga-pohon/internal/ingest"
	"github.com/PakBOSS-007/Jaga-pohon/internal/publish"
	"github.com/PakBOSS-007/Jaga-pohon/internal/report"
	"github.com/PakBOSS-007/Jaga-pohon/internal/store"
	"github.com/PakBOSS-007/Jaga-pohon/internal/vision"
)

type cli struct {
	DB       string `env:"JAGAPOHON_DB" default:"data/jagapohon.db" help:"Path to SQLite database."`
	Timezone string `env:"JAGAPOHON_TZ" default:"Asia/Jakarta" help:"Timezone for display and reports."`

	Serve  serveCmd  `cmd:"" default:"1" help:"Run the web server."`
	Import importCmd `cmd:"" help:"Bulk-import tree photos from a directory."`
	Report reportCmd `cmd:"" help:"Write the inventory PDF report to a file."`
	Seed   seedCmd   `cmd:"" help:"Load example trees into an empty database."`
}

type appContext struct {
	store *store.Store
	loc   *time.Location
}

type serveCmd struct {
	Port     string `env:"JAGAPOHON_PORT" default:"8080" help:"HTTP listen port."`
	Password string `env:"JAGAPOHON_PASSWORD" required:"" help:"Shared login password."`
	NoSeed   bool   `help:"Skip seeding example trees into an empty database."`
}

func (c *serveCmd) Run(app *appContext) error {
	if !c.NoSeed {
		n, err := app.store.SeedIfEmpty()
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		if n > 0 {
			log.Printf("seeded %d example trees", n)
		}
	}

	cfg := api.Config{
		Port:     c.Port,
		Password: c.Password,
		Location: app.loc,
		Locator:  geolocate.NewClient(""),
	}
	if analyzer, err := vision.NewClient(); err != nil {
		log.Printf("photo analysis disabled: %v", err)
	} else {
		cfg.Analyzer = analyzer
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	server := api.NewServer(app.store, cfg)
	log.Printf("starting server on :%s", c.Port)
	return server.Run(ctx)
}

type importCmd struct {
	Dir string `arg:"" type:"existingdir" help:"Directory of tree photos (jpg/png)."`
}

func (c *importCmd) Run(app *appContext) error {
	analyzer, err := vision.NewClient()
	if err != nil {
		return fmt.Errorf("photo import needs a vision API key: %w", err)
	}

	entries, err := os.ReadDir(c.Dir)
	if err != nil {
		return err
	}

	var files []ingest.File
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png":
		default:
			continue
		}
		data, err := os.ReadFile(filepath.Join(c.Dir, e.Name()))
		if err != nil {
			return fmt.Errorf("read %s: %w", e.Name(), err)
		}
		files = append(files, ingest.File{Name: e.Name(), Data: data})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	if len(files) == 0 {
		return fmt.Errorf("no photos found in %s", c.Dir)
	}
	log.Printf("importing %d photos from %s", len(files), c.Dir)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	importer := ingest.NewImporter(app.store, analyzer, geolocate.NewClient(""))
	prog, err := importer.Run(ctx, "cli", files)
	if err != nil {
		return err
	}
	for _, f := range prog.Failures {
		log.Printf("failed: %s: %s", f.FileName, f.ErrorMessage)
	}
	if len(prog.Failures) > 0 {
		return fmt.Errorf("%d of %d photos failed", len(prog.Failures), prog.Processed)
	}
	return nil
}

type reportCmd struct {
	Out string `default:"jagapohon-report.pdf" help:"Output PDF path."`

	FTPAddr     string `env:"JAGAPOHON_FTP_ADDR" help:"Optional FTP host:port to publish the report to."`
	FTPUser     string `env:"JAGAPOHON_FTP_USER" help:"FTP user."`
	FTPPassword string `env:"JAGAPOHON_FTP_PASSWORD" help:"FTP password."`
	FTPDir      string `env:"JAGAPOHON_FTP_DIR" help:"FTP remote directory."`
}

func (c *reportCmd) Run(app *appContext) error {
	summary, err := app.store.Summary()
	if err != nil {
		return err
	}
	trees, err := app.store.ListTrees()
	if err != nil {
		return err
	}

	f, err := os.Create(c.Out)
	if err != nil {
		return err
	}
	if err := report.WritePDF(f, summary, trees, time.Now().In(app.loc)); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.Printf("wrote %s (%d trees)", c.Out, summary.TreeCount)

	ftpCfg := publish.Config{Addr: c.FTPAddr, User: c.FTPUser, Password: c.FTPPassword, Dir: c.FTPDir}
	if ftpCfg.Enabled() {
		data, err := os.ReadFile(c.Out)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := publish.Upload(ctx, ftpCfg, filepath.Base(c.Out), data); err != nil {
			return fmt.Errorf("publish report: %w", err)
		}
		log.Printf("published %s to %s", filepath.Base(c.Out), c.FTPAddr)
	}
	return nil
}

type seedCmd struct{}

func (c *seedCmd) Run(app *appContext) error {
	n, err := app.store.SeedIfEmpty()
	if err != nil {
		return err
	}
	if n == 0 {
		log.Println("database already has trees, nothing seeded")
		return nil
	}
	log.Printf("seeded %d example trees", n)
	return nil
}

func main() {
	var flags cli
	kctx := kong.Parse(&flags,
		kong.Name("jagapohon"),
		kong.Description("Community tree inventory with carbon and ecosystem-service estimates."),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
	)

	if dir := filepath.Dir(flags.DB); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("create data dir: %v", err)
		}
	}

	db, err := sql.Open("sqlite", flags.DB)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	loc, err := time.LoadLocation(flags.Timezone)
	if err != nil {
		log.Printf("Warning: could not load %s timezone, using UTC: %v", flags.Timezone, err)
		loc = time.UTC
	}

	st := store.New(db, loc)
	if err := st.Migrate(); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	kctx.FatalIfErrorf(kctx.Run(&appContext{store: st, loc: loc}))
}
