package main

import (
	"context"
	"embed"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nbe-data/mtms.report/internal/api"
	"github.com/nbe-data/mtms.report/internal/charts"
	"github.com/nbe-data/mtms.report/internal/config"
	"github.com/nbe-data/mtms.report/internal/db"
	"github.com/nbe-data/mtms.report/internal/stimmux"
	"github.com/nbe-data/mtms.report/internal/units"
)

var (
	//go:embed static/*
	staticFiles embed.FS

	devMode       = flag.Bool("dev", false, "Run in dev mode (mock stimulator from fixtures.txt)")
	noStimulator  = flag.Bool("no-stimulator", false, "Run without a stimulator (reporting and charts only)")
	listen        = flag.String("listen", ":8080", "Listen address")
	consolePort   = flag.String("port", "/dev/ttyUSB0", "Stimulator console port (ignored in dev mode)")
	dbFile        = flag.String("db", "mtms.db", "Path to the sqlite database")
	amplitudeUnit = flag.String("units", units.Microvolts, "MEP amplitude display units (uv or mv)")

	migrationsDir = "migrations"
)

func main() {
	flag.Parse()

	// "mtms-report migrate <action>" runs the migration CLI and exits.
	if flag.Arg(0) == "migrate" {
		db.RunMigrateCommand(flag.Args()[1:], *dbFile, migrationsDir)
		return
	}

	if *listen == "" {
		log.Fatal("Listen address is required")
	}
	if !units.IsValidAmplitudeUnit(*amplitudeUnit) {
		log.Fatalf("invalid amplitude units %q", *amplitudeUnit)
	}

	var m stimmux.MuxInterface
	if *noStimulator {
		m = stimmux.NewDisabledMux()
	} else if *devMode {
		data, err := os.ReadFile("fixtures.txt")
		if err != nil {
			log.Fatalf("failed to open fixtures file: %v", err)
		}
		m = stimmux.NewMockMux(data)
	} else {
		if *consolePort == "" {
			log.Fatal("Stimulator console port is required")
		}
		var err error
		m, err = stimmux.NewRealMux(*consolePort, stimmux.PortOptions{})
		if err != nil {
			log.Fatalf("failed to open stimulator console: %v", err)
		}
	}
	defer m.Close()

	if err := m.Initialize(); err != nil {
		log.Fatalf("failed to initialize stimulator: %v", err)
	}

	database, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if shouldExit, err := database.CheckAndPromptMigrations(migrationsDir); shouldExit {
		log.Fatalf("migration check failed: %v", err)
	} else if err != nil {
		log.Printf("failed to check migrations: %v", err)
	}

	paths, err := config.LoadPaths()
	if err != nil {
		log.Fatalf("failed to load data paths: %v", err)
	}

	// Create a wait group for the HTTP server, console monitor, and event
	// handler routines
	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// run the monitor routine to manage IO on the console port
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := m.Monitor(ctx); err != nil && err != context.Canceled {
			log.Printf("failed to monitor console port: %v", err)
		}
		log.Print("monitor routine terminated")
	}()

	// subscribe to the console port messages and pass them to the event
	// handler
	wg.Add(1)
	go func() {
		defer wg.Done()
		id, c := m.Subscribe()
		defer m.Unsubscribe(id)
		for {
			select {
			case payload := <-c:
				if err := stimmux.HandleEvent(database, payload); err != nil {
					log.Printf("error handling event: %v", err)
				}
			case <-ctx.Done():
				log.Printf("subscribe routine terminated")
				return
			}
		}
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := api.NewServer(m, database, *amplitudeUnit).ServeMux()

		// mount the admin debugging routes and the chart endpoints
		m.AttachAdminRoutes(mux)
		database.AttachAdminRoutes(mux)
		(&charts.Handler{DB: database, Paths: *paths}).AttachRoutes(mux)

		// read static files from the embedded filesystem in production or
		// from the local ./static in dev for easier iteration without
		// restarting the server
		var staticHandler http.Handler
		if *devMode {
			staticHandler = http.FileServer(http.Dir("./static"))
		} else {
			staticHandler = http.FileServer(http.FS(staticFiles))
		}
		mux.Handle("/", staticHandler)

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	// Wait for all goroutines to finish
	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
