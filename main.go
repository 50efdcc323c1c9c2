package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ktkachuk/teps/internal/config"
	"github.com/ktkachuk/teps/internal/monitor"
	sensor "github.com/ktkachuk/teps/internal/signal"
	"github.com/ktkachuk/teps/internal/teps"
	"github.com/ktkachuk/teps/internal/tepsdb"
	"github.com/ktkachuk/teps/internal/version"
)

var (
	devMode    = flag.Bool("dev", false, "Replay fixture data instead of opening the serial port")
	fixtures   = flag.String("fixtures", "fixtures.txt", "Fixture file for dev mode")
	device     = flag.String("device", "/dev/ttyUSB0", "Serial device of the sensor bridge")
	listen     = flag.String("listen", ":8080", "Listen address for the monitoring server")
	configPath = flag.String("config", "", "Optional tuning config file (JSON)")
	dbFile     = flag.String("db", "teps.db", "Database file for run recording (empty disables recording)")
	sensorID   = flag.String("sensor", "spindle-01", "Sensor identifier recorded with the run")
	notes      = flag.String("notes", "", "Free-form notes recorded with the run")
)

const resultRingSize = 4096

func main() {
	flag.Parse()

	log.Printf("teps %s (%s, built %s)", version.Version, version.GitSHA, version.BuildTime)

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	cfg := config.EmptyTuningConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
	}

	engine, err := teps.NewEngine(cfg.EngineParams())
	if err != nil {
		log.Fatalf("failed to create engine: %v", err)
	}

	var source sensor.Source
	if *devMode {
		f, err := os.Open(*fixtures)
		if err != nil {
			log.Fatalf("failed to open fixtures file: %v", err)
		}
		defer f.Close()
		source = sensor.NewMockSource(f)
	} else {
		source, err = sensor.NewSerialSource(*device)
		if err != nil {
			log.Fatalf("failed to open serial device: %v", err)
		}
	}
	defer source.Close()

	var db *tepsdb.TepsDB
	var runID string
	if *dbFile != "" {
		db, err = tepsdb.Open(*dbFile)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		runID, err = db.StartRun(*sensorID, *notes, engine.Params())
		if err != nil {
			log.Fatalf("failed to start run: %v", err)
		}
		log.Printf("recording run %s for sensor %s", runID, *sensorID)
		defer func() {
			if err := db.EndRun(runID); err != nil {
				log.Printf("failed to end run: %v", err)
			}
		}()
	}

	ring := monitor.NewResultRing(resultRingSize)

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// run the monitor routine to manage IO on the sensor source
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := source.Monitor(ctx); err != nil && err != context.Canceled {
			log.Printf("failed to monitor sensor source: %v", err)
		}
		log.Print("monitor routine terminated")
	}()

	// segmentation routine: featurize each reading, run it through the
	// engine, and fan results out to the ring and the database batch
	wg.Add(1)
	go func() {
		defer wg.Done()
		runPipeline(ctx, source, engine, cfg, ring, db, runID)
		log.Print("segmentation routine terminated")
	}()

	// periodic throughput logging
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				engine.Stats().LogStats()
			case <-ctx.Done():
				return
			}
		}
	}()

	// HTTP monitoring server
	wg.Add(1)
	go func() {
		defer wg.Done()
		ws := monitor.NewWebServer(monitor.WebServerConfig{
			Address:  *listen,
			Engine:   engine,
			Ring:     ring,
			DB:       db,
			RunID:    runID,
			SensorID: *sensorID,
		})
		if err := ws.Start(ctx); err != nil {
			log.Printf("monitoring server error: %v", err)
		}
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}

// runPipeline drains the source until it closes or the context is cancelled.
// Database writes are batched on the configured flush interval so sqlite
// latency stays off the per-sample path.
func runPipeline(ctx context.Context, source sensor.Source, engine *teps.Engine, cfg *config.TuningConfig, ring *monitor.ResultRing, db *tepsdb.TepsDB, runID string) {
	featurizer := sensor.NewFeaturizer(cfg.GetWindowSize())

	var batchValues []float64
	var batchResults []teps.Result
	flush := func() {
		if db == nil || len(batchResults) == 0 {
			return
		}
		if err := db.RecordBatch(runID, batchValues, batchResults); err != nil {
			log.Printf("failed to record batch: %v", err)
		}
		batchValues = batchValues[:0]
		batchResults = batchResults[:0]
	}
	defer flush()

	ticker := time.NewTicker(cfg.GetFlushInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			flush()
		case sample, ok := <-source.Samples():
			if !ok {
				return
			}
			vec, ready := featurizer.Push(sample.Torque)
			if !ready {
				continue
			}
			result, err := engine.Submit(vec)
			if err != nil {
				log.Printf("dropping sample: %v", err)
				continue
			}
			ring.Push(sample.Torque, result)
			if db != nil {
				batchValues = append(batchValues, sample.Torque)
				batchResults = append(batchResults, result)
			}
		}
	}
}
