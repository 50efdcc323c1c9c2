// Command replay runs the segmentation engine over a recorded signal file
// and prints a run summary. Useful for tuning parameters offline against
// captured cycles before deploying them to the live pipeline.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ktkachuk/teps/internal/config"
	"github.com/ktkachuk/teps/internal/monitor"
	sensor "github.com/ktkachuk/teps/internal/signal"
	"github.com/ktkachuk/teps/internal/teps"
	"github.com/ktkachuk/teps/internal/tepsdb"
)

func main() {
	input := flag.String("input", "", "Recorded signal CSV to replay (required)")
	configPath := flag.String("config", "", "Optional tuning config file (JSON)")
	plotPath := flag.String("plot", "", "Optional PNG output path for the phase plot")
	dbFile := flag.String("db", "", "Optional database file to record the replay as a run")
	sensorID := flag.String("sensor", "replay", "Sensor identifier recorded with the run")
	verbose := flag.Bool("v", false, "Print every settlement and anomaly")
	flag.Parse()

	if *input == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.EmptyTuningConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
	}

	samples, err := sensor.LoadCSV(*input)
	if err != nil {
		log.Fatalf("failed to load signal file: %v", err)
	}

	engine, err := teps.NewEngine(cfg.EngineParams())
	if err != nil {
		log.Fatalf("failed to create engine: %v", err)
	}

	featurizer := sensor.NewFeaturizer(cfg.GetWindowSize())
	values := make([]float64, 0, len(samples))
	results := make([]teps.Result, 0, len(samples))
	for _, s := range samples {
		vec, ready := featurizer.Push(s.Torque)
		if !ready {
			continue
		}
		r, err := engine.Submit(vec)
		if err != nil {
			log.Fatalf("sample %d: %v", len(results), err)
		}
		values = append(values, s.Torque)
		results = append(results, r)

		if *verbose {
			switch {
			case r.PhaseSettled:
				fmt.Printf("sample %6d: settled on phase %d\n", r.SampleIndex, r.Phase)
			case r.DistanceAnomaly:
				fmt.Printf("sample %6d: distance anomaly (dist %.3f)\n", r.SampleIndex, r.Distance)
			case r.SequenceAnomaly:
				fmt.Printf("sample %6d: sequence anomaly entering phase %d\n", r.SampleIndex, r.Phase)
			}
		}
	}

	printSummary(engine, len(samples), len(results))

	if *dbFile != "" {
		if err := recordRun(*dbFile, *sensorID, *input, engine.Params(), values, results); err != nil {
			log.Fatalf("failed to record run: %v", err)
		}
	}

	if *plotPath != "" {
		if err := monitor.SavePhasePlot(*plotPath, values, results); err != nil {
			log.Fatalf("failed to write plot: %v", err)
		}
		fmt.Printf("wrote phase plot to %s\n", *plotPath)
	}
}

func printSummary(engine *teps.Engine, total, processed int) {
	snap := engine.Snapshot()
	fmt.Printf("replayed %d samples (%d after window fill)\n", total, processed)
	fmt.Printf("phases learned: %d, settlements: %d\n", len(snap.Centroids), snap.Stats.Settlements)
	fmt.Printf("anomalies: %d distance, %d sequence\n",
		snap.Stats.DistanceAnomalies, snap.Stats.SequenceAnomalies)
	for _, c := range snap.Centroids {
		fmt.Printf("  centroid %d: mean=%.3f spread=%.3f samples=%d\n",
			c.ID, c.Mean[0], c.Spread, c.Count)
	}
}

func recordRun(dbFile, sensorID, input string, params teps.EngineParams, values []float64, results []teps.Result) error {
	db, err := tepsdb.Open(dbFile)
	if err != nil {
		return err
	}
	defer db.Close()

	runID, err := db.StartRun(sensorID, "replay of "+input, params)
	if err != nil {
		return err
	}
	if err := db.RecordBatch(runID, values, results); err != nil {
		return err
	}
	if err := db.EndRun(runID); err != nil {
		return err
	}
	fmt.Printf("recorded run %s in %s\n", runID, dbFile)
	return nil
}
