// Command compose runs one Query to completion and prints or exports the
// ranked compositions found.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/kneasle/monument/internal/config"
	"github.com/kneasle/monument/internal/logger"
	zapfactory "github.com/kneasle/monument/internal/logger/zap"
	"github.com/kneasle/monument/internal/orchestrator"
	"github.com/kneasle/monument/internal/queryfile"
	"github.com/kneasle/monument/internal/resultwriter"
	"github.com/kneasle/monument/internal/telemetry"
)

var defaultConfigPath = "config/compose/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	queryPath := flag.String("query", "", "path to the query file (required)")
	csvPath := flag.String("csv", "", "optional path to export results as CSV")
	flag.Parse()

	if *queryPath == "" {
		log.Fatal("-query is required")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration from %q: %v", *configPath, err)
	}
	cfg.ApplyEnvOverrides()
	if err := cfg.ValidateConfig(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	var lgr logger.Logger
	if cfg.Logger.Active {
		zapLog, err := zapfactory.New(cfg.Logger)
		if err != nil {
			log.Fatalf("failed to initialize logger: %v", err)
		}
		defer func() { _ = zapLog.Sync() }()
		lgr = zapfactory.NewZapAdapter(zapLog)
	} else {
		lgr = logger.NopLogger{}
	}
	cfg.LogConfig(lgr)

	shutdown := telemetry.InitTracer(cfg.Telemetry, "monument-compose")
	defer shutdown(context.Background())

	q, err := queryfile.Load(*queryPath)
	if err != nil {
		lgr.Error("failed to load query", logger.F("err", err))
		os.Exit(1)
	}
	if err := q.Validate(); err != nil {
		lgr.Error("invalid query", logger.F("err", err))
		os.Exit(1)
	}
	q.LogQuery(lgr)

	ctx, span := telemetry.StartPhase(context.Background(), "run_query")
	comps, err := orchestrator.RunQuery(ctx, q, cfg.Search, lgr)
	span()
	if err != nil {
		lgr.Error("search failed", logger.F("err", err))
		os.Exit(1)
	}

	lgr.Info("search complete", logger.F("numComps", len(comps)))

	if *csvPath != "" {
		if err := resultwriter.WriteAll(*csvPath, comps); err != nil {
			lgr.Error("failed to export csv", logger.F("err", err))
			os.Exit(1)
		}
		fmt.Printf("wrote %d compositions to %s\n", len(comps), *csvPath)
		return
	}

	for i, c := range comps {
		fmt.Printf("%3d. length=%-4d score=%-8.2f avg=%-8.4f rotation=%-2d start=%-3d %s\n",
			i, c.Length, c.Score, c.AvgScore, c.Rotation, c.StartIdx, c.CallString)
	}
}
