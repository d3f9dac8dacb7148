package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/op/go-logging"

	"salesforecast/pkg/config"
	"salesforecast/pkg/data"
	applog "salesforecast/pkg/logging"
	"salesforecast/pkg/pipeline"
	"salesforecast/pkg/storage"
)

var log = logging.MustGetLogger("log")

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the JSON config file")
	dataPath := flag.String("data", "", "sales CSV, overrides data.path")
	artifactsDir := flag.String("out", "", "artifact directory, overrides artifacts.dir")
	modelKind := flag.String("model", "", "model to persist (linear, boosting, lstm), overrides train.model")
	synthetic := flag.Bool("synthetic", false, "train on a generated dataset instead of the CSV")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %s", err)
	}
	if err := applog.InitLogger(cfg.LogLevel); err != nil {
		log.Fatalf("%s", err)
	}
	if *dataPath != "" {
		cfg.Data.Path = *dataPath
	}
	if *artifactsDir != "" {
		cfg.Artifacts.Dir = *artifactsDir
	}
	if *modelKind != "" {
		cfg.Train.Model = *modelKind
	}
	log.Debugf("Config: %+v", cfg.Redacted())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var table *data.Table
	if *synthetic {
		table = data.GenerateSales(data.DefaultSyntheticConfig())
		log.Infof("Generated %d synthetic records", table.Len())
	} else if table, err = data.LoadCSV(cfg.Data.Path); err != nil {
		log.Fatalf("Failed to load data: %s", err)
	}

	writer, err := storage.Open(ctx, cfg.Storage.MetricsCSV, cfg.Storage.PostgresDSN)
	if err != nil {
		log.Fatalf("Failed to open metrics storage: %s", err)
	}
	defer writer.Close()

	res, err := pipeline.NewTrainer(cfg.Train, writer).Run(ctx, table)
	if err != nil {
		log.Fatalf("Training failed: %s", err)
	}
	if err := res.Save(cfg.Artifacts.Dir); err != nil {
		log.Fatalf("Failed to save artifacts: %s", err)
	}
	log.Infof("Training run %s complete", res.RunID)
}
