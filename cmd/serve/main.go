package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/op/go-logging"

	"salesforecast/pkg/artifact"
	"salesforecast/pkg/config"
	"salesforecast/pkg/inference"
	applog "salesforecast/pkg/logging"
	"salesforecast/pkg/server"
)

var log = logging.MustGetLogger("log")

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the JSON config file")
	artifactsDir := flag.String("model", "", "artifact directory, overrides artifacts.dir")
	addr := flag.String("addr", "", "listen address, overrides server.address")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %s", err)
	}
	if err := applog.InitLogger(cfg.LogLevel); err != nil {
		log.Fatalf("%s", err)
	}
	if *artifactsDir != "" {
		cfg.Artifacts.Dir = *artifactsDir
	}
	if *addr != "" {
		cfg.Server.Address = *addr
	}
	log.Debugf("Config: %+v", cfg.Redacted())

	bundle, err := artifact.Load(cfg.Artifacts.Dir)
	if err != nil {
		log.Fatalf("Failed to load model artifacts: %s", err)
	}
	predictor, err := inference.NewPredictor(bundle)
	if err != nil {
		log.Fatalf("%s", err)
	}
	log.Infof("Loaded %s model (run %s) with %d features", predictor.ModelName(), predictor.RunID(), len(bundle.FeatureOrder))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.New(cfg.Server.Address, predictor, cfg.Server.ShutdownTimeout).Run(ctx); err != nil {
		log.Fatalf("%s", err)
	}
	log.Infof("Server stopped")
}
