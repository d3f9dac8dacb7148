package main

import (
	"flag"
	"os"

	"github.com/op/go-logging"

	"salesforecast/pkg/charts"
	"salesforecast/pkg/config"
	"salesforecast/pkg/data"
	"salesforecast/pkg/eda"
	applog "salesforecast/pkg/logging"
)

var log = logging.MustGetLogger("log")

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the JSON config file")
	dataPath := flag.String("data", "", "sales CSV, overrides data.path")
	chartsDir := flag.String("charts", "", "chart output directory, overrides charts.dir")
	synthetic := flag.Bool("synthetic", false, "analyze a generated dataset instead of the CSV")
	alpha := flag.Float64("alpha", eda.DefaultAlpha, "significance level of the hypothesis tests")
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
	if *chartsDir != "" {
		cfg.Charts.Dir = *chartsDir
	}
	log.Debugf("Config: %+v", cfg.Redacted())

	var table *data.Table
	if *synthetic {
		table = data.GenerateSales(data.DefaultSyntheticConfig())
		log.Infof("Generated %d synthetic records", table.Len())
	} else if table, err = data.LoadCSV(cfg.Data.Path); err != nil {
		log.Fatalf("Failed to load data: %s", err)
	}

	report, err := eda.Analyze(table, *alpha)
	if err != nil {
		log.Fatalf("Analysis failed: %s", err)
	}
	if err := eda.Print(os.Stdout, report); err != nil {
		log.Fatalf("%s", err)
	}

	if _, err := charts.Render(cfg.Charts.Dir, table); err != nil {
		log.Fatalf("Failed to render charts: %s", err)
	}
}
