package main

import (
	"log"
	"os"

	"geoflow/config"
	"geoflow/dataset"
	"geoflow/feature"
	"geoflow/logging"
	"geoflow/validate"
)

// One-shot CI entrypoint: load the project config, run the full data
// integrity battery once, exit non-zero on any failed check. The
// richer surface (generate, watch, history) lives in cmd/geoflow.
func main() {
	configPath := "geoflow.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.Setup(cfg.Log.Level, cfg.Log.Path)
	defer logger.Sync()

	loader, err := feature.NewLoader(4096)
	if err != nil {
		log.Fatalf("Failed to create feature loader: %v", err)
	}

	dp := config.NewDataPaths(cfg.DataDir)
	suite := &validate.Suite{
		Datasets:    dataset.FromConfig(cfg.Datasets),
		FeaturesDir: dp.Features,
		Loader:      loader,
		Log:         logger,
	}

	results, passed := suite.Run()
	logger.Infow("validation finished", "checks", len(results), "passed", passed)
	if !passed {
		os.Exit(1)
	}
}
