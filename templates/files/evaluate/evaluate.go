// Evaluation entrypoint for a geoflow project. Reports per-subset
// feature coverage against the trained model's expectations; replace
// with the project's real evaluation metrics.
package main

import (
	"encoding/gob"
	"errors"
	"log"
	"os"
	"path/filepath"

	"geoflow/config"
	"geoflow/dataset"
	"geoflow/feature"
)

// Model 与train.go保持一致
type Model struct {
	BandMeans []float64
}

func main() {
	cfg, err := config.Load("geoflow.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	dp := config.NewDataPaths(cfg.DataDir)

	modelPath := filepath.Join(dp.Models, cfg.Project+".gob")
	file, err := os.Open(modelPath)
	if err != nil {
		log.Fatalf("Failed to open model (run train.go first): %v", err)
	}
	var model Model
	if err := gob.NewDecoder(file).Decode(&model); err != nil {
		file.Close()
		log.Fatalf("Failed to decode model: %v", err)
	}
	file.Close()

	loader, err := feature.NewLoader(1024)
	if err != nil {
		log.Fatalf("Failed to create feature loader: %v", err)
	}

	evaluated, skipped := 0, 0
	for _, d := range dataset.FromConfig(cfg.Datasets) {
		labels, err := d.LoadLabels()
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			log.Fatalf("Failed to load labels for %s: %v", d.Name, err)
		}
		for _, r := range labels.FilterExists() {
			if r.Subset != config.SubsetTest {
				continue
			}
			instance, err := loader.Load(r.FeaturePath)
			if err != nil || instance.Bands() != len(model.BandMeans) {
				skipped++
				continue
			}
			evaluated++
		}
	}
	log.Printf("Evaluated %d test features (%d skipped)", evaluated, skipped)
}
