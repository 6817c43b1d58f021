// Training entrypoint for a geoflow project. Replace the model below
// with the project's real architecture; the data loading skeleton is
// already wired to the pipeline layout.
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

// Model 每波段均值基线模型
type Model struct {
	BandMeans []float64
}

func main() {
	cfg, err := config.Load("geoflow.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	dp := config.NewDataPaths(cfg.DataDir)

	loader, err := feature.NewLoader(1024)
	if err != nil {
		log.Fatalf("Failed to create feature loader: %v", err)
	}

	sums := make([]float64, config.BandAmount)
	count := 0
	for _, d := range dataset.FromConfig(cfg.Datasets) {
		labels, err := d.LoadLabels()
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			log.Fatalf("Failed to load labels for %s: %v", d.Name, err)
		}
		for _, r := range labels.FilterExists() {
			if r.Subset != config.SubsetTrain {
				continue
			}
			instance, err := loader.Load(r.FeaturePath)
			if err != nil || instance.LabelledArray == nil {
				continue
			}
			for _, step := range instance.LabelledArray {
				if len(step) != config.BandAmount {
					continue
				}
				for b, v := range step {
					sums[b] += v
				}
				count++
			}
		}
	}
	if count == 0 {
		log.Fatal("No training features found, run the feature pipeline first")
	}

	model := Model{BandMeans: make([]float64, config.BandAmount)}
	for b := range sums {
		model.BandMeans[b] = sums[b] / float64(count)
	}

	if err := os.MkdirAll(dp.Models, 0o755); err != nil {
		log.Fatalf("Failed to create models dir: %v", err)
	}
	modelPath := filepath.Join(dp.Models, cfg.Project+".gob")
	file, err := os.Create(modelPath)
	if err != nil {
		log.Fatalf("Failed to create model file: %v", err)
	}
	defer file.Close()
	if err := gob.NewEncoder(file).Encode(model); err != nil {
		log.Fatalf("Failed to save model: %v", err)
	}
	log.Printf("Model trained on %d timesteps, saved to %s", count, modelPath)
}
