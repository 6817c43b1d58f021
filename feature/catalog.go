package feature

import (
	"io/fs"
	"path/filepath"
	"strings"

	"geoflow/config"
)

// Row 特征总表中的一行
type Row struct {
	Path     string
	Filename string // stem, no extension
	Instance *DataInstance
}

// Catalog loads every feature artifact under dir into a flat table.
// Decode failures are returned as-is so the caller can fail loudly;
// a missing directory yields an empty catalog.
func Catalog(dir string, loader *Loader) ([]Row, error) {
	var rows []Row
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return nil // features not produced yet
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, config.FeatureExt) {
			return nil
		}

		instance, err := loader.Load(path)
		if err != nil {
			return err
		}
		base := filepath.Base(path)
		rows = append(rows, Row{
			Path:     path,
			Filename: strings.TrimSuffix(base, config.FeatureExt),
			Instance: instance,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}
