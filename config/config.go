package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

// Constants shared between the validator and the generator.
const (
	// BandAmount 特征数组固定波段数
	BandAmount = 18

	// FeatureExt 特征文件扩展名
	FeatureExt = ".gob"

	// DateLayout 标签日期格式
	DateLayout = "2006-01-02"

	// CoordTolerance 标签与特征坐标允许的最大偏差(度)
	CoordTolerance = 0.0001

	// HistoricalMonths 历史完整特征要求的月数
	HistoricalMonths = 24
)

// Subset tags assigned to each label.
const (
	SubsetTrain      = "training"
	SubsetValidation = "validation"
	SubsetTest       = "testing"
)

// DatasetEntry 配置文件中的单个数据集条目
type DatasetEntry struct {
	Name       string `yaml:"name"`
	LabelsPath string `yaml:"labels_path"`
	Encoding   string `yaml:"encoding"` // "" (utf-8) or "gbk"
}

// Config 项目配置 (geoflow.yaml)
type Config struct {
	Project  string         `yaml:"project"`
	DataDir  string         `yaml:"data_dir"`
	Datasets []DatasetEntry `yaml:"datasets"`
	Log      struct {
		Level string `yaml:"level"`
		Path  string `yaml:"path"`
	} `yaml:"log"`
	Report struct {
		DBPath string `yaml:"db_path"`
	} `yaml:"report"`
	Monitor struct {
		Listen string `yaml:"listen"`
	} `yaml:"monitor"`
}

// Load reads and parses a geoflow.yaml config file.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("parse %s: %v", path, err)
	}
	if config.DataDir == "" {
		config.DataDir = "data"
	}
	return &config, nil
}

// DataPaths 数据目录布局
type DataPaths struct {
	DataDir            string
	RawLabels          string
	ProcessedLabels    string
	Models             string
	Features           string
	CompressedFeatures string
}

// NewDataPaths builds the standard layout under dataDir.
func NewDataPaths(dataDir string) DataPaths {
	return DataPaths{
		DataDir:            dataDir,
		RawLabels:          filepath.Join(dataDir, "raw_labels"),
		ProcessedLabels:    filepath.Join(dataDir, "processed_labels"),
		Models:             filepath.Join(dataDir, "models"),
		Features:           filepath.Join(dataDir, "features"),
		CompressedFeatures: filepath.Join(dataDir, "compressed_features.tar.gz"),
	}
}

// AllDirs returns every directory the generator must create.
func (dp DataPaths) AllDirs() []string {
	return []string{
		dp.RawLabels,
		dp.ProcessedLabels,
		dp.Models,
		dp.Features,
		dp.CompressedFeatures,
	}
}

// DVCFiles returns the paths registered with DVC, in the fixed order
// expected by the generated workflows.
func (dp DataPaths) DVCFiles() []string {
	return []string{
		dp.RawLabels,
		dp.ProcessedLabels,
		dp.CompressedFeatures,
		dp.Models,
	}
}

// Get resolves a named data path, used by `geoflow datapath NAME`.
func (dp DataPaths) Get(name string) (string, error) {
	switch name {
	case "RAW_LABELS":
		return dp.RawLabels, nil
	case "PROCESSED_LABELS":
		return dp.ProcessedLabels, nil
	case "MODELS":
		return dp.Models, nil
	case "FEATURES":
		return dp.Features, nil
	case "COMPRESSED_FEATURES":
		return dp.CompressedFeatures, nil
	}
	return "", fmt.Errorf("unknown data path: %s", name)
}
