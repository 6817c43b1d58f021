package validate

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"geoflow/dataset"
	"geoflow/feature"
)

// Result 单项检查结果
type Result struct {
	Name     string        `json:"name"`
	Passed   bool          `json:"passed"`
	Details  []string      `json:"details,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Publisher receives check results as they complete. The monitor hub
// implements this to stream a live run.
type Publisher interface {
	Publish(Result)
}

// Store persists a finished run. The sqlite report store implements this.
type Store interface {
	SaveRun(startedAt time.Time, results []Result) error
}

// Suite 对所有配置数据集执行的完整性检查组
type Suite struct {
	Datasets    []dataset.LabeledDataset
	FeaturesDir string
	Loader      *feature.Loader
	Log         *zap.SugaredLogger

	// Now is the clock used for the historical cutoff, injectable in tests.
	Now func() time.Time

	Publisher Publisher
	Store     Store
}

// Check 单项检查
type Check struct {
	Name string
	Run  func(*Suite) Result
}

// Checks returns the full battery in execution order.
func Checks() []Check {
	return []Check{
		{"features_without_labels", (*Suite).CheckFeaturesWithoutLabels},
		{"artifacts_decodable", (*Suite).CheckArtifactsDecodable},
		{"subset_sizes", (*Suite).CheckSubsetSizes},
		{"duplicate_features", (*Suite).CheckDuplicateFeatures},
		{"empty_features", (*Suite).CheckEmptyFeatures},
		{"band_count", (*Suite).CheckBandCount},
		{"january_first", (*Suite).CheckJanuaryFirst},
		{"timesteps_match", (*Suite).CheckTimestepsMatch},
		{"date_order", (*Suite).CheckDateOrder},
		{"historical_depth", (*Suite).CheckHistoricalDepth},
		{"coordinate_closeness", (*Suite).CheckCoordinateCloseness},
		{"coordinate_spillover", (*Suite).CheckCoordinateSpillover},
	}
}

// Run executes every check in order and reports whether all passed.
// A failing check never stops the run, later checks still produce
// their own diagnostics.
func (s *Suite) Run() ([]Result, bool) {
	return s.run(Checks())
}

// RunNamed executes only the named checks, in the given order. Unknown
// names are an error so a stale check manifest fails loudly.
func (s *Suite) RunNamed(names []string) ([]Result, bool, error) {
	byName := make(map[string]Check)
	for _, check := range Checks() {
		byName[check.Name] = check
	}
	checks := make([]Check, 0, len(names))
	for _, name := range names {
		check, ok := byName[name]
		if !ok {
			return nil, false, fmt.Errorf("unknown check: %s", name)
		}
		checks = append(checks, check)
	}
	results, passed := s.run(checks)
	return results, passed, nil
}

func (s *Suite) run(checks []Check) ([]Result, bool) {
	startedAt := s.now()
	results := make([]Result, 0, len(checks))
	allPassed := true

	for _, check := range checks {
		began := time.Now()
		result := check.Run(s)
		result.Name = check.Name
		result.Duration = time.Since(began)
		results = append(results, result)

		if result.Passed {
			s.Log.Infow("check passed", "check", result.Name, "duration", result.Duration)
		} else {
			allPassed = false
			s.Log.Errorw("check failed", "check", result.Name, "details", result.Details)
		}
		if s.Publisher != nil {
			s.Publisher.Publish(result)
		}
	}

	if s.Store != nil {
		if err := s.Store.SaveRun(startedAt, results); err != nil {
			s.Log.Warnw("failed to persist run", "error", err)
		}
	}
	return results, allPassed
}

// loadLabels loads every dataset's label table. A dataset whose label
// CSV does not exist yet is skipped, any other load error is fatal to
// the calling check.
func (s *Suite) loadLabels() (map[string]dataset.Labels, error) {
	tables := make(map[string]dataset.Labels)
	for _, d := range s.Datasets {
		labels, err := d.LoadLabels()
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				s.Log.Debugw("dataset not yet available", "dataset", d.Name)
				continue
			}
			return nil, err
		}
		tables[d.Name] = labels
	}
	return tables, nil
}

func (s *Suite) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// errorResult turns an unexpected loading error into a failed result.
func errorResult(err error) Result {
	return Result{Passed: false, Details: []string{err.Error()}}
}
