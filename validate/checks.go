package validate

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"geoflow/config"
	"geoflow/feature"
)

const (
	markPass = "✔"
	markFail = "✖"
)

// CheckFeaturesWithoutLabels 孤儿特征检查
//
// Every artifact on disk must be referenced by at least one label
// across all datasets.
func (s *Suite) CheckFeaturesWithoutLabels() Result {
	tables, err := s.loadLabels()
	if err != nil {
		return errorResult(err)
	}

	referenced := make(map[string]bool)
	for _, labels := range tables {
		for _, r := range labels {
			referenced[r.FeatureFilename] = true
		}
	}

	rows, err := feature.Catalog(s.FeaturesDir, s.Loader)
	if err != nil {
		return errorResult(err)
	}

	var orphans []string
	for _, row := range rows {
		if !referenced[row.Filename] {
			orphans = append(orphans, row.Path)
		}
	}
	result := Result{
		Passed:  len(orphans) == 0,
		Details: []string{fmt.Sprintf("found %d features with no labels", len(orphans))},
	}
	result.Details = append(result.Details, orphans...)
	return result
}

// CheckArtifactsDecodable 特征制品反序列化检查
func (s *Suite) CheckArtifactsDecodable() Result {
	tables, err := s.loadLabels()
	if err != nil {
		return errorResult(err)
	}

	result := Result{Passed: true}
	for _, d := range s.Datasets {
		labels, ok := tables[d.Name]
		if !ok {
			continue
		}
		existing := labels.FilterExists()
		good := 0
		for _, r := range existing {
			if _, err := s.Loader.Load(r.FeaturePath); err == nil {
				good++
			}
		}
		mark := markPass
		if good != len(existing) {
			mark = markFail
			result.Passed = false
		}
		result.Details = append(result.Details,
			fmt.Sprintf("%s %s has %d features out of %d", mark, d.Name, good, len(existing)))
	}
	return result
}

// CheckSubsetSizes 子集规模检查
//
// Per subset, the label count must equal the existing-feature count.
// A stale already-exists flag is recomputed from disk first; the
// correction stays in memory, the label source is never rewritten.
func (s *Suite) CheckSubsetSizes() Result {
	tables, err := s.loadLabels()
	if err != nil {
		return errorResult(err)
	}

	result := Result{Passed: true}
	for _, d := range s.Datasets {
		labels, ok := tables[d.Name]
		if !ok {
			continue
		}
		if !labels.AllExist() {
			labels = labels.RecomputeExists()
		}

		for subset, labelCount := range labels.SubsetCounts() {
			featureCount := 0
			for _, r := range labels {
				if r.Subset == subset && r.AlreadyExists {
					featureCount++
				}
			}
			if labelCount != featureCount {
				result.Passed = false
				result.Details = append(result.Details,
					fmt.Sprintf("%s %s %s: %d labels but %d features",
						markFail, d.Name, subset, labelCount, featureCount))
			}
		}
	}
	if result.Passed {
		result.Details = []string{"all subsets have matching label and feature counts"}
	}
	return result
}

// CheckDuplicateFeatures 特征重复检查
//
// No two catalog rows may share (instance_lon, instance_lat, source_file).
func (s *Suite) CheckDuplicateFeatures() Result {
	rows, err := feature.Catalog(s.FeaturesDir, s.Loader)
	if err != nil {
		return errorResult(err)
	}

	type featureKey struct {
		lon, lat float64
		source   string
	}
	seen := make(map[featureKey]bool, len(rows))
	duplicates := 0
	for _, row := range rows {
		key := featureKey{row.Instance.InstanceLon, row.Instance.InstanceLat, row.Instance.SourceFile}
		if seen[key] {
			duplicates++
		}
		seen[key] = true
	}
	return Result{
		Passed:  duplicates == 0,
		Details: []string{fmt.Sprintf("found %d duplicates", duplicates)},
	}
}

// CheckEmptyFeatures 空特征检查
func (s *Suite) CheckEmptyFeatures() Result {
	rows, err := feature.Catalog(s.FeaturesDir, s.Loader)
	if err != nil {
		return errorResult(err)
	}

	empty := 0
	for _, row := range rows {
		if row.Instance.LabelledArray == nil {
			empty++
		}
	}
	return Result{
		Passed:  empty == 0,
		Details: []string{fmt.Sprintf("found %d empty features, rerun feature creation to fix", empty)},
	}
}

// CheckBandCount 波段数检查
func (s *Suite) CheckBandCount() Result {
	rows, err := feature.Catalog(s.FeaturesDir, s.Loader)
	if err != nil {
		return errorResult(err)
	}

	bandCounts := make(map[int]bool)
	for _, row := range rows {
		if row.Instance.LabelledArray == nil {
			continue
		}
		bandCounts[row.Instance.Bands()] = true
	}

	passed := len(bandCounts) == 0 || (len(bandCounts) == 1 && bandCounts[config.BandAmount])
	return Result{
		Passed:  passed,
		Details: []string{fmt.Sprintf("found band counts %v, want [%d]", keysOf(bandCounts), config.BandAmount)},
	}
}

// CheckJanuaryFirst 时间对齐检查: 特征文件名必须编码1月1日起始
func (s *Suite) CheckJanuaryFirst() Result {
	rows, err := feature.Catalog(s.FeaturesDir, s.Loader)
	if err != nil {
		return errorResult(err)
	}

	misaligned := 0
	for _, row := range rows {
		if !strings.Contains(row.Filename, "_01_01") {
			misaligned++
		}
	}
	return Result{
		Passed:  misaligned == 0,
		Details: []string{fmt.Sprintf("%d features do not start on January 1st", misaligned)},
	}
}

// CheckTimestepsMatch 标签与特征时间步匹配检查
func (s *Suite) CheckTimestepsMatch() Result {
	tables, err := s.loadLabels()
	if err != nil {
		return errorResult(err)
	}

	result := Result{Passed: true}
	for _, d := range s.Datasets {
		labels, ok := tables[d.Name]
		if !ok {
			continue
		}
		existing := labels.FilterExists()
		if len(existing) == 0 {
			continue
		}

		mismatches := 0
		for _, r := range existing {
			instance, err := s.Loader.Load(r.FeaturePath)
			if err != nil {
				mismatches++
				continue
			}
			if instance.Timesteps() != r.Timesteps() {
				mismatches++
			}
		}
		mark, word := markPass, "match"
		if mismatches > 0 {
			mark, word = markFail, "mismatch"
			result.Passed = false
		}
		result.Details = append(result.Details,
			fmt.Sprintf("%s %s label and feature ranges %s (%d mismatched)", mark, d.Name, word, mismatches))
	}
	return result
}

// CheckDateOrder 日期顺序检查: 每条标签起始日期必须早于结束日期
func (s *Suite) CheckDateOrder() Result {
	tables, err := s.loadLabels()
	if err != nil {
		return errorResult(err)
	}

	result := Result{Passed: true}
	for _, d := range s.Datasets {
		labels, ok := tables[d.Name]
		if !ok {
			continue
		}
		inconsistent := 0
		for _, r := range labels {
			if !r.Start.Before(r.End) {
				inconsistent++
			}
		}
		mark, word := markPass, "consistent dates"
		if inconsistent > 0 {
			mark = markFail
			word = fmt.Sprintf("%d inconsistent dates", inconsistent)
			result.Passed = false
		}
		result.Details = append(result.Details, fmt.Sprintf("%s %s label has %s", mark, d.Name, word))
	}
	return result
}

// HistoricalCutoff returns the start-date threshold before which a
// label's feature must carry the full monthly history: the first of
// the current month, minus three months, minus the historical depth.
func HistoricalCutoff(now time.Time) time.Time {
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return firstOfMonth.AddDate(0, -3-config.HistoricalMonths, 0)
}

// CheckHistoricalDepth 历史完整性检查
func (s *Suite) CheckHistoricalDepth() Result {
	tables, err := s.loadLabels()
	if err != nil {
		return errorResult(err)
	}
	cutoff := HistoricalCutoff(s.now())

	result := Result{Passed: true}
	for _, d := range s.Datasets {
		labels, ok := tables[d.Name]
		if !ok {
			continue
		}

		depths := make(map[int]bool)
		for _, r := range labels {
			if !r.AlreadyExists || !r.Start.Before(cutoff) {
				continue
			}
			instance, err := s.Loader.Load(r.FeaturePath)
			if err != nil || instance.LabelledArray == nil {
				continue
			}
			depths[instance.Timesteps()] = true
		}
		if len(depths) == 0 {
			continue
		}

		mark := markPass
		if len(depths) != 1 || !depths[config.HistoricalMonths] {
			mark = markFail
			result.Passed = false
		}
		result.Details = append(result.Details,
			fmt.Sprintf("%s %s historical depths %v", mark, d.Name, keysOf(depths)))
	}
	return result
}

// CheckCoordinateCloseness 坐标一致性检查
//
// The coordinates stored in the artifact at feature-computation time
// must match the label's coordinates within the tolerance on each axis.
func (s *Suite) CheckCoordinateCloseness() Result {
	tables, err := s.loadLabels()
	if err != nil {
		return errorResult(err)
	}

	result := Result{Passed: true}
	for _, d := range s.Datasets {
		labels, ok := tables[d.Name]
		if !ok {
			continue
		}
		existing := labels.FilterExists()
		if len(existing) == 0 {
			result.Details = append(result.Details, fmt.Sprintf("\\ %s: no features", d.Name))
			continue
		}

		mismatched := 0
		for _, r := range existing {
			instance, err := s.Loader.Load(r.FeaturePath)
			if err != nil {
				mismatched++
				continue
			}
			if math.Abs(r.Lon-instance.InstanceLon) > config.CoordTolerance ||
				math.Abs(r.Lat-instance.InstanceLat) > config.CoordTolerance {
				mismatched++
			}
		}
		mark := markPass
		if mismatched > 0 {
			mark = markFail
			result.Passed = false
		}
		result.Details = append(result.Details,
			fmt.Sprintf("%s %s: mismatches: %d", mark, d.Name, mismatched))
	}
	return result
}

// CheckCoordinateSpillover 坐标重复报告
//
// Advisory only: labels sharing the exact same (lon, lat) across
// datasets are reported for spill-over auditing. Always passes.
func (s *Suite) CheckCoordinateSpillover() Result {
	tables, err := s.loadLabels()
	if err != nil {
		return errorResult(err)
	}

	type labelAt struct {
		dataset string
		subset  string
		year    int
	}
	type coord struct {
		lon, lat float64
	}
	groups := make(map[coord][]labelAt)
	var order []coord
	for _, d := range s.Datasets {
		labels, ok := tables[d.Name]
		if !ok {
			continue
		}
		for _, r := range labels {
			key := coord{r.Lon, r.Lat}
			if len(groups[key]) == 0 {
				order = append(order, key)
			}
			groups[key] = append(groups[key], labelAt{d.Name, r.Subset, r.Start.Year()})
		}
	}

	result := Result{Passed: true}
	for _, key := range order {
		collisions := groups[key]
		if len(collisions) < 2 {
			continue
		}
		names := make([]string, 0, len(collisions))
		for _, c := range collisions {
			names = append(names, fmt.Sprintf("%s/%s/%d", c.dataset, c.subset, c.year))
		}
		result.Details = append(result.Details,
			fmt.Sprintf("(%v, %v) shared by %s", key.lon, key.lat, strings.Join(names, ", ")))
	}
	if len(result.Details) == 0 {
		result.Details = []string{"no label coordinate spill over"}
	}
	return result
}

func keysOf(set map[int]bool) []int {
	keys := make([]int, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
