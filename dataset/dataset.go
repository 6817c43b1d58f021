package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"geoflow/config"
)

// Label CSV column names.
const (
	ColLon             = "lon"
	ColLat             = "lat"
	ColStart           = "start_date"
	ColEnd             = "end_date"
	ColSubset          = "subset"
	ColFeatureFilename = "feature_filename"
	ColFeaturePath     = "feature_path"
	ColAlreadyExists   = "already_exists"
)

// LabelRecord 单条地面真值标签
type LabelRecord struct {
	Lon             float64
	Lat             float64
	Start           time.Time
	End             time.Time
	Subset          string
	FeatureFilename string // filename stem, no extension
	FeaturePath     string
	AlreadyExists   bool
}

// Timesteps returns the number of monthly steps implied by the label's
// date range.
func (r LabelRecord) Timesteps() int {
	return (r.End.Year()-r.Start.Year())*12 + int(r.End.Month()) - int(r.Start.Month())
}

// Labels 一个数据集的标签表
type Labels []LabelRecord

// FilterExists returns only the labels whose feature is marked computed.
func (ls Labels) FilterExists() Labels {
	out := make(Labels, 0, len(ls))
	for _, r := range ls {
		if r.AlreadyExists {
			out = append(out, r)
		}
	}
	return out
}

// RecomputeExists re-derives the already-exists flag by checking the
// feature file on disk. The correction is in-memory only, the label
// source is never rewritten.
func (ls Labels) RecomputeExists() Labels {
	out := make(Labels, len(ls))
	copy(out, ls)
	for i := range out {
		_, err := os.Stat(out[i].FeaturePath)
		out[i].AlreadyExists = err == nil
	}
	return out
}

// AllExist reports whether every label is marked computed.
func (ls Labels) AllExist() bool {
	for _, r := range ls {
		if !r.AlreadyExists {
			return false
		}
	}
	return true
}

// SubsetCounts returns label counts keyed by subset tag.
func (ls Labels) SubsetCounts() map[string]int {
	counts := make(map[string]int)
	for _, r := range ls {
		counts[r.Subset]++
	}
	return counts
}

// LabeledDataset 一个命名数据集及其标签来源
type LabeledDataset struct {
	Name       string
	LabelsPath string
	Encoding   string // "" (utf-8) or "gbk"
}

// FromConfig builds the dataset list from config entries.
func FromConfig(entries []config.DatasetEntry) []LabeledDataset {
	datasets := make([]LabeledDataset, 0, len(entries))
	for _, e := range entries {
		datasets = append(datasets, LabeledDataset{
			Name:       e.Name,
			LabelsPath: e.LabelsPath,
			Encoding:   e.Encoding,
		})
	}
	return datasets
}

// LoadLabels reads the dataset's label CSV. A missing file surfaces as
// os.ErrNotExist so callers can treat the dataset as not yet produced.
func (d LabeledDataset) LoadLabels() (Labels, error) {
	file, err := os.Open(d.LabelsPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var reader io.Reader = file
	if strings.EqualFold(d.Encoding, "gbk") {
		reader = transform.NewReader(file, simplifiedchinese.GBK.NewDecoder())
	}

	return ParseLabels(reader)
}

// ParseLabels parses a label CSV stream into records.
func ParseLabels(r io.Reader) (Labels, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read label header: %v", err)
	}
	if len(header) > 0 {
		// Excel exports prepend a UTF-8 BOM.
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{
		ColLon, ColLat, ColStart, ColEnd, ColSubset,
		ColFeatureFilename, ColFeaturePath, ColAlreadyExists,
	} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("label CSV missing column %q", required)
		}
	}

	var labels Labels
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read label row: %v", err)
		}

		record, err := parseRow(row, col)
		if err != nil {
			return nil, fmt.Errorf("label row %d: %v", line, err)
		}
		labels = append(labels, record)
	}
	return labels, nil
}

func parseRow(row []string, col map[string]int) (LabelRecord, error) {
	var r LabelRecord
	var err error

	if r.Lon, err = strconv.ParseFloat(row[col[ColLon]], 64); err != nil {
		return r, fmt.Errorf("bad lon %q", row[col[ColLon]])
	}
	if r.Lat, err = strconv.ParseFloat(row[col[ColLat]], 64); err != nil {
		return r, fmt.Errorf("bad lat %q", row[col[ColLat]])
	}
	if r.Start, err = time.Parse(config.DateLayout, row[col[ColStart]]); err != nil {
		return r, fmt.Errorf("bad start date %q", row[col[ColStart]])
	}
	if r.End, err = time.Parse(config.DateLayout, row[col[ColEnd]]); err != nil {
		return r, fmt.Errorf("bad end date %q", row[col[ColEnd]])
	}
	r.Subset = strings.TrimSpace(row[col[ColSubset]])
	r.FeatureFilename = strings.TrimSpace(row[col[ColFeatureFilename]])
	r.FeaturePath = strings.TrimSpace(row[col[ColFeaturePath]])
	if r.FeatureFilename == "" {
		// Older label exports carry only the path column.
		r.FeatureFilename = Stem(r.FeaturePath)
	}

	switch strings.ToLower(strings.TrimSpace(row[col[ColAlreadyExists]])) {
	case "true", "1", "yes":
		r.AlreadyExists = true
	case "false", "0", "no", "":
		r.AlreadyExists = false
	default:
		return r, fmt.Errorf("bad already_exists %q", row[col[ColAlreadyExists]])
	}
	return r, nil
}

// Summary renders a human-readable per-subset breakdown for a dataset.
func (d LabeledDataset) Summary(labels Labels) string {
	counts := labels.SubsetCounts()
	subsets := make([]string, 0, len(counts))
	for s := range counts {
		subsets = append(subsets, s)
	}
	sort.Strings(subsets)

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d labels)\n", d.Name, len(labels))
	for _, s := range subsets {
		existing := 0
		for _, r := range labels {
			if r.Subset == s && r.AlreadyExists {
				existing++
			}
		}
		fmt.Fprintf(&b, "  %-12s %5d labels, %5d features\n", s, counts[s], existing)
	}
	return b.String()
}

// Stem strips the directory and feature extension from a feature path.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
