// Package record holds aggregated simulation run records and their JSONL
// persistence. One record summarises all runs of one (code, error model,
// decoder, error probability) combination; files hold one JSON object per
// line so partial night runs concatenate and merge cleanly.
package record

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"regexp"
	"sort"
	"strconv"

	"github.com/google/renameio/v2"
	"github.com/pkg/errors"
)

// ErrEmptyMerge is returned when Merge is given no records.
var ErrEmptyMerge = errors.New("no records to merge")

// Record aggregates the outcomes of n_run simulation runs.
type Record struct {
	Code             string  `json:"code"`
	NKD              [3]int  `json:"n_k_d"`
	ErrorModel       string  `json:"error_model"`
	Decoder          string  `json:"decoder"`
	ErrorProbability float64 `json:"error_probability"`
	TimeSteps        int     `json:"time_steps"`

	NRun                  int     `json:"n_run"`
	NSuccess              int     `json:"n_success"`
	NFail                 int     `json:"n_fail"`
	NLogicalCommutations  []int64 `json:"n_logical_commutations"`
	ErrorWeightTotal      int64   `json:"error_weight_total"`
	ErrorWeightPvar       float64 `json:"error_weight_pvar"`
	LogicalFailureRate    float64 `json:"logical_failure_rate"`
	PhysicalErrorRate     float64 `json:"physical_error_rate"`
	WallTime              float64 `json:"wall_time"`

	Seed int64  `json:"seed"`
	UUID string `json:"uuid,omitempty"`
}

// key identifies records that may be merged.
type key struct {
	code       string
	errorModel string
	decoder    string
	p          float64
}

func (r *Record) key() key {
	return key{code: r.Code, errorModel: r.ErrorModel, decoder: r.Decoder, p: r.ErrorProbability}
}

// Rates recomputes the derived rate fields from the counters.
func (r *Record) Rates() {
	if r.NRun == 0 {
		return
	}
	r.LogicalFailureRate = float64(r.NFail) / float64(r.NRun)
	qubits := r.NKD[0]
	if qubits > 0 && r.TimeSteps > 0 {
		r.PhysicalErrorRate = float64(r.ErrorWeightTotal) / float64(r.TimeSteps) / float64(qubits) / float64(r.NRun)
	}
}

// Merge combines records with identical code, error model, decoder and error
// probability by summing their counters and recomputing the rates. The
// population variance of the error weight is combined from the group
// variances and means. Output order follows the first occurrence of each
// combination; seeds and UUIDs of merged groups are dropped.
func Merge(records []*Record) ([]*Record, error) {
	if len(records) == 0 {
		return nil, ErrEmptyMerge
	}

	merged := map[key]*Record{}
	var order []key
	counts := map[key][]*Record{}

	for _, r := range records {
		k := r.key()
		counts[k] = append(counts[k], r)
		out, ok := merged[k]
		if !ok {
			clone := *r
			clone.NLogicalCommutations = append([]int64(nil), r.NLogicalCommutations...)
			clone.Seed = 0
			clone.UUID = ""
			merged[k] = &clone
			order = append(order, k)
			continue
		}

		if out.NKD != r.NKD {
			return nil, errors.Errorf("records for %q disagree on n_k_d: %v vs %v", r.Code, out.NKD, r.NKD)
		}
		out.NRun += r.NRun
		out.NSuccess += r.NSuccess
		out.NFail += r.NFail
		out.ErrorWeightTotal += r.ErrorWeightTotal
		out.WallTime += r.WallTime
		if len(out.NLogicalCommutations) == len(r.NLogicalCommutations) {
			for i := range out.NLogicalCommutations {
				out.NLogicalCommutations[i] += r.NLogicalCommutations[i]
			}
		}
	}

	out := make([]*Record, 0, len(order))
	for _, k := range order {
		r := merged[k]
		r.ErrorWeightPvar = combinedPvar(counts[k])
		r.Rates()
		out = append(out, r)
	}

	return out, nil
}

// combinedPvar combines per-group population variances of the error weight:
// E[w^2] - E[w]^2 over the union, from each group's pvar and mean.
func combinedPvar(group []*Record) float64 {
	var runs float64
	var mean, meanSq float64
	for _, r := range group {
		if r.NRun == 0 {
			continue
		}
		n := float64(r.NRun)
		m := float64(r.ErrorWeightTotal) / n
		runs += n
		mean += n * m
		meanSq += n * (r.ErrorWeightPvar + m*m)
	}
	if runs == 0 {
		return 0
	}
	mean /= runs
	meanSq /= runs

	return meanSq - mean*mean
}

// Point is one (x, y) sample of a plot series.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// GroupXY merges the records and extracts, per code label, the logical
// failure rate against the error probability, sorted by probability.
func GroupXY(records []*Record) (map[string][]Point, error) {
	merged, err := Merge(records)
	if err != nil {
		return nil, err
	}

	series := map[string][]Point{}
	for _, r := range merged {
		series[r.Code] = append(series[r.Code], Point{X: r.ErrorProbability, Y: r.LogicalFailureRate})
	}
	for _, points := range series {
		sort.Slice(points, func(i, j int) bool { return points[i].X < points[j].X })
	}

	return series, nil
}

var biasPattern = regexp.MustCompile(`bias=([0-9eE.+-]+)`)

// Bias extracts the bias eta from the error model label, for example
// "Biased-depolarizing (bias=30, axis='Z')". The second result is false for
// models without a bias, such as plain depolarizing.
func (r *Record) Bias() (float64, bool) {
	m := biasPattern.FindStringSubmatch(r.ErrorModel)
	if m == nil {
		return 0, false
	}
	eta, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}

	return eta, true
}

// GroupXYBias merges the records and extracts, per code label, the logical
// failure rate against the bias eta, sorted by bias. Records whose error
// model carries no bias are skipped.
func GroupXYBias(records []*Record) (map[string][]Point, error) {
	merged, err := Merge(records)
	if err != nil {
		return nil, err
	}

	series := map[string][]Point{}
	for _, r := range merged {
		eta, ok := r.Bias()
		if !ok {
			continue
		}
		series[r.Code] = append(series[r.Code], Point{X: eta, Y: r.LogicalFailureRate})
	}
	for _, points := range series {
		sort.Slice(points, func(i, j int) bool { return points[i].X < points[j].X })
	}

	return series, nil
}

// Marshal renders records as JSONL.
func Marshal(records []*Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i, r := range records {
		if err := enc.Encode(r); err != nil {
			return nil, errors.Wrapf(err, "encode record %d", i)
		}
	}

	return buf.Bytes(), nil
}

// Write atomically replaces the file with the given records as JSONL.
func Write(path string, records []*Record) error {
	data, err := Marshal(records)
	if err != nil {
		return err
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}

	return nil
}

// Append atomically rewrites the file with the existing records followed by
// the new ones. A missing file counts as empty.
func Append(path string, records []*Record) error {
	existing, err := Read(path)
	if err != nil && !os.IsNotExist(errors.Cause(err)) {
		return err
	}

	return Write(path, append(existing, records...))
}

// Read parses a JSONL record file.
func Read(path string) ([]*Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer file.Close()

	var records []*Record
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		r := &Record{}
		if err := json.Unmarshal(text, r); err != nil {
			return nil, errors.Wrapf(err, "%s line %d", path, line)
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "scan %s", path)
	}

	return records, nil
}
