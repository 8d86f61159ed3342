// Package sim runs Monte-Carlo decoding simulations: single runs, aggregated
// runs under one error probability, and concurrent sweeps over codes and
// probabilities feeding JSONL records.
package sim

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Gurrzz/qec-bsc/pkg/qec"
	"github.com/Gurrzz/qec-bsc/pkg/qec/pauli"
	"github.com/Gurrzz/qec-bsc/pkg/sim/record"
)

// ErrRecoveryFailed is returned when a decoder output composed with the
// error anticommutes with a stabilizer, i.e. the decoder did not return to
// the codespace.
var ErrRecoveryFailed = errors.New("recovery does not return to the codespace")

// Trial is the outcome of a single simulation run.
type Trial struct {
	// Success is true when recovery composed with the error commutes with
	// every logical operator.
	Success bool
	// ErrorWeight is the number of qubits the sampled error acts on.
	ErrorWeight int
	// LogicalCommutations holds, per logical operator, 1 when the
	// recovered operator anticommutes with it.
	LogicalCommutations []uint8
	// Elapsed is the wall time of the run, dominated by decoding.
	Elapsed time.Duration
}

// Runner binds a code, an error model and a decoder for repeated runs.
type Runner struct {
	Code    qec.Code
	Model   qec.ErrorModel
	Decoder qec.Decoder
}

// RunOnce samples one error at probability p, decodes its syndrome and
// scores the outcome. A recovery that does not restore the codespace is an
// error, not a failed trial.
func (r *Runner) RunOnce(ctx context.Context, p float64, rng *rand.Rand) (*Trial, error) {
	start := time.Now()

	errOp, err := r.Model.Generate(r.Code, p, rng)
	if err != nil {
		return nil, errors.Wrap(err, "generate error")
	}

	syndrome, err := qec.Syndrome(r.Code, errOp)
	if err != nil {
		return nil, errors.Wrap(err, "syndrome")
	}

	recovery, err := r.Decoder.Decode(ctx, r.Code, syndrome)
	if err != nil {
		return nil, errors.Wrap(err, "decode")
	}

	recovered, err := pauli.Mul(recovery, errOp)
	if err != nil {
		return nil, errors.Wrap(err, "compose recovery")
	}

	residual, err := qec.Syndrome(r.Code, recovered)
	if err != nil {
		return nil, errors.Wrap(err, "residual syndrome")
	}
	for i, bit := range residual {
		if bit != 0 {
			return nil, errors.Wrapf(ErrRecoveryFailed, "stabilizer %d", i)
		}
	}

	commutations, err := pauli.BspRows(r.Code.Logicals(), recovered)
	if err != nil {
		return nil, errors.Wrap(err, "logical commutations")
	}
	success := true
	for _, bit := range commutations {
		if bit != 0 {
			success = false
		}
	}

	return &Trial{
		Success:             success,
		ErrorWeight:         errOp.Weight(),
		LogicalCommutations: commutations,
		Elapsed:             time.Since(start),
	}, nil
}

// RunSpec parametrises an aggregated run.
type RunSpec struct {
	// P is the error probability.
	P float64
	// MaxRuns is the number of trials; 1 when zero or negative.
	MaxRuns int
	// MaxFailures stops the run early once reached, when positive.
	MaxFailures int
	// Seed seeds the rng; 0 draws a seed from the clock.
	Seed int64
}

// Run aggregates MaxRuns trials into a record.
func (r *Runner) Run(ctx context.Context, spec RunSpec) (*record.Record, error) {
	if spec.MaxRuns < 1 {
		spec.MaxRuns = 1
	}
	seed := spec.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	n, k, d := r.Code.NKD()
	rec := &record.Record{
		Code:             r.Code.Label(),
		NKD:              [3]int{n, k, d},
		ErrorModel:       r.Model.Label(),
		Decoder:          r.Decoder.Label(),
		ErrorProbability: spec.P,
		TimeSteps:        1,
		Seed:             seed,
		UUID:             uuid.NewString(),
	}

	start := time.Now()
	var weightSq float64
	for run := 0; run < spec.MaxRuns; run++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "run")
		}

		trial, err := r.RunOnce(ctx, spec.P, rng)
		if err != nil {
			return nil, errors.Wrapf(err, "run %d", run)
		}

		rec.NRun++
		if trial.Success {
			rec.NSuccess++
		} else {
			rec.NFail++
		}
		if rec.NLogicalCommutations == nil {
			rec.NLogicalCommutations = make([]int64, len(trial.LogicalCommutations))
		}
		for i, bit := range trial.LogicalCommutations {
			rec.NLogicalCommutations[i] += int64(bit)
		}
		rec.ErrorWeightTotal += int64(trial.ErrorWeight)
		weightSq += float64(trial.ErrorWeight) * float64(trial.ErrorWeight)

		if spec.MaxFailures > 0 && rec.NFail >= spec.MaxFailures {
			break
		}
	}

	mean := float64(rec.ErrorWeightTotal) / float64(rec.NRun)
	rec.ErrorWeightPvar = weightSq/float64(rec.NRun) - mean*mean
	rec.WallTime = time.Since(start).Seconds()
	rec.Rates()

	return rec, nil
}
