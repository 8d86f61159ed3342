package sim

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/Gurrzz/qec-bsc/internal/log"
	"github.com/Gurrzz/qec-bsc/pkg/qec"
	"github.com/Gurrzz/qec-bsc/pkg/sim/drawer"
	"github.com/Gurrzz/qec-bsc/pkg/sim/measure"
	"github.com/Gurrzz/qec-bsc/pkg/sim/record"
)

// ErrNoJobs is returned when a sweep has nothing to run.
var ErrNoJobs = errors.New("sweep has no jobs")

// Job is one (code, error model, decoder, probability) combination of a
// sweep.
type Job struct {
	Code    qec.Code
	Model   qec.ErrorModel
	Decoder qec.Decoder
	Spec    RunSpec
}

// Sweep runs jobs concurrently through a pipeline: a source emits the jobs,
// a bounded worker stage aggregates runs, and a sink collects the records in
// job order-independent fashion.
type Sweep struct {
	Jobs []Job
	// Workers bounds the concurrent jobs; 1 when zero or negative.
	Workers int
	// OutFile, when set, receives the records as JSONL, appended
	// atomically.
	OutFile string
	// DrawFile, when set, receives the pipeline topology as a DOT file
	// annotated with timings.
	DrawFile string
}

// DecoderFactory builds the decoder for one (model, probability) pair. RMPS
// decoders fold the error distribution at p into the network, so every pair
// needs its own decoder.
type DecoderFactory func(model qec.ErrorModel, p float64) (qec.Decoder, error)

// Jobs builds the cross product of codes, error models and probabilities,
// asking the factory for a decoder per (model, probability). Seeds derive
// from the base seed per job so re-running with the same seed reproduces
// every record; a zero base seed stays zero.
func Jobs(codes []qec.Code, models []qec.ErrorModel, ps []float64, maxRuns int, seed int64, factory DecoderFactory) ([]Job, error) {
	var jobs []Job
	for _, model := range models {
		for _, p := range ps {
			decoder, err := factory(model, p)
			if err != nil {
				return nil, errors.Wrapf(err, "decoder for %q p %g", model.Label(), p)
			}
			for _, code := range codes {
				jobSeed := int64(0)
				if seed != 0 {
					jobSeed = seed + int64(len(jobs)) + 1
				}
				jobs = append(jobs, Job{
					Code:    code,
					Model:   model,
					Decoder: decoder,
					Spec:    RunSpec{P: p, MaxRuns: maxRuns, Seed: jobSeed},
				})
			}
		}
	}

	return jobs, nil
}

// Run executes the sweep and returns the records sorted by code label and
// probability.
func (s *Sweep) Run(ctx context.Context) ([]*record.Record, error) {
	if len(s.Jobs) == 0 {
		return nil, ErrNoJobs
	}
	workers := s.Workers
	if workers < 1 {
		workers = 1
	}

	logger := log.WithComponent("sweep")
	start := time.Now()

	var opts []PipelineOption
	var msr *measure.Measure
	var drw *drawer.SweepDrawer
	if s.DrawFile != "" {
		msr = measure.New()
		drw = drawer.NewSweepDrawer(s.DrawFile)
		opts = append(opts, WithMeasure(msr), WithDrawer(drw))
	}
	pipe := NewPipeline(ctx, opts...)

	jobsStage, err := AddSource(pipe, "jobs", func(ctx context.Context, out chan<- Job) error {
		for _, job := range s.Jobs {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case out <- job:
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "add jobs source")
	}

	runStage, err := AddStage(pipe, "run", jobsStage, workers, func(ctx context.Context, job Job) (*record.Record, error) {
		runner := &Runner{Code: job.Code, Model: job.Model, Decoder: job.Decoder}
		rec, err := runner.Run(ctx, job.Spec)
		if err != nil {
			return nil, errors.Wrapf(err, "code %q p %g", job.Code.Label(), job.Spec.P)
		}
		logger.Info().
			Str("code", rec.Code).
			Float64("p", rec.ErrorProbability).
			Int("n_run", rec.NRun).
			Int("n_fail", rec.NFail).
			Float64("failure_rate", rec.LogicalFailureRate).
			Float64("wall_time", rec.WallTime).
			Msg("job finished")
		return rec, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "add run stage")
	}

	var records []*record.Record
	err = AddSink(pipe, "records", runStage, func(_ context.Context, rec *record.Record) error {
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "add records sink")
	}

	if err := pipe.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].Code != records[j].Code {
			return records[i].Code < records[j].Code
		}
		return records[i].ErrorProbability < records[j].ErrorProbability
	})

	if s.OutFile != "" {
		if err := record.Append(s.OutFile, records); err != nil {
			return nil, err
		}
		logger.Info().Str("file", s.OutFile).Int("records", len(records)).Msg("records written")
	}

	if drw != nil {
		if err := drw.Draw(); err != nil {
			return nil, errors.Wrap(err, "draw sweep")
		}
	}

	logger.Info().
		Int("jobs", len(s.Jobs)).
		Int("workers", workers).
		Str("elapsed", fmt.Sprintf("%.2fs", time.Since(start).Seconds())).
		Msg("sweep finished")

	return records, nil
}
