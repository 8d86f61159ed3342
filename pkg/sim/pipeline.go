package sim

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/Gurrzz/qec-bsc/pkg/sim/drawer"
	"github.com/Gurrzz/qec-bsc/pkg/sim/measure"
)

// Pipeline errors.
var (
	ErrPipelineMustBeSet = errors.New("pipeline must be set")
	ErrInputMustBeSet    = errors.New("input must be set")
)

// Stage is one stage of a sweep pipeline, feeding the next stage through a
// channel.
type Stage[O any] struct {
	name       string
	output     chan O
	concurrent int
	metric     *measure.Metric
}

// Pipeline wires sweep stages together. Each stage runs in its own
// goroutines and reports into a dedicated error channel; the first error
// cancels the shared context and fails the pipeline.
type Pipeline struct {
	ctx       context.Context
	cancel    context.CancelFunc
	errcList  *errorChans
	measure   *measure.Measure
	drawer    *drawer.SweepDrawer
	startTime time.Time
}

// PipelineOption configures a pipeline.
type PipelineOption func(p *Pipeline)

// WithMeasure collects per-stage timing metrics into msr.
func WithMeasure(msr *measure.Measure) PipelineOption {
	return func(p *Pipeline) {
		p.measure = msr
	}
}

// WithDrawer records the stage topology into the drawer. The caller draws it
// after the pipeline finishes.
func WithDrawer(d *drawer.SweepDrawer) PipelineOption {
	return func(p *Pipeline) {
		p.drawer = d
	}
}

// NewPipeline creates an empty pipeline bound to the context.
func NewPipeline(ctx context.Context, opts ...PipelineOption) *Pipeline {
	dCtx, cancel := context.WithCancel(ctx)
	pipe := &Pipeline{
		ctx:       dCtx,
		cancel:    cancel,
		errcList:  &errorChans{},
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(pipe)
	}

	return pipe
}

// Wait blocks until every stage finished or one failed. It returns the first
// error and cancels the remaining stages.
func (p *Pipeline) Wait() error {
	defer p.cancel()

	errc := mergeErrors(p.errcList.list...)
	for err := range errc {
		if err != nil {
			return err
		}
	}

	if p.drawer != nil && p.measure != nil {
		if err := p.drawer.AddMeasure(p.measure); err != nil {
			return errors.Wrap(err, "add measure to drawer")
		}
	}

	return nil
}

func (p *Pipeline) registerStage(name string, inputName string, concurrent int) (*measure.Metric, error) {
	if p.drawer != nil {
		if err := p.drawer.AddStage(name); err != nil {
			return nil, err
		}
		if inputName != "" {
			if err := p.drawer.AddLink(inputName, name); err != nil {
				return nil, err
			}
		}
	}
	if p.measure != nil {
		return p.measure.AddStage(name, concurrent), nil
	}

	return nil, nil
}

// AddSource adds a stage without input: fn emits elements on the channel
// until it returns. The channel closes when fn finishes.
func AddSource[O any](p *Pipeline, name string, fn func(ctx context.Context, out chan<- O) error) (*Stage[O], error) {
	if p == nil {
		return nil, ErrPipelineMustBeSet
	}
	metric, err := p.registerStage(name, "", 1)
	if err != nil {
		return nil, err
	}

	stage := &Stage[O]{
		name:   name,
		output: make(chan O),
		metric: metric,
	}

	errC := make(chan error, 1)
	p.errcList.add(newErrorChan(name, errC))
	go func() {
		defer func() {
			close(stage.output)
			close(errC)
		}()
		if err := fn(p.ctx, stage.output); err != nil {
			errC <- err
		}
	}()

	return stage, nil
}

// AddStage adds a stage consuming input and producing one output element per
// input element. concurrent > 1 runs that many workers in an errgroup; each
// worker stops on the first error.
func AddStage[I, O any](p *Pipeline, name string, input *Stage[I], concurrent int, fn func(ctx context.Context, in I) (O, error)) (*Stage[O], error) {
	if p == nil {
		return nil, ErrPipelineMustBeSet
	}
	if input == nil {
		return nil, ErrInputMustBeSet
	}
	if concurrent < 1 {
		concurrent = 1
	}
	metric, err := p.registerStage(name, input.name, concurrent)
	if err != nil {
		return nil, err
	}

	stage := &Stage[O]{
		name:       name,
		output:     make(chan O),
		concurrent: concurrent,
		metric:     metric,
	}

	errC := make(chan error, 1)
	p.errcList.add(newErrorChan(name, errC))
	go func() {
		defer func() {
			close(stage.output)
			close(errC)
		}()

		errGrp, dCtx := errgroup.WithContext(p.ctx)
		errGrp.SetLimit(concurrent)
		for goIdx := 0; goIdx < concurrent; goIdx++ {
			goIdx := goIdx
			errGrp.Go(func() error {
				return oneToOne(dCtx, goIdx, input, stage, fn)
			})
		}
		if err := errGrp.Wait(); err != nil {
			errC <- err
		}
	}()

	return stage, nil
}

func oneToOne[I, O any](ctx context.Context, goIdx int, input *Stage[I], output *Stage[O], fn func(context.Context, I) (O, error)) error {
outer:
	for {
		start := time.Now()
		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "go routine %d", goIdx)
		case in, ok := <-input.output:
			if !ok {
				break outer
			}
			startFn := time.Now()
			out, err := fn(ctx, in)
			if err != nil {
				return errors.Wrapf(err, "go routine %d", goIdx)
			}
			endFn := time.Since(startFn)

			// check the context again so running workers stop feeding
			// the pipeline once it is cancelled
			select {
			case <-ctx.Done():
				return errors.Wrapf(ctx.Err(), "go routine %d", goIdx)
			case output.output <- out:
				if output.metric != nil {
					output.metric.AddDuration(endFn)
					output.metric.AddFeedDuration(input.name, time.Since(start))
				}
			}
		}
	}

	return nil
}

// AddSink adds a terminal stage consuming every element of input.
func AddSink[I any](p *Pipeline, name string, input *Stage[I], fn func(ctx context.Context, in I) error) error {
	if p == nil {
		return ErrPipelineMustBeSet
	}
	if input == nil {
		return ErrInputMustBeSet
	}
	metric, err := p.registerStage(name, input.name, 1)
	if err != nil {
		return err
	}

	errC := make(chan error, 1)
	p.errcList.add(newErrorChan(name, errC))
	go func() {
		defer close(errC)
	outer:
		for {
			start := time.Now()
			select {
			case <-p.ctx.Done():
				errC <- p.ctx.Err()

				break outer
			case in, ok := <-input.output:
				if !ok {
					break outer
				}
				startFn := time.Now()
				if err := fn(p.ctx, in); err != nil {
					errC <- err

					break outer
				}
				if metric != nil {
					metric.AddDuration(time.Since(startFn))
					metric.AddFeedDuration(input.name, time.Since(start))
				}
			}
		}
		if metric != nil {
			metric.SetTotalDuration(time.Since(p.startTime))
		}
	}()

	return nil
}

type errorChans struct {
	mu   sync.Mutex
	list []*errorChan
}

func (ec *errorChans) add(errChan *errorChan) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.list = append(ec.list, errChan)
}

type errorChan struct {
	c    <-chan error
	name string
}

func newErrorChan(name string, c <-chan error) *errorChan {
	return &errorChan{c: c, name: name}
}

// mergeErrors merges multiple channels of errors.
// Based on https://blog.golang.org/pipelines.
func mergeErrors(cs ...*errorChan) <-chan error {
	var wg sync.WaitGroup
	// the output channel holds one slot per input channel so no sender
	// blocks when Wait returns early
	out := make(chan error, len(cs))

	output := func(c *errorChan) {
		defer wg.Done()
		if c.c == nil {
			return
		}
		for n := range c.c {
			out <- errors.Wrap(n, c.name)
		}
	}
	wg.Add(len(cs))
	for _, c := range cs {
		go output(c)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}
