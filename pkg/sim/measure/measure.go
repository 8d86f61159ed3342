// Package measure collects per-stage timings of a simulation sweep: how long
// each stage spends computing and how long it waits on its feeding channel.
package measure

import (
	"sync"
	"time"
)

// FeedInfo accumulates the time a stage spent waiting on one feeding stage.
type FeedInfo struct {
	Elapsed time.Duration
	total   int64
}

// Metric tracks the timings of a single sweep stage.
type Metric struct {
	mu          sync.Mutex
	feeds       map[string]*FeedInfo
	stepElapsed time.Duration
	total       int64
	endDuration time.Duration
	concurrent  int
}

// AddDuration records the computation time of one processed element.
func (mt *Metric) AddDuration(elapsed time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.total++
	mt.stepElapsed += elapsed
}

// AddFeedDuration records the end-to-end time of one element received from
// the named feeding stage.
func (mt *Metric) AddFeedDuration(feedName string, elapsed time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if mt.feeds[feedName] == nil {
		mt.feeds[feedName] = &FeedInfo{}
	}
	info := mt.feeds[feedName]
	info.Elapsed += elapsed
	info.total++
}

// SetTotalDuration records the wall time from sweep start to stage end.
func (mt *Metric) SetTotalDuration(endDuration time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.endDuration = endDuration
}

// TotalDuration returns the wall time recorded by SetTotalDuration.
func (mt *Metric) TotalDuration() time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.endDuration
}

// AVGDuration returns the average computation time per element.
func (mt *Metric) AVGDuration() time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if mt.total == 0 {
		return 0
	}

	return round(time.Duration(float64(mt.stepElapsed) / float64(mt.total)))
}

// AVGFeedDuration averages the feed timings per element and per worker, in
// place, and returns them.
func (mt *Metric) AVGFeedDuration() map[string]*FeedInfo {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	for name, info := range mt.feeds {
		if info.Elapsed == 0 {
			continue
		}
		mt.feeds[name].Elapsed = round(time.Duration(float64(info.Elapsed) / float64(info.total) / float64(mt.concurrent)))
	}

	return mt.feeds
}

// Feeds returns the raw feed timings.
func (mt *Metric) Feeds() map[string]*FeedInfo {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.feeds
}

// Measure holds the metrics of all stages of one sweep, keyed by stage name.
type Measure struct {
	mu     sync.Mutex
	stages map[string]*Metric
}

// New returns an empty measure.
func New() *Measure {
	return &Measure{stages: make(map[string]*Metric)}
}

// AddStage registers a stage with its worker count and returns its metric.
func (m *Measure) AddStage(name string, concurrent int) *Metric {
	if concurrent < 1 {
		concurrent = 1
	}
	mt := &Metric{
		feeds:      make(map[string]*FeedInfo),
		concurrent: concurrent,
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stages[name] = mt

	return mt
}

// Stage returns the metric of a registered stage, or nil.
func (m *Measure) Stage(name string) *Metric {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.stages[name]
}

// All returns the metrics of every registered stage.
func (m *Measure) All() map[string]*Metric {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]*Metric, len(m.stages))
	for name, mt := range m.stages {
		out[name] = mt
	}

	return out
}

func round(d time.Duration) time.Duration {
	switch {
	case d > time.Second:
		d = d.Round(time.Second)
	case d > time.Millisecond:
		d = d.Round(time.Millisecond)
	case d > time.Microsecond:
		d = d.Round(time.Microsecond)
	}

	return d
}
