// Package stageprof times named pipeline stages and tags them with pprof labels
// so CPU profiles can be split per stage.
package stageprof

import (
	"context"
	"fmt"
	"os"
	"runtime/pprof"
	"sync"
	"time"
)

// Timings accumulates wall time per stage name.
type Timings struct {
	mu     sync.Mutex
	order  []string
	totals map[string]time.Duration
	counts map[string]int
}

// New returns an empty Timings.
func New() *Timings {
	return &Timings{
		totals: make(map[string]time.Duration),
		counts: make(map[string]int),
	}
}

// Do runs fn under the pprof label stage=name and records its duration.
func (t *Timings) Do(ctx context.Context, name string, fn func(context.Context)) time.Duration {
	var elapsed time.Duration
	pprof.Do(ctx, pprof.Labels("stage", name), func(ctx context.Context) {
		start := time.Now()
		fn(ctx)
		elapsed = time.Since(start)
	})

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.totals[name]; !ok {
		t.order = append(t.order, name)
	}
	t.totals[name] += elapsed
	t.counts[name]++

	return elapsed
}

// Stage is the aggregate for one stage name.
type Stage struct {
	Name  string
	Total time.Duration
	Runs  int
}

// Mean returns the average duration of one run of the stage.
func (s Stage) Mean() time.Duration {
	if s.Runs == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Runs)
}

// Stages returns aggregates in first-seen order.
func (t *Timings) Stages() []Stage {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Stage, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, Stage{Name: name, Total: t.totals[name], Runs: t.counts[name]})
	}
	return out
}

// StartCPUProfile writes a CPU profile to path until the returned stop is called.
// An empty path disables profiling and returns a no-op stop.
func StartCPUProfile(path string) (func() error, error) {
	if path == "" {
		return func() error { return nil }, nil
	}

	f, err := os.Create(path) // #nosec G304 -- user-chosen profile output
	if err != nil {
		return nil, fmt.Errorf("create cpuprofile: %w", err)
	}

	err = pprof.StartCPUProfile(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("start cpuprofile: %w", err)
	}

	return func() error {
		pprof.StopCPUProfile()
		return f.Close()
	}, nil
}
