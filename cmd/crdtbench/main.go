// Command crdtbench measures the average per-operation time, in
// nanoseconds, of each CRDT in package crdt at a configurable (MaxNodes,
// MaxElements). It only times local mutations; it does not merge replicas
// or check convergence.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/vertexclique/crdtosphere/pkg/config"
	"github.com/vertexclique/crdtosphere/pkg/crdt"
	"github.com/vertexclique/crdtosphere/pkg/logger"
)

// BenchConfig controls the replica shape every benchmark runs under.
type BenchConfig struct {
	MaxNodes    int    `env:"CRDT_MAX_NODES" env-default:"16"`
	MaxElements int    `env:"CRDT_MAX_ELEMENTS" env-default:"4096" validate:"required"`
	Iterations  int    `env:"CRDT_ITERATIONS" env-default:"100000" validate:"required"`
	LogLevel    string `env:"LOG_LEVEL" env-default:"INFO"`
	LogFormat   string `env:"LOG_FORMAT" env-default:"TEXT"`
}

func main() {
	var cfg BenchConfig
	if err := config.Load(&cfg); err != nil {
		fmt.Fprintln(os.Stderr, "config: ", err)
		os.Exit(1)
	}

	log := logger.Init(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	ctx := context.Background()

	runID := uuid.New()
	log.InfoContext(ctx, "starting crdt benchmark run",
		"run_id", runID.String(),
		"max_nodes", cfg.MaxNodes,
		"max_elements", cfg.MaxElements,
		"iterations", cfg.Iterations,
	)

	cap := crdt.Capacity{MaxNodes: cfg.MaxNodes, MaxElements: cfg.MaxElements}

	results := []struct {
		name   string
		fn     func(crdt.Capacity, int) (time.Duration, error)
		capped bool // runs at most MaxElements operations
	}{
		{"GCounter.Increment", benchGCounter, false},
		{"GCounterAtomic.Increment", benchGCounterAtomic, false},
		{"PNCounter.Increment", benchPNCounter, false},
		{"LWWRegister.Set", benchLWWRegister, false},
		{"MVRegister.Set", benchMVRegister, false},
		{"GSet.Insert", benchGSet, true},
		{"ORSet.Insert", benchORSet, true},
		{"LWWMap.Set", benchLWWMap, true},
	}

	for _, r := range results {
		elapsed, err := r.fn(cap, cfg.Iterations)
		if err != nil {
			log.ErrorContext(ctx, "benchmark failed", "run_id", runID.String(), "name", r.name, "error", err)
			os.Exit(1)
		}
		ops := cfg.Iterations
		if r.capped && ops > cap.MaxElements {
			ops = cap.MaxElements
		}
		perOp := elapsed / time.Duration(ops)
		log.InfoContext(ctx, "benchmark complete",
			"run_id", runID.String(),
			"name", r.name,
			"total", elapsed.String(),
			"per_op_ns", perOp.Nanoseconds(),
		)
	}
}

func benchGCounter(cap crdt.Capacity, n int) (time.Duration, error) {
	c, err := crdt.NewGCounter(0, cap)
	if err != nil {
		return 0, err
	}
	start := time.Now()
	for i := 0; i < n; i++ {
		if err := c.Increment(1); err != nil {
			return 0, err
		}
	}
	return time.Since(start), nil
}

func benchGCounterAtomic(cap crdt.Capacity, n int) (time.Duration, error) {
	c, err := crdt.NewGCounterAtomic(0, cap)
	if err != nil {
		return 0, err
	}
	start := time.Now()
	for i := 0; i < n; i++ {
		if err := c.Increment(1); err != nil {
			return 0, err
		}
	}
	return time.Since(start), nil
}

func benchPNCounter(cap crdt.Capacity, n int) (time.Duration, error) {
	c, err := crdt.NewPNCounter(0, cap)
	if err != nil {
		return 0, err
	}
	start := time.Now()
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			if err := c.Increment(1); err != nil {
				return 0, err
			}
		} else {
			if err := c.Decrement(1); err != nil {
				return 0, err
			}
		}
	}
	return time.Since(start), nil
}

func benchLWWRegister(cap crdt.Capacity, n int) (time.Duration, error) {
	r, err := crdt.NewLWWRegister[int](0, cap)
	if err != nil {
		return 0, err
	}
	start := time.Now()
	for i := 0; i < n; i++ {
		if err := r.Set(i, crdt.Timestamp(i+1)); err != nil {
			return 0, err
		}
	}
	return time.Since(start), nil
}

func benchMVRegister(cap crdt.Capacity, n int) (time.Duration, error) {
	r, err := crdt.NewMVRegister[int](0, cap)
	if err != nil {
		return 0, err
	}
	start := time.Now()
	for i := 0; i < n; i++ {
		r.Set(i, crdt.Timestamp(i+1))
	}
	return time.Since(start), nil
}

func benchGSet(cap crdt.Capacity, n int) (time.Duration, error) {
	s, err := crdt.NewGSet[int](cap)
	if err != nil {
		return 0, err
	}
	limit := n
	if limit > cap.MaxElements {
		limit = cap.MaxElements
	}
	start := time.Now()
	for i := 0; i < limit; i++ {
		if err := s.Insert(i); err != nil {
			return 0, err
		}
	}
	return time.Since(start), nil
}

func benchORSet(cap crdt.Capacity, n int) (time.Duration, error) {
	s, err := crdt.NewORSet[int](0, cap)
	if err != nil {
		return 0, err
	}
	limit := n
	if limit > cap.MaxElements {
		limit = cap.MaxElements
	}
	start := time.Now()
	for i := 0; i < limit; i++ {
		if _, err := s.Insert(i); err != nil {
			return 0, err
		}
	}
	return time.Since(start), nil
}

func benchLWWMap(cap crdt.Capacity, n int) (time.Duration, error) {
	m, err := crdt.NewLWWMap[int, int](0, cap)
	if err != nil {
		return 0, err
	}
	limit := n
	if limit > cap.MaxElements {
		limit = cap.MaxElements
	}
	start := time.Now()
	for i := 0; i < limit; i++ {
		if err := m.Set(i, i, crdt.Timestamp(i+1)); err != nil {
			return 0, err
		}
	}
	return time.Since(start), nil
}
