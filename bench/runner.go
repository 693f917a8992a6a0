// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package bench drives lfdeque backends and the multi-word CAS engines
// under concurrent, Zipf-skewed workloads and reports throughput or
// latency percentiles.
//
// Every worker builds its operation list before the clock starts. The
// runner releases all workers at once and collects results only after the
// last one has finished:
//
//	r, err := bench.NewRunner(cfg, logger)
//	res, err := r.Run(ctx)
//	res.WriteText(os.Stdout)
package bench

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rcrowley/go-metrics"
	"go.uber.org/zap"
)

// Runner executes benchmark runs for one configuration.
type Runner struct {
	cfg Config
	log *zap.Logger
}

// NewRunner validates cfg. A nil logger discards log output.
func NewRunner(cfg Config, log *zap.Logger) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{cfg: cfg, log: log}, nil
}

// Config returns the runner's configuration.
func (r *Runner) Config() Config {
	return r.cfg
}

// driver is the context shared by the workers of one run.
type driver struct {
	target target
	zipf   *Zipf

	ready sync.WaitGroup // every worker has built its operations
	start chan struct{}  // closed to start the timed phase
	done  sync.WaitGroup // every worker has finished the timed phase
	abort bool           // set before start is closed
}

type worker struct {
	id      int
	ops     []op
	lat     []int64
	elapsed time.Duration
}

// Run executes one run. ctx is consulted only between phases; a run that
// has started timing always completes.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	cfg := r.cfg
	res := Result{
		RunID:      uuid.NewString(),
		Workload:   cfg.Workload,
		Backend:    cfg.Backend,
		Threads:    cfg.Threads,
		Ops:        cfg.Ops,
		Throughput: cfg.Throughput,
	}
	log := r.log.With(
		zap.String("run", res.RunID),
		zap.Stringer("workload", cfg.Workload),
		zap.Stringer("backend", cfg.Backend),
	)

	log.Info("prepare workers", zap.Int("threads", cfg.Threads), zap.Int("ops", cfg.Ops))
	d := &driver{
		target: newTarget(&cfg),
		zipf:   NewZipf(cfg.keys(), cfg.Skew),
		start:  make(chan struct{}),
	}
	workers := make([]*worker, cfg.Threads)
	d.ready.Add(cfg.Threads)
	d.done.Add(cfg.Threads)
	for i := range workers {
		n := cfg.Ops / cfg.Threads
		if i < cfg.Ops%cfg.Threads {
			n++
		}
		w := &worker{id: i, ops: make([]op, n)}
		workers[i] = w
		go w.run(d, &cfg)
	}
	d.ready.Wait()

	if err := ctx.Err(); err != nil {
		d.abort = true
		close(d.start)
		d.done.Wait()
		log.Info("run aborted", zap.Error(err))
		return Result{}, err
	}

	log.Info("run workers")
	close(d.start)
	d.done.Wait()
	log.Info("finish running")

	res.summarize(workers)
	if err := d.target.verify(cfg.Ops); err != nil {
		log.Error("verification failed", zap.Error(err))
		return res, fmt.Errorf("bench: %w", err)
	}
	res.Valid = true
	log.Info("result",
		zap.Float64("throughput", res.OpsPerSec),
		zap.Duration("p99", res.Latency.P99),
	)
	return res, nil
}

func (w *worker) run(d *driver, cfg *Config) {
	defer d.done.Done()

	r := rand.New(rand.NewPCG(cfg.Seed, uint64(w.id)))
	d.target.generate(w.ops, r, d.zipf)
	if !cfg.Throughput {
		w.lat = make([]int64, len(w.ops))
	}
	d.ready.Done()
	<-d.start
	if d.abort {
		return
	}

	base := uint64(w.id) << 32
	if cfg.Throughput {
		t0 := time.Now()
		for i := range w.ops {
			d.target.exec(&w.ops[i], base|uint64(i))
		}
		w.elapsed = time.Since(t0)
		return
	}
	for i := range w.ops {
		t0 := time.Now()
		d.target.exec(&w.ops[i], base|uint64(i))
		w.lat[i] = int64(time.Since(t0))
	}
	for _, ns := range w.lat {
		w.elapsed += time.Duration(ns)
	}
}

// keys is the number of items the Zipf sampler chooses from.
func (c *Config) keys() int {
	if c.Workload == WorkloadFields {
		return c.Fields
	}
	return c.Instances
}

// summarize fills throughput, latency and the metrics registry.
func (res *Result) summarize(workers []*worker) {
	reg := metrics.NewRegistry()
	metrics.NewRegisteredGauge("threads", reg).Update(int64(len(workers)))
	metrics.NewRegisteredCounter("ops", reg).Inc(int64(res.Ops))

	var total time.Duration
	for _, w := range workers {
		total += w.elapsed
	}
	res.Elapsed = total / time.Duration(len(workers))
	if res.Elapsed > 0 {
		res.OpsPerSec = float64(res.Ops) / res.Elapsed.Seconds()
	}
	metrics.NewRegisteredGaugeFloat64("throughput", reg).Update(res.OpsPerSec)

	if !res.Throughput {
		// A reservoir as large as the sample keeps every value.
		h := metrics.NewRegisteredHistogram("latency", reg, metrics.NewUniformSample(res.Ops))
		for _, w := range workers {
			for _, ns := range w.lat {
				h.Update(ns)
			}
		}
		ps := h.Percentiles([]float64{0.90, 0.95, 0.99})
		res.Latency = Latency{
			Min: time.Duration(h.Min()),
			P90: time.Duration(ps[0]),
			P95: time.Duration(ps[1]),
			P99: time.Duration(ps[2]),
			Max: time.Duration(h.Max()),
		}
	}
	res.Metrics = reg
}
