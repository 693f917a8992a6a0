// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command lfbench benchmarks lfdeque backends and the multi-word CAS
// engines.
//
//	lfbench -workload queue -backends cas,mwcas -num_thread 8 -num_exec 1000000
//	lfbench -workload fields -num_target 4 -skew_parameter 1.0 -throughput=false -csv
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rcrowley/go-metrics"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"code.hybscloud.com/lfdeque"
	"code.hybscloud.com/lfdeque/bench"
)

func main() {
	def := bench.DefaultConfig()
	var (
		workload   = flag.String("workload", def.Workload.String(), "workload: queue, deque or fields")
		backends   = flag.String("backends", "cas,mutex,mwcas,pmwcas", "comma-separated backends to run")
		numExec    = flag.Int("num_exec", def.Ops, "total number of operations per run")
		numThread  = flag.Int("num_thread", def.Threads, "number of worker goroutines")
		numField   = flag.Int("num_field", def.Fields, "fields workload: number of shared words")
		numTarget  = flag.Int("num_target", def.Targets, "fields workload: words updated per operation")
		skew       = flag.Float64("skew_parameter", def.Skew, "Zipf skew for instance or field selection (0 = uniform)")
		seed       = flag.Uint64("seed", 0, "random seed (0 = from clock)")
		instances  = flag.Int("instances", def.Instances, "queue/deque workloads: shared structures")
		prefill    = flag.Int("prefill", def.Prefill, "queue/deque workloads: elements pushed before the run")
		mix        = flag.String("mix", def.Mix.String(), "queue/deque workloads: front,back,push,pop percentages")
		throughput = flag.Bool("throughput", def.Throughput, "measure throughput; false measures latency percentiles")
		csvOut     = flag.Bool("csv", false, "print results as CSV")
		dump       = flag.Bool("metrics", false, "dump each run's metrics registry to stderr")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := zapcore.InfoLevel
	switch {
	case *csvOut:
		level = zapcore.WarnLevel
	case *verbose:
		level = zapcore.DebugLevel
	}
	log := newLogger(level)
	defer log.Sync()

	cfg := def
	var err error
	if cfg.Workload, err = bench.ParseWorkload(*workload); err != nil {
		fatal(log, err)
	}
	if cfg.Mix, err = bench.ParseMix(*mix); err != nil {
		fatal(log, err)
	}
	cfg.Ops = *numExec
	cfg.Threads = *numThread
	cfg.Fields = *numField
	cfg.Targets = *numTarget
	cfg.Skew = *skew
	cfg.Seed = *seed
	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
	}
	cfg.Instances = *instances
	cfg.Prefill = *prefill
	cfg.Throughput = *throughput

	var list []lfdeque.Backend
	for _, name := range strings.Split(*backends, ",") {
		b, err := lfdeque.ParseBackend(strings.TrimSpace(name))
		if err != nil {
			fatal(log, err)
		}
		list = append(list, b)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var w *csv.Writer
	if *csvOut {
		w = csv.NewWriter(os.Stdout)
		w.Write(bench.CSVHeader)
	}
	failed := false
	for _, b := range list {
		cfg.Backend = b
		r, err := bench.NewRunner(cfg, log)
		if err != nil {
			fatal(log, err)
		}
		log.Info("=== start ===", zap.Stringer("backend", b), zap.Uint64("seed", cfg.Seed))
		res, err := r.Run(ctx)
		if ctx.Err() != nil {
			log.Warn("interrupted")
			break
		}
		if err != nil {
			log.Error("run failed", zap.Stringer("backend", b), zap.Error(err))
			failed = true
		}
		if w != nil {
			res.WriteCSV(w)
			w.Flush()
		} else {
			res.WriteText(os.Stdout)
		}
		if *dump && res.Metrics != nil {
			metrics.WriteOnce(res.Metrics, os.Stderr)
		}
		log.Info("=== finish ===", zap.Stringer("backend", b))
	}
	if w != nil {
		w.Flush()
	}
	if failed {
		log.Sync()
		os.Exit(1)
	}
}

func newLogger(level zapcore.Level) *zap.Logger {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(enc),
		zapcore.Lock(os.Stderr),
		zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l >= level }),
	)
	return zap.New(core)
}

func fatal(log *zap.Logger, err error) {
	fmt.Fprintln(os.Stderr, "lfbench:", err)
	log.Sync()
	os.Exit(2)
}
