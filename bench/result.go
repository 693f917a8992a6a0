// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bench

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/rcrowley/go-metrics"

	"code.hybscloud.com/lfdeque"
)

// Latency holds per-operation latency percentiles.
type Latency struct {
	Min time.Duration
	P90 time.Duration
	P95 time.Duration
	P99 time.Duration
	Max time.Duration
}

// Result is the outcome of one run.
type Result struct {
	RunID    string
	Workload Workload
	Backend  lfdeque.Backend
	Threads  int
	Ops      int

	// Throughput reports which measurement the run made.
	Throughput bool

	// Elapsed is the mean timed-phase duration of a worker.
	Elapsed   time.Duration
	OpsPerSec float64
	Latency   Latency

	// Valid is set when the post-run structural or conservation check passed.
	Valid bool

	// Metrics holds the run's threads, ops, throughput and latency metrics.
	Metrics metrics.Registry
}

// WriteText writes a human-readable report.
func (r *Result) WriteText(w io.Writer) error {
	var err error
	if r.Throughput {
		_, err = fmt.Fprintf(w, "%s/%s threads=%d: throughput [ops/s]: %.0f\n",
			r.Workload, r.Backend, r.Threads, r.OpsPerSec)
		return err
	}
	_, err = fmt.Fprintf(w,
		"%s/%s threads=%d: percentiled latencies [ns]:\n  MIN: %d\n  90%%: %d\n  95%%: %d\n  99%%: %d\n  MAX: %d\n",
		r.Workload, r.Backend, r.Threads,
		r.Latency.Min, r.Latency.P90, r.Latency.P95, r.Latency.P99, r.Latency.Max)
	return err
}

// CSVHeader is the header row matching WriteCSV.
var CSVHeader = []string{"run", "workload", "backend", "threads", "ops", "throughput", "min", "p90", "p95", "p99", "max"}

// WriteCSV writes one CSV record. Latency columns are empty for a
// throughput run and the throughput column is empty for a latency run.
func (r *Result) WriteCSV(w *csv.Writer) error {
	rec := []string{
		r.RunID,
		r.Workload.String(),
		r.Backend.String(),
		strconv.Itoa(r.Threads),
		strconv.Itoa(r.Ops),
		"", "", "", "", "", "",
	}
	if r.Throughput {
		rec[5] = strconv.FormatFloat(r.OpsPerSec, 'f', 0, 64)
	} else {
		for i, d := range []time.Duration{r.Latency.Min, r.Latency.P90, r.Latency.P95, r.Latency.P99, r.Latency.Max} {
			rec[6+i] = strconv.FormatInt(int64(d), 10)
		}
	}
	return w.Write(rec)
}
