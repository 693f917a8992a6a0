// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bench

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"code.hybscloud.com/lfdeque"
	"code.hybscloud.com/lfdeque/mwcas"
)

// Workload selects what the workers operate on.
type Workload uint8

const (
	// WorkloadQueue drives shared queues with a front/back/push/pop mix.
	WorkloadQueue Workload = iota
	// WorkloadDeque drives shared deques; pushes and pops pick an end at random.
	WorkloadDeque
	// WorkloadFields increments Targets distinct shared words per operation.
	WorkloadFields
)

var workloadNames = [...]string{"queue", "deque", "fields"}

func (w Workload) String() string {
	if int(w) < len(workloadNames) {
		return workloadNames[w]
	}
	return fmt.Sprintf("workload(%d)", uint8(w))
}

// ParseWorkload returns the workload named s.
func ParseWorkload(s string) (Workload, error) {
	for i, name := range workloadNames {
		if strings.EqualFold(s, name) {
			return Workload(i), nil
		}
	}
	return 0, fmt.Errorf("bench: unknown workload %q", s)
}

// Mix is the operation mix of the queue and deque workloads, in percent.
type Mix struct {
	Front int
	Back  int
	Push  int
	Pop   int
}

// ParseMix parses "front,back,push,pop" percentages.
func ParseMix(s string) (Mix, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Mix{}, fmt.Errorf("bench: mix %q: want front,back,push,pop", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Mix{}, fmt.Errorf("bench: mix %q: %w", s, err)
		}
		v[i] = n
	}
	return Mix{Front: v[0], Back: v[1], Push: v[2], Pop: v[3]}, nil
}

func (m Mix) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", m.Front, m.Back, m.Push, m.Pop)
}

// Config describes one benchmark run.
type Config struct {
	Workload Workload
	Backend  lfdeque.Backend

	// Ops is the total number of operations, split across workers.
	Ops     int
	Threads int

	// Queue and deque workloads.
	Instances int // shared structures, picked per operation by Zipf skew
	Prefill   int // elements pushed into each structure before the run
	Mix       Mix

	// Fields workload.
	Fields  int // shared words
	Targets int // distinct words updated per operation

	// Skew is the Zipf exponent for picking instances or fields; 0 is uniform.
	Skew float64
	Seed uint64

	// Throughput selects throughput measurement; false records per-operation
	// latency and reports percentiles.
	Throughput bool
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Workload:   WorkloadQueue,
		Backend:    lfdeque.CAS,
		Ops:        100000,
		Threads:    1,
		Instances:  1,
		Mix:        Mix{Front: 25, Back: 25, Push: 25, Pop: 25},
		Fields:     10000,
		Targets:    2,
		Throughput: true,
	}
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if int(c.Workload) >= len(workloadNames) {
		errs = append(errs, fmt.Errorf("unknown workload %d", c.Workload))
	}
	if int(c.Backend) >= len(lfdeque.Backends) {
		errs = append(errs, fmt.Errorf("unknown backend %d", c.Backend))
	}
	if c.Ops <= 0 {
		errs = append(errs, errors.New("ops must be > 0"))
	}
	if c.Threads <= 0 {
		errs = append(errs, errors.New("threads must be > 0"))
	}
	if c.Skew < 0 {
		errs = append(errs, errors.New("skew must be >= 0"))
	}

	switch c.Workload {
	case WorkloadFields:
		if c.Fields <= 0 {
			errs = append(errs, errors.New("fields must be > 0"))
		}
		if c.Targets < 1 || c.Targets > mwcas.MaxTargets {
			errs = append(errs, fmt.Errorf("targets must be between 1 and %d", mwcas.MaxTargets))
		} else if c.Targets > c.Fields {
			errs = append(errs, errors.New("targets must not exceed fields"))
		}
	default:
		if c.Instances < 1 {
			errs = append(errs, errors.New("instances must be >= 1"))
		}
		if c.Prefill < 0 {
			errs = append(errs, errors.New("prefill must be >= 0"))
		}
		m := c.Mix
		if m.Front < 0 || m.Back < 0 || m.Push < 0 || m.Pop < 0 {
			errs = append(errs, errors.New("mix percentages must be >= 0"))
		} else if m.Front+m.Back+m.Push+m.Pop != 100 {
			errs = append(errs, fmt.Errorf("mix %s must sum to 100", m))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("bench: invalid config: %w", err)
	}
	return nil
}
