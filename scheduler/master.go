// Copyright 2026 ClickRT Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scheduler

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Master is the process-wide owner of every RouterThread. A router is
// constructed with a reference to a Master (rather than a Master being a
// hidden global singleton) so multiple independent drivers can coexist
// in tests, per spec.md §9's note on the global driver/master state.
type Master struct {
	log     *zap.Logger
	mu      sync.Mutex
	threads []*RouterThread
	metrics *metricSet
}

type metricSet struct {
	tasksRun    prometheus.Gauge
	timersFired prometheus.Gauge
	idleSleeps  prometheus.Gauge
}

// NewMaster creates a Master with n RouterThreads, each on a shared zero
// runcount placeholder until a router's Activate binds it. Threads are started (their Loop goroutines launched) by
// StartThreads, once a router has been activated and has tasks to run.
func NewMaster(n int, log *zap.Logger, registerer prometheus.Registerer) *Master {
	if n < 1 {
		n = 1
	}
	m := &Master{log: log}
	m.metrics = newMetricSet(registerer)
	m.threads = make([]*RouterThread, n)
	for i := 0; i < n; i++ {
		m.threads[i] = newRouterThread(i, log)
	}
	return m
}

func newMetricSet(reg prometheus.Registerer) *metricSet {
	ms := &metricSet{
		tasksRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "clickrt_scheduler_tasks_run_total",
			Help: "Tasks invoked across all router threads.",
		}),
		timersFired: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "clickrt_scheduler_timers_fired_total",
			Help: "Timers fired across all router threads.",
		}),
		idleSleeps: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "clickrt_scheduler_idle_sleeps_total",
			Help: "Times a router thread parked waiting for work.",
		}),
	}
	if reg != nil {
		reg.MustRegister(ms.tasksRun, ms.timersFired, ms.idleSleeps)
	}
	return ms
}

// Threads returns the Master's RouterThread vector. Index i is stable for
// the Master's lifetime.
func (m *Master) Threads() []*RouterThread {
	return m.threads
}

// Thread returns the RouterThread at index i, used by the loader to pin
// an element's tasks/timers to a specific thread (round-robin by
// declaration index, see Router.instantiate in router/load.go).
func (m *Master) Thread(i int) *RouterThread {
	return m.threads[i%len(m.threads)]
}

// StartThreads launches one goroutine per RouterThread running Loop, and
// returns a WaitGroup callers can use to block until every thread has
// exited (i.e. every thread observed its router's runcount <= 0).
func (m *Master) StartThreads() *sync.WaitGroup {
	var wg sync.WaitGroup
	for _, rt := range m.threads {
		wg.Add(1)
		go func(rt *RouterThread) {
			defer wg.Done()
			rt.Loop()
		}(rt)
	}
	return &wg
}

// RefreshMetrics publishes each thread's current counters to the
// prometheus gauges. Called by the statistics handler before a scrape so
// /metrics and `READ threadN.stats` agree.
func (m *Master) RefreshMetrics() {
	var tasks, timers, idles int64
	for _, rt := range m.threads {
		s := rt.SnapshotStats()
		tasks += s.TasksRun
		timers += s.TimersFired
		idles += s.IdleSleeps
	}
	m.metrics.tasksRun.Set(float64(tasks))
	m.metrics.timersFired.Set(float64(timers))
	m.metrics.idleSleeps.Set(float64(idles))
}
