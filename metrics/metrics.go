// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package metrics dispatch 计数以及耗时统计
package metrics

import (
	"fmt"
	"net/http"
	"reflect"
	"time"

	"github.com/33cn/txflow/types"
	log "github.com/inconshreveable/log15"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	go_metrics "github.com/rcrowley/go-metrics"
)

var mlog = log.New("module", "metrics")

// Namespace prometheus namespace
var Namespace = "txflow"

// Collector 提供 prometheus collectors
type Collector interface {
	Metrics() []prometheus.Collector
}

// PrometheusCollectorsFromFields exported fields of i that are prometheus collectors
func PrometheusCollectorsFromFields(i interface{}) (cs []prometheus.Collector) {
	v := reflect.Indirect(reflect.ValueOf(i))
	for i := 0; i < v.NumField(); i++ {
		if !v.Field(i).CanInterface() {
			continue
		}
		if u, ok := v.Field(i).Interface().(prometheus.Collector); ok {
			cs = append(cs, u)
		}
	}
	return cs
}

// DispatchMetrics counters of the handle workflow, kept in go-metrics and prometheus
type DispatchMetrics struct {
	Dispatches     *prometheus.CounterVec
	Outcomes       *prometheus.CounterVec
	HandleSeconds  prometheus.Histogram
	user           go_metrics.Counter
	child          go_metrics.Counter
	creatorError   go_metrics.Counter
	payerError     go_metrics.Counter
	handleError    go_metrics.Counter
	skipped        go_metrics.Counter
	childRejected  go_metrics.Counter
	handleDuration go_metrics.Timer
}

// NewDispatchMetrics registers the go-metrics side in registry
func NewDispatchMetrics(registry go_metrics.Registry) *DispatchMetrics {
	return &DispatchMetrics{
		Dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "dispatch",
			Name:      "total",
			Help:      "Dispatches processed, by category.",
		}, []string{"category"}),
		Outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "dispatch",
			Name:      "outcome_total",
			Help:      "Dispatches that did not complete normally, by outcome.",
		}, []string{"outcome"}),
		HandleSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "handle",
			Name:      "duration_seconds",
			Help:      "Wall time spent handling one consensus transaction.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		user:           go_metrics.NewRegisteredCounter("dispatch.user", registry),
		child:          go_metrics.NewRegisteredCounter("dispatch.child", registry),
		creatorError:   go_metrics.NewRegisteredCounter("dispatch.creatorError", registry),
		payerError:     go_metrics.NewRegisteredCounter("dispatch.payerError", registry),
		handleError:    go_metrics.NewRegisteredCounter("dispatch.handleError", registry),
		skipped:        go_metrics.NewRegisteredCounter("dispatch.skipped", registry),
		childRejected:  go_metrics.NewRegisteredCounter("throttle.childRejected", registry),
		handleDuration: go_metrics.NewRegisteredTimer("handle.duration", registry),
	}
}

// Metrics Collector
func (m *DispatchMetrics) Metrics() []prometheus.Collector {
	return PrometheusCollectorsFromFields(m)
}

// User user dispatch
func (m *DispatchMetrics) User() {
	m.user.Inc(1)
	m.Dispatches.WithLabelValues("user").Inc()
}

// Child child dispatch of any category
func (m *DispatchMetrics) Child() {
	m.child.Inc(1)
	m.Dispatches.WithLabelValues("child").Inc()
}

// CreatorError creator error
func (m *DispatchMetrics) CreatorError() {
	m.creatorError.Inc(1)
	m.Outcomes.WithLabelValues("creator_error").Inc()
}

// PayerError payer error
func (m *DispatchMetrics) PayerError() {
	m.payerError.Inc(1)
	m.Outcomes.WithLabelValues("payer_error").Inc()
}

// HandleError business logic failure
func (m *DispatchMetrics) HandleError() {
	m.handleError.Inc(1)
	m.Outcomes.WithLabelValues("handle_error").Inc()
}

// Skipped transaction from an older software version
func (m *DispatchMetrics) Skipped() {
	m.skipped.Inc(1)
	m.Outcomes.WithLabelValues("skipped").Inc()
}

// ChildRejected children refused by the network throttle
func (m *DispatchMetrics) ChildRejected() {
	m.childRejected.Inc(1)
	m.Outcomes.WithLabelValues("child_throttled").Inc()
}

// HandleDuration since start
func (m *DispatchMetrics) HandleDuration(start time.Time) {
	m.handleDuration.UpdateSince(start)
	m.HandleSeconds.Observe(time.Since(start).Seconds())
}

// Counts snapshot of the go-metrics counters
func (m *DispatchMetrics) Counts() map[string]int64 {
	return map[string]int64{
		"user":          m.user.Count(),
		"child":         m.child.Count(),
		"creatorError":  m.creatorError.Count(),
		"payerError":    m.payerError.Count(),
		"handleError":   m.handleError.Count(),
		"skipped":       m.skipped.Count(),
		"childRejected": m.childRejected.Count(),
	}
}

// Dispatch 全局 dispatch 统计
var Dispatch = NewDispatchMetrics(go_metrics.DefaultRegistry)

type logAdapter struct {
	logger log.Logger
}

func (l logAdapter) Printf(format string, v ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

//StartMetrics 根据配置定期把 go-metrics 输出到日志
func StartMetrics(cfg *types.Metrics) {
	if cfg == nil || !cfg.Enable {
		mlog.Info("Metrics data is not enabled to emit")
		return
	}
	mlog.Info("StartMetrics", "duration", cfg.Duration)
	go go_metrics.Log(go_metrics.DefaultRegistry, time.Duration(cfg.Duration)*time.Second, logAdapter{logger: mlog})
}

// Register registers the prometheus side of c
func Register(registerer prometheus.Registerer, c Collector) error {
	for _, col := range c.Metrics() {
		if err := registerer.Register(col); err != nil {
			return err
		}
	}
	return nil
}

// ServePrometheus exposes the default dispatch metrics on addr under /metrics
func ServePrometheus(addr string) error {
	registry := prometheus.NewRegistry()
	if err := Register(registry, Dispatch); err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mlog.Info("ServePrometheus", "addr", addr)
	return http.ListenAndServe(addr, mux)
}
