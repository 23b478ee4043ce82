package metrics

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/stbowers/Starlight-sub001/internal/util/logger"
)

var log = logger.Logger("core/metrics")

// Snapshot 引擎指标快照
//
// 周期性输出到日志，便于离线分析。
type Snapshot struct {
	// 时间信息
	Timestamp     time.Time     `json:"timestamp"`
	UptimeSeconds int64         `json:"uptimeSeconds"`
	Interval      time.Duration `json:"interval"`

	// 锁
	LockViolations uint64 `json:"lockViolations"`

	// 事件分发
	Dispatches         float64 `json:"dispatches"`
	DispatchesPerMin   float64 `json:"dispatchesPerMin"`
	CallbackFailures   float64 `json:"callbackFailures"`
	InFlight           float64 `json:"inFlight"`
	EmptyNotifications float64 `json:"emptyNotifications"`

	// 资源
	Goroutines  int     `json:"goroutines"`
	HeapAllocMB float64 `json:"heapAllocMB"`
	HeapSysMB   float64 `json:"heapSysMB"`

	// Values 所有计数器与仪表的汇总值（按指标名，跨标签求和）
	Values map[string]float64 `json:"values,omitempty"`
}

// SnapshotCollector 快照收集器
type SnapshotCollector struct {
	mu sync.Mutex

	gatherer  prometheus.Gatherer
	namespace string
	clock     clock.Clock
	startTime time.Time

	// 上次快照时的值（用于计算速率）
	lastTime       time.Time
	lastDispatches float64
}

// NewSnapshotCollector 创建快照收集器
func NewSnapshotCollector(g prometheus.Gatherer, namespace string, clk clock.Clock) *SnapshotCollector {
	if clk == nil {
		clk = clock.New()
	}
	now := clk.Now()
	return &SnapshotCollector{
		gatherer:  g,
		namespace: namespace,
		clock:     clk,
		startTime: now,
		lastTime:  now,
	}
}

// Collect 采集一次快照
func (c *SnapshotCollector) Collect() (*Snapshot, error) {
	values, err := gatherValues(c.gatherer)
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	snap := &Snapshot{
		Timestamp:          now,
		UptimeSeconds:      int64(now.Sub(c.startTime).Seconds()),
		Interval:           now.Sub(c.lastTime),
		LockViolations:     uint64(values[c.name("lockorder", "violations_total")]),
		Dispatches:         values[c.name("eventbus", "dispatches_total")],
		CallbackFailures:   values[c.name("eventbus", "callback_failures_total")],
		InFlight:           values[c.name("eventbus", "inflight")],
		EmptyNotifications: values[c.name("eventbus", "empty_notifications_total")],
		Goroutines:         runtime.NumGoroutine(),
		HeapAllocMB:        float64(mem.HeapAlloc) / (1 << 20),
		HeapSysMB:          float64(mem.HeapSys) / (1 << 20),
		Values:             values,
	}
	if minutes := snap.Interval.Minutes(); minutes > 0 {
		snap.DispatchesPerMin = (snap.Dispatches - c.lastDispatches) / minutes
	}

	c.lastTime = now
	c.lastDispatches = snap.Dispatches
	return snap, nil
}

// Run 每隔 interval 采集一次快照，直到 ctx 取消
//
// sink 为 nil 时输出到日志。
func (c *SnapshotCollector) Run(ctx context.Context, interval time.Duration, sink func(*Snapshot)) {
	if interval <= 0 {
		return
	}
	if sink == nil {
		sink = logSnapshot
	}

	ticker := c.clock.Ticker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap, err := c.Collect()
			if err != nil {
				log.Warn("采集指标快照失败", "err", err)
				continue
			}
			sink(snap)
		}
	}
}

func (c *SnapshotCollector) name(subsystem, name string) string {
	return prometheus.BuildFQName(c.namespace, subsystem, name)
}

func logSnapshot(s *Snapshot) {
	log.Info("指标快照",
		"uptime", s.UptimeSeconds,
		"lockViolations", s.LockViolations,
		"dispatches", s.Dispatches,
		"dispatchesPerMin", s.DispatchesPerMin,
		"callbackFailures", s.CallbackFailures,
		"inFlight", s.InFlight,
		"goroutines", s.Goroutines,
		"heapAllocMB", s.HeapAllocMB)
}

// gatherValues 汇总计数器、仪表和无类型指标
func gatherValues(g prometheus.Gatherer) (map[string]float64, error) {
	values := make(map[string]float64)
	if g == nil {
		return values, nil
	}

	families, err := g.Gather()
	if err != nil {
		return nil, err
	}
	for _, mf := range families {
		var sum float64
		counted := false
		for _, m := range mf.GetMetric() {
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				sum += m.GetCounter().GetValue()
			case dto.MetricType_GAUGE:
				sum += m.GetGauge().GetValue()
			case dto.MetricType_UNTYPED:
				sum += m.GetUntyped().GetValue()
			default:
				continue
			}
			counted = true
		}
		if counted {
			values[mf.GetName()] = sum
		}
	}
	return values, nil
}
