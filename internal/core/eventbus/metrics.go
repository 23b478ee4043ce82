package eventbus

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsSubsystem = "eventbus"

// 分发结果标签
const (
	resultCompleted = "completed"
	resultFailed    = "failed"
	resultCancelled = "cancelled"
)

// dispatchMetrics 分发器指标
//
// 所有方法对 nil 接收者安全，未配置 Registerer 时不采集。
type dispatchMetrics struct {
	dispatches       *prometheus.CounterVec
	callbacks        prometheus.Counter
	callbackFailures prometheus.Counter
	empty            prometheus.Counter
	inflight         prometheus.Gauge
}

func newDispatchMetrics(reg prometheus.Registerer, namespace string) (*dispatchMetrics, error) {
	if reg == nil {
		return nil, nil
	}

	m := &dispatchMetrics{
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: metricsSubsystem,
			Name:      "dispatches_total",
			Help:      "Finished dispatches by result.",
		}, []string{"result"}),
		callbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: metricsSubsystem,
			Name:      "callbacks_total",
			Help:      "Callbacks invoked.",
		}),
		callbackFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: metricsSubsystem,
			Name:      "callback_failures_total",
			Help:      "Callbacks that returned an error or panicked.",
		}),
		empty: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: metricsSubsystem,
			Name:      "empty_notifications_total",
			Help:      "Notifications with no subscribers.",
		}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: metricsSubsystem,
			Name:      "inflight",
			Help:      "Dispatches scheduled but not finished.",
		}),
	}

	var err error
	if m.dispatches, err = register(reg, m.dispatches); err != nil {
		return nil, err
	}
	if m.callbacks, err = register(reg, m.callbacks); err != nil {
		return nil, err
	}
	if m.callbackFailures, err = register(reg, m.callbackFailures); err != nil {
		return nil, err
	}
	if m.empty, err = register(reg, m.empty); err != nil {
		return nil, err
	}
	if m.inflight, err = register(reg, m.inflight); err != nil {
		return nil, err
	}
	return m, nil
}

// register 注册收集器，已存在时复用已注册的实例
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *dispatchMetrics) scheduled() {
	if m == nil {
		return
	}
	m.inflight.Inc()
}

func (m *dispatchMetrics) finished(result string) {
	if m == nil {
		return
	}
	m.inflight.Dec()
	m.dispatches.WithLabelValues(result).Inc()
}

func (m *dispatchMetrics) callback(failed bool) {
	if m == nil {
		return
	}
	m.callbacks.Inc()
	if failed {
		m.callbackFailures.Inc()
	}
}

func (m *dispatchMetrics) emptyNotify() {
	if m == nil {
		return
	}
	m.empty.Inc()
}
