package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/stbowers/Starlight-sub001/internal/core/lockorder"
)

// NewLockViolationCollector 创建锁顺序违规计数收集器
//
// 读取 lockorder 包的全局违规计数，不需要额外埋点。
func NewLockViolationCollector(namespace string) prometheus.CounterFunc {
	return prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "lockorder",
		Name:      "violations_total",
		Help:      "Lock acquisitions rejected for violating the level order.",
	}, func() float64 {
		return float64(lockorder.Violations())
	})
}

// registerDefaults 注册默认收集器
func registerDefaults(reg prometheus.Registerer, cfg Config) error {
	cs := []prometheus.Collector{NewLockViolationCollector(cfg.Namespace)}
	if cfg.RuntimeCollectors {
		cs = append(cs,
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	var errs []error
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
