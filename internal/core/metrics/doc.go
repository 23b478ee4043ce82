// Package metrics 提供引擎的 Prometheus 指标注册表与快照
//
// 模块提供一个独立的 *prometheus.Registry（不使用全局默认注册表），
// 同时以 prometheus.Registerer 和 prometheus.Gatherer 两种接口注入，
// 事件分发器等组件通过 Registerer 注册自己的收集器。
//
// 默认注册的收集器：
//   - <namespace>_lockorder_violations_total：锁顺序违规累计次数
//   - Go 运行时与进程收集器（runtime_collectors 开启时）
//
// # 快照
//
// SnapshotCollector 从 Gatherer 汇总当前指标，生成便于日志分析的快照，
// 并根据两次快照的差值计算分发速率。配置 snapshot_interval 后，
// 模块在启动时开启周期性快照日志。
//
//	snap, _ := collector.Collect()
//	fmt.Printf("violations=%d dispatches/min=%.1f\n", snap.LockViolations, snap.DispatchesPerMin)
//
// # Fx 模块
//
//	app := fx.New(
//	    metrics.Module,
//	    fx.Invoke(func(g prometheus.Gatherer) {
//	        // 暴露给外部采集
//	    }),
//	)
package metrics
