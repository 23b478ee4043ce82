// Package eventbus 实现 Starlight 的订阅注册表与异步事件分发器
//
// 订阅分两个作用域：
//   - 全局作用域：通过 Registry.Subscribe 显式注册，按注册顺序调用
//   - 场景作用域：当前激活场景树中可见节点声明的订阅，按深度优先先序遍历收集
//
// 每次 Notify 在调用时刻拍下目标快照（全局在前、场景在后），
// 随后在独立的 goroutine 中按快照顺序逐个调用回调，Notify 本身立即返回。
// 快照之后的订阅变化、场景重建都不影响已经发出的分发。
//
// # 快速开始
//
//	reg := eventbus.NewRegistry()
//	disp, _ := eventbus.NewDispatcher(reg)
//	defer disp.Close(ctx)
//
//	sub, _ := reg.Subscribe(ctx, "keyboard", func(ctx context.Context, sender, payload any) error {
//	    // 处理事件
//	    return nil
//	})
//	defer sub.Unsubscribe(ctx)
//
//	d, _ := disp.Notify(ctx, "keyboard", window, key)
//	_ = d // 需要时 d.Wait(ctx)，默认即发即弃
//
// # 锁级别
//
// 注册表写操作持有 lockorder.LevelEventManager 级别的锁，这是引擎最高级别，
// 因此已持有任何引擎锁的调用方不能再订阅（会得到锁顺序错误）。
// 查找与场景作用域切换不持锁，只读取不可变快照。
//
// 回调在专属 goroutine 上执行，ctx 中携带全新的 lockorder.Context，
// 回调内部可以按正常顺序获取引擎锁，也可以再次 Notify。
//
// # Fx 模块
//
//	app := fx.New(
//	    eventbus.Module(),
//	    fx.Invoke(func(reg *eventbus.Registry, disp *eventbus.Dispatcher) {
//	        // ...
//	    }),
//	)
package eventbus
