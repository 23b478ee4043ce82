// Package starlight 提供引擎核心的对外入口
//
// Engine 把以下组件装配在一个 Fx 应用中：
//
//   - lockorder：带层级的锁与获取上下文，运行时检查加锁顺序
//   - eventbus：全局/场景两级订阅注册表，以及异步事件分发器
//   - scene：场景树与场景栈，活动场景变化时重建场景作用域
//   - input：把窗口的键盘、鼠标回调转换成事件通知
//   - metrics：Prometheus 指标与周期性快照
//   - lifecycle：引擎阶段（created → starting → running → stopping → stopped）
//
// 基本用法：
//
//	eng, err := starlight.New(starlight.WithMaxConcurrent(4))
//	if err != nil {
//	    return err
//	}
//	if err := eng.Start(ctx); err != nil {
//	    return err
//	}
//	defer eng.Stop(context.Background())
//
//	sub, _ := eng.Subscribe(ctx, "player.jump", func(ctx context.Context, sender, payload any) error {
//	    return nil
//	})
//	defer sub.Unsubscribe(ctx)
//
//	d, _ := eng.Notify(ctx, "player.jump", player, nil)
//	if d != nil {
//	    _ = d.Wait(ctx)
//	}
//
// 阶段变化会以 engine.phase 事件发布，载荷为 types.PhaseChange。
package starlight
