// Package scene 提供场景树与场景栈
//
// 场景树由 Node 组成，节点可以声明事件订阅，也可以被隐藏。
// Manager 维护场景栈，栈顶场景是激活场景：它的可见节点声明的订阅
// 构成事件注册表的场景作用域。
//
// 场景树的任何结构变化（增删节点、隐藏、增加订阅）以及场景栈的
// 入栈出栈都会整体重建场景作用域，从不做增量修补。
//
// # 锁级别
//
// Scene 与 Manager 的锁都处于 lockorder.LevelManagedCollection。
// 入栈出栈需要同时持有 Manager 与相关 Scene 的锁，使用多锁组一次获取。
//
//	mgr := scene.NewManager(registry)
//	menu := scene.New("menu")
//	button := scene.NewNode("start", types.Subscribe(input.EventMouse, onClick))
//	_ = menu.Add(ctx, nil, button)
//	_ = mgr.Push(ctx, menu)
package scene
