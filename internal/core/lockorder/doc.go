// Package lockorder 实现分级锁（Leveled Lock）
//
// 引擎中所有共享资源的互斥锁都带有一个固定的级别（Level）。
// 每个 goroutine 持有一个 Context，记录当前已获取锁的级别栈，
// 获取新锁时要求其级别严格小于当前深度：
//
//	depth(ac) > lock.Level()
//
// 由于所有 goroutine 按同一全序获取锁，循环等待不可能出现，
// 死锁在结构上被排除。违反顺序的调用会在调用点立即失败，
// 而不是在之后的某次运行中表现为难以复现的死锁。
//
// # 快速开始
//
//	var swapchainLock = lockorder.New(lockorder.LevelSwapchainGlobal, "swapchain")
//
//	ac := lockorder.NewContext("render")
//	if err := swapchainLock.Enter(ac); err != nil {
//	    return err
//	}
//	defer swapchainLock.Exit(ac)
//
// # 同级多锁
//
// 同一级别的多个锁必须通过 EnterMultiple 一次性获取。
// 获取顺序按锁的实例 ID 升序，与参数顺序无关，
// 因此两个 goroutine 以相反顺序请求同一组锁也不会交叉死锁。
// 整组锁只在级别栈上占一帧。
//
// # Context 传递
//
// Go 没有线程局部存储，Context 需要显式传递，
// 或者通过 context.Context 携带：
//
//	ctx, ac := lockorder.Ensure(ctx, "input")
//
// 一个 Context 只能由一个 goroutine 使用。
//
// # 架构定位
//
// Tier: Core Layer Level 0（无依赖）
//
// 依赖关系：
//   - 依赖：internal/util/logger
//   - 被依赖：eventbus, scene
package lockorder
