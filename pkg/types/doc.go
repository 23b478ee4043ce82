// Package types 定义 Starlight 的公共数据结构
//
// 这是最底层的包，不依赖任何其他内部包。
//
// # 文件组织
//
//   - events.go - EventID、Callback、EventSubscription、PhaseChange
//
// 事件标识由各生产模块以包级常量的形式约定，例如 input.EventKeyboard。
package types
