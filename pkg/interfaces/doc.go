// Package interfaces 定义 Starlight 的公共接口
//
// 事件核心与场景树之间只通过这里的接口交互，
// 避免 eventbus 依赖 scene 的具体类型：
//   - eventbus.go - SceneNode（组合 HasEventSubscriptions 与 Hideable）、ScopeSetter
package interfaces
