package lockorder

import (
	"fmt"
	"math"
)

// Level 锁级别
//
// 数值越小越靠近硬件 API，在调用链中越晚获取。
type Level int

// 引擎全局锁级别，按获取顺序从后到先排列
const (
	// LevelDirectAPI 直接图形 API 调用
	LevelDirectAPI Level = iota + 1

	// LevelAPIManager 图形 API 管理器封装
	LevelAPIManager

	// LevelIndirectManager 间接资源管理器
	LevelIndirectManager

	// LevelDrawState 绘制调用状态
	LevelDrawState

	// LevelSwapchainRecording 交换链命令录制
	LevelSwapchainRecording

	// LevelSwapchainGlobal 交换链全局状态
	LevelSwapchainGlobal

	// LevelManagedCollection 托管资源集合（场景、对象列表）
	LevelManagedCollection

	// LevelEventManager 事件管理器（最高级别）
	LevelEventManager
)

// LevelUnconstrained 栈底哨兵，表示尚未获取任何锁
const LevelUnconstrained Level = math.MaxInt

// String 返回级别名称
func (l Level) String() string {
	switch l {
	case LevelDirectAPI:
		return "direct-api"
	case LevelAPIManager:
		return "api-manager"
	case LevelIndirectManager:
		return "indirect-manager"
	case LevelDrawState:
		return "draw-state"
	case LevelSwapchainRecording:
		return "swapchain-recording"
	case LevelSwapchainGlobal:
		return "swapchain-global"
	case LevelManagedCollection:
		return "managed-collection"
	case LevelEventManager:
		return "event-manager"
	case LevelUnconstrained:
		return "unconstrained"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}
