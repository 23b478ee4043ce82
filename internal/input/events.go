// Package input 把窗口系统的键盘鼠标回调转换为引擎事件
//
// 事件标识：
//   - "keyboard"：载荷为 KeyPayload
//   - "mouse"：载荷为 MousePayload（按键、移动、滚轮）
//
// 发送者为构造 Forwarder 时传入的窗口对象。
package input

import (
	"fmt"
	"strings"

	"github.com/stbowers/Starlight-sub001/pkg/types"
)

// 事件标识
const (
	EventKeyboard types.EventID = "keyboard"
	EventMouse    types.EventID = "mouse"
)

// ============================================================================
//                              Action / Mods
// ============================================================================

// Action 按键动作
type Action int

const (
	// ActionRelease 松开
	ActionRelease Action = iota
	// ActionPress 按下
	ActionPress
	// ActionRepeat 按住重复
	ActionRepeat
)

func (a Action) String() string {
	switch a {
	case ActionRelease:
		return "release"
	case ActionPress:
		return "press"
	case ActionRepeat:
		return "repeat"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Mods 修饰键位掩码
type Mods int

const (
	ModShift Mods = 1 << iota
	ModControl
	ModAlt
	ModSuper
	ModCapsLock
	ModNumLock
)

var modNames = []struct {
	mod  Mods
	name string
}{
	{ModShift, "shift"},
	{ModControl, "ctrl"},
	{ModAlt, "alt"},
	{ModSuper, "super"},
	{ModCapsLock, "caps"},
	{ModNumLock, "num"},
}

// Has 是否包含全部给定修饰键
func (m Mods) Has(mods Mods) bool {
	return m&mods == mods
}

func (m Mods) String() string {
	if m == 0 {
		return "none"
	}
	var parts []string
	for _, mn := range modNames {
		if m.Has(mn.mod) {
			parts = append(parts, mn.name)
		}
	}
	return strings.Join(parts, "+")
}

// ============================================================================
//                              载荷
// ============================================================================

// Key 键码（与窗口系统一致）
type Key int

// KeyPayload 键盘事件载荷
type KeyPayload struct {
	Key      Key
	Scancode int
	Action   Action
	Mods     Mods
}

// MouseButton 鼠标按键
type MouseButton int

const (
	MouseButtonLeft MouseButton = iota
	MouseButtonRight
	MouseButtonMiddle
)

// MouseKind 鼠标事件种类
type MouseKind int

const (
	// MouseButtonEvent 按键按下/松开
	MouseButtonEvent MouseKind = iota
	// MouseMoveEvent 光标移动
	MouseMoveEvent
	// MouseScrollEvent 滚轮
	MouseScrollEvent
)

func (k MouseKind) String() string {
	switch k {
	case MouseButtonEvent:
		return "button"
	case MouseMoveEvent:
		return "move"
	case MouseScrollEvent:
		return "scroll"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MousePayload 鼠标事件载荷
//
// X、Y 总是当前光标位置；Button/Action/Mods 仅对按键事件有意义，
// ScrollX/ScrollY 仅对滚轮事件有意义。
type MousePayload struct {
	Kind    MouseKind
	Button  MouseButton
	Action  Action
	Mods    Mods
	X, Y    float64
	ScrollX float64
	ScrollY float64
}
