package input

import (
	"context"
	"sync"

	"github.com/stbowers/Starlight-sub001/internal/core/eventbus"
	"github.com/stbowers/Starlight-sub001/internal/util/logger"
	"github.com/stbowers/Starlight-sub001/pkg/types"
)

var log = logger.Logger("input")

// Notifier 事件发布方
type Notifier interface {
	Notify(ctx context.Context, id types.EventID, sender, payload any) (*eventbus.Dispatch, error)
}

// Forwarder 窗口输入转发器
//
// 窗口系统回调线程调用 OnXxx，转发器构造载荷后异步分发，立即返回。
// 记录最近一次光标位置，使按键与滚轮事件也携带坐标。
type Forwarder struct {
	notifier Notifier
	sender   any

	mu   sync.Mutex
	x, y float64
}

// NewForwarder 创建转发器，sender 作为事件发送者（通常是窗口）
func NewForwarder(n Notifier, sender any) *Forwarder {
	return &Forwarder{notifier: n, sender: sender}
}

// OnKey 键盘回调
func (f *Forwarder) OnKey(ctx context.Context, key Key, scancode int, action Action, mods Mods) error {
	return f.notify(ctx, EventKeyboard, KeyPayload{
		Key:      key,
		Scancode: scancode,
		Action:   action,
		Mods:     mods,
	})
}

// OnMouseButton 鼠标按键回调
func (f *Forwarder) OnMouseButton(ctx context.Context, button MouseButton, action Action, mods Mods) error {
	x, y := f.Cursor()
	return f.notify(ctx, EventMouse, MousePayload{
		Kind:   MouseButtonEvent,
		Button: button,
		Action: action,
		Mods:   mods,
		X:      x,
		Y:      y,
	})
}

// OnCursorPos 光标移动回调
func (f *Forwarder) OnCursorPos(ctx context.Context, x, y float64) error {
	f.mu.Lock()
	f.x, f.y = x, y
	f.mu.Unlock()

	return f.notify(ctx, EventMouse, MousePayload{
		Kind: MouseMoveEvent,
		X:    x,
		Y:    y,
	})
}

// OnScroll 滚轮回调
func (f *Forwarder) OnScroll(ctx context.Context, dx, dy float64) error {
	x, y := f.Cursor()
	return f.notify(ctx, EventMouse, MousePayload{
		Kind:    MouseScrollEvent,
		X:       x,
		Y:       y,
		ScrollX: dx,
		ScrollY: dy,
	})
}

// Cursor 返回最近一次光标位置
func (f *Forwarder) Cursor() (x, y float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.x, f.y
}

func (f *Forwarder) notify(ctx context.Context, id types.EventID, payload any) error {
	if _, err := f.notifier.Notify(ctx, id, f.sender, payload); err != nil {
		log.Warn("输入事件分发失败", "event", id, "err", err)
		return err
	}
	return nil
}
