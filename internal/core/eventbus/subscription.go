package eventbus

import (
	"context"
	"sync/atomic"

	"github.com/stbowers/Starlight-sub001/pkg/types"
)

// ============================================================================
// Subscription 实现
// ============================================================================

// Subscription 全局订阅句柄
type Subscription struct {
	registry *Registry
	id       uint64
	event    types.EventID
	active   atomic.Bool
}

// ID 返回订阅 ID
func (s *Subscription) ID() uint64 { return s.id }

// Event 返回订阅的事件标识
func (s *Subscription) Event() types.EventID { return s.event }

// Active 返回订阅是否仍然有效
func (s *Subscription) Active() bool { return s.active.Load() }

// Unsubscribe 取消订阅
//
// 可以多次调用。已经拍下快照的在途分发仍会调用该回调。
// 加锁失败（锁顺序错误或 ctx 取消）时返回错误，订阅保持有效，可以重试。
func (s *Subscription) Unsubscribe(ctx context.Context) error {
	if !s.active.Load() {
		return nil
	}
	found, err := s.registry.unsubscribe(ctx, s.event, s.id)
	if err != nil {
		return err
	}
	if s.active.CompareAndSwap(true, false) && found {
		log.Debug("订阅已取消", "event", s.event, "subscription", s.id)
	}
	return nil
}
