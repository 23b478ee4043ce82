package starlight

import (
	"errors"

	"github.com/stbowers/Starlight-sub001/internal/core/eventbus"
	"github.com/stbowers/Starlight-sub001/internal/core/lockorder"
	"github.com/stbowers/Starlight-sub001/internal/scene"
)

// 公共错误定义
var (
	// ────────────────────────────────────────────────────────────────────────
	// 引擎生命周期错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrNotStarted 引擎未启动
	ErrNotStarted = errors.New("engine not started")

	// ErrAlreadyStarted 引擎已启动
	ErrAlreadyStarted = errors.New("engine already started")

	// ErrEngineClosed 引擎已关闭，不能再次启动
	ErrEngineClosed = errors.New("engine closed")

	// ────────────────────────────────────────────────────────────────────────
	// 锁顺序错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrLockOrderViolation 违反加锁层级顺序
	ErrLockOrderViolation = lockorder.ErrLockOrderViolation

	// ErrMixedLevel 同一组锁的层级不一致
	ErrMixedLevel = lockorder.ErrMixedLevel

	// ────────────────────────────────────────────────────────────────────────
	// 事件分发错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrDispatcherClosed 分发器已关闭
	ErrDispatcherClosed = eventbus.ErrClosed

	// ErrCallbackFailed 回调返回错误
	ErrCallbackFailed = eventbus.ErrCallbackFailed

	// ErrCallbackPanic 回调发生 panic
	ErrCallbackPanic = eventbus.ErrCallbackPanic

	// ErrDispatchCancelled 分发在开始前被取消
	ErrDispatchCancelled = eventbus.ErrCancelled

	// ────────────────────────────────────────────────────────────────────────
	// 场景错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrSceneOnStack 场景已在栈中
	ErrSceneOnStack = scene.ErrSceneOnStack

	// ErrEmptySceneStack 场景栈为空
	ErrEmptySceneStack = scene.ErrEmptyStack
)
