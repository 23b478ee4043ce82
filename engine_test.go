package starlight

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"

	"github.com/stbowers/Starlight-sub001/internal/core/eventbus"
	"github.com/stbowers/Starlight-sub001/internal/core/lifecycle"
	"github.com/stbowers/Starlight-sub001/internal/core/lockorder"
	"github.com/stbowers/Starlight-sub001/internal/input"
	"github.com/stbowers/Starlight-sub001/internal/scene"
	"github.com/stbowers/Starlight-sub001/pkg/types"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	eng, err := New(opts...)
	require.NoError(t, err)
	return eng
}

func startTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	eng := newTestEngine(t, opts...)
	require.NoError(t, eng.Start(context.Background()))
	t.Cleanup(func() { _ = eng.Stop(context.Background()) })
	return eng
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// ════════════════════════════════════════════════════════════════════════════
//                              生命周期
// ════════════════════════════════════════════════════════════════════════════

func TestEngine_Lifecycle(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	assert.Equal(t, lifecycle.PhaseCreated, eng.Phase())
	assert.ErrorIs(t, eng.Stop(ctx), ErrNotStarted)
	assert.False(t, eng.IsRunning())

	require.NoError(t, eng.Start(ctx))
	assert.True(t, eng.IsRunning())
	assert.Equal(t, lifecycle.PhaseRunning, eng.Phase())
	assert.ErrorIs(t, eng.Start(ctx), ErrAlreadyStarted)

	require.NoError(t, eng.Stop(ctx))
	assert.Equal(t, lifecycle.PhaseStopped, eng.Phase())
	assert.False(t, eng.IsRunning())

	// 停止是终态
	assert.ErrorIs(t, eng.Start(ctx), ErrEngineClosed)
	assert.ErrorIs(t, eng.Stop(ctx), ErrEngineClosed)
}

func TestEngine_PhaseEvents(t *testing.T) {
	eng := newTestEngine(t)
	ctx := waitCtx(t)

	phases := make(chan string, 8)
	_, err := eng.Subscribe(ctx, types.EventEnginePhase, func(_ context.Context, sender, payload any) error {
		assert.Same(t, eng, sender)
		phases <- payload.(types.PhaseChange).To
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, eng.Start(ctx))
	t.Cleanup(func() { _ = eng.Stop(context.Background()) })

	var got []string
	for len(got) < 2 {
		select {
		case p := <-phases:
			got = append(got, p)
		case <-ctx.Done():
			t.Fatalf("phase events not delivered, got %v", got)
		}
	}
	// 不同分发之间的顺序不保证
	assert.ElementsMatch(t, []string{"starting", "running"}, got)
}

func TestEngine_WaitFor(t *testing.T) {
	eng := startTestEngine(t)
	require.NoError(t, eng.WaitFor(waitCtx(t), lifecycle.PhaseRunning))
}

// ════════════════════════════════════════════════════════════════════════════
//                              事件
// ════════════════════════════════════════════════════════════════════════════

func TestEngine_SubscribeNotify(t *testing.T) {
	eng := startTestEngine(t)
	ctx := waitCtx(t)

	type hit struct {
		sender  any
		payload any
	}
	hits := make(chan hit, 1)
	sub, err := eng.Subscribe(ctx, "player.jump", func(_ context.Context, sender, payload any) error {
		hits <- hit{sender, payload}
		return nil
	})
	require.NoError(t, err)

	d, err := eng.Notify(ctx, "player.jump", "player-1", 3)
	require.NoError(t, err)
	require.NotNil(t, d)
	require.NoError(t, d.Wait(ctx))
	assert.Equal(t, hit{"player-1", 3}, <-hits)

	require.NoError(t, sub.Unsubscribe(ctx))
	d, err = eng.Notify(ctx, "player.jump", "player-1", 4)
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestEngine_NotifyAfterStop(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.Subscribe(ctx, "tick", func(context.Context, any, any) error { return nil })
	require.NoError(t, err)

	require.NoError(t, eng.Start(ctx))
	require.NoError(t, eng.Stop(ctx))

	_, err = eng.Notify(ctx, "tick", nil, nil)
	assert.ErrorIs(t, err, ErrDispatcherClosed)
}

func TestEngine_StopRunsAcceptedDelayed(t *testing.T) {
	mock := clock.NewMock()
	eng := newTestEngine(t, WithClock(mock))
	ctx := context.Background()

	called := make(chan struct{}, 1)
	_, err := eng.Subscribe(ctx, "later", func(context.Context, any, any) error {
		called <- struct{}{}
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, eng.Start(ctx))

	d, err := eng.NotifyAfter(ctx, time.Minute, "later", nil, nil)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, eventbus.StatePending, d.State())

	stopped := make(chan error, 1)
	go func() { stopped <- eng.Stop(ctx) }()

	// 延迟未到期前 Stop 一直等待
	assert.Never(t, func() bool { return len(stopped) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
	assert.Equal(t, eventbus.StatePending, d.State())

	require.Eventually(t, func() bool {
		select {
		case <-d.Done():
			return true
		default:
			mock.Add(time.Minute)
			return false
		}
	}, 5*time.Second, time.Millisecond)

	require.NoError(t, <-stopped)
	assert.Equal(t, eventbus.StateCompleted, d.State())
	assert.NoError(t, d.Err())
	assert.Len(t, called, 1)
	assert.Equal(t, lifecycle.PhaseStopped, eng.Phase())
}

func TestEngine_CallbackFailure(t *testing.T) {
	eng := startTestEngine(t)
	ctx := waitCtx(t)

	_, err := eng.Subscribe(ctx, "boom", func(context.Context, any, any) error {
		panic("bad callback")
	})
	require.NoError(t, err)

	d, err := eng.Notify(ctx, "boom", nil, nil)
	require.NoError(t, err)
	err = d.Wait(ctx)
	assert.ErrorIs(t, err, ErrCallbackPanic)
	assert.Len(t, eng.Dispatcher().RecentFailures(), 1)
}

// ════════════════════════════════════════════════════════════════════════════
//                              场景与输入
// ════════════════════════════════════════════════════════════════════════════

func TestEngine_InputReachesActiveScene(t *testing.T) {
	eng := startTestEngine(t, WithWindow("main-window"))
	ctx := waitCtx(t)

	type keyHit struct {
		sender any
		key    input.KeyPayload
	}
	keys := make(chan keyHit, 4)
	player := scene.NewNode("player", types.Subscribe(input.EventKeyboard,
		func(_ context.Context, sender, payload any) error {
			keys <- keyHit{sender, payload.(input.KeyPayload)}
			return nil
		}))

	level := scene.New("level")
	require.NoError(t, level.Add(ctx, nil, player))

	// 场景未激活时没有目标
	require.NoError(t, eng.Input().OnKey(ctx, 32, 57, input.ActionPress, 0))
	assert.Equal(t, 0, eng.Registry().Count(input.EventKeyboard))

	require.NoError(t, eng.Scenes().Push(ctx, level))
	assert.Equal(t, 1, eng.Registry().Count(input.EventKeyboard))

	require.NoError(t, eng.Input().OnKey(ctx, 32, 57, input.ActionPress, input.ModShift))
	select {
	case hit := <-keys:
		assert.Equal(t, "main-window", hit.sender)
		assert.Equal(t, input.KeyPayload{Key: 32, Scancode: 57, Action: input.ActionPress, Mods: input.ModShift}, hit.key)
	case <-ctx.Done():
		t.Fatal("keyboard event not delivered")
	}

	popped, err := eng.Scenes().Pop(ctx)
	require.NoError(t, err)
	assert.Same(t, level, popped)
	assert.Equal(t, 0, eng.Registry().Count(input.EventKeyboard))
}

// ════════════════════════════════════════════════════════════════════════════
//                              指标
// ════════════════════════════════════════════════════════════════════════════

func TestEngine_Metrics(t *testing.T) {
	eng := startTestEngine(t)
	ctx := waitCtx(t)

	_, err := eng.Subscribe(ctx, "tick", func(context.Context, any, any) error { return nil })
	require.NoError(t, err)
	d, err := eng.Notify(ctx, "tick", nil, nil)
	require.NoError(t, err)
	require.NoError(t, d.Wait(ctx))

	// 进程收集器在部分环境下可能报错，只检查返回的指标族
	families, _ := eng.Gatherer().Gather()
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["starlight_eventbus_dispatches_total"])
	assert.True(t, names["starlight_lockorder_violations_total"])

	snap, err := eng.Snapshot()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, snap.Dispatches, float64(1))
}

func TestEngine_MetricsDisabled(t *testing.T) {
	eng := startTestEngine(t, WithMetrics(false))
	ctx := waitCtx(t)

	_, err := eng.Subscribe(ctx, "tick", func(context.Context, any, any) error { return nil })
	require.NoError(t, err)
	d, err := eng.Notify(ctx, "tick", nil, nil)
	require.NoError(t, err)
	require.NoError(t, d.Wait(ctx))

	families, err := eng.Gatherer().Gather()
	require.NoError(t, err)
	assert.Empty(t, families)
}

// ════════════════════════════════════════════════════════════════════════════
//                              选项
// ════════════════════════════════════════════════════════════════════════════

func TestNew_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"nil config", WithConfig(nil)},
		{"nil clock", WithClock(nil)},
		{"missing file", WithConfigFile(filepath.Join(t.TempDir(), "missing.json"))},
		{"zero concurrency", WithMaxConcurrent(0)},
		{"zero history", WithFailureHistory(0)},
		{"negative drain", WithDrainTimeout(-time.Second)},
		{"bad namespace", WithMetricsNamespace("1bad")},
		{"bad log level", WithLogLevel("loud")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng, err := New(tt.opt)
			assert.Error(t, err)
			assert.Nil(t, eng)
		})
	}
}

func TestNew_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "starlight.json")
	data := `{"dispatch": {"max_concurrent": 3, "drain_timeout": "2s"}, "metrics": {"namespace": "game"}}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	eng := newTestEngine(t, WithConfigFile(path), WithFailureHistory(10))
	cfg := eng.Config()
	assert.Equal(t, 3, cfg.Dispatch.MaxConcurrent)
	assert.Equal(t, 2*time.Second, cfg.Dispatch.DrainTimeout.Std())
	assert.Equal(t, 10, cfg.Dispatch.FailureHistory)
	assert.Equal(t, "game", cfg.Metrics.Namespace)

	// 返回的是副本
	cfg.Dispatch.MaxConcurrent = 99
	assert.Equal(t, 3, eng.Config().Dispatch.MaxConcurrent)
}

func TestNew_PanicOnViolation(t *testing.T) {
	t.Cleanup(func() { lockorder.SetStrict(false) })

	newTestEngine(t, WithPanicOnViolation(true))
	assert.True(t, lockorder.Strict())

	newTestEngine(t)
	assert.False(t, lockorder.Strict())
}

func TestNew_FxOptions(t *testing.T) {
	var registry *eventbus.Registry
	eng := newTestEngine(t, WithFxOptions(fx.Invoke(func(r *eventbus.Registry) {
		registry = r
	})))
	assert.Same(t, eng.Registry(), registry)
}
