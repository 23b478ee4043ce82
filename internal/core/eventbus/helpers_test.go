package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/stbowers/Starlight-sub001/pkg/interfaces"
	"github.com/stbowers/Starlight-sub001/pkg/types"
)

const testTimeout = 5 * time.Second

// testNode 测试用场景节点
type testNode struct {
	name     string
	children []interfaces.SceneNode
	subs     []types.EventSubscription
	hidden   bool
}

func (n *testNode) Children() []interfaces.SceneNode               { return n.children }
func (n *testNode) EventSubscriptions() []types.EventSubscription { return n.subs }
func (n *testNode) Hidden() bool                                  { return n.hidden }

// plainNode 不声明订阅、不可隐藏的分组节点
type plainNode struct {
	children []interfaces.SceneNode
}

func (n *plainNode) Children() []interfaces.SceneNode               { return n.children }
func (n *plainNode) EventSubscriptions() []types.EventSubscription { return nil }
func (n *plainNode) Hidden() bool                                  { return false }

func newTestDispatcher(t *testing.T, reg *Registry, opts ...Option) *Dispatcher {
	t.Helper()
	disp, err := NewDispatcher(reg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
		defer cancel()
		_ = disp.Close(ctx)
	})
	return disp
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	t.Cleanup(cancel)
	return ctx
}

// advanceUntilDone 推进模拟时钟直到分发结束
func advanceUntilDone(t *testing.T, mock *clock.Mock, d *Dispatch, step time.Duration) {
	t.Helper()
	require.Eventually(t, func() bool {
		select {
		case <-d.Done():
			return true
		default:
			mock.Add(step)
			return false
		}
	}, testTimeout, time.Millisecond)
}

// recorder 记录回调调用顺序
type recorder struct {
	ch chan string
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan string, 1024)}
}

func (r *recorder) callback(name string) types.Callback {
	return func(context.Context, any, any) error {
		r.ch <- name
		return nil
	}
}

func (r *recorder) drain() []string {
	var out []string
	for {
		select {
		case s := <-r.ch:
			out = append(out, s)
		default:
			return out
		}
	}
}
