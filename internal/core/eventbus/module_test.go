package eventbus

import (
	"context"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/stbowers/Starlight-sub001/config"
	"github.com/stbowers/Starlight-sub001/pkg/interfaces"
)

func TestModule(t *testing.T) {
	var (
		reg    *Registry
		disp   *Dispatcher
		setter interfaces.ScopeSetter
	)

	app := fxtest.New(t,
		Module(),
		fx.Populate(&reg, &disp, &setter),
	)
	app.RequireStart()

	require.NotNil(t, reg)
	require.NotNil(t, disp)
	assert.Same(t, reg, disp.Registry())
	assert.Equal(t, reg, setter)
	assert.Nil(t, disp.metrics, "未提供 Registerer 时不采集指标")

	_, err := reg.Subscribe(context.Background(), "evt", noop)
	require.NoError(t, err)
	d, err := disp.Notify(context.Background(), "evt", nil, nil)
	require.NoError(t, err)
	require.NoError(t, d.Wait(waitCtx(t)))

	app.RequireStop()

	_, err = disp.Notify(context.Background(), "evt", nil, nil)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestModule_WithConfig(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Dispatch.MaxConcurrent = 1
	cfg.Metrics.Enabled = false
	mock := clock.NewMock()

	var disp *Dispatcher
	app := fxtest.New(t,
		fx.Supply(cfg),
		fx.Provide(func() prometheus.Registerer { return prometheus.NewRegistry() }),
		fx.Provide(func() clock.Clock { return mock }),
		Module(),
		fx.Populate(&disp),
	)
	app.RequireStart()
	defer app.RequireStop()

	assert.Nil(t, disp.metrics, "Metrics.Enabled=false 时不注册")
	assert.Equal(t, mock, disp.clock)
}

func TestModule_InvalidConfig(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Dispatch.FailureHistory = 0

	app := fx.New(
		fx.NopLogger,
		fx.Supply(cfg),
		Module(),
		fx.Invoke(func(*Dispatcher) {}),
	)
	assert.Error(t, app.Err())
}

func TestConfigFromUnified(t *testing.T) {
	assert.Equal(t, DefaultConfig(), ConfigFromUnified(nil))

	cfg := config.NewConfig()
	cfg.Dispatch.MaxConcurrent = 3
	cfg.Metrics.Namespace = "game"
	got := ConfigFromUnified(cfg)
	assert.Equal(t, 3, got.MaxConcurrent)
	assert.Equal(t, "game", got.Namespace)
}
