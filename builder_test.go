package wasmer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmerio/wasmer-core/api"
)

type addOneFunc struct{}

func (addOneFunc) Call(_ context.Context, stack []uint64) {
	stack[0] = stack[0] + 1
}

func TestHostModuleBuilder_ExportedFunctionCall(t *testing.T) {
	ctx := context.Background()
	r := NewRuntime(ctx)
	defer r.Close(ctx)

	mod, err := r.NewHostModuleBuilder("env").
		NewFunctionBuilder().
		WithGoFunction(addOneFunc{}, []api.ValueType{api.ValueTypeI64}, []api.ValueType{api.ValueTypeI64}).
		Export("add_one").
		Instantiate(ctx)
	require.NoError(t, err)
	require.Equal(t, "env", mod.Name())

	fn := mod.ExportedFunction("add_one")
	require.NotNil(t, fn)

	results, err := fn.Call(ctx, 41)
	require.NoError(t, err)
	require.Equal(t, []uint64{42}, results)
}

func TestHostModuleBuilder_MultipleExports(t *testing.T) {
	ctx := context.Background()
	r := NewRuntime(ctx)
	defer r.Close(ctx)

	builder := r.NewHostModuleBuilder("multi")
	builder = builder.NewFunctionBuilder().
		WithGoFunction(addOneFunc{}, []api.ValueType{api.ValueTypeI64}, []api.ValueType{api.ValueTypeI64}).
		WithName("add_one").
		Export("add_one")
	builder = builder.NewFunctionBuilder().
		WithGoFunction(addOneFunc{}, []api.ValueType{api.ValueTypeI64}, []api.ValueType{api.ValueTypeI64}).
		Export("also_add_one")

	mod, err := builder.Instantiate(ctx)
	require.NoError(t, err)

	require.NotNil(t, mod.ExportedFunction("add_one"))
	require.NotNil(t, mod.ExportedFunction("also_add_one"))
	require.Nil(t, mod.ExportedFunction("missing"))
}

func TestHostModuleBuilder_ClosedModuleRejectsCalls(t *testing.T) {
	ctx := context.Background()
	r := NewRuntime(ctx)
	defer r.Close(ctx)

	mod, err := r.NewHostModuleBuilder("env").
		NewFunctionBuilder().
		WithGoFunction(addOneFunc{}, []api.ValueType{api.ValueTypeI64}, []api.ValueType{api.ValueTypeI64}).
		Export("add_one").
		Instantiate(ctx)
	require.NoError(t, err)

	require.NoError(t, mod.Close(ctx))

	_, err = mod.ExportedFunction("add_one").Call(ctx, 1)
	require.Error(t, err)
}

func TestNewRuntimeWithConfig_MemoryLimit(t *testing.T) {
	ctx := context.Background()
	cfg := NewRuntimeConfig().WithMemoryLimitPages(10).WithCoreFeatures(api.CoreFeaturesV1)
	r := NewRuntimeWithConfig(ctx, cfg)
	defer r.Close(ctx)

	require.Equal(t, api.CoreFeaturesV1, r.config.enabledFeatures)
	require.Equal(t, uint32(10), r.config.memoryLimitPages)
}

func TestRuntimeConfig_WithCloseOnContextDone(t *testing.T) {
	cfg := NewRuntimeConfig()
	require.False(t, cfg.CloseOnContextDone())
	cfg = cfg.WithCloseOnContextDone(true)
	require.True(t, cfg.CloseOnContextDone())
}
