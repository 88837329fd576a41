package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/greeter/pkg/config"
	"github.com/code-payments/greeter/pkg/config/wrapper"
)

func TestConfig_Lifecycle(t *testing.T) {
	ctx := context.Background()

	c := NewConfig(uint64(3))
	val, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), val)

	c.ClearValue()
	_, err = c.Get(ctx)
	assert.Equal(t, config.ErrNoValue, err)

	c.SetValue("updated")
	val, err = c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "updated", val)

	// induced errors mask the value until stopped
	c.InduceErrors()
	_, err = c.Get(ctx)
	assert.Equal(t, errDeveloperInduced, err)

	c.StopInducingErrors()
	val, err = c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "updated", val)

	// shutdown takes precedence over everything else
	c.InduceErrors()
	c.Shutdown()
	_, err = c.Get(ctx)
	assert.Equal(t, config.ErrShutdown, err)
}

func TestConfig_BehindWrapper(t *testing.T) {
	ctx := context.Background()

	c := NewConfig(nil)
	budget := wrapper.NewUint64Config(c, 100)
	assert.EqualValues(t, 100, budget.Get(ctx))

	c.SetValue(uint64(7))
	assert.EqualValues(t, 7, budget.Get(ctx))

	c.SetValue([]byte("42"))
	assert.EqualValues(t, 42, budget.Get(ctx))

	_, err := wrapper.NewBoolConfig(NewConfig(3.5), false).GetSafe(ctx)
	assert.Equal(t, wrapper.ErrUnsuportedConversion, err)
}

func TestConfig_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c := NewConfig(uint64(0))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(v uint64) {
			defer wg.Done()
			c.SetValue(v)
		}(uint64(i))
		go func() {
			defer wg.Done()
			_, _ = c.Get(ctx)
		}()
	}
	wg.Wait()

	val, err := c.Get(ctx)
	require.NoError(t, err)
	assert.IsType(t, uint64(0), val)
}
