package lifecycle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halyard-rpc/halyard/pkg/chanargs"
	"github.com/halyard-rpc/halyard/pkg/handshake"
	"github.com/halyard-rpc/halyard/pkg/handshake/mocks"
	"github.com/halyard-rpc/halyard/pkg/lifecycle"
)

func TestRegistryIsSingleton(t *testing.T) {
	lifecycle.Init()
	require.NotNil(t, lifecycle.Registry())
	assert.Same(t, lifecycle.Registry(), lifecycle.Registry())
}

func TestRegisterHandshaker(t *testing.T) {
	hs := mocks.NewMockHandshaker(t)
	hs.EXPECT().Name().Return("registered")

	lifecycle.RegisterHandshaker(handshake.TypeClient, func(_ *chanargs.Args, m *handshake.Manager) {
		m.Add(hs)
	})

	m := handshake.NewManager(nil)
	lifecycle.Registry().AddHandshakers(handshake.TypeClient, chanargs.New(), m)
	// Server pools stay untouched.
	lifecycle.Registry().AddHandshakers(handshake.TypeServer, chanargs.New(), handshake.NewManager(nil))
}

func TestShutdownRunsHooksInReverseOrder(t *testing.T) {
	var order []int
	lifecycle.OnShutdown(func() { order = append(order, 1) })
	lifecycle.OnShutdown(func() { order = append(order, 2) })
	lifecycle.OnShutdown(func() { order = append(order, 3) })

	lifecycle.Shutdown()
	assert.Equal(t, []int{3, 2, 1}, order)

	// Only the first call has an effect.
	lifecycle.Shutdown()
	assert.Equal(t, []int{3, 2, 1}, order)
}
