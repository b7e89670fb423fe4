// Package lifecycle owns the process-global handshaker registry and the
// ordered shutdown hooks of the process. Init is idempotent and is called
// implicitly by every accessor, so binaries do not need an explicit call
// unless they want to control the moment of initialization.
package lifecycle

import (
	"sync"

	"github.com/halyard-rpc/halyard/pkg/handshake"
)

var global struct {
	initOnce     sync.Once
	shutdownOnce sync.Once
	registry     *handshake.Registry

	mu    sync.Mutex
	hooks []func()
}

// Init initializes the global state. Safe to call multiple times.
func Init() {
	global.initOnce.Do(func() {
		global.registry = handshake.NewRegistry()
	})
}

// Registry returns the process-global handshaker registry.
func Registry() *handshake.Registry {
	Init()
	return global.registry
}

// RegisterHandshaker appends f to the global registry pool of t.
func RegisterHandshaker(t handshake.Type, f handshake.Factory) {
	Registry().Register(t, f)
}

// OnShutdown registers a hook run by Shutdown. Hooks run in reverse
// registration order.
func OnShutdown(hook func()) {
	Init()
	global.mu.Lock()
	defer global.mu.Unlock()
	global.hooks = append(global.hooks, hook)
}

// Shutdown runs the registered hooks in reverse registration order. Only
// the first call has an effect.
func Shutdown() {
	global.shutdownOnce.Do(func() {
		global.mu.Lock()
		hooks := global.hooks
		global.hooks = nil
		global.mu.Unlock()
		for i := len(hooks) - 1; i >= 0; i-- {
			hooks[i]()
		}
	})
}
