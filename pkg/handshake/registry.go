package handshake

import (
	"sync"

	"github.com/halyard-rpc/halyard/pkg/chanargs"
)

// Type selects the registration pool handshakers are added from.
type Type int

const (
	// TypeClient selects handshakers for outgoing connections.
	TypeClient Type = iota
	// TypeServer selects handshakers for accepted connections.
	TypeServer

	numTypes
)

func (t Type) String() string {
	switch t {
	case TypeClient:
		return "client"
	case TypeServer:
		return "server"
	default:
		return "unknown"
	}
}

// Factory adds zero or more handshakers to a manager, based on the channel
// configuration of the connection being established.
type Factory func(args *chanargs.Args, m *Manager)

// Registry keeps ordered pools of handshaker factories per connection side.
// Registration order determines chain order.
type Registry struct {
	mu        sync.Mutex
	factories [numTypes][]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends f to the pool of t.
func (r *Registry) Register(t Type, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[t] = append(r.factories[t], f)
}

// AddHandshakers invokes every factory of t in registration order, letting
// each add its handshakers to m.
func (r *Registry) AddHandshakers(t Type, args *chanargs.Args, m *Manager) {
	r.mu.Lock()
	fs := make([]Factory, len(r.factories[t]))
	copy(fs, r.factories[t])
	r.mu.Unlock()
	for _, f := range fs {
		f(args, m)
	}
}
