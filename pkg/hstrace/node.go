// Package hstrace implements an ephemeral diagnostic sink for handshake
// attempts. Events logged to a Node are buffered in memory and written to the
// logger only when the node is committed; an uncommitted node drops its
// events when it goes out of scope. Failure paths commit, success paths
// don't, so only failed handshakes leave a persistent trace.
package hstrace

import (
	"log/slog"
	"sync"
	"time"
)

const defaultEventLimit = 32

type event struct {
	when time.Time
	msg  string
}

// Node is an append-only diagnostic sink. A nil Node is valid and discards
// everything.
type Node struct {
	mu        sync.Mutex
	logger    *slog.Logger
	prefix    string
	limit     int
	dropped   int
	events    []event
	committed bool
}

// NewNode returns a Node writing to logger on commit. The prefix is
// prepended to every flushed event.
func NewNode(logger *slog.Logger, prefix string) *Node {
	return &Node{logger: logger, prefix: prefix, limit: defaultEventLimit}
}

// Log appends a diagnostic event. Events past the buffer limit are counted
// but not retained. After Commit, events are written through directly.
func (n *Node) Log(msg string) {
	if n == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.committed {
		n.write(msg, time.Now())
		return
	}
	if len(n.events) >= n.limit {
		n.dropped++
		return
	}
	n.events = append(n.events, event{when: time.Now(), msg: msg})
}

// Commit flushes all buffered events to the logger. Only the first call has
// an effect.
func (n *Node) Commit() {
	if n == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.committed {
		return
	}
	n.committed = true
	for _, e := range n.events {
		n.write(e.msg, e.when)
	}
	if n.dropped > 0 {
		n.logger.Warn("trace events dropped", "prefix", n.prefix, "count", n.dropped)
	}
	n.events = nil
}

// Committed reports whether Commit has been called.
func (n *Node) Committed() bool {
	if n == nil {
		return false
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.committed
}

func (n *Node) write(msg string, when time.Time) {
	if n.logger == nil {
		return
	}
	n.logger.Info(n.prefix+msg, "at", when)
}
