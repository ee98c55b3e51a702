package h1

import (
	"net"

	"github.com/valyala/tcplisten"
)

// ListenConfig controls the listener construction helper in Listen. It
// is deliberately narrow: accepting connections and spawning tasks to
// drive them through the engine is the host's job (spec.md §1 names the
// acceptor loop and task spawner as external collaborators); this is
// only the socket-setup sliver adjacent to that boundary.
type ListenConfig struct {
	// ReusePort enables SO_REUSEPORT (via tcplisten), letting multiple
	// processes/goroutines bind the same address for load spreading.
	ReusePort bool
	// DeferAccept enables TCP_DEFER_ACCEPT-style behavior where
	// supported by tcplisten.
	DeferAccept bool
	// Backlog is the accept backlog; 0 uses tcplisten's default.
	Backlog int
}

// Listen builds a net.Listener for addr. With cfg.ReusePort set it goes
// through github.com/valyala/tcplisten for SO_REUSEPORT; otherwise it
// is a thin wrapper over net.Listen.
func Listen(network, addr string, cfg ListenConfig) (net.Listener, error) {
	if !cfg.ReusePort {
		return net.Listen(network, addr)
	}
	lc := tcplisten.Config{
		ReusePort:   true,
		DeferAccept: cfg.DeferAccept,
		Backlog:     cfg.Backlog,
	}
	return lc.NewListener(network, addr)
}
