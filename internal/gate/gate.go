package gate

import (
	"context"
	"net"
	"runtime"

	"github.com/rexlit/rexlit/internal/rexerr"
)

func defaultWorkers() int {
	if n := runtime.NumCPU() - 1; n > 1 {
		return n
	}
	return 1
}

// Dialer is the capability every network-using adapter must thread its
// dials through, so tests can substitute a dialer that fails loudly and
// assert zero dials happen under online=false.
type Dialer func(ctx context.Context, network, addr string) (net.Conn, error)

// Gate is the single process-wide network gate, constructed once via Init
// and passed as a capability handle to anything that might open a socket.
type Gate struct {
	online bool
	dial   Dialer
}

// Init constructs a Gate from resolved Settings (or an explicit override).
func Init(online bool) *Gate {
	return &Gate{
		online: online,
		dial:   (&net.Dialer{}).DialContext,
	}
}

// WithDialer returns a copy of g using a custom Dialer, used by tests to
// intercept and assert on dial attempts.
func (g *Gate) WithDialer(d Dialer) *Gate {
	return &Gate{online: g.online, dial: d}
}

// Require must be called before any socket is opened for purpose. It
// returns NetworkRefused unless the gate was initialized online.
func (g *Gate) Require(purpose string) error {
	if g == nil || !g.online {
		return rexerr.New(rexerr.KindNetworkRefused, "network access refused for "+purpose, map[string]any{
			"purpose":    purpose,
			"resolution": "set online=true (or REXLIT_ONLINE=true / --online) to permit this capability",
		})
	}
	return nil
}

// Dial performs a gated dial: it calls Require first, and only invokes the
// underlying Dialer if that succeeds. This is the single choke point every
// online adapter (embedding provider, privilege classifier) must route
// through.
func (g *Gate) Dial(ctx context.Context, purpose, network, addr string) (net.Conn, error) {
	if err := g.Require(purpose); err != nil {
		return nil, err
	}
	return g.dial(ctx, network, addr)
}

// Online reports whether the gate currently permits network access.
func (g *Gate) Online() bool { return g != nil && g.online }
