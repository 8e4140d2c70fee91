package scan

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"syscall"
	"time"
)

// Outcome classifies the terminal result of a single probe.
type Outcome int

const (
	Open Outcome = iota
	Closed
	TimedOut
	ConnectionError
)

func (o Outcome) String() string {
	switch o {
	case Open:
		return "open"
	case Closed:
		return "closed"
	case TimedOut:
		return "timed out"
	case ConnectionError:
		return "connection error"
	default:
		return "unknown"
	}
}

// ProbeResult is the outcome for one port. Err is nil only for Open.
type ProbeResult struct {
	Port    uint16
	Outcome Outcome
	Err     error
}

// probe attempts one TCP connect to addr:port within timeout. The
// single attempt is authoritative; there are no retries. On success
// the connection is closed immediately.
func probe(ctx context.Context, addr netip.Addr, port uint16, timeout time.Duration) ProbeResult {
	d := net.Dialer{
		Timeout:   timeout,
		KeepAlive: -1, // scanning never keeps the connection
	}
	conn, err := d.DialContext(ctx, "tcp", netip.AddrPortFrom(addr, port).String())
	if err != nil {
		return ProbeResult{Port: port, Outcome: classify(err), Err: err}
	}
	conn.Close()
	return ProbeResult{Port: port, Outcome: Open}
}

// classify maps a dial error onto the outcome taxonomy. Timeouts and
// refusals are distinguished even though both end up outside the open
// list.
func classify(err error) Outcome {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return TimedOut
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return Closed
	}
	return ConnectionError
}
