package scan

import (
	"fmt"
	"net/netip"
	"time"
)

const (
	// MinPort and MaxPort bound valid TCP port numbers.
	MinPort = 1
	MaxPort = 65535

	// DefaultConcurrency is the number of simultaneous probes when
	// the caller does not choose one; MaxConcurrency caps the choice.
	DefaultConcurrency = 50
	MaxConcurrency     = 100

	// DefaultTimeout applies to each individual connect attempt.
	DefaultTimeout = 3 * time.Second

	// DefaultChannelBuffer sizes the open-port results channel.
	DefaultChannelBuffer = 250
)

// Target is the host and inclusive port range for one scan. It is
// immutable for the duration of the scan.
type Target struct {
	Addr      netip.Addr
	StartPort uint16
	EndPort   uint16
}

// NewTarget parses ip as a literal IPv4 or IPv6 address and validates
// the port range.
func NewTarget(ip string, start, end uint16) (Target, error) {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return Target{}, fmt.Errorf("invalid target address %q: %w", ip, err)
	}
	if start < MinPort {
		return Target{}, fmt.Errorf("start port must be at least %d", MinPort)
	}
	if start > end {
		return Target{}, fmt.Errorf("start port %d greater than end port %d", start, end)
	}
	return Target{Addr: addr, StartPort: start, EndPort: end}, nil
}

// PortCount returns the number of ports in the range.
func (t Target) PortCount() int {
	return int(t.EndPort) - int(t.StartPort) + 1
}

// Config carries everything a Scanner needs. Timeout and
// ChannelBuffer are fields rather than package constants so tests can
// vary them; the CLI leaves them at their defaults.
type Config struct {
	Target        Target
	Concurrency   int
	Timeout       time.Duration
	ChannelBuffer int
}

// NewConfig returns a Config for target with default concurrency,
// timeout, and channel buffer.
func NewConfig(target Target) Config {
	return Config{
		Target:        target,
		Concurrency:   DefaultConcurrency,
		Timeout:       DefaultTimeout,
		ChannelBuffer: DefaultChannelBuffer,
	}
}

func (c Config) validate() error {
	if !c.Target.Addr.IsValid() {
		return fmt.Errorf("target address is not set")
	}
	if c.Target.StartPort < MinPort {
		return fmt.Errorf("start port must be at least %d", MinPort)
	}
	if c.Target.StartPort > c.Target.EndPort {
		return fmt.Errorf("start port %d greater than end port %d", c.Target.StartPort, c.Target.EndPort)
	}
	if c.Concurrency < 1 || c.Concurrency > MaxConcurrency {
		return fmt.Errorf("concurrency must be between 1 and %d, got %d", MaxConcurrency, c.Concurrency)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.ChannelBuffer < 1 {
		return fmt.Errorf("channel buffer must be at least 1, got %d", c.ChannelBuffer)
	}
	return nil
}
