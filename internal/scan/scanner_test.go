package scan

import (
	"context"
	"net"
	"slices"
	"sync/atomic"
	"testing"
	"time"
)

func listen(t *testing.T) uint16 {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return uint16(l.Addr().(*net.TCPAddr).Port)
}

func testConfig(t *testing.T, start, end uint16) Config {
	t.Helper()
	tgt, err := NewTarget("127.0.0.1", start, end)
	if err != nil {
		t.Fatalf("target: %v", err)
	}
	cfg := NewConfig(tgt)
	cfg.Timeout = time.Second
	return cfg
}

func runScan(t *testing.T, cfg Config, opts ...Option) []uint16 {
	t.Helper()
	s, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("new scanner: %v", err)
	}
	open, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return open
}

func TestRun_SingleOpenPort(t *testing.T) {
	port := listen(t)
	open := runScan(t, testConfig(t, port, port))
	if !slices.Equal(open, []uint16{port}) {
		t.Fatalf("open = %v, want [%d]", open, port)
	}
}

func TestRun_SingleClosedPort(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := uint16(l.Addr().(*net.TCPAddr).Port)
	_ = l.Close()
	time.Sleep(50 * time.Millisecond)

	open := runScan(t, testConfig(t, port, port))
	if len(open) != 0 {
		t.Fatalf("open = %v, want empty", open)
	}
}

func TestRun_FindsAllListeners(t *testing.T) {
	var ports []uint16
	for i := 0; i < 4; i++ {
		ports = append(ports, listen(t))
	}
	lo, hi := slices.Min(ports), slices.Max(ports)

	cfg := testConfig(t, lo, hi)
	cfg.ChannelBuffer = 1 // force backpressure on the results channel
	open := runScan(t, cfg)

	for _, p := range ports {
		if !slices.Contains(open, p) {
			t.Errorf("listener port %d missing from %v", p, open)
		}
	}
	if !slices.IsSorted(open) {
		t.Errorf("result not sorted: %v", open)
	}
	for i := 1; i < len(open); i++ {
		if open[i] == open[i-1] {
			t.Errorf("duplicate port %d in %v", open[i], open)
		}
	}
	for _, p := range open {
		if p < lo || p > hi {
			t.Errorf("port %d outside scanned range %d-%d", p, lo, hi)
		}
	}
}

func TestRun_ProgressCountsEveryPort(t *testing.T) {
	port := listen(t)
	cfg := testConfig(t, port-25, port+24)

	var n atomic.Int64
	runScan(t, cfg, WithProgress(func() { n.Add(1) }))

	if got := n.Load(); got != int64(cfg.Target.PortCount()) {
		t.Fatalf("progress signals = %d, want %d", got, cfg.Target.PortCount())
	}
}

// Concurrency level must never change what the scan finds, only how
// fast it finds it.
func TestRun_ConcurrencyOneSameResult(t *testing.T) {
	var ports []uint16
	for i := 0; i < 3; i++ {
		ports = append(ports, listen(t))
	}
	lo, hi := slices.Min(ports), slices.Max(ports)

	wide := testConfig(t, lo, hi)
	narrow := testConfig(t, lo, hi)
	narrow.Concurrency = 1

	got := runScan(t, wide)
	sequential := runScan(t, narrow)
	if !slices.Equal(got, sequential) {
		t.Fatalf("concurrency changed result: %v vs %v", got, sequential)
	}
}

func TestRun_Idempotent(t *testing.T) {
	port := listen(t)
	cfg := testConfig(t, port-5, port+5)

	first := runScan(t, cfg)
	second := runScan(t, cfg)
	if !slices.Equal(first, second) {
		t.Fatalf("repeated scan differs: %v vs %v", first, second)
	}
}

func TestRun_RateLimited(t *testing.T) {
	port := listen(t)
	cfg := testConfig(t, port-10, port+9)

	open := runScan(t, cfg, WithRateLimit(5000))
	if !slices.Contains(open, port) {
		t.Fatalf("listener port %d missing from %v", port, open)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	port := listen(t)
	s, err := New(testConfig(t, port, port))
	if err != nil {
		t.Fatalf("new scanner: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	open, err := s.Run(ctx)
	if err == nil {
		t.Fatal("expected error from cancelled scan")
	}
	if open != nil {
		t.Fatalf("expected no partial result, got %v", open)
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t, 1, 1024)
	cfg.Concurrency = 0
	if _, err := New(cfg); err == nil {
		t.Fatal("expected config error")
	}
}
