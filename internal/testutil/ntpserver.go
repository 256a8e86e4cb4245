// Package testutil provides test doubles shared across packages.
package testutil

import (
	"encoding/binary"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// Behavior controls how the fake NTP server answers.
type Behavior int

const (
	// Respond answers with a valid server reply.
	Respond Behavior = iota
	// Silent reads requests and never answers.
	Silent
	// ZeroTransmit answers with a zero transmit timestamp.
	ZeroTransmit
	// KissOfDeath answers with stratum 0 and a RATE kiss code.
	KissOfDeath
)

const (
	packetSize = 48
	// ntpEpochOffset is the number of seconds between 1900-01-01 and 1970-01-01.
	ntpEpochOffset = 2208988800
)

// NTPServer is an in-process NTP server listening on a loopback UDP port.
type NTPServer struct {
	conn     *net.UDPConn
	clock    func() time.Time
	mu       sync.Mutex
	behavior Behavior
	requests atomic.Int64
	done     chan struct{}
}

// StartNTPServer starts a fake server that reports the time returned by clock.
// The server is closed when the test ends.
func StartNTPServer(t testing.TB, clock func() time.Time) *NTPServer {
	t.Helper()

	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	if err != nil {
		t.Fatalf("listen udp: %v", err)
	}

	s := &NTPServer{
		conn:  conn,
		clock: clock,
		done:  make(chan struct{}),
	}
	go s.serve()

	t.Cleanup(s.Close)
	return s
}

// FixedClock returns a clock that always reports ts.
func FixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

// Host returns the loopback address the server listens on.
func (s *NTPServer) Host() string {
	return "127.0.0.1"
}

// Port returns the UDP port the server listens on.
func (s *NTPServer) Port() int {
	return s.conn.LocalAddr().(*net.UDPAddr).Port
}

// Addr returns host:port.
func (s *NTPServer) Addr() string {
	return net.JoinHostPort(s.Host(), strconv.Itoa(s.Port()))
}

// SetBehavior changes how subsequent requests are answered.
func (s *NTPServer) SetBehavior(b Behavior) {
	s.mu.Lock()
	s.behavior = b
	s.mu.Unlock()
}

// Requests returns the number of requests received.
func (s *NTPServer) Requests() int {
	return int(s.requests.Load())
}

// Close stops the server.
func (s *NTPServer) Close() {
	select {
	case <-s.done:
		return
	default:
		close(s.done)
	}
	_ = s.conn.Close()
}

func (s *NTPServer) serve() {
	buf := make([]byte, 1024)
	for {
		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		if n < packetSize {
			continue
		}
		s.requests.Add(1)

		s.mu.Lock()
		behavior := s.behavior
		s.mu.Unlock()

		if behavior == Silent {
			continue
		}

		reply := s.reply(buf[:packetSize], behavior)
		_, _ = s.conn.WriteToUDP(reply, addr)
	}
}

func (s *NTPServer) reply(req []byte, behavior Behavior) []byte {
	now := s.clock()
	ts := ToNTP(now)

	resp := make([]byte, packetSize)
	// LI=0, VN=4, Mode=4 (server)
	resp[0] = 0<<6 | 4<<3 | 4
	resp[1] = 2
	resp[2] = 6
	resp[3] = 0xEC
	copy(resp[12:16], "LOCL")
	binary.BigEndian.PutUint64(resp[16:24], ts)
	// Origin timestamp echoes the client's transmit timestamp.
	copy(resp[24:32], req[40:48])
	binary.BigEndian.PutUint64(resp[32:40], ts)
	binary.BigEndian.PutUint64(resp[40:48], ts)

	switch behavior {
	case ZeroTransmit:
		binary.BigEndian.PutUint64(resp[40:48], 0)
	case KissOfDeath:
		resp[1] = 0
		copy(resp[12:16], "RATE")
	}

	return resp
}

// ToNTP converts t to the 64-bit NTP timestamp format.
func ToNTP(t time.Time) uint64 {
	secs := uint64(t.Unix() + ntpEpochOffset)
	frac := (uint64(t.Nanosecond()) << 32) / 1e9
	return secs<<32 | frac
}
