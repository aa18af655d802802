// Package xpc implements sim.Client against the X-Plane Connect plugin over UDP.
package xpc

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net"
	"strconv"
	"sync"
	"time"

	"ficonsole/pkg/sim"
)

const (
	// DefaultPort is the X-Plane Connect plugin's listening port.
	DefaultPort = 49009
	// DefaultTimeout bounds a request when the context has no deadline.
	DefaultTimeout = 100 * time.Millisecond

	DrefAirspeed      = "sim/cockpit2/gauges/indicators/airspeed_kts_pilot"
	DrefVerticalSpeed = "sim/cockpit2/gauges/indicators/vvi_fpm_pilot"

	maxPacket = 4096

	// drainWindow bounds how long stale replies are discarded after a failed request.
	drainWindow = 5 * time.Millisecond
)

// ErrBadResponse is returned when the plugin answers with an unexpected packet.
var ErrBadResponse = errors.New("xpc: malformed response")

// Client is a single X-Plane Connect UDP session. Requests are serialized.
type Client struct {
	mu      sync.Mutex
	conn    *net.UDPConn
	timeout time.Duration
	logger  *slog.Logger
	closed  bool
	lastErr error
	// stale is set when a request gave up; its reply may still arrive.
	stale bool
}

// Dial opens a UDP socket to the plugin at host:port.
// UDP is connectionless, so a missing simulator only shows up on the first read.
func Dial(host string, port int, timeout time.Duration) (*Client, error) {
	if port == 0 {
		port = DefaultPort
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	raddr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("xpc: resolve %s:%d: %w", host, port, err)
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("xpc: dial: %w", err)
	}
	return &Client{
		conn:    conn,
		timeout: timeout,
		logger:  slog.With("component", "xpc", "addr", raddr.String()),
	}, nil
}

// NewFactory returns a sim.Factory that dials a fresh socket on every call.
func NewFactory(host string, port int, timeout time.Duration) sim.Factory {
	return func(ctx context.Context) (sim.Client, error) {
		return Dial(host, port, timeout)
	}
}

// GetPosition issues GETP for the user aircraft and decodes the POSI reply.
func (c *Client) GetPosition(ctx context.Context) (sim.Position, error) {
	resp, err := c.roundTrip(ctx, encodeGETP(0), "POSI")
	if err != nil {
		return sim.Position{}, err
	}
	return decodePOSI(resp)
}

// GetAirspeed reads the pilot-side indicated airspeed in knots.
func (c *Client) GetAirspeed(ctx context.Context) (float64, error) {
	return c.getDref(ctx, DrefAirspeed)
}

// GetVerticalSpeed reads the pilot-side VSI in feet per minute.
func (c *Client) GetVerticalSpeed(ctx context.Context) (float64, error) {
	return c.getDref(ctx, DrefVerticalSpeed)
}

// GetState reports active until a request has failed.
func (c *Client) GetState() sim.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.lastErr != nil {
		return sim.StateDisconnected
	}
	return sim.StateActive
}

// Close releases the socket.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

func (c *Client) getDref(ctx context.Context, name string) (float64, error) {
	req, err := encodeGETD([]string{name})
	if err != nil {
		return 0, err
	}
	resp, err := c.roundTrip(ctx, req, "RESP")
	if err != nil {
		return 0, err
	}
	values, err := decodeRESP(resp)
	if err != nil {
		return 0, err
	}
	if len(values) != 1 || len(values[0]) == 0 {
		return 0, fmt.Errorf("%w: dref %s returned no value", ErrBadResponse, name)
	}
	return float64(values[0][0]), nil
}

// roundTrip sends req and returns the first reply carrying header.
// Replies with any other header belong to an earlier request and are skipped.
func (c *Client) roundTrip(ctx context.Context, req []byte, header string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, sim.ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.stale {
		c.drainLocked()
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, err
	}

	if _, err := c.conn.Write(req); err != nil {
		c.lastErr = err
		return nil, fmt.Errorf("%w: %v", sim.ErrNotConnected, err)
	}

	buf := make([]byte, maxPacket)
	for {
		n, err := c.conn.Read(buf)
		if err != nil {
			c.lastErr = err
			c.stale = true
			c.logger.Debug("Read failed", "error", err)
			return nil, fmt.Errorf("%w: %v", sim.ErrNotConnected, err)
		}
		if n >= len(header) && string(buf[:len(header)]) == header {
			c.lastErr = nil
			return buf[:n], nil
		}
		c.logger.Debug("Skipping unexpected reply", "want", header, "len", n)
	}
}

// drainLocked discards replies to requests that already timed out.
func (c *Client) drainLocked() {
	c.stale = false
	if err := c.conn.SetReadDeadline(time.Now().Add(drainWindow)); err != nil {
		return
	}
	buf := make([]byte, maxPacket)
	for {
		if _, err := c.conn.Read(buf); err != nil {
			return
		}
		c.logger.Debug("Discarded stale reply")
	}
}

func encodeGETP(aircraft byte) []byte {
	return []byte{'G', 'E', 'T', 'P', 0, aircraft}
}

// encodeGETD builds "GETD" pad count {len name}...
func encodeGETD(names []string) ([]byte, error) {
	if len(names) == 0 || len(names) > 255 {
		return nil, fmt.Errorf("xpc: dref count %d out of range", len(names))
	}
	out := []byte{'G', 'E', 'T', 'D', 0, byte(len(names))}
	for _, n := range names {
		if len(n) == 0 || len(n) > 255 {
			return nil, fmt.Errorf("xpc: dref name length %d out of range", len(n))
		}
		out = append(out, byte(len(n)))
		out = append(out, n...)
	}
	return out, nil
}

// decodePOSI accepts both reply layouts: 34 bytes (float32 position)
// and 46 bytes (float64 lat/lon/alt).
func decodePOSI(b []byte) (sim.Position, error) {
	if len(b) < 6 || string(b[:4]) != "POSI" {
		return sim.Position{}, fmt.Errorf("%w: expected POSI header", ErrBadResponse)
	}
	le := binary.LittleEndian
	f32 := func(off int) float64 { return float64(math.Float32frombits(le.Uint32(b[off:]))) }
	f64 := func(off int) float64 { return math.Float64frombits(le.Uint64(b[off:])) }

	switch len(b) {
	case 46:
		return sim.Position{
			Latitude:       f64(6),
			Longitude:      f64(14),
			AltitudeMeters: f64(22),
			Pitch:          f32(30),
			Roll:           f32(34),
			Heading:        f32(38),
		}, nil
	case 34:
		return sim.Position{
			Latitude:       f32(6),
			Longitude:      f32(10),
			AltitudeMeters: f32(14),
			Pitch:          f32(18),
			Roll:           f32(22),
			Heading:        f32(26),
		}, nil
	default:
		return sim.Position{}, fmt.Errorf("%w: POSI length %d", ErrBadResponse, len(b))
	}
}

// decodeRESP parses "RESP" pad count {len float32...}...
func decodeRESP(b []byte) ([][]float32, error) {
	if len(b) < 6 || string(b[:4]) != "RESP" {
		return nil, fmt.Errorf("%w: expected RESP header", ErrBadResponse)
	}
	count := int(b[5])
	out := make([][]float32, 0, count)
	off := 6
	for i := 0; i < count; i++ {
		if off >= len(b) {
			return nil, fmt.Errorf("%w: truncated RESP", ErrBadResponse)
		}
		n := int(b[off])
		off++
		if off+4*n > len(b) {
			return nil, fmt.Errorf("%w: truncated RESP values", ErrBadResponse)
		}
		vals := make([]float32, n)
		for j := range vals {
			vals[j] = math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
			off += 4
		}
		out = append(out, vals)
	}
	return out, nil
}
