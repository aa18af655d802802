package xpc

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ficonsole/pkg/sim"
)

func posi46(lat, lon, alt float64, pitch, roll, hdg float32) []byte {
	b := []byte{'P', 'O', 'S', 'I', 0, 0}
	b = binary.LittleEndian.AppendUint64(b, math.Float64bits(lat))
	b = binary.LittleEndian.AppendUint64(b, math.Float64bits(lon))
	b = binary.LittleEndian.AppendUint64(b, math.Float64bits(alt))
	for _, f := range []float32{pitch, roll, hdg, 0} {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(f))
	}
	return b
}

func resp(values ...float32) []byte {
	b := []byte{'R', 'E', 'S', 'P', 0, 1, byte(len(values))}
	for _, v := range values {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
	}
	return b
}

// fakePlugin answers GETP with a fixed position and GETD with a value keyed by dref name.
func fakePlugin(t *testing.T, drefs map[string]float32) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	go func() {
		buf := make([]byte, 1024)
		for {
			n, addr, err := conn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			req := buf[:n]
			switch string(req[:4]) {
			case "GETP":
				conn.WriteToUDP(posi46(47.5, 8.5, 1000, 2, -3, 270), addr)
			case "GETD":
				name := string(req[7 : 7+int(req[6])])
				if v, ok := drefs[name]; ok {
					conn.WriteToUDP(resp(v), addr)
				}
			}
		}
	}()
	return conn
}

func TestClient_Reads(t *testing.T) {
	srv := fakePlugin(t, map[string]float32{
		DrefAirspeed:      112.5,
		DrefVerticalSpeed: -400,
	})
	port := srv.LocalAddr().(*net.UDPAddr).Port

	c, err := Dial("127.0.0.1", port, time.Second)
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	pos, err := c.GetPosition(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 47.5, pos.Latitude, 1e-9)
	assert.InDelta(t, 8.5, pos.Longitude, 1e-9)
	assert.InDelta(t, 1000, pos.AltitudeMeters, 1e-9)
	assert.InDelta(t, 270, pos.Heading, 1e-4)

	ias, err := c.GetAirspeed(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 112.5, ias, 1e-4)

	vs, err := c.GetVerticalSpeed(ctx)
	require.NoError(t, err)
	assert.InDelta(t, -400, vs, 1e-4)
	assert.Equal(t, sim.StateActive, c.GetState())
}

func TestClient_TimeoutIsNotConnected(t *testing.T) {
	srv := fakePlugin(t, nil) // never answers GETD
	port := srv.LocalAddr().(*net.UDPAddr).Port

	c, err := Dial("127.0.0.1", port, 50*time.Millisecond)
	require.NoError(t, err)
	defer c.Close()

	start := time.Now()
	_, err = c.GetAirspeed(context.Background())
	assert.True(t, errors.Is(err, sim.ErrNotConnected), "got %v", err)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, sim.StateDisconnected, c.GetState())
}

func TestClient_SkipsReplyForOtherRequest(t *testing.T) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	go func() {
		buf := make([]byte, 1024)
		for {
			_, addr, err := conn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			// A position reply left over from an earlier GETP arrives first.
			conn.WriteToUDP(posi46(1, 2, 3, 0, 0, 0), addr)
			conn.WriteToUDP(resp(98.5), addr)
		}
	}()

	c, err := Dial("127.0.0.1", conn.LocalAddr().(*net.UDPAddr).Port, time.Second)
	require.NoError(t, err)
	defer c.Close()

	ias, err := c.GetAirspeed(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 98.5, ias, 1e-4)
}

func TestClient_LateReplyIsNotReadAsNextAnswer(t *testing.T) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	go func() {
		buf := make([]byte, 1024)
		first := true
		for {
			n, addr, err := conn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			if n < 7 {
				continue
			}
			name := string(buf[7 : 7+int(buf[6])])
			v := float32(-700)
			if name == DrefAirspeed {
				v = 120
			}
			if first {
				first = false
				time.Sleep(80 * time.Millisecond)
			}
			conn.WriteToUDP(resp(v), addr)
		}
	}()

	c, err := Dial("127.0.0.1", conn.LocalAddr().(*net.UDPAddr).Port, 30*time.Millisecond)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.GetAirspeed(context.Background())
	require.ErrorIs(t, err, sim.ErrNotConnected)

	// Let the airspeed reply land in the socket buffer.
	time.Sleep(120 * time.Millisecond)

	vs, err := c.GetVerticalSpeed(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, -700, vs, 1e-4)
}

func TestClient_ContextDeadlineWins(t *testing.T) {
	srv := fakePlugin(t, nil)
	port := srv.LocalAddr().(*net.UDPAddr).Port

	c, err := Dial("127.0.0.1", port, 5*time.Second)
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err = c.GetVerticalSpeed(ctx)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestClient_Closed(t *testing.T) {
	c, err := Dial("127.0.0.1", 0, 0)
	require.NoError(t, err)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, err = c.GetPosition(context.Background())
	assert.ErrorIs(t, err, sim.ErrNotConnected)
}

func TestDecodePOSI(t *testing.T) {
	short := []byte{'P', 'O', 'S', 'I', 0, 0}
	for _, f := range []float32{1, 2, 300, 4, 5, 6, 0} {
		short = binary.LittleEndian.AppendUint32(short, math.Float32bits(f))
	}

	tests := []struct {
		name    string
		in      []byte
		wantLat float64
		wantHdg float64
		wantErr bool
	}{
		{"double layout", posi46(10, 20, 30, 1, 2, 3), 10, 3, false},
		{"float layout", short, 1, 6, false},
		{"wrong header", append([]byte("RESP"), make([]byte, 42)...), 0, 0, true},
		{"wrong length", make([]byte, 10), 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, err := decodePOSI(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBadResponse)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.wantLat, pos.Latitude, 1e-6)
			assert.InDelta(t, tt.wantHdg, pos.Heading, 1e-6)
		})
	}
}

func TestDecodeRESP_Truncated(t *testing.T) {
	b := resp(1, 2)
	_, err := decodeRESP(b[:len(b)-2])
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestEncodeGETD(t *testing.T) {
	b, err := encodeGETD([]string{DrefAirspeed})
	require.NoError(t, err)
	assert.Equal(t, "GETD", string(b[:4]))
	assert.Equal(t, byte(1), b[5])
	assert.Equal(t, byte(len(DrefAirspeed)), b[6])
	assert.True(t, strings.HasSuffix(string(b), DrefAirspeed))

	_, err = encodeGETD(nil)
	assert.Error(t, err)
}
