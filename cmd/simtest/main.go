// Package main polls a telemetry source and prints one line per reading.
// Use it to check an X-Plane Connect setup before a lesson.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ficonsole/pkg/sim"
	"ficonsole/pkg/sim/mocksim"
	"ficonsole/pkg/sim/xpc"
	"ficonsole/pkg/telemetry"
)

var (
	provider = flag.String("provider", "xpc", "Telemetry source: xpc or mock")
	host     = flag.String("host", "localhost", "X-Plane Connect host")
	port     = flag.Int("port", xpc.DefaultPort, "X-Plane Connect port")
	timeout  = flag.Duration("timeout", xpc.DefaultTimeout, "Per-request timeout")
	interval = flag.Duration("interval", time.Second, "Polling interval")
	count    = flag.Int("n", 0, "Stop after n readings (0 = until interrupted)")
)

func main() {
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client, err := open(ctx)
	if err != nil {
		log.Fatalf("Failed to open %s source: %v", *provider, err)
	}
	defer client.Close()

	fmt.Printf("Polling %s every %s. Press Ctrl+C to exit.\n", *provider, *interval)
	if err := poll(ctx, client, *interval, *count, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func open(ctx context.Context) (sim.Client, error) {
	switch *provider {
	case "mock":
		return mocksim.NewClient(mocksim.DefaultConfig()), nil
	case "xpc":
		return xpc.NewFactory(*host, *port, *timeout)(ctx)
	default:
		return nil, fmt.Errorf("unknown provider %q", *provider)
	}
}

// poll prints readings until ctx ends or n readings were printed.
// Read failures are reported and polling continues.
func poll(ctx context.Context, c sim.Client, every time.Duration, n int, out io.Writer) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	printed := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r, err := sim.Poll(ctx, c)
			if err != nil {
				fmt.Fprintf(out, "[%s] %s: %v\n", time.Now().Format("15:04:05"), c.GetState(), err)
				continue
			}
			fmt.Fprintln(out, formatReading(time.Now(), r))
			printed++
			if n > 0 && printed >= n {
				return nil
			}
		}
	}
}

func formatReading(now time.Time, r sim.Reading) string {
	return fmt.Sprintf("[%s] Pos: %.4f, %.4f | Alt: %.0f ft | Hdg: %.0f | IAS: %.0f kt | VS: %.0f fpm | Pitch: %.1f | Roll: %.1f",
		now.Format("15:04:05"),
		r.Latitude, r.Longitude,
		r.AltitudeMeters*telemetry.FeetPerMeter,
		r.Heading,
		r.Airspeed,
		r.VerticalSpeed,
		r.Pitch, r.Roll,
	)
}
