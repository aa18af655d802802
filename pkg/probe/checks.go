package probe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"ficonsole/pkg/sim"
)

// DirWritable checks that dir exists (creating it if needed) and accepts a file.
func DirWritable(dir string) CheckFunc {
	return func(ctx context.Context) error {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
		f, err := os.CreateTemp(dir, ".probe-*")
		if err != nil {
			return fmt.Errorf("write %s: %w", dir, err)
		}
		name := f.Name()
		f.Close()
		return os.Remove(name)
	}
}

// DirsWritable checks the parent directory of every path.
func DirsWritable(paths ...string) CheckFunc {
	return func(ctx context.Context) error {
		seen := map[string]bool{}
		for _, p := range paths {
			if p == "" {
				continue
			}
			dir := filepath.Dir(p)
			if seen[dir] {
				continue
			}
			seen[dir] = true
			if err := DirWritable(dir)(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

// SimReachable opens a client and performs one full poll.
func SimReachable(factory sim.Factory) CheckFunc {
	return func(ctx context.Context) error {
		c, err := factory(ctx)
		if err != nil {
			return err
		}
		defer c.Close()
		_, err = sim.Poll(ctx, c)
		return err
	}
}
