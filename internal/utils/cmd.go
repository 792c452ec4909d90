package utils

import (
	"context"
	"os/exec"
	"time"
)

// ExecWith builds a command bound to ctx. Once the process is gone, Wait
// gives its I/O goroutines at most two seconds before closing the pipes.
func ExecWith(ctx context.Context, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = 2 * time.Second
	return cmd
}
