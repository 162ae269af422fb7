// SPDX-License-Identifier: MPL-2.0

package install

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultSmokeTimeout bounds a single smoke test run.
const DefaultSmokeTimeout = 30 * time.Second

// maxSmokeOutput caps how much combined output is kept for reporting.
const maxSmokeOutput = 64 << 10

// ErrSmokeTestFailed is wrapped by SmokeTestError.
var ErrSmokeTestFailed = errors.New("smoke test failed")

// SmokeTestError reports a binary that was installed but did not run
// cleanly with its test arguments.
type SmokeTestError struct {
	Binary string
	Args   []string
	Output string
	Err    error
}

func (e *SmokeTestError) Error() string {
	cmd := strings.TrimSpace(e.Binary + " " + strings.Join(e.Args, " "))
	msg := fmt.Sprintf("smoke test %q failed: %v", cmd, e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += "\n" + out
	}
	return msg
}

func (e *SmokeTestError) Unwrap() []error { return []error{ErrSmokeTestFailed, e.Err} }

// RunSmokeTest executes binary with args and returns its combined output.
// A non-zero exit, a start failure or a timeout yields a *SmokeTestError.
func RunSmokeTest(ctx context.Context, binary string, args []string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = DefaultSmokeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var out limitedBuffer
	out.limit = maxSmokeOutput

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w after %s", ctxErr, timeout)
		}
		return out.String(), &SmokeTestError{Binary: binary, Args: args, Output: out.String(), Err: err}
	}
	return out.String(), nil
}

// limitedBuffer keeps the first limit bytes written and discards the rest.
type limitedBuffer struct {
	bytes.Buffer
	limit int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if room := b.limit - b.Len(); room > 0 {
		if len(p) > room {
			b.Buffer.Write(p[:room])
		} else {
			b.Buffer.Write(p)
		}
	}
	return len(p), nil
}
