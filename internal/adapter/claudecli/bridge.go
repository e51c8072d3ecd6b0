// Package claudecli implements the agentbridge.Bridge interface by spawning
// the Claude Code CLI as a subprocess in the repository working directory and
// streaming its stdout.
package claudecli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/codeverse-ai/codeverse/internal/port/agentbridge"
)

const bridgeName = "claude"

// readBufSize is the chunk size for stdout reads. Chunks are forwarded as-is;
// the classifier downstream handles arbitrary chunk boundaries.
const readBufSize = 4096

// stderrTailLimit caps how much captured stderr goes into an error message.
const stderrTailLimit = 2048

// Bridge spawns the Claude CLI for each generation request.
type Bridge struct {
	bin     string
	timeout time.Duration
}

// New creates a Claude CLI bridge. bin is the binary path ("claude" resolves
// via PATH); timeout bounds the whole run, 0 means no limit.
func New(bin string, timeout time.Duration) *Bridge {
	if bin == "" {
		bin = "claude"
	}
	return &Bridge{bin: bin, timeout: timeout}
}

// Register registers the Claude CLI bridge factory.
func Register(bin string, timeout time.Duration) {
	agentbridge.Register(bridgeName, func(_ map[string]string) (agentbridge.Bridge, error) {
		return New(bin, timeout), nil
	})
}

// Stream launches the CLI and forwards its stdout as delta events. The
// channel closes when the process exits; a non-zero exit produces a terminal
// error event carrying the stderr tail. Cancelling ctx kills the process.
func (b *Bridge) Stream(ctx context.Context, req agentbridge.Request) (<-chan agentbridge.Event, error) {
	runCtx := ctx
	cancel := context.CancelFunc(func() {})
	if b.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, b.timeout)
	}

	args := []string{"-p", req.Prompt}
	if req.SystemPrompt != "" {
		args = append(args, "--append-system-prompt", req.SystemPrompt)
	}

	cmd := exec.CommandContext(runCtx, b.bin, args...)
	cmd.Dir = req.WorkDir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("claudecli: stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("claudecli: start %s: %w", b.bin, err)
	}

	out := make(chan agentbridge.Event)
	go func() {
		defer close(out)
		defer cancel()

		buf := make([]byte, readBufSize)
		for {
			n, readErr := stdout.Read(buf)
			if n > 0 {
				select {
				case out <- agentbridge.Event{Kind: agentbridge.EventDelta, Text: string(buf[:n])}:
				case <-runCtx.Done():
					_ = cmd.Wait()
					return
				}
			}
			if readErr != nil {
				if readErr != io.EOF {
					_ = cmd.Wait()
					// The consumer may have stopped draining; never block
					// on the terminal send.
					select {
					case out <- agentbridge.Event{Kind: agentbridge.EventError, Err: fmt.Errorf("claudecli: read stdout: %w", readErr)}:
					case <-runCtx.Done():
					}
					return
				}
				break
			}
		}

		if err := cmd.Wait(); err != nil {
			select {
			case out <- agentbridge.Event{Kind: agentbridge.EventError, Err: exitError(err, stderr.String())}:
			case <-runCtx.Done():
			}
		}
	}()

	return out, nil
}

func exitError(waitErr error, stderr string) error {
	tail := strings.TrimSpace(stderr)
	if len(tail) > stderrTailLimit {
		tail = tail[len(tail)-stderrTailLimit:]
	}
	if tail == "" {
		return fmt.Errorf("claudecli: %w", waitErr)
	}
	return fmt.Errorf("claudecli: %w: %s", waitErr, tail)
}
