package observe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CommandSource runs an external bridge program (an adb wrapper, a shortcut
// runner, a test stub) that prints one native reading to stdout in the same
// format FileSource reads.
type CommandSource struct {
	Command string
	Args    []string

	// Env replaces the inherited environment when non-nil ("KEY=value").
	Env []string

	// Timeout bounds a single run. Zero relies on the caller's context.
	Timeout time.Duration
}

// ParseCommand splits a command line on whitespace. Quoting is not
// interpreted.
func ParseCommand(line string) (CommandSource, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return CommandSource{}, errors.New("bridge command is empty")
	}
	return CommandSource{Command: fields[0], Args: fields[1:]}, nil
}

// Read runs the command and decodes its stdout. A non-zero exit is an error
// carrying the trimmed stderr.
func (c CommandSource) Read(ctx context.Context) (*NativeReading, error) {
	if c.Command == "" {
		return nil, errors.New("bridge command is required")
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.Command, c.Args...)
	// Children of the bridge may keep stdout open after it is killed.
	cmd.WaitDelay = time.Second
	if c.Env != nil {
		cmd.Env = c.Env
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("bridge %s: %w", c.Command, ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("bridge %s exited with code %d: %s",
				c.Command, exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("bridge %s failed: %w", c.Command, err)
	}

	return decodeReading(stdout.Bytes(), c.Command)
}
