package services

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
)

// Executor runs an external binary, forwarding each line of its combined
// output to onLine as it arrives. Stage tests substitute fakes for it.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onLine func(string)) error
}

// CommandExecutor is the os/exec backed Executor. Stdout and stderr of the
// child feed the same pipe, so callers see lines in arrival order.
// Cancelling ctx kills the child process.
type CommandExecutor struct{}

func (CommandExecutor) Run(ctx context.Context, binary string, args []string, onLine func(string)) error {
	if onLine == nil {
		onLine = func(line string) { fmt.Fprintln(os.Stderr, line) }
	}

	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	pr, pw, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("output pipe: %w", err)
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return fmt.Errorf("start command: %w", err)
	}
	// The child holds its own copy of the write end; drop ours so the read
	// end sees EOF once the child exits.
	pw.Close()

	scanner := bufio.NewScanner(pr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		onLine(scanner.Text())
	}
	scanErr := scanner.Err()
	pr.Close()

	if scanErr != nil {
		// The child may be blocked writing to a pipe nobody drains.
		_ = cmd.Process.Kill()
	}
	waitErr := cmd.Wait()
	if scanErr != nil {
		return fmt.Errorf("scan output: %w", scanErr)
	}
	if waitErr != nil {
		return fmt.Errorf("wait command: %w", waitErr)
	}
	return nil
}
