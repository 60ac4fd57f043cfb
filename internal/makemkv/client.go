package makemkv

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"
)

// Executor abstracts command execution for testability. Run returns the
// process exit code alongside any execution error; a nonzero exit is a
// result, not an error.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onStdout func(string)) (int, error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps makemkvcon invocations. Both commands stream robot status
// lines to the caller, which typically feeds them into a Session.
type Client struct {
	binary string
	exec   Executor
}

// New constructs a MakeMKV client.
func New(binary string, opts ...Option) (*Client, error) {
	if binary == "" {
		return nil, errors.New("makemkv binary required")
	}
	client := &Client{binary: binary, exec: commandExecutor{}}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Info scans the disc in the given device and streams status lines.
// Titles shorter than minLength seconds are excluded from the scan.
func (c *Client) Info(ctx context.Context, device string, minLength int, onLine func(string)) (int, error) {
	args := []string{
		"--minlength=" + strconv.Itoa(minLength),
		"--robot",
		"--noscan",
		"info",
		"dev:" + device,
	}
	return c.exec.Run(ctx, c.binary, args, onLine)
}

// Mkv rips one title from the device into destDir and streams status lines.
func (c *Client) Mkv(ctx context.Context, device string, title int, destDir string, minLength int, onLine func(string)) (int, error) {
	args := []string{
		"--minlength=" + strconv.Itoa(minLength),
		"--robot",
		"--noscan",
		"mkv",
		"dev:" + device,
		strconv.Itoa(title),
		destDir,
		"--messages=-stdout",
		"--progress=-same",
	}
	return c.exec.Run(ctx, c.binary, args, onLine)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onStdout func(string)) (int, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return -1, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return -1, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return -1, fmt.Errorf("start command: %w", err)
	}

	var wg sync.WaitGroup
	var scanErr error
	var once sync.Once

	scan := func(r io.Reader, forward func(string)) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			forward(scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() {
				scanErr = err
			})
		}
	}

	forward := func(line string) {
		if onStdout != nil {
			onStdout(line)
			return
		}
		fmt.Fprintln(os.Stderr, line)
	}

	wg.Add(2)
	go scan(stdout, forward)
	go func() {
		defer wg.Done()
		_, _ = io.Copy(io.Discard, stderr)
	}()

	wg.Wait()
	if scanErr != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return -1, fmt.Errorf("scan output: %w", scanErr)
	}

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return -1, fmt.Errorf("wait command: %w", err)
	}
	return 0, nil
}
