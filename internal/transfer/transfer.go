package transfer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"dispatcher/internal/services"
)

// Client relocates artifacts between the staging area and durable storage.
// Copy and Move operate recursively on directories; CopyFile and MoveFile on
// single files. Progress lines are forwarded to onLine when non-nil.
type Client interface {
	Copy(ctx context.Context, src, dst string, onLine func(string)) error
	Move(ctx context.Context, src, dst string, onLine func(string)) error
	CopyFile(ctx context.Context, src, dst string, onLine func(string)) error
	MoveFile(ctx context.Context, src, dst string, onLine func(string)) error
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onLine func(string)) error
}

// Option configures the S3 client.
type Option func(*S3)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *S3) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// S3 relocates artifacts through the aws CLI.
type S3 struct {
	binary string
	exec   Executor
}

// NewS3 constructs an aws CLI transfer client.
func NewS3(binary string, opts ...Option) (*S3, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, services.Wrap(services.ErrConfiguration, "transfer", "new client", "aws binary required", nil)
	}
	client := &S3{binary: binary, exec: commandExecutor{}}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Copy recursively copies src to dst.
func (c *S3) Copy(ctx context.Context, src, dst string, onLine func(string)) error {
	return c.run(ctx, []string{"s3", "cp", "--recursive", src, dst}, onLine)
}

// Move recursively moves src to dst.
func (c *S3) Move(ctx context.Context, src, dst string, onLine func(string)) error {
	return c.run(ctx, []string{"s3", "mv", "--recursive", src, dst}, onLine)
}

// CopyFile copies a single object.
func (c *S3) CopyFile(ctx context.Context, src, dst string, onLine func(string)) error {
	return c.run(ctx, []string{"s3", "cp", src, dst}, onLine)
}

// MoveFile moves a single object.
func (c *S3) MoveFile(ctx context.Context, src, dst string, onLine func(string)) error {
	return c.run(ctx, []string{"s3", "mv", src, dst}, onLine)
}

func (c *S3) run(ctx context.Context, args []string, onLine func(string)) error {
	if err := c.exec.Run(ctx, c.binary, args, onLine); err != nil {
		return services.Wrap(services.ErrTransfer, "transfer", strings.Join(args[:2], " "), strings.Join(args[2:], " "), err)
	}
	return nil
}

type commandExecutor struct{}

// Run starts the command, drains stdout and stderr completely, and only then
// checks the exit status. A hung transfer hangs the run; there is no timeout
// beyond whatever the context carries.
func (commandExecutor) Run(ctx context.Context, binary string, args []string, onLine func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var wg sync.WaitGroup
	var scanErr error
	var once sync.Once

	forward := func(line string) {
		if onLine != nil {
			onLine(line)
			return
		}
		fmt.Fprintln(os.Stderr, line)
	}

	scan := func(r io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				forward(line)
			}
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() { scanErr = err })
		}
	}

	wg.Add(2)
	go scan(stdout)
	go scan(stderr)

	wg.Wait()
	if scanErr != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return fmt.Errorf("scan output: %w", scanErr)
	}
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait command: %w", err)
	}
	return nil
}
