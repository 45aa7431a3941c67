package supervisor

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// Launcher starts the lighting server listening on port.
type Launcher interface {
	Launch(port int) (Process, error)
}

// Process is a running server.
type Process interface {
	// Pid returns the process id.
	Pid() int

	// Done is closed when the process has exited.
	Done() <-chan struct{}

	// Err returns the exit error once Done is closed.
	Err() error

	// Stop asks the process to exit and kills it after timeout.
	Stop(timeout time.Duration) error
}

// ExecLauncher runs the server executable in its own process group and
// drains its output into the logger.
type ExecLauncher struct {
	Path string

	// Args returns the command-line arguments for port.
	Args func(port int) []string

	Logger *slog.Logger
}

// Compile-time interface satisfaction check.
var _ Launcher = (*ExecLauncher)(nil)

// Launch starts the executable.
func (l *ExecLauncher) Launch(port int) (Process, error) {
	var args []string
	if l.Args != nil {
		args = l.Args(port)
	}
	cmd := exec.Command(l.Path, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", l.Path, err)
	}

	p := &execProcess{cmd: cmd, done: make(chan struct{})}
	var drained sync.WaitGroup
	drained.Add(2)
	go l.drain(&drained, stdout, "stdout", cmd.Process.Pid)
	go l.drain(&drained, stderr, "stderr", cmd.Process.Pid)
	go func() {
		// Wait must not run before the pipes are fully read.
		drained.Wait()
		p.err = cmd.Wait()
		close(p.done)
	}()

	if l.Logger != nil {
		l.Logger.Info("lighting server launched", "path", l.Path, "pid", cmd.Process.Pid, "port", port)
	}
	return p, nil
}

// drain reads r until EOF so the child never blocks on a full pipe.
func (l *ExecLauncher) drain(wg *sync.WaitGroup, r io.Reader, stream string, pid int) {
	defer wg.Done()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 64*1024)
	for sc.Scan() {
		if l.Logger != nil {
			l.Logger.Debug("server output", "pid", pid, "stream", stream, "line", sc.Text())
		}
	}
	// Overlong lines stop the scanner; keep the pipe flowing.
	_, _ = io.Copy(io.Discard, r)
}

type execProcess struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

func (p *execProcess) Pid() int { return p.cmd.Process.Pid }

func (p *execProcess) Done() <-chan struct{} { return p.done }

func (p *execProcess) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// Stop sends SIGTERM to the process group, then SIGKILL after timeout.
func (p *execProcess) Stop(timeout time.Duration) error {
	select {
	case <-p.done:
		return nil
	default:
	}

	pgid := -p.cmd.Process.Pid
	if err := unix.Kill(pgid, unix.SIGTERM); err != nil && !errors.Is(err, unix.ESRCH) {
		return fmt.Errorf("terminate server: %w", err)
	}

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-p.done:
		return nil
	case <-t.C:
	}

	if err := unix.Kill(pgid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
		return fmt.Errorf("kill server: %w", err)
	}
	<-p.done
	return nil
}

// freePort reserves an ephemeral TCP port on host and releases it for the
// server to bind.
func freePort(host string) (int, error) {
	ln, err := net.Listen("tcp", net.JoinHostPort(host, "0"))
	if err != nil {
		return 0, err
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port, nil
}
