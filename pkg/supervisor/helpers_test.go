package supervisor

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Emiliopg91/RogPerfTuner-sub000/internal/fakeserver"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/color"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/effect"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/model"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/transport"
)

const waitTimeout = 3 * time.Second

// fakeLauncher starts an in-process stub server on the requested port.
type fakeLauncher struct {
	version uint32
	devices []*model.Device

	// listenDelay postpones binding the port.
	listenDelay time.Duration
	// noListen never binds the port.
	noListen bool
	// exitOnLaunch reports the process as exited right away.
	exitOnLaunch bool

	mu    sync.Mutex
	procs []*fakeProcess
}

func (l *fakeLauncher) Launch(port int) (Process, error) {
	p := &fakeProcess{pid: 1000 + l.launches(), done: make(chan struct{})}
	l.mu.Lock()
	l.procs = append(l.procs, p)
	l.mu.Unlock()

	if l.exitOnLaunch {
		p.exit(errors.New("exit status 1"))
		return p, nil
	}
	if l.noListen {
		return p, nil
	}

	listen := func() {
		ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err != nil {
			p.exit(err)
			return
		}
		p.setServer(fakeserver.Serve(ln, fakeserver.Config{
			ProtocolVersion: l.version,
			Devices:         l.devices,
			Profiles:        []string{"default"},
		}))
	}
	if l.listenDelay > 0 {
		time.AfterFunc(l.listenDelay, listen)
	} else {
		listen()
	}
	return p, nil
}

func (l *fakeLauncher) launches() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.procs)
}

func (l *fakeLauncher) proc(i int) *fakeProcess {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.procs[i]
}

func (l *fakeLauncher) last() *fakeProcess {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.procs) == 0 {
		return nil
	}
	return l.procs[len(l.procs)-1]
}

// server returns the stub server of the latest launch.
func (l *fakeLauncher) server() *fakeserver.Server {
	if p := l.last(); p != nil {
		return p.server()
	}
	return nil
}

type fakeProcess struct {
	pid  int
	done chan struct{}

	mu      sync.Mutex
	srv     *fakeserver.Server
	err     error
	stopped bool
	once    sync.Once
}

func (p *fakeProcess) Pid() int { return p.pid }

func (p *fakeProcess) Done() <-chan struct{} { return p.done }

func (p *fakeProcess) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *fakeProcess) Stop(time.Duration) error {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	p.exit(errors.New("signal: terminated"))
	return nil
}

// crash closes the server and reports an unexpected exit.
func (p *fakeProcess) crash() {
	p.exit(errors.New("signal: segmentation fault"))
}

func (p *fakeProcess) exit(err error) {
	p.once.Do(func() {
		p.mu.Lock()
		p.err = err
		srv := p.srv
		p.mu.Unlock()
		if srv != nil {
			_ = srv.Close()
		}
		close(p.done)
	})
}

func (p *fakeProcess) setServer(srv *fakeserver.Server) {
	p.mu.Lock()
	p.srv = srv
	p.mu.Unlock()
}

func (p *fakeProcess) server() *fakeserver.Server {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.srv
}

func (p *fakeProcess) wasStopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

// testConfig returns a fast configuration around l.
func testConfig(l Launcher) Config {
	client := transport.DefaultConfig()
	client.ClientName = "rgbd-test"
	client.HandshakeTimeout = 200 * time.Millisecond
	client.RequestTimeout = time.Second
	return Config{
		Launcher:         l,
		Client:           client,
		StartTimeout:     2 * time.Second,
		StopGrace:        10 * time.Millisecond,
		TerminateTimeout: 100 * time.Millisecond,
		Effects:          effect.Config{Seed: 1},
	}
}

func newTestSupervisor(t *testing.T, cfg Config) *Supervisor {
	t.Helper()
	s, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// allLEDs reports whether srv holds n LEDs on idx that all equal want,
// within one step per channel.
func allLEDs(srv *fakeserver.Server, idx uint32, n int, want color.Color) bool {
	if srv == nil {
		return false
	}
	leds := srv.LEDs(idx)
	if len(leds) != n {
		return false
	}
	for _, c := range leds {
		if absDiff(c.R, want.R) > 1 || absDiff(c.G, want.G) > 1 || absDiff(c.B, want.B) > 1 {
			return false
		}
	}
	return true
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
