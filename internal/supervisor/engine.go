package supervisor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"echotree.klederson.com/internal/config"
	"echotree.klederson.com/internal/log"
)

// ErrEngineExited is the cause of a session ending because the synthesis
// engine died on its own.
var ErrEngineExited = errors.New("supervisor: engine exited")

const killWait = 5 * time.Second

// Process is a running synthesis engine owned by one session.
type Process interface {
	Pid() int
	// Done is closed when the process has exited.
	Done() <-chan struct{}
	// Kill force-terminates the process and waits for it to be reaped.
	Kill() error
}

// Engine launches the external synthesis engine.
type Engine struct {
	cfg config.EngineConfig
}

func NewEngine(cfg config.EngineConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Start launches the engine with its fixed arguments and working directory.
func (e *Engine) Start(ctx context.Context) (Process, error) {
	cmd := exec.Command(e.cfg.Command, e.cfg.Args...)
	cmd.Dir = e.cfg.Dir
	cmd.Stdout = &lineLogger{source: "stdout"}
	cmd.Stderr = &lineLogger{source: "stderr"}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("supervisor: start %s: %w", e.cfg.Command, err)
	}
	p := &engineProcess{cmd: cmd, done: make(chan struct{})}
	go func() {
		p.err = cmd.Wait()
		close(p.done)
	}()

	log.Info("engine: started", "cmd", e.cfg.Command, "args", strings.Join(e.cfg.Args, " "), "dir", e.cfg.Dir, "pid", p.Pid())
	return p, nil
}

type engineProcess struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error
	once sync.Once
}

func (p *engineProcess) Pid() int {
	return p.cmd.Process.Pid
}

func (p *engineProcess) Done() <-chan struct{} {
	return p.done
}

func (p *engineProcess) Kill() error {
	var err error
	p.once.Do(func() {
		if kerr := p.cmd.Process.Kill(); kerr != nil && !errors.Is(kerr, os.ErrProcessDone) {
			err = fmt.Errorf("supervisor: kill engine %d: %w", p.Pid(), kerr)
			return
		}
		select {
		case <-p.done:
			log.Info("engine: killed", "pid", p.Pid())
		case <-time.After(killWait):
			err = fmt.Errorf("supervisor: engine %d not reaped after %v", p.Pid(), killWait)
		}
	})
	return err
}

// lineLogger forwards engine output to the log, one record per line.
type lineLogger struct {
	source string
	buf    []byte
}

func (l *lineLogger) Write(p []byte) (int, error) {
	l.buf = append(l.buf, p...)
	for {
		i := bytes.IndexByte(l.buf, '\n')
		if i < 0 {
			break
		}
		if line := strings.TrimSpace(string(l.buf[:i])); line != "" {
			log.Debug("engine: output", "stream", l.source, "line", line)
		}
		l.buf = l.buf[i+1:]
	}
	return len(p), nil
}

// NopProcess stands in for the engine when none is launched.
type NopProcess struct{}

func (NopProcess) Pid() int              { return 0 }
func (NopProcess) Done() <-chan struct{} { return nil }
func (NopProcess) Kill() error           { return nil }
