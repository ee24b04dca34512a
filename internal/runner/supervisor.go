package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"esparcraft/internal/console"
	"esparcraft/internal/jvm"
	"esparcraft/internal/logger"
	"esparcraft/internal/session"
)

var (
	ErrJavaNotFound  = errors.New("java runtime not found")
	ErrJarNotFound   = errors.New("server jar not found")
	ErrNotRunning    = errors.New("server is not running")
	ErrUnknownServer = errors.New("unknown server")
)

const (
	lineStarting = "SYSTEM: Iniciando servidor..."
	lineNoJava   = "ERROR: Java no encontrado. Instala Java o configura JAVA_HOME."
	lineStopping = "SYSTEM: Deteniéndose..."
	lineKilled   = "ERROR: Servidor finalizado forzosamente"

	killWait = 10 * time.Second
)

var newPipe = os.Pipe

type Options struct {
	// StopTimeout is how long a graceful stop may take before the process is
	// killed. Zero leaves it to the operator.
	StopTimeout time.Duration
	Restart     RestartPolicy
	Decoder     *console.Decoder
	Log         logger.Logger
}

type Supervisor struct {
	registry    *session.Registry
	env         jvm.RuntimeEnvironment
	decoder     *console.Decoder
	log         logger.Logger
	stopTimeout time.Duration
	restart     RestartPolicy

	processes map[string]*activeProcess
	restarts  map[string]*restartState
	closed    bool
	mu        sync.Mutex
}

type activeProcess struct {
	id    string
	cmd   *exec.Cmd
	stdin io.WriteCloser
	run   uint64
	done  chan struct{}

	writeMu       sync.Mutex
	stopRequested atomic.Bool
	killed        atomic.Bool
}

func (p *activeProcess) write(s string) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	_, err := io.WriteString(p.stdin, s)
	return err
}

func NewSupervisor(registry *session.Registry, env jvm.RuntimeEnvironment, opts Options) *Supervisor {
	if opts.Log == nil {
		opts.Log = logger.Noop()
	}
	if opts.Decoder == nil {
		opts.Decoder, _ = console.NewDecoder("utf-8")
	}
	return &Supervisor{
		registry:    registry,
		env:         env,
		decoder:     opts.Decoder,
		log:         opts.Log,
		stopTimeout: opts.StopTimeout,
		restart:     opts.Restart,
		processes:   make(map[string]*activeProcess),
		restarts:    make(map[string]*restartState),
	}
}

func (s *Supervisor) Runtime() jvm.RuntimeEnvironment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.env
}

func (s *Supervisor) SetRuntime(env jvm.RuntimeEnvironment) {
	s.mu.Lock()
	s.env = env
	s.mu.Unlock()
}

func (s *Supervisor) session(id string) (*session.Session, error) {
	sess, ok := s.registry.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownServer, id)
	}
	return sess, nil
}

// Start launches the server. It is a no-op while a process is already owned
// for the session.
func (s *Supervisor) Start(id string) error {
	sess, err := s.session(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("supervisor is shutting down")
	}
	if _, exists := s.processes[id]; exists {
		return nil
	}
	s.cancelRestartLocked(id)
	return s.startLocked(sess)
}

func (s *Supervisor) startLocked(sess *session.Session) error {
	cfg := sess.Config()
	sess.Emit(console.CategorySystem, lineStarting)

	if !s.env.Available() {
		sess.Emit(console.CategoryError, lineNoJava)
		return ErrJavaNotFound
	}
	if jarFull, err := checkJar(cfg); err != nil {
		sess.Emit(console.CategoryError, fmt.Sprintf("ERROR: No se encontró el jar: %s", jarFull))
		return err
	}

	cmd := BuildCommand(s.env.JavaPath, cfg)

	// stdout and stderr share one pipe so lines keep the order the server
	// wrote them in.
	out, pw, err := newPipe()
	if err != nil {
		return fmt.Errorf("console pipe: %w", err)
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	stdin, err := cmd.StdinPipe()
	if err != nil {
		out.Close()
		pw.Close()
		return fmt.Errorf("stdin pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		out.Close()
		pw.Close()
		sess.Emit(console.CategoryError, fmt.Sprintf("ERROR: No se pudo iniciar el proceso: %v", err))
		return fmt.Errorf("failed to start: %w", err)
	}
	pw.Close()

	proc := &activeProcess{
		id:    cfg.ID,
		cmd:   cmd,
		stdin: stdin,
		run:   sess.BeginRun(cmd.Process.Pid, time.Now()),
		done:  make(chan struct{}),
	}
	s.processes[cfg.ID] = proc
	s.registry.PublishState(sess)
	s.log.Info("server process started", "server", cfg.ID, "pid", cmd.Process.Pid, "java", s.env.JavaPath)

	go s.watch(sess, proc, out)
	return nil
}

func (s *Supervisor) watch(sess *session.Session, proc *activeProcess, out *os.File) {
	err := readLines(out, maxLineBytes, func(line []byte) {
		sess.PushLine(proc.run, s.decoder.Line(line))
	})
	if err != nil {
		s.log.Debug("console read failed", "server", proc.id, "error", err)
		_, _ = io.Copy(io.Discard, out)
	}
	out.Close()

	code := exitCode(proc.cmd.Wait())
	sess.PushExit(proc.run, code)

	s.mu.Lock()
	if s.processes[proc.id] == proc {
		delete(s.processes, proc.id)
	}
	crashed := code != 0 && !proc.stopRequested.Load() && !proc.killed.Load()
	if crashed && sess.Config().AutoRestart && !s.closed {
		s.scheduleRestartLocked(sess)
	}
	s.mu.Unlock()

	close(proc.done)
	s.log.Info("server process exited", "server", proc.id, "code", code)
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

func (s *Supervisor) scheduleRestartLocked(sess *session.Session) {
	id := sess.ID()
	st, ok := s.restarts[id]
	if !ok {
		st = &restartState{}
		s.restarts[id] = st
	}
	delay, ok := s.restart.next(st, time.Now())
	if !ok {
		sess.Emit(console.CategoryError, fmt.Sprintf("ERROR: Reinicio automático cancelado tras %d fallos", s.restart.Limit))
		s.log.Warn("crash loop detected, auto restart disabled", "server", id)
		return
	}
	sess.Emit(console.CategorySystem, fmt.Sprintf("SYSTEM: Reiniciando en %s...", delay))
	st.timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || st.timer == nil {
			return
		}
		st.timer = nil
		if _, exists := s.processes[id]; exists {
			return
		}
		if err := s.startLocked(sess); err != nil {
			s.log.Warn("auto restart failed", "server", id, "error", err)
		}
	})
}

// cancelRestartLocked drops a pending automatic restart. The crash history
// is kept so a crash loop is still detected across manual starts.
func (s *Supervisor) cancelRestartLocked(id string) {
	if st, ok := s.restarts[id]; ok && st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}
}

func (s *Supervisor) process(id string) (*activeProcess, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	proc, ok := s.processes[id]
	return proc, ok
}

func (s *Supervisor) IsRunning(id string) bool {
	_, ok := s.process(id)
	return ok
}

// Stop asks the server to shut down by sending "stop". It is a no-op when
// nothing runs or a stop is already in progress.
func (s *Supervisor) Stop(id string) error {
	sess, err := s.session(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.cancelRestartLocked(id)
	proc, exists := s.processes[id]
	s.mu.Unlock()
	if !exists {
		return nil
	}
	if !sess.BeginStop(time.Now()) {
		return nil
	}
	proc.stopRequested.Store(true)
	sess.Emit(console.CategorySystem, lineStopping)
	s.registry.PublishState(sess)

	if err := proc.write("stop\n"); err != nil {
		s.log.Debug("stop command not delivered", "server", id, "error", err)
	}
	if s.stopTimeout > 0 {
		go s.escalate(sess, proc, s.stopTimeout)
	}
	return nil
}

func (s *Supervisor) escalate(sess *session.Session, proc *activeProcess, after time.Duration) {
	timer := time.NewTimer(after)
	defer timer.Stop()
	select {
	case <-proc.done:
		return
	case <-timer.C:
	}
	sess.Emit(console.CategoryError, fmt.Sprintf("ERROR: El servidor no se detuvo en %s, se finalizará", after))
	s.log.Warn("graceful stop timed out", "server", proc.id, "timeout", after)
	s.kill(sess, proc)
}

func (s *Supervisor) Kill(id string) error {
	sess, err := s.session(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.cancelRestartLocked(id)
	proc, exists := s.processes[id]
	s.mu.Unlock()
	if !exists {
		return ErrNotRunning
	}
	s.kill(sess, proc)
	return nil
}

func (s *Supervisor) kill(sess *session.Session, proc *activeProcess) {
	if proc.killed.Swap(true) {
		select {
		case <-proc.done:
		case <-time.After(killWait):
		}
		return
	}
	sess.MarkKilled(time.Now())
	sess.Emit(console.CategoryError, lineKilled)
	s.registry.PublishState(sess)

	if err := proc.cmd.Process.Kill(); err != nil {
		s.log.Debug("kill failed", "server", proc.id, "error", err)
	}
	select {
	case <-proc.done:
	case <-time.After(killWait):
		s.log.Warn("process did not exit after kill", "server", proc.id)
	}
}

// SendCommand writes one console command. Delivery is best effort: write
// errors are logged, not returned.
func (s *Supervisor) SendCommand(id string, command string) error {
	sess, err := s.session(id)
	if err != nil {
		return err
	}
	proc, ok := s.process(id)
	if !ok {
		return ErrNotRunning
	}
	command = strings.TrimRight(command, "\r\n")
	if strings.TrimSpace(command) == "" {
		return nil
	}
	sess.Emit(console.CategoryCommand, "> "+command)
	if err := proc.write(command + "\n"); err != nil {
		s.log.Debug("command not delivered", "server", id, "error", err)
	}
	return nil
}

// StopAll stops every server gracefully and kills whatever is still alive
// when ctx ends. No automatic restarts happen afterwards.
func (s *Supervisor) StopAll(ctx context.Context) {
	s.mu.Lock()
	s.closed = true
	procs := make([]*activeProcess, 0, len(s.processes))
	for id, proc := range s.processes {
		s.cancelRestartLocked(id)
		procs = append(procs, proc)
	}
	s.mu.Unlock()

	for _, proc := range procs {
		if err := s.Stop(proc.id); err != nil {
			s.log.Warn("stop failed", "server", proc.id, "error", err)
		}
	}
	for _, proc := range procs {
		select {
		case <-proc.done:
		case <-ctx.Done():
			if sess, err := s.session(proc.id); err == nil {
				s.kill(sess, proc)
			}
		}
	}
}
