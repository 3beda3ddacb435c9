package autoavsr

import (
	"bufio"
	"context"
	_ "embed"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/skillsenselab/telepathy/internal/errors"
	"github.com/skillsenselab/telepathy/internal/logger"
)

//go:embed runner.py
var runnerScript string

const (
	// workerLineLimit caps a single protocol line from the engine.
	workerLineLimit = 4 << 20
	// closeGrace is how long Close waits at each escalation step.
	closeGrace = 3 * time.Second
)

// workerParams collects everything needed to launch the engine worker.
type workerParams struct {
	Python   string
	Repo     string
	Config   string
	Detector string
	Device   string
	ExtraEnv []string
}

type workerRequest struct {
	ID        int64   `json:"id"`
	Video     string  `json:"video"`
	SpeedRate float64 `json:"speedRate"`
}

type workerResponse struct {
	ID    int64              `json:"id"`
	Event string             `json:"event"`
	Text  string             `json:"text"`
	Trace map[string]float64 `json:"trace"`
	Error string             `json:"error"`
}

// worker is the production Pipeline: one long-lived Python process speaking
// newline-delimited JSON over stdio. The model loads before the ready
// handshake, so construction time covers the load.
type worker struct {
	log        *logger.Logger
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	lines      chan workerResponse
	exited     chan struct{}
	runnerPath string

	mu     sync.Mutex
	nextID int64
	broken bool

	closeOnce sync.Once
}

// startWorker launches the engine process and waits for its handshake.
func startWorker(ctx context.Context, params workerParams, log *logger.Logger) (*worker, error) {
	runnerPath, err := writeRunner()
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(params.Python, runnerPath,
		"--repo", params.Repo,
		"--config", params.Config,
		"--detector", params.Detector,
		"--device", params.Device,
	)
	cmd.Env = append(os.Environ(), params.ExtraEnv...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		os.Remove(runnerPath)
		return nil, fmt.Errorf("engine worker stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		os.Remove(runnerPath)
		return nil, fmt.Errorf("engine worker stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		os.Remove(runnerPath)
		return nil, fmt.Errorf("engine worker stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		os.Remove(runnerPath)
		return nil, fmt.Errorf("starting engine worker: %w", err)
	}

	w := &worker{
		log:        log.WithComponent("engine"),
		cmd:        cmd,
		stdin:      stdin,
		lines:      make(chan workerResponse, 4),
		exited:     make(chan struct{}),
		runnerPath: runnerPath,
	}

	var readers sync.WaitGroup
	readers.Add(2)
	go w.readStdout(stdout, &readers)
	go w.readStderr(stderr, &readers)
	go func() {
		readers.Wait()
		_ = cmd.Wait()
		os.Remove(runnerPath)
		close(w.exited)
	}()

	if err := w.awaitReady(ctx); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}

// awaitReady consumes the handshake. Model load happens on the other side
// of this wait, so there is no deadline beyond the caller's context.
func (w *worker) awaitReady(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("engine worker startup canceled: %w", ctx.Err())
		case resp, ok := <-w.lines:
			if !ok {
				return fmt.Errorf("engine worker exited before it was ready")
			}
			switch resp.Event {
			case "ready":
				return nil
			case "fatal":
				return fmt.Errorf("engine worker failed to load the model: %s", resp.Error)
			default:
				// Stray pre-handshake output; keep waiting.
			}
		}
	}
}

// Infer sends one request and waits for its reply. Replies for abandoned
// requests are skipped by id so a timed-out inference cannot poison the
// next call.
func (w *worker) Infer(ctx context.Context, videoPath string, speedRate float64) (string, map[string]float64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.broken {
		return "", nil, errors.BackendUnavailable("The transcription engine is not running.")
	}

	w.nextID++
	id := w.nextID
	payload, err := json.Marshal(workerRequest{ID: id, Video: videoPath, SpeedRate: speedRate})
	if err != nil {
		return "", nil, errors.Internal(err)
	}
	if _, err := w.stdin.Write(append(payload, '\n')); err != nil {
		w.broken = true
		return "", nil, errors.Inference("the engine worker is no longer accepting requests").WithCause(err)
	}

	for {
		select {
		case <-ctx.Done():
			if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
				return "", nil, errors.Inference("the engine did not respond before the deadline")
			}
			return "", nil, ctx.Err()
		case resp, ok := <-w.lines:
			if !ok {
				w.broken = true
				return "", nil, errors.Inference("the engine worker exited during inference")
			}
			if resp.Event != "" || resp.ID < id {
				continue
			}
			if resp.ID > id {
				w.broken = true
				return "", nil, errors.Inference("the engine protocol desynchronized").
					WithDetail("expected_id", id).
					WithDetail("got_id", resp.ID)
			}
			if resp.Error != "" {
				return "", nil, errors.Inference(resp.Error)
			}
			return resp.Text, resp.Trace, nil
		}
	}
}

// Close shuts the worker down. Closing stdin lets the runner exit on its
// own; the process group is signaled if it lingers.
func (w *worker) Close() {
	w.closeOnce.Do(func() {
		_ = w.stdin.Close()
		select {
		case <-w.exited:
			return
		case <-time.After(closeGrace):
		}
		w.killGroup(syscall.SIGTERM)
		select {
		case <-w.exited:
			return
		case <-time.After(closeGrace):
		}
		w.killGroup(syscall.SIGKILL)
		<-w.exited
	})
}

func (w *worker) killGroup(sig syscall.Signal) {
	if w.cmd.Process != nil {
		_ = syscall.Kill(-w.cmd.Process.Pid, sig)
	}
}

func (w *worker) readStdout(r io.Reader, wg *sync.WaitGroup) {
	defer wg.Done()
	defer close(w.lines)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), workerLineLimit)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var resp workerResponse
		if err := json.Unmarshal([]byte(line), &resp); err != nil {
			// Model code sometimes prints straight to stdout; only
			// protocol objects move forward.
			w.log.Debug("discarding non-protocol engine output", logger.Fields("line", line))
			continue
		}
		w.lines <- resp
	}
}

func (w *worker) readStderr(r io.Reader, wg *sync.WaitGroup) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), workerLineLimit)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t")
		if line == "" {
			continue
		}
		w.log.Debug(line)
	}
}

func writeRunner() (string, error) {
	f, err := os.CreateTemp("", "telepathy-runner-*.py")
	if err != nil {
		return "", fmt.Errorf("writing engine runner: %w", err)
	}
	if _, err := f.WriteString(runnerScript); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("writing engine runner: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("writing engine runner: %w", err)
	}
	return f.Name(), nil
}
