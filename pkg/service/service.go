// Package service manages the virtual lab process that the live case
// study depends on. The lab is started before the experiment's first
// invocation, confirmed ready by polling its health endpoint, and
// always stopped when the experiment ends or the run aborts.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/exec"
	"time"
)

// ErrNotReady is returned when the lab never became ready within the
// readiness timeout.
var ErrNotReady = errors.New("lab service did not become ready")

const (
	defaultReadyTimeout = 2 * time.Minute
	defaultPollInterval = 2 * time.Second
	probeTimeout        = 5 * time.Second
)

// Lab wraps the background service process.
type Lab struct {
	Cmd      []string
	ReadyURL string

	// StartupWait is the degraded-mode fallback: a fixed sleep used
	// only when no readiness URL is configured.
	StartupWait time.Duration

	// Zero values select the defaults.
	ReadyTimeout time.Duration
	PollInterval time.Duration

	proc *exec.Cmd
}

// Start launches the lab and blocks until it is ready or the readiness
// timeout expires. On readiness failure the process is stopped before
// returning.
func (l *Lab) Start(ctx context.Context) error {
	if len(l.Cmd) == 0 {
		return errors.New("no lab command configured")
	}

	l.proc = exec.CommandContext(ctx, l.Cmd[0], l.Cmd[1:]...)
	if err := l.proc.Start(); err != nil {
		l.proc = nil
		return fmt.Errorf("starting lab service: %v", err)
	}
	log.Printf("lab service started (pid %d)", l.proc.Process.Pid)

	if err := l.awaitReady(ctx); err != nil {
		l.Stop()
		return err
	}
	return nil
}

func (l *Lab) awaitReady(ctx context.Context) error {
	if l.ReadyURL == "" {
		// Degraded mode: no readiness signal exists, fall back to a
		// fixed wait.
		log.Printf("lab service has no readiness URL, degrading to a fixed %s wait", l.StartupWait)
		select {
		case <-time.After(l.StartupWait):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	readyTimeout := l.ReadyTimeout
	if readyTimeout == 0 {
		readyTimeout = defaultReadyTimeout
	}
	pollInterval := l.PollInterval
	if pollInterval == 0 {
		pollInterval = defaultPollInterval
	}

	client := &http.Client{Timeout: probeTimeout}
	deadline := time.Now().Add(readyTimeout)
	for time.Now().Before(deadline) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.ReadyURL, nil)
		if err != nil {
			return fmt.Errorf("building readiness probe: %v", err)
		}
		resp, err := client.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				log.Printf("lab service ready at %s", l.ReadyURL)
				return nil
			}
		}

		select {
		case <-time.After(pollInterval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("%w after %s", ErrNotReady, readyTimeout)
}

// Stop terminates the lab process. Safe to call when the lab never
// started or already stopped.
func (l *Lab) Stop() {
	if l.proc == nil || l.proc.Process == nil {
		return
	}
	if err := l.proc.Process.Kill(); err != nil {
		log.Printf("stopping lab service: %v", err)
	}
	l.proc.Wait()
	log.Printf("lab service stopped")
	l.proc = nil
}
