package simulator

import (
	"bytes"
	"context"
	"os"
	"os/exec"

	"github.com/hupe1980/devicemesh/core"
)

// Process is a started external process under the target's control.
type Process interface {
	// Interrupt sends SIGINT, asking the process to finish gracefully.
	Interrupt() error
	// Kill forcibly terminates the process.
	Kill() error
	// Wait blocks until the process exits.
	Wait() error
}

// commandRunner abstracts process execution so tests can fake the Xcode
// tools. Output runs to completion and captures stdout; Start launches a
// long-lived process and returns control immediately.
type commandRunner interface {
	Output(ctx context.Context, env []string, name string, args ...string) ([]byte, error)
	Start(ctx context.Context, env []string, name string, args ...string) (Process, error)
}

// execRunner is the production commandRunner on top of os/exec.
type execRunner struct{}

func (execRunner) Output(ctx context.Context, env []string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := stderr.String()
		if msg == "" {
			msg = err.Error()
		}
		return nil, core.NewDeviceError(name, msg)
	}
	return stdout.Bytes(), nil
}

func (execRunner) Start(ctx context.Context, env []string, name string, args ...string) (Process, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	if err := cmd.Start(); err != nil {
		return nil, core.WrapDeviceError(name, err)
	}
	return &execProcess{cmd: cmd}, nil
}

type execProcess struct {
	cmd *exec.Cmd
}

func (p *execProcess) Interrupt() error { return p.cmd.Process.Signal(os.Interrupt) }
func (p *execProcess) Kill() error      { return p.cmd.Process.Kill() }
func (p *execProcess) Wait() error      { return p.cmd.Wait() }
