//go:build !windows
// +build !windows

package process

import (
	"errors"
	"os"
	"syscall"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// PTY mode is the default on non-windows systems.
const supportsPTY = true

/*
 * The CLI is started in its own process group, so terminating
 * the conversation also takes down whatever the CLI spawned.
 * In PTY mode the child becomes a session leader instead, which gives us
 * the same process group, so setup is only used for pipes.
 */
func (p *Process) setup() {
	p.Cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func shellCommand() (string, []string) {
	return "sh", []string{"-c"}
}

func (p *Process) Terminate() error {
	if p.Cmd.Process == nil {
		return nil
	}

	pid := p.Cmd.Process.Pid
	log.Debugf("Terminating process group %d", pid)

	err := unix.Kill(-pid, unix.SIGKILL)
	if err != nil && !errors.Is(err, unix.ESRCH) {
		log.Debugf("Killing process group %d failed: %v - killing the process", pid, err)

		err = p.Cmd.Process.Kill()
		if err != nil && !errors.Is(err, os.ErrProcessDone) {
			return err
		}
	}

	return nil
}
