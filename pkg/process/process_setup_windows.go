//go:build windows
// +build windows

package process

import (
	"errors"
	"os"
	"syscall"

	"golang.org/x/sys/windows"
)

const supportsPTY = false

func (p *Process) setup() {
	p.Cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: windows.CREATE_UNICODE_ENVIRONMENT | windows.CREATE_NEW_PROCESS_GROUP,
	}
}

func shellCommand() (string, []string) {
	return "cmd", []string{"/C"}
}

func (p *Process) Terminate() error {
	if p.Cmd.Process == nil {
		return nil
	}

	err := p.Cmd.Process.Kill()
	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}

	return nil
}
