//go:build windows
// +build windows

package process

import (
	"fmt"
	"os"
	"os/exec"
)

func StartPTY(command *exec.Cmd) (*os.File, error) {
	return nil, fmt.Errorf("PTY is not supported on windows")
}
