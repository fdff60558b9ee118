//go:build !windows
// +build !windows

package osinfo

import (
	"os"
	"os/exec"
	"runtime"
	"strings"
)

func Name() string {
	switch runtime.GOOS {
	case "linux":
		return nameLinux()
	case "darwin":
		return nameMac()
	default:
		return runtime.GOOS
	}
}

func nameMac() string {
	parts := []string{}

	for _, flag := range []string{"-productName", "-productVersion", "-buildVersion"} {
		out, err := exec.Command("sw_vers", flag).Output()
		if err != nil {
			return "macOS"
		}

		parts = append(parts, strings.TrimSpace(string(out)))
	}

	return strings.Join(parts, " ")
}

func nameLinux() string {
	for _, path := range []string{"/etc/os-release", "/etc/lsb-release"} {
		// #nosec
		content, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		if name, ok := releaseValue(string(content), "PRETTY_NAME"); ok {
			return name
		}

		if name, ok := releaseValue(string(content), "NAME"); ok {
			return name
		}
	}

	return "Linux"
}

//
// os-release is a list of KEY=value lines, e.g:
//
//   NAME="Ubuntu"
//   PRETTY_NAME="Ubuntu 22.04.3 LTS"
//   VERSION_ID="22.04"
//
func releaseValue(content, key string) (string, bool) {
	for _, line := range strings.Split(content, "\n") {
		value, found := strings.CutPrefix(line, key+"=")
		if !found || value == "" {
			continue
		}

		return strings.Trim(value, `"`), true
	}

	return "", false
}

