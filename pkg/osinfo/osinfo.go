package osinfo

import (
	"os"
	"runtime"
)

// Info describes the machine a conversation runs on.
// It is reported by the status endpoint.
type Info struct {
	OS       string `json:"os"`
	Arch     string `json:"arch"`
	Hostname string `json:"hostname"`
}

func Collect() Info {
	return Info{
		OS:       Name(),
		Arch:     Arch(),
		Hostname: Hostname(),
	}
}

func Hostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return ""
	}

	return hostname
}

func Arch() string {
	switch runtime.GOARCH {
	case "amd64":
		return "x86_64"

	case "386":
		return "x86"

	default:
		return runtime.GOARCH
	}
}
