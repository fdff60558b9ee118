package config

import (
	"fmt"
	"os"
	"time"
)

const (
	ConfigFile        = "config-file"
	CLIPath           = "cli-path"
	Project           = "project"
	Token             = "token"
	StepTimeout       = "step-timeout"
	NoPTY             = "no-pty"
	ExportScript      = "export-script"
	LogoutScript      = "logout-script"
	VersionConstraint = "version-constraint"
	Transcript        = "transcript"
	LogFile           = "log-file"
	Debug             = "debug"
	Yes               = "yes"
	Host              = "host"
	Port              = "port"
	AuthTokenSecret   = "auth-token-secret"
	StatsdHost        = "statsd-host"
	StatsdPort        = "statsd-port"
	StatsdPrefix      = "statsd-prefix"
)

// EnvPrefix is prepended to every key when read from the environment,
// e.g. CLIDRIVER_TOKEN or CLIDRIVER_STEP_TIMEOUT.
const EnvPrefix = "CLIDRIVER"

const (
	DefaultStepTimeout  = 2 * time.Minute
	DefaultHost         = "127.0.0.1"
	DefaultPort         = 8000
	DefaultStatsdPort   = "8125"
	DefaultStatsdPrefix = "clidriver"
)

var ValidConfigKeys = []string{
	ConfigFile,
	CLIPath,
	Project,
	Token,
	StepTimeout,
	NoPTY,
	ExportScript,
	LogoutScript,
	VersionConstraint,
	Transcript,
	LogFile,
	Debug,
	Yes,
	Host,
	Port,
	AuthTokenSecret,
	StatsdHost,
	StatsdPort,
	StatsdPrefix,
}

// ValidateKeys fails on the first key that isn't a known option.
func ValidateKeys(keys []string) error {
	for _, key := range keys {
		if !contains(ValidConfigKeys, key) {
			return fmt.Errorf("unrecognized option '%s'", key)
		}
	}

	return nil
}

// CheckFileExists is used for the optional script override files.
func CheckFileExists(path string) error {
	if path == "" {
		return nil
	}

	_, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("error reading %s: %v", path, err)
	}

	return nil
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}

	return false
}
