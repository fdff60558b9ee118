package testsupport

import (
	"io"
	"os"
	"path/filepath"

	"github.com/semaphoreci/clidriver/pkg/eventlogger"
	log "github.com/sirupsen/logrus"
)

// SetupTestLogs sends debug logs to stdout and to a file in the temp directory.
func SetupTestLogs() {
	// #nosec
	path := filepath.Join(os.TempDir(), "clidriver_test.log")
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		log.Fatalf("error opening test log file: %v", err)
	}

	log.SetOutput(io.MultiWriter(os.Stdout, f))
	log.SetFormatter(&eventlogger.CustomFormatter{Name: "test"})
	log.SetLevel(log.DebugLevel)
}
