package eventlogger

import (
	"os"
	"path/filepath"
)

var DefaultTranscriptPath = filepath.Join(os.TempDir(), "clidriver_transcript.json")

func NewFileLogger(path string) (*Logger, error) {
	if path == "" {
		path = DefaultTranscriptPath
	}

	backend, err := NewFileBackend(path)
	if err != nil {
		return nil, err
	}

	logger, err := NewLogger(backend)
	if err != nil {
		return nil, err
	}

	err = logger.Open()
	if err != nil {
		return nil, err
	}

	return logger, nil
}

func DefaultTestLogger() (*Logger, *InMemoryBackend) {
	backend, err := NewInMemoryBackend()
	if err != nil {
		panic(err)
	}

	logger, err := NewLogger(backend)
	if err != nil {
		panic(err)
	}

	err = logger.Open()
	if err != nil {
		panic(err)
	}

	return logger, backend
}
