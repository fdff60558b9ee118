package eventlogger

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	log "github.com/sirupsen/logrus"
)

// FileBackend appends one JSON document per line.
type FileBackend struct {
	path string
	file *os.File
	mu   sync.Mutex
}

func NewFileBackend(path string) (*FileBackend, error) {
	if path == "" {
		return nil, fmt.Errorf("file backend requires a path")
	}

	return &FileBackend{path: path}, nil
}

func (l *FileBackend) Path() string {
	return l.path
}

func (l *FileBackend) Open() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	// #nosec
	file, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("error opening transcript %s: %v", l.path, err)
	}

	l.file = file

	return nil
}

func (l *FileBackend) Write(event interface{}) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return fmt.Errorf("transcript %s is not open", l.path)
	}

	jsonString, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("error marshaling event: %v", err)
	}

	_, err = l.file.Write(append(jsonString, '\n'))
	if err != nil {
		return fmt.Errorf("error writing to %s: %v", l.path, err)
	}

	log.Debugf("%s", jsonString)

	return nil
}

func (l *FileBackend) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}

	err := l.file.Close()
	l.file = nil
	return err
}

// Stream writes the lines starting at startLine to writer,
// and returns the index of the next line to read.
func (l *FileBackend) Stream(startLine int, writer io.Writer) (int, error) {
	// #nosec
	fd, err := os.OpenFile(l.path, os.O_RDONLY, os.ModePerm)
	if err != nil {
		return startLine, err
	}

	defer fd.Close()

	reader := bufio.NewReader(fd)
	lineIndex := 0

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				return lineIndex, err
			}

			break
		}

		lineIndex++
		if lineIndex <= startLine {
			continue
		}

		fmt.Fprint(writer, line)
	}

	return lineIndex, nil
}
