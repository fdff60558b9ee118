package testsupport

import (
	"os"
	"path/filepath"
)

// WriteExecutable writes a shell script named name into dir.
func WriteExecutable(dir, name, body string) (string, error) {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, name)

	// #nosec
	err = os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755)
	if err != nil {
		return "", err
	}

	return path, nil
}
