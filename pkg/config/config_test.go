package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test__ValidateKeys(t *testing.T) {
	assert.Nil(t, ValidateKeys([]string{Token, StepTimeout, NoPTY}))
	assert.Nil(t, ValidateKeys(ValidConfigKeys))
	assert.ErrorContains(t, ValidateKeys([]string{Token, "endpoint"}), "unrecognized option 'endpoint'")
}

func Test__CheckFileExists(t *testing.T) {
	assert.Nil(t, CheckFileExists(""))

	path := filepath.Join(t.TempDir(), "export.yml")
	assert.NotNil(t, CheckFileExists(path))

	assert.Nil(t, os.WriteFile(path, []byte("steps: []"), 0600))
	assert.Nil(t, CheckFileExists(path))
}
