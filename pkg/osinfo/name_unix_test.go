//go:build !windows
// +build !windows

package osinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test__ReleaseValue(t *testing.T) {
	content := "NAME=\"Ubuntu\"\nVERSION_ID=22.04\nPRETTY_NAME=\"Ubuntu 22.04.3 LTS\"\n"

	value, ok := releaseValue(content, "PRETTY_NAME")
	assert.True(t, ok)
	assert.Equal(t, "Ubuntu 22.04.3 LTS", value)

	value, ok = releaseValue(content, "VERSION_ID")
	assert.True(t, ok)
	assert.Equal(t, "22.04", value)

	_, ok = releaseValue(content, "ID_LIKE")
	assert.False(t, ok)
}
