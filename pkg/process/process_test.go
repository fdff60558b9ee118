package process

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test__Process__RequiresCommand(t *testing.T) {
	_, err := Start(Config{})
	assert.NotNil(t, err)
}

func Test__Process__PipesAnswerAndExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}

	p, err := Start(Config{
		Command:  `printf 'Token:'; read answer; echo "got $answer"; exit 3`,
		UseShell: true,
		NoPTY:    true,
	})
	require.Nil(t, err)
	defer p.Close()

	assert.Nil(t, p.Send("secret"))

	output, err := io.ReadAll(p.Stdout())
	assert.Nil(t, err)
	assert.Equal(t, "Token:got secret\n", string(output))
	assert.Equal(t, 3, p.Wait())
}

func Test__Process__StderrIsSeparateWithPipes(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}

	p, err := Start(Config{
		Command:  `echo out; echo err 1>&2`,
		UseShell: true,
		NoPTY:    true,
	})
	require.Nil(t, err)
	defer p.Close()

	stdout, _ := io.ReadAll(p.Stdout())
	stderr, _ := io.ReadAll(p.Stderr())

	assert.Equal(t, "out\n", string(stdout))
	assert.Equal(t, "err\n", string(stderr))
	assert.Equal(t, 0, p.Wait())
}

func Test__Process__SendAfterExitIsStreamClosed(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}

	p, err := Start(Config{Command: "true", UseShell: true, NoPTY: true})
	require.Nil(t, err)
	defer p.Close()

	assert.Equal(t, 0, p.Wait())

	err = p.Send("Y")
	assert.True(t, errors.Is(err, ErrStreamClosed))
}

func Test__Process__ShellQuotesArguments(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}

	p, err := Start(Config{
		Command:  "echo",
		Args:     []string{"it's", "a test"},
		UseShell: true,
		NoPTY:    true,
	})
	require.Nil(t, err)
	defer p.Close()

	output, _ := io.ReadAll(p.Stdout())
	assert.Equal(t, "it's a test\n", string(output))
}

func Test__Process__WorkingDirectoryAndEnvironment(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}

	dir := t.TempDir()
	env := HostEnvironment()
	env.Set("CLIDRIVER_TEST_VAR", "hello")

	p, err := Start(Config{
		Command:  `pwd; echo $CLIDRIVER_TEST_VAR`,
		Dir:      dir,
		Env:      env,
		UseShell: true,
		NoPTY:    true,
	})
	require.Nil(t, err)
	defer p.Close()

	output, _ := io.ReadAll(p.Stdout())
	lines := strings.Split(strings.TrimSpace(string(output)), "\n")

	require.Len(t, lines, 2)
	resolved, _ := filepath.EvalSymlinks(dir)
	assert.Contains(t, []string{dir, resolved}, lines[0])
	assert.Equal(t, "hello", lines[1])
}

func Test__Process__PTY(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("PTY is not supported on windows")
	}

	p, err := Start(Config{
		Command:  `stty -echo; printf 'Token:'; read answer; echo "got $answer"`,
		UseShell: true,
	})
	require.Nil(t, err)
	defer p.Close()

	assert.NotNil(t, p.TTY)
	assert.Nil(t, p.Stderr())

	buffer := make([]byte, 1024)
	output := ""
	for !strings.Contains(output, "Token:") {
		n, err := p.Stdout().Read(buffer)
		require.Nil(t, err)
		output += string(buffer[:n])
	}

	assert.Nil(t, p.Send("secret"))

	rest, _ := io.ReadAll(p.Stdout())
	assert.Contains(t, string(rest), "got secret")
	assert.Equal(t, 0, p.Wait())
}

func Test__Process__Terminate(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}

	p, err := Start(Config{Command: "sleep 30", UseShell: true, NoPTY: true})
	require.Nil(t, err)
	defer p.Close()

	assert.Nil(t, p.Terminate())

	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("process was not terminated")
	}

	assert.Equal(t, -1, p.Wait())
}

func Test__ProjectEnvironment__PrependsNodeModulesBin(t *testing.T) {
	env := ProjectEnvironment("/projects/app")

	pathKey := "PATH"
	if runtime.GOOS == "windows" {
		pathKey = "Path"
	}

	path, ok := env.Get(pathKey)
	assert.True(t, ok)
	assert.True(t, strings.HasPrefix(path, filepath.Join("/projects/app", "node_modules", ".bin")))

	if hostPath := os.Getenv(pathKey); hostPath != "" {
		assert.True(t, strings.HasSuffix(path, string(os.PathListSeparator)+hostPath))
	}
}

func Test__Environment(t *testing.T) {
	env := CreateEnvironment([]string{"B=2", "A=1", "INVALID", "C=x=y"})

	assert.Equal(t, []string{"A", "B", "C"}, env.Keys())
	assert.Equal(t, []string{"A=1", "B=2", "C=x=y"}, env.ToSlice())

	other := CreateEnvironment([]string{"A=override", "D=4"})
	env.Append(other)
	v, _ := env.Get("A")
	assert.Equal(t, "override", v)

	env.Remove("D")
	_, ok := env.Get("D")
	assert.False(t, ok)
	assert.False(t, env.IsEmpty())
}

func Test__ShellQuote(t *testing.T) {
	assert.Equal(t, "''", shellQuote(""))
	assert.Equal(t, ".", shellQuote("."))
	assert.Equal(t, "'a b'", shellQuote("a b"))
	assert.Equal(t, `'it'"'"'s'`, shellQuote("it's"))
}
