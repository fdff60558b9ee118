package process

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
)

// ErrStreamClosed is returned when writing to a process that already exited.
var ErrStreamClosed = errors.New("stream closed")

type Config struct {
	Command string
	Args    []string
	Dir     string
	Env     *Environment

	// UseShell runs the command line through sh -c (cmd /C on windows).
	UseShell bool

	// NoPTY uses plain pipes instead of a pseudo terminal.
	// On windows, pipes are always used.
	NoPTY bool
}

type Process struct {
	Config Config
	Cmd    *exec.Cmd
	TTY    *os.File

	stdout io.Reader
	stderr io.Reader
	stdin  io.WriteCloser

	exitSignal chan struct{}
	exitCode   int
	closeOnce  sync.Once
}

func Start(config Config) (*Process, error) {
	if config.Command == "" {
		return nil, fmt.Errorf("process requires a command")
	}

	p := &Process{
		Config:     config,
		Cmd:        buildCommand(config),
		exitSignal: make(chan struct{}),
		exitCode:   -1,
	}

	var err error
	if config.NoPTY || !supportsPTY {
		err = p.startWithPipes()
	} else {
		err = p.startWithPTY()
	}

	if err != nil {
		log.Errorf("Failed to start %s: %v", p.CommandLine(), err)
		return nil, err
	}

	log.Debugf("Started %s with pid %d", p.CommandLine(), p.Cmd.Process.Pid)

	p.waitForExit()

	return p, nil
}

func buildCommand(config Config) *exec.Cmd {
	var cmd *exec.Cmd

	if config.UseShell {
		name, args := shellCommand()
		cmd = exec.Command(name, append(args, commandLine(config.Command, config.Args))...)
	} else {
		cmd = exec.Command(config.Command, config.Args...)
	}

	cmd.Dir = config.Dir
	if config.Env != nil {
		cmd.Env = config.Env.ToSlice()
	}

	return cmd
}

func commandLine(command string, args []string) string {
	parts := []string{command}
	for _, arg := range args {
		parts = append(parts, shellQuote(arg))
	}

	return strings.Join(parts, " ")
}

func (p *Process) CommandLine() string {
	return commandLine(p.Config.Command, p.Config.Args)
}

func (p *Process) startWithPTY() error {
	tty, err := StartPTY(p.Cmd)
	if err != nil {
		return err
	}

	// The terminal merges stdout and stderr into one stream.
	p.TTY = tty
	p.stdout = tty
	p.stdin = tty

	return nil
}

/*
 * We create the pipes ourselves instead of using cmd.StdoutPipe(),
 * because Wait() closes those as soon as the process exits, and we
 * would lose whatever output was not read yet.
 */
func (p *Process) startWithPipes() error {
	p.setup()

	stdoutReader, stdoutWriter, err := os.Pipe()
	if err != nil {
		return err
	}

	stderrReader, stderrWriter, err := os.Pipe()
	if err != nil {
		_ = stdoutReader.Close()
		_ = stdoutWriter.Close()
		return err
	}

	stdin, err := p.Cmd.StdinPipe()
	if err != nil {
		closeAll(stdoutReader, stdoutWriter, stderrReader, stderrWriter)
		return err
	}

	p.Cmd.Stdout = stdoutWriter
	p.Cmd.Stderr = stderrWriter

	err = p.Cmd.Start()

	// The child has its own copies now.
	closeAll(stdoutWriter, stderrWriter)

	if err != nil {
		closeAll(stdoutReader, stderrReader)
		return err
	}

	p.stdout = stdoutReader
	p.stderr = stderrReader
	p.stdin = stdin

	return nil
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}

func (p *Process) waitForExit() {
	go func() {
		err := p.Cmd.Wait()

		msg := "no exit message"
		if err != nil {
			msg = err.Error()
		}

		if p.Cmd.ProcessState != nil {
			p.exitCode = p.Cmd.ProcessState.ExitCode()
		}

		log.Debugf("Process %d exited with %s (exit code %d)", p.Cmd.Process.Pid, msg, p.exitCode)
		close(p.exitSignal)
	}()
}

func (p *Process) Stdout() io.Reader {
	return p.stdout
}

// Stderr is nil in PTY mode.
func (p *Process) Stderr() io.Reader {
	return p.stderr
}

func (p *Process) Done() <-chan struct{} {
	return p.exitSignal
}

// Wait blocks until the process exits and returns its exit code.
// Processes killed by a signal report -1.
func (p *Process) Wait() int {
	<-p.exitSignal
	return p.exitCode
}

func (p *Process) Exited() bool {
	select {
	case <-p.exitSignal:
		return true
	default:
		return false
	}
}

// Send writes text and a line terminator to the process input.
func (p *Process) Send(text string) error {
	if p.Exited() {
		return fmt.Errorf("%w: process already exited", ErrStreamClosed)
	}

	done := make(chan error, 1)

	go func() {
		_, err := p.stdin.Write([]byte(text + "\n"))
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStreamClosed, err)
		}

		return nil
	case <-p.exitSignal:
		select {
		case err := <-done:
			if err == nil {
				return nil
			}
		default:
		}

		return fmt.Errorf("%w: process exited while writing", ErrStreamClosed)
	}
}

// Close releases the terminal and pipes. It doesn't stop the process.
func (p *Process) Close() error {
	var err error

	p.closeOnce.Do(func() {
		if p.TTY != nil {
			err = p.TTY.Close()
			return
		}

		if p.stdin != nil {
			_ = p.stdin.Close()
		}

		for _, r := range []io.Reader{p.stdout, p.stderr} {
			if f, ok := r.(*os.File); ok {
				_ = f.Close()
			}
		}
	})

	if err != nil {
		log.Errorf("Closing the TTY returned an error: %v", err)
	}

	return err
}
