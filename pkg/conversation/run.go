package conversation

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/semaphoreci/clidriver/pkg/framer"
)

// Subprocess is the part of a running process a conversation needs.
// Stderr may return nil when the process has a single output stream.
type Subprocess interface {
	Injector
	Stdout() io.Reader
	Stderr() io.Reader
	Wait() int
}

type eventKind int

const (
	stdoutEvent eventKind = iota
	stderrEvent
	exitEvent
)

type event struct {
	kind     eventKind
	text     string
	exitCode int
}

//
// Run drives the conversation until it reaches a terminal state.
//
// Both output streams are framed on their own goroutines, but every
// fragment goes through one channel and is handled here, one at a time.
// The exit event is only published once both streams are drained, so
// the last words of the process are always seen before its exit code.
//
// Run does not stop the process. The caller owns it, and should
// terminate it if the conversation did not complete.
//
// The returned error is only set when writing to the process failed,
// or when ctx was cancelled. Every other outcome is in the Result.
//
func (d *Driver) Run(ctx context.Context, sub Subprocess) (Result, error) {
	if d.injector == nil {
		d.injector = sub
	}

	events := make(chan event)
	stop := make(chan struct{})
	defer close(stop)

	publish := func(e event) {
		select {
		case events <- e:
		case <-stop:
		}
	}

	var streams sync.WaitGroup

	frame := func(kind eventKind, r io.Reader) {
		defer streams.Done()

		_ = framer.Frame(r, func(fragment string) {
			publish(event{kind: kind, text: fragment})
		})
	}

	streams.Add(1)
	go frame(stdoutEvent, sub.Stdout())

	if stderr := sub.Stderr(); stderr != nil {
		streams.Add(1)
		go frame(stderrEvent, stderr)
	}

	go func() {
		streams.Wait()
		publish(event{kind: exitEvent, exitCode: sub.Wait()})
	}()

	timer, timeouts := d.newStepTimer()

	for !d.state.Terminal() {
		select {
		case <-ctx.Done():
			d.fail(ReasonCancelled, ctx.Err())
		case <-timeouts:
			d.HandleTimeout()
		case e := <-events:
			switch e.kind {
			case stdoutEvent:
				d.HandleStdout(e.text)
			case stderrEvent:
				d.HandleStderr(e.text)
			case exitEvent:
				d.HandleExit(e.exitCode)
			}
		}

		if d.consumeProgress() && timer != nil {
			resetTimer(timer, d.options.StepTimeout)
		}
	}

	if timer != nil {
		timer.Stop()
	}

	result := d.Result()

	switch result.Reason {
	case ReasonStreamClosed, ReasonCancelled:
		return result, result.Err
	default:
		return result, nil
	}
}

func (d *Driver) newStepTimer() (*time.Timer, <-chan time.Time) {
	if d.options.StepTimeout <= 0 {
		return nil, nil
	}

	timer := time.NewTimer(d.options.StepTimeout)
	return timer, timer.C
}

func resetTimer(timer *time.Timer, timeout time.Duration) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}

	timer.Reset(timeout)
}

// IsCancelled tells if err came from a cancelled or expired context.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
