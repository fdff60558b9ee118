package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

type Options struct {
	Task        string
	MaxAttempts int
	Delay       time.Duration
	Fn          func() error

	// Quiet doesn't log failed attempts.
	Quiet bool
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks an error that retrying won't fix.
// Do returns it right away, unwrapped.
func Permanent(err error) error {
	if err == nil {
		return nil
	}

	return &permanentError{err: err}
}

func Do(options Options) error {
	return DoWithContext(context.Background(), options)
}

func DoWithContext(ctx context.Context, options Options) error {
	if options.Fn == nil {
		return fmt.Errorf("options.Fn cannot be nil")
	}

	for attempt := 1; ; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := options.Fn()
		if err == nil {
			return nil
		}

		var permanent *permanentError
		if errors.As(err, &permanent) {
			return permanent.err
		}

		if attempt >= options.MaxAttempts {
			return fmt.Errorf("[%s] failed after [%d] attempts - giving up: %v", options.Task, attempt, err)
		}

		if !options.Quiet {
			log.Warnf("[%s] attempt [%d] failed with [%v] - retrying in %s", options.Task, attempt, err, options.Delay)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(options.Delay):
		}
	}
}
