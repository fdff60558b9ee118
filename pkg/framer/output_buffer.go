package framer

import (
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/semaphoreci/clidriver/pkg/retry"
	log "github.com/sirupsen/logrus"
)

//
// The output is buffered in the outputBuffer as it comes in from the
// subprocess streams.
//
// We flush a fragment to the consumer when:
//
// - there are at least 100 bytes in the buffer
//
// - there are less than 100 bytes in the buffer, but nothing was appended
//   for 100 milliseconds. Interactive prompts usually end without a newline,
//   and the CLI stops writing while it waits for an answer, so the idle
//   window is what delivers a prompt in one piece.
//
// - the UTF-8 sequence is complete. Cutting it in half would corrupt
//   the text we are matching against.
//

const OutputBufferMaxTimeSinceLastAppend = 100 * time.Millisecond
const OutputBufferDefaultCutLength = 100

type OutputBuffer struct {
	Consumer   func(string)
	bytes      []byte
	mu         sync.Mutex
	done       bool
	stopped    chan struct{}
	lastAppend *time.Time
}

func NewOutputBuffer(consumer func(string)) (*OutputBuffer, error) {
	if consumer == nil {
		return nil, fmt.Errorf("output buffer requires a consumer")
	}

	b := &OutputBuffer{
		Consumer: consumer,
		bytes:    []byte{},
		stopped:  make(chan struct{}),
	}

	go b.Flush()

	return b, nil
}

func (b *OutputBuffer) Append(bytes []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.lastAppend = &now
	b.bytes = append(b.bytes, bytes...)
}

func (b *OutputBuffer) IsEmpty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.bytes) == 0
}

func (b *OutputBuffer) isDone() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.done
}

func (b *OutputBuffer) Flush() {
	defer close(b.stopped)

	backoffStrategy := b.exponentialBackoff()

	for {
		if b.isDone() {
			log.Debugf("The output buffer was closed - stopping")
			break
		}

		/*
		 * The exponential backoff strategy for ticks is only used
		 * when the buffer is empty, to make sure we don't continuously
		 * check the buffer if it has been empty for a while.
		 */
		if b.IsEmpty() {
			time.Sleep(backoffStrategy.NextBackOff())
			continue
		}

		b.flush(false)
		backoffStrategy.Reset()
	}
}

func (b *OutputBuffer) flush(force bool) {
	b.mu.Lock()

	if len(b.bytes) == 0 {
		b.mu.Unlock()
		return
	}

	timeSinceLastAppend := b.timeSinceLastAppend()

	/*
	 * If there's recent, but not enough data in the buffer, we don't yet flush.
	 * We don't use the backoff strategy while waiting here,
	 * because we should respect the maximum of 100ms for data in the buffer.
	 */
	if !force && len(b.bytes) < OutputBufferDefaultCutLength && timeSinceLastAppend < OutputBufferMaxTimeSinceLastAppend {
		b.mu.Unlock()
		time.Sleep(10 * time.Millisecond)
		return
	}

	cutLength := OutputBufferDefaultCutLength
	if len(b.bytes) < cutLength {
		cutLength = len(b.bytes)
	}

	/*
	 * We don't want to cut in the middle of an UTF-8 sequence.
	 *
	 * An UTF-8 sequence can't be longer than 4 bytes, so we drop at most
	 * 3 trailing bytes until the cut is valid. If the stream is closed and
	 * everything fits in one fragment, the remaining bytes are all we will
	 * ever get, so we don't adjust the cut.
	 */
	if !force || cutLength == OutputBufferDefaultCutLength {
		for i := 0; i < 4; i++ {
			if utf8.Valid(b.bytes[0:cutLength]) {
				break
			}

			cutLength--
		}
	}

	if cutLength <= 0 {
		b.mu.Unlock()
		return
	}

	bytes := make([]byte, cutLength)
	copy(bytes, b.bytes[0:cutLength])
	b.bytes = b.bytes[cutLength:]
	b.mu.Unlock()

	output := strings.Replace(string(bytes), "\r\n", "\n", -1)
	log.Debugf("%d bytes flushed: %q", len(bytes), output)
	b.Consumer(output)
}

func (b *OutputBuffer) exponentialBackoff() *backoff.ExponentialBackOff {
	e := backoff.NewExponentialBackOff()

	/*
	 * We start with a 10ms interval between ticks, but cap the delay
	 * at 100ms, since a prompt waiting in an empty buffer stalls
	 * the whole conversation.
	 */
	e.InitialInterval = 10 * time.Millisecond
	e.MaxInterval = OutputBufferMaxTimeSinceLastAppend

	// We don't ever want the strategy to return backoff.Stop.
	e.MaxElapsedTime = 0

	e.Reset()

	return e
}

func (b *OutputBuffer) timeSinceLastAppend() time.Duration {
	if b.lastAppend != nil {
		return time.Since(*b.lastAppend)
	}

	return time.Millisecond
}

// Close stops the flushing goroutine and hands everything
// left in the buffer to the consumer.
func (b *OutputBuffer) Close() {
	b.mu.Lock()
	b.done = true
	b.mu.Unlock()

	<-b.stopped

	log.Debugf("Waiting for buffer to be completely flushed...")
	err := retry.Do(retry.Options{
		Task:        "wait for all output to be flushed",
		MaxAttempts: 100,
		Delay:       time.Millisecond,
		Quiet:       true,
		Fn: func() error {
			b.flush(true)
			if b.IsEmpty() {
				return nil
			}

			return fmt.Errorf("not fully flushed")
		},
	})

	if err != nil {
		log.Error("Could not flush all the output in the buffer")
	}
}
