package framer

import (
	"errors"
	"io"

	log "github.com/sirupsen/logrus"
)

const ReadBufferSize = 1024

//
// Frame reads r until it is closed and hands the output to the consumer
// in fragments, as described in output_buffer.go.
//
// Fragments are not whole lines. Prompts don't end with a newline,
// so waiting for one would never deliver them.
//
// The consumer is called from a single goroutine, in stream order.
// Frame returns after the last fragment was consumed.
//
func Frame(r io.Reader, consumer func(string)) error {
	buffer, err := NewOutputBuffer(consumer)
	if err != nil {
		return err
	}

	defer buffer.Close()

	chunk := make([]byte, ReadBufferSize)

	for {
		n, err := r.Read(chunk)
		if n > 0 {
			buffer.Append(chunk[0:n])
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				log.Debugf("Stream closed")
				return nil
			}

			//
			// Reading from a PTY master returns EIO once the child has
			// closed its side. For us that is just the end of the stream.
			//
			log.Debugf("Stream read ended with %v", err)
			return nil
		}
	}
}
