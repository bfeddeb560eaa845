package cli

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/harshaljain-cs/jarvis-go/internal/ports"
)

// LineListener reads utterances line by line from a reader and pushes them
// into a session intake. It is the terminal stand-in for a dictation source:
// a continuous producer that never calls the pipeline directly.
type LineListener struct {
	reader io.Reader
}

// NewLineListener wraps the given reader (stdin for interactive chat).
func NewLineListener(reader io.Reader) *LineListener {
	return &LineListener{reader: reader}
}

// Listen forwards non-empty lines until EOF or ctx cancellation. The reader
// is consumed on a side goroutine so a blocked read never outlives ctx by
// more than one line.
func (l *LineListener) Listen(ctx context.Context, intake chan<- string) error {
	lines := make(chan string)
	errs := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(l.reader)
		for scanner.Scan() {
			text := strings.TrimSpace(scanner.Text())
			if text == "" {
				continue
			}
			select {
			case lines <- text:
			case <-ctx.Done():
				return
			}
		}
		errs <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case text, ok := <-lines:
			if !ok {
				select {
				case err := <-errs:
					return err
				default:
					return nil
				}
			}
			select {
			case intake <- text:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

var _ ports.Listener = (*LineListener)(nil)
