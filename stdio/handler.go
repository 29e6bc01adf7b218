package stdio

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"timeweathermcp/internal/dispatch"
)

// maxLineBytes bounds a single inbound line. Requests are small; one
// megabyte leaves generous headroom for large tool arguments.
const maxLineBytes = 1 << 20

// Handler is a single-connection line transport around a Dispatcher. By
// default it reads os.Stdin and writes os.Stdout.
type Handler struct {
	d *dispatch.Dispatcher
	r io.Reader
	w io.Writer
	l *slog.Logger
}

// NewHandler constructs a Handler with defaults and applies options.
func NewHandler(d *dispatch.Dispatcher, opts ...Option) *Handler {
	h := &Handler{
		d: d,
		r: os.Stdin,
		w: os.Stdout,
		l: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Serve runs the read-dispatch-write loop until EOF on the reader or context
// cancellation. Cancellation is observed between lines; a read blocked on a
// quiet stream ends when the peer closes it. Blank lines are skipped. Each
// response is flushed before the next line is read.
func (h *Handler) Serve(ctx context.Context) error {
	scanner := bufio.NewScanner(h.r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	out := bufio.NewWriter(h.w)

	h.l.InfoContext(ctx, "stdio.serve.start")
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		resp := h.d.HandleRaw(ctx, []byte(line))
		b, err := json.Marshal(resp)
		if err != nil {
			// Responses are built from marshalable parts; treat this as a
			// programming error rather than soldiering on with a broken stream.
			return fmt.Errorf("failed to marshal response: %w", err)
		}
		if _, err := out.Write(append(b, '\n')); err != nil {
			return fmt.Errorf("failed to write response: %w", err)
		}
		if err := out.Flush(); err != nil {
			return fmt.Errorf("failed to flush response: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("failed to read input: %w", err)
	}

	h.l.InfoContext(ctx, "stdio.serve.eof")
	return nil
}
