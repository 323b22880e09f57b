package stream

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// envelope is the wire shape of one well-formed protocol line. The pointer
// distinguishes a missing response field from an empty fragment.
type envelope struct {
	Response *string `json:"response"`
}

// LineReader consumes decoder output line by line and accumulates the
// response fragments of one reply. Lines that are not JSON objects, or that
// lack a response field, are skipped without disturbing the accumulator.
// A LineReader must not be shared between replies; each reply gets its own.
type LineReader struct {
	dec     Decoder
	partial string
	acc     strings.Builder
	raw     strings.Builder
	preview func(string)
}

// NewLineReader returns a reader whose preview callback, when non-nil, is
// invoked with the whole accumulated text after every successful append.
func NewLineReader(preview func(string)) *LineReader {
	return &LineReader{preview: preview}
}

// Feed decodes one chunk and processes any lines it completes. Trailing text
// not yet terminated by a newline is buffered for the next chunk.
func (r *LineReader) Feed(chunk []byte) {
	r.consume(r.dec.Decode(chunk))
}

func (r *LineReader) consume(text string) {
	if text == "" {
		return
	}
	r.raw.WriteString(text)
	data := r.partial + text
	for {
		i := strings.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		r.handleLine(data[:i])
		data = data[i+1:]
	}
	r.partial = data
}

func (r *LineReader) handleLine(line string) {
	line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
	if line == "" {
		return
	}
	var env envelope
	if err := json.Unmarshal([]byte(line), &env); err != nil || env.Response == nil {
		// keepalive or malformed line, skip
		return
	}
	r.acc.WriteString(*env.Response)
	if r.preview != nil {
		r.preview(r.acc.String())
	}
}

// Close flushes the decoder, discards any unterminated trailing line and
// returns the accumulated text.
func (r *LineReader) Close() string {
	if tail := r.dec.Flush(); tail != "" {
		r.consume(tail)
	}
	r.partial = ""
	return r.acc.String()
}

// Text returns the accumulated text so far.
func (r *LineReader) Text() string {
	return r.acc.String()
}

// Raw returns every character decoded from the stream, protocol framing
// included. Callers use it as a last-resort fallback when no response
// fragments were extracted.
func (r *LineReader) Raw() string {
	return r.raw.String()
}

// Drain feeds the reader from src until EOF and closes out the accumulation.
func (r *LineReader) Drain(src io.Reader) (string, error) {
	buf := make([]byte, 4096)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			r.Feed(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read stream: %w", err)
		}
	}
	return r.Close(), nil
}
