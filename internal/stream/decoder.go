package stream

import (
	"strings"
	"unicode/utf8"
)

// Decoder turns a sequence of byte chunks into text, carrying the bytes of a
// multi-byte character split across a chunk boundary until the rest arrives.
// The zero value is ready to use.
type Decoder struct {
	pending []byte
}

// Decode returns the text completed by this chunk. A rune whose bytes end
// mid-chunk is held back and emitted with the next call, never dropped or
// duplicated.
func (d *Decoder) Decode(chunk []byte) string {
	if len(chunk) == 0 {
		return ""
	}
	buf := chunk
	if len(d.pending) > 0 {
		buf = append(d.pending, chunk...)
	}
	keep := incompleteTailLen(buf)
	out := string(buf[:len(buf)-keep])
	if keep > 0 {
		d.pending = append([]byte(nil), buf[len(buf)-keep:]...)
	} else {
		d.pending = nil
	}
	return out
}

// Flush emits whatever is still buffered at end of stream. A truncated
// multi-byte sequence decodes to U+FFFD rather than failing.
func (d *Decoder) Flush() string {
	if len(d.pending) == 0 {
		return ""
	}
	out := strings.ToValidUTF8(string(d.pending), string(utf8.RuneError))
	d.pending = nil
	return out
}

// incompleteTailLen reports how many trailing bytes of buf form the start of
// a UTF-8 sequence whose remaining bytes have not arrived yet.
func incompleteTailLen(buf []byte) int {
	n := len(buf)
	for back := 1; back <= utf8.UTFMax-1 && back <= n; back++ {
		b := buf[n-back]
		if b < utf8.RuneSelf {
			return 0 // ASCII, sequence is complete
		}
		if b&0xC0 == 0x80 {
			continue // continuation byte, keep looking for the start
		}
		want := expectedSeqLen(b)
		if want > back {
			return back // sequence started but is still short
		}
		return 0
	}
	return 0
}

func expectedSeqLen(start byte) int {
	switch {
	case start&0xE0 == 0xC0:
		return 2
	case start&0xF0 == 0xE0:
		return 3
	case start&0xF8 == 0xF0:
		return 4
	default:
		return 1 // invalid start byte, pass through as-is
	}
}
