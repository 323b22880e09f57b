package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeASCIIPassesThrough(t *testing.T) {
	var d Decoder
	assert.Equal(t, "hello", d.Decode([]byte("hello")))
	assert.Equal(t, "", d.Flush())
}

func TestDecodeSplitRuneAtEverySplitPoint(t *testing.T) {
	const text = "Beyoncé — 宇多田ヒカル 🎵"
	raw := []byte(text)

	for cut := 0; cut <= len(raw); cut++ {
		var d Decoder
		got := d.Decode(raw[:cut]) + d.Decode(raw[cut:]) + d.Flush()
		require.Equal(t, text, got, "split at byte %d", cut)
	}
}

func TestDecodeByteAtATime(t *testing.T) {
	const text = "ü🎧é"
	var d Decoder
	var got string
	for _, b := range []byte(text) {
		got += d.Decode([]byte{b})
	}
	got += d.Flush()
	assert.Equal(t, text, got)
}

func TestDecodeEmptyChunk(t *testing.T) {
	var d Decoder
	d.Decode([]byte("é")[:1])
	assert.Equal(t, "", d.Decode(nil))
	assert.Equal(t, "é", d.Decode([]byte("é")[1:]))
}

func TestFlushReplacesTruncatedSequence(t *testing.T) {
	var d Decoder
	// first two bytes of a four byte emoji, stream ends here
	assert.Equal(t, "ok", d.Decode(append([]byte("ok"), 0xF0, 0x9F)))
	assert.Equal(t, "�", d.Flush())
	assert.Equal(t, "", d.Flush())
}

func TestDecodeInvalidBytesPassThrough(t *testing.T) {
	var d Decoder
	out := d.Decode([]byte{'a', 0xFF, 'b'})
	assert.Equal(t, 3, len(out))
	assert.Equal(t, "", d.Flush())
}
