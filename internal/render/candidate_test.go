package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCandidateLineFull(t *testing.T) {
	c, ok := ParseCandidateLine("3. Get Lucky — Daft Punk [funk, disco] (tempo:116) — Iconic 2013 collaboration")
	require.True(t, ok)
	assert.Equal(t, "Get Lucky", c.Title)
	assert.Equal(t, "Daft Punk", c.Artist)
	assert.Equal(t, []string{"funk", "disco"}, c.Genres)
	require.NotNil(t, c.Tempo)
	assert.Equal(t, 116.0, *c.Tempo)
	assert.Equal(t, "Iconic 2013 collaboration", c.Reason)
}

func TestParseCandidateLineMinimal(t *testing.T) {
	c, ok := ParseCandidateLine("Oblivion — Grimes")
	require.True(t, ok)
	assert.Equal(t, "Oblivion", c.Title)
	assert.Equal(t, "Grimes", c.Artist)
	assert.Nil(t, c.Genres)
	assert.Nil(t, c.Tempo)
	assert.Equal(t, "", c.Reason)
}

func TestParseCandidateLineHyphenSeparator(t *testing.T) {
	c, ok := ParseCandidateLine("1) Radio Ga Ga - Queen")
	require.True(t, ok)
	assert.Equal(t, "Radio Ga Ga", c.Title)
	assert.Equal(t, "Queen", c.Artist)
}

func TestParseCandidateLineFractionalTempo(t *testing.T) {
	c, ok := ParseCandidateLine("Song — Artist (tempo: 97.5)")
	require.True(t, ok)
	require.NotNil(t, c.Tempo)
	assert.Equal(t, 97.5, *c.Tempo)
}

func TestParseCandidateLineMetadataWithoutTempo(t *testing.T) {
	c, ok := ParseCandidateLine("Song — Artist (live version)")
	require.True(t, ok)
	assert.Nil(t, c.Tempo)
}

func TestParseCandidateLineEmptyGenreBracket(t *testing.T) {
	c, ok := ParseCandidateLine("Song — Artist []")
	require.True(t, ok)
	assert.Empty(t, c.Genres)
}

func TestParseCandidateLineRejectsNonCandidates(t *testing.T) {
	for _, line := range []string{
		"",
		"no separator here",
		"just words and commas, nothing else",
	} {
		_, ok := ParseCandidateLine(line)
		assert.False(t, ok, "line %q", line)
	}
}
