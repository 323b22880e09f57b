package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zharotiai/cf-ai-music-chatbot/internal/models"
)

func TestExtractMentionsFromOrdinalLines(t *testing.T) {
	text := "1. Daft Punk — Get Lucky\n2. Chromeo — Night by Night [funk]"
	mentions := ExtractMentions(text)
	require.Len(t, mentions, 2)
	assert.Equal(t, models.TrackMention{Title: "Daft Punk", Artist: "Get Lucky"}, mentions[0])
	assert.Equal(t, models.TrackMention{Title: "Chromeo", Artist: "Night by Night"}, mentions[1])
}

func TestExtractMentionsLooseScanFallback(t *testing.T) {
	text := "You might enjoy Nightcall — Kavinsky if you liked the Drive soundtrack."
	mentions := ExtractMentions(text)
	require.Len(t, mentions, 1)
	assert.Contains(t, mentions[0].Title, "Nightcall")
	assert.Contains(t, mentions[0].Artist, "Kavinsky")
}

func TestExtractMentionsOrdinalTierSuppressesLooseScan(t *testing.T) {
	// prose mention plus one ordinal line: only the ordinal tier fires
	text := "Maybe Instant Crush — Daft Punk too.\n1. One More Time — Daft Punk"
	mentions := ExtractMentions(text)
	require.Len(t, mentions, 1)
	assert.Equal(t, "One More Time", mentions[0].Title)
}

func TestExtractMentionsKeepsDuplicatesAndOrder(t *testing.T) {
	text := "1. Same Song — Same Artist\n2. Same Song — Same Artist"
	mentions := ExtractMentions(text)
	require.Len(t, mentions, 2)
	assert.Equal(t, mentions[0], mentions[1])
}

func TestExtractMentionsIgnoresHyphens(t *testing.T) {
	text := "This is a well-known track with a laid-back groove."
	assert.Empty(t, ExtractMentions(text))
}

func TestExtractMentionsEmptyText(t *testing.T) {
	mentions := ExtractMentions("")
	assert.NotNil(t, mentions)
	assert.Empty(t, mentions)
}
