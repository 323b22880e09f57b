package render

import (
	"regexp"
	"strings"

	"github.com/zharotiai/cf-ai-music-chatbot/internal/models"
)

// mentionLineRe finds tracks on ordinal lines ("1. Title — Artist [..]").
// mentionLooseRe is the fallback scan for "Title — Artist" anywhere in prose;
// it insists on the em dash so hyphenated words do not produce phantom tracks.
var (
	mentionLineRe = regexp.MustCompile(
		`(?m)^\s*\d+[.)]\s+([^\n—]{1,120}?)\s+—\s+([^\n\[\]]{1,120}?)\s*(?:\[[^\]]*\])?\s*$`)

	mentionToken   = `[A-Za-z0-9][A-Za-z0-9 '&.,!?/:()-]{0,78}`
	mentionLooseRe = regexp.MustCompile(mentionToken + `\s+—\s+` + mentionToken)
	mentionSplitRe = regexp.MustCompile(`\s+—\s+`)
)

// ExtractMentions lists every track reference in the text, in order of
// appearance and without deduplication. It never fails; text with no
// recognizable tracks yields an empty slice.
func ExtractMentions(text string) []models.TrackMention {
	mentions := []models.TrackMention{}
	for _, m := range mentionLineRe.FindAllStringSubmatch(text, -1) {
		mentions = append(mentions, models.TrackMention{
			Title:  strings.TrimSpace(m[1]),
			Artist: strings.TrimSpace(m[2]),
		})
	}
	if len(mentions) > 0 {
		return mentions
	}

	for _, m := range mentionLooseRe.FindAllString(text, -1) {
		parts := mentionSplitRe.Split(m, 2)
		if len(parts) != 2 {
			continue
		}
		title := strings.TrimSpace(parts[0])
		artist := strings.TrimSpace(parts[1])
		if len(title) < 2 || len(artist) < 2 {
			continue
		}
		mentions = append(mentions, models.TrackMention{Title: title, Artist: artist})
	}
	return mentions
}
