package render

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/zharotiai/cf-ai-music-chatbot/internal/models"
)

// candidateLineRe matches one recommendation line:
//
//	3. Get Lucky — Daft Punk [funk, disco] (tempo:116) — Iconic 2013 collaboration
//
// The ordinal, genre bracket, metadata parens and trailing reason are all
// optional; only the title and artist around the first separator are required.
var candidateLineRe = regexp.MustCompile(
	`^(?:\d+[.)]\s+)?` + // optional ordinal
		`(.+?)\s+(?:—|–|-)\s+` + // title
		`(.+?)` + // artist
		`(?:\s+\[([^\]]*)\])?` + // genres
		`(?:\s+\(([^)]*)\))?` + // metadata
		`(?:\s+(?:—|–|-)\s+(.+))?$`) // reason

var tempoRe = regexp.MustCompile(`(?i)\btempo\s*[:=]\s*(\d+(?:\.\d+)?)`)

// ParseCandidateLine extracts a structured track suggestion from one line of
// text. The second return is false when the line does not fit the shape.
func ParseCandidateLine(line string) (*models.Candidate, bool) {
	m := candidateLineRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return nil, false
	}
	title := strings.TrimSpace(m[1])
	artist := strings.TrimSpace(m[2])
	if title == "" || artist == "" {
		return nil, false
	}

	c := &models.Candidate{
		Title:  title,
		Artist: artist,
		Reason: strings.TrimSpace(m[5]),
	}
	for _, g := range strings.Split(m[3], ",") {
		if g = strings.TrimSpace(g); g != "" {
			c.Genres = append(c.Genres, g)
		}
	}
	if tm := tempoRe.FindStringSubmatch(m[4]); tm != nil {
		if v, err := strconv.ParseFloat(tm[1], 64); err == nil {
			c.Tempo = &v
		}
	}
	return c, true
}
