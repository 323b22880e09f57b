package render

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/zharotiai/cf-ai-music-chatbot/internal/models"
)

// Classification rules run in order and the first one that claims the text
// wins. A rule returns nil to pass the text on to the next, so a failed JSON
// parse or a lone separator line degrades to the simpler structures below it.
var classifyRules = []func(string) *models.RenderNode{
	classifyJSON,
	classifySeparatorBlocks,
	classifyNumbered,
	classifyBulleted,
	classifyCandidates,
}

// Classify maps a finished reply to its display structure. It is a pure
// function of the text; classifying the same text twice yields the same node.
func Classify(text string) models.RenderNode {
	trimmed := strings.TrimSpace(text)
	for _, rule := range classifyRules {
		if node := rule(trimmed); node != nil {
			return *node
		}
	}
	return models.RenderNode{Kind: models.NodeParagraph, Text: trimmed}
}

func classifyJSON(text string) *models.RenderNode {
	if !strings.HasPrefix(text, "{") && !strings.HasPrefix(text, "[") {
		return nil
	}
	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return nil
	}

	switch v := value.(type) {
	case map[string]any:
		for _, field := range []string{"ranked", "results"} {
			arr, ok := v[field].([]any)
			if !ok {
				continue
			}
			items := make([]models.CandidateItem, 0, len(arr))
			for _, el := range arr {
				raw := stringifyJSON(el)
				item := models.CandidateItem{Raw: raw}
				if c, ok := ParseCandidateLine(raw); ok {
					item.Candidate = c
				}
				items = append(items, item)
			}
			return &models.RenderNode{Kind: models.NodeCandidateList, Candidates: items}
		}
	case []any:
		items := make([]string, 0, len(v))
		for _, el := range v {
			items = append(items, stringifyJSON(el))
		}
		return &models.RenderNode{Kind: models.NodeOrderedList, Items: items}
	}

	pretty, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return nil
	}
	return &models.RenderNode{Kind: models.NodeRawJSON, JSON: string(pretty)}
}

func stringifyJSON(el any) string {
	if s, ok := el.(string); ok {
		return s
	}
	raw, err := json.Marshal(el)
	if err != nil {
		return ""
	}
	return string(raw)
}

var separatorLineRe = regexp.MustCompile(`^(\*{3,}|-{3,})$`)

func classifySeparatorBlocks(text string) *models.RenderNode {
	lines := strings.Split(text, "\n")
	found := false
	for _, line := range lines {
		if separatorLineRe.MatchString(strings.TrimSpace(line)) {
			found = true
			break
		}
	}
	if !found {
		return nil
	}

	var segments []string
	var current []string
	flush := func() {
		if seg := strings.TrimSpace(strings.Join(current, "\n")); seg != "" {
			segments = append(segments, seg)
		}
		current = current[:0]
	}
	for _, line := range lines {
		if separatorLineRe.MatchString(strings.TrimSpace(line)) {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()

	if len(segments) < 2 {
		return nil
	}
	return &models.RenderNode{Kind: models.NodeOrderedList, Items: segments}
}

var orderedPrefixRe = regexp.MustCompile(`^\d+[.)]\s+`)

func classifyNumbered(text string) *models.RenderNode {
	lines := nonEmptyLines(text)
	numbered := 0
	for _, line := range lines {
		if orderedPrefixRe.MatchString(line) {
			numbered++
		}
	}
	if numbered < 2 {
		return nil
	}
	items := make([]string, 0, len(lines))
	for _, line := range lines {
		items = append(items, orderedPrefixRe.ReplaceAllString(line, ""))
	}
	return &models.RenderNode{Kind: models.NodeOrderedList, Items: items}
}

var bulletPrefixRe = regexp.MustCompile(`^[-*•]\s*`)

func classifyBulleted(text string) *models.RenderNode {
	lines := nonEmptyLines(text)
	bulleted := 0
	for _, line := range lines {
		if bulletPrefixRe.MatchString(line) {
			bulleted++
		}
	}
	if bulleted < 2 {
		return nil
	}
	items := make([]string, 0, len(lines))
	for _, line := range lines {
		items = append(items, bulletPrefixRe.ReplaceAllString(line, ""))
	}
	return &models.RenderNode{Kind: models.NodeUnorderedList, Items: items}
}

func classifyCandidates(text string) *models.RenderNode {
	var items []models.CandidateItem
	for _, line := range nonEmptyLines(text) {
		if c, ok := ParseCandidateLine(line); ok {
			items = append(items, models.CandidateItem{Candidate: c, Raw: line})
		}
	}
	if len(items) < 2 {
		return nil
	}
	return &models.RenderNode{Kind: models.NodeCandidateList, Candidates: items}
}

func nonEmptyLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
