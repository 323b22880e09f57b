package models

// RenderNode is the structured interpretation of one finished response.
// Exactly one node is produced per response; Kind selects which fields
// are meaningful.

type NodeKind string

const (
	NodeParagraph     NodeKind = "paragraph"
	NodeOrderedList   NodeKind = "ordered_list"
	NodeUnorderedList NodeKind = "unordered_list"
	NodeCandidateList NodeKind = "candidate_list"
	NodeRawJSON       NodeKind = "raw_json"
)

type RenderNode struct {
	Kind NodeKind `json:"kind"`
	// Text holds the paragraph body for NodeParagraph, line breaks preserved.
	Text string `json:"text,omitempty"`
	// Items holds list entries for ordered/unordered lists.
	Items []string `json:"items,omitempty"`
	// Candidates holds candidate-or-raw entries for NodeCandidateList.
	Candidates []CandidateItem `json:"candidates,omitempty"`
	// JSON holds the pretty-printed payload for NodeRawJSON.
	JSON string `json:"json,omitempty"`
}

// CandidateItem is either a parsed Candidate or a raw pass-through string
// (stringified JSON array elements keep Raw, parsed lines keep Candidate).
type CandidateItem struct {
	Candidate *Candidate `json:"candidate,omitempty"`
	Raw       string     `json:"raw,omitempty"`
}

// Candidate is one structured song suggestion parsed from a line of text.
type Candidate struct {
	Title  string   `json:"title"`
	Artist string   `json:"artist"`
	Genres []string `json:"genres,omitempty"`
	Tempo  *float64 `json:"tempo,omitempty"`
	Reason string   `json:"reason,omitempty"`
}
