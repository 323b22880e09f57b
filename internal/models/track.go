package models

// TrackMention is a (title, artist) pair detected anywhere in response text,
// independent of how the response was classified.
type TrackMention struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

// StoryState tracks the enrichment lifecycle of one mention.
type StoryState string

const (
	StoryUnfetched StoryState = "unfetched"
	StoryLoading   StoryState = "loading"
	StoryLoaded    StoryState = "loaded"
	StoryFailed    StoryState = "failed"
)

// StorySnapshot is the externally visible state of one enrichment request.
type StorySnapshot struct {
	Title  string     `json:"title"`
	Artist string     `json:"artist"`
	State  StoryState `json:"state"`
	Story  string     `json:"story,omitempty"`
}
