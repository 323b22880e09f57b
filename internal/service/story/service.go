package story

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/zharotiai/cf-ai-music-chatbot/internal/inference"
	"github.com/zharotiai/cf-ai-music-chatbot/internal/models"
	"github.com/zharotiai/cf-ai-music-chatbot/internal/redis"
	"github.com/zharotiai/cf-ai-music-chatbot/internal/stream"
	"github.com/zharotiai/cf-ai-music-chatbot/internal/worker"
)

// Streamer is the inference backend dependency.
type Streamer interface {
	Stream(ctx context.Context, messages []inference.Message, persona string) (io.ReadCloser, error)
}

type entry struct {
	state models.StoryState
	story string
}

// Service fetches background stories for tracks. Each track moves through
// unfetched, loading and then loaded or failed; a failed track can be
// requested again. Fetches for different tracks run independently.
type Service struct {
	upstream Streamer
	cache    *redis.Client // optional
	pool     *worker.Pool
	persona  string
	ttl      time.Duration

	mu      sync.Mutex
	entries map[string]*entry
}

func NewService(upstream Streamer, cache *redis.Client, pool *worker.Pool, persona string, ttl time.Duration) *Service {
	return &Service{
		upstream: upstream,
		cache:    cache,
		pool:     pool,
		persona:  persona,
		ttl:      ttl,
		entries:  make(map[string]*entry),
	}
}

func storyKey(title, artist string) string {
	return strings.ToLower(strings.TrimSpace(title)) + "|" + strings.ToLower(strings.TrimSpace(artist))
}

// Request starts a fetch for the track unless one is loading or already
// loaded, and returns the state as of this call. Requesting a failed track
// retries it.
func (s *Service) Request(title, artist string) models.StorySnapshot {
	key := storyKey(title, artist)

	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		e = &entry{state: models.StoryUnfetched}
		s.entries[key] = e
	}
	if e.state == models.StoryLoading || e.state == models.StoryLoaded {
		snap := snapshotLocked(title, artist, e)
		s.mu.Unlock()
		return snap
	}
	e.state = models.StoryLoading
	e.story = ""
	snap := snapshotLocked(title, artist, e)
	s.mu.Unlock()

	s.pool.Submit(func() { s.fetch(key, title, artist) })
	return snap
}

// State reports the track's current state without triggering a fetch.
func (s *Service) State(title, artist string) models.StorySnapshot {
	key := storyKey(title, artist)
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return models.StorySnapshot{Title: title, Artist: artist, State: models.StoryUnfetched}
	}
	return snapshotLocked(title, artist, e)
}

func snapshotLocked(title, artist string, e *entry) models.StorySnapshot {
	return models.StorySnapshot{Title: title, Artist: artist, State: e.state, Story: e.story}
}

func (s *Service) fetch(key, title, artist string) {
	logger := logrus.WithFields(logrus.Fields{
		"request_id": uuid.NewString(),
		"title":      title,
		"artist":     artist,
	})
	ctx := context.Background()
	cacheKey := "story:" + key

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey)
		if err == nil && cached != "" {
			s.finish(key, models.StoryLoaded, cached)
			return
		}
		if err != nil && !errors.Is(err, redis.ErrCacheMiss) {
			logger.Warnf("story cache read: %v", err)
		}
	}

	text, err := s.fetchStory(ctx, title, artist)
	if err != nil {
		logger.Warnf("story fetch failed: %v", err)
		s.finish(key, models.StoryFailed, "")
		return
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, text, s.ttl); err != nil {
			logger.Warnf("story cache write: %v", err)
		}
	}
	s.finish(key, models.StoryLoaded, text)
}

func (s *Service) finish(key string, state models.StoryState, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok {
		e.state = state
		e.story = text
	}
}

// fetchStory asks the backend for a short background story and reduces the
// streamed reply with its own accumulator. When the stream carried no
// response fragments but did carry text, that raw text is used as a
// last-resort fallback.
func (s *Service) fetchStory(ctx context.Context, title, artist string) (string, error) {
	prompt := fmt.Sprintf(
		"Tell me a short story or interesting background about the song %q by %s. Keep it to 2-3 sentences.",
		title, artist)

	body, err := s.upstream.Stream(ctx, []inference.Message{
		{Role: models.RoleUser, Content: prompt},
	}, s.persona)
	if err != nil {
		return "", err
	}
	defer body.Close()

	reader := stream.NewLineReader(nil)
	final, err := reader.Drain(body)
	if err != nil {
		return "", err
	}
	final = strings.TrimSpace(final)
	if final != "" {
		return final, nil
	}
	if raw := strings.TrimSpace(reader.Raw()); raw != "" {
		return raw, nil
	}
	return "", errors.New("empty story stream")
}
