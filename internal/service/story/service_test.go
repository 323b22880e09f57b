package story

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zharotiai/cf-ai-music-chatbot/internal/inference"
	"github.com/zharotiai/cf-ai-music-chatbot/internal/models"
	"github.com/zharotiai/cf-ai-music-chatbot/internal/worker"
)

type fakeStreamer struct {
	body     string
	err      error
	calls    int64
	failures int64 // error this many calls before succeeding
	lastReq  atomic.Value
}

func (f *fakeStreamer) Stream(_ context.Context, messages []inference.Message, persona string) (io.ReadCloser, error) {
	n := atomic.AddInt64(&f.calls, 1)
	f.lastReq.Store(messages)
	if f.err != nil {
		return nil, f.err
	}
	if n <= atomic.LoadInt64(&f.failures) {
		return nil, errors.New("upstream unavailable")
	}
	return io.NopCloser(strings.NewReader(f.body)), nil
}

func newTestService(upstream Streamer) *Service {
	pool := worker.NewPool(0, 2, time.Minute)
	return NewService(upstream, nil, pool, "music", time.Hour)
}

func waitFor(t *testing.T, svc *Service, title, artist string, state models.StoryState) models.StorySnapshot {
	t.Helper()
	var snap models.StorySnapshot
	require.Eventually(t, func() bool {
		snap = svc.State(title, artist)
		return snap.State == state
	}, 2*time.Second, 5*time.Millisecond)
	return snap
}

func TestRequestLoadsStory(t *testing.T) {
	upstream := &fakeStreamer{body: `{"response":"Recorded in 1977, "}` + "\n" + `{"response":"it became a classic."}` + "\n"}
	svc := newTestService(upstream)

	snap := svc.Request("Dreams", "Fleetwood Mac")
	assert.Equal(t, models.StoryLoading, snap.State)

	snap = waitFor(t, svc, "Dreams", "Fleetwood Mac", models.StoryLoaded)
	assert.Equal(t, "Recorded in 1977, it became a classic.", snap.Story)
}

func TestRequestWhileLoadingDoesNotRefetch(t *testing.T) {
	upstream := &fakeStreamer{body: `{"response":"story"}` + "\n"}
	svc := newTestService(upstream)

	svc.Request("Title", "Artist")
	svc.Request("Title", "Artist")
	svc.Request("Title", "Artist")
	waitFor(t, svc, "Title", "Artist", models.StoryLoaded)

	assert.Equal(t, int64(1), atomic.LoadInt64(&upstream.calls))
}

func TestRequestAfterLoadedReturnsCachedState(t *testing.T) {
	upstream := &fakeStreamer{body: `{"response":"story"}` + "\n"}
	svc := newTestService(upstream)

	svc.Request("Title", "Artist")
	waitFor(t, svc, "Title", "Artist", models.StoryLoaded)

	snap := svc.Request("Title", "Artist")
	assert.Equal(t, models.StoryLoaded, snap.State)
	assert.Equal(t, "story", snap.Story)
	assert.Equal(t, int64(1), atomic.LoadInt64(&upstream.calls))
}

func TestFailedFetchCanBeRetried(t *testing.T) {
	upstream := &fakeStreamer{body: `{"response":"second try worked"}` + "\n", failures: 1}
	svc := newTestService(upstream)

	svc.Request("Title", "Artist")
	waitFor(t, svc, "Title", "Artist", models.StoryFailed)

	snap := svc.Request("Title", "Artist")
	assert.Equal(t, models.StoryLoading, snap.State)

	snap = waitFor(t, svc, "Title", "Artist", models.StoryLoaded)
	assert.Equal(t, "second try worked", snap.Story)
}

func TestTracksFetchIndependently(t *testing.T) {
	upstream := &fakeStreamer{body: `{"response":"story"}` + "\n"}
	svc := newTestService(upstream)

	svc.Request("One", "A")
	svc.Request("Two", "B")
	waitFor(t, svc, "One", "A", models.StoryLoaded)
	waitFor(t, svc, "Two", "B", models.StoryLoaded)

	assert.Equal(t, int64(2), atomic.LoadInt64(&upstream.calls))
}

func TestRawTextFallbackWhenNoFragments(t *testing.T) {
	// backend replied with plain text instead of the line protocol
	upstream := &fakeStreamer{body: "A plain unframed story.\n"}
	svc := newTestService(upstream)

	svc.Request("Title", "Artist")
	snap := waitFor(t, svc, "Title", "Artist", models.StoryLoaded)
	assert.Equal(t, "A plain unframed story.", snap.Story)
}

func TestEmptyStreamFails(t *testing.T) {
	upstream := &fakeStreamer{body: ""}
	svc := newTestService(upstream)

	svc.Request("Title", "Artist")
	waitFor(t, svc, "Title", "Artist", models.StoryFailed)
}

func TestStateWithoutRequestIsUnfetched(t *testing.T) {
	svc := newTestService(&fakeStreamer{})
	snap := svc.State("Never", "Asked")
	assert.Equal(t, models.StoryUnfetched, snap.State)
	assert.Empty(t, snap.Story)
}

func TestKeyNormalization(t *testing.T) {
	upstream := &fakeStreamer{body: `{"response":"story"}` + "\n"}
	svc := newTestService(upstream)

	svc.Request("Get Lucky", "Daft Punk")
	waitFor(t, svc, "Get Lucky", "Daft Punk", models.StoryLoaded)

	snap := svc.State("  get lucky ", "DAFT PUNK")
	assert.Equal(t, models.StoryLoaded, snap.State)
}

func TestPromptNamesTheTrack(t *testing.T) {
	upstream := &fakeStreamer{body: `{"response":"story"}` + "\n"}
	svc := newTestService(upstream)

	svc.Request("Oblivion", "Grimes")
	waitFor(t, svc, "Oblivion", "Grimes", models.StoryLoaded)

	messages, _ := upstream.lastReq.Load().([]inference.Message)
	require.Len(t, messages, 1)
	assert.Equal(t, models.RoleUser, messages[0].Role)
	assert.Contains(t, messages[0].Content, "Oblivion")
	assert.Contains(t, messages[0].Content, "Grimes")
}
