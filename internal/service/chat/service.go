package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/zharotiai/cf-ai-music-chatbot/internal/inference"
	"github.com/zharotiai/cf-ai-music-chatbot/internal/models"
	"github.com/zharotiai/cf-ai-music-chatbot/internal/render"
	"github.com/zharotiai/cf-ai-music-chatbot/internal/stream"
	"github.com/zharotiai/cf-ai-music-chatbot/internal/worker"
)

// ErrBusy is returned when a turn is already streaming for the session.
var ErrBusy = errors.New("a response is already in progress for this session")

const systemPrompt = "You are an enthusiastic music recommendation assistant. " +
	"When suggesting songs, reply with a numbered list where each line has the form " +
	"\"Title — Artist [genres] (tempo:bpm) — reason\". Keep any other commentary brief."

const titleRuneLimit = 30

// Streamer is the inference backend dependency.
type Streamer interface {
	Stream(ctx context.Context, messages []inference.Message, persona string) (io.ReadCloser, error)
}

// TurnCallbacks receive progress while a turn streams. Either may be nil.
type TurnCallbacks struct {
	// OnAck fires once the user message is persisted, before streaming starts.
	OnAck func(turnID string, user *models.Message, sessionTitle string)
	// OnPreview fires with the whole reply accumulated so far.
	OnPreview func(sofar string)
}

// TurnResult is the finished product of one conversation turn.
type TurnResult struct {
	TurnID    string
	User      *models.Message
	Assistant *models.Message
	Node      models.RenderNode
	Mentions  []models.TrackMention
	Title     string
}

// Service runs conversation turns against the inference backend.
type Service struct {
	store    *Store
	upstream Streamer
	guard    *worker.SessionGuard
	persona  string
}

func NewService(store *Store, upstream Streamer, persona string) *Service {
	return &Service{
		store:    store,
		upstream: upstream,
		guard:    worker.NewSessionGuard(),
		persona:  persona,
	}
}

func (s *Service) Store() *Store {
	return s.store
}

// Busy reports whether a turn is currently streaming for the session.
func (s *Service) Busy(sessionID int64) bool {
	return s.guard.Busy(sessionID)
}

// RunTurn sends the user's message through the inference backend and returns
// the classified reply. One turn per session runs at a time; a second send
// fails fast with ErrBusy while the first is in flight. The session claim is
// released on every path out of this function.
func (s *Service) RunTurn(ctx context.Context, sessionID int64, content string, cb TurnCallbacks) (*TurnResult, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.New("message content is required")
	}
	if !s.guard.TryAcquire(sessionID) {
		return nil, ErrBusy
	}
	defer s.guard.Release(sessionID)

	turnID := uuid.NewString()
	logger := logrus.WithFields(logrus.Fields{"turn_id": turnID, "session_id": sessionID})

	session, history, err := s.store.GetSessionWithMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	userMsg, err := s.store.AddMessage(ctx, sessionID, models.RoleUser, content)
	if err != nil {
		return nil, err
	}

	// first message names the conversation
	title := session.Title
	if len(history) == 0 {
		title = titleFromContent(content)
		if err := s.store.UpdateSessionTitle(ctx, sessionID, title); err != nil {
			logger.Warnf("rename session: %v", err)
			title = session.Title
		}
	}
	if cb.OnAck != nil {
		cb.OnAck(turnID, userMsg, title)
	}

	messages := make([]inference.Message, 0, len(history)+2)
	messages = append(messages, inference.Message{Role: models.RoleSystem, Content: systemPrompt})
	for _, m := range history {
		messages = append(messages, inference.Message{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, inference.Message{Role: models.RoleUser, Content: content})

	body, err := s.upstream.Stream(ctx, messages, s.persona)
	if err != nil {
		logger.Warnf("inference stream failed: %v", err)
		return nil, err
	}
	defer body.Close()

	reader := stream.NewLineReader(cb.OnPreview)
	final, err := reader.Drain(body)
	if err != nil {
		logger.Warnf("inference stream aborted: %v", err)
		return nil, err
	}
	final = strings.TrimSpace(final)
	if final == "" {
		logger.Warn("inference stream produced no response fragments")
		return nil, fmt.Errorf("empty response from inference backend")
	}

	assistantMsg, err := s.store.AddMessage(ctx, sessionID, models.RoleAssistant, final)
	if err != nil {
		return nil, err
	}

	return &TurnResult{
		TurnID:    turnID,
		User:      userMsg,
		Assistant: assistantMsg,
		Node:      render.Classify(final),
		Mentions:  render.ExtractMentions(final),
		Title:     title,
	}, nil
}

// titleFromContent derives a session title from the first user message.
func titleFromContent(content string) string {
	content = strings.Join(strings.Fields(content), " ")
	runes := []rune(content)
	if len(runes) <= titleRuneLimit {
		return content
	}
	return strings.TrimSpace(string(runes[:titleRuneLimit])) + "..."
}
