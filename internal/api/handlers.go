package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zharotiai/cf-ai-music-chatbot/internal/models"
	"github.com/zharotiai/cf-ai-music-chatbot/internal/service/chat"
	"github.com/zharotiai/cf-ai-music-chatbot/internal/service/story"
)

// fallbackErrorMessage is shown to the user when a turn fails mid-stream.
const fallbackErrorMessage = "Sorry, there was an error processing your request."

// Handler wires HTTP routes to the chat and story services.
type Handler struct {
	chat    *chat.Service
	stories *story.Service
}

// NewHandler constructs a Handler instance.
func NewHandler(chatService *chat.Service, storyService *story.Service) *Handler {
	return &Handler{
		chat:    chatService,
		stories: storyService,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.POST("/sessions", h.createSession)
	api.GET("/sessions", h.getSessionList)
	api.DELETE("/sessions/:session_id", h.deleteSession)
	api.GET("/sessions/:session_id/messages", h.getSessionMessages)
	api.POST("/chat", h.captureInput)
	api.POST("/story", h.requestStory)
	api.GET("/story", h.getStory)
}

func (h *Handler) createSession(c *gin.Context) {
	var req struct {
		Title string `json:"title"`
	}
	// body is optional, a blank title gets a default
	_ = c.ShouldBindJSON(&req)

	session, err := h.chat.Store().CreateSession(c.Request.Context(), req.Title)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": session})
}

func (h *Handler) getSessionList(c *gin.Context) {
	seList, err := h.chat.Store().ListSessions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_list": seList})
}

func (h *Handler) deleteSession(c *gin.Context) {
	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}
	if err := h.chat.Store().DeleteSession(c.Request.Context(), sessionID); err != nil {
		if errors.Is(err, chat.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) getSessionMessages(c *gin.Context) {
	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}
	session, messages, err := h.chat.Store().GetSessionWithMessages(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, chat.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session":  session,
		"messages": messages,
	})
}

// User input interface
type inputRequest struct {
	SessionID int64  `json:"session_id"`
	Content   string `json:"content"`
}

func (h *Handler) captureInput(c *gin.Context) {
	var req inputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.SessionID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}
	if h.chat.Busy(req.SessionID) {
		c.JSON(http.StatusConflict, gin.H{"error": "a response is already in progress"})
		return
	}

	streamCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Minute)
	defer cancel()
	// SSE Request construction
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
		return
	}
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	sendEvent := func(event string, payload interface{}) error {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		if event != "" {
			if _, err := fmt.Fprintf(c.Writer, "event: %s\n", event); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	result, err := h.chat.RunTurn(streamCtx, req.SessionID, req.Content, chat.TurnCallbacks{
		OnAck: func(turnID string, userMsg *models.Message, title string) {
			_ = sendEvent("ack", gin.H{
				"turn_id": turnID,
				"message": userMsg,
				"title":   title,
			})
		},
		OnPreview: func(sofar string) {
			_ = sendEvent("preview", gin.H{"content": sofar})
		},
	})
	if err != nil {
		if errors.Is(err, chat.ErrBusy) {
			_ = sendEvent("error", gin.H{"message": "a response is already in progress"})
			return
		}
		_ = sendEvent("error", gin.H{"message": fallbackErrorMessage})
		return
	}

	if err := sendEvent("render", gin.H{
		"turn_id":  result.TurnID,
		"node":     result.Node,
		"mentions": result.Mentions,
	}); err != nil {
		return
	}
	payload := gin.H{
		"user_message": result.User,
		"ai_message":   result.Assistant,
	}
	if result.Title != "" {
		payload["title"] = result.Title
	}
	_ = sendEvent("done", payload)
}

// Track story interface
type storyRequest struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

func (h *Handler) requestStory(c *gin.Context) {
	var req storyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Artist) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and artist are required"})
		return
	}
	snap := h.stories.Request(req.Title, req.Artist)
	status := http.StatusOK
	if snap.State == models.StoryLoading {
		status = http.StatusAccepted
	}
	c.JSON(status, gin.H{"story": snap})
}

func (h *Handler) getStory(c *gin.Context) {
	title := strings.TrimSpace(c.Query("title"))
	artist := strings.TrimSpace(c.Query("artist"))
	if title == "" || artist == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and artist are required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"story": h.stories.State(title, artist)})
}

func parseSessionID(c *gin.Context) (int64, bool) {
	sessionID, err := strconv.ParseInt(c.Param("session_id"), 10, 64)
	if err != nil || sessionID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return 0, false
	}
	return sessionID, true
}
