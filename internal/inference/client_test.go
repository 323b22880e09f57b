package inference

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zharotiai/cf-ai-music-chatbot/internal/config"
	"github.com/zharotiai/cf-ai-music-chatbot/internal/models"
)

func TestStreamSendsMessagesAndPersona(t *testing.T) {
	var gotAuth string
	var gotBody chatPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"response":"hi"}` + "\n"))
	}))
	defer srv.Close()

	c := NewClient(config.InferenceConfig{BaseURL: srv.URL, APIKey: "secret"})
	body, err := c.Stream(context.Background(), []Message{
		{Role: models.RoleSystem, Content: "be brief"},
		{Role: models.RoleUser, Content: "hello"},
	}, "music")
	require.NoError(t, err)
	defer body.Close()

	raw, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, `{"response":"hi"}`+"\n", string(raw))

	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "music", gotBody.Persona)
	require.Len(t, gotBody.Messages, 2)
	assert.Equal(t, models.RoleUser, gotBody.Messages[1].Role)
}

func TestStreamErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(config.InferenceConfig{BaseURL: srv.URL})
	_, err := c.Stream(context.Background(), []Message{{Role: models.RoleUser, Content: "hi"}}, "music")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestStreamOmitsAuthWithoutKey(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte("\n"))
	}))
	defer srv.Close()

	c := NewClient(config.InferenceConfig{BaseURL: srv.URL})
	body, err := c.Stream(context.Background(), nil, "music")
	require.NoError(t, err)
	body.Close()
	assert.Empty(t, gotAuth)
}
