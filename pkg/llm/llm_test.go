package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodewee/docrag/pkg/utils"
)

func chatServer(t *testing.T, status int, reply string, calls *int32, body *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if body != nil {
			_ = json.NewDecoder(r.Body).Decode(body)
		}
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "boom"}})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 0,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": reply},
				"finish_reason": "stop",
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestComplete(t *testing.T) {
	var calls int32
	var body map[string]any
	srv := chatServer(t, http.StatusOK, "  Huludao \n", &calls, &body)

	c := NewOpenAIChat(WithBaseURL(srv.URL), WithAPIKey("dummy"))
	answer, err := c.Complete(context.Background(), "Where is the Bohai shipyard?")

	require.NoError(t, err)
	assert.Equal(t, "Huludao", answer)
	assert.Equal(t, "gpt-4o-mini", body["model"])

	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 1)
	msg := messages[0].(map[string]any)
	assert.Equal(t, "user", msg["role"])
	assert.Equal(t, "Where is the Bohai shipyard?", msg["content"])
}

func TestCompleteWithImage(t *testing.T) {
	var calls int32
	var body map[string]any
	srv := chatServer(t, http.StatusOK, "| a | b |", &calls, &body)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))))

	c := NewOpenAIChat(WithBaseURL(srv.URL), WithAPIKey("dummy"), WithModel("gpt-4o"))
	answer, err := c.CompleteWithImage(context.Background(), "Transcribe", buf.Bytes())

	require.NoError(t, err)
	assert.Equal(t, "| a | b |", answer)
	assert.Equal(t, "gpt-4o", body["model"])

	msg := body["messages"].([]any)[0].(map[string]any)
	parts := msg["content"].([]any)
	require.Len(t, parts, 2)
	assert.Equal(t, "Transcribe", parts[0].(map[string]any)["text"])
	imageURL := parts[1].(map[string]any)["image_url"].(map[string]any)["url"].(string)
	assert.True(t, strings.HasPrefix(imageURL, "data:image/png;base64,"), imageURL)
}

func TestCompleteValidation(t *testing.T) {
	c := NewOpenAIChat()

	_, err := c.Complete(context.Background(), " ")
	assert.Equal(t, utils.ErrorTypeValidation, utils.GetErrorType(err))

	_, err = c.CompleteWithImage(context.Background(), "x", nil)
	assert.Equal(t, utils.ErrorTypeValidation, utils.GetErrorType(err))
}

func TestCompleteRetries(t *testing.T) {
	var calls int32
	srv := chatServer(t, http.StatusServiceUnavailable, "", &calls, nil)

	c := NewOpenAIChat(WithBaseURL(srv.URL), WithAPIKey("dummy"), WithRetry(1, time.Millisecond))
	_, err := c.Complete(context.Background(), "question")

	require.Error(t, err)
	assert.Equal(t, utils.ErrorTypeUpstream, utils.GetErrorType(err))
	assert.True(t, utils.IsRecoverable(err))
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestWrapAPIError(t *testing.T) {
	assert.Nil(t, WrapAPIError("x", nil))
	assert.ErrorIs(t, WrapAPIError("x", context.Canceled), context.Canceled)

	err := WrapAPIError("x", assert.AnError)
	assert.Equal(t, utils.ErrorTypeUpstream, utils.GetErrorType(err))
	assert.True(t, utils.IsRecoverable(err))
}
