package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient("TOKEN", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
}

func TestClient_SendMessage(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		io.WriteString(w, `{"ok":true,"result":{"message_id":42,"chat":{"id":100}}}`)
	})

	id, err := c.SendMessage(context.Background(), 100, "*hi*", ParseModeMarkdown)
	require.NoError(t, err)
	assert.Equal(t, 42, id)
	assert.Equal(t, float64(100), got["chat_id"])
	assert.Equal(t, "*hi*", got["text"])
	assert.Equal(t, "Markdown", got["parse_mode"])
}

func TestClient_SendMessagePlainOmitsParseMode(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		io.WriteString(w, `{"ok":true,"result":{"message_id":1}}`)
	})

	_, err := c.SendMessage(context.Background(), 1, "plain", "")
	require.NoError(t, err)
	_, ok := got["parse_mode"]
	assert.False(t, ok)
}

func TestClient_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"ok":false,"error_code":400,"description":"Bad Request: user not found"}`)
	})

	_, err := c.GetChatMember(context.Background(), 1, 2)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 400, apiErr.Code)
	assert.Contains(t, apiErr.Error(), "user not found")
}

func TestClient_GetChatMember(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/getChatMember", r.URL.Path)
		io.WriteString(w, `{"ok":true,"result":{"status":"member","user":{"id":7,"is_bot":false,"first_name":"Anna","last_name":"K"}}}`)
	})

	m, err := c.GetChatMember(context.Background(), 100, 7)
	require.NoError(t, err)
	assert.Equal(t, "member", m.Status)
	assert.Equal(t, "Anna K", m.User.FullName())
}

func TestClient_GetUpdates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "5", r.URL.Query().Get("offset"))
		assert.Equal(t, "30", r.URL.Query().Get("timeout"))
		io.WriteString(w, `{"ok":true,"result":[
			{"update_id":5,"message":{"message_id":1,"from":{"id":7,"is_bot":false,"first_name":"A"},"chat":{"id":-100,"type":"group"},"photo":[{"file_id":"x","file_unique_id":"y","width":1,"height":1}]}},
			{"update_id":6,"message":{"message_id":2,"chat":{"id":-100,"type":"group"},"text":"/top@photo_bot"}}
		]}`)
	})

	updates, err := c.GetUpdates(context.Background(), 5, 30)
	require.NoError(t, err)
	require.Len(t, updates, 2)
	assert.True(t, updates[0].Message.HasPhoto())
	assert.Equal(t, int64(7), updates[0].Message.From.ID)
	assert.Equal(t, "/top", updates[1].Message.Command())
}

func TestMessage_Command(t *testing.T) {
	cases := map[string]string{
		"/start":               "/start",
		"/top@photo_stats_bot": "/top",
		"/cancel now":          "/cancel",
		"3":                    "",
		"":                     "",
	}
	for text, want := range cases {
		m := &Message{Text: text}
		assert.Equal(t, want, m.Command(), "text %q", text)
	}
}

func TestUser_MentionMarkdown(t *testing.T) {
	u := User{ID: 12, FirstName: "snake_case", LastName: "[x]"}
	assert.Equal(t, `[snake\_case \[x]](tg://user?id=12)`, u.MentionMarkdown())

	anon := User{ID: 13}
	assert.Equal(t, "[13](tg://user?id=13)", anon.MentionMarkdown())
}

func TestNewClientHasRequestTimeout(t *testing.T) {
	c := NewClient("TOKEN")
	assert.Equal(t, DefaultHTTPTimeout, c.httpClient.Timeout)
	assert.NotSame(t, http.DefaultClient, c.httpClient)
}

func TestSendMessageTimesOut(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient("TOKEN", WithBaseURL(srv.URL), WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))
	start := time.Now()
	_, err := c.SendMessage(context.Background(), 1, "hi", "")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}
