package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/login", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"tok-123"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	token, err := c.Login(context.Background(), "op@example.test", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)
}

func TestListChatsBareArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[{"id":"c1","name":"Alice"},{"id":"c2","name":"Bob"}]`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.SetToken("tok")
	chats, err := c.ListChats(context.Background())
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, "Alice", chats[0].Name)
}

func TestListMessagesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chats/c1/messages", r.URL.Path)
		_, _ = w.Write([]byte(`{"messages":[{"id":"m1","content":"hi","timestamp":1000}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	msgs, err := c.ListMessages(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi", msgs[0].Content)
	assert.EqualValues(t, 1000, msgs[0].Timestamp)
}

func TestUnauthorized(t *testing.T) {
	for _, code := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))
		c := New(srv.URL)
		_, err := c.ListChats(context.Background())
		assert.ErrorIs(t, err, ErrUnauthorized, "status %d", code)
		srv.Close()
	}
}

func TestAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`boom`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.ListChats(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Contains(t, apiErr.Body, "boom")
}

func TestSendText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/messages", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"srv-1","content":"hello","fromMe":true,"timestamp":5000}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	msg, err := c.SendText(context.Background(), "p1", "555@remote", "hello")
	require.NoError(t, err)
	assert.Equal(t, "srv-1", msg.ID)
	assert.True(t, msg.FromMe)
}

func TestMarkChatRead(t *testing.T) {
	var called bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, "/chats/c9/read", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
	}))
	defer srv.Close()

	c := New(srv.URL)
	require.NoError(t, c.MarkChatRead(context.Background(), "c9"))
	assert.True(t, called)
}

func TestSendMediaMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "image/png", r.FormValue("mediaType"))
		assert.Equal(t, "see attached", r.FormValue("caption"))
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "shot.png", header.Filename)
		_, _ = w.Write([]byte(`{"id":"srv-2","fromMe":true}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	msg, err := c.SendMedia(context.Background(), "c1", "shot.png", "image/png",
		bytes.NewReader([]byte{0x89, 'P', 'N', 'G'}), "see attached")
	require.NoError(t, err)
	assert.Equal(t, "srv-2", msg.ID)
}

func TestListPhonesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/phones", r.URL.Path)
		_, _ = w.Write([]byte(`{"phones":[{"id":"p1","number":"+5511999","connected":true},{"id":"p2","number":"+5511888","connected":false}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	phones, err := c.ListPhones(context.Background())
	require.NoError(t, err)
	require.Len(t, phones, 2)
	assert.Equal(t, "+5511999", phones[0].Number)
	assert.True(t, phones[0].Connected)
	assert.False(t, phones[1].Connected)
}

func TestPhoneLifecycleEndpoints(t *testing.T) {
	tests := []struct {
		name   string
		call   func(c *Client) error
		method string
		path   string
	}{
		{"connect", func(c *Client) error { return c.ConnectPhone(context.Background(), "p1") }, http.MethodPost, "/phones/p1/connect"},
		{"disconnect", func(c *Client) error { return c.DisconnectPhone(context.Background(), "p1") }, http.MethodPost, "/phones/p1/disconnect"},
		{"delete", func(c *Client) error { return c.DeletePhone(context.Background(), "p1") }, http.MethodDelete, "/phones/p1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				assert.Equal(t, tt.method, r.Method)
				assert.Equal(t, tt.path, r.URL.Path)
			}))
			defer srv.Close()

			require.NoError(t, tt.call(New(srv.URL)))
			assert.True(t, called)
		})
	}
}

func TestListUsersBareArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id":"u1","name":"Ana","email":"ana@example.test"}]`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	users, err := c.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Ana", users[0].Name)
}

func TestCreateUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/users", r.URL.Path)
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "Ana", payload["name"])
		assert.Equal(t, "ana@example.test", payload["email"])
		assert.Equal(t, "secret", payload["password"])
		_, _ = w.Write([]byte(`{"id":"u9","name":"Ana","email":"ana@example.test"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	u, err := c.CreateUser(context.Background(), "Ana", "ana@example.test", "secret")
	require.NoError(t, err)
	assert.Equal(t, "u9", u.ID)
}
