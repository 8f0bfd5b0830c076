package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/opchat/opchat/internal/domain"
)

// Client is the HTTP/JSON client for the messenger administration
// backend. It is safe for concurrent use; the session token may be
// swapped at any time.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// New creates a backend client for the given base URL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// SetToken installs the session token used for subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current session token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Login authenticates with email and password and returns a session
// token. The token is not installed automatically.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	body, err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", err
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	if resp.Token == "" {
		return "", fmt.Errorf("login response carried no token")
	}
	return resp.Token, nil
}

// Me returns the currently authenticated operator.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	body, err := c.do(ctx, http.MethodGet, "/users/me", nil)
	if err != nil {
		return nil, err
	}
	var u domain.User
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &u, nil
}

// ListChats returns the chats assigned to (or visible to) the current
// operator, in backend order.
func (c *Client) ListChats(ctx context.Context) ([]*domain.Chat, error) {
	body, err := c.do(ctx, http.MethodGet, "/chats", nil)
	if err != nil {
		return nil, err
	}
	var chats []*domain.Chat
	if err := unmarshalCollection(body, "chats", &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

// ListMessages returns all messages for a chat, in backend order.
func (c *Client) ListMessages(ctx context.Context, chatID string) ([]*domain.Message, error) {
	body, err := c.do(ctx, http.MethodGet, "/chats/"+url.PathEscape(chatID)+"/messages", nil)
	if err != nil {
		return nil, err
	}
	var msgs []*domain.Message
	if err := unmarshalCollection(body, "messages", &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// SendText creates a text message from the given organization phone to
// the given remote party and returns the created message.
func (c *Client) SendText(ctx context.Context, orgPhoneID, remoteID, text string) (*domain.Message, error) {
	body, err := c.do(ctx, http.MethodPost, "/messages", map[string]string{
		"organizationPhoneId": orgPhoneID,
		"remoteJid":           remoteID,
		"content":             text,
	})
	if err != nil {
		return nil, err
	}
	var m domain.Message
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("decode sent message: %w", err)
	}
	return &m, nil
}

// SendMedia uploads a media message for a chat with an optional caption.
func (c *Client) SendMedia(ctx context.Context, chatID, filename, mimeType string, data io.Reader, caption string) (*domain.Message, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("multipart file: %w", err)
	}
	if _, err := io.Copy(part, data); err != nil {
		return nil, fmt.Errorf("copy media: %w", err)
	}
	if err := mw.WriteField("mediaType", mimeType); err != nil {
		return nil, err
	}
	if caption != "" {
		if err := mw.WriteField("caption", caption); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chats/"+url.PathEscape(chatID)+"/media", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	body, err := c.roundTrip(req)
	if err != nil {
		return nil, err
	}
	var m domain.Message
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("decode sent media message: %w", err)
	}
	return &m, nil
}

// FetchMedia downloads an attachment by its server path.
func (c *Client) FetchMedia(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// MarkChatRead resets a chat's unread counter on the backend.
func (c *Client) MarkChatRead(ctx context.Context, chatID string) error {
	_, err := c.do(ctx, http.MethodPost, "/chats/"+url.PathEscape(chatID)+"/read", nil)
	return err
}

// ListPhones returns the organization's phone numbers.
func (c *Client) ListPhones(ctx context.Context) ([]*domain.OrgPhone, error) {
	body, err := c.do(ctx, http.MethodGet, "/phones", nil)
	if err != nil {
		return nil, err
	}
	var phones []*domain.OrgPhone
	if err := unmarshalCollection(body, "phones", &phones); err != nil {
		return nil, err
	}
	return phones, nil
}

// ConnectPhone asks the backend to bring an organization phone online.
func (c *Client) ConnectPhone(ctx context.Context, phoneID string) error {
	_, err := c.do(ctx, http.MethodPost, "/phones/"+url.PathEscape(phoneID)+"/connect", nil)
	return err
}

// DisconnectPhone takes an organization phone offline.
func (c *Client) DisconnectPhone(ctx context.Context, phoneID string) error {
	_, err := c.do(ctx, http.MethodPost, "/phones/"+url.PathEscape(phoneID)+"/disconnect", nil)
	return err
}

// DeletePhone removes an organization phone.
func (c *Client) DeletePhone(ctx context.Context, phoneID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/phones/"+url.PathEscape(phoneID), nil)
	return err
}

// ListUsers returns the organization's operator accounts.
func (c *Client) ListUsers(ctx context.Context) ([]*domain.User, error) {
	body, err := c.do(ctx, http.MethodGet, "/users", nil)
	if err != nil {
		return nil, err
	}
	var users []*domain.User
	if err := unmarshalCollection(body, "users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CreateUser creates an operator account.
func (c *Client) CreateUser(ctx context.Context, name, email, password string) (*domain.User, error) {
	body, err := c.do(ctx, http.MethodPost, "/users", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	var u domain.User
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, fmt.Errorf("decode created user: %w", err)
	}
	return &u, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.roundTrip(req)
}

func (c *Client) roundTrip(req *http.Request) ([]byte, error) {
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthorized
	case resp.StatusCode >= 400:
		return nil, &APIError{Status: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}
